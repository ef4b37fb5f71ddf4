package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"market/app/item"
	"market/pkg/events"

	"go.uber.org/zap"
)

// RankingEventHandler stores the externally computed popularity signal. The
// write deliberately keeps last_modified untouched: a score change is not a
// catalog state transition and must not flood the sync feed.
type RankingEventHandler struct {
	repository item.Repository
	logger     *zap.Logger
}

func NewRankingEventHandler(repository item.Repository, logger *zap.Logger) *RankingEventHandler {
	return &RankingEventHandler{
		repository: repository,
		logger:     logger,
	}
}

func (h *RankingEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Event {
	case events.RankingUpdatedEvent:
		return h.handleRankingUpdated(ctx, event)
	default:
		zap.L().Warn("Unknown ranking event type", zap.String("event", event.Event))
		return nil
	}
}

func (h *RankingEventHandler) handleRankingUpdated(ctx context.Context, event *events.Event) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("malformed payload - marshal failed: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return fmt.Errorf("malformed payload - unmarshal failed: %w", err)
	}

	itemIDRaw, ok := payload["itemId"].(float64)
	if !ok || itemIDRaw < 1 {
		return fmt.Errorf("malformed payload - itemId missing or invalid")
	}
	itemID := int64(itemIDRaw)

	popularityRaw, ok := payload["popularity"].(float64)
	if !ok {
		return fmt.Errorf("malformed payload - popularity missing or invalid")
	}
	popularity := int64(popularityRaw)

	const maxRetries = 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		it, err := h.repository.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}

		if it.Popularity == popularity {
			return nil
		}

		it.Popularity = popularity

		if _, err := h.repository.UpdateItem(ctx, it, it.LastModified); err != nil {
			if errors.Is(err, item.ErrConflict) {
				if attempt < maxRetries {
					time.Sleep(time.Duration(10*attempt) * time.Millisecond)
					continue
				}
				return fmt.Errorf("failed to update item after %d retries due to concurrent modifications", maxRetries)
			}
			return fmt.Errorf("failed to update item: %w", err)
		}

		zap.L().Info("Item popularity updated",
			zap.Int64("itemId", itemID),
			zap.Int64("popularity", popularity),
		)

		return nil
	}

	return fmt.Errorf("unexpected error: max retries reached")
}
