package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"market/app/item"
	"market/domain"
	"market/pkg/events"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TradeEventHandler applies settled sales to the catalog. The deal flag has
// no writer on the HTTP surface; this is the only place it flips.
type TradeEventHandler struct {
	repository item.Repository
	logger     *zap.Logger
}

func NewTradeEventHandler(repository item.Repository, logger *zap.Logger) *TradeEventHandler {
	return &TradeEventHandler{
		repository: repository,
		logger:     logger,
	}
}

func (h *TradeEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	zap.L().Info("Trade event received",
		zap.String("event", event.Event),
		zap.String("version", event.Version),
		zap.String("traceId", event.TraceID),
	)

	switch event.Event {
	case events.TradeCompletedEvent:
		return h.handleTradeCompleted(ctx, event)
	default:
		zap.L().Warn("Unknown trade event type", zap.String("event", event.Event))
		return nil
	}
}

func (h *TradeEventHandler) handleTradeCompleted(ctx context.Context, event *events.Event) error {
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

	var finalPrice *decimal.Decimal
	if priceStr, ok := payload["price"].(string); ok && priceStr != "" {
		p, err := decimal.NewFromString(priceStr)
		if err != nil {
			return fmt.Errorf("malformed payload - invalid price format: %w", err)
		}
		finalPrice = &p
	}

	zap.L().Info("Processing trade.completed event",
		zap.Int64("itemId", itemID),
		zap.String("traceId", event.TraceID),
	)

	const maxRetries = 3
	for attempt := 1; attempt <= maxRetries; attempt++ {
		it, err := h.repository.GetItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("failed to get item: %w", err)
		}

		if it.Deal {
			// The trade was already applied; redelivered events are fine.
			return nil
		}

		it.Deal = true
		if finalPrice != nil {
			it.Price = *finalPrice
		}

		prev := it.LastModified
		it.LastModified = domain.NextModified(prev)

		if _, err := h.repository.UpdateItem(ctx, it, prev); err != nil {
			if errors.Is(err, item.ErrConflict) {
				if attempt < maxRetries {
					zap.L().Warn("Compare-and-set conflict, retrying",
						zap.Int64("itemId", itemID),
						zap.Int("attempt", attempt),
						zap.Int("maxRetries", maxRetries),
					)
					time.Sleep(time.Duration(10*attempt) * time.Millisecond)
					continue
				}
				return fmt.Errorf("failed to update item after %d retries due to concurrent modifications", maxRetries)
			}
			return fmt.Errorf("failed to update item: %w", err)
		}

		zap.L().Info("Item marked as dealt",
			zap.Int64("itemId", itemID),
			zap.Int("attempt", attempt),
		)

		return nil
	}

	return fmt.Errorf("unexpected error: max retries reached")
}
