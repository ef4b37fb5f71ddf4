package item

import (
	"context"
	"errors"
	"time"

	"market/domain"
	"market/pkg/events"
	"market/pkg/httperror"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type BlockItemHandler struct {
	repository     Repository
	eventPublisher events.Publisher
}

// BlockItemRequest hides an item from every public and seller-facing view, or
// lifts the block. Admin privilege is established by the gateway; there is no
// ownership check here.
type BlockItemRequest struct {
	ItemID  int64 `params:"id" validate:"required,min=1"`
	Blocked bool  `json:"blocked"`
}

type BlockItemResponse struct {
	Item domain.Item `json:"item"`
}

func NewBlockItemHandler(repository Repository, eventPublisher events.Publisher) *BlockItemHandler {
	return &BlockItemHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
	}
}

func (h BlockItemHandler) Handle(ctx context.Context, req *BlockItemRequest) (*BlockItemResponse, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return nil, httperror.BadRequest(
				"item.block.validation_failed",
				"Validation failed for the request",
				ve.Error(),
			)
		}

		return nil, httperror.InternalServerError(
			"item.block.validation_error",
			"An unexpected validation error occurred",
			nil,
		)
	}

	for attempt := 0; ; attempt++ {
		it, err := h.repository.GetItem(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.block.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.block.failed",
				"Failed to get item",
				nil,
			)
		}

		if it.Blocked == req.Blocked {
			// Re-applying the same state is a no-op, not an error.
			return &BlockItemResponse{Item: it}, nil
		}

		it.Blocked = req.Blocked

		prev := it.LastModified
		it.LastModified = domain.NextModified(prev)

		updated, err := h.repository.UpdateItem(ctx, it, prev)
		if err != nil {
			if errors.Is(err, ErrConflict) && attempt == 0 {
				continue
			}
			if errors.Is(err, ErrConflict) {
				return nil, httperror.Conflict(
					"item.block.conflict",
					"Item was concurrently modified, retry the request",
					nil,
				)
			}
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.block.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.block.update_failed",
				"An error occurred while updating the item",
				nil,
			)
		}

		if h.eventPublisher != nil {
			eventPayload := events.ItemBlockedPayload{
				ID:           updated.ID,
				Blocked:      updated.Blocked,
				LastModified: updated.LastModified,
			}

			headers := events.Headers{
				TraceID:       events.GenerateTraceID(),
				CorrelationID: events.GenerateCorrelationID(),
			}

			event := events.NewEvent(events.ItemBlockedEvent, events.EventVersionV1, eventPayload, headers)

			publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := h.eventPublisher.Publish(publishCtx, events.ItemExchange, event, headers); err != nil {
				zap.L().Error("Failed to publish item.blocked event",
					zap.Int64("itemId", updated.ID),
					zap.Error(err))
			}
		}

		return &BlockItemResponse{
			Item: updated,
		}, nil
	}
}
