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

type CloseItemHandler struct {
	repository     Repository
	eventPublisher events.Publisher
}

// CloseItemRequest pauses a listing (close=true) or puts it back on sale
// (close=false). Only the owner may toggle it.
type CloseItemRequest struct {
	ItemID int64 `params:"id" validate:"required,min=1"`
	Close  bool  `json:"close"`
}

type CloseItemResponse struct {
	Item domain.Item `json:"item"`
}

func NewCloseItemHandler(repository Repository, eventPublisher events.Publisher) *CloseItemHandler {
	return &CloseItemHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
	}
}

func (h CloseItemHandler) Handle(ctx context.Context, req *CloseItemRequest) (*CloseItemResponse, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return nil, httperror.BadRequest(
				"item.close.validation_failed",
				"Validation failed for the request",
				ve.Error(),
			)
		}

		return nil, httperror.InternalServerError(
			"item.close.validation_error",
			"An unexpected validation error occurred",
			nil,
		)
	}

	sellerID, ok := ctx.Value("UserID").(int64)
	if !ok || sellerID < 1 {
		return nil, httperror.Forbidden(
			"item.close.no_seller",
			"A valid seller identity is required",
			nil,
		)
	}

	for attempt := 0; ; attempt++ {
		it, err := h.repository.GetItem(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.close.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.close.failed",
				"Failed to get item",
				nil,
			)
		}

		if it.SellerID != sellerID {
			return nil, httperror.Forbidden(
				"item.close.forbidden",
				"Only the owner may close or reopen this item",
				nil,
			)
		}

		if it.Closed == req.Close {
			// Re-applying the same state is a no-op, not an error.
			return &CloseItemResponse{Item: it}, nil
		}

		it.Closed = req.Close

		prev := it.LastModified
		it.LastModified = domain.NextModified(prev)

		updated, err := h.repository.UpdateItem(ctx, it, prev)
		if err != nil {
			if errors.Is(err, ErrConflict) && attempt == 0 {
				continue
			}
			if errors.Is(err, ErrConflict) {
				return nil, httperror.Conflict(
					"item.close.conflict",
					"Item was concurrently modified, retry the request",
					nil,
				)
			}
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.close.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.close.update_failed",
				"An error occurred while updating the item",
				nil,
			)
		}

		if h.eventPublisher != nil {
			eventPayload := events.ItemClosedPayload{
				ID:           updated.ID,
				SellerID:     updated.SellerID,
				Closed:       updated.Closed,
				LastModified: updated.LastModified,
			}

			headers := events.Headers{
				TraceID:       events.GenerateTraceID(),
				CorrelationID: events.GenerateCorrelationID(),
			}

			event := events.NewEvent(events.ItemClosedEvent, events.EventVersionV1, eventPayload, headers)

			publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := h.eventPublisher.Publish(publishCtx, events.ItemExchange, event, headers); err != nil {
				zap.L().Error("Failed to publish item.closed event",
					zap.Int64("itemId", updated.ID),
					zap.Error(err))
			}
		}

		return &CloseItemResponse{
			Item: updated,
		}, nil
	}
}
