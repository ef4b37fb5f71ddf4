package item

import (
	"context"
	"errors"
	"time"

	"market/domain"
	"market/pkg/events"
	"market/pkg/httperror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AlterItemHandler struct {
	repository     Repository
	eventPublisher events.Publisher
}

// AlterItemRequest corrects individual fields. Absent fields stay untouched;
// present fields are written even when zero, so a free item or an emptied
// description remain expressible.
type AlterItemRequest struct {
	ItemID      int64            `params:"id" validate:"required,min=1"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Extra       *string          `json:"extra,omitempty"`
}

type AlterItemResponse struct {
	Item domain.Item `json:"item"`
}

func NewAlterItemHandler(repository Repository, eventPublisher events.Publisher) *AlterItemHandler {
	return &AlterItemHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
	}
}

func (h AlterItemHandler) Handle(ctx context.Context, req *AlterItemRequest) (*AlterItemResponse, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return nil, httperror.BadRequest(
				"item.alter.validation_failed",
				"Validation failed for the request",
				ve.Error(),
			)
		}

		return nil, httperror.InternalServerError(
			"item.alter.validation_error",
			"An unexpected validation error occurred",
			nil,
		)
	}

	if req.Price != nil && req.Price.IsNegative() {
		return nil, httperror.BadRequest(
			"item.alter.invalid_price",
			"Price must not be negative",
			nil,
		)
	}

	change := domain.ItemChange{
		Price:       req.Price,
		Name:        req.Name,
		Description: req.Description,
		Extra:       req.Extra,
	}

	for attempt := 0; ; attempt++ {
		it, err := h.repository.GetItem(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.alter.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.alter.failed",
				"Failed to get item",
				nil,
			)
		}

		if it.Blocked {
			return nil, httperror.NotFound(
				"item.alter.not_found",
				"Item not found",
				nil,
			)
		}

		if !change.Apply(&it) {
			// Nothing to write.
			return &AlterItemResponse{Item: it}, nil
		}

		prev := it.LastModified
		it.LastModified = domain.NextModified(prev)

		updated, err := h.repository.UpdateItem(ctx, it, prev)
		if err != nil {
			if errors.Is(err, ErrConflict) && attempt == 0 {
				continue
			}
			if errors.Is(err, ErrConflict) {
				return nil, httperror.Conflict(
					"item.alter.conflict",
					"Item was concurrently modified, retry the request",
					nil,
				)
			}
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.alter.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.alter.update_failed",
				"An error occurred while updating the item",
				nil,
			)
		}

		h.publishUpdated(updated)

		return &AlterItemResponse{
			Item: updated,
		}, nil
	}
}

func (h AlterItemHandler) publishUpdated(it domain.Item) {
	if h.eventPublisher == nil {
		return
	}

	eventPayload := events.ItemUpdatedPayload{
		ID:           it.ID,
		Name:         it.Name,
		Description:  it.Description,
		Extra:        it.Extra,
		Price:        it.Price,
		CategoryID:   it.CategoryID,
		LastModified: it.LastModified,
	}

	headers := events.Headers{
		TraceID:       events.GenerateTraceID(),
		CorrelationID: events.GenerateCorrelationID(),
	}

	event := events.NewEvent(events.ItemUpdatedEvent, events.EventVersionV1, eventPayload, headers)

	publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.eventPublisher.Publish(publishCtx, events.ItemExchange, event, headers); err != nil {
		zap.L().Error("Failed to publish item.updated event",
			zap.Int64("itemId", it.ID),
			zap.Error(err))
	}
}
