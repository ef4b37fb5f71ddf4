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

type ModifyItemHandler struct {
	repository     Repository
	eventPublisher events.Publisher
}

// ModifyItemRequest is the owner's full content overwrite: every content
// field is written as given, unlike the per-field AlterItemRequest.
type ModifyItemRequest struct {
	ItemID      int64           `params:"id" validate:"required,min=1"`
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description"`
	Extra       *string         `json:"extra"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"categoryID" validate:"required,min=1"`
}

type ModifyItemResponse struct {
	Item domain.Item `json:"item"`
}

func NewModifyItemHandler(repository Repository, eventPublisher events.Publisher) *ModifyItemHandler {
	return &ModifyItemHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
	}
}

func (h ModifyItemHandler) Handle(ctx context.Context, req *ModifyItemRequest) (*ModifyItemResponse, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return nil, httperror.BadRequest(
				"item.modify.validation_failed",
				"Validation failed for the request",
				ve.Error(),
			)
		}

		return nil, httperror.InternalServerError(
			"item.modify.validation_error",
			"An unexpected validation error occurred",
			nil,
		)
	}

	if req.Price.IsNegative() {
		return nil, httperror.BadRequest(
			"item.modify.invalid_price",
			"Price must not be negative",
			nil,
		)
	}

	sellerID, ok := ctx.Value("UserID").(int64)
	if !ok || sellerID < 1 {
		return nil, httperror.Forbidden(
			"item.modify.no_seller",
			"A valid seller identity is required",
			nil,
		)
	}

	// One retry on a lost compare-and-set race, then surface the conflict.
	for attempt := 0; ; attempt++ {
		it, err := h.repository.GetItem(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.modify.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.modify.failed",
				"Failed to get item",
				nil,
			)
		}

		if it.Blocked {
			// Blocked items are hidden from the seller surface entirely.
			return nil, httperror.NotFound(
				"item.modify.not_found",
				"Item not found",
				nil,
			)
		}

		if it.SellerID != sellerID {
			return nil, httperror.Forbidden(
				"item.modify.forbidden",
				"Only the owner may modify this item",
				nil,
			)
		}

		it.Name = req.Name
		it.Description = req.Description
		it.Extra = req.Extra
		it.Price = req.Price
		it.CategoryID = req.CategoryID

		prev := it.LastModified
		it.LastModified = domain.NextModified(prev)

		updated, err := h.repository.UpdateItem(ctx, it, prev)
		if err != nil {
			if errors.Is(err, ErrConflict) && attempt == 0 {
				continue
			}
			if errors.Is(err, ErrConflict) {
				return nil, httperror.Conflict(
					"item.modify.conflict",
					"Item was concurrently modified, retry the request",
					nil,
				)
			}
			if errors.Is(err, ErrNotFound) {
				return nil, httperror.NotFound(
					"item.modify.not_found",
					"Item not found",
					nil,
				)
			}

			return nil, httperror.ServiceUnavailable(
				"item.modify.update_failed",
				"An error occurred while updating the item",
				nil,
			)
		}

		h.publishUpdated(updated)

		return &ModifyItemResponse{
			Item: updated,
		}, nil
	}
}

func (h ModifyItemHandler) publishUpdated(it domain.Item) {
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
