package item

import (
	"context"
	"time"

	"market/domain"
	"market/pkg/events"
	"market/pkg/httperror"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateItemHandler struct {
	repository     Repository
	eventPublisher events.Publisher
}

type CreateItemRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description *string         `json:"description"`
	Extra       *string         `json:"extra"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"categoryID" validate:"required,min=1"`
}

type CreateItemResponse struct {
	Item domain.Item `json:"item"`
}

func NewCreateItemHandler(repository Repository, eventPublisher events.Publisher) *CreateItemHandler {
	return &CreateItemHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
	}
}

func (h CreateItemHandler) Handle(ctx context.Context, req *CreateItemRequest) (*CreateItemResponse, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return nil, httperror.BadRequest(
				"item.create.validation_failed",
				"Validation failed for the request",
				ve.Error(),
			)
		}

		return nil, httperror.InternalServerError(
			"item.create.validation_error",
			"An unexpected validation error occurred",
			nil,
		)
	}

	if req.Price.IsNegative() {
		return nil, httperror.BadRequest(
			"item.create.invalid_price",
			"Price must not be negative",
			nil,
		)
	}

	sellerID, ok := ctx.Value("UserID").(int64)
	if !ok || sellerID < 1 {
		return nil, httperror.Forbidden(
			"item.create.no_seller",
			"A valid seller identity is required",
			nil,
		)
	}

	now := time.Now().UTC()
	created, err := h.repository.CreateItem(ctx, domain.Item{
		Name:         req.Name,
		Description:  req.Description,
		Extra:        req.Extra,
		Price:        req.Price,
		SellerID:     sellerID,
		CategoryID:   req.CategoryID,
		CreatedAt:    now,
		LastModified: now.UnixMilli(),
	})
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.create.create_failed",
			"An error occurred while creating the item",
			nil,
		)
	}

	if h.eventPublisher != nil {
		eventPayload := events.ItemCreatedPayload{
			ID:          created.ID,
			Name:        created.Name,
			Description: created.Description,
			Extra:       created.Extra,
			Price:       created.Price,
			SellerID:    created.SellerID,
			CategoryID:  created.CategoryID,
			CreatedAt:   created.CreatedAt,
		}

		headers := events.Headers{
			TraceID:       events.GenerateTraceID(),
			CorrelationID: events.GenerateCorrelationID(),
		}

		event := events.NewEvent(events.ItemCreatedEvent, events.EventVersionV1, eventPayload, headers)

		publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.eventPublisher.Publish(publishCtx, events.ItemExchange, event, headers); err != nil {
			zap.L().Error("Failed to publish item.created event",
				zap.Int64("itemId", created.ID),
				zap.Error(err))
		}
	}

	return &CreateItemResponse{
		Item: created,
	}, nil
}
