package item

import (
	"context"
	"errors"

	"market/domain"
	"market/pkg/httperror"
)

type GetItemHandler struct {
	repository Repository
}

type GetItemRequest struct {
	ItemID int64 `params:"id"`
}

type GetItemResponse struct {
	Item domain.Item `json:"item"`
}

func NewGetItemHandler(repository Repository) *GetItemHandler {
	return &GetItemHandler{
		repository: repository,
	}
}

func (h GetItemHandler) Handle(ctx context.Context, req *GetItemRequest) (*GetItemResponse, error) {
	if req.ItemID < 1 {
		return nil, httperror.BadRequest(
			"item.show.invalid_id",
			"Item id must be a positive integer",
			nil,
		)
	}

	it, err := h.repository.GetItem(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httperror.NotFound(
				"item.show.not_found",
				"Item not found",
				nil,
			)
		}

		return nil, httperror.ServiceUnavailable(
			"item.show.failed",
			"Failed to retrieve item",
			nil,
		)
	}

	// A blocked item is indistinguishable from a missing one.
	if it.Blocked {
		return nil, httperror.NotFound(
			"item.show.not_found",
			"Item not found",
			nil,
		)
	}

	return &GetItemResponse{
		Item: it,
	}, nil
}
