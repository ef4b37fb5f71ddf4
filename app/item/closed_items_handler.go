package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"
)

type ClosedItemsHandler struct {
	repository Repository
}

type ClosedItemsRequest struct {
	UserID     int64 `params:"id"`
	LastItemID int64 `query:"lastItemID"`
	Count      int   `query:"count"`
}

type ClosedItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func NewClosedItemsHandler(repository Repository) *ClosedItemsHandler {
	return &ClosedItemsHandler{
		repository: repository,
	}
}

// Handle pages the listings a seller has paused. Blocked items stay hidden
// even from their owner.
func (h ClosedItemsHandler) Handle(ctx context.Context, req *ClosedItemsRequest) (*ClosedItemsResponse, error) {
	if req.UserID < 1 {
		return nil, httperror.BadRequest(
			"item.closed.invalid_user",
			"User id must be a positive integer",
			nil,
		)
	}

	if err := paging.CheckCount(req.Count, paging.MaxItemPage); err != nil {
		return nil, httperror.BadRequest(
			"item.closed.invalid_count",
			err.Error(),
			nil,
		)
	}

	if req.LastItemID < 0 {
		return nil, httperror.BadRequest(
			"item.closed.invalid_cursor",
			"lastItemID must not be negative",
			nil,
		)
	}

	items, err := h.repository.ClosedItems(ctx, req.UserID, req.LastItemID, req.Count)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.closed.failed",
			"Failed to retrieve items",
			nil,
		)
	}

	return &ClosedItemsResponse{
		Items: items,
	}, nil
}
