package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"
)

type ListItemsHandler struct {
	repository Repository
}

// ListItemsRequest continues the global open feed past LastItemID, newest
// first. LastItemID 0 asks for the first page.
type ListItemsRequest struct {
	LastItemID int64 `query:"lastItemID"`
	Count      int   `query:"count"`
}

type ListItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func NewListItemsHandler(repository Repository) *ListItemsHandler {
	return &ListItemsHandler{
		repository: repository,
	}
}

func (h ListItemsHandler) Handle(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	if err := paging.CheckCount(req.Count, paging.MaxItemPage); err != nil {
		return nil, httperror.BadRequest(
			"item.index.invalid_count",
			err.Error(),
			nil,
		)
	}

	if req.LastItemID < 0 {
		return nil, httperror.BadRequest(
			"item.index.invalid_cursor",
			"lastItemID must not be negative",
			nil,
		)
	}

	items, err := h.repository.LatestItems(ctx, req.LastItemID, req.Count)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.index.failed",
			"Failed to retrieve items",
			nil,
		)
	}

	return &ListItemsResponse{
		Items: items,
	}, nil
}
