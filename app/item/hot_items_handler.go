package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"
)

type HotItemsHandler struct {
	repository Repository
}

type HotItemsRequest struct {
	Count int `query:"count"`
}

type HotItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func NewHotItemsHandler(repository Repository) *HotItemsHandler {
	return &HotItemsHandler{
		repository: repository,
	}
}

// Handle returns the top count open items by popularity, newest id winning
// ties. Popularity is too volatile for a stable cursor, so this view is a
// bounded single shot rather than a paged feed.
func (h HotItemsHandler) Handle(ctx context.Context, req *HotItemsRequest) (*HotItemsResponse, error) {
	if err := paging.CheckCount(req.Count, paging.MaxItemPage); err != nil {
		return nil, httperror.BadRequest(
			"item.hot.invalid_count",
			err.Error(),
			nil,
		)
	}

	items, err := h.repository.HotItems(ctx, req.Count)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.hot.failed",
			"Failed to retrieve items",
			nil,
		)
	}

	return &HotItemsResponse{
		Items: items,
	}, nil
}
