package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"
)

type LatestItemsHandler struct {
	repository Repository
}

type LatestItemsRequest struct {
	Count int `query:"count"`
}

type LatestItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func NewLatestItemsHandler(repository Repository) *LatestItemsHandler {
	return &LatestItemsHandler{
		repository: repository,
	}
}

// Handle returns the newest open items. It is the first page of the global
// feed; ListItemsHandler continues it with a cursor.
func (h LatestItemsHandler) Handle(ctx context.Context, req *LatestItemsRequest) (*LatestItemsResponse, error) {
	if err := paging.CheckCount(req.Count, paging.MaxItemPage); err != nil {
		return nil, httperror.BadRequest(
			"item.latest.invalid_count",
			err.Error(),
			nil,
		)
	}

	items, err := h.repository.LatestItems(ctx, 0, req.Count)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.latest.failed",
			"Failed to retrieve items",
			nil,
		)
	}

	return &LatestItemsResponse{
		Items: items,
	}, nil
}
