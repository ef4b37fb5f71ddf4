package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"
)

type CategoryItemsHandler struct {
	repository Repository
}

type CategoryItemsRequest struct {
	CategoryID int64 `params:"id"`
	LastItemID int64 `query:"lastItemID"`
	Count      int   `query:"count"`
}

type CategoryItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func NewCategoryItemsHandler(repository Repository) *CategoryItemsHandler {
	return &CategoryItemsHandler{
		repository: repository,
	}
}

// Handle pages a category's open items, newest first. Category existence is
// the master-data service's concern; an unknown id simply yields an empty
// page.
func (h CategoryItemsHandler) Handle(ctx context.Context, req *CategoryItemsRequest) (*CategoryItemsResponse, error) {
	if req.CategoryID < 1 {
		return nil, httperror.BadRequest(
			"item.category.invalid_category",
			"Category id must be a positive integer",
			nil,
		)
	}

	if err := paging.CheckCount(req.Count, paging.MaxItemPage); err != nil {
		return nil, httperror.BadRequest(
			"item.category.invalid_count",
			err.Error(),
			nil,
		)
	}

	if req.LastItemID < 0 {
		return nil, httperror.BadRequest(
			"item.category.invalid_cursor",
			"lastItemID must not be negative",
			nil,
		)
	}

	items, err := h.repository.CategoryItems(ctx, req.CategoryID, req.LastItemID, req.Count)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.category.failed",
			"Failed to retrieve items",
			nil,
		)
	}

	return &CategoryItemsResponse{
		Items: items,
	}, nil
}
