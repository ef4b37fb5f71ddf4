package item

import (
	"context"

	"market/pkg/httperror"
)

// The count handlers answer "how many pages are there" for the paged views,
// so each one applies exactly the filter of its feed.

type CountItemsHandler struct {
	repository Repository
}

type CountItemsRequest struct {
	Deal bool `query:"deal"`
}

type CountItemsResponse struct {
	Count int64 `json:"count"`
}

func NewCountItemsHandler(repository Repository) *CountItemsHandler {
	return &CountItemsHandler{
		repository: repository,
	}
}

func (h CountItemsHandler) Handle(ctx context.Context, req *CountItemsRequest) (*CountItemsResponse, error) {
	count, err := h.repository.CountItems(ctx, req.Deal)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.count.failed",
			"Failed to count items",
			nil,
		)
	}

	return &CountItemsResponse{Count: count}, nil
}

type CountSellerItemsHandler struct {
	repository Repository
}

type CountSellerItemsRequest struct {
	UserID int64 `params:"id"`
	Deal   bool  `query:"deal"`
}

type CountSellerItemsResponse struct {
	Count int64 `json:"count"`
}

func NewCountSellerItemsHandler(repository Repository) *CountSellerItemsHandler {
	return &CountSellerItemsHandler{
		repository: repository,
	}
}

func (h CountSellerItemsHandler) Handle(ctx context.Context, req *CountSellerItemsRequest) (*CountSellerItemsResponse, error) {
	if req.UserID < 1 {
		return nil, httperror.BadRequest(
			"item.seller_count.invalid_user",
			"User id must be a positive integer",
			nil,
		)
	}

	count, err := h.repository.CountSellerItems(ctx, req.UserID, req.Deal)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.seller_count.failed",
			"Failed to count items",
			nil,
		)
	}

	return &CountSellerItemsResponse{Count: count}, nil
}

type CountCategoryItemsHandler struct {
	repository Repository
}

// CountCategoryItemsRequest takes no deal flag: category counts always cover
// open-for-sale items only, matching the category feed.
type CountCategoryItemsRequest struct {
	CategoryID int64 `params:"id"`
}

type CountCategoryItemsResponse struct {
	Count int64 `json:"count"`
}

func NewCountCategoryItemsHandler(repository Repository) *CountCategoryItemsHandler {
	return &CountCategoryItemsHandler{
		repository: repository,
	}
}

func (h CountCategoryItemsHandler) Handle(ctx context.Context, req *CountCategoryItemsRequest) (*CountCategoryItemsResponse, error) {
	if req.CategoryID < 1 {
		return nil, httperror.BadRequest(
			"item.category_count.invalid_category",
			"Category id must be a positive integer",
			nil,
		)
	}

	count, err := h.repository.CountCategoryItems(ctx, req.CategoryID)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.category_count.failed",
			"Failed to count items",
			nil,
		)
	}

	return &CountCategoryItemsResponse{Count: count}, nil
}
