package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"
)

type SellerItemsHandler struct {
	repository Repository
}

// SellerItemsRequest pages one seller's items. Deal true selects the sold
// subset, false the open-for-sale subset; paused listings live in the
// separate closed view.
type SellerItemsRequest struct {
	UserID     int64 `params:"id"`
	Deal       bool  `query:"deal"`
	LastItemID int64 `query:"lastItemID"`
	Count      int   `query:"count"`
}

type SellerItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func NewSellerItemsHandler(repository Repository) *SellerItemsHandler {
	return &SellerItemsHandler{
		repository: repository,
	}
}

func (h SellerItemsHandler) Handle(ctx context.Context, req *SellerItemsRequest) (*SellerItemsResponse, error) {
	if req.UserID < 1 {
		return nil, httperror.BadRequest(
			"item.seller.invalid_user",
			"User id must be a positive integer",
			nil,
		)
	}

	if err := paging.CheckCount(req.Count, paging.MaxItemPage); err != nil {
		return nil, httperror.BadRequest(
			"item.seller.invalid_count",
			err.Error(),
			nil,
		)
	}

	if req.LastItemID < 0 {
		return nil, httperror.BadRequest(
			"item.seller.invalid_cursor",
			"lastItemID must not be negative",
			nil,
		)
	}

	items, err := h.repository.SellerItems(ctx, req.UserID, req.Deal, req.LastItemID, req.Count)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.seller.failed",
			"Failed to retrieve items",
			nil,
		)
	}

	return &SellerItemsResponse{
		Items: items,
	}, nil
}
