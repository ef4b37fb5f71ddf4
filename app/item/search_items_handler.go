package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"

	"github.com/shopspring/decimal"
)

type SearchItemsHandler struct {
	repository Repository
}

// SearchItemsRequest intersects a case-insensitive name substring match with
// an inclusive price range. An empty name means no name filter; a zero price
// bound leaves that side unbounded.
type SearchItemsRequest struct {
	Name       string          `query:"name"`
	MinPrice   decimal.Decimal `query:"minPrice"`
	MaxPrice   decimal.Decimal `query:"maxPrice"`
	LastItemID int64           `query:"lastItemID"`
	Count      int             `query:"count"`
}

// SearchItemsResponse is a result bundle rather than a bare list: Total is
// the full match count under the same predicate, LastItemID the cursor for
// the next page (0 when this page was empty).
type SearchItemsResponse struct {
	Items      []domain.Item `json:"items"`
	Total      int64         `json:"total"`
	LastItemID int64         `json:"lastItemID"`
}

func NewSearchItemsHandler(repository Repository) *SearchItemsHandler {
	return &SearchItemsHandler{
		repository: repository,
	}
}

func (h SearchItemsHandler) Handle(ctx context.Context, req *SearchItemsRequest) (*SearchItemsResponse, error) {
	if err := paging.CheckCount(req.Count, paging.MaxItemPage); err != nil {
		return nil, httperror.BadRequest(
			"item.search.invalid_count",
			err.Error(),
			nil,
		)
	}

	if req.LastItemID < 0 {
		return nil, httperror.BadRequest(
			"item.search.invalid_cursor",
			"lastItemID must not be negative",
			nil,
		)
	}

	if req.MinPrice.IsNegative() || req.MaxPrice.IsNegative() {
		return nil, httperror.BadRequest(
			"item.search.invalid_price",
			"Price bounds must not be negative",
			nil,
		)
	}

	if !req.MaxPrice.IsZero() && req.MaxPrice.LessThan(req.MinPrice) {
		return nil, httperror.BadRequest(
			"item.search.invalid_range",
			"maxPrice must not be below minPrice",
			nil,
		)
	}

	items, total, err := h.repository.SearchItems(ctx, SearchQuery{
		Name:     req.Name,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		LastID:   req.LastItemID,
		Count:    req.Count,
	})
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.search.failed",
			"Failed to search items",
			nil,
		)
	}

	var lastID int64
	if len(items) > 0 {
		lastID = items[len(items)-1].ID
	}

	return &SearchItemsResponse{
		Items:      items,
		Total:      total,
		LastItemID: lastID,
	}, nil
}
