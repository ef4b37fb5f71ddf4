package item

import (
	"context"

	"market/domain"
	"market/pkg/httperror"
	"market/pkg/paging"
)

type SyncItemsHandler struct {
	repository Repository
}

// SyncItemsRequest asks for every item modified strictly after
// LastSyncMills, oldest change first, so a polling replica can mirror the
// catalog without gaps. Blocked, closed and dealt items are included here on
// purpose: the replica must learn about those transitions too.
type SyncItemsRequest struct {
	LastSyncMills int64 `query:"lastSyncMills"`
	Count         int   `query:"count"`
}

type SyncItemsResponse struct {
	Items []domain.Item `json:"items"`
}

func NewSyncItemsHandler(repository Repository) *SyncItemsHandler {
	return &SyncItemsHandler{
		repository: repository,
	}
}

func (h SyncItemsHandler) Handle(ctx context.Context, req *SyncItemsRequest) (*SyncItemsResponse, error) {
	if err := paging.CheckCount(req.Count, paging.MaxSyncPage); err != nil {
		return nil, httperror.BadRequest(
			"item.sync.invalid_count",
			err.Error(),
			nil,
		)
	}

	if req.LastSyncMills < 1 {
		return nil, httperror.BadRequest(
			"item.sync.invalid_cursor",
			"lastSyncMills must be a positive millisecond timestamp",
			nil,
		)
	}

	items, err := h.repository.SyncItems(ctx, req.LastSyncMills, req.Count)
	if err != nil {
		return nil, httperror.ServiceUnavailable(
			"item.sync.failed",
			"Failed to retrieve items",
			nil,
		)
	}

	return &SyncItemsResponse{
		Items: items,
	}, nil
}
