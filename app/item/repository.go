package item

import (
	"context"
	"errors"

	"market/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound means the referenced item does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrConflict means a compare-and-set update lost a race and may be
	// retried against a fresh read.
	ErrConflict = errors.New("item concurrently modified")
)

// SearchQuery filters open items by name substring (case-insensitive, empty
// means no name filter) and an inclusive price range (a zero bound leaves
// that side unbounded). LastID pages the results like every other id feed.
type SearchQuery struct {
	Name     string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	LastID   int64
	Count    int
}

type Repository interface {
	Close() error

	// CreateItem persists it with a fresh id from a monotonic sequence.
	CreateItem(ctx context.Context, it domain.Item) (domain.Item, error)
	GetItem(ctx context.Context, id int64) (domain.Item, error)
	// UpdateItem overwrites the row only if its last_modified still equals
	// prevModified, otherwise ErrConflict. ErrNotFound if the row is gone.
	UpdateItem(ctx context.Context, it domain.Item, prevModified int64) (domain.Item, error)

	// LatestItems scans open items by id descending, strictly below lastID
	// (0 means from the newest).
	LatestItems(ctx context.Context, lastID int64, count int) ([]domain.Item, error)
	// SellerItems scans one seller's items: the dealt subset when deal is
	// true, the open subset otherwise.
	SellerItems(ctx context.Context, sellerID int64, deal bool, lastID int64, count int) ([]domain.Item, error)
	// ClosedItems scans one seller's listings paused by the seller.
	ClosedItems(ctx context.Context, sellerID, lastID int64, count int) ([]domain.Item, error)
	// CategoryItems scans a category's open items.
	CategoryItems(ctx context.Context, categoryID, lastID int64, count int) ([]domain.Item, error)

	// Counts mirror the filters of the corresponding scans exactly.
	CountItems(ctx context.Context, deal bool) (int64, error)
	CountSellerItems(ctx context.Context, sellerID int64, deal bool) (int64, error)
	CountCategoryItems(ctx context.Context, categoryID int64) (int64, error)

	// HotItems returns the top count open items by popularity, newest id
	// winning ties.
	HotItems(ctx context.Context, count int) ([]domain.Item, error)
	// SyncItems scans all items, blocked and closed included, modified
	// strictly after lastSyncMills, ascending by (lastModified, id).
	SyncItems(ctx context.Context, lastSyncMills int64, count int) ([]domain.Item, error)
	// SearchItems returns a page of matches plus the total match count.
	SearchItems(ctx context.Context, q SearchQuery) ([]domain.Item, int64, error)
}
