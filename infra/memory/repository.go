// Package memory is an in-process item repository with the same ordering and
// visibility semantics as the postgres implementation. Tests and local runs
// use it in place of a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"market/app/item"
	"market/domain"
	"market/pkg/paging"
)

type Repository struct {
	mu     sync.RWMutex
	items  map[int64]domain.Item
	lastID atomic.Int64
}

func NewRepository() *Repository {
	return &Repository{
		items: make(map[int64]domain.Item),
	}
}

func (r *Repository) Close() error {
	return nil
}

func (r *Repository) CreateItem(_ context.Context, it domain.Item) (domain.Item, error) {
	// The atomic counter plays the role of the database sequence: ids are
	// unique and monotonically increasing under concurrent creates.
	it.ID = r.lastID.Add(1)

	r.mu.Lock()
	r.items[it.ID] = it
	r.mu.Unlock()

	return it, nil
}

func (r *Repository) GetItem(_ context.Context, id int64) (domain.Item, error) {
	r.mu.RLock()
	it, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return domain.Item{}, item.ErrNotFound
	}
	return it, nil
}

func (r *Repository) UpdateItem(_ context.Context, it domain.Item, prevModified int64) (domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[it.ID]
	if !ok {
		return domain.Item{}, item.ErrNotFound
	}
	if current.LastModified != prevModified {
		return domain.Item{}, item.ErrConflict
	}

	r.items[it.ID] = it
	return it, nil
}

// snapshot returns matching items under the read lock so every query works
// on an internally consistent view of the collection.
func (r *Repository) snapshot(match func(domain.Item) bool) []domain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Item, 0, len(r.items))
	for _, it := range r.items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

func byIDDesc(items []domain.Item) []domain.Item {
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items
}

func pastID(lastID int64) func(domain.Item) bool {
	return func(it domain.Item) bool { return lastID == 0 || it.ID < lastID }
}

func (r *Repository) LatestItems(_ context.Context, lastID int64, count int) ([]domain.Item, error) {
	open := byIDDesc(r.snapshot(domain.Item.Open))
	return paging.Page(open, pastID(lastID), count), nil
}

func sellerSubset(sellerID int64, deal bool) func(domain.Item) bool {
	return func(it domain.Item) bool {
		if it.SellerID != sellerID {
			return false
		}
		if deal {
			return !it.Blocked && it.Deal
		}
		return it.Open()
	}
}

func (r *Repository) SellerItems(_ context.Context, sellerID int64, deal bool, lastID int64, count int) ([]domain.Item, error) {
	matched := byIDDesc(r.snapshot(sellerSubset(sellerID, deal)))
	return paging.Page(matched, pastID(lastID), count), nil
}

func (r *Repository) ClosedItems(_ context.Context, sellerID, lastID int64, count int) ([]domain.Item, error) {
	matched := byIDDesc(r.snapshot(func(it domain.Item) bool {
		return it.SellerID == sellerID && it.Closed && !it.Blocked
	}))
	return paging.Page(matched, pastID(lastID), count), nil
}

func (r *Repository) CategoryItems(_ context.Context, categoryID, lastID int64, count int) ([]domain.Item, error) {
	matched := byIDDesc(r.snapshot(func(it domain.Item) bool {
		return it.CategoryID == categoryID && it.Open()
	}))
	return paging.Page(matched, pastID(lastID), count), nil
}

func (r *Repository) CountItems(_ context.Context, deal bool) (int64, error) {
	matched := r.snapshot(func(it domain.Item) bool {
		if deal {
			return !it.Blocked && it.Deal
		}
		return it.Open()
	})
	return int64(len(matched)), nil
}

func (r *Repository) CountSellerItems(_ context.Context, sellerID int64, deal bool) (int64, error) {
	return int64(len(r.snapshot(sellerSubset(sellerID, deal)))), nil
}

func (r *Repository) CountCategoryItems(_ context.Context, categoryID int64) (int64, error) {
	matched := r.snapshot(func(it domain.Item) bool {
		return it.CategoryID == categoryID && it.Open()
	})
	return int64(len(matched)), nil
}

func (r *Repository) HotItems(_ context.Context, count int) ([]domain.Item, error) {
	open := r.snapshot(domain.Item.Open)
	sort.Slice(open, func(i, j int) bool {
		if open[i].Popularity != open[j].Popularity {
			return open[i].Popularity > open[j].Popularity
		}
		return open[i].ID > open[j].ID
	})
	if len(open) > count {
		open = open[:count]
	}
	return open, nil
}

func (r *Repository) SyncItems(_ context.Context, lastSyncMills int64, count int) ([]domain.Item, error) {
	// Sync sees everything, blocked and closed included.
	all := r.snapshot(func(domain.Item) bool { return true })
	sort.Slice(all, func(i, j int) bool {
		if all[i].LastModified != all[j].LastModified {
			return all[i].LastModified < all[j].LastModified
		}
		return all[i].ID < all[j].ID
	})
	past := func(it domain.Item) bool { return it.LastModified > lastSyncMills }
	return paging.Page(all, past, count), nil
}

func (r *Repository) SearchItems(_ context.Context, q item.SearchQuery) ([]domain.Item, int64, error) {
	needle := strings.ToLower(q.Name)
	matched := byIDDesc(r.snapshot(func(it domain.Item) bool {
		if !it.Open() {
			return false
		}
		if needle != "" && !strings.Contains(strings.ToLower(it.Name), needle) {
			return false
		}
		if !q.MinPrice.IsZero() && it.Price.LessThan(q.MinPrice) {
			return false
		}
		if !q.MaxPrice.IsZero() && it.Price.GreaterThan(q.MaxPrice) {
			return false
		}
		return true
	}))

	return paging.Page(matched, pastID(q.LastID), q.Count), int64(len(matched)), nil
}
