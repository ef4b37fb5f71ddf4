// Package paging is the cursor pagination primitive shared by every listing
// view. A cursor is the ordering key of the last element the client saw; a
// page is the next count elements strictly past it, in the collection's total
// order. Ties on the primary key always break on the item id, so pages never
// skip or repeat elements while the collection mutates between requests.
package paging

import "fmt"

const (
	// MaxItemPage bounds every human-facing item feed.
	MaxItemPage = 50
	// MaxSyncPage bounds the replication feed.
	MaxSyncPage = 200
)

// CheckCount validates a requested page size against its bound.
func CheckCount(count, max int) error {
	if count < 1 || count > max {
		return fmt.Errorf("count must be between 1 and %d, got %d", max, count)
	}
	return nil
}

// Page returns up to count elements of sorted that lie strictly past the
// caller's cursor. sorted must already be in the view's total order; past
// reports whether an element is beyond the cursor.
func Page[T any](sorted []T, past func(T) bool, count int) []T {
	page := make([]T, 0, count)
	for _, el := range sorted {
		if !past(el) {
			continue
		}
		page = append(page, el)
		if len(page) == count {
			break
		}
	}
	return page
}
