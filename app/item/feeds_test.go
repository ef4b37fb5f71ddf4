package item_test

import (
	"context"
	"fmt"
	"testing"

	"market/app/item"
	"market/domain"
	"market/infra/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItems(t *testing.T, repo item.Repository, sellerID, categoryID int64, n int) []domain.Item {
	t.Helper()

	items := make([]domain.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, createItem(t, repo, sellerID, item.CreateItemRequest{
			Name:       fmt.Sprintf("Item %d", i+1),
			Price:      decimal.NewFromInt(int64(10 * (i + 1))),
			CategoryID: categoryID,
		}))
	}
	return items
}

// mutate rewrites an item through the repository's compare-and-set path.
func mutate(t *testing.T, repo item.Repository, id int64, bumpModified bool, fn func(*domain.Item)) domain.Item {
	t.Helper()

	it, err := repo.GetItem(context.Background(), id)
	require.NoError(t, err)

	prev := it.LastModified
	fn(&it)
	if bumpModified {
		it.LastModified = domain.NextModified(prev)
	}

	updated, err := repo.UpdateItem(context.Background(), it, prev)
	require.NoError(t, err)
	return updated
}

func itemIDs(items []domain.Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestLatestAndCursorPaging(t *testing.T) {
	repo := memory.NewRepository()
	seedItems(t, repo, 7, 3, 7)

	latest := item.NewLatestItemsHandler(repo)
	list := item.NewListItemsHandler(repo)

	first, err := latest.Handle(context.Background(), &item.LatestItemsRequest{Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 6, 5}, itemIDs(first.Items))

	// A concurrent insert ahead of the cursor must not disturb page two.
	seedItems(t, repo, 8, 3, 1)

	second, err := list.Handle(context.Background(), &item.ListItemsRequest{LastItemID: 5, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 2}, itemIDs(second.Items))

	third, err := list.Handle(context.Background(), &item.ListItemsRequest{LastItemID: 2, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, itemIDs(third.Items))

	t.Run("empty page is not an error", func(t *testing.T) {
		res, err := list.Handle(context.Background(), &item.ListItemsRequest{LastItemID: 1, Count: 3})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
	})
}

func TestPageCountBounds(t *testing.T) {
	repo := memory.NewRepository()

	latest := item.NewLatestItemsHandler(repo)
	sync := item.NewSyncItemsHandler(repo)

	for _, count := range []int{0, -1, 51} {
		_, err := latest.Handle(context.Background(), &item.LatestItemsRequest{Count: count})
		require.Error(t, err, "count %d", count)
		assert.Equal(t, 400, httpStatus(t, err))
	}

	// Sync has its own, larger bound.
	_, err := sync.Handle(context.Background(), &item.SyncItemsRequest{LastSyncMills: 1, Count: 200})
	require.NoError(t, err)

	_, err = sync.Handle(context.Background(), &item.SyncItemsRequest{LastSyncMills: 1, Count: 201})
	require.Error(t, err)
	assert.Equal(t, 400, httpStatus(t, err))

	_, err = sync.Handle(context.Background(), &item.SyncItemsRequest{LastSyncMills: 0, Count: 50})
	require.Error(t, err)
	assert.Equal(t, 400, httpStatus(t, err))
}

func TestSellerFeedsAndCounts(t *testing.T) {
	repo := memory.NewRepository()
	items := seedItems(t, repo, 7, 3, 4)
	seedItems(t, repo, 8, 3, 1)

	mutate(t, repo, items[0].ID, true, func(it *domain.Item) { it.Deal = true })
	mutate(t, repo, items[1].ID, true, func(it *domain.Item) { it.Closed = true })
	mutate(t, repo, items[2].ID, true, func(it *domain.Item) { it.Blocked = true })

	sellerFeed := item.NewSellerItemsHandler(repo)
	countSeller := item.NewCountSellerItemsHandler(repo)

	open, err := sellerFeed.Handle(context.Background(), &item.SellerItemsRequest{
		UserID: 7, Deal: false, Count: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{items[3].ID}, itemIDs(open.Items))

	dealt, err := sellerFeed.Handle(context.Background(), &item.SellerItemsRequest{
		UserID: 7, Deal: true, Count: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{items[0].ID}, itemIDs(dealt.Items))

	openCount, err := countSeller.Handle(context.Background(), &item.CountSellerItemsRequest{UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), openCount.Count)

	dealtCount, err := countSeller.Handle(context.Background(), &item.CountSellerItemsRequest{UserID: 7, Deal: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), dealtCount.Count)
}

func TestGlobalCountsMatchFeedVisibility(t *testing.T) {
	repo := memory.NewRepository()
	items := seedItems(t, repo, 7, 3, 5)

	mutate(t, repo, items[0].ID, true, func(it *domain.Item) { it.Deal = true })
	mutate(t, repo, items[1].ID, true, func(it *domain.Item) { it.Blocked = true })

	countHandler := item.NewCountItemsHandler(repo)
	latest := item.NewLatestItemsHandler(repo)

	open, err := countHandler.Handle(context.Background(), &item.CountItemsRequest{Deal: false})
	require.NoError(t, err)
	assert.Equal(t, int64(3), open.Count)

	feed, err := latest.Handle(context.Background(), &item.LatestItemsRequest{Count: 50})
	require.NoError(t, err)
	assert.Equal(t, int(open.Count), len(feed.Items))

	dealt, err := countHandler.Handle(context.Background(), &item.CountItemsRequest{Deal: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), dealt.Count)
}

func TestCategoryFeedAndCount(t *testing.T) {
	repo := memory.NewRepository()
	seedItems(t, repo, 7, 5, 2)

	categoryFeed := item.NewCategoryItemsHandler(repo)
	countCategory := item.NewCountCategoryItemsHandler(repo)

	before, err := countCategory.Handle(context.Background(), &item.CountCategoryItemsRequest{CategoryID: 3})
	require.NoError(t, err)

	created := createItem(t, repo, 7, item.CreateItemRequest{
		Name:       "Bike",
		Price:      decimal.NewFromInt(120),
		CategoryID: 3,
	})

	feed, err := categoryFeed.Handle(context.Background(), &item.CategoryItemsRequest{
		CategoryID: 3, Count: 10,
	})
	require.NoError(t, err)
	assert.Contains(t, itemIDs(feed.Items), created.ID)

	after, err := countCategory.Handle(context.Background(), &item.CountCategoryItemsRequest{CategoryID: 3})
	require.NoError(t, err)
	assert.Equal(t, before.Count+1, after.Count)

	t.Run("dealt items leave feed and count together", func(t *testing.T) {
		mutate(t, repo, created.ID, true, func(it *domain.Item) { it.Deal = true })

		feed, err := categoryFeed.Handle(context.Background(), &item.CategoryItemsRequest{
			CategoryID: 3, Count: 10,
		})
		require.NoError(t, err)
		assert.NotContains(t, itemIDs(feed.Items), created.ID)

		count, err := countCategory.Handle(context.Background(), &item.CountCategoryItemsRequest{CategoryID: 3})
		require.NoError(t, err)
		assert.Equal(t, before.Count, count.Count)
	})
}

func TestHotItems(t *testing.T) {
	repo := memory.NewRepository()
	items := seedItems(t, repo, 7, 3, 5)

	mutate(t, repo, items[0].ID, false, func(it *domain.Item) { it.Popularity = 10 })
	mutate(t, repo, items[1].ID, false, func(it *domain.Item) { it.Popularity = 30 })
	mutate(t, repo, items[2].ID, false, func(it *domain.Item) { it.Popularity = 30 })
	mutate(t, repo, items[3].ID, false, func(it *domain.Item) { it.Popularity = 50 })
	mutate(t, repo, items[4].ID, true, func(it *domain.Item) {
		it.Popularity = 99
		it.Blocked = true
	})

	hot := item.NewHotItemsHandler(repo)
	res, err := hot.Handle(context.Background(), &item.HotItemsRequest{Count: 3})
	require.NoError(t, err)

	// Highest popularity first; the tie at 30 goes to the newer id; the
	// blocked chart-topper must not appear at all.
	assert.Equal(t, []int64{items[3].ID, items[2].ID, items[1].ID}, itemIDs(res.Items))
}

func TestSyncFeedOrderingAndCursor(t *testing.T) {
	repo := memory.NewRepository()
	items := seedItems(t, repo, 7, 3, 3)

	// Pin timestamps so ordering is deterministic, with a cross-item tie.
	base := items[2].LastModified + 1000
	mutate(t, repo, items[1].ID, false, func(it *domain.Item) { it.LastModified = base + 5 })
	mutate(t, repo, items[0].ID, false, func(it *domain.Item) { it.LastModified = base + 5 })
	mutate(t, repo, items[2].ID, false, func(it *domain.Item) {
		it.LastModified = base + 9
		it.Closed = true
	})

	sync := item.NewSyncItemsHandler(repo)

	res, err := sync.Handle(context.Background(), &item.SyncItemsRequest{
		LastSyncMills: base, Count: 50,
	})
	require.NoError(t, err)
	// Ascending by (lastModified, id): the tie at base+5 orders by id, the
	// closed item still shows up last.
	assert.Equal(t, []int64{items[0].ID, items[1].ID, items[2].ID}, itemIDs(res.Items))

	t.Run("cursor is exclusive", func(t *testing.T) {
		res, err := sync.Handle(context.Background(), &item.SyncItemsRequest{
			LastSyncMills: base + 5, Count: 50,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{items[2].ID}, itemIDs(res.Items))
	})

	t.Run("page limit", func(t *testing.T) {
		res, err := sync.Handle(context.Background(), &item.SyncItemsRequest{
			LastSyncMills: base, Count: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{items[0].ID, items[1].ID}, itemIDs(res.Items))
	})
}

func TestSearchItems(t *testing.T) {
	repo := memory.NewRepository()

	names := []string{"Mountain Bike", "City bike", "Bike helmet", "Skateboard"}
	prices := []int64{500, 300, 40, 80}
	for i, name := range names {
		createItem(t, repo, 7, item.CreateItemRequest{
			Name:       name,
			Price:      decimal.NewFromInt(prices[i]),
			CategoryID: 3,
		})
	}

	search := item.NewSearchItemsHandler(repo)

	t.Run("name match is a case-insensitive substring", func(t *testing.T) {
		res, err := search.Handle(context.Background(), &item.SearchItemsRequest{
			Name: "bike", Count: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 2, 1}, itemIDs(res.Items))
		assert.Equal(t, int64(3), res.Total)
	})

	t.Run("price range intersects the name filter", func(t *testing.T) {
		res, err := search.Handle(context.Background(), &item.SearchItemsRequest{
			Name:     "bike",
			MinPrice: decimal.NewFromInt(100),
			MaxPrice: decimal.NewFromInt(400),
			Count:    10,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{2}, itemIDs(res.Items))
		assert.Equal(t, int64(1), res.Total)
	})

	t.Run("zero bounds are unbounded", func(t *testing.T) {
		res, err := search.Handle(context.Background(), &item.SearchItemsRequest{
			MinPrice: decimal.NewFromInt(100),
			Count:    10,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 1}, itemIDs(res.Items))
	})

	t.Run("cursor pages through matches while total stays whole", func(t *testing.T) {
		first, err := search.Handle(context.Background(), &item.SearchItemsRequest{
			Name: "bike", Count: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 2}, itemIDs(first.Items))
		assert.Equal(t, int64(3), first.Total)
		assert.Equal(t, int64(2), first.LastItemID)

		second, err := search.Handle(context.Background(), &item.SearchItemsRequest{
			Name: "bike", LastItemID: first.LastItemID, Count: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, itemIDs(second.Items))
	})

	t.Run("hidden items never match", func(t *testing.T) {
		mutate(t, repo, 3, true, func(it *domain.Item) { it.Blocked = true })
		mutate(t, repo, 2, true, func(it *domain.Item) { it.Deal = true })

		res, err := search.Handle(context.Background(), &item.SearchItemsRequest{
			Name: "bike", Count: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, itemIDs(res.Items))
		assert.Equal(t, int64(1), res.Total)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := search.Handle(context.Background(), &item.SearchItemsRequest{
			MinPrice: decimal.NewFromInt(100),
			MaxPrice: decimal.NewFromInt(50),
			Count:    10,
		})
		require.Error(t, err)
		assert.Equal(t, 400, httpStatus(t, err))
	})
}
