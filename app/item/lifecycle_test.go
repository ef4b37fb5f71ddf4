package item_test

import (
	"context"
	"errors"
	"testing"

	"market/app/item"
	"market/domain"
	"market/infra/memory"
	"market/pkg/httperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sellerCtx(id int64) context.Context {
	return context.WithValue(context.Background(), "UserID", id)
}

func createItem(t *testing.T, repo item.Repository, sellerID int64, req item.CreateItemRequest) domain.Item {
	t.Helper()

	handler := item.NewCreateItemHandler(repo, nil)
	res, err := handler.Handle(sellerCtx(sellerID), &req)
	require.NoError(t, err)
	return res.Item
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()

	var httpErr *httperror.Error
	require.True(t, errors.As(err, &httpErr), "expected *httperror.Error, got %v", err)
	return httpErr.Status
}

func TestCreateItem(t *testing.T) {
	repo := memory.NewRepository()

	created := createItem(t, repo, 7, item.CreateItemRequest{
		Name:       "Bike",
		Price:      decimal.NewFromInt(120),
		CategoryID: 3,
	})

	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, int64(7), created.SellerID)
	assert.Equal(t, int64(3), created.CategoryID)
	assert.False(t, created.Deal)
	assert.False(t, created.Closed)
	assert.False(t, created.Blocked)
	assert.NotZero(t, created.LastModified)

	second := createItem(t, repo, 7, item.CreateItemRequest{
		Name:       "Helmet",
		Price:      decimal.NewFromInt(30),
		CategoryID: 3,
	})
	assert.Greater(t, second.ID, created.ID)
}

func TestCreateItemValidation(t *testing.T) {
	repo := memory.NewRepository()
	handler := item.NewCreateItemHandler(repo, nil)

	t.Run("missing name", func(t *testing.T) {
		_, err := handler.Handle(sellerCtx(7), &item.CreateItemRequest{
			CategoryID: 3,
		})
		require.Error(t, err)
		assert.Equal(t, 400, httpStatus(t, err))
	})

	t.Run("missing category", func(t *testing.T) {
		_, err := handler.Handle(sellerCtx(7), &item.CreateItemRequest{
			Name: "Bike",
		})
		require.Error(t, err)
		assert.Equal(t, 400, httpStatus(t, err))
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := handler.Handle(sellerCtx(7), &item.CreateItemRequest{
			Name:       "Bike",
			Price:      decimal.NewFromInt(-1),
			CategoryID: 3,
		})
		require.Error(t, err)
		assert.Equal(t, 400, httpStatus(t, err))
	})

	t.Run("no seller identity", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), &item.CreateItemRequest{
			Name:       "Bike",
			Price:      decimal.NewFromInt(1),
			CategoryID: 3,
		})
		require.Error(t, err)
		assert.Equal(t, 403, httpStatus(t, err))
	})
}

func TestModifyItem(t *testing.T) {
	repo := memory.NewRepository()
	created := createItem(t, repo, 7, item.CreateItemRequest{
		Name:       "Bike",
		Price:      decimal.NewFromInt(120),
		CategoryID: 3,
	})

	handler := item.NewModifyItemHandler(repo, nil)

	desc := "hardly used"
	res, err := handler.Handle(sellerCtx(7), &item.ModifyItemRequest{
		ItemID:      created.ID,
		Name:        "City bike",
		Description: &desc,
		Price:       decimal.NewFromInt(99),
		CategoryID:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, "City bike", res.Item.Name)
	assert.Equal(t, int64(4), res.Item.CategoryID)
	assert.True(t, res.Item.Price.Equal(decimal.NewFromInt(99)))
	assert.Greater(t, res.Item.LastModified, created.LastModified)

	t.Run("not the owner", func(t *testing.T) {
		_, err := handler.Handle(sellerCtx(8), &item.ModifyItemRequest{
			ItemID:     created.ID,
			Name:       "Stolen bike",
			Price:      decimal.NewFromInt(1),
			CategoryID: 4,
		})
		require.Error(t, err)
		assert.Equal(t, 403, httpStatus(t, err))
	})

	t.Run("missing item", func(t *testing.T) {
		_, err := handler.Handle(sellerCtx(7), &item.ModifyItemRequest{
			ItemID:     999,
			Name:       "Ghost",
			Price:      decimal.NewFromInt(1),
			CategoryID: 4,
		})
		require.Error(t, err)
		assert.Equal(t, 404, httpStatus(t, err))
	})
}

func TestAlterItem(t *testing.T) {
	repo := memory.NewRepository()
	desc := "good condition"
	created := createItem(t, repo, 7, item.CreateItemRequest{
		Name:        "Bike",
		Description: &desc,
		Price:       decimal.NewFromInt(120),
		CategoryID:  3,
	})

	handler := item.NewAlterItemHandler(repo, nil)

	t.Run("only the named field changes", func(t *testing.T) {
		newPrice := decimal.NewFromInt(100)
		res, err := handler.Handle(context.Background(), &item.AlterItemRequest{
			ItemID: created.ID,
			Price:  &newPrice,
		})
		require.NoError(t, err)
		assert.True(t, res.Item.Price.Equal(newPrice))
		assert.Equal(t, created.Name, res.Item.Name)
		require.NotNil(t, res.Item.Description)
		assert.Equal(t, desc, *res.Item.Description)
		assert.Equal(t, created.CategoryID, res.Item.CategoryID)
		assert.Greater(t, res.Item.LastModified, created.LastModified)
	})

	t.Run("zero price stays expressible", func(t *testing.T) {
		free := decimal.Zero
		res, err := handler.Handle(context.Background(), &item.AlterItemRequest{
			ItemID: created.ID,
			Price:  &free,
		})
		require.NoError(t, err)
		assert.True(t, res.Item.Price.IsZero())
	})

	t.Run("empty change set is a no-op", func(t *testing.T) {
		before, err := repo.GetItem(context.Background(), created.ID)
		require.NoError(t, err)

		res, err := handler.Handle(context.Background(), &item.AlterItemRequest{
			ItemID: created.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, before.LastModified, res.Item.LastModified)
	})

	t.Run("missing item", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), &item.AlterItemRequest{
			ItemID: 999,
		})
		require.Error(t, err)
		assert.Equal(t, 404, httpStatus(t, err))
	})

	t.Run("blocked item looks absent", func(t *testing.T) {
		blockHandler := item.NewBlockItemHandler(repo, nil)
		_, err := blockHandler.Handle(context.Background(), &item.BlockItemRequest{
			ItemID:  created.ID,
			Blocked: true,
		})
		require.NoError(t, err)

		name := "renamed"
		_, err = handler.Handle(context.Background(), &item.AlterItemRequest{
			ItemID: created.ID,
			Name:   &name,
		})
		require.Error(t, err)
		assert.Equal(t, 404, httpStatus(t, err))
	})
}

func TestCloseItem(t *testing.T) {
	repo := memory.NewRepository()
	created := createItem(t, repo, 7, item.CreateItemRequest{
		Name:       "Bike",
		Price:      decimal.NewFromInt(120),
		CategoryID: 3,
	})

	closeHandler := item.NewCloseItemHandler(repo, nil)
	sellerFeed := item.NewSellerItemsHandler(repo)
	closedFeed := item.NewClosedItemsHandler(repo)

	t.Run("not the owner", func(t *testing.T) {
		_, err := closeHandler.Handle(sellerCtx(8), &item.CloseItemRequest{
			ItemID: created.ID,
			Close:  true,
		})
		require.Error(t, err)
		assert.Equal(t, 403, httpStatus(t, err))
	})

	res, err := closeHandler.Handle(sellerCtx(7), &item.CloseItemRequest{
		ItemID: created.ID,
		Close:  true,
	})
	require.NoError(t, err)
	assert.True(t, res.Item.Closed)

	open, err := sellerFeed.Handle(context.Background(), &item.SellerItemsRequest{
		UserID: 7, Count: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, open.Items)

	closed, err := closedFeed.Handle(context.Background(), &item.ClosedItemsRequest{
		UserID: 7, Count: 10,
	})
	require.NoError(t, err)
	require.Len(t, closed.Items, 1)
	assert.Equal(t, created.ID, closed.Items[0].ID)

	t.Run("re-applying the same state is a no-op", func(t *testing.T) {
		again, err := closeHandler.Handle(sellerCtx(7), &item.CloseItemRequest{
			ItemID: created.ID,
			Close:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, res.Item.LastModified, again.Item.LastModified)
	})

	t.Run("reopening restores the open listing", func(t *testing.T) {
		_, err := closeHandler.Handle(sellerCtx(7), &item.CloseItemRequest{
			ItemID: created.ID,
			Close:  false,
		})
		require.NoError(t, err)

		open, err := sellerFeed.Handle(context.Background(), &item.SellerItemsRequest{
			UserID: 7, Count: 10,
		})
		require.NoError(t, err)
		require.Len(t, open.Items, 1)
		assert.Equal(t, created.ID, open.Items[0].ID)

		closed, err := closedFeed.Handle(context.Background(), &item.ClosedItemsRequest{
			UserID: 7, Count: 10,
		})
		require.NoError(t, err)
		assert.Empty(t, closed.Items)
	})
}

func TestBlockItemHidesDetailButNotSync(t *testing.T) {
	repo := memory.NewRepository()
	created := createItem(t, repo, 7, item.CreateItemRequest{
		Name:       "Bike",
		Price:      decimal.NewFromInt(120),
		CategoryID: 3,
	})

	blockHandler := item.NewBlockItemHandler(repo, nil)
	detailHandler := item.NewGetItemHandler(repo)
	syncHandler := item.NewSyncItemsHandler(repo)

	res, err := blockHandler.Handle(context.Background(), &item.BlockItemRequest{
		ItemID:  created.ID,
		Blocked: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Item.Blocked)
	assert.Greater(t, res.Item.LastModified, created.LastModified)

	_, err = detailHandler.Handle(context.Background(), &item.GetItemRequest{ItemID: created.ID})
	require.Error(t, err)
	assert.Equal(t, 404, httpStatus(t, err))

	// The replica stream must still report the blocked item with its flags.
	sync, err := syncHandler.Handle(context.Background(), &item.SyncItemsRequest{
		LastSyncMills: created.LastModified,
		Count:         50,
	})
	require.NoError(t, err)
	require.Len(t, sync.Items, 1)
	assert.Equal(t, created.ID, sync.Items[0].ID)
	assert.True(t, sync.Items[0].Blocked)
	assert.Equal(t, res.Item.LastModified, sync.Items[0].LastModified)

	t.Run("unblock restores detail", func(t *testing.T) {
		_, err := blockHandler.Handle(context.Background(), &item.BlockItemRequest{
			ItemID:  created.ID,
			Blocked: false,
		})
		require.NoError(t, err)

		detail, err := detailHandler.Handle(context.Background(), &item.GetItemRequest{ItemID: created.ID})
		require.NoError(t, err)
		assert.Equal(t, created.ID, detail.Item.ID)
	})
}
