package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	category := createCategory(t, testDB, "Electronics")
	product := createProduct(t, testDB, category, "Test Product")

	return testDB, NewCartRepository(testDB), product
}

func TestCartRepository_CreateAndFind(t *testing.T) {
	_, repo, product := setupCartTest(t)
	ctx := context.Background()

	item := &model.CartItem{OwnerKey: "session-a", ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.Create(ctx, item))
	assert.NotZero(t, item.ID)

	found, err := repo.FindByOwnerAndProduct(ctx, "session-a", product.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = repo.FindByOwnerAndProduct(ctx, "session-b", product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_UniqueOwnerProduct(t *testing.T) {
	_, repo, product := setupCartTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.CartItem{OwnerKey: "session-a", ProductID: product.ID, Quantity: 1}))

	err := repo.Create(ctx, &model.CartItem{OwnerKey: "session-a", ProductID: product.ID, Quantity: 1})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// another owner may hold the same product
	require.NoError(t, repo.Create(ctx, &model.CartItem{OwnerKey: "session-b", ProductID: product.ID, Quantity: 1}))
}

func TestCartRepository_FindByOwner(t *testing.T) {
	testDB, repo, product := setupCartTest(t)
	ctx := context.Background()
	category := createCategory(t, testDB, "Books")
	other := createProduct(t, testDB, category, "Other Product")

	require.NoError(t, repo.Create(ctx, &model.CartItem{OwnerKey: "session-a", ProductID: product.ID, Quantity: 2}))
	require.NoError(t, repo.Create(ctx, &model.CartItem{OwnerKey: "session-a", ProductID: other.ID, Quantity: 1}))
	require.NoError(t, repo.Create(ctx, &model.CartItem{OwnerKey: "session-b", ProductID: product.ID, Quantity: 5}))

	items, err := repo.FindByOwner(ctx, "session-a")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, product.ID, items[0].ProductID)
	assert.Equal(t, other.ID, items[1].ProductID)
}

func TestCartRepository_UpdateQuantityAndDelete(t *testing.T) {
	_, repo, product := setupCartTest(t)
	ctx := context.Background()

	item := &model.CartItem{OwnerKey: "session-a", ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.Create(ctx, item))

	require.NoError(t, repo.UpdateQuantity(ctx, item.ID, 4))
	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, found.Quantity)

	require.NoError(t, repo.Delete(ctx, item.ID))
	assert.ErrorIs(t, repo.Delete(ctx, item.ID), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.UpdateQuantity(ctx, item.ID, 2), gorm.ErrRecordNotFound)
}

func TestCartRepository_DeleteByOwner(t *testing.T) {
	_, repo, product := setupCartTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.CartItem{OwnerKey: "session-a", ProductID: product.ID, Quantity: 1}))
	require.NoError(t, repo.Create(ctx, &model.CartItem{OwnerKey: "session-b", ProductID: product.ID, Quantity: 1}))

	removed, err := repo.DeleteByOwner(ctx, "session-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	items, err := repo.FindByOwner(ctx, "session-b")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCartRepository_DeleteStale(t *testing.T) {
	testDB, repo, product := setupCartTest(t)
	ctx := context.Background()

	old := &model.CartItem{OwnerKey: "session-old", ProductID: product.ID, Quantity: 1}
	fresh := &model.CartItem{OwnerKey: "session-new", ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))

	require.NoError(t, testDB.Model(&model.CartItem{}).Where("id = ?", old.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	removed, err := repo.DeleteStale(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindByID(ctx, fresh.ID)
	assert.NoError(t, err)
}
