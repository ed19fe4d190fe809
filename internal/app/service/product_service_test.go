package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPagination(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{"defaults", 0, 0, DefaultPageLimit, 0},
		{"negative", -5, -10, DefaultPageLimit, 0},
		{"capped", 1000, 40, MaxPageLimit, 40},
		{"passthrough", 15, 30, 15, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ClampPagination(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestProductService_ListProducts(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	env.product(t, "Wireless Headphones", "199.99", 5)
	env.product(t, "Smart Fitness Watch", "149.50", 3)
	env.product(t, "Hidden Lamp", "20.00", 9, inactive())

	page, err := env.products.ListProducts(ctx, ProductQuery{Limit: -1, Offset: -3})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
	assert.Equal(t, DefaultPageLimit, page.Limit)
	assert.Equal(t, 0, page.Offset)

	page, err = env.products.ListProducts(ctx, ProductQuery{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 1)
	assert.True(t, page.HasMore)
}

func TestProductService_ListProducts_SearchRanksNameMatchFirst(t *testing.T) {
	env := setupServiceTest(t)

	env.product(t, "Rain Jacket", "89.00", 4, withDescription("Watch the weather without worry"))
	env.product(t, "Smart Fitness Watch", "149.50", 3)

	page, err := env.products.ListProducts(context.Background(), ProductQuery{Search: "watch"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Smart Fitness Watch", page.Items[0].Name)
	assert.Equal(t, "Rain Jacket", page.Items[1].Name)
}

func TestProductService_ListProducts_RejectsInvertedPriceRange(t *testing.T) {
	env := setupServiceTest(t)

	min := decimal.NewFromInt(50)
	max := decimal.NewFromInt(10)
	_, err := env.products.ListProducts(context.Background(), ProductQuery{MinPrice: &min, MaxPrice: &max})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "min_price")
}

func TestProductService_GetProductDetail(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	product := env.product(t, "Wireless Headphones", "199.99", 5)
	hidden := env.product(t, "Hidden Lamp", "20.00", 9, inactive())
	customer := env.customer(t, "Jane", "jane@example.com")

	_, err := env.reviews.AddReview(ctx, ReviewInput{ProductID: product.ID, CustomerID: customer.ID, Rating: 4})
	require.NoError(t, err)

	detail, err := env.products.GetProductDetail(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wireless Headphones", detail.Product.Name)
	assert.Equal(t, "Electronics", detail.Product.Category.Name)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, 4, detail.Reviews[0].Rating)

	_, err = env.products.GetProductDetail(ctx, hidden.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = env.products.GetProductDetail(ctx, 9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_GetFeaturedProducts(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	env.product(t, "A", "10.00", 1, withRating("4.8"))
	env.product(t, "B", "10.00", 1, withRating("4.6"))
	env.product(t, "C", "10.00", 1, withRating("4.7"))
	env.product(t, "D", "10.00", 1, withRating("4.5"))

	featured, err := env.products.GetFeaturedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 4)
	names := []string{featured[0].Name, featured[1].Name, featured[2].Name, featured[3].Name}
	assert.Equal(t, []string{"A", "C", "B", "D"}, names)
	assert.True(t, env.cache.has(featuredCacheKey))
}

func TestProductService_GetFeaturedProducts_LimitsToSix(t *testing.T) {
	env := setupServiceTest(t)

	for _, name := range []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"} {
		env.product(t, name, "5.00", 1)
	}

	featured, err := env.products.GetFeaturedProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, FeaturedLimit)
	// equal ratings keep insertion order
	assert.Equal(t, "P1", featured[0].Name)
	assert.Equal(t, "P6", featured[5].Name)
}

func TestProductService_CreateProduct(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	sale := decimal.RequireFromString("79.995")
	product, err := env.products.CreateProduct(ctx, ProductInput{
		Name:           "  Espresso Machine ",
		Price:          decimal.RequireFromString("99.999"),
		SalePrice:      &sale,
		Category:       "Kitchen",
		Stock:          7,
		Features:       []string{"15 bar", "steam wand"},
		Specifications: map[string]interface{}{"watts": 1350},
	})
	require.NoError(t, err)
	assert.NotZero(t, product.ID)
	assert.Equal(t, "Espresso Machine", product.Name)
	assert.Equal(t, "100.00", product.Price.StringFixed(2))
	assert.Equal(t, "80.00", product.SalePrice.Decimal.StringFixed(2))
	assert.True(t, product.IsActive)
	assert.Equal(t, "Kitchen", product.Category.Name)

	stored, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"15 bar", "steam wand"}, stored.Features)
	assert.Equal(t, json.Number("1350"), stored.Specifications["watts"])
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	env := setupServiceTest(t)

	sale := decimal.NewFromInt(200)
	_, err := env.products.CreateProduct(context.Background(), ProductInput{
		Price:     decimal.NewFromInt(100),
		SalePrice: &sale,
		Stock:     -1,
	})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "category")
	assert.Contains(t, verr.Fields, "stock")
	assert.Contains(t, verr.Fields, "sale_price")
	assert.EqualValues(t, 0, env.count(t, &model.Product{}))
}

func TestProductService_UpdateProduct(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	product := env.product(t, "Desk Lamp", "45.00", 10, withSale("40.00"))
	_, err := env.products.GetFeaturedProducts(ctx)
	require.NoError(t, err)
	require.True(t, env.cache.has(featuredCacheKey))

	name := "LED Desk Lamp"
	stock := 3
	category := "Home Office"
	updated, err := env.products.UpdateProduct(ctx, product.ID, ProductUpdate{
		Name:           &name,
		Stock:          &stock,
		Category:       &category,
		ClearSalePrice: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "LED Desk Lamp", updated.Name)
	assert.Equal(t, 3, updated.Stock)
	assert.False(t, updated.SalePrice.Valid)
	assert.Equal(t, "Home Office", updated.Category.Name)
	assert.False(t, env.cache.has(featuredCacheKey))

	stored, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "LED Desk Lamp", stored.Name)
	assert.False(t, stored.SalePrice.Valid)

	_, err = env.products.UpdateProduct(ctx, 9999, ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrProductNotFound)

	negative := -1
	_, err = env.products.UpdateProduct(ctx, product.ID, ProductUpdate{Stock: &negative})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductService_DeleteProduct(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	soft := env.product(t, "Old Phone", "100.00", 1)
	hard := env.product(t, "Broken Phone", "100.00", 1)

	require.NoError(t, env.products.DeleteProduct(ctx, soft.ID, false))
	stored, err := env.productRepo.FindByID(ctx, soft.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	require.NoError(t, env.products.DeleteProduct(ctx, hard.ID, true))
	_, err = env.productRepo.FindByID(ctx, hard.ID)
	assert.Error(t, err)

	assert.ErrorIs(t, env.products.DeleteProduct(ctx, 9999, true), ErrProductNotFound)
	assert.ErrorIs(t, env.products.DeleteProduct(ctx, 9999, false), ErrProductNotFound)
}

func TestProductService_ListCategories(t *testing.T) {
	env := setupServiceTest(t)

	env.category(t, "Sports")
	env.category(t, "Audio")

	categories, err := env.products.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Audio", categories[0].Name)
	assert.Equal(t, "Sports", categories[1].Name)
}
