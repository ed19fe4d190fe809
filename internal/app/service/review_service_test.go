package service

import (
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_AddReview_RecomputesRating(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	product := env.product(t, "Wireless Headphones", "199.99", 5)
	customer := env.customer(t, "Jane", "jane@example.com")

	for _, rating := range []int{5, 4, 4} {
		_, err := env.reviews.AddReview(ctx, ReviewInput{
			ProductID:  product.ID,
			CustomerID: customer.ID,
			Rating:     rating,
			Title:      "Solid",
		})
		require.NoError(t, err)
	}

	stored, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	// 13 / 3 = 4.33
	assert.Equal(t, "4.3", stored.Rating.StringFixed(1))
	assert.Equal(t, 3, stored.ReviewCount)

	// duplicates from the same customer are kept
	reviews, err := env.reviews.ListProductReviews(ctx, product.ID, 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
}

func TestReviewService_AddReview_RoundsHalfUp(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	product := env.product(t, "Lamp", "10.00", 5)
	customer := env.customer(t, "Jane", "jane@example.com")

	// 5 + 4 = 9 / 2 = 4.5, then 4.5 + 4 + 4 = 17 / 4 = 4.25 -> 4.3
	for _, rating := range []int{5, 4, 4, 4} {
		_, err := env.reviews.AddReview(ctx, ReviewInput{ProductID: product.ID, CustomerID: customer.ID, Rating: rating})
		require.NoError(t, err)
	}

	stored, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.3", stored.Rating.StringFixed(1))
	assert.Equal(t, 4, stored.ReviewCount)
}

func TestReviewService_AddReview_Validation(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	product := env.product(t, "Lamp", "10.00", 5)
	hidden := env.product(t, "Hidden", "10.00", 5, inactive())
	customer := env.customer(t, "Jane", "jane@example.com")

	for _, rating := range []int{0, 6, -1} {
		_, err := env.reviews.AddReview(ctx, ReviewInput{ProductID: product.ID, CustomerID: customer.ID, Rating: rating})
		assert.ErrorIs(t, err, ErrValidation, "rating %d", rating)
	}

	_, err := env.reviews.AddReview(ctx, ReviewInput{ProductID: hidden.ID, CustomerID: customer.ID, Rating: 3})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = env.reviews.AddReview(ctx, ReviewInput{ProductID: 9999, CustomerID: customer.ID, Rating: 3})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = env.reviews.AddReview(ctx, ReviewInput{ProductID: product.ID, CustomerID: 9999, Rating: 3})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	assert.EqualValues(t, 0, env.count(t, &model.Review{}))
	stored, err := env.productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ReviewCount)
}

func TestReviewService_AddReview_MarksVerifiedPurchase(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	product := env.product(t, "Lamp", "10.00", 5)
	_, err := env.carts.AddItem(ctx, ownerA, product.ID, 1)
	require.NoError(t, err)
	order, err := env.orders.Checkout(ctx, checkoutInput(ownerA))
	require.NoError(t, err)

	stranger := env.customer(t, "Stranger", "stranger@example.com")

	bought, err := env.reviews.AddReview(ctx, ReviewInput{ProductID: product.ID, CustomerID: order.CustomerID, Rating: 5})
	require.NoError(t, err)
	assert.True(t, bought.IsVerified)

	notBought, err := env.reviews.AddReview(ctx, ReviewInput{ProductID: product.ID, CustomerID: stranger.ID, Rating: 2})
	require.NoError(t, err)
	assert.False(t, notBought.IsVerified)
}

func TestReviewService_AddReview_InvalidatesFeatured(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	low := env.product(t, "Low", "10.00", 5, withRating("3.0"))
	env.product(t, "High", "10.00", 5, withRating("4.0"))
	customer := env.customer(t, "Jane", "jane@example.com")

	featured, err := env.products.GetFeaturedProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, "High", featured[0].Name)

	_, err = env.reviews.AddReview(ctx, ReviewInput{ProductID: low.ID, CustomerID: customer.ID, Rating: 5})
	require.NoError(t, err)
	assert.False(t, env.cache.has(featuredCacheKey))

	featured, err = env.products.GetFeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Low", featured[0].Name)
}
