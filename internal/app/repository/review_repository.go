package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type RatingSummary struct {
	Total int64
	Count int64
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByProduct(ctx context.Context, productID uint, limit int) ([]model.Review, error)
	Summarize(ctx context.Context, productID uint) (RatingSummary, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"product_id":  review.ProductID,
		"customer_id": review.CustomerID,
		"rating":      review.Rating,
	})

	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"product_id":  review.ProductID,
			"customer_id": review.CustomerID,
		})
		return err
	}
	return nil
}

// FindByProduct lists newest reviews first. limit <= 0 means no limit.
func (r *reviewRepository) FindByProduct(ctx context.Context, productID uint, limit int) ([]model.Review, error) {
	var reviews []model.Review
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reviews).Error; err != nil {
		logger.Error("Failed to find reviews by product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Summarize(ctx context.Context, productID uint) (RatingSummary, error) {
	var summary RatingSummary
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&summary).Error
	if err != nil {
		logger.Error("Failed to summarize product reviews", err, map[string]interface{}{
			"product_id": productID,
		})
		return RatingSummary{}, err
	}
	return summary, nil
}
