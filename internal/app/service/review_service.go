package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewInput struct {
	ProductID  uint
	CustomerID uint
	Rating     int
	Title      string
	Comment    string
}

type ReviewService interface {
	AddReview(ctx context.Context, input ReviewInput) (*model.Review, error)
	ListProductReviews(ctx context.Context, productID uint, limit int) ([]model.Review, error)
}

type reviewService struct {
	db         *gorm.DB
	reviewRepo repository.ReviewRepository
	featured   *FeaturedCache
}

func NewReviewService(db *gorm.DB, reviewRepo repository.ReviewRepository, featured *FeaturedCache) ReviewService {
	return &reviewService{
		db:         db,
		reviewRepo: reviewRepo,
		featured:   featured,
	}
}

// AddReview stores the review and refreshes the product's rating and review
// count in the same transaction. Repeat reviews by one customer are kept.
func (s *reviewService) AddReview(ctx context.Context, input ReviewInput) (*model.Review, error) {
	verr := &ValidationError{}
	if input.Rating < model.MinRating || input.Rating > model.MaxRating {
		verr.Add("rating", "must be between 1 and 5")
	}
	if input.ProductID == 0 {
		verr.Add("product_id", "is required")
	}
	if input.CustomerID == 0 {
		verr.Add("customer_id", "is required")
	}
	if len(input.Title) > 200 {
		verr.Add("title", "must be at most 200 characters")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	review := &model.Review{
		ProductID:  input.ProductID,
		CustomerID: input.CustomerID,
		Rating:     input.Rating,
		Title:      strings.TrimSpace(input.Title),
		Comment:    strings.TrimSpace(input.Comment),
	}

	var summary repository.RatingSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productRepo := repository.NewProductRepository(tx)
		customerRepo := repository.NewCustomerRepository(tx)
		orderRepo := repository.NewOrderRepository(tx)
		reviewRepo := repository.NewReviewRepository(tx)

		// row lock serializes rating recomputation per product
		product, err := productRepo.LockByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if !product.IsActive {
			return ErrProductNotFound
		}

		if _, err := customerRepo.FindByID(ctx, input.CustomerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		verified, err := orderRepo.HasPurchased(ctx, input.CustomerID, input.ProductID)
		if err != nil {
			return err
		}
		review.IsVerified = verified

		if err := reviewRepo.Create(ctx, review); err != nil {
			return errors.Wrap(err, "create review")
		}

		summary, err = reviewRepo.Summarize(ctx, input.ProductID)
		if err != nil {
			return errors.Wrap(err, "summarize reviews")
		}
		rating := model.AverageRating(summary.Total, summary.Count)
		return productRepo.UpdateRating(ctx, input.ProductID, rating, summary.Count)
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCustomerNotFound) {
			logger.Warn("Review rejected", map[string]interface{}{
				"product_id":  input.ProductID,
				"customer_id": input.CustomerID,
				"error":       err.Error(),
			})
		}
		return nil, err
	}

	s.featured.Invalidate(ctx)

	logger.Info("Review added", map[string]interface{}{
		"review_id":    review.ID,
		"product_id":   review.ProductID,
		"review_count": summary.Count,
	})
	return review, nil
}

func (s *reviewService) ListProductReviews(ctx context.Context, productID uint, limit int) ([]model.Review, error) {
	limit, _ = ClampPagination(limit, 0)
	reviews, err := s.reviewRepo.FindByProduct(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}
