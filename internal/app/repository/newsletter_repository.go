package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type NewsletterRepository interface {
	Create(ctx context.Context, subscriber *model.NewsletterSubscriber) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type newsletterRepository struct {
	db *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

func (r *newsletterRepository) Create(ctx context.Context, subscriber *model.NewsletterSubscriber) error {
	subscriber.Email = NormalizeEmail(subscriber.Email)
	if err := r.db.WithContext(ctx).Create(subscriber).Error; err != nil {
		logger.Error("Failed to create newsletter subscriber", err, map[string]interface{}{
			"email": subscriber.Email,
		})
		return err
	}
	return nil
}

func (r *newsletterRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.NewsletterSubscriber{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to look up newsletter subscriber", err, map[string]interface{}{
			"email": email,
		})
		return false, err
	}
	return count > 0, nil
}
