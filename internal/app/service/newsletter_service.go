package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrAlreadySubscribed = errors.New("email already subscribed")

type NewsletterService interface {
	Subscribe(ctx context.Context, email string) (*model.NewsletterSubscriber, error)
}

type newsletterService struct {
	repo repository.NewsletterRepository
}

func NewNewsletterService(repo repository.NewsletterRepository) NewsletterService {
	return &newsletterService{repo: repo}
}

func (s *newsletterService) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	if !isEmail(email) {
		return nil, newValidationError("email", "must be a valid email address")
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	subscriber := &model.NewsletterSubscriber{Email: email, IsActive: true}
	if err := s.repo.Create(ctx, subscriber); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}

	logger.Info("Newsletter subscription added", map[string]interface{}{
		"subscriber_id": subscriber.ID,
	})
	return subscriber, nil
}
