package repository

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
	FindByEmail(ctx context.Context, email string) (*model.Customer, error)
	FirstOrCreateByEmail(ctx context.Context, customer *model.Customer) (*model.Customer, bool, error)
	Update(ctx context.Context, customer *model.Customer) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	customer.Email = NormalizeEmail(customer.Email)

	logger.Debug("Creating customer in database", map[string]interface{}{
		"email": customer.Email,
	})

	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		logger.Error("Failed to create customer in database", err, map[string]interface{}{
			"email": customer.Email,
		})
		return err
	}
	return nil
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find customer by ID", err, map[string]interface{}{
				"customer_id": id,
			})
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&customer).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find customer by email", err, map[string]interface{}{
				"email": email,
			})
		}
		return nil, err
	}
	return &customer, nil
}

// FirstOrCreateByEmail inserts customer unless its email is already taken and
// returns the stored row. The bool reports whether a row was inserted. The
// insert never fails on the unique email, so it is safe inside a transaction.
func (r *customerRepository) FirstOrCreateByEmail(ctx context.Context, customer *model.Customer) (*model.Customer, bool, error) {
	customer.Email = NormalizeEmail(customer.Email)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(customer)
	if result.Error != nil {
		logger.Error("Failed to upsert customer", result.Error, map[string]interface{}{
			"email": customer.Email,
		})
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return customer, true, nil
	}

	existing, err := r.FindByEmail(ctx, customer.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	if err := r.db.WithContext(ctx).Save(customer).Error; err != nil {
		logger.Error("Failed to update customer in database", err, map[string]interface{}{
			"customer_id": customer.ID,
		})
		return err
	}
	return nil
}
