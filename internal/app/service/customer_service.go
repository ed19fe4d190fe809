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

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmailTaken       = errors.New("email already registered")
)

type RegisterCustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address model.Address
}

type CustomerService interface {
	Register(ctx context.Context, input RegisterCustomerInput) (*model.Customer, error)
	GetCustomer(ctx context.Context, id uint) (*model.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) Register(ctx context.Context, input RegisterCustomerInput) (*model.Customer, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		verr.Add("name", "is required")
	}
	if !isEmail(input.Email) {
		verr.Add("email", "must be a valid email address")
	}
	if !input.Address.IsZero() {
		checkAddress(verr, "address", input.Address)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	customer := &model.Customer{
		Name:    strings.TrimSpace(input.Name),
		Email:   input.Email,
		Phone:   strings.TrimSpace(input.Phone),
		Address: input.Address,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warn("Registration rejected: email taken", map[string]interface{}{
				"email": customer.Email,
			})
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.Info("Customer registered", map[string]interface{}{
		"customer_id": customer.ID,
	})
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id uint) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}
