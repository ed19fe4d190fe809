package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrInvalidStatus = errors.New("unknown order status")
)

type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

type CheckoutInput struct {
	OwnerKey        string
	Customer        CustomerInfo
	ShippingAddress model.Address
	// BillingAddress defaults to ShippingAddress when nil or empty.
	BillingAddress *model.Address
}

type OrderService interface {
	Checkout(ctx context.Context, input CheckoutInput) (*model.Order, error)
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
	ListCustomerOrders(ctx context.Context, customerID uint) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	cartRepo     repository.CartRepository
	customerRepo repository.CustomerRepository
	locks        *util.KeyedMutex
	notifier     NotificationService
	featured     *FeaturedCache
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	customerRepo repository.CustomerRepository,
	locks *util.KeyedMutex,
	notifier NotificationService,
	featured *FeaturedCache,
) OrderService {
	if locks == nil {
		locks = util.NewKeyedMutex()
	}
	return &orderService{
		db:           db,
		orderRepo:    orderRepo,
		cartRepo:     cartRepo,
		customerRepo: customerRepo,
		locks:        locks,
		notifier:     notifier,
		featured:     featured,
	}
}

func validateCheckout(input *CheckoutInput) error {
	verr := &ValidationError{}
	if err := validateOwnerKey(input.OwnerKey); err != nil {
		return err
	}
	if strings.TrimSpace(input.Customer.Name) == "" {
		verr.Add("customer.name", "is required")
	}
	if !isEmail(input.Customer.Email) {
		verr.Add("customer.email", "must be a valid email address")
	}
	checkAddress(verr, "shipping_address", input.ShippingAddress)
	if input.BillingAddress == nil || input.BillingAddress.IsZero() {
		billing := input.ShippingAddress
		input.BillingAddress = &billing
	} else {
		checkAddress(verr, "billing_address", *input.BillingAddress)
	}
	return verr.OrNil()
}

// Checkout turns the owner's cart into a pending order. Stock checks, stock
// decrements, order creation and cart clearing commit together or not at all.
func (s *orderService) Checkout(ctx context.Context, input CheckoutInput) (*model.Order, error) {
	if err := validateCheckout(&input); err != nil {
		logger.Warn("Checkout rejected: invalid input", map[string]interface{}{
			"owner_key": input.OwnerKey,
			"error":     err.Error(),
		})
		return nil, err
	}

	logger.Info("Starting checkout", map[string]interface{}{
		"owner_key": input.OwnerKey,
	})

	unlock := s.locks.Lock(input.OwnerKey)
	defer unlock()

	lines, err := s.cartRepo.FindByOwner(ctx, input.OwnerKey)
	if err != nil {
		logger.Error("Failed to fetch cart for checkout", err, map[string]interface{}{
			"owner_key": input.OwnerKey,
		})
		return nil, err
	}
	if len(lines) == 0 {
		logger.Warn("Checkout rejected: cart is empty", map[string]interface{}{
			"owner_key": input.OwnerKey,
		})
		return nil, ErrEmptyCart
	}

	// Lock rows in a fixed order so concurrent checkouts cannot deadlock.
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productRepo := repository.NewProductRepository(tx)
		orderRepo := repository.NewOrderRepository(tx)
		cartRepo := repository.NewCartRepository(tx)
		customerRepo := repository.NewCustomerRepository(tx)

		customer, created, err := customerRepo.FirstOrCreateByEmail(ctx, &model.Customer{
			Name:    strings.TrimSpace(input.Customer.Name),
			Email:   input.Customer.Email,
			Phone:   strings.TrimSpace(input.Customer.Phone),
			Address: input.ShippingAddress,
		})
		if err != nil {
			return errors.Wrap(err, "resolve customer")
		}
		if created {
			logger.Info("Customer registered at checkout", map[string]interface{}{
				"customer_id": customer.ID,
			})
		}

		total := decimal.Zero
		itemCount := 0
		items := make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			product, err := productRepo.LockByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ProductUnavailableError{ProductID: line.ProductID, Reason: "no longer exists"}
				}
				return err
			}
			if !product.IsActive {
				return &ProductUnavailableError{ProductID: product.ID, Reason: "no longer sold"}
			}
			if product.Stock < line.Quantity {
				return &ProductUnavailableError{ProductID: product.ID, Reason: "insufficient stock"}
			}

			ok, err := productRepo.DecrementStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &ProductUnavailableError{ProductID: product.ID, Reason: "insufficient stock"}
			}

			price := product.UnitPrice()
			total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			itemCount += line.Quantity
			items = append(items, model.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       price,
			})
		}

		order = &model.Order{
			Reference:       uuid.NewString(),
			CustomerID:      customer.ID,
			OwnerKey:        input.OwnerKey,
			Total:           model.RoundMoney(total),
			ItemCount:       itemCount,
			Status:          model.OrderStatusPending,
			ShippingAddress: input.ShippingAddress,
			BillingAddress:  *input.BillingAddress,
			Items:           items,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return errors.Wrap(err, "create order")
		}

		if _, err := cartRepo.DeleteByOwner(ctx, input.OwnerKey); err != nil {
			return errors.Wrap(err, "clear cart")
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProductUnavailable) {
			logger.Warn("Checkout aborted", map[string]interface{}{
				"owner_key": input.OwnerKey,
				"error":     err.Error(),
			})
		} else {
			logger.Error("Checkout failed", err, map[string]interface{}{
				"owner_key": input.OwnerKey,
			})
		}
		return nil, err
	}

	created, err := s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		// committed; fall back to what we built
		logger.Error("Failed to reload order after checkout", err, map[string]interface{}{
			"order_id": order.ID,
		})
		created = order
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"order_id":   created.ID,
		"reference":  created.Reference,
		"owner_key":  input.OwnerKey,
		"total":      created.Total.StringFixed(2),
		"item_count": created.ItemCount,
	})

	s.featured.Invalidate(ctx)
	if s.notifier != nil {
		s.notifier.Dispatch(newOrderEvent(OrderEventCreated, created))
	}

	return created, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListCustomerOrders(ctx context.Context, customerID uint) ([]model.Order, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	orders, err := s.orderRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus applies one legal transition. Cancelling puts the purchased
// quantities back on products that still exist.
func (s *orderService) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var previous model.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)
		productRepo := repository.NewProductRepository(tx)

		order, err := orderRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		previous = order.Status

		if !order.Status.CanTransitionTo(status) {
			return &InvalidTransitionError{From: order.Status, To: status}
		}

		ok, err := orderRepo.UpdateStatus(ctx, id, order.Status, status)
		if err != nil {
			return err
		}
		if !ok {
			// another writer moved it first
			latest, err := orderRepo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			return &InvalidTransitionError{From: latest.Status, To: status}
		}

		if status == model.OrderStatusCancelled {
			for _, item := range order.Items {
				err := productRepo.IncrementStock(ctx, item.ProductID, item.Quantity)
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.Wrapf(err, "restock product %d", item.ProductID)
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			logger.Warn("Order status change rejected", map[string]interface{}{
				"order_id": id,
				"error":    err.Error(),
			})
		}
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": id,
		"from":     previous,
		"to":       status,
	})

	if status == model.OrderStatusCancelled {
		s.featured.Invalidate(ctx)
	}
	if s.notifier != nil {
		s.notifier.Dispatch(newOrderEvent(OrderEventStatusChanged, order))
	}
	return order, nil
}
