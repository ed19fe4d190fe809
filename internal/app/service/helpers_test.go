package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cartRepo     repository.CartRepository
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	reviewRepo   repository.ReviewRepository
	locks        *util.KeyedMutex
	notifier     *recordingNotifier
	cache        *memoryCache
	featured     *FeaturedCache
	dispatcher   NotificationService

	products ProductService
	carts    CartService
	orders   OrderService
	reviews  ReviewService
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	env := &testEnv{
		db:           testDB,
		productRepo:  repository.NewProductRepository(testDB),
		categoryRepo: repository.NewCategoryRepository(testDB),
		cartRepo:     repository.NewCartRepository(testDB),
		orderRepo:    repository.NewOrderRepository(testDB),
		customerRepo: repository.NewCustomerRepository(testDB),
		reviewRepo:   repository.NewReviewRepository(testDB),
		locks:        util.NewKeyedMutex(),
		notifier:     &recordingNotifier{},
		cache:        newMemoryCache(),
	}
	env.featured = NewFeaturedCache(env.cache, time.Minute)
	env.dispatcher = NewNotificationService(time.Second, env.notifier)
	t.Cleanup(env.dispatcher.Wait)

	env.products = NewProductService(env.productRepo, env.categoryRepo, env.reviewRepo, env.featured)
	env.carts = NewCartService(env.cartRepo, env.productRepo, env.locks)
	env.orders = NewOrderService(testDB, env.orderRepo, env.cartRepo, env.customerRepo, env.locks, env.dispatcher, env.featured)
	env.reviews = NewReviewService(testDB, env.reviewRepo, env.featured)
	return env
}

type productOption func(*model.Product)

func withSale(price string) productOption {
	return func(p *model.Product) {
		p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
}

func withRating(rating string) productOption {
	return func(p *model.Product) {
		p.Rating = decimal.RequireFromString(rating)
	}
}

func withDescription(description string) productOption {
	return func(p *model.Product) {
		p.Description = description
	}
}

func inactive() productOption {
	return func(p *model.Product) {
		p.IsActive = false
	}
}

func (e *testEnv) category(t *testing.T, name string) *model.Category {
	t.Helper()
	category, err := e.categoryRepo.FirstOrCreate(context.Background(), name)
	require.NoError(t, err)
	return category
}

func (e *testEnv) product(t *testing.T, name, price string, stock int, opts ...productOption) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: e.category(t, "Electronics").ID,
		Stock:      stock,
		IsActive:   true,
	}
	for _, opt := range opts {
		opt(product)
	}
	require.NoError(t, e.productRepo.Create(context.Background(), product))
	return product
}

func (e *testEnv) customer(t *testing.T, name, email string) *model.Customer {
	t.Helper()
	customer := &model.Customer{Name: name, Email: email}
	require.NoError(t, e.customerRepo.Create(context.Background(), customer))
	return customer
}

func (e *testEnv) stockOf(t *testing.T, productID uint) int {
	t.Helper()
	product, err := e.productRepo.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

func (e *testEnv) count(t *testing.T, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(value).Count(&n).Error)
	return n
}

func testAddress() model.Address {
	return model.Address{
		Street:  "1 Market St",
		City:    "Springfield",
		State:   "IL",
		ZipCode: "62701",
		Country: "US",
	}
}

func checkoutInput(owner string) CheckoutInput {
	return CheckoutInput{
		OwnerKey:        owner,
		Customer:        CustomerInfo{Name: "John Smith", Email: "john@example.com"},
		ShippingAddress: testAddress(),
	}
}

// recordingNotifier captures dispatched events and can be told to fail.
type recordingNotifier struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
	panics bool
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) NotifyOrder(_ context.Context, event OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	if n.panics {
		panic("notifier exploded")
	}
	return n.err
}

func (n *recordingNotifier) Events() []OrderEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]OrderEvent(nil), n.events...)
}
