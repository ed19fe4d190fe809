package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSession = "session-a"

type testServer struct {
	db           *gorm.DB
	router       *gin.Engine
	hub          *ws.Hub
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	customerRepo repository.CustomerRepository
}

func setupControllerTest(t *testing.T) *testServer {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	customerRepo := repository.NewCustomerRepository(testDB)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	locks := util.NewKeyedMutex()
	featured := service.NewFeaturedCache(nil, time.Minute)
	notifications := service.NewNotificationService(time.Second, service.LogNotifier{}, service.NewFeedOrderNotifier(hub))
	t.Cleanup(notifications.Wait)

	productService := service.NewProductService(productRepo, categoryRepo, reviewRepo, featured)
	reviewService := service.NewReviewService(testDB, reviewRepo, featured)
	cartService := service.NewCartService(cartRepo, productRepo, locks)
	orderService := service.NewOrderService(testDB, orderRepo, cartRepo, customerRepo, locks, notifications, featured)
	customerService := service.NewCustomerService(customerRepo)
	newsletterService := service.NewNewsletterService(repository.NewNewsletterRepository(testDB))
	statsService := service.NewStatsService(orderRepo)

	products := NewProductController(productService, reviewService)
	carts := NewCartController(cartService)
	orders := NewOrderController(orderService)
	reviews := NewReviewController(reviewService)
	customers := NewCustomerController(customerService, orderService)
	newsletter := NewNewsletterController(newsletterService)
	stats := NewStatsController(statsService)
	feed := NewFeedController(hub, []string{"http://localhost:3000"})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	v1 := router.Group("/api/v1")
	v1.GET("/products", products.ListProducts)
	v1.GET("/products/featured", products.GetFeaturedProducts)
	v1.GET("/products/:id", products.GetProduct)
	v1.GET("/products/:id/reviews", products.GetProductReviews)
	v1.POST("/products", products.CreateProduct)
	v1.PUT("/products/:id", products.UpdateProduct)
	v1.DELETE("/products/:id", products.DeleteProduct)
	v1.GET("/categories", products.ListCategories)

	cart := v1.Group("/cart", middleware.RequireSession())
	cart.GET("", carts.GetCart)
	cart.POST("", carts.AddToCart)
	cart.DELETE("", carts.ClearCart)
	cart.PATCH("/:id", carts.UpdateCartItem)
	cart.DELETE("/:id", carts.RemoveCartItem)

	v1.POST("/orders", middleware.RequireSession(), orders.Checkout)
	v1.GET("/orders/feed", feed.OrderFeed)
	v1.GET("/orders/:id", orders.GetOrder)
	v1.PATCH("/orders/:id/status", orders.UpdateOrderStatus)

	v1.POST("/reviews", reviews.CreateReview)
	v1.POST("/customers", customers.RegisterCustomer)
	v1.GET("/customers/:id", customers.GetCustomer)
	v1.GET("/customers/:id/orders", customers.GetCustomerOrders)
	v1.POST("/newsletter", newsletter.Subscribe)
	v1.GET("/stats", stats.GetStats)
	v1.GET("/stats/orders/export", stats.ExportOrders)

	return &testServer{
		db:           testDB,
		router:       router,
		hub:          hub,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		customerRepo: customerRepo,
	}
}

// do sends body as JSON; session is sent as X-Session-ID when not empty.
func (s *testServer) do(t *testing.T, method, path, session string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) product(t *testing.T, name, price string, stock int) *model.Product {
	t.Helper()
	category, err := s.categoryRepo.FirstOrCreate(context.Background(), "Electronics")
	require.NoError(t, err)

	product := &model.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: category.ID,
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, s.productRepo.Create(context.Background(), product))
	return product
}

func (s *testServer) customer(t *testing.T, name, email string) *model.Customer {
	t.Helper()
	customer := &model.Customer{Name: name, Email: email}
	require.NoError(t, s.customerRepo.Create(context.Background(), customer))
	return customer
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// money normalizes a decimal JSON value to two places.
func money(t *testing.T, v interface{}) string {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "expected decimal string, got %T", v)
	return decimal.RequireFromString(s).StringFixed(2)
}

func checkoutBody(email string) map[string]interface{} {
	return map[string]interface{}{
		"customer": map[string]interface{}{"name": "John Smith", "email": email},
		"shipping_address": map[string]interface{}{
			"street":   "1 Market St",
			"city":     "Springfield",
			"state":    "IL",
			"zip_code": "62701",
			"country":  "US",
		},
	}
}
