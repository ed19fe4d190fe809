package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type Router struct {
	productController    *controller.ProductController
	cartController       *controller.CartController
	orderController      *controller.OrderController
	reviewController     *controller.ReviewController
	customerController   *controller.CustomerController
	newsletterController *controller.NewsletterController
	statsController      *controller.StatsController
	feedController       *controller.FeedController
	config               *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	reviewController *controller.ReviewController,
	customerController *controller.CustomerController,
	newsletterController *controller.NewsletterController,
	statsController *controller.StatsController,
	feedController *controller.FeedController,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:    productController,
		cartController:       cartController,
		orderController:      orderController,
		reviewController:     reviewController,
		customerController:   customerController,
		newsletterController: newsletterController,
		statsController:      statsController,
		feedController:       feedController,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	session := middleware.RequireSession()

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/featured", r.productController.GetFeaturedProducts)
			products.GET("/:id", r.productController.GetProduct)
			products.GET("/:id/reviews", r.productController.GetProductReviews)

			// catalog administration; authentication is out of scope
			products.POST("", r.productController.CreateProduct)
			products.PUT("/:id", r.productController.UpdateProduct)
			products.DELETE("/:id", r.productController.DeleteProduct)
		}

		v1.GET("/categories", r.productController.ListCategories)

		cart := v1.Group("/cart")
		cart.Use(session)
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.PATCH("/:id", r.cartController.UpdateCartItem)
			cart.DELETE("/:id", r.cartController.RemoveCartItem)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", session, r.orderController.Checkout)
			orders.GET("/feed", r.feedController.OrderFeed)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.PATCH("/:id/status", r.orderController.UpdateOrderStatus)
		}

		v1.POST("/reviews", r.reviewController.CreateReview)

		customers := v1.Group("/customers")
		{
			customers.POST("", r.customerController.RegisterCustomer)
			customers.GET("/:id", r.customerController.GetCustomer)
			customers.GET("/:id/orders", r.customerController.GetCustomerOrders)
		}

		v1.POST("/newsletter", r.newsletterController.Subscribe)

		stats := v1.Group("/stats")
		{
			stats.GET("", r.statsController.GetStats)
			stats.GET("/orders/export", r.statsController.ExportOrders)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, X-Session-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
