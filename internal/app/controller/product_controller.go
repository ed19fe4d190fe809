package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

type ProductController struct {
	productService service.ProductService
	reviewService  service.ReviewService
}

func NewProductController(productService service.ProductService, reviewService service.ReviewService) *ProductController {
	return &ProductController{
		productService: productService,
		reviewService:  reviewService,
	}
}

type CreateProductRequest struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	ImageURL       string                 `json:"image_url"`
	Price          decimal.Decimal        `json:"price"`
	SalePrice      *decimal.Decimal       `json:"sale_price"`
	Category       string                 `json:"category"`
	Stock          int                    `json:"stock"`
	IsActive       *bool                  `json:"is_active"`
	Features       []string               `json:"features"`
	Specifications map[string]interface{} `json:"specifications"`
}

type UpdateProductRequest struct {
	Name           *string                `json:"name"`
	Description    *string                `json:"description"`
	ImageURL       *string                `json:"image_url"`
	Price          *decimal.Decimal       `json:"price"`
	SalePrice      *decimal.Decimal       `json:"sale_price"`
	ClearSalePrice bool                   `json:"clear_sale_price"`
	Category       *string                `json:"category"`
	Stock          *int                   `json:"stock"`
	IsActive       *bool                  `json:"is_active"`
	Features       []string               `json:"features"`
	Specifications map[string]interface{} `json:"specifications"`
}

// ListProducts lists or searches the active catalog
// GET /api/v1/products?category=&search=&min_price=&max_price=&limit=&offset=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	query, fields := parseProductQuery(c)
	if len(fields) > 0 {
		log.Warn("Invalid product query", map[string]interface{}{"fields": fields})
		apperrors.RespondWithValidationError(c, fields)
		return
	}

	page, err := ctrl.productService.ListProducts(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err, "list products")
		return
	}

	log.Info("Products listed", map[string]interface{}{
		"count": len(page.Items),
		"total": page.Total,
	})

	c.JSON(http.StatusOK, page)
}

func parseProductQuery(c *gin.Context) (service.ProductQuery, map[string]string) {
	fields := map[string]string{}
	query := service.ProductQuery{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if query.Search == "" {
		query.Search = c.Query("q")
	}

	for _, param := range []string{"min_price", "max_price"} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			fields[param] = "must be a number"
			continue
		}
		if param == "min_price" {
			query.MinPrice = &value
		} else {
			query.MaxPrice = &value
		}
	}

	for _, param := range []string{"limit", "offset"} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			fields[param] = "must be an integer"
			continue
		}
		if param == "limit" {
			query.Limit = value
		} else {
			query.Offset = value
		}
	}

	return query, fields
}

// GetFeaturedProducts returns the best rated products
// GET /api/v1/products/featured
func (ctrl *ProductController) GetFeaturedProducts(c *gin.Context) {
	products, err := ctrl.productService.GetFeaturedProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "featured products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns a product with its reviews
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := ctrl.productService.GetProductDetail(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get product")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetProductReviews returns the newest reviews of a product
// GET /api/v1/products/:id/reviews?limit=
func (ctrl *ProductController) GetProductReviews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	reviews, err := ctrl.reviewService.ListProductReviews(c.Request.Context(), id, limit)
	if err != nil {
		respondServiceError(c, err, "list reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// ListCategories
// GET /api/v1/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	categories, err := ctrl.productService.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "list categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// CreateProduct adds a product to the catalog
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := ctrl.productService.CreateProduct(c.Request.Context(), service.ProductInput{
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Price:          req.Price,
		SalePrice:      req.SalePrice,
		Category:       req.Category,
		Stock:          req.Stock,
		IsActive:       req.IsActive,
		Features:       req.Features,
		Specifications: req.Specifications,
	})
	if err != nil {
		respondServiceError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"product": product,
	})
}

// UpdateProduct changes the supplied fields only
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := ctrl.productService.UpdateProduct(c.Request.Context(), id, service.ProductUpdate{
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Price:          req.Price,
		SalePrice:      req.SalePrice,
		ClearSalePrice: req.ClearSalePrice,
		Category:       req.Category,
		Stock:          req.Stock,
		IsActive:       req.IsActive,
		Features:       req.Features,
		Specifications: req.Specifications,
	})
	if err != nil {
		respondServiceError(c, err, "update product")
		return
	}

	log.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// DeleteProduct deactivates a product, or removes it with ?purge=true
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	purge, _ := strconv.ParseBool(c.Query("purge"))

	if err := ctrl.productService.DeleteProduct(c.Request.Context(), id, purge); err != nil {
		respondServiceError(c, err, "delete product")
		return
	}

	log.Info("Product deleted", map[string]interface{}{
		"product_id": id,
		"purge":      purge,
	})

	c.Status(http.StatusNoContent)
}
