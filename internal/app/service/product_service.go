package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	DefaultPageLimit   = 20
	MaxPageLimit       = 100
	FeaturedLimit      = 6
	ProductReviewLimit = 50
)

type ProductQuery struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}

type ProductPage struct {
	Items   []model.Product `json:"items"`
	Total   int64           `json:"total"`
	HasMore bool            `json:"has_more"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type ProductDetail struct {
	Product model.Product  `json:"product"`
	Reviews []model.Review `json:"reviews"`
}

type ProductInput struct {
	Name           string
	Description    string
	ImageURL       string
	Price          decimal.Decimal
	SalePrice      *decimal.Decimal
	Category       string
	Stock          int
	IsActive       *bool
	Features       []string
	Specifications map[string]interface{}
}

// ProductUpdate changes only the non-nil fields.
type ProductUpdate struct {
	Name           *string
	Description    *string
	ImageURL       *string
	Price          *decimal.Decimal
	SalePrice      *decimal.Decimal
	ClearSalePrice bool
	Category       *string
	Stock          *int
	IsActive       *bool
	Features       []string
	Specifications map[string]interface{}
}

type ProductService interface {
	ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error)
	GetProductDetail(ctx context.Context, id uint) (*ProductDetail, error)
	GetFeaturedProducts(ctx context.Context) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint, purge bool) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	reviewRepo   repository.ReviewRepository
	featured     *FeaturedCache
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	reviewRepo repository.ReviewRepository,
	featured *FeaturedCache,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		reviewRepo:   reviewRepo,
		featured:     featured,
	}
}

// ClampPagination maps out-of-range paging values onto safe defaults.
func ClampPagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *productService) ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	limit, offset := ClampPagination(query.Limit, query.Offset)

	if query.MinPrice != nil && query.MaxPrice != nil && query.MinPrice.GreaterThan(*query.MaxPrice) {
		return nil, newValidationError("min_price", "must not exceed max_price")
	}

	logger.Debug("Listing products", map[string]interface{}{
		"category": query.Category,
		"search":   query.Search,
		"limit":    limit,
		"offset":   offset,
	})

	products, total, err := s.productRepo.FindWithFilter(ctx, repository.ProductFilter{
		Category: query.Category,
		Search:   query.Search,
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}

	return &ProductPage{
		Items:   products,
		Total:   total,
		HasMore: int64(offset+len(products)) < total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

func (s *productService) GetProductDetail(ctx context.Context, id uint) (*ProductDetail, error) {
	product, err := s.productRepo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found or inactive", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	reviews, err := s.reviewRepo.FindByProduct(ctx, id, ProductReviewLimit)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	return &ProductDetail{Product: *product, Reviews: reviews}, nil
}

func (s *productService) GetFeaturedProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.featured.Load(ctx, func(ctx context.Context) ([]model.Product, error) {
		return s.productRepo.FindFeatured(ctx, FeaturedLimit)
	})
	if err != nil {
		logger.Error("Failed to load featured products", err)
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func validatePrices(price decimal.Decimal, salePrice *decimal.Decimal, verr *ValidationError) {
	if !price.IsPositive() {
		verr.Add("price", "must be greater than 0")
	}
	if salePrice != nil {
		if !salePrice.IsPositive() {
			verr.Add("sale_price", "must be greater than 0")
		} else if salePrice.GreaterThan(price) {
			verr.Add("sale_price", "must not exceed price")
		}
	}
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		verr.Add("name", "is required")
	}
	if strings.TrimSpace(input.Category) == "" {
		verr.Add("category", "is required")
	}
	if input.Stock < 0 {
		verr.Add("stock", "must not be negative")
	}
	validatePrices(input.Price, input.SalePrice, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FirstOrCreate(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       model.RoundMoney(input.Price),
		CategoryID:  category.ID,
		Stock:       input.Stock,
		IsActive:    input.IsActive == nil || *input.IsActive,
		Features:    model.StringList(input.Features),
	}
	if input.SalePrice != nil {
		product.SalePrice = decimal.NewNullDecimal(model.RoundMoney(*input.SalePrice))
	}
	if input.Specifications != nil {
		product.Specifications = datatypes.JSONMap(input.Specifications)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	product.Category = *category

	s.featured.Invalidate(ctx)

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, input ProductUpdate) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	verr := &ValidationError{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			verr.Add("name", "must not be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.Price != nil {
		product.Price = model.RoundMoney(*input.Price)
	}
	switch {
	case input.ClearSalePrice:
		product.SalePrice = decimal.NullDecimal{}
	case input.SalePrice != nil:
		product.SalePrice = decimal.NewNullDecimal(model.RoundMoney(*input.SalePrice))
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			verr.Add("stock", "must not be negative")
		}
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.Features != nil {
		product.Features = model.StringList(input.Features)
	}
	if input.Specifications != nil {
		product.Specifications = datatypes.JSONMap(input.Specifications)
	}

	var salePrice *decimal.Decimal
	if product.SalePrice.Valid {
		salePrice = &product.SalePrice.Decimal
	}
	validatePrices(product.Price, salePrice, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if input.Category != nil {
		if strings.TrimSpace(*input.Category) == "" {
			return nil, newValidationError("category", "must not be empty")
		}
		category, err := s.categoryRepo.FirstOrCreate(ctx, *input.Category)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
		product.Category = *category
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.featured.Invalidate(ctx)

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return product, nil
}

// DeleteProduct hides the product. With purge the row is removed; cart lines
// pointing at it then resolve as unavailable.
func (s *productService) DeleteProduct(ctx context.Context, id uint, purge bool) error {
	var err error
	if purge {
		err = s.productRepo.Delete(ctx, id)
	} else {
		err = s.productRepo.SetActive(ctx, id, false)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	s.featured.Invalidate(ctx)

	logger.Info("Product removed from catalog", map[string]interface{}{
		"product_id": id,
		"purged":     purge,
	})
	return nil
}
