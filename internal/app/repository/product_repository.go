package repository

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Category string // category name or slug, case-insensitive
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Limit    int
	Offset   int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	BulkCreate(ctx context.Context, products []model.Product, batchSize int) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindActiveByID(ctx context.Context, id uint) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	FindFeatured(ctx context.Context, limit int) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	LockByID(ctx context.Context, id uint) (*model.Product, error)
	DecrementStock(ctx context.Context, id uint, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id uint, quantity int) error
	UpdateRating(ctx context.Context, id uint, rating decimal.Decimal, reviewCount int64) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// likeEscape is the ESCAPE character used for every LIKE pattern built here.
const likeEscape = "!"

func containsPattern(term string) string {
	replacer := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + replacer.Replace(strings.ToLower(term)) + "%"
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":        product.Name,
		"category_id": product.CategoryID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":        product.Name,
			"category_id": product.CategoryID,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) BulkCreate(ctx context.Context, products []model.Product, batchSize int) error {
	if len(products) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	logger.Debug("Bulk creating products", map[string]interface{}{
		"count":      len(products),
		"batch_size": batchSize,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&products, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create products", err, map[string]interface{}{
			"count": len(products),
		})
		return err
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("Product not found", map[string]interface{}{
				"product_id": id,
			})
		} else {
			logger.Error("Failed to find product by ID", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}

	return &product, nil
}

// FindActiveByID returns gorm.ErrRecordNotFound for inactive products.
func (r *productRepository) FindActiveByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		First(&product, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find active product", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}

	if err := r.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error("Failed to find products by IDs", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return products, nil
}

// FindWithFilter returns one page of active products and the total number of
// matches ignoring Limit and Offset.
func (r *productRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category": filter.Category,
		"search":   filter.Search,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})

	query := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("products.is_active = ?", true)

	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("(LOWER(categories.name) = ? OR LOWER(categories.slug) = ?)",
			strings.ToLower(category), strings.ToLower(category))
	}
	if filter.MinPrice != nil {
		query = query.Where("COALESCE(products.sale_price, products.price) >= CAST(? AS NUMERIC)", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		query = query.Where("COALESCE(products.sale_price, products.price) <= CAST(? AS NUMERIC)", filter.MaxPrice.String())
	}

	search := strings.TrimSpace(filter.Search)
	var pattern string
	if search != "" {
		pattern = containsPattern(search)
		query = query.Where(
			"(LOWER(products.name) LIKE ? ESCAPE '"+likeEscape+"' OR LOWER(products.description) LIKE ? ESCAPE '"+likeEscape+"' OR LOWER(categories.name) LIKE ? ESCAPE '"+likeEscape+"')",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	find := query.Session(&gorm.Session{}).Select("products.*").Preload("Category")
	if search != "" {
		// one expression: gorm drops an OrderBy expression when more columns are merged in
		find = find.Order(clause.OrderBy{Expression: clause.Expr{
			SQL: "CASE WHEN LOWER(products.name) LIKE ? ESCAPE '" + likeEscape + "' THEN 1" +
				" WHEN LOWER(products.description) LIKE ? ESCAPE '" + likeEscape + "' THEN 2" +
				" ELSE 3 END, products.name ASC, products.id ASC",
			Vars:               []interface{}{pattern, pattern},
			WithoutParentheses: true,
		}})
	} else {
		find = find.Order("products.created_at DESC").Order("products.id DESC")
	}
	if filter.Limit > 0 {
		find = find.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		find = find.Offset(filter.Offset)
	}

	var products []model.Product
	if err := find.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err)
		return nil, 0, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

// FindFeatured orders by rating with id as the tie-break so equal ratings keep
// insertion order.
func (r *productRepository) FindFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Order("rating DESC").
		Order("id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find featured products", err, map[string]interface{}{
			"limit": limit,
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		logger.Error("Failed to change product visibility", result.Error, map[string]interface{}{
			"product_id": id,
			"active":     active,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the row. Cart lines and order items keep their product_id.
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	result := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockByID reads the product with SELECT ... FOR UPDATE. Use it only on a
// transaction handle.
func (r *productRepository) LockByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to lock product", err, map[string]interface{}{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts quantity only while enough active stock remains.
// It reports false when the guard rejected the update.
func (r *productRepository) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	logger.Debug("Decrementing product stock", map[string]interface{}{
		"product_id": id,
		"quantity":   quantity,
	})

	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND is_active = ? AND stock >= ?", id, true, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		logger.Error("Failed to decrement product stock", result.Error, map[string]interface{}{
			"product_id": id,
			"quantity":   quantity,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *productRepository) IncrementStock(ctx context.Context, id uint, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		logger.Error("Failed to increment product stock", result.Error, map[string]interface{}{
			"product_id": id,
			"quantity":   quantity,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) UpdateRating(ctx context.Context, id uint, rating decimal.Decimal, reviewCount int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":       rating,
			"review_count": reviewCount,
		})
	if result.Error != nil {
		logger.Error("Failed to update product rating", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
