package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	Create(ctx context.Context, cartItem *model.CartItem) error
	FindByOwner(ctx context.Context, ownerKey string) ([]model.CartItem, error)
	FindByID(ctx context.Context, id uint) (*model.CartItem, error)
	FindByOwnerAndProduct(ctx context.Context, ownerKey string, productID uint) (*model.CartItem, error)
	UpdateQuantity(ctx context.Context, id uint, quantity int) error
	Delete(ctx context.Context, id uint) error
	DeleteByOwner(ctx context.Context, ownerKey string) (int64, error)
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context, cartItem *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"owner_key":  cartItem.OwnerKey,
		"product_id": cartItem.ProductID,
		"quantity":   cartItem.Quantity,
	})

	if err := r.db.WithContext(ctx).Create(cartItem).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"owner_key":  cartItem.OwnerKey,
			"product_id": cartItem.ProductID,
			"quantity":   cartItem.Quantity,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": cartItem.ID,
		"owner_key":    cartItem.OwnerKey,
		"product_id":   cartItem.ProductID,
	})
	return nil
}

func (r *cartRepository) FindByOwner(ctx context.Context, ownerKey string) ([]model.CartItem, error) {
	logger.Debug("Finding cart items by owner in database", map[string]interface{}{
		"owner_key": ownerKey,
	})

	var cartItems []model.CartItem
	err := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("id ASC").
		Find(&cartItems).Error
	if err != nil {
		logger.Error("Failed to find cart items by owner", err, map[string]interface{}{
			"owner_key": ownerKey,
		})
		return nil, err
	}

	logger.Debug("Cart items found by owner", map[string]interface{}{
		"owner_key": ownerKey,
		"count":     len(cartItems),
	})
	return cartItems, nil
}

func (r *cartRepository) FindByID(ctx context.Context, id uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	err := r.db.WithContext(ctx).First(&cartItem, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart item by ID", err, map[string]interface{}{
				"cart_item_id": id,
			})
		}
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) FindByOwnerAndProduct(ctx context.Context, ownerKey string, productID uint) (*model.CartItem, error) {
	var cartItem model.CartItem
	err := r.db.WithContext(ctx).
		Where("owner_key = ? AND product_id = ?", ownerKey, productID).
		First(&cartItem).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart item by owner and product", err, map[string]interface{}{
				"owner_key":  ownerKey,
				"product_id": productID,
			})
		}
		return nil, err
	}
	return &cartItem, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, id uint, quantity int) error {
	logger.Debug("Updating cart item quantity", map[string]interface{}{
		"cart_item_id": id,
		"quantity":     quantity,
	})

	result := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity)
	if result.Error != nil {
		logger.Error("Failed to update cart item quantity", result.Error, map[string]interface{}{
			"cart_item_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.CartItem{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete cart item", result.Error, map[string]interface{}{
			"cart_item_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Cart item deleted from database", map[string]interface{}{
		"cart_item_id": id,
	})
	return nil
}

func (r *cartRepository) DeleteByOwner(ctx context.Context, ownerKey string) (int64, error) {
	result := r.db.WithContext(ctx).Where("owner_key = ?", ownerKey).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete cart items by owner", result.Error, map[string]interface{}{
			"owner_key": ownerKey,
		})
		return 0, result.Error
	}

	logger.Debug("Cart cleared in database", map[string]interface{}{
		"owner_key": ownerKey,
		"removed":   result.RowsAffected,
	})
	return result.RowsAffected, nil
}

// DeleteStale removes lines whose last change is older than before.
func (r *cartRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&model.CartItem{})
	if result.Error != nil {
		logger.Error("Failed to delete stale cart items", result.Error, map[string]interface{}{
			"before": before,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
