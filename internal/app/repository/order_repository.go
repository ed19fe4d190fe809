package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderSummary aggregates every order that was not cancelled.
type OrderSummary struct {
	Orders  int64
	Revenue decimal.Decimal
}

type ProductSales struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]model.Order, error)
	FindRecent(ctx context.Context, limit int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uint, from, to model.OrderStatus) (bool, error)
	Summary(ctx context.Context) (OrderSummary, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	HasPurchased(ctx context.Context, customerID, productID uint) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and its items in one statement batch.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"customer_id": order.CustomerID,
		"total":       order.Total.String(),
		"items_count": len(order.Items),
	})

	if err := r.db.WithContext(ctx).Omit("Customer").Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"customer_id": order.CustomerID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":  order.ID,
		"reference": order.Reference,
	})
	return nil
}

func (r *orderRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id ASC")
		})
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.withDetails(ctx).First(&order, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find order by ID", err, map[string]interface{}{
				"order_id": id,
			})
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByCustomer(ctx context.Context, customerID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.withDetails(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to find orders by customer", err, map[string]interface{}{
			"customer_id": customerID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	query := r.withDetails(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		logger.Error("Failed to find recent orders", err, map[string]interface{}{
			"limit": limit,
		})
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves the order from one status to another only if it is still
// in from. It reports false when another writer got there first.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, from, to model.OrderStatus) (bool, error) {
	logger.Debug("Updating order status", map[string]interface{}{
		"order_id": id,
		"from":     from,
		"to":       to,
	})

	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		logger.Error("Failed to update order status", result.Error, map[string]interface{}{
			"order_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepository) Summary(ctx context.Context) (OrderSummary, error) {
	var row struct {
		Orders  int64
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue").
		Where("status <> ?", model.OrderStatusCancelled).
		Scan(&row).Error
	if err != nil {
		logger.Error("Failed to summarize orders", err)
		return OrderSummary{}, err
	}

	return OrderSummary{
		Orders:  row.Orders,
		Revenue: model.RoundMoney(row.Revenue),
	}, nil
}

func (r *orderRepository) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	var sales []ProductSales
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id AS product_id, MAX(order_items.product_name) AS product_name, "+
			"SUM(order_items.quantity) AS quantity_sold, SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", model.OrderStatusCancelled).
		Group("order_items.product_id").
		Order("quantity_sold DESC").
		Order("order_items.product_id ASC").
		Limit(limit).
		Scan(&sales).Error
	if err != nil {
		logger.Error("Failed to aggregate top products", err, map[string]interface{}{
			"limit": limit,
		})
		return nil, err
	}

	for i := range sales {
		sales[i].Revenue = model.RoundMoney(sales[i].Revenue)
	}
	return sales, nil
}

func (r *orderRepository) HasPurchased(ctx context.Context, customerID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.customer_id = ? AND order_items.product_id = ? AND orders.status <> ?",
			customerID, productID, model.OrderStatusCancelled).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check purchase history", err, map[string]interface{}{
			"customer_id": customerID,
			"product_id":  productID,
		})
		return false, err
	}
	return count > 0, nil
}
