package service

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	TopProductsLimit = 5
	ExportOrderLimit = 10000

	exportSheet = "Orders"
)

type Stats struct {
	TotalOrders       int64                     `json:"total_orders"`
	TotalRevenue      decimal.Decimal           `json:"total_revenue"`
	AverageOrderValue decimal.Decimal           `json:"average_order_value"`
	TopProducts       []repository.ProductSales `json:"top_products"`
}

type StatsService interface {
	GetStats(ctx context.Context) (*Stats, error)
	ExportOrders(ctx context.Context, w io.Writer) (int, error)
}

type statsService struct {
	orderRepo repository.OrderRepository
}

func NewStatsService(orderRepo repository.OrderRepository) StatsService {
	return &statsService{orderRepo: orderRepo}
}

// GetStats reports on every order that was not cancelled.
func (s *statsService) GetStats(ctx context.Context) (*Stats, error) {
	summary, err := s.orderRepo.Summary(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "summarize orders")
	}

	top, err := s.orderRepo.TopProducts(ctx, TopProductsLimit)
	if err != nil {
		return nil, errors.Wrap(err, "top products")
	}
	if top == nil {
		top = []repository.ProductSales{}
	}

	aov := decimal.Zero
	if summary.Orders > 0 {
		aov = summary.Revenue.Div(decimal.NewFromInt(summary.Orders))
	}

	return &Stats{
		TotalOrders:       summary.Orders,
		TotalRevenue:      model.RoundMoney(summary.Revenue),
		AverageOrderValue: model.RoundMoney(aov),
		TopProducts:       top,
	}, nil
}

var exportHeader = []interface{}{"Reference", "Customer", "Email", "Status", "Items", "Total", "Created At"}

// ExportOrders writes the most recent orders as an XLSX workbook and returns
// the number of data rows.
func (s *statsService) ExportOrders(ctx context.Context, w io.Writer) (int, error) {
	orders, err := s.orderRepo.FindRecent(ctx, ExportOrderLimit)
	if err != nil {
		return 0, errors.Wrap(err, "load orders")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return 0, errors.Wrap(err, "name sheet")
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return 0, errors.Wrap(err, "write header")
	}

	for i, order := range orders {
		var name, email string
		if order.Customer != nil {
			name = order.Customer.Name
			email = order.Customer.Email
		}
		total, _ := order.Total.Float64()
		row := []interface{}{
			order.Reference,
			name,
			email,
			string(order.Status),
			order.ItemCount,
			total,
			order.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, errors.Wrapf(err, "write row %d", i+2)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, errors.Wrap(err, "write workbook")
	}

	logger.Info("Orders exported", map[string]interface{}{
		"rows": len(orders),
	})
	return len(orders), nil
}
