package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func placeOrder(t *testing.T, env *testEnv, owner string, lines map[uint]int) *model.Order {
	t.Helper()
	ctx := context.Background()
	for productID, qty := range lines {
		_, err := env.carts.AddItem(ctx, owner, productID, qty)
		require.NoError(t, err)
	}
	input := checkoutInput(owner)
	input.Customer.Email = owner + "@example.com"
	order, err := env.orders.Checkout(ctx, input)
	require.NoError(t, err)
	return order
}

func TestStatsService_GetStats(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	stats := NewStatsService(env.orderRepo)

	empty, err := stats.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.TotalOrders)
	assert.True(t, empty.AverageOrderValue.IsZero())
	assert.Empty(t, empty.TopProducts)

	watch := env.product(t, "Smart Fitness Watch", "10.10", 20)
	lamp := env.product(t, "Desk Lamp", "33.33", 20)

	placeOrder(t, env, "s1", map[uint]int{watch.ID: 3})
	placeOrder(t, env, "s2", map[uint]int{watch.ID: 1, lamp.ID: 1})
	cancelled := placeOrder(t, env, "s3", map[uint]int{lamp.ID: 5})
	_, err = env.orders.UpdateStatus(ctx, cancelled.ID, model.OrderStatusCancelled)
	require.NoError(t, err)

	result, err := stats.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.TotalOrders)
	// 30.30 + 43.43
	assert.Equal(t, "73.73", result.TotalRevenue.StringFixed(2))
	// 73.73 / 2 = 36.865
	assert.Equal(t, "36.87", result.AverageOrderValue.StringFixed(2))

	require.Len(t, result.TopProducts, 2)
	assert.Equal(t, watch.ID, result.TopProducts[0].ProductID)
	assert.EqualValues(t, 4, result.TopProducts[0].QuantitySold)
	assert.Equal(t, "40.40", result.TopProducts[0].Revenue.StringFixed(2))
	assert.Equal(t, lamp.ID, result.TopProducts[1].ProductID)
	assert.EqualValues(t, 1, result.TopProducts[1].QuantitySold)
}

func TestStatsService_ExportOrders(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	stats := NewStatsService(env.orderRepo)

	lamp := env.product(t, "Desk Lamp", "12.50", 20)
	first := placeOrder(t, env, "s1", map[uint]int{lamp.ID: 2})
	placeOrder(t, env, "s2", map[uint]int{lamp.ID: 1})

	var buf bytes.Buffer
	rows, err := stats.ExportOrders(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	data, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, data, 3)
	assert.Equal(t, "Reference", data[0][0])
	assert.Equal(t, "Total", data[0][5])

	// newest first
	assert.Equal(t, first.Reference, data[2][0])
	assert.Equal(t, "s1@example.com", data[2][2])
	assert.Equal(t, "pending", data[2][3])
	assert.Equal(t, "2", data[2][4])
	assert.Equal(t, "25", data[2][5])
}
