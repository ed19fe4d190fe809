package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_UnitPrice(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("299.99")}
	assert.Equal(t, "299.99", p.UnitPrice().String())

	p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("249.99"))
	assert.Equal(t, "249.99", p.UnitPrice().String())
}

func TestProduct_CanFulfil(t *testing.T) {
	p := Product{IsActive: true, Stock: 2}
	assert.True(t, p.CanFulfil(2))
	assert.False(t, p.CanFulfil(3))
	assert.False(t, p.CanFulfil(0))

	p.IsActive = false
	assert.False(t, p.CanFulfil(1))
}

func TestRoundMoney_HalfUp(t *testing.T) {
	tests := map[string]string{
		"0.335":  "0.34",
		"0.334":  "0.33",
		"10.005": "10.01",
		"2.5":    "2.5",
		"7":      "7",
	}
	for in, want := range tests {
		got := RoundMoney(decimal.RequireFromString(in))
		assert.True(t, decimal.RequireFromString(want).Equal(got), "%s rounded to %s", in, got)
	}
}

func TestAverageRating(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(AverageRating(0, 0)))
	assert.Equal(t, "4.5", AverageRating(9, 2).String())
	// 14/3 = 4.666...
	assert.Equal(t, "4.7", AverageRating(14, 3).String())
	// 13/4 = 3.25 rounds half up
	assert.Equal(t, "3.3", AverageRating(13, 4).String())
}

func TestStringList_ValueAndScan(t *testing.T) {
	list := StringList{"Noise cancelling", "30h battery"}
	v, err := list.Value()
	require.NoError(t, err)

	var out StringList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, list, out)

	var empty StringList
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
}

func TestAddress_Missing(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.ElementsMatch(t, []string{"street", "city", "zip_code", "country"}, Address{}.Missing())

	addr := Address{Street: "1 Main St", City: "Springfield", ZipCode: "12345", Country: "US"}
	assert.Empty(t, addr.Missing())
	assert.False(t, addr.IsZero())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "electronics", Slugify("Electronics"))
	assert.Equal(t, "home-office", Slugify("  Home & Office "))
	assert.Equal(t, "kids-toys-2", Slugify("Kids' Toys 2!"))
}
