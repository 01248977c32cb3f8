package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 8))
	assert.Equal(t, 1, PageCount(8, 8))
	assert.Equal(t, 2, PageCount(9, 8))
	assert.Equal(t, 3, PageCount(17, 8))
}

func TestResolvePage(t *testing.T) {
	tests := []struct {
		raw   string
		pages int
		want  int
	}{
		{"", 3, 1},
		{"abc", 3, 1},
		{"2", 3, 2},
		{" 3 ", 3, 3},
		{"9", 3, 3},
		{"0", 3, 3},
		{"-4", 3, 3},
		{"1", 0, 1},
		{"5", 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolvePage(tt.raw, tt.pages), "page %q of %d", tt.raw, tt.pages)
	}
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(models.RatingStats{}))
	assert.Equal(t, 4.0, AverageRating(models.RatingStats{Count: 2, Sum: 8}))
	assert.Equal(t, 3.67, AverageRating(models.RatingStats{Count: 3, Sum: 11}))
	assert.Equal(t, 1.33, AverageRating(models.RatingStats{Count: 3, Sum: 4}))
}

func TestOrderTotal(t *testing.T) {
	items := []models.OrderItem{
		{Qty: 2, Price: decimal.RequireFromString("10.00")},
		{Qty: 1, Price: decimal.RequireFromString("0.10")},
	}
	total := OrderTotal(items, decimal.NewFromInt(5), decimal.NewFromInt(1))
	assert.True(t, total.Equal(decimal.RequireFromString("26.10")), total.String())
}

func TestUnitPrice(t *testing.T) {
	discount := decimal.RequireFromString("7.50")
	zero := decimal.Zero

	p := models.Product{Price: decimal.NewFromInt(10)}
	assert.True(t, p.UnitPrice().Equal(decimal.NewFromInt(10)))

	p.DiscountPrice = &zero
	assert.True(t, p.UnitPrice().Equal(decimal.NewFromInt(10)))

	p.DiscountPrice = &discount
	assert.True(t, p.UnitPrice().Equal(discount))
}
