package service

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

// PageCount is the number of pages needed for total rows. An empty result
// still has one page.
func PageCount(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// ResolvePage maps the raw page parameter onto [1, pages]. A missing or
// non-numeric value means the first page; a number outside the range means
// the last one.
func ResolvePage(raw string, pages int) int {
	if pages < 1 {
		pages = 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > pages {
		return pages
	}
	return n
}

// AverageRating is the arithmetic mean of the ratings, rounded to the two
// decimals a rating is stored with. No reviews means 0.
func AverageRating(stats models.RatingStats) float64 {
	if stats.Count == 0 {
		return 0
	}
	mean := decimal.NewFromInt(int64(stats.Sum)).
		DivRound(decimal.NewFromInt(int64(stats.Count)), 2)
	f, _ := mean.Float64()
	return f
}

// OrderTotal is Σ(price × qty) + shipping + tax.
func OrderTotal(items []models.OrderItem, shipping, tax decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Add(shipping).Add(tax)
}
