package service

import (
	"context"

	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const salesChartSize = 10

type DashboardService struct {
	d *Deps
}

// Stats summarizes the shop for the admin dashboard. The chart shows the
// latest orders, oldest first.
func (s *DashboardService) Stats(ctx context.Context, p *auth.Principal) (*models.DashboardStats, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	totalSales, err := s.d.Orders.TotalSales(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.d.Orders.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.d.Products.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.d.Users.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.d.Orders.Latest(ctx, salesChartSize)
	if err != nil {
		return nil, err
	}

	chart := make([]models.SalesPoint, 0, len(latest))
	for i := len(latest) - 1; i >= 0; i-- {
		chart = append(chart, models.SalesPoint{
			Name:  latest[i].CreatedAt.Format("02/01"),
			Sales: latest[i].TotalPrice,
		})
	}

	return &models.DashboardStats{
		TotalSales:    totalSales,
		TotalOrders:   orders,
		TotalProducts: products,
		TotalUsers:    users,
		SalesChart:    chart,
	}, nil
}
