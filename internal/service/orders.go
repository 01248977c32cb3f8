package service

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/events"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

type OrderService struct {
	d *Deps
}

type OrderLine struct {
	ProductID primitive.ObjectID
	Qty       int
}

type PlaceOrderInput struct {
	Items           []OrderLine
	PaymentMethod   string
	ShippingAddress models.ShippingAddress
	TaxPrice        decimal.Decimal
	ShippingPrice   decimal.Decimal
}

// Place turns line items into an order. Prices are snapshotted, stock is
// decremented without a floor and the total is fixed, all in one
// transaction: a missing product anywhere leaves nothing behind.
func (s *OrderService) Place(ctx context.Context, p *auth.Principal, in PlaceOrderInput) (*models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("No Order Items")
	}
	for _, line := range in.Items {
		if line.Qty < 1 {
			return nil, apperr.Validation("Quantity must be at least 1")
		}
	}
	if in.TaxPrice.IsNegative() || in.ShippingPrice.IsNegative() {
		return nil, apperr.Validation("Tax and shipping must be zero or more")
	}

	userID := p.UserID
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		UserID:          &userID,
		PaymentMethod:   in.PaymentMethod,
		TaxPrice:        in.TaxPrice.Round(2),
		ShippingPrice:   in.ShippingPrice.Round(2),
		Status:          models.OrderStatusPending,
		CreatedAt:       s.d.now(),
		ShippingAddress: in.ShippingAddress,
	}

	err := s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			product, err := s.d.Products.FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			productID := product.ID
			items = append(items, models.OrderItem{
				ID:        primitive.NewObjectID(),
				ProductID: &productID,
				Name:      product.Name,
				Qty:       line.Qty,
				Price:     product.UnitPrice(),
				Image:     product.Image,
			})
			if err := s.d.Products.AdjustStock(ctx, productID, -line.Qty); err != nil {
				return err
			}
		}
		order.Items = items
		order.TotalPrice = OrderTotal(items, order.ShippingPrice, order.TaxPrice)
		return s.d.Orders.Insert(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.d.TopCache.Invalidate(ctx)
	s.d.Observer.OrderPlaced(order.TotalPrice)
	s.d.publish(ctx, events.NewEvent(events.OrderCreated, order.ID.Hex(), map[string]interface{}{
		"orderId":    order.ID.Hex(),
		"userId":     userID.Hex(),
		"totalPrice": order.TotalPrice.StringFixed(2),
		"items":      len(order.Items),
	}))
	s.d.Log.Info("order placed",
		zap.String("orderId", order.ID.Hex()),
		zap.String("userId", userID.Hex()),
		zap.String("total", order.TotalPrice.StringFixed(2)),
	)
	return order, nil
}

// Get returns an order to staff, to the customer who placed it and to any
// vendor selling one of its products.
func (s *OrderService) Get(ctx context.Context, p *auth.Principal, id primitive.ObjectID) (*models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	order, err := s.d.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := p.IsStaff() || order.PlacedBy(p.UserID)
	if !allowed {
		allowed, err = s.sellsInto(ctx, p.UserID, order)
		if err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, apperr.Forbidden("Not authorized to view this order")
	}

	one := []models.Order{*order}
	if err := s.attachUsers(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *OrderService) Mine(ctx context.Context, p *auth.Principal) ([]models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	orders, err := s.d.Orders.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return orders, s.attachUsers(ctx, orders)
}

func (s *OrderService) All(ctx context.Context, p *auth.Principal) ([]models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	orders, err := s.d.Orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return orders, s.attachUsers(ctx, orders)
}

func (s *OrderService) MarkPaid(ctx context.Context, p *auth.Principal, id primitive.ObjectID) error {
	if err := requireUser(p); err != nil {
		return err
	}
	order, err := s.d.Orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsStaff() && !order.PlacedBy(p.UserID) {
		return apperr.Forbidden("Not authorized to pay this order")
	}
	return s.d.Orders.MarkPaid(ctx, id, s.d.now())
}

func (s *OrderService) MarkDelivered(ctx context.Context, p *auth.Principal, id primitive.ObjectID) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	return s.d.Orders.MarkDelivered(ctx, id, s.d.now())
}

func (s *OrderService) Delete(ctx context.Context, p *auth.Principal, id primitive.ObjectID) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	return s.d.Orders.Delete(ctx, id)
}

var csvHeader = []string{"Order ID", "Customer", "Date", "Total Price", "Paid?", "Delivered?"}

// ExportCSV writes every order, newest first, as the admin sales report.
func (s *OrderService) ExportCSV(ctx context.Context, p *auth.Principal, w io.Writer) error {
	orders, err := s.All(ctx, p)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return apperr.Internal("failed to write report", err)
	}
	for _, o := range orders {
		customer := "Guest"
		if o.User != nil {
			customer = o.User.FirstName
		}
		row := []string{
			o.ID.Hex(),
			customer,
			o.CreatedAt.Format("2006-01-02"),
			o.TotalPrice.StringFixed(2),
			yesNo(o.IsPaid),
			yesNo(o.IsDelivered),
		}
		if err := cw.Write(row); err != nil {
			return apperr.Internal("failed to write report", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperr.Internal("failed to write report", err)
	}
	return nil
}

// SellerOrders lists every sold line of the caller's products across all
// orders. Only vendor accounts may ask.
func (s *OrderService) SellerOrders(ctx context.Context, p *auth.Principal) ([]models.SellerOrderLine, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	profile, err := s.d.Profiles.FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !profile.IsVendor() {
		return nil, apperr.Unauthorized("Not authorized as a vendor")
	}

	productIDs, err := s.d.Products.IDsByOwner(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	owned := make(map[primitive.ObjectID]bool, len(productIDs))
	for _, id := range productIDs {
		owned[id] = true
	}

	orders, err := s.d.Orders.ListContainingProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	lines := make([]models.SellerOrderLine, 0)
	for _, o := range orders {
		for _, item := range o.Items {
			if item.ProductID == nil || !owned[*item.ProductID] {
				continue
			}
			lines = append(lines, models.SellerOrderLine{
				ID:          item.ID,
				OrderID:     o.ID,
				Name:        item.Name,
				Qty:         item.Qty,
				Price:       item.Price,
				TotalPrice:  item.LineTotal(),
				CreatedAt:   o.CreatedAt,
				IsPaid:      o.IsPaid,
				IsDelivered: o.IsDelivered,
			})
		}
	}
	return lines, nil
}

func (s *OrderService) sellsInto(ctx context.Context, userID primitive.ObjectID, order *models.Order) (bool, error) {
	ids := make([]primitive.ObjectID, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID != nil {
			ids = append(ids, *item.ProductID)
		}
	}
	products, err := s.d.Products.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return false, err
	}
	for i := range products {
		if products[i].OwnedBy(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *OrderService) attachUsers(ctx context.Context, orders []models.Order) error {
	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		if o.UserID != nil {
			ids = append(ids, *o.UserID)
		}
	}
	users, err := s.d.Users.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return err
	}
	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for i := range orders {
		if orders[i].UserID != nil {
			orders[i].User = models.NewUserSummary(byID[*orders[i].UserID])
		}
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
