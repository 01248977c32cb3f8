package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

type ShippingAddress struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// OrderItem is a priced snapshot of a product taken when the order was
// placed. ProductID becomes nil once the product is deleted.
type OrderItem struct {
	ID        primitive.ObjectID  `bson:"_id" json:"_id"`
	ProductID *primitive.ObjectID `bson:"productId" json:"product"`
	Name      string              `bson:"name" json:"name"`
	Qty       int                 `bson:"qty" json:"qty"`
	Price     decimal.Decimal     `bson:"price" json:"price"`
	Image     string              `bson:"image" json:"image"`
}

// LineTotal is price × qty.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          *primitive.ObjectID `bson:"userId" json:"-"`
	PaymentMethod   string              `bson:"paymentMethod" json:"paymentMethod"`
	TaxPrice        decimal.Decimal     `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice   decimal.Decimal     `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice      decimal.Decimal     `bson:"totalPrice" json:"totalPrice"`
	Status          string              `bson:"status" json:"status"`
	IsPaid          bool                `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time          `bson:"paidAt,omitempty" json:"paidAt"`
	IsDelivered     bool                `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time          `bson:"deliveredAt,omitempty" json:"deliveredAt"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	Items           []OrderItem         `bson:"items" json:"orderItems"`
	ShippingAddress ShippingAddress     `bson:"shippingAddress" json:"shippingAddress"`

	User *UserSummary `bson:"-" json:"user"`
}

// ItemsTotal sums every line of the order.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// PlacedBy reports whether userID is the customer who placed the order.
func (o *Order) PlacedBy(userID primitive.ObjectID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// SellerOrderLine is one order item of a vendor's product, flattened with the
// state of the order that contains it.
type SellerOrderLine struct {
	ID          primitive.ObjectID `json:"_id"`
	OrderID     primitive.ObjectID `json:"order_id"`
	Name        string             `json:"name"`
	Qty         int                `json:"qty"`
	Price       decimal.Decimal    `json:"price"`
	TotalPrice  decimal.Decimal    `json:"totalPrice"`
	CreatedAt   time.Time          `json:"createdAt"`
	IsPaid      bool               `json:"isPaid"`
	IsDelivered bool               `json:"isDelivered"`
}

// SalesPoint is one bar of the admin sales chart.
type SalesPoint struct {
	Name  string          `json:"name"`
	Sales decimal.Decimal `json:"sales"`
}

type DashboardStats struct {
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalOrders   int64           `json:"totalOrders"`
	TotalProducts int64           `json:"totalProducts"`
	TotalUsers    int64           `json:"totalUsers"`
	SalesChart    []SalesPoint    `json:"salesChart"`
}
