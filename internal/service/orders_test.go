package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/events"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("prices lines, decrements stock and totals", func(t *testing.T) {
		f := newFixture()
		_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
		pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)
		book := f.addProduct("Book", "20.00", 1, models.ApprovalApproved, nil)
		discounted := f.store.products[book.ID]
		half := decimal.RequireFromString("3.00")
		discounted.DiscountPrice = &half
		f.store.products[book.ID] = discounted

		order, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{
			Items:         []OrderLine{{ProductID: pen.ID, Qty: 2}, {ProductID: book.ID, Qty: 2}},
			PaymentMethod: "PayPal",
			TaxPrice:      decimal.RequireFromString("1.00"),
			ShippingPrice: decimal.RequireFromString("0"),
		})
		require.NoError(t, err)

		assert.Equal(t, "27.00", order.TotalPrice.StringFixed(2))
		require.Len(t, order.Items, 2)
		assert.Equal(t, "3.00", order.Items[1].Price.StringFixed(2))
		assert.Equal(t, 3, f.store.products[pen.ID].CountInStock)
		assert.Equal(t, -1, f.store.products[book.ID].CountInStock, "stock has no floor")
		assert.Equal(t, models.OrderStatusPending, order.Status)

		stored := f.store.orders[order.ID]
		assert.True(t, stored.PlacedBy(buyer.UserID))
		assert.Equal(t, 1, f.observer.orders)
		assert.Equal(t, 1, f.cache.invalidations, "cached stock counts are stale")
		require.Len(t, f.events.events, 1)
		assert.Equal(t, events.OrderCreated, f.events.events[0].Type)
	})

	t.Run("keeps its snapshot when the product changes", func(t *testing.T) {
		f := newFixture()
		_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
		_, admin := f.addUser("admin@example.com", models.AccountCustomer, true)
		pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)
		withImage := f.store.products[pen.ID]
		withImage.Image = "/media/products/pen.png"
		f.store.products[pen.ID] = withImage

		order, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{
			Items:         []OrderLine{{ProductID: pen.ID, Qty: 2}},
			ShippingPrice: decimal.RequireFromString("5"),
			TaxPrice:      decimal.RequireFromString("1"),
		})
		require.NoError(t, err)
		placed := f.store.orders[order.ID]
		snapshot := append([]models.OrderItem(nil), placed.Items...)
		assert.Equal(t, "26.00", placed.TotalPrice.StringFixed(2))

		photo := memUpload("new.png", "png bytes")
		_, err = f.svc.Catalog.Update(ctx, admin, pen.ID, ProductInput{
			Name:          strPtr("Fountain Pen"),
			Price:         decPtr("99.00"),
			DiscountSet:   true,
			DiscountPrice: decPtr("80.00"),
			Image:         &photo,
		})
		require.NoError(t, err)
		require.Equal(t, "Fountain Pen", f.store.products[pen.ID].Name)

		stored := f.store.orders[order.ID]
		assert.Equal(t, snapshot, stored.Items)
		assert.Equal(t, "Pen", stored.Items[0].Name)
		assert.Equal(t, "10.00", stored.Items[0].Price.StringFixed(2))
		assert.Equal(t, "/media/products/pen.png", stored.Items[0].Image)
		assert.Equal(t, "26.00", stored.TotalPrice.StringFixed(2))

		reread, err := f.svc.Orders.Get(ctx, buyer, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "26.00", reread.TotalPrice.StringFixed(2))
		assert.Equal(t, "10.00", reread.Items[0].Price.StringFixed(2))
	})

	t.Run("rolls back when a product is missing", func(t *testing.T) {
		f := newFixture()
		_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
		pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

		_, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{
			Items: []OrderLine{{ProductID: pen.ID, Qty: 2}, {ProductID: primitive.NewObjectID(), Qty: 1}},
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Equal(t, 5, f.store.products[pen.ID].CountInStock)
		assert.Empty(t, f.store.orders)
		assert.Empty(t, f.events.events)
	})

	t.Run("validates input", func(t *testing.T) {
		f := newFixture()
		_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
		pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

		_, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{})
		assert.Equal(t, "No Order Items", apperr.Message(err))

		_, err = f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{Items: []OrderLine{{ProductID: pen.ID, Qty: 0}}})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = f.svc.Orders.Place(ctx, nil, PlaceOrderInput{Items: []OrderLine{{ProductID: pen.ID, Qty: 1}}})
		assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	})
}

func TestOrderVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
	seller, sellerP := f.addUser("seller@example.com", models.AccountVendor, false)
	_, stranger := f.addUser("stranger@example.com", models.AccountCustomer, false)
	_, admin := f.addUser("admin@example.com", models.AccountCustomer, true)
	lamp := f.addProduct("Lamp", "15.00", 3, models.ApprovalApproved, &seller.ID)

	order, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{Items: []OrderLine{{ProductID: lamp.ID, Qty: 1}}})
	require.NoError(t, err)

	got, err := f.svc.Orders.Get(ctx, buyer, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "buyer@example.com", got.User.Email)

	_, err = f.svc.Orders.Get(ctx, sellerP, order.ID)
	assert.NoError(t, err)
	_, err = f.svc.Orders.Get(ctx, admin, order.ID)
	assert.NoError(t, err)

	_, err = f.svc.Orders.Get(ctx, stranger, order.ID)
	assert.Equal(t, "Not authorized to view this order", apperr.Message(err))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestOrderStateTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
	_, other := f.addUser("other@example.com", models.AccountCustomer, false)
	_, admin := f.addUser("admin@example.com", models.AccountCustomer, true)
	pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

	order, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{Items: []OrderLine{{ProductID: pen.ID, Qty: 1}}})
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.svc.Orders.MarkPaid(ctx, other, order.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Orders.MarkPaid(ctx, buyer, order.ID))
	assert.True(t, f.store.orders[order.ID].IsPaid)
	assert.NotNil(t, f.store.orders[order.ID].PaidAt)

	assert.True(t, apperr.Is(f.svc.Orders.MarkDelivered(ctx, buyer, order.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Orders.MarkDelivered(ctx, admin, order.ID))
	assert.True(t, f.store.orders[order.ID].IsDelivered)

	assert.True(t, apperr.Is(f.svc.Orders.Delete(ctx, buyer, order.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Orders.Delete(ctx, admin, order.ID))
	assert.True(t, apperr.Is(f.svc.Orders.Delete(ctx, admin, order.ID), apperr.KindNotFound))
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
	_, admin := f.addUser("admin@example.com", models.AccountCustomer, true)
	pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

	first, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{Items: []OrderLine{{ProductID: pen.ID, Qty: 1}}})
	require.NoError(t, err)
	require.NoError(t, f.svc.Orders.MarkPaid(ctx, buyer, first.ID))
	f.tick()
	second, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{Items: []OrderLine{{ProductID: pen.ID, Qty: 2}}})
	require.NoError(t, err)
	require.NoError(t, f.store.RunInTx(ctx, func(ctx context.Context) error {
		return memOrders{f.store}.DetachUser(ctx, buyer.UserID)
	}))

	var buf bytes.Buffer
	require.NoError(t, f.svc.Orders.ExportCSV(ctx, admin, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Order ID,Customer,Date,Total Price,Paid?,Delivered?", lines[0])
	assert.Equal(t, second.ID.Hex()+",Guest,2024-03-01,20.00,No,No", lines[1])
	assert.Equal(t, first.ID.Hex()+",Guest,2024-03-01,10.00,Yes,No", lines[2])

	assert.True(t, apperr.Is(f.svc.Orders.ExportCSV(ctx, buyer, &buf), apperr.KindForbidden))
}

func TestExportCSVCustomerColumn(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, jane := f.addUser("jane@example.com", models.AccountCustomer, false)
	nameless, namelessP := f.addUser("nameless@example.com", models.AccountCustomer, false)
	_, admin := f.addUser("admin@example.com", models.AccountCustomer, true)
	u := f.store.users[nameless.ID]
	u.FirstName = ""
	f.store.users[nameless.ID] = u
	pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

	first, err := f.svc.Orders.Place(ctx, jane, PlaceOrderInput{Items: []OrderLine{{ProductID: pen.ID, Qty: 1}}})
	require.NoError(t, err)
	f.tick()
	second, err := f.svc.Orders.Place(ctx, namelessP, PlaceOrderInput{Items: []OrderLine{{ProductID: pen.ID, Qty: 1}}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Orders.ExportCSV(ctx, admin, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, second.ID.Hex()+",,2024-03-01,10.00,No,No", lines[1], "an empty first name stays empty")
	assert.Equal(t, first.ID.Hex()+",jane,2024-03-01,10.00,No,No", lines[2])
}

func TestSellerOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, buyer := f.addUser("buyer@example.com", models.AccountCustomer, false)
	seller, sellerP := f.addUser("seller@example.com", models.AccountVendor, false)
	lamp := f.addProduct("Lamp", "15.00", 3, models.ApprovalApproved, &seller.ID)
	pen := f.addProduct("Pen", "10.00", 5, models.ApprovalApproved, nil)

	_, err := f.svc.Orders.Place(ctx, buyer, PlaceOrderInput{
		Items: []OrderLine{{ProductID: lamp.ID, Qty: 2}, {ProductID: pen.ID, Qty: 1}},
	})
	require.NoError(t, err)

	lines, err := f.svc.Orders.SellerOrders(ctx, sellerP)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Lamp", lines[0].Name)
	assert.Equal(t, "30.00", lines[0].TotalPrice.StringFixed(2))

	_, err = f.svc.Orders.SellerOrders(ctx, buyer)
	assert.Equal(t, "Not authorized as a vendor", apperr.Message(err))
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
