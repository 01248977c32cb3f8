package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
	"github.com/AmrIbrahim41/smart-shop/internal/service"
)

type orderItemRequest struct {
	ID  string `json:"id" binding:"required"`
	Qty int    `json:"qty"`
}

type orderRequest struct {
	OrderItems      []orderItemRequest     `json:"orderItems"`
	PaymentMethod   string                 `json:"paymentMethod" binding:"max=100"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	TaxPrice        decimal.Decimal        `json:"taxPrice"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice"`
}

/*
POST /orders/add
- prices come from the catalog, never from the body
- answers the new order id
*/
func AddOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/add"

		var req orderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, route, err)
			return
		}

		in := service.PlaceOrderInput{
			Items:           make([]service.OrderLine, 0, len(req.OrderItems)),
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: req.ShippingAddress,
			TaxPrice:        req.TaxPrice,
			ShippingPrice:   req.ShippingPrice,
		}
		for _, item := range req.OrderItems {
			id, err := parseObjectID(item.ID)
			if err != nil {
				respondWithError(c, route, apperr.NotFound("Product not found"))
				return
			}
			in.Items = append(in.Items, service.OrderLine{ProductID: id, Qty: item.Qty})
		}

		order, err := orders.Place(c.Request.Context(), middleware.Principal(c), in)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": order.ID.Hex()})
	}
}

func ListOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		list, err := orders.All(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func MyOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/myorders"
		list, err := orders.Mine(c.Request.Context(), middleware.Principal(c))
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// ExportOrdersCSV buffers the report so a failure halfway still gets a
// proper error response.
func ExportOrdersCSV(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/export/csv"
		var buf bytes.Buffer
		if err := orders.ExportCSV(c.Request.Context(), middleware.Principal(c), &buf); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="orders_report.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	}
}

func GetOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		id, ok := objectIDParam(c, "id", "Order not found")
		if !ok {
			return
		}
		order, err := orders.Get(c.Request.Context(), middleware.Principal(c), id)
		if err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func PayOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/pay"
		id, ok := objectIDParam(c, "id", "Order not found")
		if !ok {
			return
		}
		if err := orders.MarkPaid(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Order was paid")
	}
}

func DeliverOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/deliver"
		id, ok := objectIDParam(c, "id", "Order not found")
		if !ok {
			return
		}
		if err := orders.MarkDelivered(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Order was delivered")
	}
}

func DeleteOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /orders/delete/:id"
		id, ok := objectIDParam(c, "id", "Order not found")
		if !ok {
			return
		}
		if err := orders.Delete(c.Request.Context(), middleware.Principal(c), id); err != nil {
			respondWithError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, "Order was deleted")
	}
}
