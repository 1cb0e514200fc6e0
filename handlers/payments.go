package handlers

import (
	"errors"
	"io"
	"net/http"

	"table-order-api/lifecycle"
	"table-order-api/models"
	"table-order-api/momo"
	"table-order-api/payments"

	"github.com/gin-gonic/gin"
)

type CreateMomoPaymentRequest struct {
	OrderID string  `json:"order_id" binding:"required,uuid"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
}

// CreateMomoPayment opens a wallet payment intent; the response carries the
// gateway pay URL the client redirects the guest to.
func CreateMomoPayment(c *gin.Context) {
	var req CreateMomoPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := Payments.CreateMomoPayment(c.Request.Context(), req.OrderID, req.Amount)
	if err != nil {
		if errors.Is(err, lifecycle.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create payment"})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// MomoCallback receives the gateway's IPN. The gateway retries until it
// gets HTTP 2xx, so every outcome past signature verification and payment
// lookup acknowledges with 200.
func MomoCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable callback body"})
		return
	}
	payload, err := momo.ParseCallback(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := Payments.HandleCallback(c.Request.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, momo.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		case errors.Is(err, payments.ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No payment for this order"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply callback"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// MomoRedirect renders the advisory confirmation page after the gateway
// sends the guest's browser back. Settlement truth only ever comes from
// the IPN callback; this page can be spoofed or never loaded.
func MomoRedirect(c *gin.Context) {
	resultCode := c.Query("resultCode")
	orderID := c.Query("orderId")

	heading := "Thanh toán thất bại"
	detail := "Đơn hàng " + orderID + " chưa được thanh toán. Vui lòng thử lại."
	if resultCode == "0" {
		heading = "Thanh toán thành công"
		detail = "Đơn hàng " + orderID + " đang được xác nhận. Bạn có thể đóng trang này."
	}
	html := "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>" + heading +
		"</title></head><body><h1>" + heading + "</h1><p>" + detail + "</p></body></html>"
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// QueryMomoPayment asks the gateway for a payment's current state —
// support tooling, not part of the automatic flow.
func QueryMomoPayment(c *gin.Context) {
	orderID := c.Query("orderId")
	requestID := c.Query("requestId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}
	if requestID == "" {
		requestID = orderID
	}
	resp, err := Payments.QueryMomoPayment(orderID, requestID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to query payment"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrderPayment returns the active payment for an order
func GetOrderPayment(c *gin.Context) {
	payment, err := Payments.GetByOrderID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No payment for this order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

type DirectPaymentRequest struct {
	OrderID string               `json:"order_id" binding:"required,uuid"`
	Amount  float64              `json:"amount" binding:"required,gt=0"`
	Method  models.PaymentMethod `json:"method" binding:"required,oneof=cash bank"`
}

// RecordDirectPayment lets a waiter settle a cash or bank payment taken at
// the table.
func RecordDirectPayment(c *gin.Context) {
	var req DirectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payment, err := Payments.RecordDirectPayment(c.Request.Context(), req.OrderID, req.Amount, req.Method)
	if err != nil {
		if errors.Is(err, lifecycle.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}
