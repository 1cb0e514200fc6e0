package handlers

import (
	"errors"
	"net/http"

	"table-order-api/lifecycle"
	"table-order-api/middleware"
	"table-order-api/models"
	"table-order-api/statemachine"

	"github.com/gin-gonic/gin"
)

// CreateOrder places a new table order. Works for anonymous guests; an
// authenticated guest gets the order attached to their account.
func CreateOrder(c *gin.Context) {
	var req lifecycle.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := Orders.Create(c.Request.Context(), req, middleware.OptionalUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrInvalidOrderID):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, lifecycle.ErrOrderExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, lifecycle.ErrMenuItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetOrder returns one order by id. Anonymous guests track their orders
// with the client-held id.
func GetOrder(c *gin.Context) {
	order, err := Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetMyOrders returns the logged-in guest's order history
func GetMyOrders(c *gin.Context) {
	userID := middleware.GetUserID(c)
	orders, err := Orders.FindByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// ListOrders returns the staff dashboard view, optionally filtered by status
func ListOrders(c *gin.Context) {
	orders, err := Orders.ListByStatus(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

type transitionNote struct {
	Note string `json:"note"`
}

// transition runs one guarded state-machine step for the calling actor.
func transition(c *gin.Context, to models.OrderStatus, actor string, defaultNote string) {
	var req transitionNote
	_ = c.ShouldBindJSON(&req)
	if req.Note == "" {
		req.Note = defaultNote
	}

	order, err := Orders.Transition(c.Request.Context(), c.Param("id"), to, actor, middleware.GetUserID(c), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, lifecycle.ErrInvalidTransition):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "Invalid state transition",
				"reason": err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Order status updated",
		"order_id":       order.ID,
		"current_status": order.Status,
	})
}

// Waiter actions

func AcceptOrder(c *gin.Context) {
	transition(c, models.StatusAccepted, "waiter", "Accepted by waiter")
}
func RejectOrder(c *gin.Context) {
	transition(c, models.StatusRejected, "waiter", "Rejected by waiter")
}
func SendToKitchen(c *gin.Context) {
	transition(c, models.StatusPreparing, "waiter", "Sent to kitchen")
}
func ServeOrder(c *gin.Context)    { transition(c, models.StatusServed, "waiter", "Served to table") }
func CompleteOrder(c *gin.Context) { transition(c, models.StatusCompleted, "waiter", "Order closed") }

// Kitchen actions

func StartPreparing(c *gin.Context) {
	transition(c, models.StatusPreparing, "kitchen", "Kitchen started preparing")
}
func MarkReady(c *gin.Context) { transition(c, models.StatusReady, "kitchen", "Ready for serving") }

// GetStateMachineInfo documents the full transition table
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"transitions": statemachine.GetAllTransitions(),
	})
}
