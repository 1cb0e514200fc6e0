package handlers

import (
	"context"
	"net/http"
	"time"

	"table-order-api/config"
	"table-order-api/jobs"
	"table-order-api/middleware"
	"table-order-api/models"

	"github.com/gin-gonic/gin"
)

// AdminGetAllOrders returns all orders with full detail — admin only
func AdminGetAllOrders(c *gin.Context) {
	var orders []models.Order
	query := config.DB.Preload("Items.MenuItem").Preload("User").Preload("Payments")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if tableID := c.Query("table_id"); tableID != "" {
		query = query.Where("table_id = ?", tableID)
	}

	query.Order("created_at desc").Find(&orders)

	// Dashboard: aggregate by status
	summary := map[string]int{}
	var totalRevenue float64
	for _, o := range orders {
		summary[string(o.Status)]++
		if o.Status == models.StatusCompleted {
			totalRevenue += o.TotalAmount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_revenue": totalRevenue,
		"count":         len(orders),
		"orders":        orders,
	})
}

// AdminForceOrderStatus lets admin override any order state (emergency use)
func AdminForceOrderStatus(c *gin.Context) {
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
		Reason string             `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := Orders.UpdateStatus(c.Request.Context(), c.Param("id"),
		req.Status, "[ADMIN OVERRIDE] "+req.Reason)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Order status force-updated by admin",
		"order_id":   order.ID,
		"new_status": order.Status,
		"changed_by": middleware.GetUserID(c),
	})
}

// AdminRunCleanup triggers both sweeps immediately instead of waiting for
// the next cron tick.
func AdminRunCleanup(c *gin.Context) {
	ctx := context.Background()
	expired := Sweeper.HandlePaymentTimeout(ctx, jobs.DefaultPaymentTimeout)
	cancelled := Sweeper.CancelOrdersWithExpiredPayments(ctx, jobs.DefaultCancelDelay)
	c.JSON(http.StatusOK, gin.H{
		"expired_payments": expired,
		"cancelled_orders": cancelled,
		"ran_at":           time.Now(),
	})
}

// AdminGetAllUsers returns all users — admin only
func AdminGetAllUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}
