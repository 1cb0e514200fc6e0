package routes

import (
	"table-order-api/handlers"
	"table-order-api/middleware"
	"table-order-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Menu (no auth needed — guests browse after scanning the table QR)
		public.GET("/menu", handlers.GetMenu)

		// Guest ordering: anonymous guests hold their order ids client-side
		public.POST("/orders", middleware.OptionalAuth(), handlers.CreateOrder)
		public.GET("/orders/:id", handlers.GetOrder)
		public.GET("/orders/:id/payment", handlers.GetOrderPayment)

		// Wallet payment flow
		public.POST("/payments/momo", handlers.CreateMomoPayment)
		public.POST("/payments/momo/callback", handlers.MomoCallback)
		public.GET("/payments/momo/redirect", handlers.MomoRedirect)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
		auth.GET("/my/orders", handlers.GetMyOrders)
	}

	// ── Waiter routes ──────────────────────────────────────────────
	waiter := r.Group("/api/waiter")
	waiter.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleWaiter, models.RoleAdmin))
	{
		waiter.GET("/orders", handlers.ListOrders)
		waiter.PUT("/orders/:id/accept", handlers.AcceptOrder)
		waiter.PUT("/orders/:id/reject", handlers.RejectOrder)
		waiter.PUT("/orders/:id/send-to-kitchen", handlers.SendToKitchen)
		waiter.PUT("/orders/:id/serve", handlers.ServeOrder)
		waiter.PUT("/orders/:id/complete", handlers.CompleteOrder)
		waiter.POST("/payments/direct", handlers.RecordDirectPayment)
	}

	// ── Kitchen routes ─────────────────────────────────────────────
	kitchen := r.Group("/api/kitchen")
	kitchen.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleKitchen, models.RoleAdmin))
	{
		kitchen.GET("/orders", handlers.ListOrders)
		kitchen.PUT("/orders/:id/preparing", handlers.StartPreparing)
		kitchen.PUT("/orders/:id/ready", handlers.MarkReady)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/orders", handlers.AdminGetAllOrders)
		admin.PUT("/orders/:id/status", handlers.AdminForceOrderStatus)
		admin.GET("/users", handlers.AdminGetAllUsers)
		admin.POST("/menu", handlers.AddMenuItem)
		admin.PUT("/menu/:itemId", handlers.UpdateMenuItem)
		admin.POST("/cleanup/run", handlers.AdminRunCleanup)
		admin.GET("/payments/momo/query", handlers.QueryMomoPayment)
	}
}
