package main

import (
	"log"
	"net/http"
	"os"

	"table-order-api/config"
	"table-order-api/handlers"
	"table-order-api/jobs"
	"table-order-api/lifecycle"
	"table-order-api/momo"
	"table-order-api/notify"
	"table-order-api/payments"
	"table-order-api/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Set Gin mode
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	// Load environment and initialize database
	config.LoadEnv()
	config.InitDB()

	// Wire services: Redis broadcast, gateway client, order lifecycle,
	// payment reconciliation, cleanup sweeps
	rdb := notify.NewRedisClient(getEnv("REDIS_ADDR", "localhost:6379"))
	notifier := notify.NewRedisNotifier(rdb)

	gateway := momo.NewClient(config.LoadMomoConfig())
	orderSvc := lifecycle.NewService(config.DB, notifier)
	paymentRepo := payments.NewRepository(config.DB)
	paymentSvc := payments.NewService(paymentRepo, orderSvc, gateway, notifier)
	sweeper := jobs.NewSweeper(paymentRepo, orderSvc)
	handlers.Init(orderSvc, paymentSvc, sweeper)

	// Start both cleanup jobs on a minute cadence
	cronRunner := jobs.Schedule(sweeper)
	cronRunner.Start()
	defer cronRunner.Stop()

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Table Order API",
			"version": "1.0.0",
		})
	})

	// Register all routes
	routes.SetupRoutes(r)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Server running on http://localhost:%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
