package config

import (
	"log"
	"os"
	"strings"

	"table-order-api/models"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "table_order_super_secret_2024"))

// MomoConfig holds the wallet gateway settings, all environment-sourced.
type MomoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RequestType string
	RedirectURL string
	IpnURL      string
	OrderInfo   string
	ExtraData   string
	AutoCapture bool
	Lang        string
}

// LoadEnv reads a .env file if present; real env vars always win.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded settings from .env")
	}
}

// LoadMomoConfig builds the gateway config from the environment. A tunnel
// base URL (e.g. an ngrok host during development) rewrites the redirect
// and IPN URLs so the gateway can reach a local instance.
func LoadMomoConfig() MomoConfig {
	cfg := MomoConfig{
		PartnerCode: getEnv("MOMO_PARTNER_CODE", "MOMO"),
		AccessKey:   getEnv("MOMO_ACCESS_KEY", ""),
		SecretKey:   getEnv("MOMO_SECRET_KEY", ""),
		Endpoint:    getEnv("MOMO_ENDPOINT", "https://test-payment.momo.vn"),
		RequestType: getEnv("MOMO_REQUEST_TYPE", "captureWallet"),
		RedirectURL: getEnv("MOMO_REDIRECT_URL", "http://localhost:8080/api/payments/momo/redirect"),
		IpnURL:      getEnv("MOMO_IPN_URL", "http://localhost:8080/api/payments/momo/callback"),
		OrderInfo:   getEnv("MOMO_ORDER_INFO", "Thanh toan don hang"),
		ExtraData:   getEnv("MOMO_EXTRA_DATA", ""),
		AutoCapture: getEnv("MOMO_AUTO_CAPTURE", "true") == "true",
		Lang:        getEnv("MOMO_LANG", "vi"),
	}
	if tunnel := os.Getenv("TUNNEL_BASE_URL"); tunnel != "" {
		tunnel = strings.TrimRight(tunnel, "/")
		cfg.RedirectURL = tunnel + "/api/payments/momo/redirect"
		cfg.IpnURL = tunnel + "/api/payments/momo/callback"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	var err error
	dbPath := getEnv("DB_PATH", "table_order.db")
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}
