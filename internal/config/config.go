// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Finatrades/finatradesgold-sub015/pkg/db"
)

// OracleConfig configures the gold spot price source. When FeedURL is empty
// the service falls back to the static price, which is only meant for local
// development and tests.
type OracleConfig struct {
	FeedURL        string
	FeedTimeout    time.Duration
	CacheTTL       time.Duration
	StaticPriceUsd decimal.Decimal
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	Oracle     OracleConfig
}

// LoadConfig loads configuration from environment variables, reading a .env
// file first when one is present.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	serverPort := getEnv("SERVER_PORT", "8080")

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	feedTimeout, err := time.ParseDuration(getEnv("GOLD_PRICE_FEED_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GOLD_PRICE_FEED_TIMEOUT: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("GOLD_PRICE_CACHE_TTL", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GOLD_PRICE_CACHE_TTL: %w", err)
	}
	staticPrice, err := decimal.NewFromString(getEnv("GOLD_PRICE_STATIC_USD", "75.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid GOLD_PRICE_STATIC_USD: %w", err)
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "goldledgerdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Oracle: OracleConfig{
			FeedURL:        os.Getenv("GOLD_PRICE_FEED_URL"),
			FeedTimeout:    feedTimeout,
			CacheTTL:       cacheTTL,
			StaticPriceUsd: staticPrice,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
