package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data provider
	Invest InvestConfig

	// Reference data cache
	Cache CacheConfig

	// Valuation
	Valuation ValuationConfig

	// Optional storage backends
	Database DatabaseConfig
	Redis    RedisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// InvestConfig holds Invest API configuration
type InvestConfig struct {
	Token          string
	BaseURL        string
	OrderBookDepth int
	// ForceLastPrice skips order-book quoting even when the market is open
	ForceLastPrice bool
	// RateLimit is the max provider requests per second
	RateLimit float64
}

// CacheConfig holds reference data cache configuration
type CacheConfig struct {
	Backend     string // file, memory, postgres, redis
	Dir         string // file backend only
	TTL         time.Duration
	FiltersFile string
}

// ValuationConfig holds the valuation model parameters
type ValuationConfig struct {
	// DiscountRate is the annual discount rate in percent
	DiscountRate int
	// TaxFactor grosses the raw dividend up to a pre-tax equivalent
	TaxFactor string
}

// DatabaseConfig holds PostgreSQL configuration (postgres cache backend)
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration (redis cache backend)
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		Invest: InvestConfig{
			Token:          getEnv("INVEST_TOKEN", ""),
			BaseURL:        getEnv("INVEST_BASE_URL", "https://invest-public-api.tbank.ru/rest"),
			OrderBookDepth: getEnvAsInt("ORDERBOOK_DEPTH", 1),
			ForceLastPrice: getEnvAsBool("FORCE_LAST_PRICE", false),
			RateLimit:      getEnvAsFloat("INVEST_RATE_LIMIT", 50),
		},

		Cache: CacheConfig{
			Backend:     getEnv("STORAGE_BACKEND", "file"),
			Dir:         getEnv("CACHE_DIR", "data"),
			TTL:         getEnvAsDuration("CACHE_TTL", "24h"),
			FiltersFile: getEnv("FILTERS_FILE", "config/filters.yaml"),
		},

		Valuation: ValuationConfig{
			DiscountRate: getEnvAsInt("DISCOUNT_RATE", 16),
			TaxFactor:    getEnv("TAX_FACTOR", "0.87"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "file", "memory", "redis":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres cache backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: file, memory, postgres, redis")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Valuation.DiscountRate <= 0 {
		return fmt.Errorf("DISCOUNT_RATE must be positive")
	}

	if c.Invest.OrderBookDepth < 1 {
		return fmt.Errorf("ORDERBOOK_DEPTH must be at least 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
