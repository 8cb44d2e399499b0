package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	CORS           CORSConfig
	Logging        LoggingConfig
	Prices         PriceConfig
	Yahoo          YahooConfig
	Reconciliation ReconciliationConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Pretty bool
}

// PriceConfig controls the security price cache.
type PriceConfig struct {
	// TTL is how long a fetched price may be served without asking the provider again.
	TTL time.Duration
	// RefreshSchedule is a cron expression for the stale price refresh job.
	// An empty schedule disables the job.
	RefreshSchedule string
	// RefreshConcurrency bounds the number of provider calls in flight during a batch refresh.
	RefreshConcurrency int
}

// YahooConfig holds market-data provider settings.
type YahooConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ReconciliationConfig controls holding recomputation.
type ReconciliationConfig struct {
	// MaxAttempts is how many times a replay is retried after losing an optimistic write.
	MaxAttempts int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	priceTTL, err := getEnvDuration("PRICE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	yahooTimeout, err := getEnvDuration("YAHOO_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	refreshConcurrency, err := getEnvInt("PRICE_REFRESH_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getEnvInt("RECONCILE_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	pretty, err := strconv.ParseBool(getEnv("LOG_PRETTY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/personal_finance.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost"), ","),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: pretty,
		},
		Prices: PriceConfig{
			TTL:                priceTTL,
			RefreshSchedule:    os.Getenv("PRICE_REFRESH_SCHEDULE"),
			RefreshConcurrency: refreshConcurrency,
		},
		Yahoo: YahooConfig{
			BaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout: yahooTimeout,
		},
		Reconciliation: ReconciliationConfig{
			MaxAttempts: maxAttempts,
		},
	}

	if config.Prices.TTL <= 0 {
		return nil, fmt.Errorf("PRICE_TTL must be positive, got %s", config.Prices.TTL)
	}
	if config.Prices.RefreshConcurrency < 1 {
		return nil, fmt.Errorf("PRICE_REFRESH_CONCURRENCY must be at least 1, got %d", config.Prices.RefreshConcurrency)
	}
	if config.Reconciliation.MaxAttempts < 1 {
		return nil, fmt.Errorf("RECONCILE_MAX_ATTEMPTS must be at least 1, got %d", config.Reconciliation.MaxAttempts)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
