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
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Market   MarketConfig
	Refresh  RefreshConfig
	Upload   UploadConfig
	APIKey   string
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

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// MarketConfig holds market data source and quote cache configuration.
type MarketConfig struct {
	YahooBaseURL          string
	GoogleBaseURL         string
	GoogleDefaultExchange string
	HTTPTimeout           time.Duration
	CacheTTL              time.Duration
	CacheRetention        time.Duration
	RequestDelay          time.Duration
}

// RefreshConfig holds the periodic refresh configuration.
type RefreshConfig struct {
	Interval time.Duration
	Enabled  bool
}

// UploadConfig holds upload validation and archive configuration.
type UploadConfig struct {
	MaxBytes      int64
	Retention     time.Duration
	EncryptionKey string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getBool("LOG_PRETTY", true),
		},
		Market: MarketConfig{
			YahooBaseURL:          getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			GoogleBaseURL:         getEnv("GOOGLE_FINANCE_BASE_URL", "https://www.google.com/finance"),
			GoogleDefaultExchange: getEnv("GOOGLE_DEFAULT_EXCHANGE", "NSE"),
			HTTPTimeout:           getDuration("MARKET_HTTP_TIMEOUT", 10*time.Second),
			CacheTTL:              getDuration("QUOTE_CACHE_TTL", 15*time.Second),
			CacheRetention:        getDuration("QUOTE_CACHE_RETENTION", 10*time.Minute),
			RequestDelay:          getDuration("QUOTE_REQUEST_DELAY", 200*time.Millisecond),
		},
		Refresh: RefreshConfig{
			Interval: getDuration("REFRESH_INTERVAL", 15*time.Second),
			Enabled:  getBool("REFRESH_ENABLED", true),
		},
		Upload: UploadConfig{
			MaxBytes:      getInt64("UPLOAD_MAX_BYTES", 10<<20),
			Retention:     getDuration("UPLOAD_RETENTION", 24*time.Hour),
			EncryptionKey: os.Getenv("UPLOAD_ENCRYPTION_KEY"),
		},
		APIKey: os.Getenv("API_KEY"),
	}

	if config.Refresh.Interval < time.Second {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be at least 1s, got %s", config.Refresh.Interval)
	}
	if config.Market.CacheRetention < config.Market.CacheTTL {
		config.Market.CacheRetention = config.Market.CacheTTL
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

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt64(key string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
