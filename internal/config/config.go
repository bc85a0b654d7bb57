package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port           string
	AllowedOrigins string
	SessionTTL     time.Duration

	// Logging
	LogLevel string

	// Smart-pantry backend
	BackendURL     string
	BackendTimeout time.Duration
	PantryToken    string

	// JWT
	JWTSecret string

	// Cache
	CacheDriver    string
	CachePath      string
	DatabaseURL    string
	CacheRetention time.Duration

	// Shopping list
	CategoriesFile     string
	PlaceholderOnEmpty bool

	// Environment
	Environment string

	// S3/Garage Storage
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3UseSSL        bool
	S3Region        string
	ExportURLExpiry time.Duration
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		SessionTTL:         getDurationEnv("SESSION_TTL_MINUTES", 30) * time.Minute,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendTimeout:     getDurationEnv("BACKEND_TIMEOUT_SECONDS", 15) * time.Second,
		PantryToken:        getEnv("PANTRY_TOKEN", ""),
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production-please"),
		CacheDriver:        getEnv("CACHE_DRIVER", "memory"),
		CachePath:          getEnv("CACHE_PATH", defaultCachePath()),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CacheRetention:     getDurationEnv("CACHE_RETENTION_DAYS", 30) * 24 * time.Hour,
		CategoriesFile:     getEnv("CATEGORIES_FILE", ""),
		PlaceholderOnEmpty: getBoolEnv("PLACEHOLDER_ON_EMPTY", true),
		Environment:        getEnv("ENVIRONMENT", "development"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		S3Bucket:           getEnv("S3_BUCKET", "shopping-lists"),
		S3UseSSL:           getBoolEnv("S3_USE_SSL", false),
		S3Region:           getEnv("S3_REGION", "garage"),
		ExportURLExpiry:    getDurationEnv("EXPORT_URL_EXPIRY_HOURS", 24) * time.Hour,
	}
}

// defaultCachePath is the CLI's cache file under the user cache directory
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "smart-pantry", "cache.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// StorageEnabled reports whether S3 export is configured
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
