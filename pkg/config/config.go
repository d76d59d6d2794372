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
	// Server configuration
	Port string
	Env  string

	// Remote bills API
	APIBaseURL string

	// Local store configuration. SQLite is the default; setting
	// DATABASE_URL or REDIS_URL switches the key-value backend.
	SQLitePath    string
	DatabaseURL   string
	RedisURL      string
	RedisPassword string

	// CORS
	AllowedOrigins []string

	// Background sync
	SyncEnabled  bool
	SyncInterval time.Duration
	SyncPageSize int
}

// Load loads configuration from the environment, reading a .env file
// first when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8090"),
		Env:            getEnv("ENV", "development"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:3000/api/v1"),
		SQLitePath:     getEnv("SQLITE_PATH", "moneynotes.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		AllowedOrigins: splitEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		SyncEnabled:    getEnvAsBool("SYNC_ENABLED", true),
		SyncInterval:   getEnvAsDuration("SYNC_INTERVAL", 30*time.Second),
		SyncPageSize:   getEnvAsInt("SYNC_PAGE_SIZE", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}

	if c.DatabaseURL == "" && c.RedisURL == "" && c.SQLitePath == "" {
		return fmt.Errorf("one of SQLITE_PATH, DATABASE_URL or REDIS_URL is required")
	}

	if c.SyncInterval < time.Second {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1s")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// splitEnv gets a comma-separated environment variable as a slice
func splitEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
