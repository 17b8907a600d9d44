// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	LogLevel string
	LogFile  string // Optional log file path (rotation enabled when set)
	DevMode  bool

	// Authorization policy: only these emails may establish a session.
	// Injected configuration rather than a compiled-in constant.
	AuthorizedEmails []string

	// Google OAuth credentials for the authorization-code exchange
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SessionTTL time.Duration

	// Trading defaults used when a request omits them
	DefaultPremium float64 // Credit per contract, reference 1.75
	DefaultFee     float64 // Commission per contract
	SpreadWidth    float64 // Strike distance between short and long legs

	// Optional YAML file overriding the embedded matrix reference tables
	MatrixTablesPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CONDOR_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8080),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		AuthorizedEmails:   splitList(getEnv("AUTHORIZED_EMAILS", "")),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		SessionTTL:         time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 72)) * time.Hour,
		DefaultPremium:     getEnvAsFloat("DEFAULT_PREMIUM", 1.75),
		DefaultFee:         getEnvAsFloat("DEFAULT_FEE_PER_CONTRACT", 6.56),
		SpreadWidth:        getEnvAsFloat("SPREAD_WIDTH", 5),
		MatrixTablesPath:   getEnv("MATRIX_TABLES_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.SpreadWidth <= 0 {
		return fmt.Errorf("spread width must be positive, got %v", c.SpreadWidth)
	}
	if c.DefaultPremium <= 0 {
		return fmt.Errorf("default premium must be positive, got %v", c.DefaultPremium)
	}
	// OAuth credentials optional: without them only the session-validation
	// endpoints work, which is enough for local development.
	return nil
}

// IsAuthorized reports whether the email is on the allowlist.
// Comparison is case-insensitive; an empty allowlist authorizes nobody.
func (c *Config) IsAuthorized(email string) bool {
	for _, allowed := range c.AuthorizedEmails {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
