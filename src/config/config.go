package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Upload limits
	MaxUploadSizeBytes int64

	// Reconciliation parameters. These are business inputs, not code:
	// the tolerance and thresholds differ per engagement and must be
	// supplied by configuration.
	UnpaidPurchaseThreshold decimal.Decimal
	TotalMismatchTolerance  decimal.Decimal
	BadDebtAgeDays          int
	DailyInterestRate       decimal.Decimal

	// VAT filing defaults
	DefaultCadence string
	DefaultBasis   string
	KnownVATRates  []decimal.Decimal

	// Report cache
	ReportCacheExpiry time.Duration
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./vatreview.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Uploads
		MaxUploadSizeBytes: maxUploadSizeBytes,

		// Reconciliation
		UnpaidPurchaseThreshold: getEnvAsDecimal("UNPAID_PURCHASE_THRESHOLD", "100"),
		TotalMismatchTolerance:  getEnvAsDecimal("TOTAL_MISMATCH_TOLERANCE", "1"),
		BadDebtAgeDays:          getEnvAsInt("BAD_DEBT_AGE_DAYS", 180),
		DailyInterestRate:       getEnvAsDecimal("DAILY_INTEREST_RATE", "0.000219"),

		// VAT defaults. Irish rate set by default; override per engagement.
		DefaultCadence: getEnv("DEFAULT_VAT_CADENCE", "bimonthly"),
		DefaultBasis:   getEnv("DEFAULT_VAT_BASIS", "accrual"),
		KnownVATRates:  getEnvAsDecimalList("KNOWN_VAT_RATES", "23,13.5,9,4.8,0"),

		// Cache
		ReportCacheExpiry: getEnvAsDuration("REPORT_CACHE_EXPIRY", 15*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, Cadence=%s, Basis=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.DefaultCadence, Cfg.DefaultBasis)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsDecimal retrieves an environment variable as a decimal or falls back
// to the given default string, which must itself parse.
func getEnvAsDecimal(key, fallback string) decimal.Decimal {
	valueStr := getEnv(key, fallback)
	if value, err := decimal.NewFromString(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	log.Printf("Invalid decimal value for %s ('%s'), using default: %s", key, valueStr, fallback)
	value, err := decimal.NewFromString(fallback)
	if err != nil {
		log.Fatalf("FATAL: default value for %s is not a valid decimal: %s", key, fallback)
	}
	return value
}

// getEnvAsDecimalList parses a comma-separated list of decimals. Entries that
// fail to parse are skipped with a warning.
func getEnvAsDecimalList(key, fallback string) []decimal.Decimal {
	valueStr := getEnv(key, fallback)
	parts := strings.Split(valueStr, ",")
	values := make([]decimal.Decimal, 0, len(parts))
	for _, part := range parts {
		value, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			log.Printf("Invalid decimal entry for %s ('%s'), skipping", key, part)
			continue
		}
		values = append(values, value)
	}
	return values
}
