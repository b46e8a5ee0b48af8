package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port     string
	Store    string
	DBConn   string
	LogLevel string

	JWTSecret string
	TokenTTL  time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	GeminiAPIKey string
	GeminiModel  string

	BudgetAlertCron      string
	RecurringCron        string
	MonthlyReportCron    string
	BudgetAlertThreshold decimal.Decimal
	JobMaxAttempts       int
	RecurringPerMinute   int

	RateLimitPerHour int
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Store:    getEnv("STORE", StorePostgres),
		DBConn:   getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=finix sslmode=disable"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "Finix <noreply@finix.local>"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		BudgetAlertCron:   getEnv("BUDGET_ALERT_CRON", "0 */4 * * *"),
		RecurringCron:     getEnv("RECURRING_CRON", "0 0 * * *"),
		MonthlyReportCron: getEnv("MONTHLY_REPORT_CRON", "0 0 1 * *"),
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.BudgetAlertThreshold, err = decimal.NewFromString(getEnv("BUDGET_ALERT_THRESHOLD", "85")); err != nil {
		return nil, fmt.Errorf("invalid BUDGET_ALERT_THRESHOLD: %w", err)
	}
	if cfg.JobMaxAttempts, err = getEnvInt("JOB_MAX_ATTEMPTS", 2); err != nil {
		return nil, err
	}
	if cfg.RecurringPerMinute, err = getEnvInt("RECURRING_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerHour, err = getEnvInt("RATE_LIMIT_PER_HOUR", 15); err != nil {
		return nil, err
	}

	if cfg.Store != StorePostgres && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}
	if cfg.Store == StorePostgres && cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.RecurringPerMinute <= 0 || cfg.RateLimitPerHour <= 0 {
		return nil, fmt.Errorf("RECURRING_PER_MINUTE and RATE_LIMIT_PER_HOUR must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
