package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go-invoice-ws/internal/logger"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Invoice   InvoiceConfig
	Inventory InventoryConfig
	Kafka     KafkaConfig
	Bootstrap BootstrapConfig

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// AppConfig holds HTTP server settings
type AppConfig struct {
	Name string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
	Debug    bool
}

type AuthConfig struct {
	JWTSecret   string
	JWTTTLHours int
	// SessionIdleMinutes logs a user out when no heartbeat arrived for this long; 0 disables the check.
	SessionIdleMinutes int
}

type InvoiceConfig struct {
	// DefaultTaxRate is the combined GST percentage applied when an invoice does not carry its own.
	DefaultTaxRate decimal.Decimal
}

type InventoryConfig struct {
	LowStockThreshold    int
	ReconcileConcurrency int
}

// KafkaConfig is optional; an empty broker list disables the Kafka publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// BootstrapConfig describes the admin account seeded into an empty database
type BootstrapConfig struct {
	AdminEmail      string
	AdminPassword   string
	AdminName       string
	BusinessName    string
	BusinessAddress string
	BusinessTaxID   string
	BusinessContact string
}

// Load reads configuration from environment variables.
// Call godotenv.Load() beforehand if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "Invoice & Inventory Admin v1.0"),
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "invoicing"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "Asia/Kolkata"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			JWTTTLHours:        getEnvInt("JWT_TTL_HOURS", 24),
			SessionIdleMinutes: getEnvInt("SESSION_IDLE_MINUTES", 30),
		},
		Inventory: InventoryConfig{
			LowStockThreshold:    getEnvInt("LOW_STOCK_THRESHOLD", 10),
			ReconcileConcurrency: getEnvInt("RECONCILE_CONCURRENCY", 4),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "inventory-events"),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:      getEnv("ADMIN_EMAIL", "admin@example.com"),
			AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
			AdminName:       getEnv("ADMIN_NAME", "Administrator"),
			BusinessName:    getEnv("BUSINESS_NAME", "My Business"),
			BusinessAddress: getEnv("BUSINESS_ADDRESS", ""),
			BusinessTaxID:   getEnv("BUSINESS_TAX_ID", ""),
			BusinessContact: getEnv("BUSINESS_CONTACT", ""),
		},
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}

	rate, err := decimal.NewFromString(getEnv("DEFAULT_TAX_RATE", "18"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE: %w", err)
	}
	cfg.Invoice.DefaultTaxRate = rate

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Auth.JWTTTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if c.Auth.SessionIdleMinutes < 0 {
		return fmt.Errorf("SESSION_IDLE_MINUTES must not be negative")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.Inventory.ReconcileConcurrency <= 0 {
		return fmt.Errorf("RECONCILE_CONCURRENCY must be positive")
	}
	if c.Invoice.DefaultTaxRate.IsNegative() || c.Invoice.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("DEFAULT_TAX_RATE must be between 0 and 100")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// GetDSN returns the database connection string, preferring DATABASE_URL when set
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode, c.TimeZone)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
