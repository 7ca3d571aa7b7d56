package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Gateway  GatewayConfig
	Pricing  PricingConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	S3       S3Config
	Archive  ArchiveConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration for the admin API.
type AuthConfig struct {
	APIKey string
}

// GatewayConfig holds payment gateway credentials and endpoints.
// KeyID is publishable; KeySecret and WebhookSecret never leave the server.
type GatewayConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Timeout       int // seconds
}

// PricingConfig holds the single canonical pricing configuration.
type PricingConfig struct {
	Currency              string
	TaxRate               string
	FreeShippingThreshold string
	FlatShippingFee       string
}

// RedisConfig holds cart persistence configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CartTTL  int // minutes
}

// KafkaConfig holds order event publishing configuration.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// S3Config holds AWS S3 configuration for the payment evidence archive.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "payment-evidence/")
}

// ArchiveConfig holds the local payment evidence directory.
type ArchiveConfig struct {
	Dir string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: LoadDatabase(),
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Gateway: GatewayConfig{
			BaseURL:       getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:         getEnv("GATEWAY_KEY_ID", ""),
			KeySecret:     getEnv("GATEWAY_KEY_SECRET", ""),
			WebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
			Timeout:       getEnvAsInt("GATEWAY_TIMEOUT", 10),
		},
		Pricing: PricingConfig{
			Currency:              getEnv("PRICING_CURRENCY", "INR"),
			TaxRate:               getEnv("PRICING_TAX_RATE", "0.08"),
			FreeShippingThreshold: getEnv("PRICING_FREE_SHIPPING_THRESHOLD", "10000"),
			FlatShippingFee:       getEnv("PRICING_FLAT_SHIPPING_FEE", "100"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CartTTL:  getEnvAsInt("REDIS_CART_TTL_MINUTES", 7*24*60),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_ORDER_PAID_TOPIC", "order.paid"),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "ap-south-1"),
			Prefix:  getEnv("S3_PREFIX", "payment-evidence/"),
		},
		Archive: ArchiveConfig{
			Dir: getEnv("ARCHIVE_DIR", "data/payment-evidence"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase loads only the database settings. Tools that just need a
// connection, such as the migrator, use it without the full configuration.
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "storefront"),
		MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
		MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
		MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if err := c.Gateway.validate(); err != nil {
		return err
	}

	if _, err := c.Pricing.Parse(); err != nil {
		return err
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

func (g *GatewayConfig) validate() error {
	if g.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}
	if g.KeyID == "" || g.KeySecret == "" {
		return fmt.Errorf("gateway key id and key secret are required")
	}
	if g.WebhookSecret == "" {
		return fmt.Errorf("gateway webhook secret is required")
	}
	if g.WebhookSecret == g.KeySecret {
		return fmt.Errorf("gateway webhook secret must differ from the key secret")
	}
	if g.Timeout < 1 {
		return fmt.Errorf("gateway timeout must be at least 1 second")
	}
	return nil
}

// Pricing is the parsed form of PricingConfig.
type Pricing struct {
	Currency              string
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// Parse converts the textual pricing configuration into decimals.
func (p *PricingConfig) Parse() (Pricing, error) {
	if p.Currency == "" {
		return Pricing{}, fmt.Errorf("pricing currency is required")
	}

	taxRate, err := decimal.NewFromString(p.TaxRate)
	if err != nil || taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Pricing{}, fmt.Errorf("invalid tax rate: %q", p.TaxRate)
	}

	threshold, err := decimal.NewFromString(p.FreeShippingThreshold)
	if err != nil || threshold.IsNegative() {
		return Pricing{}, fmt.Errorf("invalid free shipping threshold: %q", p.FreeShippingThreshold)
	}

	fee, err := decimal.NewFromString(p.FlatShippingFee)
	if err != nil || fee.IsNegative() {
		return Pricing{}, fmt.Errorf("invalid flat shipping fee: %q", p.FlatShippingFee)
	}

	return Pricing{
		Currency:              strings.ToUpper(p.Currency),
		TaxRate:               taxRate,
		FreeShippingThreshold: threshold,
		FlatShippingFee:       fee,
	}, nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TimeoutDuration returns the gateway timeout as a duration.
func (g *GatewayConfig) TimeoutDuration() time.Duration {
	return time.Duration(g.Timeout) * time.Second
}

// TTL returns the cart TTL as a duration.
func (r *RedisConfig) TTL() time.Duration {
	return time.Duration(r.CartTTL) * time.Minute
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
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
	return out
}
