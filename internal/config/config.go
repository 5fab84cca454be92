package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is built once at
// process start and passed by dependency injection; core logic never
// reads environment state directly.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Voucher  VoucherConfig
	Push     PushConfig
	Env      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RabbitMQConfig holds RabbitMQ configuration
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// VoucherConfig holds the voucher service endpoint and retry policy
type VoucherConfig struct {
	Endpoint      string
	Timeout       time.Duration
	MaxAttempts   int
	RetryDelay    time.Duration
	SentinelPhone string
}

// PushConfig holds the push relay endpoint and retry policy
type PushConfig struct {
	Endpoint    string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "coffree"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "coffree_db"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_DEFAULT_USER", "guest"),
			Password: getEnv("RABBITMQ_DEFAULT_PASS", "guest"),
		},
		Voucher: VoucherConfig{
			Endpoint:      getEnv("VOUCHER_API_URL", "https://api.capitalone.com/protected/24565/retail/digital-offers/text-pass"),
			Timeout:       time.Duration(getEnvAsInt("VOUCHER_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxAttempts:   getEnvAsInt("VOUCHER_MAX_ATTEMPTS", 3),
			RetryDelay:    time.Duration(getEnvAsInt("VOUCHER_RETRY_DELAY_SECONDS", 2)) * time.Second,
			SentinelPhone: getEnv("VOUCHER_SENTINEL_PHONE", "0000000000"),
		},
		Push: PushConfig{
			Endpoint:    getEnv("PUSH_API_URL", "https://exp.host/--/api/v2/push/send"),
			Timeout:     time.Duration(getEnvAsInt("PUSH_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxAttempts: getEnvAsInt("PUSH_MAX_ATTEMPTS", 3),
			RetryDelay:  time.Duration(getEnvAsInt("PUSH_RETRY_DELAY_SECONDS", 2)) * time.Second,
		},
		Env: getEnv("ENV", "development"),
	}

	// Validate required fields
	if config.Database.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if config.Voucher.MaxAttempts < 1 {
		return nil, fmt.Errorf("VOUCHER_MAX_ATTEMPTS must be at least 1")
	}

	return config, nil
}

// GetDatabaseDSN returns PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetRabbitMQURL returns RabbitMQ connection URL
func (c *Config) GetRabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.RabbitMQ.User,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
	)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
