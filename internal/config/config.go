package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	DB             DBConfig
	MigrationsPath string

	JWTSecret string

	Payment           PaymentConfig
	CheckoutTxTimeout time.Duration

	ProductCache  string
	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	LogMode string
	LogFile string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

type PaymentConfig struct {
	KeyID      string
	KeySecret  string
	GatewayURL string
	Currency   string
	Timeout    time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB

		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     cast.ToInt(getEnv("DB_PORT", "5432")),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "ecommerce"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    cast.ToInt(getEnv("DB_MAX_OPEN_CONNS", "100")),
			MaxIdleConns:    cast.ToInt(getEnv("DB_MAX_IDLE_CONNS", "10")),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		},
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		Payment: PaymentConfig{
			KeyID:      getEnv("PAYMENT_KEY_ID", ""),
			KeySecret:  getEnv("PAYMENT_KEY_SECRET", ""),
			GatewayURL: getEnv("PAYMENT_GATEWAY_URL", "https://api.razorpay.com"),
			Currency:   getEnv("PAYMENT_CURRENCY", "INR"),
			Timeout:    getDuration("PAYMENT_TIMEOUT", 5*time.Second),
		},
		CheckoutTxTimeout: getDuration("CHECKOUT_TX_TIMEOUT", 10*time.Second),

		ProductCache:  strings.ToLower(getEnv("PRODUCT_CACHE", "memory")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "order-events"),

		LogMode: getEnv("LOG_MODE", "production"),
		LogFile: getEnv("LOG_FILE", ""),
	}
}

// Validate rejects configurations the service cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Payment.KeySecret == "" {
		errs = append(errs, errors.New("PAYMENT_KEY_SECRET is required"))
	}
	if c.DB.Port <= 0 {
		errs = append(errs, errors.New("DB_PORT must be a positive integer"))
	}
	if c.DB.MaxOpenConns <= 0 || c.DB.MaxIdleConns < 0 || c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		errs = append(errs, errors.New("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS"))
	}
	if c.ProductCache != "memory" && c.ProductCache != "redis" {
		errs = append(errs, errors.New("PRODUCT_CACHE must be memory or redis"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := cast.ToDurationE(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
