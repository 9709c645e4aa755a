package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	Timezone string

	// Spanner
	SpannerProject      string
	SpannerInstance     string
	SpannerDatabase     string
	SpannerEmulatorHost string

	// Redis
	RedisURL string
	CacheTTL time.Duration

	// Events
	RabbitMQURL   string
	EventsEnabled bool
	WebhookURL    string

	// Scheduling
	DeliveryHorizonDays int
	ScheduleDaysAhead   int

	// Metrics
	MetricsAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TIMEZONE", "UTC"),

		SpannerProject:      getEnv("SPANNER_PROJECT", "test-project"),
		SpannerInstance:     getEnv("SPANNER_INSTANCE", "test-instance"),
		SpannerDatabase:     getEnv("SPANNER_DATABASE", "meal-subscriptions"),
		SpannerEmulatorHost: getEnv("SPANNER_EMULATOR_HOST", ""),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getDurationEnv("CACHE_TTL", 15*time.Minute),

		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		EventsEnabled: getBoolEnv("EVENTS_ENABLED", false),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),

		DeliveryHorizonDays: getIntEnv("DELIVERY_HORIZON_DAYS", 14),
		ScheduleDaysAhead:   getIntEnv("SCHEDULE_DAYS_AHEAD", 7),

		MetricsAddr: getEnv("METRICS_ADDR", "0.0.0.0:9102"),
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves Timezone. "Today" is taken in this zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DatabasePath is the fully qualified Spanner database name.
func (c *Config) DatabasePath() string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", c.SpannerProject, c.SpannerInstance, c.SpannerDatabase)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
