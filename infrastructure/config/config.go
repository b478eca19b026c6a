package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Document store
	MongoURI      string
	MongoDatabase string

	// Cache backend; empty address selects the in-process cache
	RedisAddr string
	NoteTTL   time.Duration
	ListTTL   time.Duration
	SearchTTL time.Duration

	// Search index; empty URL disables the index and every search goes
	// straight to the store scan
	ElasticsearchURL string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	TokenExpiry time.Duration

	// Rate limiting (requests per minute)
	IPRateLimit   int
	UserRateLimit int

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8001"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "notehub"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		NoteTTL:   getEnvDuration("CACHE_NOTE_TTL", 5*time.Minute),
		ListTTL:   getEnvDuration("CACHE_LIST_TTL", time.Minute),
		SearchTTL: getEnvDuration("CACHE_SEARCH_TTL", time.Minute),

		ElasticsearchURL: getEnv("ELASTICSEARCH_URL", ""),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "notehub-backend"),
		TokenExpiry: getEnvDuration("TOKEN_EXPIRY", 24*time.Hour),

		IPRateLimit:   getEnvInt("IP_RATE_LIMIT", 100),
		UserRateLimit: getEnvInt("USER_RATE_LIMIT", 200),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
