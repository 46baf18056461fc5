package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	DatabaseName       string
	Port               string
	GoEnv              string
	JWTSecret          string
	AdminUsername      string
	AdminPassword      string
	SeedUsersFile      string
	BcryptCost         int
	AllowDegraded      bool
	StaticDir          string
	RedisURL           string
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	RabbitMQURL        string
	ReportEventsQueue  string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Hosted deployments set variables directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatabaseName:       getEnv("DB_NAME", "pool_maintenance_db"),
		Port:               getEnv("PORT", "8001"),
		GoEnv:              getEnv("GO_ENV", "development"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		SeedUsersFile:      getEnv("SEED_USERS_FILE", ""),
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),
		AllowDegraded:      getEnvBool("ALLOW_DEGRADED", false),
		StaticDir:          getEnv("STATIC_DIR", "frontend/build"),
		RedisURL:           getEnv("REDIS_URL", ""),
		LoginRateLimit:     getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:    getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		ReportEventsQueue:  getEnv("REPORT_EVENTS_QUEUE", "service_reports.events"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.LoginRateLimit < 1 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be positive")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// DebugLogging reports whether LOG_LEVEL asks for request and SQL tracing
func (c *Config) DebugLogging() bool {
	return c.LogLevel == "debug"
}

// GormLogLevel maps LOG_LEVEL onto gorm's logger. Tests stay silent.
func (c *Config) GormLogLevel() logger.LogLevel {
	switch {
	case c.IsTest():
		return logger.Silent
	case c.LogLevel == "debug":
		return logger.Info
	case c.LogLevel == "error":
		return logger.Error
	}
	return logger.Warn
}

// MediaEnabled reports whether S3 media storage is configured
func (c *Config) MediaEnabled() bool {
	return c.AWSS3Bucket != ""
}

// getEnv retrieves an environment variable or returns a default value
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
		log.Printf("Invalid integer for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration for %s: %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
