package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Log      LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port              string
	FrontendURL       string
	MetricsEnabled    bool
	AuthRatePerMinute float64
	AuthBurst         int
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	ReconcileInterval time.Duration
}

// LogConfig selects the zap encoder and level. When File is set, logs are
// also written there and rotated.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	tokenTTL, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	reconcile, err := getDuration("RECONCILE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	authRate, err := getFloat("AUTH_RATE_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	authBurst, err := getInt("AUTH_BURST", 10)
	if err != nil {
		return nil, err
	}
	maxSize, err := getInt("LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return nil, err
	}
	maxBackups, err := getInt("LOG_MAX_BACKUPS", 5)
	if err != nil {
		return nil, err
	}
	maxAge, err := getInt("LOG_MAX_AGE_DAYS", 30)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "deeddraw"),
			SQLitePath: getEnv("SQLITE_PATH", "deeddraw.db"),
		},
		Server: ServerConfig{
			Port:              getEnv("SERVER_PORT", "8080"),
			FrontendURL:       getEnv("FRONTEND_URL", ""),
			MetricsEnabled:    getEnv("METRICS_ENABLED", "true") == "true",
			AuthRatePerMinute: authRate,
			AuthBurst:         authBurst,
		},
		App: AppConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			TokenTTL:          tokenTTL,
			AdminEmail:        getEnv("ADMIN_EMAIL", ""),
			ReconcileInterval: reconcile,
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  maxSize,
			MaxBackups: maxBackups,
			MaxAgeDays: maxAge,
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", config.Database.Driver)
	}

	return config, nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDuration accepts Go durations ("90m") or a bare number of seconds
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}
