package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"meterload/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Sheet    SheetConfig
}

// DatabaseConfig holds TimescaleDB connection settings. URL, when set,
// overrides the individual fields.
type DatabaseConfig struct {
	URL      string
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	Schema   string
	Table    string
}

// SheetConfig holds workbook parsing settings
type SheetConfig struct {
	Sheet      string
	SkipRows   int
	DateColumn string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:      os.Getenv("TIMESCALE_URL"),
			User:     getEnvOrDefault("TIMESCALE_DB_USER", "postgres"),
			Password: getEnvOrDefault("TIMESCALE_DB_PASS", ""),
			Name:     getEnvOrDefault("TIMESCALE_DB_NAME", "appdata"),
			Host:     getEnvOrDefault("TIMESCALE_DB_HOST", "localhost"),
			Port:     getEnvIntOrDefault("TIMESCALE_DB_PORT", 5432),
			SSLMode:  getEnvOrDefault("TIMESCALE_SSLMODE", "disable"),
			Schema:   getEnvOrDefault("TIMESCALE_SCHEMA", "public"),
			Table:    getEnvOrDefault("TIMESCALE_TABLE", "waltero_tqv"),
		},
		Sheet: SheetConfig{
			Sheet:      getEnvOrDefault("METER_SHEET", ""),
			SkipRows:   getEnvIntOrDefault("METER_SKIP_ROWS", 4),
			DateColumn: getEnvOrDefault("METER_DATE_COLUMN", "Date"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// ConnectionURL assembles the postgres connection string, escaping
// credentials. An explicit TIMESCALE_URL wins over the individual parts.
func (c DatabaseConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	u.RawQuery = query.Encode()
	return u.String()
}

func validateConfig(config *Config) error {
	if config.Database.Table == "" {
		return errors.ConfigInvalid("target table is required")
	}
	if config.Database.Port < 1 || config.Database.Port > 65535 {
		return errors.ConfigInvalid(fmt.Sprintf("invalid database port %d", config.Database.Port))
	}
	if config.Sheet.SkipRows < 0 {
		return errors.ConfigInvalid("METER_SKIP_ROWS must not be negative")
	}
	if config.Sheet.DateColumn == "" {
		return errors.ConfigInvalid("date column is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
