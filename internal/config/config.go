package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultDBPath     = "./data/tender_ledger.db"
	DefaultPageSize   = 10
	DefaultBcryptCost = 10
	MaxPageSize       = 500
)

type Config struct {
	// Database
	DBPath string

	// Presentation
	PageSize int
	LogLevel string

	// Users
	BcryptCost int

	// AMQP ledger events; an empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		DBPath: getEnv("TENDER_DB_PATH", DefaultDBPath),

		PageSize: getEnvInt("PAGE_SIZE", DefaultPageSize),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		BcryptCost: getEnvInt("BCRYPT_COST", DefaultBcryptCost),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tender_ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),
	}
}

// EventsEnabled reports whether ledger events should be published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else if c.DBPath == ":memory:" || strings.HasPrefix(c.DBPath, "file::memory:") {
		errors = append(errors, "database path must be a file: in-memory databases are not supported")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.PageSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at least 1", c.PageSize))
	} else if c.PageSize > MaxPageSize {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at most %d", c.PageSize, MaxPageSize))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if c.LogLevel == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.BcryptCost))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to defaultValue when the variable is unset. A value
// that is not a number is kept as -1 so Validate reports it.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return -1
	}
	return i
}
