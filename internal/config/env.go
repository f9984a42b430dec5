package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/warehousekit/contractd/internal/log"
)

// ParseString reads a string from an environment variable or returns the default.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if value, exists := os.LookupEnv(key); exists {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "password") || strings.Contains(lowerKey, "token"):
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		case value == "":
			logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		default:
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the default.
// It validates the input and falls back to the default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseDuration reads a duration from an environment variable or returns the default.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Str("default", defaultValue.String()).
			Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}

// ParseBool reads a boolean from an environment variable or returns the default.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
	}
	return defaultValue
}
