// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port      int
	LogLevel  slog.Level
	LogFormat string

	StoreBackend    string
	DatabaseURL     string
	DatabaseMigrate bool

	HTTPRequestTimeout time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	ShutdownTimeout    time.Duration

	CORSAllowedOrigins []string
}

// Load reads the configuration once at startup. Every error names the offending variable.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Port, err = getEnvInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT: %d is outside 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = strings.ToLower(getEnvDefault("LOG_FORMAT", "json"))
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT: unknown format %q, expected json or text", cfg.LogFormat)
	}

	cfg.StoreBackend = strings.ToLower(getEnvDefault("STORE_BACKEND", BackendPostgres))
	switch cfg.StoreBackend {
	case BackendPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL: required when STORE_BACKEND is %s", BackendPostgres)
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("STORE_BACKEND: unknown backend %q, expected postgres or memory", cfg.StoreBackend)
	}

	cfg.DatabaseMigrate, err = getEnvBool("DATABASE_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("DATABASE_MIGRATE: %w", err)
	}

	cfg.HTTPRequestTimeout, err = getEnvDuration("HTTP_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HTTP_REQUEST_TIMEOUT: %w", err)
	}
	cfg.HTTPReadTimeout, err = getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg.CORSAllowedOrigins = splitList(getEnvDefault("CORS_ALLOWED_ORIGINS", "*"))

	return cfg, nil
}

// SetupLogger installs the configured logger as the slog default.
func SetupLogger(cfg *Config) *slog.Logger {
	logger := NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", val)
	}
	return n, nil
}

// Durations use Go syntax (30s, 1m) and must be positive.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q, use Go syntax such as 30s or 1m", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", val)
	}
	return d, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", val)
	}
	return b, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q, expected debug, info, warn or error", level)
	}
}
