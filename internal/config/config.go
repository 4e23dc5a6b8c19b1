package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	// HTTP server
	SERVER_ADDR     string
	ALLOWED_HEADERS string
	// Origins allowed to make credentialed cross origin calls, comma separated in the env
	ALLOWED_ORIGINS []string

	// Access tokens issued on login
	JWT_SECRET    string
	JWT_TTL       time.Duration
	SECURE_COOKIE bool

	// Logging
	LOG_LEVEL  string
	LOG_FORMAT string
	LOG_FILE   string

	// Reporting
	REPORT_TIMEOUT time.Duration

	// Circuit breaker around the task store
	BREAKER_MAX_FAILURES uint32
	BREAKER_TIMEOUT      time.Duration

	// Redis backed rate limiting for report routes, disabled when REDIS_ADDR is empty
	REDIS_ADDR        string
	REDIS_PASSWORD    string
	REDIS_DB          int
	REPORT_RATE_LIMIT int

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
}

func ReadConfig() *Config {
	return &Config{
		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     getEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:     getEnvOrDefault("DB_PORT", "5432"),
		DB_NAME:     getEnvOrDefault("DB_NAME", "tasky"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		SERVER_ADDR:     getEnvOrDefault("SERVER_ADDR", "0.0.0.0:8000"),
		ALLOWED_HEADERS: getEnvOrDefault("ALLOWED_HEADERS", "Content-Type, Authorization"),
		ALLOWED_ORIGINS: getListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		JWT_SECRET:    os.Getenv("JWT_SECRET"),
		JWT_TTL:       getDurationOrDefault("JWT_TTL", 24*time.Hour),
		SECURE_COOKIE: os.Getenv("SECURE_COOKIE") == "true",

		LOG_LEVEL:  getEnvOrDefault("LOG_LEVEL", "info"),
		LOG_FORMAT: getEnvOrDefault("LOG_FORMAT", "json"),
		LOG_FILE:   os.Getenv("LOG_FILE"),

		REPORT_TIMEOUT: getDurationOrDefault("REPORT_TIMEOUT", 10*time.Second),

		BREAKER_MAX_FAILURES: uint32(getIntOrDefault("BREAKER_MAX_FAILURES", 5)),
		BREAKER_TIMEOUT:      getDurationOrDefault("BREAKER_TIMEOUT", 30*time.Second),

		REDIS_ADDR:        os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD:    os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:          getIntOrDefault("REDIS_DB", 0),
		REPORT_RATE_LIMIT: getIntOrDefault("REPORT_RATE_LIMIT", 60),

		OTEL_EXPORTER_OTLP_ENDPOINT: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// OriginAllowed reports whether origin is listed in ALLOWED_ORIGINS. "*" allows any origin.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range c.ALLOWED_ORIGINS {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getListOrDefault(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimRight(strings.TrimSpace(v), "/"); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getIntOrDefault(key string, defaultValue int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return defaultValue
}
