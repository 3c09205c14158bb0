// Package config provides centralized configuration management for pdf2ynab.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Convert  ConvertConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings for `pdf2ynab serve`.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// DatabaseConfig holds settings for the optional conversion history store.
// History is disabled when URL is empty.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// HistoryLimit caps the number of runs returned by the history endpoint (default: 50)
	HistoryLimit int `env:"HISTORY_LIMIT" default:"50"`
}

// Enabled reports whether a history database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ConvertConfig holds conversion settings shared by the CLI and the server.
type ConvertConfig struct {
	// StrictDates fails a conversion when a date does not match the format's pattern.
	StrictDates bool `env:"STRICT_DATES" default:"false"`

	// StrictColumns fails a conversion when a required column has no source column.
	StrictColumns bool `env:"STRICT_COLUMNS" default:"false"`

	// FormatsFile is a YAML file of additional format descriptors.
	FormatsFile string `env:"FORMATS_FILE"`

	// InputEncoding is the character set of CSV input (default: utf-8)
	InputEncoding string `env:"INPUT_ENCODING" default:"utf-8"`

	// MaxFileSize accepts human sizes like "20MB" (default: 20MB)
	MaxFileSize int64 `env:"MAX_FILE_SIZE" default:"20MB" unit:"bytes"`

	// MaxConcurrent is the number of conversions the server runs at once (default: 4)
	MaxConcurrent int `env:"CONVERT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a conversion slot (default: 10s)
	MaxWaitTime time.Duration `env:"CONVERT_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single conversion (default: 2m)
	Timeout time.Duration `env:"CONVERT_TIMEOUT" default:"2m"`

	// PreviewRows is the number of rows `pdf2ynab preview` prints (default: 10)
	PreviewRows int `env:"PREVIEW_ROWS" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a list of CIDR ranges for trusted reverse proxies.
	// X-Forwarded-For is only honored from these sources.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is the comma-separated list of accepted keys.
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log output format: text, json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b [20]byte
	pos := len(b)
	for i > 0 {
		pos--
		b[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		b[pos] = '-'
	}
	return string(b[pos:])
}
