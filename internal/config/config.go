// Package config provides centralized configuration management for the
// reconstruction service. It loads configuration from environment variables
// with sensible defaults and validates all settings on startup to fail fast
// on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Scan     ScanConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	OCR      OCRConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// ScanConfig holds reconstruction request settings.
type ScanConfig struct {
	// MaxPayloadSize is the maximum analysis payload in bytes (default: 10MB)
	MaxPayloadSize int64 `env:"SCAN_MAX_PAYLOAD_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of reconstructions in flight (default: 8)
	MaxConcurrent int `env:"SCAN_MAX_CONCURRENT" default:"8"`

	// MaxWaitTime is how long a request waits for a reconstruction slot (default: 10s)
	MaxWaitTime time.Duration `env:"SCAN_MAX_WAIT_TIME" default:"10s"`

	// RulesPath is an optional YAML rules file replacing the built-in rules
	RulesPath string `env:"LOGBOOK_RULES_PATH" envAlt:"RULES_PATH"`

	// SplitPages reconstructs each page separately unless the request says otherwise
	SplitPages bool `env:"SCAN_SPLIT_PAGES" default:"false"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerSecond is the sustained request rate per client (default: 5)
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS" default:"5"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// CORSOrigins is a comma-separated list of allowed browser origins.
	// Empty disables CORS headers.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// StorageConfig holds S3 settings for fetching analysis payloads by
// s3://bucket/key reference.
type StorageConfig struct {
	Region          string `env:"S3_REGION" envAlt:"AWS_REGION" default:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID" envAlt:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" envAlt:"AWS_SECRET_ACCESS_KEY"`

	// UsePathStyle is required by most S3-compatible servers (MinIO, Ceph)
	UsePathStyle bool `env:"S3_USE_PATH_STYLE" default:"false"`
}

// Enabled reports whether credentials for S3 access are configured.
func (s *StorageConfig) Enabled() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// OCRConfig holds settings for re-recognizing empty cells from page images.
type OCRConfig struct {
	// Enabled accepts page images on reconstruction requests (default: false).
	// Requires a binary built with -tags ocr.
	Enabled bool `env:"OCR_ENABLED" default:"false"`

	// Language is the Tesseract language code (default: eng)
	Language string `env:"OCR_LANGUAGE" default:"eng"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
