// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Reference  ReferenceConfig
	Validation ValidationConfig
	Upload     UploadConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envDefault:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
}

// ReferenceConfig says where the master code list comes from and how to read it.
type ReferenceConfig struct {
	// Location is a file path or URL: /path, https://, s3://, postgres://, sqlite:// (required)
	Location string `env:"REFERENCE_LOCATION,required"`

	// Format forces csv, tsv or xlsx instead of detecting it
	Format string `env:"REFERENCE_FORMAT"`

	// Sheet selects the XLSX sheet (default: first sheet)
	Sheet string `env:"REFERENCE_SHEET"`

	// MappingFile is a YAML column override
	MappingFile string `env:"REFERENCE_MAPPING_FILE"`

	// RefreshInterval reloads periodically; 0 disables (default: 0)
	RefreshInterval time.Duration `env:"REFERENCE_REFRESH_INTERVAL" envDefault:"0s"`

	// Watch reloads when a local reference or mapping file changes (default: false)
	Watch bool `env:"REFERENCE_WATCH" envDefault:"false"`

	// HTTPTimeout bounds downloads from http(s) locations (default: 30s)
	HTTPTimeout time.Duration `env:"REFERENCE_HTTP_TIMEOUT" envDefault:"30s"`

	// HTTPRetries is the retry count for http(s) downloads (default: 2)
	HTTPRetries int `env:"REFERENCE_HTTP_RETRIES" envDefault:"2"`

	// SQLTable, SQLCodeColumn and SQLDescColumn name the table for database locations
	SQLTable      string `env:"REFERENCE_SQL_TABLE" envDefault:"hsn_codes"`
	SQLCodeColumn string `env:"REFERENCE_SQL_CODE_COLUMN" envDefault:"code"`
	SQLDescColumn string `env:"REFERENCE_SQL_DESCRIPTION_COLUMN" envDefault:"description"`

	// S3 settings for s3:// locations
	S3Region          string `env:"REFERENCE_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint        string `env:"REFERENCE_S3_ENDPOINT"`
	S3AccessKeyID     string `env:"REFERENCE_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"REFERENCE_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle    bool   `env:"REFERENCE_S3_PATH_STYLE" envDefault:"false"`
}

// ValidationConfig tunes the validation engine.
type ValidationConfig struct {
	// LengthPolicy is advisory or strict (default: advisory)
	LengthPolicy string `env:"VALIDATION_LENGTH_POLICY" envDefault:"advisory"`

	// Concurrency bounds goroutines per ValidateMany call; 0 means NumCPU (default: 0)
	Concurrency int `env:"VALIDATION_CONCURRENCY" envDefault:"0"`

	// BulkMaxCodes caps codes per bulk request (default: 10000)
	BulkMaxCodes int `env:"BULK_MAX_CODES" envDefault:"10000"`

	// BulkMaxConcurrent is the number of bulk requests served at once (default: 4)
	BulkMaxConcurrent int `env:"BULK_MAX_CONCURRENT" envDefault:"4"`

	// BulkMaxWait is how long a bulk request waits for a slot (default: 10s)
	BulkMaxWait time.Duration `env:"BULK_MAX_WAIT" envDefault:"10s"`
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"20971520"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" envDefault:"100"`

	// BulkLimit is requests per minute for bulk and upload endpoints (default: 10)
	BulkLimit int `env:"RATE_LIMIT_BULK" envDefault:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" envDefault:"true"`

	// RequireAPIKey protects reload and other admin endpoints (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" envDefault:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS" envSeparator:","`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
