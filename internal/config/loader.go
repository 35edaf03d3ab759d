package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Reference validation
	if strings.TrimSpace(c.Reference.Location) == "" {
		errs = append(errs, "REFERENCE_LOCATION is required")
	}
	if c.Reference.RefreshInterval < 0 {
		errs = append(errs, "REFERENCE_REFRESH_INTERVAL must be non-negative")
	}
	if c.Reference.HTTPRetries < 0 {
		errs = append(errs, "REFERENCE_HTTP_RETRIES must be non-negative")
	}
	switch strings.ToLower(c.Reference.Format) {
	case "", "csv", "tsv", "xlsx":
	default:
		errs = append(errs, fmt.Sprintf("REFERENCE_FORMAT (%q) must be one of: csv, tsv, xlsx", c.Reference.Format))
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Validation engine
	switch strings.ToLower(c.Validation.LengthPolicy) {
	case "advisory", "strict":
	default:
		errs = append(errs, fmt.Sprintf("VALIDATION_LENGTH_POLICY (%q) must be one of: advisory, strict", c.Validation.LengthPolicy))
	}
	if c.Validation.Concurrency < 0 {
		errs = append(errs, "VALIDATION_CONCURRENCY must be non-negative")
	}
	if c.Validation.BulkMaxCodes <= 0 {
		errs = append(errs, "BULK_MAX_CODES must be positive")
	}
	if c.Validation.BulkMaxConcurrent <= 0 {
		errs = append(errs, "BULK_MAX_CONCURRENT must be positive")
	}
	if c.Validation.BulkMaxWait <= 0 {
		errs = append(errs, "BULK_MAX_WAIT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.BulkLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_BULK must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}
	for _, cidr := range c.Security.TrustedProxies {
		cidr = strings.TrimSpace(cidr)
		if _, _, err := net.ParseCIDR(cidr); err != nil && net.ParseIP(cidr) == nil {
			errs = append(errs, fmt.Sprintf("TRUSTED_PROXIES entry %q is not a CIDR or IP", cidr))
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials in the reference location and S3 secrets are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Reference: {Location: %q, Format: %q, RefreshInterval: %s, Watch: %v, S3Secret: [MASKED]}, ",
		MaskLocation(c.Reference.Location), c.Reference.Format, c.Reference.RefreshInterval, c.Reference.Watch))
	b.WriteString(fmt.Sprintf("Validation: {LengthPolicy: %q, BulkMaxCodes: %d, BulkMaxConcurrent: %d}, ",
		c.Validation.LengthPolicy, c.Validation.BulkMaxCodes, c.Validation.BulkMaxConcurrent))
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d}, ", c.Upload.MaxFileSize))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

// MaskLocation hides the password in URL-style locations.
func MaskLocation(loc string) string {
	if !strings.Contains(loc, "://") {
		return loc
	}
	u, err := url.Parse(loc)
	if err != nil {
		return "[MASKED]"
	}
	return u.Redacted()
}
