// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Storage drivers for the column registry.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Archive drivers for exported files.
const (
	ArchiveNone = "none"
	ArchiveFS   = "fs"
	ArchiveS3   = "s3"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Table    TableConfig
	Import   ImportConfig
	Archive  ArchiveConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

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

// StorageConfig selects where the column registry is persisted.
type StorageConfig struct {
	// Driver is memory, sqlite or postgres (default: memory)
	Driver string `env:"STORAGE_DRIVER" default:"memory"`

	// SQLitePath is the database file for the sqlite driver (default: data/tablekit.db)
	SQLitePath string `env:"STORAGE_SQLITE_PATH" default:"data/tablekit.db"`

	// DatabaseURL is the PostgreSQL connection string for the postgres driver
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// Namespace is the key the registry is stored under (default: table-manager/columns)
	Namespace string `env:"STORAGE_NAMESPACE" default:"table-manager/columns"`
}

// TableConfig holds table behavior settings.
type TableConfig struct {
	// PageSize is the initial rows per page (default: 10)
	PageSize int `env:"TABLE_PAGE_SIZE" default:"10"`

	// Seed starts the table with sample records (default: true)
	Seed bool `env:"TABLE_SEED" default:"true"`

	// NumericColumns must hold numbers; comma-separated keys (default: age)
	NumericColumns []string `env:"TABLE_NUMERIC_COLUMNS" default:"age"`

	// ValidationRules are column=expression rules, semicolon-separated (default: age=value >= 0)
	ValidationRules []string `env:"TABLE_VALIDATION_RULES" sep:";" default:"age=value >= 0"`

	// AuditEntries is how many audit journal entries are kept (default: 500)
	AuditEntries int `env:"TABLE_AUDIT_ENTRIES" default:"500"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel imports (default: 2)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for an import slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`
}

// ArchiveConfig selects where copies of exports are kept.
type ArchiveConfig struct {
	// Driver is none, fs or s3 (default: none)
	Driver string `env:"ARCHIVE_DRIVER" default:"none"`

	// Dir is the root directory for the fs driver (default: data/archive)
	Dir string `env:"ARCHIVE_DIR" default:"data/archive"`

	// S3Bucket is the bucket for the s3 driver
	S3Bucket string `env:"ARCHIVE_S3_BUCKET"`

	// S3Region is the bucket region (default: us-east-1)
	S3Region string `env:"ARCHIVE_S3_REGION" default:"us-east-1"`

	// S3Endpoint is an optional custom endpoint, e.g. MinIO
	S3Endpoint string `env:"ARCHIVE_S3_ENDPOINT"`

	// S3PathStyle forces path-style addressing (default: false)
	S3PathStyle bool `env:"ARCHIVE_S3_PATH_STYLE" default:"false"`

	// S3Prefix is prepended to every object key
	S3Prefix string `env:"ARCHIVE_S3_PREFIX"`

	// SnapshotInterval archives a table snapshot this often; 0 disables it (default: 0)
	SnapshotInterval time.Duration `env:"ARCHIVE_SNAPSHOT_INTERVAL" default:"0s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for the import endpoint (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

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

	// Storage validation
	switch strings.ToLower(c.Storage.Driver) {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, "STORAGE_SQLITE_PATH is required for the sqlite driver")
		}
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
		if c.Storage.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER (%q) must be one of: memory, sqlite, postgres", c.Storage.Driver))
	}
	if strings.TrimSpace(c.Storage.Namespace) == "" {
		errs = append(errs, "STORAGE_NAMESPACE must not be empty")
	}

	// Table validation
	if c.Table.PageSize <= 0 {
		errs = append(errs, "TABLE_PAGE_SIZE must be positive")
	}
	for _, rule := range c.Table.ValidationRules {
		if !strings.Contains(rule, "=") {
			errs = append(errs, fmt.Sprintf("TABLE_VALIDATION_RULES entry %q must be column=expression", rule))
		}
	}

	// Import validation
	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.Import.MaxWaitTime <= 0 {
		errs = append(errs, "IMPORT_MAX_WAIT_TIME must be positive")
	}

	// Archive validation
	switch strings.ToLower(c.Archive.Driver) {
	case ArchiveNone:
	case ArchiveFS:
		if c.Archive.Dir == "" {
			errs = append(errs, "ARCHIVE_DIR is required for the fs driver")
		}
	case ArchiveS3:
		if c.Archive.S3Bucket == "" {
			errs = append(errs, "ARCHIVE_S3_BUCKET is required for the s3 driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("ARCHIVE_DRIVER (%q) must be one of: none, fs, s3", c.Archive.Driver))
	}

	if c.Archive.SnapshotInterval < 0 {
		errs = append(errs, "ARCHIVE_SNAPSHOT_INTERVAL must be non-negative")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.ImportLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "API_KEYS must be set when REQUIRE_API_KEY is true")
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
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	dbURL := ""
	if c.Storage.DatabaseURL != "" {
		dbURL = "[MASKED]"
	}
	fmt.Fprintf(&b, "Storage: {Driver: %q, URL: %s, Namespace: %q}, ",
		c.Storage.Driver, dbURL, c.Storage.Namespace)
	fmt.Fprintf(&b, "Table: {PageSize: %d, Seed: %v, Numeric: %v}, ",
		c.Table.PageSize, c.Table.Seed, c.Table.NumericColumns)
	fmt.Fprintf(&b, "Import: {MaxFileSize: %d, MaxConcurrent: %d}, ",
		c.Import.MaxFileSize, c.Import.MaxConcurrent)
	fmt.Fprintf(&b, "Archive: {Driver: %q}, ", c.Archive.Driver)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
