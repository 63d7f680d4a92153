// Package config provides centralized configuration management for the application.
// Values come from struct tag defaults, an optional TOML file and environment
// variables, in that order, and are validated on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables or a TOML file.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Database DatabaseConfig  `toml:"database"`
	Ingest   IngestConfig    `toml:"ingest"`
	Watch    WatchConfig     `toml:"watch"`
	Rate     RateLimitConfig `toml:"rate"`
	Security SecurityConfig  `toml:"security"`
	Logging  LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" toml:"host" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" toml:"port" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" toml:"read_timeout" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" toml:"write_timeout" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" toml:"idle_timeout" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" toml:"shutdown_timeout" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" toml:"request_timeout" default:"60s"`
}

// Database drivers accepted by DatabaseConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds product store settings.
type DatabaseConfig struct {
	// Driver selects the product store: memory, sqlite or postgres (default: memory)
	Driver string `env:"DB_DRIVER" toml:"driver" default:"memory"`

	// Path is the SQLite database file (default: priceingest.db)
	Path string `env:"DB_PATH" toml:"path" default:"priceingest.db"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" toml:"url"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" toml:"max_conns" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" toml:"min_conns" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" toml:"max_conn_lifetime" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" toml:"max_conn_idle_time" default:"30m"`
}

// IngestConfig holds the file names and threshold of a CLI run.
type IngestConfig struct {
	Input     string  `env:"INGEST_INPUT" toml:"input" default:"products.csv"`
	Output    string  `env:"INGEST_OUTPUT" toml:"output" default:"expensive_products.csv"`
	RejectLog string  `env:"INGEST_REJECT_LOG" toml:"reject_log" default:"invalid_products.csv"`
	Threshold float64 `env:"INGEST_THRESHOLD" toml:"threshold" default:"1000"`

	// Persist saves accepted records to the product store (default: false)
	Persist bool `env:"INGEST_PERSIST" toml:"persist" default:"false"`
}

// WatchConfig holds inbox watcher settings.
type WatchConfig struct {
	// Inbox is the directory watched for new CSV files (default: inbox)
	Inbox string `env:"WATCH_INBOX" toml:"inbox" default:"inbox"`

	// OutDir receives the accepted and rejected files of each run (default: out)
	OutDir string `env:"WATCH_OUT_DIR" toml:"out_dir" default:"out"`

	// Debounce is how long a file must stay quiet before it is processed (default: 500ms)
	Debounce time.Duration `env:"WATCH_DEBOUNCE" toml:"debounce" default:"500ms"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" toml:"enabled" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" toml:"requests_per_minute" default:"100"`

	// Burst is the number of requests allowed at once (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" toml:"burst" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" toml:"trusted_proxies"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" toml:"enable_csp" default:"true"`

	// RequireAPIKey enforces X-API-Key on mutating routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" toml:"require_api_key" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS" toml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" toml:"level" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" toml:"format" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
