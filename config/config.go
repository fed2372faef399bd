// Package config loads the invoiced runtime configuration from the
// environment. Variables are prefixed INVOICED_; a .env file in the working
// directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/xraph/invoiceledger/types"
)

// Prefix of every environment variable.
const Prefix = "INVOICED"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds runtime configuration for the invoiced binary.
type Config struct {
	Env             string        `envconfig:"ENV" default:"development"`
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Currency          string `envconfig:"CURRENCY" default:"eur"`
	NumberRetries     int    `envconfig:"NUMBER_RETRIES" default:"3"`
	StrictTransitions bool   `envconfig:"STRICT_TRANSITIONS" default:"false"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	RateLimit      int           `envconfig:"RATE_LIMIT" default:"120"`
	RateWindow     time.Duration `envconfig:"RATE_WINDOW" default:"1m"`
	Metrics        bool          `envconfig:"METRICS" default:"true"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	StatsTTL      time.Duration `envconfig:"STATS_TTL" default:"5m"`

	DocumentDir string `envconfig:"DOCUMENT_DIR"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	return &cfg, cfg.Validate()
}

// Validate checks settings that depend on one another.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite, DriverMongo:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: %s_DATABASE_URL is required for the %s store", Prefix, c.StoreDriver)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}
	if c.DocumentDir != "" && c.S3Bucket != "" {
		return errors.New("config: set either DOCUMENT_DIR or S3_BUCKET, not both")
	}
	if c.NumberRetries < 1 {
		return errors.New("config: NUMBER_RETRIES must be at least 1")
	}
	if c.Currency != "" && types.MinorDigits(c.Currency) != 2 {
		return fmt.Errorf("config: CURRENCY %q must have a two-digit minor unit", c.Currency)
	}
	return nil
}

// IsProduction reports whether the binary runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// Logger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
