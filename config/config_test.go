package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.NumberRetries != 3 {
		t.Errorf("NumberRetries = %d, want 3", cfg.NumberRetries)
	}
	if cfg.StatsTTL != 5*time.Minute {
		t.Errorf("StatsTTL = %v, want 5m", cfg.StatsTTL)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INVOICED_STORE_DRIVER", "Postgres")
	t.Setenv("INVOICED_DATABASE_URL", "postgres://localhost/invoiced")
	t.Setenv("INVOICED_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("INVOICED_STRICT_TRANSITIONS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("StoreDriver = %q, want postgres", cfg.StoreDriver)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v, want 2 entries", cfg.AllowedOrigins)
	}
	if !cfg.StrictTransitions {
		t.Error("StrictTransitions = false, want true")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("INVOICED_CURRENCY=usd\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Registers a restore of the variable godotenv is about to set.
	t.Setenv("INVOICED_CURRENCY", "")
	os.Unsetenv("INVOICED_CURRENCY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Currency != "usd" {
		t.Errorf("Currency = %q, want usd", cfg.Currency)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory needs no url", func(*Config) {}, false},
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres }, true},
		{"sqlite with url", func(c *Config) { c.StoreDriver = DriverSQLite; c.DatabaseURL = "file:ledger.db" }, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "oracle" }, true},
		{"two document stores", func(c *Config) { c.DocumentDir = "/tmp"; c.S3Bucket = "docs" }, true},
		{"no retries", func(c *Config) { c.NumberRetries = 0 }, true},
		{"zero-digit currency", func(c *Config) { c.Currency = "jpy" }, true},
		{"two-digit currency", func(c *Config) { c.Currency = "usd" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{StoreDriver: DriverMemory, NumberRetries: 3}
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
