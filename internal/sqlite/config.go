// File path: internal/sqlite/config.go
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Path string

	MaxOpenConns int
	MaxIdleConns int

	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	BusyTimeout     time.Duration
}

// DefaultConfig returns the baseline connection settings used when no
// overrides are supplied.
func DefaultConfig() Config {
	return Config{
		Path:            filepath.Join("data", "contratos.db"),
		MaxOpenConns:    8,
		MaxIdleConns:    8,
		ConnMaxLifetime: 15 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
	}
}

// LoadConfig builds a Config from defaults and CONTRATOS_DB_* environment
// variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONTRATOS_DB_PATH")); path != "" {
		cfg.Path = path
	}
	if value := strings.TrimSpace(os.Getenv("CONTRATOS_DB_MAX_OPEN_CONNS")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CONTRATOS_DB_MAX_OPEN_CONNS: %w", err)
		}
		if parsed > 0 {
			cfg.MaxOpenConns = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("CONTRATOS_DB_MAX_IDLE_CONNS")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CONTRATOS_DB_MAX_IDLE_CONNS: %w", err)
		}
		if parsed > 0 {
			cfg.MaxIdleConns = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("CONTRATOS_DB_CONN_MAX_LIFETIME")); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CONTRATOS_DB_CONN_MAX_LIFETIME: %w", err)
		}
		cfg.ConnMaxLifetime = parsed
	}
	if value := strings.TrimSpace(os.Getenv("CONTRATOS_DB_CONN_MAX_IDLE_TIME")); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CONTRATOS_DB_CONN_MAX_IDLE_TIME: %w", err)
		}
		cfg.ConnMaxIdleTime = parsed
	}
	if value := strings.TrimSpace(os.Getenv("CONTRATOS_DB_BUSY_TIMEOUT")); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CONTRATOS_DB_BUSY_TIMEOUT: %w", err)
		}
		cfg.BusyTimeout = parsed
	}
	return cfg, nil
}
