// Package config loads console configuration from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds everything the console needs at startup.
type Config struct {
	// APIBaseURL is the root of the remote LewLew API.
	APIBaseURL string `validate:"required,url"`

	// DBPath is the BoltDB file holding the credential token and session
	// projection.
	DBPath string `validate:"required"`

	// AuditDBPath is the SQLite file holding the local action trail.
	// Empty disables auditing.
	AuditDBPath string

	// MetricsAddr, when set, serves Prometheus metrics in watch mode
	// (e.g. ":9109").
	MetricsAddr string

	LogLevel  string
	LogFormat string

	// TracingEnabled turns on OTLP trace export.
	TracingEnabled bool

	// LogoutOn401 resets the session to Anonymous when an authenticated
	// call answers 401/403.
	LogoutOn401 bool

	// DropExpiredSession discards a restored session whose JWT exp claim
	// has passed.
	DropExpiredSession bool
}

// Load reads the environment (and .env when present) and validates the
// result.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("config: no .env file, using environment")
	}

	dataDir := defaultDataDir()

	cfg := &Config{
		APIBaseURL:         getEnv("LEWLEW_API_URL", ""),
		DBPath:             getEnv("LEWLEW_DB_PATH", filepath.Join(dataDir, "lewctl", "lewctl.db")),
		AuditDBPath:        auditDBPath(dataDir),
		MetricsAddr:        getEnv("METRICS_ADDR", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", ""),
		TracingEnabled:     getBool("TRACING_ENABLED"),
		LogoutOn401:        getBool("LOGOUT_ON_401"),
		DropExpiredSession: getBool("DROP_EXPIRED_SESSION"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaultDataDir follows XDG, falling back to ~/.local/share. Running from
// a read-only location must not break the default database path.
func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// auditDBPath distinguishes an unset variable from one set empty: empty
// disables the trail, unset takes the default.
func auditDBPath(dataDir string) string {
	if v, ok := os.LookupEnv("LEWLEW_AUDIT_DB_PATH"); ok {
		return v
	}
	return filepath.Join(dataDir, "lewctl", "audit.db")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) bool {
	return os.Getenv(key) == "true"
}
