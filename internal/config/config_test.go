package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEWLEW_API_URL", "https://api.lewlew.social")
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.lewlew.social", cfg.APIBaseURL)
	assert.Equal(t, "lewctl.db", filepath.Base(cfg.DBPath))
	assert.Equal(t, "audit.db", filepath.Base(cfg.AuditDBPath))
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TracingEnabled)
	assert.False(t, cfg.LogoutOn401)
	assert.False(t, cfg.DropExpiredSession)
}

func TestLoad_MissingAPIURL(t *testing.T) {
	t.Setenv("LEWLEW_API_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIBaseURL")
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	t.Setenv("LEWLEW_API_URL", "not a url")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEWLEW_API_URL", "http://localhost:3000")
	t.Setenv("LEWLEW_DB_PATH", filepath.Join(dir, "custom.db"))
	t.Setenv("LEWLEW_AUDIT_DB_PATH", filepath.Join(dir, "trail.db"))
	t.Setenv("METRICS_ADDR", ":9109")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("LOGOUT_ON_401", "true")
	t.Setenv("DROP_EXPIRED_SESSION", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "custom.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "trail.db"), cfg.AuditDBPath)
	assert.Equal(t, ":9109", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TracingEnabled)
	assert.True(t, cfg.LogoutOn401)
	assert.True(t, cfg.DropExpiredSession)
}

func TestLoad_AuditTrailDisabledByEmptyPath(t *testing.T) {
	t.Setenv("LEWLEW_API_URL", "http://localhost:3000")
	t.Setenv("LEWLEW_AUDIT_DB_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuditDBPath)
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, "/tmp/xdg-data", defaultDataDir())
}
