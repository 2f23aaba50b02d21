package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, "http://localhost:5173", cfg.ClientURL)
	assert.Equal(t, StorageBackendJSON, cfg.StorageBackend)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, "http://localhost:3000/api/auth/google/callback", cfg.GoogleCallbackURL)
	assert.Equal(t, 6, cfg.RefreshHour)
	assert.Equal(t, defaultSessionSecret, cfg.SessionSecret)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":3000", cfg.ListenAddress())
}

func TestParsePostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/ipo?sslmode=disable")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, StorageBackendPostgres, cfg.StorageBackend)
}

func TestLegacyUseJSONStorageOverridesBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/ipo")
	t.Setenv("USE_JSON_STORAGE", "true")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, StorageBackendJSON, cfg.StorageBackend)

	t.Setenv("USE_JSON_STORAGE", "maybe")
	_, err = Parse()
	assert.Error(t, err)
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mongo")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestProductionRequiresSessionSecret(t *testing.T) {
	t.Setenv("NODE_ENV", "production")

	_, err := Parse()
	require.Error(t, err)

	t.Setenv("SESSION_SECRET", defaultSessionSecret)
	_, err = Parse()
	require.Error(t, err, "the development placeholder is not a production secret")

	t.Setenv("SESSION_SECRET", "a-real-secret")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestParseRejectsBadRefreshSettings(t *testing.T) {
	t.Setenv("REFRESH_HOUR", "25")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("REFRESH_HOUR", "6")
	t.Setenv("REFRESH_FROM", "01/01/2024")
	_, err = Parse()
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	SetupLogging("debug", "json")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	SetupLogging("nonsense", "text")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
