package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("MANAGER_PASSWORD", "boutique-secret")
	t.Setenv("STORE_BACKEND", "memory")
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.GeminiTimeout)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "memory", cfg.StoreBackend)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	setValidEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "too-short")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRequiresManagerPassword(t *testing.T) {
	setValidEnv(t)
	t.Setenv("MANAGER_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	setValidEnv(t)
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestBuildDatabaseURLPrefersDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/gemscore")
	assert.Equal(t, "postgres://u:p@db:5432/gemscore", buildDatabaseURL())

	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "scores")
	dsn := buildDatabaseURL()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=scores")
}
