package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "pms-evidence", cfg.MinIO.Bucket)
	assert.Equal(t, 15*time.Minute, cfg.MinIO.URLExpiry)
	assert.Equal(t, "pms.notifications", cfg.NATS.SubjectPrefix)
	assert.Equal(t, "tnh-pms", cfg.JWT.Issuer)
	assert.Equal(t, "all", cfg.Notify.Scope)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "pms")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("NOTIFY_SCOPE", "branch")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "branch", cfg.Notify.Scope)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
	assert.Contains(t, cfg.Database.DSN(), "dbname=pms")
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("PMS_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnvOrDefault("PMS_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("PMS_TEST_MISSING", "fallback"))
}
