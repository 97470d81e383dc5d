package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	assert.True(t, cfg.RateLimitEnabled)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobber.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limits:\n  login:\n    limit: 2\n    window: 30s\n"), 0o600))

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_ACCESS_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.JWTAccessTTL)
	require.Contains(t, cfg.RateLimits, "login")
	assert.Equal(t, 2, cfg.RateLimits["login"].Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimits["login"].Window)
}

func TestLoadPostgresNeedsURI(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_URI", "")
	_, err := Load()
	assert.ErrorContains(t, err, "POSTGRES_URI")

	t.Setenv("POSTGRES_URI", "postgres://jobber@localhost/jobber")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_URI", "")
	t.Setenv("REDIS_URL", "redis://localhost:6380/2")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6380/2", cfg.RedisAddr)
}

func TestRedisOptions(t *testing.T) {
	opt, err := RedisOptions("cache:6379")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opt.Addr)

	opt, err = RedisOptions("redis://:pw@cache:6380/3")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 3, opt.DB)

	_, err = RedisOptions("  ")
	assert.Error(t, err)
}
