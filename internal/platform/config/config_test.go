package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("STORE_BACKEND", BackendMemory)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.ExpireTime)
	assert.Equal(t, 7, cfg.JWT.RefreshExpireDays)
	assert.Equal(t, uint32(65536), cfg.Argon2.MemoryKB)
	assert.Equal(t, 10*time.Minute, cfg.Store.PurgeInterval)
	assert.Equal(t, 720*time.Hour, cfg.Store.RefreshRetention)

	engineCfg := cfg.Engine()
	assert.Equal(t, 7*24*time.Hour, engineCfg.Refresh.TTL)
	assert.Equal(t, []byte(secret), engineCfg.JWT.PrivateKey)
	assert.NoError(t, engineCfg.Validate())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("JWT_SECRET="+secret+"\nSTORE_BACKEND=redis\nREDIS_PREFIX=test\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("STORE_BACKEND")
		os.Unsetenv("REDIS_PREFIX")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "test", cfg.Redis.Prefix)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {"STORE_BACKEND": BackendMemory},
		"postgres without url": {"JWT_SECRET": secret, "STORE_BACKEND": BackendPostgres},
		"unknown backend":      {"JWT_SECRET": secret, "STORE_BACKEND": "sqlite"},
		"zero refresh days":    {"JWT_SECRET": secret, "STORE_BACKEND": BackendMemory, "JWT_REFRESH_EXPIRE_DAYS": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for _, k := range []string{"JWT_SECRET", "STORE_BACKEND", "DATABASE_URL"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
