package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("API URL and listen address", func(t *testing.T) {
		t.Setenv("CONSTITUENCIES_API_URL", "http://api.local/api")
		t.Setenv("CONSTITUENCIES_LISTEN", "127.0.0.1:9999")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://api.local/api", cfg.Client.BaseURL)
		assert.Equal(t, "127.0.0.1:9999", cfg.Server.Listen)
	})

	t.Run("store backend and redis settings", func(t *testing.T) {
		t.Setenv("CONSTITUENCIES_STORE", "redis")
		t.Setenv("REDIS_ADDR", "cache:6380")
		t.Setenv("REDIS_PASS", "secret")
		t.Setenv("REDIS_DB", "3")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, BackendRedis, cfg.Store.Backend)
		assert.Equal(t, "cache:6380", cfg.Store.RedisAddr)
		assert.Equal(t, "secret", cfg.Store.RedisPassword)
		assert.Equal(t, 3, cfg.Store.RedisDB)
	})

	t.Run("unparseable REDIS_DB is ignored", func(t *testing.T) {
		t.Setenv("REDIS_DB", "three")

		cfg := DefaultConfig()
		cfg.Store.RedisDB = 1
		cfg.applyEnvOverrides()

		assert.Equal(t, 1, cfg.Store.RedisDB)
	})

	t.Run("env overrides file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644))
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CONSTITUENCIES_TEST_DOTENV=from-file\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CONSTITUENCIES_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(envPath))
	assert.Equal(t, "from-file", os.Getenv("CONSTITUENCIES_TEST_DOTENV"))

	// Existing variables win over the file
	t.Setenv("CONSTITUENCIES_TEST_DOTENV", "from-env")
	require.NoError(t, LoadDotEnv(envPath))
	assert.Equal(t, "from-env", os.Getenv("CONSTITUENCIES_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
	assert.NoError(t, LoadDotEnv(""))
}
