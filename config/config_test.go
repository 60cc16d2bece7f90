package config_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OEduardoGL/lps-ecommerce/config"
)

// chdir moves into dir for the rest of the test so .env lookups stay isolated.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"LOG_LEVEL", "STORAGE_BACKEND", "DATABASE_URL", "LPS_VARIANT", "DISPATCH_WORKERS", "SHUTDOWN_TIMEOUT", "SEED_ON_START", "GRPC_PORT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := config.LoadConfig(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, config.BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "standard", cfg.Variant)
	assert.Equal(t, 8, cfg.DispatchWorkers)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Nil(t, cfg.SeedOnStart)
	assert.True(t, cfg.ShouldSeed())
	assert.Empty(t, cfg.GrpcPort)
}

func TestShouldSeedDependsOnBackend(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SEED_ON_START", "")
	require.NoError(t, os.Unsetenv("SEED_ON_START"))
	t.Setenv("STORAGE_BACKEND", config.BackendPostgres)
	t.Setenv("DATABASE_URL", "postgres://lps@localhost/lps?sslmode=disable")

	cfg, err := config.LoadConfig(quietLogger())
	require.NoError(t, err)
	assert.False(t, cfg.ShouldSeed(), "postgres keeps its data across restarts")

	t.Setenv("SEED_ON_START", "true")
	cfg, err = config.LoadConfig(quietLogger())
	require.NoError(t, err)
	assert.True(t, cfg.ShouldSeed())

	t.Setenv("STORAGE_BACKEND", config.BackendMemory)
	t.Setenv("SEED_ON_START", "false")
	cfg, err = config.LoadConfig(quietLogger())
	require.NoError(t, err)
	assert.False(t, cfg.ShouldSeed())
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("LPS_VARIANT", "")
	require.NoError(t, os.Unsetenv("LPS_VARIANT"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LPS_VARIANT=premium\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("LPS_VARIANT") })

	cfg, err := config.LoadConfig(quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "premium", cfg.Variant)
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := config.LoadConfig(quietLogger())
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORAGE_BACKEND", "redis")
	_, err = config.LoadConfig(quietLogger())
	assert.ErrorContains(t, err, "STORAGE_BACKEND")

	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("DISPATCH_WORKERS", "0")
	_, err = config.LoadConfig(quietLogger())
	assert.ErrorContains(t, err, "DISPATCH_WORKERS")

	t.Setenv("DISPATCH_WORKERS", "2")
	t.Setenv("LOG_LEVEL", "loud")
	_, err = config.LoadConfig(quietLogger())
	assert.Error(t, err)
}
