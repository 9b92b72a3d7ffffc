package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no stray .env is read.
func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	for _, key := range []string{"SERVER_PORT", "STORE_DRIVER", "SQLITE_PATH", "STORE_AUTO_MIGRATE", "LOG_LEVEL", "DB_NAME", "NEW_RELIC_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "cars", cfg.Database.DBName)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "cars.db", cfg.Store.SQLitePath)
	assert.True(t, cfg.Store.AutoMigrate)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.NewRelic.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_WRITE_TIMEOUT", "3s")
	t.Setenv("STORE_DRIVER", DriverSQLite)
	t.Setenv("SQLITE_PATH", "/tmp/garage.db")
	t.Setenv("STORE_AUTO_MIGRATE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/garage.db", cfg.Store.SQLitePath)
	assert.False(t, cfg.Store.AutoMigrate)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SERVER_READ_TIMEOUT", "soon")
	t.Setenv("STORE_AUTO_MIGRATE", "maybe")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Store.AutoMigrate)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := chdirTemp(t)
	// godotenv never overrides a variable that is present, even when empty.
	t.Setenv("STORE_DRIVER", "")
	require.NoError(t, os.Unsetenv("STORE_DRIVER"))
	t.Setenv("DB_NAME", "from-env")

	content := "STORE_DRIVER=memory\nDB_NAME=from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg := Load()

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "from-env", cfg.Database.DBName)
}
