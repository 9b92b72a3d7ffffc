package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cars/internal/app"
	"cars/internal/config"
)

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate_SQLiteLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.db")
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.DriverPostgres}}
	flags := []string{"--driver", config.DriverSQLite, "--sqlite-path", path}

	out, err := run(t, cfg, append([]string{"migrate", "status"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "00001_create_cars.sql")

	out, err = run(t, cfg, append([]string{"migrate", "up"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	out, err = run(t, cfg, append([]string{"migrate", "status"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "applied")

	out, err = run(t, cfg, append([]string{"migrate", "down"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")

	out, err = run(t, cfg, append([]string{"migrate", "version"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")
}

func TestMigrate_MemoryDriverRejected(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.DriverMemory}}

	_, err := run(t, cfg, "migrate", "up")
	assert.ErrorIs(t, err, app.ErrNoDatabase)
}
