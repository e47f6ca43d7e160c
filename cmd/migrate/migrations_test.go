package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamecatalog/internal/config"
)

func repoMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrations_ParseAndCarryBothDirections(t *testing.T) {
	dir := repoMigrationsDir(t)

	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migrations), 2)

	for _, m := range migrations {
		b, err := os.ReadFile(m.Source)
		require.NoError(t, err)
		body := string(b)
		name := filepath.Base(m.Source)
		assert.True(t, strings.Contains(body, "-- +goose Up"), "%s has no Up section", name)
		assert.True(t, strings.Contains(body, "-- +goose Down"), "%s has no Down section", name)
	}
}

func TestMigrations_SnapshotPayloadIsBinary(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(repoMigrationsDir(t), "00001_init.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "raw_data BYTEA")
}

func TestMigrationsDir(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "")
	assert.Equal(t, "db/migrations", migrationsDir())

	t.Setenv("MIGRATIONS_DIR", "/srv/gamecatalog/migrations")
	assert.Equal(t, "/srv/gamecatalog/migrations", migrationsDir())
}

func TestLoadEnvFiles_KeepsProcessEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("DB_DSN=postgres://from-file\nSTEAM_USER_AGENT=from-file\n"), 0o600))

	t.Setenv("DB_DSN", "postgres://from-env")
	t.Setenv("STEAM_USER_AGENT", "")
	os.Unsetenv("STEAM_USER_AGENT")
	t.Chdir(tmp)

	loadEnvFiles()

	assert.Equal(t, "postgres://from-env", os.Getenv("DB_DSN"))
	assert.Equal(t, "from-file", os.Getenv("STEAM_USER_AGENT"))
}

func TestRun_SQLiteBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	cfg := config.Config{DBDriver: config.DriverSQLite, DBDSN: path}

	require.NoError(t, run(context.Background(), cfg, "up", "", discardLogger()))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRun_CreateRequiresName(t *testing.T) {
	err := run(context.Background(), config.Config{}, "create", "", discardLogger())
	assert.ErrorContains(t, err, "name is required")
}
