package config_test

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icetype/icetype/internal/config"
)

//go:embed testdata/*.yaml
var configSamples embed.FS

func writeSample(t *testing.T, name string) string {
	t.Helper()

	data, err := configSamples.ReadFile(filepath.Join("testdata", name))
	require.NoErrorf(t, err, "failed to read embedded sample %s", name)

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

func TestLoadConfigFull(t *testing.T) {
	path := writeSample(t, "full.yaml")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"models/*.yaml", "extra/orders.yaml"}, cfg.Schemas)
	assert.Equal(t, "db/migrations", cfg.MigrationsDir)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 250, cfg.Watch.DebounceMS)

	require.Len(t, cfg.Targets, 3)
	assert.Equal(t, "postgres", cfg.Targets[0].Dialect, "pg normalizes to postgres")
	assert.Equal(t, "out/postgres", cfg.Targets[0].Output)
	assert.Equal(t, "typescript", cfg.Targets[1].Dialect)
	assert.Equal(t, "generated/typescript", cfg.Targets[1].Output, "missing output derives from the dialect")
	assert.Equal(t, "clickhouse", cfg.Targets[2].Dialect, "dialect names are case insensitive")
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeSample(t, "minimal.yaml")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"schemas/*.yaml", "schemas/*.yml"}, cfg.Schemas)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "generated/postgres", cfg.Targets[0].Output)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets: [[[\n"), 0o644))

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadOrDefault(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := config.LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "migrations", cfg.MigrationsDir, "a missing project file falls back to defaults")

	_, err = config.LoadOrDefault("explicit-missing.yaml")
	require.Error(t, err, "an explicit path that does not exist is still an error")
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.Default()
	assert.NotEmpty(t, cfg.Schemas)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Empty(t, cfg.Targets)
}
