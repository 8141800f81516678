package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rubyscope.yaml"), []byte(content), 0644))
	return dir
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := writeConfig(t, `
exclude:
  - vendor
  - spec/fixtures
parallelism: 4
logging:
  format: json
  level: debug
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor", "spec/fixtures"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, ".rubyscope/index.db", cfg.Snapshot.Path)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := writeConfig(t, "exclude: [unclosed")

	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	dir := writeConfig(t, "parallelism: -1")
	_, err := Load(dir)
	require.Error(t, err)

	dir = writeConfig(t, "logging:\n  format: xml")
	_, err = Load(dir)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Parallelism = -2
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Format = "yaml"
	require.Error(t, cfg.Validate())
}
