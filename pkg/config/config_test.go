package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractoproj/pkg/dictionary"
	"tractoproj/pkg/projection"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, dictionary.MaxThreads, cfg.Processing.Threads)
	assert.Equal(t, dictionary.Counts{IC: 1, EC: 1, ISO: 1}, cfg.Counts())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "tractoproj.yaml")

	cfg := DefaultConfig()
	cfg.Compartments.IC = 3
	cfg.Compartments.ISO = 0
	cfg.Processing.Threads = 12
	cfg.Processing.Checked = true
	cfg.Output.SlicesDir = "slices"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, projection.Config{
		Counts:  dictionary.Counts{IC: 3, EC: 1, ISO: 0},
		Threads: 12,
		Checked: true,
	}, loaded.EngineConfig())
}

func TestLoadConfigRejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processing:\n  threads: 32\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, projection.ErrConfigOutOfRange)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compartments: [1, 2"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
