package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.ProjectRoot)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 25, cfg.MaxIterations)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.True(t, cfg.ColorOutput)
	assert.False(t, cfg.Debug)
}

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.MaxIterations)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
}

func TestLoadOverlaysConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	content := `{
	"max_iterations": 50,
	"task_timeout": "2m",
	"cache_size": 64,
	"color_output": false
}`
	require.NoError(t, os.WriteFile(filepath.Join(home, "arc-config.json"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxIterations)
	assert.Equal(t, 2*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.False(t, cfg.ColorOutput)
	// Unset keys keep their defaults.
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "arc-config.json"), []byte("{not json"), 0644))

	_, err := Load()
	assert.Error(t, err)
}
