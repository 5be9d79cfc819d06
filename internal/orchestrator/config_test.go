package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arcerrors "arc/internal/errors"
	"arc/internal/protocol"
)

func TestValidateConfigFillsDefaults(t *testing.T) {
	root := t.TempDir()
	cfg := protocol.TaskAgentConfig{Prompt: "do it"}
	require.NoError(t, ValidateConfig(&cfg, root))

	assert.Equal(t, DefaultTimeout, cfg.Timeout())
	assert.Equal(t, DefaultIterations, cfg.MaxIterations)
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, resolved, cfg.WorkingDir)
}

func TestValidateConfigEmptyPrompt(t *testing.T) {
	cfg := protocol.TaskAgentConfig{Prompt: "   "}
	err := ValidateConfig(&cfg, t.TempDir())
	assert.True(t, arcerrors.IsValidation(err))
}

func TestValidateConfigTimeoutBounds(t *testing.T) {
	root := t.TempDir()

	cfg := protocol.TaskAgentConfig{Prompt: "x", TimeoutMs: 10}
	assert.True(t, arcerrors.IsValidation(ValidateConfig(&cfg, root)))

	cfg = protocol.TaskAgentConfig{Prompt: "x", TimeoutMs: (31 * time.Minute).Milliseconds()}
	assert.True(t, arcerrors.IsValidation(ValidateConfig(&cfg, root)))

	cfg = protocol.TaskAgentConfig{Prompt: "x", TimeoutMs: time.Second.Milliseconds()}
	assert.NoError(t, ValidateConfig(&cfg, root))
}

func TestValidateConfigIterationBounds(t *testing.T) {
	root := t.TempDir()

	cfg := protocol.TaskAgentConfig{Prompt: "x", MaxIterations: -1}
	assert.True(t, arcerrors.IsValidation(ValidateConfig(&cfg, root)))

	cfg = protocol.TaskAgentConfig{Prompt: "x", MaxIterations: MaxIterations + 1}
	assert.True(t, arcerrors.IsValidation(ValidateConfig(&cfg, root)))
}

func TestValidateConfigRelativeWorkingDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))

	cfg := protocol.TaskAgentConfig{Prompt: "x", WorkingDir: "sub"}
	require.NoError(t, ValidateConfig(&cfg, root))
	assert.True(t, filepath.IsAbs(cfg.WorkingDir))
	assert.Equal(t, "sub", filepath.Base(cfg.WorkingDir))
}

func TestValidateConfigWorkingDirOutsideRoot(t *testing.T) {
	cfg := protocol.TaskAgentConfig{Prompt: "x", WorkingDir: "/tmp"}
	err := ValidateConfig(&cfg, t.TempDir())
	assert.True(t, arcerrors.IsValidation(err))
}

func TestValidateConfigMissingWorkingDir(t *testing.T) {
	root := t.TempDir()
	cfg := protocol.TaskAgentConfig{Prompt: "x", WorkingDir: "does-not-exist"}
	err := ValidateConfig(&cfg, root)
	assert.True(t, arcerrors.IsValidation(err))
}
