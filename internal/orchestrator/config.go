package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	arcerrors "arc/internal/errors"
	"arc/internal/pathguard"
	"arc/internal/protocol"
)

const (
	// MinTimeout and MaxTimeout bound the per-session timeout.
	MinTimeout = time.Second
	MaxTimeout = 30 * time.Minute

	// MinIterations and MaxIterations bound the agent iteration cap.
	MinIterations = 1
	MaxIterations = 200

	// DefaultTimeout and DefaultIterations fill unset config fields before
	// validation.
	DefaultTimeout    = 5 * time.Minute
	DefaultIterations = 25
)

// ValidateConfig checks a task config against a project root and normalizes
// its working directory. It runs before any I/O or process spawn.
func ValidateConfig(cfg *protocol.TaskAgentConfig, root string) error {
	if strings.TrimSpace(cfg.Prompt) == "" {
		return arcerrors.NewValidation("prompt", "must not be empty")
	}

	if cfg.TimeoutMs == 0 {
		cfg.TimeoutMs = DefaultTimeout.Milliseconds()
	}
	if timeout := cfg.Timeout(); timeout < MinTimeout || timeout > MaxTimeout {
		return arcerrors.NewValidation("timeout", "%s outside [%s, %s]", timeout, MinTimeout, MaxTimeout)
	}

	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultIterations
	}
	if cfg.MaxIterations < MinIterations || cfg.MaxIterations > MaxIterations {
		return arcerrors.NewValidation("max_iterations", "%d outside [%d, %d]", cfg.MaxIterations, MinIterations, MaxIterations)
	}

	guard, err := pathguard.New(root)
	if err != nil {
		return arcerrors.NewValidation("root", "%v", err)
	}

	workDir := cfg.WorkingDir
	if workDir == "" {
		workDir = guard.Root()
	} else if !filepath.IsAbs(workDir) {
		workDir = filepath.Join(guard.Root(), workDir)
	}
	resolved, err := guard.Resolve(workDir)
	if err != nil {
		return arcerrors.NewValidation("working_dir", "%v", err)
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return arcerrors.NewValidation("working_dir", "directory does not exist: %s", cfg.WorkingDir)
	}
	cfg.WorkingDir = resolved
	return nil
}
