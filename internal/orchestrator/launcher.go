package orchestrator

import (
	"fmt"
	"os"
	"os/exec"

	"arc/internal/protocol"
)

// Launcher builds the command for one agent subprocess. The executable and
// arguments are resolved once at construction, never branched at call time.
type Launcher interface {
	Command(cfg protocol.TaskAgentConfig) (*exec.Cmd, error)
}

// SelfLauncher re-executes the current binary in agent mode, signalled
// through the environment marker.
type SelfLauncher struct {
	Executable string
	Args       []string
}

// NewSelfLauncher resolves the current executable path.
func NewSelfLauncher() (*SelfLauncher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	return &SelfLauncher{Executable: exe}, nil
}

func (l *SelfLauncher) Command(cfg protocol.TaskAgentConfig) (*exec.Cmd, error) {
	if l.Executable == "" {
		return nil, fmt.Errorf("launcher has no executable")
	}
	cmd := exec.Command(l.Executable, l.Args...)
	cmd.Dir = cfg.WorkingDir
	cmd.Env = append(os.Environ(), protocol.EnvAgentMode+"=1")
	return cmd, nil
}

// CommandLauncher launches a fixed external executable with fixed arguments.
// Used by tests and by embedders that package the agent separately.
type CommandLauncher struct {
	Executable string
	Args       []string
	Env        []string
}

func (l *CommandLauncher) Command(cfg protocol.TaskAgentConfig) (*exec.Cmd, error) {
	if l.Executable == "" {
		return nil, fmt.Errorf("launcher has no executable")
	}
	cmd := exec.Command(l.Executable, l.Args...)
	cmd.Dir = cfg.WorkingDir
	env := os.Environ()
	env = append(env, protocol.EnvAgentMode+"=1")
	env = append(env, l.Env...)
	cmd.Env = env
	return cmd, nil
}
