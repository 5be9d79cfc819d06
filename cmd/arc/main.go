package main

import (
	"context"
	"fmt"
	"os"

	"arc/internal/agentrt"
	"arc/internal/config"
	"arc/internal/logging"
	"arc/internal/protocol"
)

func main() {
	// A spawned child signals agent mode through the environment marker; it
	// must never fall through to the normal CLI entrypoint.
	if os.Getenv(protocol.EnvAgentMode) == "1" {
		runAgentMode()
		return
	}

	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runAgentMode runs the subprocess-side loop. Stdout belongs to the control
// protocol; all logging goes to stderr and the debug log.
func runAgentMode() {
	logger := logging.NewComponentLogger("AgentRuntime")
	defer logger.Close()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent mode: resolve working directory: %v\n", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cwd, config.Default(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent mode: build tool registry: %v\n", err)
		os.Exit(1)
	}

	runtime := agentrt.New(registry, agentrt.WithLogger(logger))
	if err := runtime.Run(context.Background()); err != nil {
		logger.Error("agent runtime failed: %v", err)
		os.Exit(1)
	}
}
