package agentrt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	arcerrors "arc/internal/errors"
	"arc/internal/logging"
	"arc/internal/protocol"
	"arc/internal/tools"
)

// maxResultContent bounds tool output carried on one protocol line.
const maxResultContent = 64 * 1024

// Runtime is the subprocess-side execution loop. It reads exactly one
// initialize command from its input, executes the task's tool calls through
// the registry, and emits progress, result and exactly one terminal
// completion or fatal error on its output.
type Runtime struct {
	registry tools.Registry
	logger   logging.Logger
	in       io.Reader
	out      io.Writer
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithIO overrides the default stdin/stdout streams. Used by tests to drive
// the loop in-process.
func WithIO(in io.Reader, out io.Writer) RuntimeOption {
	return func(r *Runtime) {
		r.in = in
		r.out = out
	}
}

// WithLogger sets the component logger. Log output goes to stderr and the
// debug log, never to the protocol stream.
func WithLogger(l logging.Logger) RuntimeOption {
	return func(r *Runtime) { r.logger = logging.OrNop(l) }
}

// New creates an agent runtime executing against registry.
func New(registry tools.Registry, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		registry: registry,
		logger:   logging.Nop(),
		in:       os.Stdin,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives one agent session to completion. A terminate signal is treated
// as a request to emit a final error event and return promptly; the caller
// exits non-zero on any returned error.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	out := protocol.NewWriter(r.out)

	cfg, err := r.handshake(ctx)
	if err != nil {
		_ = out.Write(protocol.NewError(err.Error(), true))
		return &arcerrors.ProcessError{Stage: "handshake", Err: err}
	}
	r.logger.Info("agent initialized dir=%s max_iterations=%d", cfg.WorkingDir, cfg.MaxIterations)

	_ = out.Write(protocol.NewProgress(protocol.ProgressPayload{
		Stage:   "initialized",
		Message: "agent runtime ready",
	}))

	registry := tools.Filtered(r.registry, cfg.AllowedTools, cfg.BlockedTools)
	plan := ParsePlan(cfg.Prompt)
	if len(plan) > cfg.MaxIterations {
		plan = plan[:cfg.MaxIterations]
	}

	var results []protocol.ResultPayload
	failed := 0
	for i, planned := range plan {
		select {
		case <-ctx.Done():
			_ = out.Write(protocol.NewError("terminated before completion", true))
			return &arcerrors.CancellationError{Err: ctx.Err()}
		default:
		}

		iteration := i + 1
		_ = out.Write(protocol.NewProgress(protocol.ProgressPayload{
			Stage:     "tool_call",
			Message:   fmt.Sprintf("executing %s", planned.Tool),
			Iteration: iteration,
			Tool:      planned.Tool,
		}))

		call := tools.ToolCall{
			ID:        uuid.NewString(),
			Name:      planned.Tool,
			Arguments: planned.Args,
		}
		payload := protocol.ResultPayload{Tool: planned.Tool, CallID: call.ID}

		result, err := tools.ExecuteToolCall(ctx, registry, call)
		switch {
		case err != nil:
			payload.Error = err.Error()
		case result.Error != nil:
			payload.Error = result.Error.Error()
			payload.Content = truncate(result.Content)
		default:
			payload.Content = truncate(result.Content)
		}
		if payload.Error != "" {
			failed++
			r.logger.Warn("tool %s failed: %s", planned.Tool, payload.Error)
		}
		results = append(results, payload)
		_ = out.Write(protocol.NewResult(payload))
	}

	summary := fmt.Sprintf("completed %d tool call(s), %d failed", len(results), failed)
	if len(plan) == 0 {
		summary = "no executable tool calls found in task prompt"
	}
	return out.Write(protocol.NewCompletion(protocol.CompletionPayload{
		Summary:    summary,
		Success:    failed == 0,
		Iterations: len(results),
		Results:    results,
	}))
}

// handshake reads the single initialize command. Anything else on the first
// line is a malformed handshake.
func (r *Runtime) handshake(ctx context.Context) (protocol.TaskAgentConfig, error) {
	type handshakeResult struct {
		cfg protocol.TaskAgentConfig
		err error
	}
	ch := make(chan handshakeResult, 1)

	go func() {
		scanner := protocol.NewScanner(r.in)
		msg, diag, err := scanner.Next()
		switch {
		case err != nil:
			ch <- handshakeResult{err: fmt.Errorf("read initialize command: %w", err)}
		case msg == nil:
			ch <- handshakeResult{err: fmt.Errorf("malformed handshake line: %q", diag)}
		case msg.Type != protocol.TypeCommand:
			ch <- handshakeResult{err: fmt.Errorf("expected initialize command, got %q", msg.Type)}
		default:
			ch <- handshakeResult{cfg: *msg.Command.Config}
		}
	}()

	select {
	case res := <-ch:
		return res.cfg, res.err
	case <-ctx.Done():
		return protocol.TaskAgentConfig{}, fmt.Errorf("terminated while waiting for initialize command")
	}
}

func truncate(s string) string {
	if len(s) <= maxResultContent {
		return s
	}
	return s[:maxResultContent] + "\n... (truncated)"
}
