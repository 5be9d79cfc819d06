package orchestrator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	arcerrors "arc/internal/errors"
	"arc/internal/logging"
	"arc/internal/protocol"
)

// ProgressSink receives progress events in the order the agent emitted them.
type ProgressSink func(protocol.ProgressPayload)

// DiagnosticSink receives non-protocol child output and non-fatal agent
// errors as plain text.
type DiagnosticSink func(line string)

const (
	defaultInitDelay = 100 * time.Millisecond
	defaultTermGrace = 5 * time.Second
)

// Orchestrator spawns, supervises and cancels agent subprocesses. One child
// per Run call; sessions are never shared across invocations.
type Orchestrator struct {
	root      string
	launcher  Launcher
	logger    logging.Logger
	initDelay time.Duration
	termGrace time.Duration
	progress  ProgressSink
	diags     DiagnosticSink
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLauncher overrides the default self-executing launcher.
func WithLauncher(l Launcher) Option {
	return func(o *Orchestrator) { o.launcher = l }
}

// WithLogger sets the component logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(l) }
}

// WithProgressSink forwards agent progress events to sink.
func WithProgressSink(sink ProgressSink) Option {
	return func(o *Orchestrator) { o.progress = sink }
}

// WithDiagnosticSink forwards unstructured child output to sink.
func WithDiagnosticSink(sink DiagnosticSink) Option {
	return func(o *Orchestrator) { o.diags = sink }
}

// WithTermGrace sets the window between the graceful terminate signal and the
// forced kill.
func WithTermGrace(d time.Duration) Option {
	return func(o *Orchestrator) { o.termGrace = d }
}

// WithInitDelay sets the grace delay between spawn and the initialize
// command, letting the child attach its stdin reader first.
func WithInitDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.initDelay = d }
}

// New creates an orchestrator confined to the given project root.
func New(root string, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		root:      root,
		logger:    logging.Nop(),
		initDelay: defaultInitDelay,
		termGrace: defaultTermGrace,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.launcher == nil {
		launcher, err := NewSelfLauncher()
		if err != nil {
			return nil, err
		}
		o.launcher = launcher
	}
	return o, nil
}

// Run executes one agent task to settlement. It settles exactly once, on the
// first of: completion message, child exit before completion, spawn failure,
// timeout, or cancellation. On the rejecting paths the child has been
// signaled for termination before Run returns, and is force-killed within one
// grace window if it ignores the signal.
func (o *Orchestrator) Run(ctx context.Context, cfg protocol.TaskAgentConfig) (*AgentSummary, error) {
	if err := ValidateConfig(&cfg, o.root); err != nil {
		return nil, err
	}

	cmd, err := o.launcher.Command(cfg)
	if err != nil {
		return nil, &arcerrors.ProcessError{Stage: "spawn", Err: err}
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &arcerrors.ProcessError{Stage: "pipe", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &arcerrors.ProcessError{Stage: "pipe", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &arcerrors.ProcessError{Stage: "pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &arcerrors.ProcessError{Stage: "spawn", Err: err}
	}

	session := newAgentSession(cmd)
	o.logger.Info("spawned agent pid=%d session=%s timeout=%s", cmd.Process.Pid, session.id, cfg.Timeout())

	completionCh := make(chan protocol.CompletionPayload, 1)
	procDone := make(chan struct{})
	var procErr error

	var readers errgroup.Group
	readers.Go(func() error {
		o.pumpStdout(session, stdout, completionCh)
		return nil
	})
	readers.Go(func() error {
		o.pumpStderr(stderr)
		return nil
	})
	go func() {
		// Wait must run after both pipe readers have drained.
		_ = readers.Wait()
		procErr = cmd.Wait()
		close(procDone)
	}()

	go o.sendInit(ctx, stdin, cfg)

	var termOnce sync.Once
	terminate := func() {
		termOnce.Do(func() { o.terminate(session.id, cmd, procDone) })
	}

	timer := time.NewTimer(cfg.Timeout())
	defer timer.Stop()

	select {
	case payload := <-completionCh:
		session.resolve(payload)
		terminate()
	case <-procDone:
		// Readers finished first, so a completion written before exit is
		// already buffered. Prefer it over the exit status.
		select {
		case payload := <-completionCh:
			session.resolve(payload)
		default:
			err := procErr
			if err == nil {
				err = fmt.Errorf("process exited cleanly before completion")
			}
			session.reject(&arcerrors.ProcessError{Stage: "exit", ExitCode: exitCode(procErr), Err: err})
		}
	case <-timer.C:
		terminate()
		session.reject(&arcerrors.TimeoutError{Limit: cfg.Timeout()})
	case <-ctx.Done():
		terminate()
		session.reject(&arcerrors.CancellationError{Err: ctx.Err()})
	}

	return session.outcome()
}

// sendInit writes the initialize command after a short grace delay.
func (o *Orchestrator) sendInit(ctx context.Context, stdin io.WriteCloser, cfg protocol.TaskAgentConfig) {
	defer stdin.Close()
	select {
	case <-time.After(o.initDelay):
	case <-ctx.Done():
		return
	}
	if err := protocol.NewWriter(stdin).Write(protocol.NewCommand(cfg)); err != nil {
		o.logger.Warn("failed to send initialize command: %v", err)
	}
}

// pumpStdout parses the child's stdout line stream and dispatches messages.
// Lines that are not protocol messages are surfaced as diagnostics. Messages
// arriving after settlement are ignored.
func (o *Orchestrator) pumpStdout(session *agentSession, r io.Reader, completionCh chan<- protocol.CompletionPayload) {
	scanner := protocol.NewScanner(r)
	for {
		msg, diag, err := scanner.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				o.logger.Warn("agent stdout read failed: %v", err)
			}
			return
		}
		if msg == nil {
			o.diagnostic(diag)
			continue
		}
		if session.settled() {
			continue
		}
		switch msg.Type {
		case protocol.TypeProgress:
			session.observeIteration(msg.Progress.Iteration)
			if o.progress != nil {
				o.progress(*msg.Progress)
			}
		case protocol.TypeResult:
			session.appendResult(*msg.Result)
		case protocol.TypeError:
			// Non-fatal by itself; a fatal error is followed by a non-zero
			// exit which settles the session.
			o.diagnostic("agent error: " + msg.Error.Message)
		case protocol.TypeCompletion:
			select {
			case completionCh <- *msg.Completion:
			default:
			}
		case protocol.TypeCommand:
			o.diagnostic("unexpected command message from agent")
		}
	}
}

func (o *Orchestrator) pumpStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		o.diagnostic(scanner.Text())
	}
}

func (o *Orchestrator) diagnostic(line string) {
	if line == "" {
		return
	}
	if o.diags != nil {
		o.diags(line)
	} else {
		o.logger.Debug("agent: %s", line)
	}
}

// terminate sends the graceful terminate signal and schedules a forced kill
// after the grace window. Safe to call on an already-exited child.
func (o *Orchestrator) terminate(sessionID string, cmd *exec.Cmd, procDone <-chan struct{}) {
	if cmd.Process == nil {
		return
	}
	o.logger.Debug("terminating agent session=%s pid=%d", sessionID, cmd.Process.Pid)
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		o.logger.Warn("terminate signal failed: %v", err)
	}
	grace := o.termGrace
	go func() {
		select {
		case <-procDone:
		case <-time.After(grace):
			_ = cmd.Process.Kill()
		}
	}()
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
