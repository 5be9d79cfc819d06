package orchestrator

import (
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"arc/internal/protocol"
)

// AgentSummary is the final aggregated outcome of one completed session.
type AgentSummary struct {
	SessionID  string                   `json:"session_id"`
	Summary    string                   `json:"summary"`
	Success    bool                     `json:"success"`
	Iterations int                      `json:"iterations"`
	Results    []protocol.ResultPayload `json:"results,omitempty"`
	Duration   time.Duration            `json:"duration"`
}

type resolutionState int

const (
	statePending resolutionState = iota
	stateResolved
	stateRejected
)

// agentSession owns the supervised child for the lifetime of one Run call:
// the process handle, accumulated intermediate results, counters, and the
// resolution state. It settles at most once; everything arriving afterwards
// is ignored.
type agentSession struct {
	id        string
	cmd       *exec.Cmd
	startedAt time.Time

	mu         sync.Mutex
	state      resolutionState
	iterations int
	results    []protocol.ResultPayload
	summary    *AgentSummary
	err        error
}

func newAgentSession(cmd *exec.Cmd) *agentSession {
	return &agentSession{
		id:        uuid.NewString(),
		cmd:       cmd,
		startedAt: time.Now(),
	}
}

func (s *agentSession) appendResult(payload protocol.ResultPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != statePending {
		return
	}
	s.results = append(s.results, payload)
}

func (s *agentSession) observeIteration(iteration int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if iteration > s.iterations {
		s.iterations = iteration
	}
}

// resolve settles the session with a completion payload. Returns false when
// the session already settled.
func (s *agentSession) resolve(payload protocol.CompletionPayload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != statePending {
		return false
	}
	s.state = stateResolved
	iterations := payload.Iterations
	if iterations == 0 {
		iterations = s.iterations
	}
	results := s.results
	if len(results) == 0 {
		results = payload.Results
	}
	s.summary = &AgentSummary{
		SessionID:  s.id,
		Summary:    payload.Summary,
		Success:    payload.Success,
		Iterations: iterations,
		Results:    results,
		Duration:   time.Since(s.startedAt),
	}
	return true
}

// reject settles the session with an error. Returns false when the session
// already settled.
func (s *agentSession) reject(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != statePending {
		return false
	}
	s.state = stateRejected
	s.err = err
	return true
}

func (s *agentSession) settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != statePending
}

func (s *agentSession) outcome() (*AgentSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.err
}
