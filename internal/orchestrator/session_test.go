package orchestrator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arc/internal/protocol"
)

func TestSessionResolvesOnce(t *testing.T) {
	s := newAgentSession(nil)
	assert.False(t, s.settled())

	assert.True(t, s.resolve(protocol.CompletionPayload{Summary: "first", Success: true}))
	assert.True(t, s.settled())

	// Later settlement attempts are ignored.
	assert.False(t, s.resolve(protocol.CompletionPayload{Summary: "second"}))
	assert.False(t, s.reject(fmt.Errorf("too late")))

	summary, err := s.outcome()
	require.NoError(t, err)
	assert.Equal(t, "first", summary.Summary)
}

func TestSessionRejectsOnce(t *testing.T) {
	s := newAgentSession(nil)
	assert.True(t, s.reject(fmt.Errorf("boom")))
	assert.False(t, s.resolve(protocol.CompletionPayload{Summary: "late"}))

	summary, err := s.outcome()
	assert.Nil(t, summary)
	assert.ErrorContains(t, err, "boom")
}

func TestSessionIgnoresEventsAfterSettlement(t *testing.T) {
	s := newAgentSession(nil)
	s.appendResult(protocol.ResultPayload{Tool: "a"})
	require.True(t, s.resolve(protocol.CompletionPayload{Summary: "done", Success: true}))

	s.appendResult(protocol.ResultPayload{Tool: "b"})
	summary, _ := s.outcome()
	assert.Len(t, summary.Results, 1)
}

func TestSessionTracksHighestIteration(t *testing.T) {
	s := newAgentSession(nil)
	s.observeIteration(1)
	s.observeIteration(3)
	s.observeIteration(2)
	require.True(t, s.resolve(protocol.CompletionPayload{Summary: "done"}))

	summary, _ := s.outcome()
	assert.Equal(t, 3, summary.Iterations)
}

func TestSessionFallsBackToPayloadResults(t *testing.T) {
	s := newAgentSession(nil)
	require.True(t, s.resolve(protocol.CompletionPayload{
		Summary: "done",
		Results: []protocol.ResultPayload{{Tool: "x"}},
	}))
	summary, _ := s.outcome()
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "x", summary.Results[0].Tool)
}
