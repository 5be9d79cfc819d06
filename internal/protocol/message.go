package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvAgentMode is the environment marker that tells a spawned arc process to
// run as an agent runtime instead of the normal CLI entrypoint.
const EnvAgentMode = "ARC_AGENT_MODE"

// ActionInitialize is the only command action in the protocol.
const ActionInitialize = "initialize"

// MessageType tags one line of the newline-delimited JSON control protocol.
type MessageType string

const (
	TypeCommand    MessageType = "command"
	TypeProgress   MessageType = "progress"
	TypeResult     MessageType = "result"
	TypeError      MessageType = "error"
	TypeCompletion MessageType = "completion"
)

// TaskAgentConfig is the immutable launch descriptor for one agent session.
// It is created by the orchestrator from validated caller parameters and
// consumed once by the agent runtime at startup.
type TaskAgentConfig struct {
	WorkingDir    string   `json:"working_dir"`
	Model         string   `json:"model,omitempty"`
	AllowedTools  []string `json:"allowed_tools,omitempty"`
	BlockedTools  []string `json:"blocked_tools,omitempty"`
	MaxIterations int      `json:"max_iterations"`
	Prompt        string   `json:"prompt"`
	TimeoutMs     int64    `json:"timeout_ms"`
}

// Timeout returns the configured timeout as a duration.
func (c TaskAgentConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// CommandPayload carries a parent-to-child command.
type CommandPayload struct {
	Action string          `json:"action"`
	Config *TaskAgentConfig `json:"config,omitempty"`
}

// ProgressPayload reports agent progress in true temporal order.
type ProgressPayload struct {
	Stage     string `json:"stage"`
	Message   string `json:"message,omitempty"`
	Iteration int    `json:"iteration,omitempty"`
	Tool      string `json:"tool,omitempty"`
}

// ResultPayload carries one intermediate tool result.
type ResultPayload struct {
	Tool    string `json:"tool"`
	CallID  string `json:"call_id,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorPayload carries a non-fatal diagnostic or, when Fatal is set, the
// terminal error of a session that will exit non-zero.
type ErrorPayload struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal,omitempty"`
}

// CompletionPayload is the single terminal success message of a session.
type CompletionPayload struct {
	Summary    string          `json:"summary"`
	Success    bool            `json:"success"`
	Iterations int             `json:"iterations"`
	Results    []ResultPayload `json:"results,omitempty"`
}

// Message is the decoded form of one control line. Exactly one payload field
// is non-nil, matching Type, so orchestrator dispatch is an exhaustive switch
// rather than a string-keyed lookup over untyped data.
type Message struct {
	Type MessageType
	ID   string

	Command    *CommandPayload
	Progress   *ProgressPayload
	Result     *ResultPayload
	Error      *ErrorPayload
	Completion *CompletionPayload
}

// wireMessage is the raw JSON envelope: {type, data, id?}.
type wireMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	ID   string          `json:"id,omitempty"`
}

// Decode parses and validates one protocol line.
//
// A line that is not valid JSON at all is not a protocol violation (callers
// surface it as diagnostic text); Decode reports that case with ErrNotJSON.
// A line that is valid JSON but violates the schema is an error.
func Decode(line []byte) (*Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(line, &wire); err != nil {
		return nil, ErrNotJSON
	}

	msg := &Message{Type: wire.Type, ID: wire.ID}
	switch wire.Type {
	case TypeCommand:
		var payload CommandPayload
		if err := unmarshalPayload(wire.Data, &payload); err != nil {
			return nil, err
		}
		if payload.Action != ActionInitialize {
			return nil, fmt.Errorf("unknown command action: %q", payload.Action)
		}
		if payload.Config == nil {
			return nil, fmt.Errorf("initialize command missing config")
		}
		msg.Command = &payload
	case TypeProgress:
		var payload ProgressPayload
		if err := unmarshalPayload(wire.Data, &payload); err != nil {
			return nil, err
		}
		msg.Progress = &payload
	case TypeResult:
		var payload ResultPayload
		if err := unmarshalPayload(wire.Data, &payload); err != nil {
			return nil, err
		}
		msg.Result = &payload
	case TypeError:
		var payload ErrorPayload
		if err := unmarshalPayload(wire.Data, &payload); err != nil {
			return nil, err
		}
		msg.Error = &payload
	case TypeCompletion:
		var payload CompletionPayload
		if err := unmarshalPayload(wire.Data, &payload); err != nil {
			return nil, err
		}
		msg.Completion = &payload
	default:
		return nil, fmt.Errorf("unknown message type: %q", wire.Type)
	}
	return msg, nil
}

func unmarshalPayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("message missing data payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid message payload: %w", err)
	}
	return nil
}

// Encode serializes a message to one newline-terminated protocol line.
func Encode(msg *Message) ([]byte, error) {
	var payload any
	switch msg.Type {
	case TypeCommand:
		payload = msg.Command
	case TypeProgress:
		payload = msg.Progress
	case TypeResult:
		payload = msg.Result
	case TypeError:
		payload = msg.Error
	case TypeCompletion:
		payload = msg.Completion
	default:
		return nil, fmt.Errorf("unknown message type: %q", msg.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	line, err := json.Marshal(wireMessage{Type: msg.Type, Data: data, ID: msg.ID})
	if err != nil {
		return nil, err
	}
	return append(line, '\n'), nil
}

// NewCommand builds an initialize command message.
func NewCommand(config TaskAgentConfig) *Message {
	return &Message{
		Type:    TypeCommand,
		Command: &CommandPayload{Action: ActionInitialize, Config: &config},
	}
}

// NewProgress builds a progress message.
func NewProgress(payload ProgressPayload) *Message {
	return &Message{Type: TypeProgress, Progress: &payload}
}

// NewResult builds a result message.
func NewResult(payload ResultPayload) *Message {
	return &Message{Type: TypeResult, Result: &payload}
}

// NewError builds an error message.
func NewError(message string, fatal bool) *Message {
	return &Message{Type: TypeError, Error: &ErrorPayload{Message: message, Fatal: fatal}}
}

// NewCompletion builds the terminal completion message.
func NewCompletion(payload CompletionPayload) *Message {
	return &Message{Type: TypeCompletion, Completion: &payload}
}
