package protocol

import (
	"bufio"
	"errors"
	"io"
)

// ErrNotJSON marks a line that is not a protocol message at all. Such lines
// are surfaced as plain diagnostic output, not treated as errors.
var ErrNotJSON = errors.New("line is not a JSON protocol message")

// maxLineSize bounds one protocol line. Tool results are truncated by the
// runtime well below this.
const maxLineSize = 4 * 1024 * 1024

// Scanner reads newline-delimited protocol messages from a byte stream,
// buffering partial lines until a full one arrives.
type Scanner struct {
	scanner *bufio.Scanner
}

// NewScanner wraps r for protocol reading.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{scanner: s}
}

// Next returns the next complete line, decoded when it is a protocol message.
//
// For a line that is not valid JSON, Next returns (nil, line, nil) so the
// caller can surface it as diagnostic text. io.EOF is returned when the
// stream ends.
func (s *Scanner) Next() (*Message, string, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(trimSpace(line)) == 0 {
			continue
		}
		msg, err := Decode(line)
		if err != nil {
			if errors.Is(err, ErrNotJSON) {
				return nil, string(line), nil
			}
			// Valid JSON but schema-invalid: surface as diagnostic too, the
			// stream itself stays usable.
			return nil, string(line), nil
		}
		return msg, "", nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, "", err
	}
	return nil, "", io.EOF
}

// Writer serializes messages to newline-delimited protocol lines.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for protocol writing.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes and writes one message.
func (w *Writer) Write(msg *Message) error {
	line, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.w.Write(line)
	return err
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && (b[start] == ' ' || b[start] == '\t' || b[start] == '\r') {
		start++
	}
	end := len(b)
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t' || b[end-1] == '\r') {
		end--
	}
	return b[start:end]
}
