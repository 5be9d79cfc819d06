package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Logger defines a minimal, printf-style logging contract.
//
// Core components depend on this interface and receive an instance through
// their constructors; nothing in the runtime reaches for a package-level
// singleton.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// FileLogger provides component-scoped logging to arc-debug.log and an
// optional mirror writer.
//
// Log output never goes to stdout: in agent mode stdout carries the control
// protocol, so diagnostics are mirrored to stderr instead.
type FileLogger struct {
	file      *os.File
	logger    *log.Logger
	mirror    io.Writer
	level     LogLevel
	mu        sync.Mutex
	component string
}

// NewComponentLogger creates a logger for a specific component, writing to
// arc-debug.log in the user home directory and mirroring to stderr.
func NewComponentLogger(component string) *FileLogger {
	l := &FileLogger{
		level:     INFO,
		component: component,
		mirror:    os.Stderr,
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return l
	}
	logPath := filepath.Join(home, "arc-debug.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return l
	}
	l.file = file
	l.logger = log.New(file, "", 0) // formatted below
	return l
}

// NewWriterLogger creates a component logger that writes to w only. Used by
// tests and by the CLI when a debug log file is not wanted.
func NewWriterLogger(component string, w io.Writer) *FileLogger {
	return &FileLogger{level: DEBUG, component: component, mirror: w}
}

// SetLevel sets the minimum log level.
func (l *FileLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close closes the underlying log file.
func (l *FileLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *FileLogger) log(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	// Format: 2025-09-30 12:34:56 [INFO] [Orchestrator] file.go:123 - Message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	component := l.component
	if component == "" {
		component = "ARC"
	}
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("%s [%s] [%s] %s:%d - %s\n",
		timestamp, levelToString(level), component, file, line, message)

	if l.logger != nil {
		l.logger.Print(logLine)
	}
	if l.mirror != nil {
		fmt.Fprint(l.mirror, logLine)
	}
}

// Debug logs a debug message
func (l *FileLogger) Debug(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *FileLogger) Info(format string, args ...any) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *FileLogger) Warn(format string, args ...any) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *FileLogger) Error(format string, args ...any) {
	l.log(ERROR, format, args...)
}

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
