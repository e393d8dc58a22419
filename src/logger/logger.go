package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, file, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs to stdout/stderr.
// Used in plain (non-TUI) mode.
type ConsoleLogger struct {
	debug bool
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{}
}

// NewVerboseConsoleLogger also prints debug messages.
func NewVerboseConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{debug: true}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	fmt.Printf("[INFO] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Warn(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[WARN] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if c.debug {
		fmt.Printf("[DEBUG] "+msg+"\n", args...)
	}
}

// SilentLogger discards all log messages.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Warn(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}

// FileLogger writes JSON records to a size-rotated file.
// Used in TUI mode, where anything printed to the terminal would corrupt the display.
type FileLogger struct {
	logger *slog.Logger
	writer io.WriteCloser
}

// DefaultLogFile is where logs go unless the config says otherwise.
const DefaultLogFile = "/tmp/baobab.log"

// NewFileLogger opens (or creates) path and logs at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func NewFileLogger(path string, level string, rotation RotationConfig) (*FileLogger, error) {
	w, err := newRotatingWriter(path, rotation)
	if err != nil {
		return nil, err
	}
	return newFileLogger(w, level), nil
}

func newFileLogger(w io.WriteCloser, level string) *FileLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &FileLogger{
		logger: slog.New(handler).With("component", "baobab"),
		writer: w,
	}
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (f *FileLogger) Info(msg string, args ...interface{}) {
	f.logger.Info(fmt.Sprintf(msg, args...))
}

func (f *FileLogger) Warn(msg string, args ...interface{}) {
	f.logger.Warn(fmt.Sprintf(msg, args...))
}

func (f *FileLogger) Error(msg string, args ...interface{}) {
	f.logger.Error(fmt.Sprintf(msg, args...))
}

func (f *FileLogger) Debug(msg string, args ...interface{}) {
	f.logger.Debug(fmt.Sprintf(msg, args...))
}

// Close flushes and closes the underlying file.
func (f *FileLogger) Close() error {
	return f.writer.Close()
}
