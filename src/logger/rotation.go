package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig controls size-based rotation of the log file.
type RotationConfig struct {
	// MaxSizeMB triggers a roll once the file would grow past it.
	MaxSizeMB int
	// MaxBackups is how many rolled files are kept next to the active one.
	MaxBackups int
}

// DefaultRotationConfig keeps two 20 MiB backups.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  20,
		MaxBackups: 2,
	}
}

// newRotatingWriter returns a rolling writer for path. The file is opened
// once up front so an unwritable path fails here instead of on the first
// log line.
func newRotatingWriter(path string, cfg RotationConfig) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	f.Close()

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}, nil
}
