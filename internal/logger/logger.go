// Package logger configures the process-wide slog logger.
//
// Stdout carries the MCP protocol stream, so logs always go to stderr or to
// a file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps a level name or its three-letter alias to a slog.Level.
// Unknown names yield slog.LevelInfo and ok == false.
func ParseLevel(s string) (l slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return slog.LevelDebug, true
	case "info", "inf", "":
		return slog.LevelInfo, true
	case "warn", "wrn", "warning":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	l, _ := ParseLevel(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// Init builds the logger, installs it as the slog default and returns it
// with a close function. An empty path logs to stderr.
func Init(path, level string) (*slog.Logger, func() error, error) {
	if _, ok := ParseLevel(level); !ok {
		return nil, nil, fmt.Errorf("unknown log level %q", level)
	}

	if path == "" {
		lg := New(os.Stderr, level)
		slog.SetDefault(lg)
		return lg, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	lg := New(f, level)
	slog.SetDefault(lg)
	return lg, f.Close, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
