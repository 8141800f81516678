// Package slogutil builds the loggers used across rubyscope. Both the
// library engine and the CLI take a *slog.Logger; this is the one place
// that decides handlers and levels.
package slogutil

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger creates a logger writing to w in the given format
// ("text" or "json"; anything else falls back to text).
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewDiscardLogger creates a logger that drops everything. Used by tests
// and as the engine default when no logger is configured.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(100)}))
}

// LevelFromString converts a config string to a slog.Level.
// Supports debug, info, warn, error (case-insensitive); unrecognized
// strings map to info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
