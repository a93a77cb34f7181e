// Package logging builds the structured loggers used across rsbrowse.
//
// The CLI takes level and format from its configuration, which honors:
//   - RSBROWSE_LOG_LEVEL: debug, info, warn, error (default: error)
//   - RSBROWSE_LOG_FORMAT: text, json (default: text)
//
// All logging goes to stderr so stdout carries only command output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logging configuration.
type Config struct {
	Level  slog.Level
	Format string    // "text" or "json"
	Output io.Writer // defaults to os.Stderr
}

// DefaultConfig returns the CLI defaults: errors only, as text, to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelError,
		Format: "text",
		Output: os.Stderr,
	}
}

// ParseLevel converts a level name to a slog.Level. Unknown names yield
// fallback.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

// New creates a logger from cfg.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(100)}))
}
