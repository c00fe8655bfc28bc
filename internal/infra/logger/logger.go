// Package logger builds the process *slog.Logger: JSON for services,
// charmbracelet/log for people at a terminal.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Option configures a logger created with New.
type Option func(*options)

type options struct {
	level  slog.Level
	format string
	w      io.Writer
	source bool
}

// WithLevel parses "debug", "info", "warn" or "error"; anything else is info.
func WithLevel(level string) Option {
	return func(o *options) { o.level = ParseLevel(level) }
}

// WithFormat selects "json", "pretty" or "text".
func WithFormat(format string) Option {
	return func(o *options) { o.format = strings.ToLower(format) }
}

// WithWriter overrides the output writer. Defaults to os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.w = w }
}

// WithSource includes file:line in log output.
func WithSource(source bool) Option {
	return func(o *options) { o.source = source }
}

// New creates a logger.
func New(opts ...Option) *slog.Logger {
	o := options{level: slog.LevelInfo, format: "json", w: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	switch o.format {
	case "pretty":
		h := charmlog.NewWithOptions(o.w, charmlog.Options{
			Level:           charmlog.Level(o.level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			ReportCaller:    o.source,
		})
		return slog.New(h)
	case "text":
		return slog.New(slog.NewTextHandler(o.w, &slog.HandlerOptions{Level: o.level, AddSource: o.source}))
	default:
		return slog.New(slog.NewJSONHandler(o.w, &slog.HandlerOptions{Level: o.level, AddSource: o.source}))
	}
}

// Nop discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
