// Package logging provides a tiny abstraction over slog so the simulator's
// packages depend on a minimal interface (Logger) while callers can plug any
// structured logger. A NoOpLogger keeps tests and library defaults silent.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the minimal structured logging interface used across the module.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement Logger.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from an existing *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// Config controls construction of the default JSON logger.
type Config struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// New builds a Logger writing structured records to Output (stdout default).
func New(cfg *Config) Logger {
	if cfg == nil {
		cfg = &Config{Level: slog.LevelInfo, Format: "json"}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// WithSession returns a logger that stamps every record with the session id.
func WithSession(l Logger, sessionID string) Logger {
	if sa, ok := l.(*SlogAdapter); ok {
		return NewSlogAdapter(sa.Logger.With(slog.String("session_id", sessionID)))
	}
	return l
}

// LogCollaboratorCall records one generation call's outcome for a persona.
func LogCollaboratorCall(l Logger, personaID string, dur time.Duration, err error) {
	if err != nil {
		l.Warn("collaborator call failed", "persona_id", personaID, "duration", dur, "error", err.Error())
		return
	}
	l.Debug("collaborator call completed", "persona_id", personaID, "duration", dur)
}

// NoOpLogger discards all records. Library default and test logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}
