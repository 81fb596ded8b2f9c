package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a JSON logger on stdout at info level.
// The queue and job extractors are always installed.
func New(extractors ...ContextExtractor) *slog.Logger {
	return NewWithLevel(slog.LevelInfo, extractors...)
}

// NewWithLevel creates a JSON logger on stdout at the given level.
func NewWithLevel(level slog.Level, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewLogHandlerDecorator(stdout(level), withJobExtractors(extractors)...))
}

// NewNope creates a logger that discards all output.
// Components use it when no logger is configured.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stdout(level slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}

func withJobExtractors(extractors []ContextExtractor) []ContextExtractor {
	return append([]ContextExtractor{QueueExtractor, JobExtractor}, extractors...)
}
