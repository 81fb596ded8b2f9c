package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	Release     string `env:"SENTRY_RELEASE"`
	// MinLevel selects what reaches Sentry: slog.LevelWarn sends warnings and
	// errors, slog.LevelError sends errors only.
	MinLevel slog.Level
	// Level of the stdout handler.
	Level slog.Level
}

// NewWithSentry creates a logger that writes to stdout and Sentry.
// Without a DSN, or when Sentry fails to initialize, it logs to stdout only.
// Failed jobs are logged at error level and become Sentry issues tagged with
// their queue and job id.
func NewWithSentry(cfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	out := stdout(cfg.Level)
	extractors = withJobExtractors(extractors)

	if cfg.DSN == "" {
		return slog.New(NewLogHandlerDecorator(out, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		slog.New(out).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(out, extractors...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(NewLogHandlerDecorator(fanout{out, sentryHandler}, extractors...))
}
