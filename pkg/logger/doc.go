// Package logger builds the slog loggers used by queues, the service core and
// workers.
//
// Loggers write JSON to stdout and always carry two context extractors:
// [QueueExtractor] and [JobExtractor]. A processor that stores its job in the
// context with [WithJob] gets "queue" and "job_id" on every record without
// passing them around.
//
// # Usage
//
//	log := logger.New()
//
//	processor := func(ctx context.Context, j *job.Job) (any, error) {
//	    ctx = logger.WithJob(ctx, j.Queue, j.ID)
//	    log.InfoContext(ctx, "processing")
//	    return nil, nil
//	}
//
// Extra extractors can be passed to any constructor:
//
//	tenant := func(ctx context.Context) (slog.Attr, bool) { ... }
//	log := logger.New(tenant)
//
// # Sentry
//
// [NewWithSentry] adds a Sentry handler next to stdout. Errors create issues;
// warnings are kept as logs when MinLevel allows them. With an empty DSN the
// logger behaves like [NewWithLevel], so the same wiring works locally.
//
//	log := logger.NewWithSentry(logger.SentryConfig{
//	    DSN:      os.Getenv("SENTRY_DSN"),
//	    MinLevel: slog.LevelWarn,
//	})
package logger
