package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tasks/internal"
	"github.com/dmitrymomot/tasks/pkg/job"
)

// WithPool backs every queue with River on the given pool.
func WithPool(pool *pgxpool.Pool) Option {
	return internal.WithPool(pool)
}

// WithHandleFactory replaces the queue engine. WithPool is the usual choice.
func WithHandleFactory(f HandleFactory) Option {
	return internal.WithHandleFactory(f)
}

// WithLogger sets the logger for the service and its queues.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithPaginate sets the page size policy used by Find.
func WithPaginate(p Paginate) Option {
	return internal.WithPaginate(p)
}

// WithDefaultJobOptions sets options applied to every created job.
func WithDefaultJobOptions(o JobOptions) Option {
	return internal.WithDefaultJobOptions(o)
}

// WithQueueOptions adds engine options applied to every queue.
func WithQueueOptions(opts ...job.Option) Option {
	return internal.WithQueueOptions(opts...)
}

// WithSink adds a receiver called for every bridged event.
func WithSink(s Sink) Option {
	return internal.WithSink(s)
}

// LogSink returns a Sink logging every event.
func LogSink(l *slog.Logger) Sink {
	return internal.LogSink(l)
}

// WithRemoveConcurrency caps parallel deletes in RemoveMany.
func WithRemoveConcurrency(n int) Option {
	return internal.WithRemoveConcurrency(n)
}

// Logger sets the runtime logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// BaseContext sets the parent of the signal-aware context.
// Useful for testing or when integrating with existing context hierarchies.
func BaseContext(ctx context.Context) RunOption {
	return internal.BaseContext(ctx)
}

// ShutdownTimeout bounds queue shutdown plus shutdown hooks.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs before the queues start.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs after the queues stopped.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// Serve also serves h on addr while the runtime is up.
func Serve(addr string, h http.Handler) RunOption {
	return internal.Serve(addr, h)
}
