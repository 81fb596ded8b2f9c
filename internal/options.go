package internal

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tasks/pkg/job"
	"github.com/dmitrymomot/tasks/pkg/logger"
)

const defaultRemoveConcurrency = 8

// config holds service configuration.
type config struct {
	logger            *slog.Logger
	factory           HandleFactory
	jobDefaults       *JobOptions
	paginate          *Paginate
	queueOptions      []job.Option
	sinks             []Sink
	removeConcurrency int
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:            logger.NewNope(),
		removeConcurrency: defaultRemoveConcurrency,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures the Service.
type Option func(*config)

// WithPool backs every queue with River on the given pool.
func WithPool(pool *pgxpool.Pool) Option {
	return func(c *config) {
		if pool != nil {
			c.factory = RiverHandles(pool)
		}
	}
}

// WithHandleFactory replaces the queue engine. WithPool is the usual choice.
func WithHandleFactory(f HandleFactory) Option {
	return func(c *config) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithLogger sets the logger for the service and its queues.
// If not set, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPaginate sets the page size policy used by Find when the call gives none.
//
// Example:
//
//	tasks.WithPaginate(tasks.Paginate{Default: 10, Max: 50})
func WithPaginate(p Paginate) Option {
	return func(c *config) {
		c.paginate = &p
	}
}

// WithDefaultJobOptions sets options applied to every created job.
// Per-call options override them field by field.
func WithDefaultJobOptions(o JobOptions) Option {
	return func(c *config) {
		c.jobDefaults = &o
	}
}

// WithQueueOptions adds engine options applied to every queue before its own.
//
// Example:
//
//	tasks.WithQueueOptions(job.WithRelay(relay.New(client), true, true))
func WithQueueOptions(opts ...job.Option) Option {
	return func(c *config) {
		c.queueOptions = append(c.queueOptions, opts...)
	}
}

// WithSink adds a receiver called for every bridged event.
func WithSink(s Sink) Option {
	return func(c *config) {
		if s != nil {
			c.sinks = append(c.sinks, s)
		}
	}
}

// WithRemoveConcurrency caps parallel deletes in RemoveMany. Defaults to 8.
func WithRemoveConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.removeConcurrency = n
		}
	}
}
