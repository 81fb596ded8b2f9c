package job

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultConcurrency  = 1
	defaultPollInterval = time.Second
	defaultEventBuffer  = 256
)

// config holds queue configuration.
type config struct {
	logger             *slog.Logger
	processor          Processor
	relay              Relay
	schedules          []scheduleConfig
	stallInterval      time.Duration
	completedRetention time.Duration
	failedRetention    time.Duration
	jobTimeout         time.Duration
	pollInterval       time.Duration
	concurrency        int
	eventBuffer        int
	insertOnly         bool
	sendEvents         bool
	getEvents          bool
}

// newConfig creates a config with defaults.
func newConfig() *config {
	return &config{
		concurrency:  defaultConcurrency,
		pollInterval: defaultPollInterval,
		eventBuffer:  defaultEventBuffer,
	}
}

// scheduleConfig holds a periodic enqueue definition.
//
//nolint:betteralign // all fields contain pointers, no optimization possible
type scheduleConfig struct {
	payload any
	name    string
	expr    string
}

// Option configures a Queue.
type Option func(*config)

// Processor processes one job and returns its result.
type Processor interface {
	Process(ctx context.Context, j *Job) (any, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, j *Job) (any, error)

// Process calls f(ctx, j).
func (f ProcessorFunc) Process(ctx context.Context, j *Job) (any, error) {
	return f(ctx, j)
}

// WithProcessor sets the processor that works jobs of this queue.
//
// Example:
//
//	job.WithProcessor(job.ProcessorFunc(func(ctx context.Context, j *job.Job) (any, error) {
//	    return nil, sendEmail(ctx, j.Payload)
//	}))
func WithProcessor(p Processor) Option {
	return func(c *config) {
		if p != nil {
			c.processor = p
		}
	}
}

// WithConcurrency sets how many jobs this process works in parallel.
// Defaults to 1.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// InsertOnly creates a queue that enqueues and reads jobs but never works them.
func InsertOnly() Option {
	return func(c *config) {
		c.insertOnly = true
	}
}

// WithLogger sets the logger for queue operations.
// If not set, a noop logger is used.
//
// Example:
//
//	job.WithLogger(slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStallInterval sets how long a running job may go without finishing
// before River rescues it.
// River runs maintenance on the elected leader only, so in a process with
// several queues the leader's value applies to all of them.
func WithStallInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.stallInterval = d
		}
	}
}

// WithCompletedRetention sets how long completed jobs are kept.
// Leader-scoped like WithStallInterval.
func WithCompletedRetention(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.completedRetention = d
		}
	}
}

// WithFailedRetention sets how long discarded and cancelled jobs are kept.
// Leader-scoped like WithStallInterval.
func WithFailedRetention(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.failedRetention = d
		}
	}
}

// WithJobTimeout sets the default timeout for jobs without their own timeout.
func WithJobTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.jobTimeout = d
		}
	}
}

// WithPollInterval sets how often Await re-reads a job that has no local events.
// Defaults to 1 second.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithEventBuffer sets the capacity of the Events channel.
// Defaults to 256.
func WithEventBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.eventBuffer = n
		}
	}
}

// WithRelay shares events with other processes.
// send publishes locally produced events; receive takes events from the relay
// instead of the local River subscription, so every event is delivered once.
//
// Example:
//
//	job.WithRelay(relay.New(redisClient), true, true)
func WithRelay(r Relay, send, receive bool) Option {
	return func(c *config) {
		if r != nil {
			c.relay = r
			c.sendEvents = send
			c.getEvents = receive
		}
	}
}

// WithSchedule enqueues payload on every tick of a cron expression.
// Schedule should be a cron expression (5 fields: min hour day month weekday).
//
// Example:
//
//	job.WithSchedule("cleanup", "0 * * * *", CleanupPayload{}) // Every hour
func WithSchedule(name, expr string, payload any) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:    name,
			expr:    expr,
			payload: payload,
		})
	}
}
