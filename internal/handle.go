package internal

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// Handle wraps one queue engine instance. *job.Queue is the production
// implementation; every method that touches the store blocks on it.
type Handle interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	Enqueue(ctx context.Context, s *job.Submission) (*job.Job, error)
	Job(ctx context.Context, id string) (*job.Job, error)
	Delete(ctx context.Context, id string) (*job.Job, error)

	// Count returns the bucket's current size.
	Count(ctx context.Context, b job.Bucket) (int, error)
	// Range returns bucket members at positions [start, end) in native order.
	Range(ctx context.Context, b job.Bucket, start, end int) ([]*job.Job, error)

	// Await blocks until the job is completed or failed.
	Await(ctx context.Context, id string) (*job.Job, error)

	// Events returns the raw event stream. It has a single consumer: the bridge.
	Events() <-chan job.Event

	Healthcheck(ctx context.Context) error
}

// HandleFactory creates the handle for a named queue.
type HandleFactory func(name string, opts ...job.Option) (Handle, error)

// RiverHandles returns a factory creating River-backed queues on pool.
func RiverHandles(pool *pgxpool.Pool) HandleFactory {
	return func(name string, opts ...job.Option) (Handle, error) {
		return job.New(pool, name, opts...)
	}
}

var _ Handle = (*job.Queue)(nil)
