package job

import (
	"context"
	"errors"
)

// ErrHealthcheckFailed is returned when the queue health check fails.
var ErrHealthcheckFailed = errors.New("job: healthcheck failed")

var (
	errQueueNil        = errors.New("queue is nil")
	errQueueNotStarted = errors.New("queue not started")
)

// Healthcheck returns a health check function for the queue.
// The check verifies that the queue is started and the database connection is healthy.
// Compatible with health.CheckFunc.
//
// Example:
//
//	health.ReadinessHandler(health.Checks{
//	    "queue:email": job.Healthcheck(emailQueue),
//	})
func Healthcheck(q *Queue) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if q == nil {
			return errors.Join(ErrHealthcheckFailed, errQueueNil)
		}
		return q.Healthcheck(ctx)
	}
}

// Healthcheck verifies that the queue is started and its store is reachable.
func (q *Queue) Healthcheck(ctx context.Context) error {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()

	if !started {
		return errors.Join(ErrHealthcheckFailed, errQueueNotStarted)
	}

	// Pool.Ping verifies database connectivity; River uses the same pool.
	if err := q.store.db.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}

	return nil
}
