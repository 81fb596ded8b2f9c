package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// worker processes all jobs of one queue through its processor.
type worker struct {
	river.WorkerDefaults[taskArgs]
	queue     *Queue
	processor Processor
}

func (w *worker) Work(ctx context.Context, rj *river.Job[taskArgs]) error {
	j, err := jobFromRow(rj.JobRow)
	if err != nil {
		return err
	}

	log := w.queue.logger.With(
		slog.String("job_id", j.ID),
		slog.Int("attempt", rj.Attempt),
	)
	log.DebugContext(ctx, "executing job")

	ctx = context.WithValue(ctx, reporterKey{}, &reporter{queue: w.queue, job: j})

	result, err := w.processor.Process(ctx, j)
	if err != nil {
		log.ErrorContext(ctx, "job failed", slog.Any("error", err))
		return err
	}

	if result != nil {
		if err := river.RecordOutput(ctx, result); err != nil {
			log.ErrorContext(ctx, "record job result", slog.Any("error", err))
			return err
		}
	}

	log.DebugContext(ctx, "job completed")
	return nil
}

// NextRetry applies the job's own backoff. Jobs without one use River's policy.
func (w *worker) NextRetry(rj *river.Job[taskArgs]) time.Time {
	return rj.Args.Backoff.next(time.Now(), rj.Attempt)
}

// Timeout applies the job's own timeout. Unset falls back to the client's
// JobTimeout; an explicit zero disables the timeout for this job.
func (w *worker) Timeout(rj *river.Job[taskArgs]) time.Duration {
	if rj.Args.Timeout == nil {
		return 0
	}
	if *rj.Args.Timeout == 0 {
		return -1
	}
	return *rj.Args.Timeout
}
