package job

import (
	"context"
	"log/slog"
)

type reporterKey struct{}

type reporter struct {
	queue *Queue
	job   *Job
}

// ReportProgress records the progress (0..100) of the job running in ctx and
// emits a progress event. It must be called from within a Processor.
//
// Example:
//
//	for i, item := range items {
//	    process(item)
//	    _ = job.ReportProgress(ctx, (i+1)*100/len(items))
//	}
func ReportProgress(ctx context.Context, progress int) error {
	r, ok := ctx.Value(reporterKey{}).(*reporter)
	if !ok {
		return ErrNoJobContext
	}
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	return r.queue.setProgress(ctx, r.job, progress)
}

func (q *Queue) setProgress(ctx context.Context, j *Job, progress int) error {
	if err := q.store.setProgress(ctx, j.EngineID, progress); err != nil {
		return q.storeErr(ctx, "progress", err)
	}
	j.Progress = progress

	q.logger.DebugContext(ctx, "job progress",
		slog.String("job_id", j.ID),
		slog.Int("progress", progress),
	)
	q.dispatch(ctx, Event{
		Kind:     EventProgress,
		Queue:    q.name,
		JobID:    j.ID,
		Job:      j,
		Progress: progress,
	}, true)
	return nil
}
