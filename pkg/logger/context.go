package logger

import (
	"context"
	"log/slog"
)

type jobScopeKey struct{}

type jobScope struct {
	queue string
	id    string
}

// WithJob returns a context whose log records carry the queue name and job id.
//
// Example:
//
//	ctx = logger.WithJob(ctx, j.Queue, j.ID)
//	log.InfoContext(ctx, "sending email")
//	// {"msg":"sending email","queue":"email","job_id":"..."}
func WithJob(ctx context.Context, queue, id string) context.Context {
	return context.WithValue(ctx, jobScopeKey{}, jobScope{queue: queue, id: id})
}

// QueueExtractor adds the "queue" attribute set by WithJob.
func QueueExtractor(ctx context.Context) (slog.Attr, bool) {
	s, ok := ctx.Value(jobScopeKey{}).(jobScope)
	if !ok || s.queue == "" {
		return slog.Attr{}, false
	}
	return slog.String("queue", s.queue), true
}

// JobExtractor adds the "job_id" attribute set by WithJob.
func JobExtractor(ctx context.Context) (slog.Attr, bool) {
	s, ok := ctx.Value(jobScopeKey{}).(jobScope)
	if !ok || s.id == "" {
		return slog.Attr{}, false
	}
	return slog.String("job_id", s.id), true
}
