// Package job provides a queue handle backed by River (Postgres-native queue).
//
// A [Queue] wraps exactly one River client dedicated to one named queue. It exposes
// the small contract the task service needs from a queue engine: enqueue, lookup
// by id, delete, per-bucket counts, windowed bucket reads, completion waits and a
// stream of lifecycle events. Storage, retries and stuck-job rescue stay in River.
//
// # Buckets
//
// River job states are folded into five mutually exclusive buckets:
//
//   - [BucketWaiting]   - available, pending
//   - [BucketDelayed]   - scheduled, retryable
//   - [BucketActive]    - running
//   - [BucketCompleted] - completed
//   - [BucketFailed]    - discarded, cancelled
//
// # Creating a Queue
//
//	q, err := job.New(pool, "email",
//	    job.WithProcessor(job.ProcessorFunc(func(ctx context.Context, j *job.Job) (any, error) {
//	        var p EmailPayload
//	        if err := j.Decode(&p); err != nil {
//	            return nil, err
//	        }
//	        _ = job.ReportProgress(ctx, 50)
//	        return map[string]string{"sent_to": p.To}, nil
//	    })),
//	    job.WithConcurrency(10),
//	    job.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := q.Start(ctx); err != nil {
//	    return err
//	}
//	defer q.Stop(context.Background())
//
// Queues that only enqueue and read (API processes) are created with [InsertOnly]
// and need no processor.
//
// # Submitting Jobs
//
//	retries := 3
//	j, err := q.Enqueue(ctx, &job.Submission{
//	    Payload: json.RawMessage(`{"to":"user@example.com"}`),
//	    Retries: &retries,
//	    Backoff: &job.Backoff{Strategy: job.BackoffExponential, Delay: time.Second},
//	})
//
// Job ids are strings. When a submission carries no id a UUID is generated.
// Ids are unique across all job states, so an explicit id that is already taken
// fails with [ErrDuplicateJob].
//
// # Events
//
// [Queue.Events] returns the raw lifecycle stream: ready, error, completed,
// failed, retrying and progress. River only reports jobs worked by the local
// client; attach a [Relay] to share events between processes.
//
// # Periodic Jobs
//
// Cron schedules (5 fields: min hour day month weekday) enqueue a payload on
// every tick. Every tick derives the job id from the schedule slot, so several
// processes running the same schedule insert one job per slot:
//
//	job.WithSchedule("nightly_digest", "0 3 * * *", DigestPayload{})
//
// # Database Migrations
//
// River tables must exist before a queue is used. See pkg/db.Migrate, which
// applies River migrations and the job lookup index.
package job
