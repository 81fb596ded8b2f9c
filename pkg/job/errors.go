package job

import "errors"

// Queue errors.
var (
	// ErrPoolRequired is returned when a queue is created without a database pool.
	ErrPoolRequired = errors.New("job: pool is required")

	// ErrNameRequired is returned when a queue is created without a name.
	ErrNameRequired = errors.New("job: queue name is required")

	// ErrProcessorRequired is returned when a worker queue has no processor.
	// Use InsertOnly for queues that never process jobs.
	ErrProcessorRequired = errors.New("job: processor is required")

	// ErrAlreadyStarted is returned when attempting to start a queue
	// that is already running.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned when attempting to stop a queue
	// that is not running.
	ErrNotStarted = errors.New("job: not started")

	// ErrStopped is returned when attempting to start a queue after Stop.
	ErrStopped = errors.New("job: queue stopped")

	// ErrJobNotFound is returned when no job with the given id exists in the queue.
	ErrJobNotFound = errors.New("job: not found")

	// ErrDuplicateJob is returned when a job id is already taken.
	ErrDuplicateJob = errors.New("job: duplicate job id")

	// ErrJobRunning is returned when deleting a job that is being processed.
	ErrJobRunning = errors.New("job: job is running")

	// ErrJobCancelled is attached to failed events of cancelled jobs.
	ErrJobCancelled = errors.New("job: job cancelled")

	// ErrInvalidBucket is returned for an unknown bucket name.
	ErrInvalidBucket = errors.New("job: invalid bucket")

	// ErrInvalidPayload is returned when a payload is not valid JSON
	// or cannot be decoded into the requested type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	// ErrInvalidBackoff is returned for an unknown backoff strategy.
	ErrInvalidBackoff = errors.New("job: invalid backoff")

	// ErrInvalidSchedule is returned for a cron expression that cannot be parsed.
	ErrInvalidSchedule = errors.New("job: invalid schedule")

	// ErrInvalidProgress is returned for progress values outside 0..100.
	ErrInvalidProgress = errors.New("job: progress must be between 0 and 100")

	// ErrNoJobContext is returned by ReportProgress outside of a running job.
	ErrNoJobContext = errors.New("job: no job in context")

	// ErrStore wraps failures of the backing store (connectivity, SQL errors).
	ErrStore = errors.New("job: store failure")
)
