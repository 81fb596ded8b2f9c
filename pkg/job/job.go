package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/riverqueue/river/rivertype"
)

// Job is the engine-native view of one River row.
// It carries engine internals and is meant for trusted callers only.
type Job struct {
	CreatedAt   time.Time       `json:"created_at"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	AttemptedAt *time.Time      `json:"attempted_at,omitempty"`
	FinalizedAt *time.Time      `json:"finalized_at,omitempty"`
	Backoff     *Backoff        `json:"backoff,omitempty"`
	Timeout     *time.Duration  `json:"timeout,omitempty"`
	ID          string          `json:"id"`
	Queue       string          `json:"queue"`
	Bucket      Bucket          `json:"bucket"`
	State       string          `json:"state"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Errors      []AttemptError  `json:"errors,omitempty"`
	EngineID    int64           `json:"engine_id"`
	Progress    int             `json:"progress"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
}

// Decode unmarshals the job payload into v.
func (j *Job) Decode(v any) error {
	if len(j.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	return nil
}

// Finished reports whether the job reached a terminal bucket.
func (j *Job) Finished() bool {
	return j.Bucket == BucketCompleted || j.Bucket == BucketFailed
}

// LastError returns the most recent attempt error, or nil.
func (j *Job) LastError() error {
	if len(j.Errors) == 0 {
		return nil
	}
	e := j.Errors[len(j.Errors)-1]
	return &e
}

// AttemptError is a failure recorded by River for one attempt.
type AttemptError struct {
	At      time.Time `json:"at"`
	Message string    `json:"error"`
	Stack   string    `json:"trace,omitempty"`
	Attempt int       `json:"attempt"`
}

func (e *AttemptError) Error() string { return e.Message }

// Trace returns the stack trace captured by River, if any.
func (e *AttemptError) Trace() string { return e.Stack }

// Fields returns attempt details for serialized error payloads.
func (e *AttemptError) Fields() map[string]any {
	return map[string]any{
		"attempt": e.Attempt,
		"at":      e.At,
	}
}

// RemoteError is an error rebuilt from an event received through a Relay.
type RemoteError struct {
	Extra   map[string]any `json:"fields,omitempty"`
	Message string         `json:"message"`
	Stack   string         `json:"trace,omitempty"`
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Trace() string { return e.Stack }

func (e *RemoteError) Fields() map[string]any { return e.Extra }

// Submission is a normalized request to enqueue one job.
// Nil pointer fields keep the engine defaults.
type Submission struct {
	DelayUntil time.Time
	Retries    *int
	Backoff    *Backoff
	Timeout    *time.Duration
	ID         string
	Payload    json.RawMessage
}

// Backoff strategies.
const (
	BackoffImmediate   = "immediate"
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

const maxBackoff = 24 * time.Hour

// Backoff configures the delay between retries of a failed job.
type Backoff struct {
	Strategy string        `json:"strategy"`
	Delay    time.Duration `json:"delay"`
}

// Validate checks that the strategy is known and the delay is not negative.
func (b *Backoff) Validate() error {
	switch b.Strategy {
	case BackoffImmediate, BackoffFixed, BackoffExponential:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidBackoff, b.Strategy)
	}
	if b.Delay < 0 {
		return fmt.Errorf("%w: negative delay", ErrInvalidBackoff)
	}
	return nil
}

// next returns the retry time after the given attempt.
// A zero time tells River to use its default retry policy.
func (b *Backoff) next(now time.Time, attempt int) time.Time {
	if b == nil {
		return time.Time{}
	}
	switch b.Strategy {
	case BackoffImmediate:
		return now
	case BackoffFixed:
		return now.Add(b.Delay)
	case BackoffExponential:
		shift := min(max(attempt-1, 0), 30)
		delay := b.Delay * time.Duration(1<<shift)
		if delay <= 0 || delay > maxBackoff {
			delay = maxBackoff
		}
		return now.Add(delay)
	}
	return time.Time{}
}

// taskArgs is the River job arguments type shared by all queues.
// Only the id takes part in uniqueness.
type taskArgs struct {
	Backoff *Backoff        `json:"backoff,omitempty"`
	Timeout *time.Duration  `json:"timeout,omitempty"`
	ID      string          `json:"id" river:"unique"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const taskKind = "tasks:job"

func (taskArgs) Kind() string {
	return taskKind
}

type rowMetadata struct {
	Output   json.RawMessage `json:"output,omitempty"`
	Progress int             `json:"progress"`
}

// jobFromRow converts a River row into a Job.
func jobFromRow(row *rivertype.JobRow) (*Job, error) {
	if row == nil {
		return nil, ErrJobNotFound
	}

	var args taskArgs
	if len(row.EncodedArgs) > 0 {
		if err := json.Unmarshal(row.EncodedArgs, &args); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
	}
	if args.ID == "" {
		args.ID = strconv.FormatInt(row.ID, 10)
	}

	var meta rowMetadata
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
	}

	j := &Job{
		ID:          args.ID,
		Queue:       row.Queue,
		Bucket:      bucketOf(row.State),
		State:       string(row.State),
		Payload:     args.Payload,
		Backoff:     args.Backoff,
		Timeout:     args.Timeout,
		Result:      meta.Output,
		Progress:    meta.Progress,
		EngineID:    row.ID,
		Attempt:     row.Attempt,
		MaxAttempts: row.MaxAttempts,
		Priority:    row.Priority,
		CreatedAt:   row.CreatedAt,
		ScheduledAt: row.ScheduledAt,
		AttemptedAt: row.AttemptedAt,
		FinalizedAt: row.FinalizedAt,
	}
	for _, e := range row.Errors {
		j.Errors = append(j.Errors, AttemptError{
			At:      e.At,
			Attempt: e.Attempt,
			Message: e.Error,
			Stack:   e.Trace,
		})
	}
	return j, nil
}
