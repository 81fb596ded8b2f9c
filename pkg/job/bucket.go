package job

import (
	"fmt"
	"slices"

	"github.com/riverqueue/river/rivertype"
)

// Bucket is a mutually exclusive group of job states.
type Bucket string

const (
	BucketActive    Bucket = "active"
	BucketWaiting   Bucket = "waiting"
	BucketDelayed   Bucket = "delayed"
	BucketCompleted Bucket = "completed"
	BucketFailed    Bucket = "failed"
)

var buckets = []Bucket{BucketActive, BucketWaiting, BucketDelayed, BucketCompleted, BucketFailed}

var bucketStates = map[Bucket][]rivertype.JobState{
	BucketActive:    {rivertype.JobStateRunning},
	BucketWaiting:   {rivertype.JobStateAvailable, rivertype.JobStatePending},
	BucketDelayed:   {rivertype.JobStateScheduled, rivertype.JobStateRetryable},
	BucketCompleted: {rivertype.JobStateCompleted},
	BucketFailed:    {rivertype.JobStateDiscarded, rivertype.JobStateCancelled},
}

// Native read order per bucket. The id tiebreaker keeps windows stable.
var bucketOrder = map[Bucket]string{
	BucketActive:    "attempted_at ASC, id ASC",
	BucketWaiting:   "priority ASC, scheduled_at ASC, id ASC",
	BucketDelayed:   "scheduled_at ASC, id ASC",
	BucketCompleted: "finalized_at ASC, id ASC",
	BucketFailed:    "finalized_at ASC, id ASC",
}

// Buckets returns all bucket names in their canonical order.
func Buckets() []Bucket {
	return slices.Clone(buckets)
}

// ParseBucket converts a bucket name into a Bucket.
func ParseBucket(name string) (Bucket, error) {
	b := Bucket(name)
	if !b.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, name)
	}
	return b, nil
}

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	_, ok := bucketStates[b]
	return ok
}

func (b Bucket) String() string {
	return string(b)
}

// stateNames returns River state names for SQL filters.
func (b Bucket) stateNames() []string {
	states := bucketStates[b]
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return names
}

// bucketOf maps a River job state to its bucket.
func bucketOf(state rivertype.JobState) Bucket {
	for b, states := range bucketStates {
		if slices.Contains(states, state) {
			return b
		}
	}
	return BucketWaiting
}

// allStates is used for id uniqueness so ids are never reused while a row exists.
var allStates = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStateCancelled,
	rivertype.JobStateCompleted,
	rivertype.JobStateDiscarded,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}
