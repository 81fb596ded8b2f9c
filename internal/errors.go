package internal

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// Error classes. Every error returned by the service matches exactly one of
// them with errors.Is.
var (
	// ErrConfiguration is fatal at setup and should abort startup.
	ErrConfiguration = errors.New("tasks: configuration error")
	// ErrResolution means the request did not name a usable queue.
	ErrResolution = errors.New("tasks: resolution error")
	// ErrValidation means the request itself is malformed.
	ErrValidation = errors.New("tasks: validation error")
	// ErrNotFound means the job id does not exist in the resolved queue.
	ErrNotFound = errors.New("tasks: not found")
	// ErrEngine wraps backing store failures. They are also bridged as error events.
	ErrEngine = errors.New("tasks: engine error")
)

var (
	ErrAmbiguousQueue    = fmt.Errorf("%w: queue must be specified", ErrResolution)
	ErrUnknownQueue      = fmt.Errorf("%w: unknown queue", ErrResolution)
	ErrInvalidType       = fmt.Errorf("%w: invalid type", ErrValidation)
	ErrDuplicateQueue    = fmt.Errorf("%w: queue already registered", ErrConfiguration)
	ErrProcessorRequired = fmt.Errorf("%w: exactly one of Process or Worker is required", ErrConfiguration)
	ErrHandleFactory     = fmt.Errorf("%w: pool or handle factory is required", ErrConfiguration)
	ErrAlreadyAttached   = fmt.Errorf("%w: queue events already bridged", ErrConfiguration)
	ErrServiceStopped    = fmt.Errorf("%w: service stopped", ErrConfiguration)
)

// FieldError reports one malformed request field.
type FieldError struct {
	Err    error
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "tasks: invalid " + e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// Fields exposes the offending field to serialized error payloads.
func (e *FieldError) Fields() map[string]any {
	return map[string]any{"field": e.Field}
}

func fieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

func invalidType(got string) error {
	names := make([]string, 0, len(job.Buckets()))
	for _, b := range job.Buckets() {
		names = append(names, b.String())
	}
	return fmt.Errorf("%w %q: type must be one of %s", ErrInvalidType, got, strings.Join(names, ", "))
}

// classify maps queue handle errors onto the service error classes.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrResolution),
		errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.Is(err, ErrEngine):
		return err
	case errors.Is(err, job.ErrJobNotFound):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, job.ErrDuplicateJob):
		return &FieldError{Field: "jobId", Reason: "already exists", Err: err}
	case errors.Is(err, job.ErrJobRunning):
		return &FieldError{Field: "id", Reason: "job is active", Err: err}
	case errors.Is(err, job.ErrInvalidPayload):
		return &FieldError{Field: "data", Reason: "must be valid JSON", Err: err}
	case errors.Is(err, job.ErrInvalidBackoff):
		return &FieldError{Field: "backoff", Reason: "unsupported policy", Err: err}
	case errors.Is(err, job.ErrInvalidBucket):
		return errors.Join(ErrInvalidType, err)
	}
	return errors.Join(ErrEngine, err)
}

// SerializedError is the transport-safe form of an error carried by events.
type SerializedError struct {
	Fields  map[string]any `json:"fields,omitempty"`
	Message string         `json:"message"`
	Trace   string         `json:"trace,omitempty"`
}

func (e *SerializedError) Error() string { return e.Message }

// SerializeError flattens err into plain data. Trace and fields are taken from
// any error in the chain that exposes Trace() string or Fields() map[string]any.
func SerializeError(err error) *SerializedError {
	if err == nil {
		return nil
	}

	out := &SerializedError{Message: err.Error()}

	var traced interface{ Trace() string }
	if errors.As(err, &traced) {
		out.Trace = traced.Trace()
	}
	var detailed interface{ Fields() map[string]any }
	if errors.As(err, &detailed) {
		if f := detailed.Fields(); len(f) > 0 {
			out.Fields = maps.Clone(f)
		}
	}
	return out
}
