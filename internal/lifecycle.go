package internal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// BackoffOptions selects the retry delay policy. Strategy and DelayFactor
// must be given together.
type BackoffOptions struct {
	DelayFactor *time.Duration `yaml:"delayFactor"`
	Strategy    string         `yaml:"strategy"`
}

// JobOptions is the per-job options bundle. Nil fields are not applied.
type JobOptions struct {
	Retries    *int            `yaml:"retries"`
	Backoff    *BackoffOptions `yaml:"backoff"`
	DelayUntil *time.Time      `yaml:"delayUntil"`
	Timeout    *time.Duration  `yaml:"timeout"`
}

// merge returns defaults overridden field by field with o.
// Backoff is replaced as a whole so a call cannot complete a half-specified policy.
func (o *JobOptions) merge(defaults *JobOptions) JobOptions {
	var out JobOptions
	if defaults != nil {
		out = *defaults
	}
	if o == nil {
		return out
	}
	if o.Retries != nil {
		out.Retries = o.Retries
	}
	if o.Backoff != nil {
		out.Backoff = o.Backoff
	}
	if o.DelayUntil != nil {
		out.DelayUntil = o.DelayUntil
	}
	if o.Timeout != nil {
		out.Timeout = o.Timeout
	}
	return out
}

// CreateParams selects the target queue and per-job options of a create call.
type CreateParams struct {
	Job   *JobOptions
	Queue string
	// JobID overrides the generated id. It must not collide with an existing job.
	JobID string
}

// GetParams selects the queue of a get call.
type GetParams struct {
	Queue string
}

// RemoveParams selects the queue of a remove call.
type RemoveParams struct {
	Queue string
}

// RemoveResult is the independent outcome of removing one id.
type RemoveResult struct {
	Err error
	Job *Job
	ID  string
}

// Create submits payload to the resolved queue and returns the serialized job.
// The job lands in the waiting bucket, or delayed when DelayUntil is in the future.
func (s *Service) Create(ctx context.Context, payload any, p CreateParams) (Job, error) {
	j, err := s.CreateRaw(ctx, payload, p)
	if err != nil {
		return Job{}, err
	}
	return Serialize(j), nil
}

// CreateRaw is Create for trusted callers. It returns the engine-native job.
func (s *Service) CreateRaw(ctx context.Context, payload any, p CreateParams) (*job.Job, error) {
	h, err := s.registry.Resolve(p.Queue)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, h, payload, p)
}

// create is the shared submit path of Create and SubTasks.Create.
func (s *Service) create(ctx context.Context, h Handle, payload any, p CreateParams) (*job.Job, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	sub, err := normalize(p.Job.merge(s.cfg.jobDefaults), data)
	if err != nil {
		return nil, err
	}
	sub.ID = p.JobID

	j, err := h.Enqueue(ctx, sub)
	if err != nil {
		return nil, classify(err)
	}

	s.logger.DebugContext(ctx, "job created",
		slog.String("queue", h.Name()),
		slog.String("job_id", j.ID),
		slog.String("status", j.Bucket.String()),
	)
	return j, nil
}

// Get returns the serialized job with the given id.
func (s *Service) Get(ctx context.Context, id string, p GetParams) (Job, error) {
	j, err := s.GetRaw(ctx, id, p)
	if err != nil {
		return Job{}, err
	}
	return Serialize(j), nil
}

// GetRaw is Get for trusted callers.
func (s *Service) GetRaw(ctx context.Context, id string, p GetParams) (*job.Job, error) {
	h, err := s.registry.Resolve(p.Queue)
	if err != nil {
		return nil, err
	}
	j, err := h.Job(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return j, nil
}

// Remove deletes the job with the given id and returns its last snapshot.
// A job that is being processed cannot be removed.
func (s *Service) Remove(ctx context.Context, id string, p RemoveParams) (Job, error) {
	h, err := s.registry.Resolve(p.Queue)
	if err != nil {
		return Job{}, err
	}
	return s.remove(ctx, h, id)
}

// RemoveMany removes each id independently. One failure never aborts the
// others; every id gets its own result, in input order. The returned error is
// only set when the queue cannot be resolved.
func (s *Service) RemoveMany(ctx context.Context, ids []string, p RemoveParams) ([]RemoveResult, error) {
	h, err := s.registry.Resolve(p.Queue)
	if err != nil {
		return nil, err
	}

	results := make([]RemoveResult, len(ids))
	var g errgroup.Group
	g.SetLimit(s.cfg.removeConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			j, err := s.remove(ctx, h, id)
			results[i] = RemoveResult{ID: id, Err: err}
			if err == nil {
				results[i].Job = &j
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

func (s *Service) remove(ctx context.Context, h Handle, id string) (Job, error) {
	if id == "" {
		return Job{}, fieldError("id", "is required")
	}
	j, err := h.Delete(ctx, id)
	if err != nil {
		return Job{}, classify(err)
	}
	s.logger.DebugContext(ctx, "job removed",
		slog.String("queue", h.Name()),
		slog.String("job_id", id),
	)
	return Serialize(j), nil
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch v := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fieldError("data", "must be valid JSON")
		}
		return v, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &FieldError{Field: "data", Reason: "cannot be encoded as JSON", Err: err}
	}
	return data, nil
}

// normalize validates the merged options and builds the engine submission.
// All malformed fields are reported together.
func normalize(o JobOptions, payload json.RawMessage) (*job.Submission, error) {
	var errs []error
	sub := &job.Submission{Payload: payload}

	if o.Retries != nil {
		if *o.Retries < 0 {
			errs = append(errs, fieldError("retries", "must be a non-negative integer"))
		} else {
			sub.Retries = o.Retries
		}
	}

	if o.Backoff != nil {
		b, err := normalizeBackoff(o.Backoff)
		if err != nil {
			errs = append(errs, err)
		}
		sub.Backoff = b
	}

	if o.DelayUntil != nil {
		if o.DelayUntil.IsZero() {
			errs = append(errs, fieldError("delayUntil", "must be a valid point in time"))
		} else {
			sub.DelayUntil = *o.DelayUntil
		}
	}

	if o.Timeout != nil {
		if *o.Timeout < 0 {
			errs = append(errs, fieldError("timeout", "must be a non-negative duration"))
		} else {
			sub.Timeout = o.Timeout
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sub, nil
}

func normalizeBackoff(b *BackoffOptions) (*job.Backoff, error) {
	if b.Strategy == "" || b.DelayFactor == nil {
		return nil, fieldError("backoff", "strategy and delayFactor are required together")
	}
	if *b.DelayFactor < 0 {
		return nil, fieldError("backoff.delayFactor", "must be a non-negative duration")
	}

	out := &job.Backoff{Strategy: b.Strategy, Delay: *b.DelayFactor}
	if err := out.Validate(); err != nil {
		return nil, &FieldError{Field: "backoff.strategy", Reason: "must be immediate, fixed or exponential", Err: err}
	}
	return out, nil
}
