package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// ParentKey is the payload field marking a child job with its parent id.
// It is the only durable trace of the parent/child relationship.
const ParentKey = "_parent"

var errMissingParent = fmt.Errorf("%w: sub-tasks need a parent job id", ErrConfiguration)

// restoreBuckets are the buckets a child can be in while still unfinished.
var restoreBuckets = []job.Bucket{job.BucketDelayed, job.BucketWaiting, job.BucketActive}

type child struct {
	handle Handle
	id     string
}

func (c child) key() string {
	return c.handle.Name() + "\x00" + c.id
}

// ChildResult is the final outcome of one tracked child.
// Err is set when the child failed or disappeared; the child still counts as finished.
type ChildResult struct {
	Err   error
	Job   *job.Job
	ID    string
	Queue string
}

// SubTasks tracks the children of one running job so it can fan out work and
// later wait for all of it. The tracked set lives in memory only and is
// rebuilt after a restart with Restore.
type SubTasks struct {
	svc      *Service
	seen     map[string]struct{}
	parentID string
	children []child
	mu       sync.Mutex
}

// SubTasks creates a tracker for the job with the given id.
func (s *Service) SubTasks(parentID string) *SubTasks {
	return &SubTasks{
		svc:      s,
		parentID: parentID,
		seen:     make(map[string]struct{}),
	}
}

// ParentID returns the id of the owning job.
func (t *SubTasks) ParentID() string {
	return t.parentID
}

// Len returns the number of tracked children.
func (t *SubTasks) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.children)
}

// Create stamps payload with the parent marker, submits it to target through
// the normal create path and tracks the new child. The payload must encode to
// a JSON object. p.Queue is ignored; the child goes to target.
func (t *SubTasks) Create(ctx context.Context, target Handle, payload any, p CreateParams) (Job, error) {
	if t.parentID == "" {
		return Job{}, errMissingParent
	}
	data, err := t.stamp(payload)
	if err != nil {
		return Job{}, err
	}

	j, err := t.svc.create(ctx, target, data, p)
	if err != nil {
		return Job{}, err
	}

	t.track(child{handle: target, id: j.ID})
	return Serialize(j), nil
}

// Wait blocks until every tracked child is completed or failed, including
// children added while waiting. Results follow tracking order.
// Only ctx ends the wait early; a child stuck forever blocks it forever.
func (t *SubTasks) Wait(ctx context.Context) ([]ChildResult, error) {
	done := make(map[string]ChildResult)
	for {
		pending := t.pending(done)
		if len(pending) == 0 {
			break
		}

		results := make([]ChildResult, len(pending))
		g, gctx := errgroup.WithContext(ctx)
		for i, c := range pending {
			g.Go(func() error {
				r, err := await(gctx, c)
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, c := range pending {
			done[c.key()] = results[i]
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ChildResult, 0, len(t.children))
	for _, c := range t.children {
		out = append(out, done[c.key()])
	}
	return out, nil
}

// Restore scans target's delayed, waiting and active buckets for children of
// this job and tracks the ones not tracked yet. Running it again adds nothing
// new. It returns the number of children added.
//
// The scan is best-effort: jobs move between buckets while it runs, so a child
// can be missed or seen twice. Failures of one bucket do not stop the others.
func (t *SubTasks) Restore(ctx context.Context, target Handle) (int, error) {
	if t.parentID == "" {
		return 0, errMissingParent
	}

	var (
		added int
		errs  []error
	)
	for _, b := range restoreBuckets {
		total, err := target.Count(ctx, b)
		if err != nil {
			errs = append(errs, classify(err))
			continue
		}
		if total == 0 {
			continue
		}

		jobs, err := target.Range(ctx, b, 0, total)
		if err != nil {
			errs = append(errs, classify(err))
			continue
		}

		for _, j := range jobs {
			if parentOf(j.Payload) != t.parentID {
				continue
			}
			if t.track(child{handle: target, id: j.ID}) {
				added++
			}
		}
	}
	return added, errors.Join(errs...)
}

// track adds c unless it is already tracked.
func (t *SubTasks) track(c child) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[c.key()]; ok {
		return false
	}
	t.seen[c.key()] = struct{}{}
	t.children = append(t.children, c)
	return true
}

func (t *SubTasks) pending(done map[string]ChildResult) []child {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.DeleteFunc(slices.Clone(t.children), func(c child) bool {
		_, ok := done[c.key()]
		return ok
	})
}

func (t *SubTasks) stamp(payload any) (json.RawMessage, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fieldError("data", "sub-task payload must be a JSON object")
		}
	}

	marker, err := json.Marshal(t.parentID)
	if err != nil {
		return nil, err
	}
	fields[ParentKey] = marker

	return json.Marshal(fields)
}

func await(ctx context.Context, c child) (ChildResult, error) {
	r := ChildResult{ID: c.id, Queue: c.handle.Name()}

	j, err := c.handle.Await(ctx, c.id)
	switch {
	case ctx.Err() != nil:
		return r, ctx.Err()
	case err != nil:
		r.Err = classify(err)
		return r, nil
	}

	r.Job = j
	if j.Bucket == job.BucketFailed {
		r.Err = j.LastError()
		if r.Err == nil {
			r.Err = job.ErrJobCancelled
		}
	}
	return r, nil
}

// parentOf returns the parent marker of a payload, or "" when there is none.
func parentOf(payload json.RawMessage) string {
	var marker struct {
		Parent string `json:"_parent"`
	}
	if len(payload) == 0 || json.Unmarshal(payload, &marker) != nil {
		return ""
	}
	return marker.Parent
}
