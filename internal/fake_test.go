package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tasks/pkg/job"
)

var errFakeNotStarted = errors.New("fake: not started")

// fakeHandle is an in-memory Handle. Jobs keep insertion order, which is the
// native order of every bucket.
type fakeHandle struct {
	countErr   error
	rangeErr   error
	enqueueErr error
	startErr   error
	events     chan job.Event
	changed    chan struct{}
	name       string
	jobs       []*job.Job
	subs       []*job.Submission
	nextID     int
	counts     atomic.Int32
	ranges     atomic.Int32
	mu         sync.Mutex
	started    bool
	stopped    bool
}

func newFakeHandle(name string) *fakeHandle {
	return &fakeHandle{
		name:    name,
		events:  make(chan job.Event, 64),
		changed: make(chan struct{}),
	}
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) Start(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.startErr != nil {
		return h.startErr
	}
	h.started = true
	return nil
}

func (h *fakeHandle) Stop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	return nil
}

func (h *fakeHandle) Enqueue(_ context.Context, s *job.Submission) (*job.Job, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.enqueueErr != nil {
		return nil, h.enqueueErr
	}

	id := s.ID
	if id == "" {
		h.nextID++
		id = fmt.Sprintf("job-%d", h.nextID)
	}
	if slices.ContainsFunc(h.jobs, func(j *job.Job) bool { return j.ID == id }) {
		return nil, fmt.Errorf("%w: %s", job.ErrDuplicateJob, id)
	}

	bucket := job.BucketWaiting
	if s.DelayUntil.After(time.Now()) {
		bucket = job.BucketDelayed
	}
	j := &job.Job{ID: id, Queue: h.name, Payload: s.Payload, Bucket: bucket}
	h.jobs = append(h.jobs, j)
	h.subs = append(h.subs, s)

	out := *j
	return &out, nil
}

func (h *fakeHandle) Job(_ context.Context, id string) (*job.Job, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, j := range h.jobs {
		if j.ID == id {
			out := *j
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", job.ErrJobNotFound, id)
}

func (h *fakeHandle) Delete(_ context.Context, id string) (*job.Job, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, j := range h.jobs {
		if j.ID != id {
			continue
		}
		if j.Bucket == job.BucketActive {
			return nil, fmt.Errorf("%w: %s", job.ErrJobRunning, id)
		}
		h.jobs = slices.Delete(h.jobs, i, i+1)
		h.broadcast()
		return j, nil
	}
	return nil, fmt.Errorf("%w: %s", job.ErrJobNotFound, id)
}

func (h *fakeHandle) Count(_ context.Context, b job.Bucket) (int, error) {
	h.counts.Add(1)
	if h.countErr != nil {
		return 0, h.countErr
	}
	return len(h.inBucket(b)), nil
}

func (h *fakeHandle) Range(_ context.Context, b job.Bucket, start, end int) ([]*job.Job, error) {
	h.ranges.Add(1)
	if h.rangeErr != nil {
		return nil, h.rangeErr
	}
	jobs := h.inBucket(b)
	start = min(max(start, 0), len(jobs))
	end = min(max(end, start), len(jobs))
	return jobs[start:end], nil
}

func (h *fakeHandle) Await(ctx context.Context, id string) (*job.Job, error) {
	for {
		h.mu.Lock()
		changed := h.changed
		idx := slices.IndexFunc(h.jobs, func(j *job.Job) bool { return j.ID == id })
		var snapshot *job.Job
		if idx >= 0 {
			j := *h.jobs[idx]
			snapshot = &j
		}
		h.mu.Unlock()

		if snapshot == nil {
			return nil, fmt.Errorf("%w: %s", job.ErrJobNotFound, id)
		}
		if snapshot.Finished() {
			return snapshot, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (h *fakeHandle) Events() <-chan job.Event { return h.events }

func (h *fakeHandle) Healthcheck(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started || h.stopped {
		return errFakeNotStarted
	}
	return nil
}

// add inserts a job directly, bypassing Enqueue.
func (h *fakeHandle) add(id string, b job.Bucket, payload string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var data json.RawMessage
	if payload != "" {
		data = json.RawMessage(payload)
	}
	h.jobs = append(h.jobs, &job.Job{ID: id, Queue: h.name, Bucket: b, Payload: data})
}

// finish moves a job into a terminal bucket and wakes awaiting callers.
func (h *fakeHandle) finish(id string, failure string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, j := range h.jobs {
		if j.ID != id {
			continue
		}
		j.Bucket = job.BucketCompleted
		if failure != "" {
			j.Bucket = job.BucketFailed
			j.Errors = append(j.Errors, job.AttemptError{Message: failure, Attempt: 1})
		}
	}
	h.broadcast()
}

func (h *fakeHandle) lastSubmission() *job.Submission {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) == 0 {
		return nil
	}
	return h.subs[len(h.subs)-1]
}

func (h *fakeHandle) inBucket(b job.Bucket) []*job.Job {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*job.Job
	for _, j := range h.jobs {
		if j.Bucket == b {
			c := *j
			out = append(out, &c)
		}
	}
	return out
}

// broadcast must be called with h.mu held.
func (h *fakeHandle) broadcast() {
	close(h.changed)
	h.changed = make(chan struct{})
}

// fakeFactory creates fake handles and remembers them by name.
type fakeFactory struct {
	handles map[string]*fakeHandle
	err     error
	mu      sync.Mutex
}

func (f *fakeFactory) create(name string, _ ...job.Option) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.handles == nil {
		f.handles = make(map[string]*fakeHandle)
	}
	h := newFakeHandle(name)
	f.handles[name] = h
	return h, nil
}

func (f *fakeFactory) get(name string) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[name]
}

func nopProcess(context.Context, *job.Job) (any, error) { return nil, nil }

// newTestService creates a service with one fake queue per name.
func newTestService(t *testing.T, names []string, opts ...Option) (*Service, *fakeFactory) {
	t.Helper()

	f := &fakeFactory{}
	svc, err := New(append([]Option{WithHandleFactory(f.create)}, opts...)...)
	require.NoError(t, err)

	for _, name := range names {
		require.NoError(t, svc.SetupQueue(context.Background(), QueueConfig{Name: name, Process: nopProcess}))
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	return svc, f
}

func ptr[T any](v T) *T { return &v }

var _ Handle = (*fakeHandle)(nil)
