package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tasks/pkg/job"
	"github.com/dmitrymomot/tasks/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires a queue engine", func(t *testing.T) {
		t.Parallel()

		_, err := New()
		require.ErrorIs(t, err, ErrHandleFactory)
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("nil pool keeps the factory unset", func(t *testing.T) {
		t.Parallel()

		_, err := New(WithPool(nil), WithLogger(nil))
		require.ErrorIs(t, err, ErrHandleFactory)
	})
}

func TestService_SetupQueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	worker := WorkerFactory(func(*job.Job) Runner { return nil })

	tests := []struct {
		wantErr error
		name    string
		qc      QueueConfig
	}{
		{name: "missing name", qc: QueueConfig{Process: nopProcess}, wantErr: ErrConfiguration},
		{name: "no processor", qc: QueueConfig{Name: "q"}, wantErr: ErrProcessorRequired},
		{name: "both processors", qc: QueueConfig{Name: "q", Process: nopProcess, Worker: worker}, wantErr: ErrProcessorRequired},
		{name: "negative concurrency", qc: QueueConfig{Name: "q", Process: nopProcess, Concurrency: -1}, wantErr: ErrConfiguration},
		{name: "duplicate name", qc: QueueConfig{Name: "email", Process: nopProcess}, wantErr: ErrDuplicateQueue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newTestService(t, []string{"email"})

			err := svc.SetupQueue(ctx, tt.qc)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, []string{"email"}, svc.Queues())
		})
	}

	t.Run("worker factory is accepted", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		require.NoError(t, svc.SetupQueue(ctx, QueueConfig{Name: "resize", Worker: worker, Concurrency: 4}))
		assert.Equal(t, []string{"resize"}, svc.Queues())
	})

	t.Run("factory failure is a configuration error", func(t *testing.T) {
		t.Parallel()

		f := &fakeFactory{err: errors.New("no pool")}
		svc, err := New(WithHandleFactory(f.create))
		require.NoError(t, err)

		err = svc.SetupQueue(ctx, QueueConfig{Name: "q", Process: nopProcess})
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Empty(t, svc.Queues())
	})

	t.Run("queues keep registration order", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, []string{"c", "a", "b"})
		assert.Equal(t, []string{"c", "a", "b"}, svc.Queues())
	})

	t.Run("stopped service rejects setup", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, nil)
		require.NoError(t, svc.Stop(ctx))
		require.ErrorIs(t, svc.SetupQueue(ctx, QueueConfig{Name: "q", Process: nopProcess}), ErrServiceStopped)
	})
}

func TestService_StartStop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("starts and stops every queue", func(t *testing.T) {
		t.Parallel()

		svc, f := newTestService(t, []string{"email", "sms"})
		require.Error(t, svc.Healthcheck(ctx))

		require.NoError(t, svc.Start(ctx))
		require.NoError(t, svc.Start(ctx))
		assert.True(t, f.get("email").started)
		assert.True(t, f.get("sms").started)
		require.NoError(t, svc.Healthcheck(ctx))

		require.NoError(t, svc.Stop(ctx))
		require.NoError(t, svc.Stop(ctx))
		assert.True(t, f.get("email").stopped)
		assert.True(t, f.get("sms").stopped)
		require.ErrorIs(t, svc.Healthcheck(ctx), ErrEngine)
		require.ErrorIs(t, svc.Start(ctx), ErrServiceStopped)
	})

	t.Run("queue added after start is started", func(t *testing.T) {
		t.Parallel()

		svc, f := newTestService(t, nil)
		require.NoError(t, svc.Start(ctx))
		require.NoError(t, svc.SetupQueue(ctx, QueueConfig{Name: "late", Process: nopProcess}))
		assert.True(t, f.get("late").started)
	})

	t.Run("failed start rolls back", func(t *testing.T) {
		t.Parallel()

		f := &fakeFactory{}
		svc, err := New(WithHandleFactory(f.create))
		require.NoError(t, err)
		t.Cleanup(func() { _ = svc.Stop(ctx) })
		for _, name := range []string{"a", "b"} {
			require.NoError(t, svc.SetupQueue(ctx, QueueConfig{Name: name, Process: nopProcess}))
		}
		f.get("b").startErr = errors.New("boom")

		require.ErrorIs(t, svc.Start(ctx), ErrEngine)
		assert.True(t, f.get("a").stopped)
	})

	t.Run("stop ends subscriptions", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t, []string{"email"})
		events, _ := svc.Subscribe(1)
		require.NoError(t, svc.Stop(ctx))

		_, ok := <-events
		assert.False(t, ok)
	})
}

func TestService_Checks(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, []string{"email", "sms"})
	checks := svc.Checks()

	assert.Len(t, checks, 2)
	assert.Contains(t, checks, "queue:email")
	assert.Contains(t, checks, "queue:sms")
}

type resizeRunner struct {
	ctx *context.Context
	j   *job.Job
}

func (r *resizeRunner) Run(ctx context.Context) (any, error) {
	*r.ctx = ctx
	return map[string]string{"resized": r.j.ID}, nil
}

func TestService_Decorate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, nil)
	j := &job.Job{ID: "7", Queue: "resize"}

	t.Run("worker gets a tracker for its job", func(t *testing.T) {
		t.Parallel()

		var seen context.Context
		p := svc.decorate(WorkerFactory(func(j *job.Job) Runner {
			return &resizeRunner{ctx: &seen, j: j}
		}))

		out, err := p.Process(context.Background(), j)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"resized": "7"}, out)

		tracker, ok := SubTasksFrom(seen)
		require.True(t, ok)
		assert.Equal(t, "7", tracker.ParentID())
		attr, ok := logger.JobExtractor(seen)
		require.True(t, ok)
		assert.Equal(t, "7", attr.Value.String())
	})

	t.Run("nil runner fails the job", func(t *testing.T) {
		t.Parallel()

		p := svc.decorate(WorkerFactory(func(*job.Job) Runner { return nil }))
		_, err := p.Process(context.Background(), j)
		require.ErrorIs(t, err, errNilRunner)
	})

	t.Run("plain context has no tracker", func(t *testing.T) {
		t.Parallel()

		_, ok := SubTasksFrom(context.Background())
		assert.False(t, ok)
	})
}
