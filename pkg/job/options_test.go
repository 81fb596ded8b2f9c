package job

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newNopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig()
		assert.Equal(t, defaultConcurrency, cfg.concurrency)
		assert.Equal(t, defaultPollInterval, cfg.pollInterval)
		assert.Equal(t, defaultEventBuffer, cfg.eventBuffer)
		assert.False(t, cfg.insertOnly)
		assert.Nil(t, cfg.processor)
	})

	t.Run("applies values", func(t *testing.T) {
		t.Parallel()

		p := ProcessorFunc(func(context.Context, *Job) (any, error) { return nil, nil })
		relay := &recordingRelay{}
		logger := newNopLogger()

		cfg := newConfig()
		for _, opt := range []Option{
			WithProcessor(p),
			WithConcurrency(8),
			WithLogger(logger),
			WithStallInterval(time.Minute),
			WithCompletedRetention(time.Hour),
			WithFailedRetention(2 * time.Hour),
			WithJobTimeout(30 * time.Second),
			WithPollInterval(250 * time.Millisecond),
			WithEventBuffer(16),
			WithRelay(relay, true, false),
			WithSchedule("digest", "0 3 * * *", map[string]int{"n": 1}),
			InsertOnly(),
		} {
			opt(cfg)
		}

		assert.NotNil(t, cfg.processor)
		assert.Equal(t, 8, cfg.concurrency)
		assert.Same(t, logger, cfg.logger)
		assert.Equal(t, time.Minute, cfg.stallInterval)
		assert.Equal(t, time.Hour, cfg.completedRetention)
		assert.Equal(t, 2*time.Hour, cfg.failedRetention)
		assert.Equal(t, 30*time.Second, cfg.jobTimeout)
		assert.Equal(t, 250*time.Millisecond, cfg.pollInterval)
		assert.Equal(t, 16, cfg.eventBuffer)
		assert.Same(t, relay, cfg.relay)
		assert.True(t, cfg.sendEvents)
		assert.False(t, cfg.getEvents)
		assert.True(t, cfg.insertOnly)
		assert.Len(t, cfg.schedules, 1)
		assert.Equal(t, "digest", cfg.schedules[0].name)
	})

	t.Run("ignores invalid values", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig()
		for _, opt := range []Option{
			WithProcessor(nil),
			WithConcurrency(0),
			WithLogger(nil),
			WithStallInterval(-time.Second),
			WithPollInterval(0),
			WithEventBuffer(-1),
			WithRelay(nil, true, true),
		} {
			opt(cfg)
		}

		assert.Nil(t, cfg.processor)
		assert.Equal(t, defaultConcurrency, cfg.concurrency)
		assert.Nil(t, cfg.logger)
		assert.Zero(t, cfg.stallInterval)
		assert.Equal(t, defaultPollInterval, cfg.pollInterval)
		assert.Equal(t, defaultEventBuffer, cfg.eventBuffer)
		assert.Nil(t, cfg.relay)
		assert.False(t, cfg.sendEvents)
	})
}

func TestProcessorFunc(t *testing.T) {
	t.Parallel()

	var got *Job
	p := ProcessorFunc(func(_ context.Context, j *Job) (any, error) {
		got = j
		return "done", nil
	})

	j := &Job{ID: "a"}
	res, err := p.Process(context.Background(), j)
	assert.NoError(t, err)
	assert.Equal(t, "done", res)
	assert.Same(t, j, got)
}
