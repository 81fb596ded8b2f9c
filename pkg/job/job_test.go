package job

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobFromRow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	timeout := 5 * time.Second

	args, err := json.Marshal(taskArgs{
		ID:      "job-1",
		Payload: json.RawMessage(`{"to":"a@b.c"}`),
		Backoff: &Backoff{Strategy: BackoffFixed, Delay: time.Second},
		Timeout: &timeout,
	})
	require.NoError(t, err)

	row := &rivertype.JobRow{
		ID:          42,
		EncodedArgs: args,
		Queue:       "email",
		State:       rivertype.JobStateRetryable,
		Attempt:     2,
		MaxAttempts: 4,
		CreatedAt:   now,
		ScheduledAt: now.Add(time.Minute),
		Metadata:    []byte(`{"progress":40,"output":{"ok":true}}`),
		Errors: []rivertype.AttemptError{
			{At: now, Attempt: 1, Error: "first", Trace: "trace-1"},
			{At: now, Attempt: 2, Error: "second"},
		},
	}

	j, err := jobFromRow(row)
	require.NoError(t, err)

	assert.Equal(t, "job-1", j.ID)
	assert.Equal(t, "email", j.Queue)
	assert.Equal(t, BucketDelayed, j.Bucket)
	assert.Equal(t, "retryable", j.State)
	assert.JSONEq(t, `{"to":"a@b.c"}`, string(j.Payload))
	assert.JSONEq(t, `{"ok":true}`, string(j.Result))
	assert.Equal(t, 40, j.Progress)
	assert.Equal(t, int64(42), j.EngineID)
	assert.Equal(t, &timeout, j.Timeout)
	assert.Equal(t, BackoffFixed, j.Backoff.Strategy)
	assert.False(t, j.Finished())

	require.Len(t, j.Errors, 2)
	last := j.LastError()
	require.Error(t, last)
	assert.Equal(t, "second", last.Error())

	var ae *AttemptError
	require.True(t, errors.As(last, &ae))
	assert.Equal(t, 2, ae.Fields()["attempt"])
}

func TestJobFromRow_Nil(t *testing.T) {
	t.Parallel()

	_, err := jobFromRow(nil)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestJobFromRow_FallsBackToEngineID(t *testing.T) {
	t.Parallel()

	j, err := jobFromRow(&rivertype.JobRow{ID: 7, State: rivertype.JobStateCompleted})
	require.NoError(t, err)
	assert.Equal(t, "7", j.ID)
	assert.True(t, j.Finished())
	assert.NoError(t, j.LastError())
}

func TestJob_Decode(t *testing.T) {
	t.Parallel()

	t.Run("valid payload", func(t *testing.T) {
		t.Parallel()

		j := &Job{Payload: json.RawMessage(`{"count":3}`)}
		var p struct {
			Count int `json:"count"`
		}
		require.NoError(t, j.Decode(&p))
		assert.Equal(t, 3, p.Count)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()

		j := &Job{}
		var p map[string]any
		assert.NoError(t, j.Decode(&p))
		assert.Nil(t, p)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()

		j := &Job{Payload: json.RawMessage(`"text"`)}
		var p struct{}
		assert.ErrorIs(t, j.Decode(&p), ErrInvalidPayload)
	})
}

func TestBackoff_Next(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		backoff *Backoff
		attempt int
		want    time.Time
	}{
		{"nil uses engine default", nil, 1, time.Time{}},
		{"immediate", &Backoff{Strategy: BackoffImmediate, Delay: time.Minute}, 3, now},
		{"fixed", &Backoff{Strategy: BackoffFixed, Delay: time.Minute}, 3, now.Add(time.Minute)},
		{"exponential first", &Backoff{Strategy: BackoffExponential, Delay: time.Second}, 1, now.Add(time.Second)},
		{"exponential third", &Backoff{Strategy: BackoffExponential, Delay: time.Second}, 3, now.Add(4 * time.Second)},
		{"exponential capped", &Backoff{Strategy: BackoffExponential, Delay: time.Hour}, 20, now.Add(maxBackoff)},
		{"unknown strategy", &Backoff{Strategy: "linear", Delay: time.Second}, 1, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.backoff.next(now, tt.attempt))
		})
	}
}

func TestBackoff_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&Backoff{Strategy: BackoffFixed, Delay: time.Second}).Validate())
	assert.NoError(t, (&Backoff{Strategy: BackoffImmediate}).Validate())
	assert.ErrorIs(t, (&Backoff{Strategy: "linear"}).Validate(), ErrInvalidBackoff)
	assert.ErrorIs(t, (&Backoff{Strategy: BackoffFixed, Delay: -time.Second}).Validate(), ErrInvalidBackoff)
}

func TestTaskArgs_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tasks:job", taskArgs{ID: "x"}.Kind())
}
