package tasks_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tasks"
)

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := tasks.New(tasks.WithLogger(nil))
	require.ErrorIs(t, err, tasks.ErrHandleFactory)
	require.ErrorIs(t, err, tasks.ErrConfiguration)
}

func TestSerialize(t *testing.T) {
	t.Parallel()

	j := tasks.Serialize(&tasks.RawJob{
		ID:       "42",
		Queue:    "email",
		Bucket:   tasks.StatusDelayed,
		State:    "scheduled",
		Payload:  json.RawMessage(`{"to":"a@b.c"}`),
		Progress: 10,
		Attempt:  2,
	})

	out, err := json.Marshal(j)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","data":{"to":"a@b.c"},"progress":10,"status":"delayed"}`, string(out))
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := tasks.LoadConfig(strings.NewReader("paginate:\n  default: 5\nqueues:\n  - name: email\n"))
	require.NoError(t, err)
	assert.Len(t, cfg.ServiceOptions(), 1)

	_, err = tasks.LoadConfig(strings.NewReader("queues:\n  - name: email\n  - name: email\n"))
	require.ErrorIs(t, err, tasks.ErrDuplicateQueue)
}

func TestSubTasksFrom(t *testing.T) {
	t.Parallel()

	_, ok := tasks.SubTasksFrom(context.Background())
	assert.False(t, ok)
}

func TestReportProgress(t *testing.T) {
	t.Parallel()

	require.Error(t, tasks.ReportProgress(context.Background(), 50))
}
