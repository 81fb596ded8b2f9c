package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheck_NilQueue(t *testing.T) {
	t.Parallel()

	check := Healthcheck(nil)
	err := check(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
	assert.ErrorIs(t, err, errQueueNil)
}

func TestHealthcheck_NotStarted(t *testing.T) {
	t.Parallel()

	q := &Queue{name: "email"}

	check := Healthcheck(q)
	err := check(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
	assert.ErrorIs(t, err, errQueueNotStarted)
}
