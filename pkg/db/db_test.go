package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tasks/pkg/db"
)

func TestHealthcheck_NilPool(t *testing.T) {
	t.Parallel()

	err := db.Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, db.ErrHealthcheckFailed)
}

func TestConnect_InvalidConnectionString(t *testing.T) {
	t.Parallel()

	_, err := db.Connect(context.Background(), db.Config{ConnectionString: "://not a url"})
	require.ErrorIs(t, err, db.ErrFailedToParseDBConfig)
}

func TestShutdown_NilPool(t *testing.T) {
	t.Parallel()

	require.NoError(t, db.Shutdown(nil)(context.Background()))
}
