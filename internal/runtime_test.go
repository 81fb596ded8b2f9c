package internal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("base context ends the runtime", func(t *testing.T) {
		t.Parallel()

		svc, f := newTestService(t, []string{"email"})

		var (
			mu    sync.Mutex
			order []string
		)
		hook := func(name string) func(context.Context) error {
			return func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- Run(svc,
				BaseContext(ctx),
				StartupHook(hook("startup")),
				ShutdownHook(hook("shutdown")),
				Serve("127.0.0.1:0", http.NotFoundHandler()),
				ShutdownTimeout(time.Second),
			)
		}()

		require.Eventually(t, func() bool {
			return svc.Healthcheck(context.Background()) == nil
		}, time.Second, 10*time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("run did not return")
		}

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"startup", "shutdown"}, order)
		assert.True(t, f.get("email").stopped)
	})

	t.Run("startup hook error aborts before start", func(t *testing.T) {
		t.Parallel()

		svc, f := newTestService(t, []string{"email"})
		errBoom := errors.New("boom")

		err := Run(svc, StartupHook(func(context.Context) error { return errBoom }))
		require.ErrorIs(t, err, errBoom)
		assert.False(t, f.get("email").started)
	})

	t.Run("failed start is returned", func(t *testing.T) {
		t.Parallel()

		svc, f := newTestService(t, []string{"email"})
		f.get("email").startErr = errors.New("no database")

		require.ErrorIs(t, Run(svc), ErrEngine)
	})
}
