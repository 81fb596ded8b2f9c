package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Shutdown returns a function that closes the connection pool.
// Register it after the queue shutdown so River can finish in-flight jobs first.
// Close waits for checked-out connections, so the hook gives up when ctx ends.
//
// Example:
//
//	tasks.Run(svc, tasks.ShutdownHook(db.Shutdown(pool)))
func Shutdown(pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return nil
		}

		done := make(chan struct{})
		go func() {
			pool.Close()
			close(done)
		}()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return errors.Join(ErrShutdownTimeout, ctx.Err())
		}
	}
}
