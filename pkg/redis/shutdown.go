package redis

import (
	"context"
	"io"
)

// Shutdown returns a function that closes the Redis client.
// Register it after the queues are stopped so relays can unsubscribe cleanly.
//
// Example:
//
//	tasks.Run(svc, tasks.ShutdownHook(redis.Shutdown(client)))
func Shutdown(client io.Closer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Close()
	}
}
