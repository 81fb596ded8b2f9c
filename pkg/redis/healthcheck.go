package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const healthcheckTimeout = 2 * time.Second

// Healthcheck returns a closure pinging the client that carries relay events.
// Each ping is bounded so a stalled server fails readiness instead of hanging it.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.Join(ErrHealthcheckFailed, ErrClientRequired)
		}

		ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
