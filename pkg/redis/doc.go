// Package redis opens the Redis connection used to relay queue events
// between processes.
//
// It wraps [github.com/redis/go-redis/v9] with startup retries, a health check
// and a shutdown hook. Only redis:// and rediss:// (TLS) URLs are accepted.
//
// # Configuration
//
// [Config] fields carry env tags; parsing is left to the application:
//
//	REDIS_URL             - Connection URL (required)
//	REDIS_CLIENT_NAME     - Name shown by CLIENT LIST (default: tasks)
//	REDIS_POOL_SIZE       - Maximum pooled connections (default: 10)
//	REDIS_MIN_IDLE_CONNS  - Minimum idle connections (default: 2)
//	REDIS_RETRY_ATTEMPTS  - Connection attempts at startup (default: 3)
//	REDIS_RETRY_INTERVAL  - Base retry interval (default: 2s)
//	REDIS_DIAL_TIMEOUT    - Dial timeout (default: 5s)
//
// # Usage
//
//	client, err := redis.Open(ctx, cfg.URL, cfg.Options()...)
//	if err != nil {
//	    return err
//	}
//
//	r := relay.New(client)
//	svc.SetupQueue("email", tasks.WithRelay(r, true, true))
//
// # Errors
//
//   - [ErrEmptyConnectionURL] - URL is empty
//   - [ErrFailedToParseURL] - URL has the wrong scheme or cannot be parsed
//   - [ErrConnectionFailed] - server did not answer within the retry budget
//   - [ErrHealthcheckFailed] - ping failed
package redis
