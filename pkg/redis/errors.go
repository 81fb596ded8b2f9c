package redis

import "errors"

// Connection errors.
var (
	// ErrEmptyConnectionURL is returned when REDIS_URL is not set.
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	// ErrFailedToParseURL wraps redis.ParseURL failures.
	ErrFailedToParseURL = errors.New("redis: failed to parse connection URL")
	// ErrConnectionFailed is returned when every startup ping failed.
	ErrConnectionFailed = errors.New("redis: failed to establish connection")
)

// Health errors.
var (
	ErrClientRequired    = errors.New("redis: client is required")
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
