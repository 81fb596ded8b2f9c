package relay

import "errors"

var (
	ErrClientRequired = errors.New("relay: redis client is required")
	ErrQueueRequired  = errors.New("relay: queue name is required")
	ErrPublish        = errors.New("relay: failed to publish event")
	ErrSubscribe      = errors.New("relay: failed to subscribe")
	ErrMalformed      = errors.New("relay: malformed message")
)
