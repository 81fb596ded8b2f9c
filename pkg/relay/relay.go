package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tasks/pkg/job"
)

const (
	defaultPrefix = "tasks"
	defaultBuffer = 256
)

// Relay publishes and receives queue events over Redis pub/sub.
type Relay struct {
	client redis.UniversalClient
	logger *slog.Logger
	prefix string
	buffer int
}

// Option configures a Relay.
type Option func(*Relay)

// WithPrefix sets the channel prefix. Processes only see each other's events
// when they use the same prefix. Default: "tasks".
func WithPrefix(prefix string) Option {
	return func(r *Relay) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithBuffer sets the capacity of subscription channels. Default: 256.
func WithBuffer(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// WithLogger sets the logger for dropped and malformed messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a relay on top of an open Redis client.
// The client is not closed by the relay.
func New(client redis.UniversalClient, opts ...Option) *Relay {
	r := &Relay{
		client: client,
		prefix: defaultPrefix,
		buffer: defaultBuffer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Channel returns the pub/sub channel carrying events of the queue.
func (r *Relay) Channel(queue string) string {
	return r.prefix + ":" + queue + ":events"
}

// Publish sends an event to every process subscribed to its queue.
func (r *Relay) Publish(ctx context.Context, ev job.Event) error {
	if r.client == nil {
		return ErrClientRequired
	}
	if ev.Queue == "" {
		return ErrQueueRequired
	}

	payload, err := encode(ev)
	if err != nil {
		return errors.Join(ErrPublish, err)
	}
	if err := r.client.Publish(ctx, r.Channel(ev.Queue), payload).Err(); err != nil {
		return errors.Join(ErrPublish, err)
	}
	return nil
}

// Subscribe streams events of the queue until ctx is done.
// It returns once Redis has confirmed the subscription, so events published
// after Subscribe returns are not missed.
func (r *Relay) Subscribe(ctx context.Context, queue string) (<-chan job.Event, error) {
	if r.client == nil {
		return nil, ErrClientRequired
	}
	if queue == "" {
		return nil, ErrQueueRequired
	}

	channel := r.Channel(queue)
	sub := r.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Join(ErrSubscribe, err)
	}

	out := make(chan job.Event, r.buffer)
	go r.pump(ctx, sub, out, channel)
	return out, nil
}

func (r *Relay) pump(ctx context.Context, sub *redis.PubSub, out chan<- job.Event, channel string) {
	defer close(out)
	defer sub.Close()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ev, err := decode(msg.Payload)
			if err != nil {
				r.logger.WarnContext(ctx, "relay dropped malformed message",
					slog.String("channel", channel),
					slog.Any("error", err),
				)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

var _ job.Relay = (*Relay)(nil)
