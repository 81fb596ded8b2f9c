package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// EventName is the service-level event vocabulary.
type EventName string

const (
	EventReady     EventName = "ready"
	EventError     EventName = "error"
	EventCompleted EventName = "completed"
	EventFailed    EventName = "failed"
	EventRetrying  EventName = "retrying"
	EventProgress  EventName = "progress"
)

// Event is a lifecycle notification republished by the bridge.
// It holds plain data only and is safe to encode and send anywhere.
type Event struct {
	Err      *SerializedError `json:"err,omitempty"`
	Progress *int             `json:"progress,omitempty"`
	Name     EventName        `json:"event"`
	Queue    string           `json:"queue"`
	JobID    string           `json:"jobId,omitempty"`
	Result   json.RawMessage  `json:"result,omitempty"`
}

// Sink receives every bridged event synchronously. It must not block.
type Sink func(ctx context.Context, ev Event)

// LogSink logs events: failures and errors at warn, everything else at debug.
func LogSink(l *slog.Logger) Sink {
	return func(ctx context.Context, ev Event) {
		attrs := []slog.Attr{
			slog.String("event", string(ev.Name)),
			slog.String("queue", ev.Queue),
		}
		if ev.JobID != "" {
			attrs = append(attrs, slog.String("job_id", ev.JobID))
		}
		if ev.Err != nil {
			attrs = append(attrs, slog.String("error", ev.Err.Message))
		}

		level := slog.LevelDebug
		if ev.Name == EventFailed || ev.Name == EventError {
			level = slog.LevelWarn
		}
		l.LogAttrs(ctx, level, "queue event", attrs...)
	}
}

// Bridge turns raw handle events into service events and fans them out to
// subscribers and sinks. Each handle is attached once, for its lifetime.
type Bridge struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	subs     map[uint64]chan Event
	attached map[string]struct{}
	sinks    []Sink
	wg       sync.WaitGroup
	nextID   uint64
	mu       sync.RWMutex
	closed   bool
}

// NewBridge creates a bridge delivering to the given sinks.
func NewBridge(logger *slog.Logger, sinks ...Sink) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		subs:     make(map[uint64]chan Event),
		attached: make(map[string]struct{}),
	}
	for _, s := range sinks {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
	return b
}

// Attach starts republishing the handle's events.
func (b *Bridge) Attach(h Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrServiceStopped
	}
	if _, ok := b.attached[h.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyAttached, h.Name())
	}
	b.attached[h.Name()] = struct{}{}

	b.wg.Add(1)
	go b.pump(h.Events())
	return nil
}

// Subscribe returns a stream of service events and a function ending it.
// A subscriber that falls more than buffer events behind misses events.
func (b *Bridge) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, max(buffer, 1))

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

// Publish delivers an event to sinks and subscribers.
func (b *Bridge) Publish(ev Event) {
	for _, s := range b.sinks {
		s(b.ctx, ev)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				slog.String("event", string(ev.Name)),
				slog.String("queue", ev.Queue),
			)
		}
	}
}

// Close stops all pumps and ends every subscription.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Bridge) pump(events <-chan job.Event) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case raw, ok := <-events:
			if !ok {
				return
			}
			if ev, ok := translate(raw); ok {
				b.Publish(ev)
			}
		}
	}
}

// translate maps a raw handle event onto the service vocabulary.
func translate(raw job.Event) (Event, bool) {
	ev := Event{Queue: raw.Queue, JobID: raw.JobID}
	switch raw.Kind {
	case job.EventReady:
		ev.Name = EventReady
		ev.JobID = ""
	case job.EventError:
		ev.Name = EventError
		ev.Err = SerializeError(raw.Err)
	case job.EventCompleted:
		ev.Name = EventCompleted
		ev.Result = raw.Result
	case job.EventFailed:
		ev.Name = EventFailed
		ev.Err = SerializeError(raw.Err)
	case job.EventRetrying:
		ev.Name = EventRetrying
		ev.Err = SerializeError(raw.Err)
	case job.EventProgress:
		ev.Name = EventProgress
		progress := raw.Progress
		ev.Progress = &progress
	default:
		return Event{}, false
	}
	return ev, true
}
