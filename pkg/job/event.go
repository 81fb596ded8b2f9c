package job

import (
	"context"
	"encoding/json"

	"github.com/riverqueue/river"
)

// EventKind names a raw queue lifecycle event.
type EventKind string

const (
	EventReady     EventKind = "ready"
	EventError     EventKind = "error"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
	EventRetrying  EventKind = "retrying"
	EventProgress  EventKind = "progress"
)

// Event is a raw lifecycle notification emitted by a Queue.
// Job is nil for events received through a Relay.
type Event struct {
	Err      error
	Job      *Job
	Kind     EventKind
	Queue    string
	JobID    string
	Result   json.RawMessage
	Progress int
}

func (e Event) terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventFailed
}

// Relay moves events between processes sharing the same queues.
type Relay interface {
	// Publish sends an event to other processes.
	Publish(ctx context.Context, ev Event) error

	// Subscribe streams events published for the named queue.
	// The channel is closed when ctx is done.
	Subscribe(ctx context.Context, queue string) (<-chan Event, error)
}

var riverEventKinds = []river.EventKind{
	river.EventKindJobCompleted,
	river.EventKindJobFailed,
	river.EventKindJobCancelled,
}

// fromRiverEvent converts a River subscription event.
func fromRiverEvent(queue string, ev *river.Event) (Event, error) {
	j, err := jobFromRow(ev.Job)
	if err != nil {
		return Event{}, err
	}

	out := Event{Queue: queue, JobID: j.ID, Job: j}
	switch ev.Kind {
	case river.EventKindJobCompleted:
		out.Kind = EventCompleted
		out.Result = j.Result
	case river.EventKindJobFailed:
		out.Kind = EventRetrying
		if j.Bucket == BucketFailed {
			out.Kind = EventFailed
		}
		out.Err = j.LastError()
	case river.EventKindJobCancelled:
		out.Kind = EventFailed
		out.Err = j.LastError()
		if out.Err == nil {
			out.Err = ErrJobCancelled
		}
	default:
		return Event{}, nil
	}
	return out, nil
}
