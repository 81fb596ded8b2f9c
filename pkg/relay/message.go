package relay

import (
	"encoding/json"
	"errors"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// message is the wire form of a job.Event.
type message struct {
	Error    *job.RemoteError `json:"error,omitempty"`
	Kind     job.EventKind    `json:"kind"`
	Queue    string           `json:"queue"`
	JobID    string           `json:"job_id,omitempty"`
	Result   json.RawMessage  `json:"result,omitempty"`
	Progress int              `json:"progress,omitempty"`
}

func encode(ev job.Event) ([]byte, error) {
	m := message{
		Kind:     ev.Kind,
		Queue:    ev.Queue,
		JobID:    ev.JobID,
		Result:   ev.Result,
		Progress: ev.Progress,
		Error:    remoteError(ev.Err),
	}
	return json.Marshal(m)
}

func decode(payload string) (job.Event, error) {
	var m message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return job.Event{}, errors.Join(ErrMalformed, err)
	}
	if m.Kind == "" || m.Queue == "" {
		return job.Event{}, ErrMalformed
	}

	ev := job.Event{
		Kind:     m.Kind,
		Queue:    m.Queue,
		JobID:    m.JobID,
		Result:   m.Result,
		Progress: m.Progress,
	}
	if m.Error != nil {
		ev.Err = m.Error
	}
	return ev, nil
}

// remoteError flattens err, keeping the trace and fields it exposes.
func remoteError(err error) *job.RemoteError {
	if err == nil {
		return nil
	}

	out := &job.RemoteError{Message: err.Error()}

	var traced interface{ Trace() string }
	if errors.As(err, &traced) {
		out.Stack = traced.Trace()
	}
	var detailed interface{ Fields() map[string]any }
	if errors.As(err, &detailed) {
		out.Extra = detailed.Fields()
	}
	return out
}
