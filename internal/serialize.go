package internal

import (
	"encoding/json"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// Job is the public shape of a job. Engine internals never appear here;
// trusted callers use the *Raw methods to get *job.Job instead.
type Job struct {
	ID       string          `json:"id"`
	Status   job.Bucket      `json:"status"`
	Data     json.RawMessage `json:"data"`
	Progress int             `json:"progress"`
}

// Serialize reduces an engine job to its public shape.
func Serialize(j *job.Job) Job {
	if j == nil {
		return Job{}
	}
	data := j.Payload
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return Job{
		ID:       j.ID,
		Data:     data,
		Progress: j.Progress,
		Status:   j.Bucket,
	}
}

func serializeAll(jobs []*job.Job) []Job {
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		out[i] = Serialize(j)
	}
	return out
}
