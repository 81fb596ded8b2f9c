package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/tasks/pkg/job"
)

// FileConfig is the YAML form of the service and queue settings.
//
//	paginate:
//	  default: 10
//	  max: 50
//	job:
//	  retries: 3
//	  backoff:
//	    strategy: exponential
//	    delayFactor: 1s
//	queues:
//	  - name: email
//	    concurrency: 5
//	    stallInterval: 5m
//	    removeOnSuccess: 24h
//	    getEvents: true
//	    sendEvents: true
//	    schedules:
//	      - name: digest
//	        cron: "0 8 * * *"
//	        payload: {kind: daily}
type FileConfig struct {
	Paginate *Paginate    `yaml:"paginate"`
	Job      *JobOptions  `yaml:"job"`
	Queues   []QueueEntry `yaml:"queues"`
}

// QueueEntry holds the engine settings of one queue. Processors are code and
// are matched to entries by name.
type QueueEntry struct {
	IsWorker        *bool           `yaml:"isWorker"`
	Name            string          `yaml:"name"`
	Schedules       []ScheduleEntry `yaml:"schedules"`
	Concurrency     int             `yaml:"concurrency"`
	StallInterval   time.Duration   `yaml:"stallInterval"`
	RemoveOnSuccess time.Duration   `yaml:"removeOnSuccess"`
	RemoveOnFailure time.Duration   `yaml:"removeOnFailure"`
	Timeout         time.Duration   `yaml:"timeout"`
	PollInterval    time.Duration   `yaml:"pollInterval"`
	SendEvents      bool            `yaml:"sendEvents"`
	GetEvents       bool            `yaml:"getEvents"`
}

// ScheduleEntry enqueues Payload on every tick of Cron.
type ScheduleEntry struct {
	Payload any    `yaml:"payload"`
	Name    string `yaml:"name"`
	Cron    string `yaml:"cron"`
}

// LoadConfig decodes and validates a YAML config. Unknown keys are rejected.
func LoadConfig(r io.Reader) (*FileConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg FileConfig
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrConfiguration, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}
	defer f.Close()
	return LoadConfig(f)
}

func (c *FileConfig) validate() error {
	seen := make(map[string]struct{}, len(c.Queues))
	for _, q := range c.Queues {
		if q.Name == "" {
			return fmt.Errorf("%w: queue without name", ErrConfiguration)
		}
		if _, ok := seen[q.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateQueue, q.Name)
		}
		seen[q.Name] = struct{}{}
		if q.Concurrency < 0 {
			return fmt.Errorf("%w: queue %q: concurrency must be positive", ErrConfiguration, q.Name)
		}
	}
	if c.Job != nil {
		if _, err := normalize(*c.Job, nil); err != nil {
			return errors.Join(ErrConfiguration, err)
		}
	}
	return nil
}

// ServiceOptions returns the service-wide settings as options.
func (c *FileConfig) ServiceOptions() []Option {
	var opts []Option
	if c.Paginate != nil {
		opts = append(opts, WithPaginate(*c.Paginate))
	}
	if c.Job != nil {
		opts = append(opts, WithDefaultJobOptions(*c.Job))
	}
	return opts
}

// Queue returns the entry with the given name.
func (c *FileConfig) Queue(name string) (QueueEntry, bool) {
	for _, q := range c.Queues {
		if q.Name == name {
			return q, true
		}
	}
	return QueueEntry{}, false
}

// QueueConfig pairs the entry with its processor. relay may be nil when the
// entry neither sends nor receives events.
func (q QueueEntry) QueueConfig(p Processor, relay job.Relay) (QueueConfig, error) {
	qc := QueueConfig{
		Name:        q.Name,
		Concurrency: q.Concurrency,
	}
	switch v := p.(type) {
	case WorkerFactory:
		qc.Worker = v
	case ProcessorFunc:
		qc.Process = v
	case nil:
		return QueueConfig{}, fmt.Errorf("%w: queue %q", ErrProcessorRequired, q.Name)
	default:
		qc.Process = v.Process
	}

	opts, err := q.Options(relay)
	if err != nil {
		return QueueConfig{}, err
	}
	qc.Options = opts
	return qc, nil
}

// Options converts the entry into engine options.
func (q QueueEntry) Options(relay job.Relay) ([]job.Option, error) {
	var opts []job.Option
	if q.IsWorker != nil && !*q.IsWorker {
		opts = append(opts, job.InsertOnly())
	}
	if q.StallInterval > 0 {
		opts = append(opts, job.WithStallInterval(q.StallInterval))
	}
	if q.RemoveOnSuccess > 0 {
		opts = append(opts, job.WithCompletedRetention(q.RemoveOnSuccess))
	}
	if q.RemoveOnFailure > 0 {
		opts = append(opts, job.WithFailedRetention(q.RemoveOnFailure))
	}
	if q.Timeout > 0 {
		opts = append(opts, job.WithJobTimeout(q.Timeout))
	}
	if q.PollInterval > 0 {
		opts = append(opts, job.WithPollInterval(q.PollInterval))
	}
	if q.SendEvents || q.GetEvents {
		if relay == nil {
			return nil, fmt.Errorf("%w: queue %q: sendEvents and getEvents need a relay", ErrConfiguration, q.Name)
		}
		opts = append(opts, job.WithRelay(relay, q.SendEvents, q.GetEvents))
	}
	for _, s := range q.Schedules {
		payload, err := jsonCompatible(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: queue %q: schedule %q: %w", ErrConfiguration, q.Name, s.Name, err)
		}
		opts = append(opts, job.WithSchedule(s.Name, s.Cron, payload))
	}
	return opts, nil
}

// jsonCompatible re-encodes a YAML value as JSON so maps with non-string keys
// fail here instead of on the first cron tick.
func jsonCompatible(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
