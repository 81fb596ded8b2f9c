package tasks

import (
	"context"
	"io"

	"github.com/dmitrymomot/tasks/internal"
	"github.com/dmitrymomot/tasks/pkg/job"
	"github.com/dmitrymomot/tasks/pkg/logger"
)

// Type aliases - public API
type (
	// Service routes job operations across named queues and bridges their events.
	Service = internal.Service

	// QueueConfig registers one queue with SetupQueue.
	QueueConfig = internal.QueueConfig

	// Option configures the Service.
	Option = internal.Option

	// RunOption configures the worker runtime.
	RunOption = internal.RunOption

	// Handle wraps one queue engine instance.
	Handle = internal.Handle

	// HandleFactory creates the handle for a named queue.
	HandleFactory = internal.HandleFactory

	// Job is the public shape of a job: id, data, progress and status.
	Job = internal.Job

	// RawJob is the engine-native job returned by the *Raw methods.
	RawJob = job.Job

	// Bucket is one of the five job statuses.
	Bucket = job.Bucket

	// JobOptions is the per-job options bundle.
	JobOptions = internal.JobOptions

	// BackoffOptions selects the retry delay policy.
	BackoffOptions = internal.BackoffOptions

	// CreateParams selects the target queue and per-job options of a create call.
	CreateParams = internal.CreateParams

	// GetParams selects the queue of a get call.
	GetParams = internal.GetParams

	// RemoveParams selects the queue of a remove call.
	RemoveParams = internal.RemoveParams

	// RemoveResult is the outcome of removing one id with RemoveMany.
	RemoveResult = internal.RemoveResult

	// FindParams selects a bucket of one queue and a window over it.
	FindParams = internal.FindParams

	// Query carries the caller's skip and limit.
	Query = internal.Query

	// Paginate is a page size policy.
	Paginate = internal.Paginate

	// Event is a lifecycle notification republished by the service.
	Event = internal.Event

	// EventName is the service-level event vocabulary.
	EventName = internal.EventName

	// Sink receives every bridged event synchronously.
	Sink = internal.Sink

	// SubTasks tracks the children of one running job.
	SubTasks = internal.SubTasks

	// ChildResult is the final outcome of one tracked child.
	ChildResult = internal.ChildResult

	// Processor processes one job and returns its result or fails.
	Processor = internal.Processor

	// ProcessorFunc is the stateless function form of Processor.
	ProcessorFunc = internal.ProcessorFunc

	// WorkerFactory creates a fresh Runner for every job.
	WorkerFactory = internal.WorkerFactory

	// Runner is a worker object created for a single job.
	Runner = internal.Runner

	// FieldError reports one malformed request field.
	FieldError = internal.FieldError

	// SerializedError is the transport-safe form of an error carried by events.
	SerializedError = internal.SerializedError

	// FileConfig is the YAML form of the service and queue settings.
	FileConfig = internal.FileConfig

	// QueueEntry holds the engine settings of one queue in a FileConfig.
	QueueEntry = internal.QueueEntry

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor
)

// Buckets.
const (
	StatusActive    = job.BucketActive
	StatusWaiting   = job.BucketWaiting
	StatusDelayed   = job.BucketDelayed
	StatusCompleted = job.BucketCompleted
	StatusFailed    = job.BucketFailed
)

// Events.
const (
	EventReady     = internal.EventReady
	EventError     = internal.EventError
	EventCompleted = internal.EventCompleted
	EventFailed    = internal.EventFailed
	EventRetrying  = internal.EventRetrying
	EventProgress  = internal.EventProgress
)

// ParentKey is the payload field marking a sub-task with its parent job id.
const ParentKey = internal.ParentKey

// Error classes. Every service error matches exactly one with errors.Is.
var (
	ErrConfiguration = internal.ErrConfiguration
	ErrResolution    = internal.ErrResolution
	ErrValidation    = internal.ErrValidation
	ErrNotFound      = internal.ErrNotFound
	ErrEngine        = internal.ErrEngine
)

var (
	ErrAmbiguousQueue    = internal.ErrAmbiguousQueue
	ErrUnknownQueue      = internal.ErrUnknownQueue
	ErrInvalidType       = internal.ErrInvalidType
	ErrDuplicateQueue    = internal.ErrDuplicateQueue
	ErrProcessorRequired = internal.ErrProcessorRequired
	ErrHandleFactory     = internal.ErrHandleFactory
	ErrServiceStopped    = internal.ErrServiceStopped
)

// New creates a service. Queues are added with SetupQueue.
func New(opts ...Option) (*Service, error) {
	return internal.New(opts...)
}

// Run starts the service and blocks until shutdown.
// It handles SIGINT and SIGTERM for graceful shutdown.
func Run(svc *Service, opts ...RunOption) error {
	return internal.Run(svc, opts...)
}

// SubTasksFrom returns the sub-task tracker of the job processed in ctx.
func SubTasksFrom(ctx context.Context) (*SubTasks, bool) {
	return internal.SubTasksFrom(ctx)
}

// ReportProgress records progress (0..100) for the job processed in ctx.
func ReportProgress(ctx context.Context, percent int) error {
	return job.ReportProgress(ctx, percent)
}

// Serialize reduces an engine job to its public shape.
func Serialize(j *RawJob) Job {
	return internal.Serialize(j)
}

// SerializeError flattens err into plain data.
func SerializeError(err error) *SerializedError {
	return internal.SerializeError(err)
}

// LoadConfig decodes and validates a YAML config.
func LoadConfig(r io.Reader) (*FileConfig, error) {
	return internal.LoadConfig(r)
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (*FileConfig, error) {
	return internal.LoadConfigFile(path)
}
