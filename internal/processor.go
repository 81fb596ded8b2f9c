package internal

import (
	"context"
	"errors"

	"github.com/dmitrymomot/tasks/pkg/job"
	"github.com/dmitrymomot/tasks/pkg/logger"
)

var errNilRunner = errors.New("tasks: worker factory returned nil")

// Processor processes one job and returns its result or fails.
type Processor = job.Processor

// ProcessorFunc is the stateless function form of Processor.
type ProcessorFunc = job.ProcessorFunc

// Runner is a worker object created for a single job.
type Runner interface {
	Run(ctx context.Context) (any, error)
}

// WorkerFactory is the per-job object form of Processor: every job gets a
// fresh Runner.
//
// Example:
//
//	tasks.WorkerFactory(func(j *job.Job) tasks.Runner {
//	    return &resizeWorker{job: j, store: store}
//	})
type WorkerFactory func(j *job.Job) Runner

// Process creates a Runner for j and runs it.
func (f WorkerFactory) Process(ctx context.Context, j *job.Job) (any, error) {
	r := f(j)
	if r == nil {
		return nil, errNilRunner
	}
	return r.Run(ctx)
}

type subTasksKey struct{}

// SubTasksFrom returns the sub-task tracker of the job processed in ctx.
// Every processor run by the service gets a fresh tracker for its job.
func SubTasksFrom(ctx context.Context) (*SubTasks, bool) {
	t, ok := ctx.Value(subTasksKey{}).(*SubTasks)
	return t, ok
}

// decorate gives every processed job a logging scope and a sub-task tracker.
func (s *Service) decorate(p Processor) Processor {
	return ProcessorFunc(func(ctx context.Context, j *job.Job) (any, error) {
		ctx = logger.WithJob(ctx, j.Queue, j.ID)
		ctx = context.WithValue(ctx, subTasksKey{}, s.SubTasks(j.ID))
		return p.Process(ctx, j)
	})
}

var (
	_ Processor = ProcessorFunc(nil)
	_ Processor = WorkerFactory(nil)
)
