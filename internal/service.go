package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/tasks/pkg/health"
	"github.com/dmitrymomot/tasks/pkg/job"
)

// QueueConfig registers one queue.
// Exactly one of Process and Worker must be set.
type QueueConfig struct {
	Process     ProcessorFunc
	Worker      WorkerFactory
	Name        string
	Options     []job.Option
	Concurrency int
}

// Service routes job operations across named queues and bridges their events.
type Service struct {
	cfg      *config
	registry *Registry
	bridge   *Bridge
	logger   *slog.Logger
	mu       sync.Mutex
	started  bool
	stopped  bool
}

// New creates a service. Queues are added with SetupQueue.
//
// Example:
//
//	svc, err := tasks.New(
//	    tasks.WithPool(pool),
//	    tasks.WithLogger(log),
//	    tasks.WithPaginate(tasks.Paginate{Default: 10, Max: 50}),
//	)
func New(opts ...Option) (*Service, error) {
	cfg := newConfig(opts...)
	if cfg.factory == nil {
		return nil, ErrHandleFactory
	}

	return &Service{
		cfg:      cfg,
		registry: NewRegistry(),
		bridge:   NewBridge(cfg.logger, cfg.sinks...),
		logger:   cfg.logger,
	}, nil
}

// SetupQueue creates, registers and bridges a queue. All errors are
// configuration errors and should abort startup. A queue added to a running
// service starts immediately.
func (s *Service) SetupQueue(ctx context.Context, qc QueueConfig) error {
	if qc.Name == "" {
		return fmt.Errorf("%w: queue name is required", ErrConfiguration)
	}
	if (qc.Process == nil) == (qc.Worker == nil) {
		return fmt.Errorf("%w: queue %q", ErrProcessorRequired, qc.Name)
	}
	if qc.Concurrency < 0 {
		return fmt.Errorf("%w: queue %q: concurrency must be positive", ErrConfiguration, qc.Name)
	}
	concurrency := max(qc.Concurrency, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrServiceStopped
	}
	if s.registry.Has(qc.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateQueue, qc.Name)
	}

	var p Processor = qc.Process
	if qc.Worker != nil {
		p = qc.Worker
	}

	opts := []job.Option{
		job.WithLogger(s.logger),
		job.WithProcessor(s.decorate(p)),
		job.WithConcurrency(concurrency),
	}
	opts = append(opts, s.cfg.queueOptions...)
	opts = append(opts, qc.Options...)

	h, err := s.cfg.factory(qc.Name, opts...)
	if err != nil {
		return errors.Join(ErrConfiguration, err)
	}
	if err := s.registry.Register(qc.Name, h); err != nil {
		return err
	}
	if err := s.bridge.Attach(h); err != nil {
		return err
	}

	if s.started {
		if err := h.Start(ctx); err != nil {
			return errors.Join(ErrEngine, err)
		}
	}

	s.logger.InfoContext(ctx, "queue registered",
		slog.String("queue", qc.Name),
		slog.Int("concurrency", concurrency),
	)
	return nil
}

// Queue returns the handle a name resolves to, for use with SubTasks.
func (s *Service) Queue(name string) (Handle, error) {
	return s.registry.Resolve(name)
}

// Queues returns the registered queue names in registration order.
func (s *Service) Queues() []string {
	return s.registry.Names()
}

// Subscribe streams service events. See Bridge.Subscribe.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	return s.bridge.Subscribe(buffer)
}

// Start starts every queue in registration order. If one fails, the queues
// already started are stopped again.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrServiceStopped
	}
	if s.started {
		return nil
	}

	handles := s.registry.Handles()
	for i, h := range handles {
		if err := h.Start(ctx); err != nil {
			for _, started := range slices.Backward(handles[:i]) {
				_ = started.Stop(ctx)
			}
			return errors.Join(ErrEngine, fmt.Errorf("start queue %q: %w", h.Name(), err))
		}
	}

	s.started = true
	s.logger.InfoContext(ctx, "service started", slog.Any("queues", s.registry.Names()))
	return nil
}

// Stop stops every queue in reverse order, waiting for running jobs, then
// ends all event subscriptions. A stopped service cannot be started again.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	if s.started {
		for _, h := range slices.Backward(s.registry.Handles()) {
			if err := h.Stop(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stop queue %q: %w", h.Name(), err))
			}
		}
	}
	s.bridge.Close()

	s.logger.InfoContext(ctx, "service stopped")
	return errors.Join(errs...)
}

// Checks returns one health check per queue, named "queue:<name>".
func (s *Service) Checks() health.Checks {
	checks := make(health.Checks)
	for _, h := range s.registry.Handles() {
		checks["queue:"+h.Name()] = h.Healthcheck
	}
	return checks
}

// Healthcheck fails when any queue is unhealthy.
// Compatible with health.CheckFunc.
func (s *Service) Healthcheck(ctx context.Context) error {
	resp := health.Run(ctx, s.Checks())
	if resp.Healthy() {
		return nil
	}

	var errs []error
	for name, c := range resp.Checks {
		if c.Status != health.StatusHealthy {
			errs = append(errs, fmt.Errorf("%s: %s", name, c.Error))
		}
	}
	return errors.Join(ErrEngine, errors.Join(errs...))
}
