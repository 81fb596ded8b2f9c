package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// Queue is a handle over one named River queue.
// Each Queue owns its River client; queues never share engine state.
type Queue struct {
	client    *river.Client[pgx.Tx]
	store     *store
	countFn   func(ctx context.Context, queue string, b Bucket) (int, error)
	cfg       *config
	logger    *slog.Logger
	cron      *cron.Cron
	events    chan Event
	done      chan struct{}
	waiters   map[string][]chan Event
	cancel    context.CancelFunc
	unsub     func()
	name      string
	counts    singleflight.Group
	wg        sync.WaitGroup
	waitersMu sync.Mutex
	mu        sync.Mutex
	stopOnce  sync.Once
	listening atomic.Bool
	started   bool
}

// New creates a queue handle for the named queue.
// The River client is created immediately, allowing jobs to be enqueued
// before Start() is called. Call Start() to begin processing jobs.
func New(pool *pgxpool.Pool, name string, opts ...Option) (*Queue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !cfg.insertOnly && cfg.processor == nil {
		return nil, ErrProcessorRequired
	}

	st := &store{db: pool}
	q := &Queue{
		name:    name,
		store:   st,
		countFn: st.count,
		cfg:     cfg,
		logger:  cfg.logger.With(slog.String("queue", name)),
		events:  make(chan Event, cfg.eventBuffer),
		done:    make(chan struct{}),
		waiters: make(map[string][]chan Event),
	}

	riverCfg := &river.Config{
		Logger:                      q.logger,
		RescueStuckJobsAfter:        cfg.stallInterval,
		CompletedJobRetentionPeriod: cfg.completedRetention,
		DiscardedJobRetentionPeriod: cfg.failedRetention,
		CancelledJobRetentionPeriod: cfg.failedRetention,
		JobTimeout:                  cfg.jobTimeout,
	}
	if !cfg.insertOnly {
		workers := river.NewWorkers()
		river.AddWorker(workers, &worker{queue: q, processor: cfg.processor})
		riverCfg.Workers = workers
		riverCfg.Queues = map[string]river.QueueConfig{
			name: {MaxWorkers: cfg.concurrency},
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), riverCfg)
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}
	q.client = client

	if len(cfg.schedules) > 0 {
		c, err := q.buildCron(cfg.schedules)
		if err != nil {
			return nil, err
		}
		q.cron = c
	}

	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Start begins processing jobs and event delivery.
// Insert-only queues start event delivery only.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.done:
		return ErrStopped
	default:
	}
	if q.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	if !q.cfg.insertOnly {
		sub, unsub := q.client.Subscribe(riverEventKinds...)
		if err := q.client.Start(ctx); err != nil {
			unsub()
			cancel()
			return fmt.Errorf("job: start client: %w", err)
		}
		q.unsub = unsub
		q.wg.Add(1)
		go q.pumpLocal(runCtx, sub)
	}

	if q.cfg.relay != nil && q.cfg.getEvents {
		remote, err := q.cfg.relay.Subscribe(runCtx, q.name)
		if err != nil {
			cancel()
			if q.unsub != nil {
				q.unsub()
				q.unsub = nil
				_ = q.client.Stop(ctx)
			}
			return fmt.Errorf("job: subscribe relay: %w", err)
		}
		q.wg.Add(1)
		go q.pumpRemote(runCtx, remote)
	}

	if q.cron != nil {
		q.cron.Start()
	}

	q.cancel = cancel
	q.started = true
	q.logger.InfoContext(ctx, "queue started",
		slog.Int("concurrency", q.cfg.concurrency),
		slog.Bool("insert_only", q.cfg.insertOnly),
	)

	q.deliver(runCtx, Event{Kind: EventReady, Queue: q.name})
	return nil
}

// Stop gracefully shuts down the queue.
// It waits for currently executing jobs to complete.
// A stopped queue cannot be started again.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return ErrNotStarted
	}

	if q.cron != nil {
		<-q.cron.Stop().Done()
	}

	var err error
	if !q.cfg.insertOnly {
		if stopErr := q.client.Stop(ctx); stopErr != nil {
			err = fmt.Errorf("job: stop client: %w", stopErr)
		}
		q.unsub()
	}

	q.stopOnce.Do(func() { close(q.done) })
	q.cancel()
	q.wg.Wait()

	q.started = false
	q.logger.InfoContext(ctx, "queue stopped")
	return err
}

// Enqueue inserts a job. It lands in the waiting bucket, or in the delayed
// bucket when DelayUntil is in the future.
func (q *Queue) Enqueue(ctx context.Context, s *Submission) (*Job, error) {
	args, opts, err := buildInsert(q.name, s)
	if err != nil {
		return nil, err
	}

	res, err := q.client.Insert(ctx, args, opts)
	if err != nil {
		return nil, q.storeErr(ctx, "enqueue", err)
	}
	if res.UniqueSkippedAsDuplicate {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, args.ID)
	}

	q.logger.DebugContext(ctx, "job enqueued",
		slog.String("job_id", args.ID),
		slog.Int64("engine_id", res.Job.ID),
	)
	return jobFromRow(res.Job)
}

// Job returns the job with the given id.
func (q *Queue) Job(ctx context.Context, id string) (*Job, error) {
	row, err := q.store.lookup(ctx, q.name, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, q.storeErr(ctx, "lookup", err)
	}
	return jobFromRow(row)
}

// Delete removes the job with the given id and returns its last snapshot.
// Running jobs cannot be deleted.
func (q *Queue) Delete(ctx context.Context, id string) (*Job, error) {
	j, err := q.Job(ctx, id)
	if err != nil {
		return nil, err
	}

	row, err := q.client.JobDelete(ctx, j.EngineID)
	switch {
	case errors.Is(err, rivertype.ErrJobRunning):
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, id)
	case errors.Is(err, river.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	case err != nil:
		return nil, q.storeErr(ctx, "delete", err)
	}

	q.logger.DebugContext(ctx, "job deleted", slog.String("job_id", id))
	return jobFromRow(row)
}

// Count returns the number of jobs currently in the bucket.
// Concurrent counts of the same bucket share one query.
func (q *Queue) Count(ctx context.Context, b Bucket) (int, error) {
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBucket, b)
	}

	// The shared query must not inherit the cancellation of whichever caller
	// started it; each caller still stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := q.counts.DoChan(string(b), func() (any, error) {
		return q.countFn(shared, q.name, b)
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, q.storeErr(ctx, "count", res.Err)
		}
		return res.Val.(int), nil
	}
}

// Range returns the jobs at positions [start, end) of the bucket in its native order.
func (q *Queue) Range(ctx context.Context, b Bucket, start, end int) ([]*Job, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBucket, b)
	}
	start = max(start, 0)
	if end <= start {
		return []*Job{}, nil
	}

	rows, err := q.store.window(ctx, q.name, b, start, end-start)
	if err != nil {
		return nil, q.storeErr(ctx, "range", err)
	}

	jobs := make([]*Job, 0, len(rows))
	for _, row := range rows {
		j, err := jobFromRow(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// Events returns the raw event stream of this queue.
// Events are buffered until the first call; the stream has a single consumer.
func (q *Queue) Events() <-chan Event {
	q.listening.Store(true)
	return q.events
}

// buildInsert creates River job arguments from a submission.
func buildInsert(queue string, s *Submission) (*taskArgs, *river.InsertOpts, error) {
	if s == nil {
		s = &Submission{}
	}
	if len(s.Payload) > 0 && !json.Valid(s.Payload) {
		return nil, nil, ErrInvalidPayload
	}
	if s.Backoff != nil {
		if err := s.Backoff.Validate(); err != nil {
			return nil, nil, err
		}
	}

	id := s.ID
	if id == "" {
		id = uuid.NewString()
	}

	args := &taskArgs{
		ID:      id,
		Payload: s.Payload,
		Backoff: s.Backoff,
		Timeout: s.Timeout,
	}

	opts := &river.InsertOpts{
		Queue: queue,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
			ByState: allStates,
		},
	}
	if s.Retries != nil {
		opts.MaxAttempts = *s.Retries + 1
	}
	if !s.DelayUntil.IsZero() {
		opts.ScheduledAt = s.DelayUntil
	}

	return args, opts, nil
}

// storeErr wraps a backing store failure and reports it as an error event.
// Caller cancellation is not a store failure and is returned untouched.
func (q *Queue) storeErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	err = errors.Join(ErrStore, fmt.Errorf("%s: %w", op, err))
	q.logger.ErrorContext(ctx, "queue store failure",
		slog.String("op", op),
		slog.Any("error", err),
	)
	q.deliver(ctx, Event{Kind: EventError, Queue: q.name, Err: err})
	return err
}

func (q *Queue) pumpLocal(ctx context.Context, sub <-chan *river.Event) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if ev == nil || ev.Job == nil {
				continue
			}
			out, err := fromRiverEvent(q.name, ev)
			if err != nil {
				q.logger.WarnContext(ctx, "skipping undecodable event",
					slog.Int64("engine_id", ev.Job.ID),
					slog.Any("error", err),
				)
				continue
			}
			if out.Kind == "" {
				continue
			}
			q.dispatch(ctx, out, true)
		}
	}
}

func (q *Queue) pumpRemote(ctx context.Context, remote <-chan Event) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-remote:
			if !ok {
				return
			}
			q.dispatch(ctx, ev, false)
		}
	}
}

// dispatch routes one event to waiters, the relay and the local stream.
// With a receiving relay, local events reach the stream through the relay only.
func (q *Queue) dispatch(ctx context.Context, ev Event, local bool) {
	if ev.terminal() {
		q.resolve(ev)
	}

	if local && q.cfg.relay != nil && q.cfg.sendEvents {
		if err := q.cfg.relay.Publish(ctx, ev); err != nil {
			q.logger.WarnContext(ctx, "relay publish failed",
				slog.String("event", string(ev.Kind)),
				slog.Any("error", err),
			)
			q.deliver(ctx, Event{Kind: EventError, Queue: q.name, Err: err})
		}
	}

	// Local events come back through the relay only when this queue both
	// publishes and subscribes.
	if local && q.cfg.relay != nil && q.cfg.sendEvents && q.cfg.getEvents {
		return
	}
	q.deliver(ctx, ev)
}

// deliver pushes an event to the stream once a consumer exists.
func (q *Queue) deliver(ctx context.Context, ev Event) {
	if !q.listening.Load() {
		select {
		case q.events <- ev:
		default:
		}
		return
	}

	select {
	case q.events <- ev:
	case <-ctx.Done():
	case <-q.done:
	}
}
