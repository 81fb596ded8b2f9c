// Package tasks is a multi-queue job service built on River and PostgreSQL.
//
// A Service owns any number of named queues. Each queue is registered with
// SetupQueue together with its processor, and every job operation resolves
// its target queue by name. When the service has exactly one queue the name
// may be omitted.
//
// # Quick Start
//
//	pool, err := db.Connect(ctx, dbCfg)
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, pool, dbCfg.MigrationsTable, log); err != nil {
//	    return err
//	}
//
//	svc, err := tasks.New(
//	    tasks.WithPool(pool),
//	    tasks.WithLogger(log),
//	    tasks.WithPaginate(tasks.Paginate{Default: 10, Max: 50}),
//	)
//	if err != nil {
//	    return err
//	}
//
//	err = svc.SetupQueue(ctx, tasks.QueueConfig{
//	    Name:        "email",
//	    Concurrency: 5,
//	    Process: func(ctx context.Context, j *tasks.RawJob) (any, error) {
//	        var msg Message
//	        if err := j.Decode(&msg); err != nil {
//	            return nil, err
//	        }
//	        return nil, send(ctx, msg)
//	    },
//	})
//
//	return tasks.Run(svc, tasks.Logger(log), tasks.ShutdownHook(db.Shutdown(pool)))
//
// # Jobs
//
// Create, Get, Remove and RemoveMany return the public Job shape
// {id, data, progress, status}. The *Raw variants return the engine job with
// attempts, errors and timestamps for trusted callers.
//
// Find lists one status bucket with skip and limit:
//
//	page, err := svc.Find(ctx, tasks.FindParams{
//	    Queue: "email",
//	    Type:  "failed",
//	    Query: tasks.Query{Limit: &limit},
//	})
//
// A job is always in exactly one of active, waiting, delayed, completed
// or failed.
//
// # Events
//
// Queue lifecycle events are republished with the queue name attached.
// Subscribe returns a stream; WithSink registers synchronous receivers.
// Events carry plain data only, so failures arrive as *SerializedError.
//
// # Sub-tasks
//
// A processor can fan out child jobs and wait for them:
//
//	subs, _ := tasks.SubTasksFrom(ctx)
//	target, _ := svc.Queue("resize")
//	for _, size := range sizes {
//	    if _, err := subs.Create(ctx, target, Resize{Size: size}, tasks.CreateParams{}); err != nil {
//	        return nil, err
//	    }
//	}
//	results, err := subs.Wait(ctx)
//
// Children carry their parent id under ParentKey, so a restarted parent can
// rebuild its set with Restore.
//
// # Errors
//
// Every error matches one class with errors.Is: ErrConfiguration,
// ErrResolution, ErrValidation, ErrNotFound or ErrEngine. Validation errors
// carry *FieldError details naming the offending field.
package tasks
