// Package relay shares queue events between processes over Redis pub/sub.
//
// A [Relay] implements [job.Relay]. Every queue publishes to its own channel,
// "<prefix>:<queue>:events", so processes only receive what they subscribed to.
// Events travel without the job snapshot: subscribers get the kind, the job id,
// the result or progress, and errors rebuilt as [*job.RemoteError].
//
// Redis pub/sub is fire-and-forget. Events published while no subscriber is
// connected are lost, which is why job.Queue.Await keeps polling the store.
//
// # Usage
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"))
//	if err != nil {
//	    return err
//	}
//
//	r := relay.New(client, relay.WithPrefix("billing"))
//	q, err := job.New(pool, "invoices",
//	    job.WithProcessor(processor),
//	    job.WithRelay(r, true, true),
//	)
package relay
