// Package health exposes liveness and readiness probes for queue processes.
//
// [LivenessHandler] answers OK while the process runs. [ReadinessHandler] runs
// named [Checks] in parallel under one timeout and answers 503 when any fails.
// Responses are plain text, or JSON with per-check detail when the client sends
// "Accept: application/json" or "?format=json".
//
// Checks are plain func(context.Context) error closures, so the db, redis and
// job packages plug in directly:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Merge(
//	    health.Checks{
//	        "postgres": db.Healthcheck(pool),
//	        "redis":    redis.Healthcheck(client),
//	    },
//	    svc.Checks(),
//	)))
//
// Workers without HTTP can call [Run] and log the response.
package health
