package internal

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultShutdownTimeout   = 30 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// RunOption configures the worker runtime.
type RunOption func(*runConfig)

type runConfig struct {
	baseCtx         context.Context
	handler         http.Handler
	logger          *slog.Logger
	address         string
	startupHooks    []func(context.Context) error
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

func buildRunConfig(opts ...RunOption) *runConfig {
	cfg := &runConfig{shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Logger sets the runtime logger.
// If nil, logging is disabled.
func Logger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// BaseContext sets the parent of the signal-aware context.
// Cancelling it shuts the runtime down like a signal does.
func BaseContext(ctx context.Context) RunOption {
	return func(c *runConfig) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}

// ShutdownTimeout bounds queue shutdown plus shutdown hooks.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// StartupHook runs before the queues start. An error aborts Run.
func StartupHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.startupHooks = append(c.startupHooks, fn)
		}
	}
}

// ShutdownHook runs after the queues stopped, in registration order.
//
// Example:
//
//	tasks.ShutdownHook(db.Shutdown(pool))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.shutdownHooks = append(c.shutdownHooks, fn)
		}
	}
}

// Serve also serves h on addr for the lifetime of the runtime, typically the
// transport routes and health probes. The server stops before the queues.
func Serve(addr string, h http.Handler) RunOption {
	return func(c *runConfig) {
		if addr != "" && h != nil {
			c.address = addr
			c.handler = h
		}
	}
}
