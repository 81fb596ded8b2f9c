package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/tasks/pkg/logger"
)

// Run starts the service and blocks until SIGINT, SIGTERM or the base context
// ends, then shuts down: HTTP server, queues (waiting for running jobs), hooks.
//
// Example:
//
//	err := tasks.Run(svc,
//	    tasks.Logger(log),
//	    tasks.Serve(":8080", router),
//	    tasks.ShutdownHook(db.Shutdown(pool)),
//	)
func Run(svc *Service, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)

	log := cfg.logger
	if log == nil {
		log = logger.NewNope()
	}

	baseCtx := cfg.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, hook := range cfg.startupHooks {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}

	var server *http.Server
	errCh := make(chan error, 1)
	if cfg.handler != nil {
		server = &http.Server{
			Addr:              cfg.address,
			Handler:           cfg.handler,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			IdleTimeout:       defaultIdleTimeout,
		}

		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return errors.Join(err, shutdown(svc, cfg, nil, log))
		}

		go func() {
			log.Info("server starting", slog.String("address", ln.Addr().String()))
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
	}

	var runErr error
	select {
	case err := <-errCh:
		runErr = err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return errors.Join(runErr, shutdown(svc, cfg, server, log))
}

func shutdown(svc *Service, cfg *runConfig, server *http.Server, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	var errs []error

	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := svc.Stop(ctx); err != nil {
		errs = append(errs, err)
		log.Error("queue shutdown failed", slog.Any("error", err))
	}

	for _, hook := range cfg.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		log.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	log.Info("shutdown completed")
	return nil
}
