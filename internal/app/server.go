package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves the mock backend in the background. The returned channel is
// closed when a termination signal arrives or the listener fails.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})
	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("mock auth backend listening", "address", a.httpServer.Addr)

		err := a.httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "address", a.httpServer.Addr, "error", err)
			stop()
		}
	}()

	go func() {
		defer close(done)
		defer stop()

		<-ctx.Done()
		slog.Info("shutdown requested", "cause", context.Cause(ctx))
	}()

	return done
}

// Stop releases the HTTP listener, then background tasks, then the closers
// in the order initClosers registered them.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", "http server", "error", err)
		}
	}

	slog.DebugContext(ctx, "waiting for background tasks", "active", a.goroutine.Active())
	if err := a.goroutine.Wait(ctx); err != nil {
		slog.ErrorContext(ctx, "background task failed", "error", err)
	}

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped", "mode", a.mode.String())
}
