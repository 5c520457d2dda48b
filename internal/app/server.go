package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start serves HTTP and returns a channel closed once SIGINT, SIGTERM or
// SIGHUP arrives.
func (a *App) Start() <-chan struct{} {
	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		stop()
		slog.Info("termination signal received, shutting down")
		close(done)
	}()

	return done
}

// Stop drains HTTP first so no request can issue a code after the stores are
// gone, then waits for background jobs and closes resources in order.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	a.cancel()
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background jobs ended with errors", "error", err)
	}

	for _, closer := range a.closers {
		start := time.Now()
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
			continue
		}
		slog.InfoContext(ctx, "resource closed", "name", closer.name, "took", time.Since(start))
	}

	slog.InfoContext(ctx, "application stopped")
}
