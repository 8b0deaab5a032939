package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start launches the HTTP server and returns a channel closed once a
// termination signal arrives.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	go func() {
		slog.Info("http server listening",
			"address", a.httpServer.Addr,
			"otp_store", storeDriver(a.config),
			"mail_driver", a.config.GetString("mail.driver"),
			"messaging_driver", a.config.GetString("messaging.driver"),
		)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		close(terminateChan)

		slog.Info("termination signal received")
	}()

	return terminateChan
}

// Serve runs the HTTP server on the provided listener. Tests use it with an
// ephemeral port.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		if err := a.httpServer.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	return errChan
}

// Stop drains in-flight requests, stops background jobs such as the OTP
// sweeper and then closes resources in order.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if a.cancel != nil {
		a.cancel()
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from background jobs", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
