// Package app assembles the HTTP server and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/session-auth-service/internal/config"
	"github.com/sandeepkv93/session-auth-service/internal/database"
	"github.com/sandeepkv93/session-auth-service/internal/health"
	"github.com/sandeepkv93/session-auth-service/internal/observability"
)

type App struct {
	Config          *config.Config
	Logger          *slog.Logger
	Server          *http.Server
	Observability   *observability.Runtime
	DB              *database.DB
	Redis           *redis.Client
	Readiness       *health.ProbeRunner
	ShutdownTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *database.DB,
	redisClient *redis.Client,
	readiness *health.ProbeRunner,
) *App {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &App{
		Config:          cfg,
		Logger:          logger,
		Server:          server,
		Observability:   runtime,
		DB:              db,
		Redis:           redisClient,
		Readiness:       readiness,
		ShutdownTimeout: timeout,
	}
}

// Run serves until ctx is cancelled or the listener fails, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", "addr", ln.Addr().String())
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.Logger.Error("http server failed", "error", err)
			_ = a.Shutdown(context.Background())
			return err
		}
	}
	return a.Shutdown(context.Background())
}

// Shutdown drains HTTP first, then flushes telemetry. Store handles are closed by the injector cleanup.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Observability.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		a.Logger.Error("shutdown finished with errors", "error", err)
		return err
	}
	a.Logger.Info("shutdown complete")
	return nil
}
