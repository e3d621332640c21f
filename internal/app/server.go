package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests may finish after the
// context is cancelled
const ShutdownTimeout = 10 * time.Second

// Serve listens on the configured port until ctx is cancelled, then shuts
// down gracefully
func (a *App) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", ":"+a.Config.Port)
	if err != nil {
		return err
	}
	return a.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is cancelled
func (a *App) ServeListener(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("admin server listening",
			zap.String("addr", lis.Addr().String()),
			zap.String("env", a.Config.Environment),
			zap.String("storage", a.Config.StorageDriver),
		)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
