package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/wishlist/internal/auth"
	"github.com/mmynk/wishlist/internal/config"
	"github.com/mmynk/wishlist/internal/metrics"
	"github.com/mmynk/wishlist/internal/server"
	"github.com/mmynk/wishlist/internal/storage"
	"github.com/mmynk/wishlist/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel)

	if err := cfg.RequireSecret(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	revocations := auth.NewRevocations(ctx)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL, revocations)

	staticDir := ""
	if cfg.StaticPath != "" {
		staticDir, err = filepath.Abs(cfg.StaticPath)
		if err != nil {
			return err
		}
		slog.Info("Serving static files", "path", staticDir)
	}

	handler := server.NewHandler(server.Deps{
		Store:             store,
		JWTManager:        jwtManager,
		Metrics:           metrics.New(),
		Logger:            logger,
		FriendConcurrency: cfg.FriendFetchConcurrency,
		StaticPath:        staticDir,
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		// Open watch streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Connect server starting", "address", srv.Addr, "driver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
