package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/dropfeed/pkg/dropfeed/api"
	"github.com/tendant/dropfeed/pkg/dropfeed/auth"
	"github.com/tendant/dropfeed/pkg/dropfeed/config"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("Server failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		fmt.Fprintln(os.Stderr, config.Usage())
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Environment)
	slog.SetDefault(logger)

	ctx := context.Background()
	svc, closeStore, err := cfg.BuildService(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer closeStore()

	handler := api.NewHandler(svc,
		auth.NewBearerAuthenticator(cfg.AdminToken),
		api.WithStrictUpdates(cfg.StrictUpdates),
	)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: api.NewRouter(handler, api.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			Timeout:        cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dropfeed server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType,
			"strict_updates", cfg.StrictUpdates,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
