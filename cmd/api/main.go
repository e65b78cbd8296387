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

	"github.com/whiskey-inventory/cmd/api/backend"
	"github.com/whiskey-inventory/cmd/api/config"
	whiskeyhttp "github.com/whiskey-inventory/cmd/api/http"
	"github.com/whiskey-inventory/cmd/api/whiskey"
)

func main() {
	err := run()
	if err != nil {
		slog.Error("exiting", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	whiskeyService := whiskey.NewService(store)
	whiskeyHandler := whiskeyhttp.NewWhiskeyHandler(whiskeyService)

	server := whiskeyhttp.NewServer(whiskeyhttp.ServerConfig{
		Port:           cfg.Port,
		RequestTimeout: cfg.HTTPRequestTimeout,
		ReadTimeout:    cfg.HTTPReadTimeout,
		WriteTimeout:   cfg.HTTPWriteTimeout,
		IdleTimeout:    cfg.HTTPIdleTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	}, whiskeyHandler, store)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr), slog.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("unexpected http server error: %w", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownRelease()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	logger.Info("graceful shutdown complete")
	return nil
}
