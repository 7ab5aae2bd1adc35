package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stefando/multipartUpload/internal/app"
	"github.com/stefando/multipartUpload/internal/config"
	"github.com/stefando/multipartUpload/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func Run(ctx context.Context) error {
	configFile := flag.String("config", "", "path to a YAML, JSON or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.Setup(os.Stdout, cfg.Log.Level)

	router, err := app.NewHandler(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize upload handler: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		logger.Info("starting HTTP server", "addr", cfg.HTTP.Addr)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return eg.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		slog.Error("upload server exited with error", "error", err)
		os.Exit(1)
	}
}
