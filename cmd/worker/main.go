package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/videocatalog/internal/config"
	"github.com/hszk-dev/videocatalog/internal/container"
	"github.com/hszk-dev/videocatalog/internal/domain/repository"
	"github.com/hszk-dev/videocatalog/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	deps, err := container.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Error("failed to close dependencies", slog.String("error", err.Error()))
		}
	}()

	consumer, err := deps.EncoderResults(ctx)
	if err != nil {
		return err
	}

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup to track in-flight results
	var wg sync.WaitGroup
	handle := encoderResultHandler(deps.Videos)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming encoder results")
		err := consumer.ConsumeEncoderResults(ctx, func(ctx context.Context, result repository.EncoderResult) error {
			wg.Add(1)
			defer wg.Done()
			return handle(ctx, result)
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Cancel the main context to stop consuming new messages
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight results handled")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some results may not have been handled")
	}

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("worker stopped")
	return nil
}

// encoderResultHandler applies one encoder result to its video. Unknown
// statuses are logged and swallowed since redelivery cannot fix them.
func encoderResultHandler(svc usecase.VideoService) func(ctx context.Context, result repository.EncoderResult) error {
	return func(ctx context.Context, result repository.EncoderResult) error {
		logger := slog.With(
			slog.String("video_id", result.VideoID),
			slog.String("resource_id", result.ResourceID),
			slog.String("status", result.Status),
			slog.Int("retry_count", result.RetryCount),
		)

		if result.Error != "" {
			logger.Warn("encoder reported an error", slog.String("encoder_error", result.Error))
		}

		err := svc.UpdateMediaStatus(ctx, usecase.UpdateMediaStatusInput{
			Status:     result.Status,
			VideoID:    result.VideoID,
			ResourceID: result.ResourceID,
			Folder:     result.Folder,
			FileName:   result.FileName,
		})
		if errors.Is(err, usecase.ErrInvalidMediaStatus) {
			logger.Error("discarding encoder result", slog.String("error", err.Error()))
			return nil
		}
		if err != nil {
			logger.Error("encoder result handling failed", slog.String("error", err.Error()))
			return err
		}

		logger.Info("encoder result applied")
		return nil
	}
}
