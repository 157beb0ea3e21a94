package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chunyu/logs2weekly-go/internal/aggregator"
	"github.com/chunyu/logs2weekly-go/internal/api"
	"github.com/chunyu/logs2weekly-go/internal/config"
	"github.com/chunyu/logs2weekly-go/internal/logging"
	"github.com/chunyu/logs2weekly-go/internal/notification"
	"github.com/chunyu/logs2weekly-go/internal/store"
	"github.com/chunyu/logs2weekly-go/pkg/logger"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitFailure
	}

	// All logging goes through the credential-sanitizing wrapper; user API
	// keys pass through most of this service and must never reach a log file.
	baseLog := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     cfg.LogDir,
		Filename:   "logs2weekly.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    true,
	})
	log := logging.NewSecure(baseLog)
	defer func() {
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()

	log.Info().
		Str("version", version).
		Str("commit", gitCommit).
		Int("port", cfg.ServerPort).
		Msg("Starting Logs2Weekly server")

	if err := serve(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return exitFailure
	}

	log.Info().Msg("Server stopped")
	return exitSuccess
}

func serve(ctx context.Context, cfg *config.Config, log *logging.SecureLogger) error {
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() { _ = st.Close() }()

	agg := aggregator.New(st, log, cfg.AITimeoutSeconds, cfg.AIMaxTokens)

	var notifier aggregator.Notifier
	if cfg.TelegramEnabled() {
		tg, err := notification.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramDigestChatID)
		if err != nil {
			// The digest is optional; run without it rather than refusing to start.
			log.Warn().Err(err).Msg("Telegram digest disabled")
		} else {
			notifier = tg
			log.Info().Msg("Telegram daily digest enabled")
		}
	}

	scheduler := aggregator.NewScheduler(agg, cfg.AggregationHour, log, notifier)

	handler := api.NewHandler(st, agg, log, cfg.AITimeoutSeconds, cfg.AIMaxTokens)
	router := api.NewRouter(handler)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Daily aggregation loop; stops on cancellation and is never restarted.
	g.Go(func() error {
		return scheduler.Run(gCtx)
	})

	// HTTP server.
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful HTTP shutdown once the context is cancelled.
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
