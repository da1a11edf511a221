// Package main is the entrypoint for the Inkfeed API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/inkfeed/inkfeed/internal/attachment"
	"github.com/inkfeed/inkfeed/internal/auth"
	"github.com/inkfeed/inkfeed/internal/cache"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/internal/events"
	"github.com/inkfeed/inkfeed/internal/handler"
	"github.com/inkfeed/inkfeed/internal/metrics"
	"github.com/inkfeed/inkfeed/internal/server"
	"github.com/inkfeed/inkfeed/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	recorder := metrics.NewInMemory()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	// Once started, the shutdown hooks own the store.
	started := false
	defer func() {
		if !started {
			store.Close()
		}
	}()

	var cacheClient *cache.Cache
	if cfg.NeedsRedis() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to Redis (%s): %s", redactURL(cfg.RedisURL), sanitizeError(err, cfg.RedisURL))
		}
		defer func() {
			if !started {
				_ = cacheClient.Close()
			}
		}()
		logger.Info("connected to Redis")
	}

	files, err := openAttachments(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("attachment backend ready", "backend", cfg.AttachmentBackend)

	inline := attachment.NewInlineCleaner(files, logger, recorder)
	var cleaner attachment.Cleaner = inline
	var queue *attachment.Queue
	var worker *attachment.Worker
	if cfg.CleanupMode == config.CleanupQueue {
		queue = attachment.NewQueue(cacheClient.Client(), inline, logger, recorder)
		cleaner = queue
		worker = attachment.NewWorker(cacheClient.Client(), files, logger, attachment.NewConsumerID(), recorder)
	}

	var publisher events.Publisher = events.NewNoop()
	var kafka *events.KafkaPublisher
	if cfg.KafkaEnabled() {
		kafka, err = events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, logger, recorder)
		if err != nil {
			return fmt.Errorf("create kafka publisher: %w", err)
		}
		publisher = kafka
		logger.Info("publishing post events", "topic", cfg.KafkaTopic)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(store, tokens, logger, recorder)
	feedSvc := service.NewFeedService(store, store, files, cleaner, publisher, logger, recorder)

	deps := []handler.Dependency{{Name: "store", Checker: store}}
	if cacheClient != nil {
		deps = append(deps, handler.Dependency{Name: "redis", Checker: cacheClient})
	}

	r := newRouter(routerDeps{
		cfg:     cfg,
		logger:  logger,
		auth:    authSvc,
		feed:    feedSvc,
		health:  handler.NewHealthHandler(deps...),
		metrics: recorder,
		limiter: cacheClient,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hooks run in reverse: the worker and cleaners drain before the
	// clients they depend on are closed.
	srv.OnShutdown("store", func(context.Context) error {
		store.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}
	if kafka != nil {
		srv.OnShutdown("kafka", kafka.Close)
	}
	srv.OnShutdown("inline-cleaner", inline.Wait)
	if queue != nil {
		srv.OnShutdown("cleanup-queue", queue.Wait)
	}
	if worker != nil {
		srv.OnShutdown("cleanup-worker", worker.Shutdown)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("cleanup worker stopped", "error", err)
			}
		}()
	}

	started = true
	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"cleanup", cfg.CleanupMode,
	)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
