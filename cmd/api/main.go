package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	intake "github.com/StackCodeArtisan/Madeiyesehomecare/internal"
)

func main() {
	logger := newLogger()

	cfg := intake.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		logger.Error("failed to init rate limiter", "backend", cfg.LimiterBackend, "err", err)
		os.Exit(1)
	}
	defer closeLimiter()

	sessions := intake.NewMemorySessions(cfg.SessionTTL)
	go sessions.Janitor(ctx, cfg.SessionTTL)

	renderer, err := intake.NewTemplateRenderer()
	if err != nil {
		logger.Error("failed to load templates", "err", err)
		os.Exit(1)
	}

	issuer := intake.NewTokenIssuer(cfg.MinFill)
	notifier := intake.NewSMTPNotifier(cfg.Mail, logger)
	pipeline := intake.NewPipeline(issuer, notifier)
	server := intake.NewServer(sessions, issuer, pipeline, limiter, renderer)

	handler := intake.LoggingMiddleware(logger)(intake.SecurityHeaders(server.Routes()))

	s := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("intake service listening", "addr", cfg.ListenAddr, "limiter", cfg.LimiterBackend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}

func newLimiter(ctx context.Context, cfg *intake.Config) (intake.Limiter, func(), error) {
	switch cfg.LimiterBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, err
		}
		return intake.NewRedisLimiter(client, cfg.MaxRequests, cfg.Window), func() { _ = client.Close() }, nil
	default:
		l := intake.NewMemoryLimiter(cfg.MaxRequests, cfg.Window)
		go l.Janitor(ctx, cfg.Window)
		return l, func() {}, nil
	}
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: logLevelFromEnv(),
	}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func logLevelFromEnv() slog.Leveler {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
