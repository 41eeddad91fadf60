package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/guard"
	"github.com/attaboy/bonusvalue/internal/infra"
	"github.com/attaboy/bonusvalue/internal/metrics"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox relay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("outbox-relay connected to postgres")

	producer := infra.NewKafkaProducer(cfg.Brokers(), cfg.KafkaEnabled, logger)
	defer producer.Close()
	if !producer.Enabled() {
		logger.Warn("kafka disabled, events are acknowledged without publishing")
	}

	metrics.Init()
	go serveMetrics(ctx, cfg.APIPort+1, logger)

	source := repository.NewOutboxSource(pool, repository.NewOutboxRepository())
	poller := infra.NewOutboxPoller(source, producer, cfg.KafkaOfferTopic, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
	poller.Breaker = guard.NewCircuitBreaker(cfg.OutboxBreakerFails, cfg.OutboxBreakerReset)
	poller.OnPublished = func(e domain.OutboxDraft) {
		metrics.OutboxPublished.Inc()
		logger.Debug("outbox event published", "event_id", e.EventID, "event_type", e.EventType)
	}

	poller.Run(ctx)
	return nil
}

func serveMetrics(ctx context.Context, port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "error", err)
	}
}
