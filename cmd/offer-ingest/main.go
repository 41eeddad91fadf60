package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/attaboy/bonusvalue/internal/app"
	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/handler"
	"github.com/attaboy/bonusvalue/internal/infra"
	"github.com/attaboy/bonusvalue/internal/metrics"
	"github.com/attaboy/bonusvalue/internal/service"
	"github.com/segmentio/kafka-go"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("offer ingest failed", "error", err)
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
	if !cfg.KafkaEnabled {
		return errors.New("offer-ingest requires KAFKA_ENABLED=true")
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	metrics.Init()
	svcs := app.NewServices(pool, cfg, auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAdminExpiry), logger)

	consumer := infra.NewKafkaConsumer(cfg.Brokers(), cfg.KafkaIngestTopic, cfg.KafkaGroupID, true, logger)
	defer consumer.Close()
	logger.Info("offer-ingest consuming", "topic", cfg.KafkaIngestTopic, "group", cfg.KafkaGroupID)

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("offer-ingest shutting down")
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := handleMessage(ctx, svcs.Offers, msg, logger); err != nil {
			// Leave the offset uncommitted; the message is redelivered after restart.
			return fmt.Errorf("ingest offset %d: %w", msg.Offset, err)
		}
		if err := consumer.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// handleMessage ingests one scraped offer. Malformed or rejected messages are
// logged and skipped; store failures are returned.
func handleMessage(ctx context.Context, offers *service.OfferService, msg kafka.Message, logger *slog.Logger) error {
	var in service.IngestInput
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		logger.Warn("skipping malformed offer message", "offset", msg.Offset, "error", err)
		return nil
	}
	if err := handler.Validate(&in); err != nil {
		logger.Warn("skipping invalid offer message", "offset", msg.Offset, "error", err)
		return nil
	}

	scored, inserted, err := offers.Ingest(ctx, in)
	if err != nil {
		if domain.HasCode(err, "VALIDATION_ERROR") {
			logger.Warn("skipping rejected offer message", "offset", msg.Offset, "error", err)
			return nil
		}
		return err
	}
	logger.Info("offer ingested from kafka",
		"offset", msg.Offset,
		"offer_id", scored.Offer.ID,
		"inserted", inserted,
		"value_score", scored.Calculation.ValueScore,
	)
	return nil
}
