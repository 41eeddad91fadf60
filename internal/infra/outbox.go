package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/google/uuid"
)

// OutboxSource reads pending events and acknowledges delivered ones.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxDraft, error)
	MarkPublished(ctx context.Context, eventID uuid.UUID) error
}

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Breaker guards the publish path. guard.CircuitBreaker satisfies it.
type Breaker interface {
	Check(ctx context.Context, key string) domain.GuardResult
	RecordSuccess(key string)
	RecordFailure(key string)
}

// OutboxPoller polls the event_outbox table and publishes events to Kafka.
type OutboxPoller struct {
	source    OutboxSource
	producer  Publisher
	topic     string
	logger    *slog.Logger
	interval  time.Duration
	batchSize int

	// OnPublished is called after each event is acknowledged. Optional.
	OnPublished func(domain.OutboxDraft)
	// Breaker skips polls while the broker is failing. Optional.
	Breaker Breaker
}

// NewOutboxPoller creates a new outbox poller publishing every event to topic.
func NewOutboxPoller(source OutboxSource, producer Publisher, topic string, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		source:    source,
		producer:  producer,
		topic:     topic,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "topic", p.topic, "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// outboxEnvelope is the Kafka message value for an outbox event.
type outboxEnvelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// PollOnce publishes one batch and returns how many events were acknowledged.
// A failed publish leaves the event pending for the next poll.
func (p *OutboxPoller) PollOnce(ctx context.Context) (int, error) {
	if p.Breaker != nil {
		if res := p.Breaker.Check(ctx, p.topic); !res.Allowed {
			p.logger.Debug("outbox poll skipped", "reason", res.Reason)
			return 0, nil
		}
	}

	events, err := p.source.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, e := range events {
		msg, err := json.Marshal(outboxEnvelope{
			EventID:       e.EventID,
			AggregateType: string(e.AggregateType),
			AggregateID:   e.AggregateID,
			EventType:     string(e.EventType),
			Payload:       e.Payload,
			OccurredAt:    e.OccurredAt,
		})
		if err != nil {
			p.logger.Error("encode outbox event", "event_id", e.EventID, "error", err)
			continue
		}

		headers := map[string]string{"event_type": string(e.EventType)}
		if err := p.producer.Publish(ctx, p.topic, []byte(e.PartitionKey), msg, headers); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "error", err)
			if p.Breaker != nil {
				// stop the batch so later events keep their order
				p.Breaker.RecordFailure(p.topic)
				break
			}
			continue
		}
		if p.Breaker != nil {
			p.Breaker.RecordSuccess(p.topic)
		}

		if err := p.source.MarkPublished(ctx, e.EventID); err != nil {
			p.logger.Error("mark published failed", "event_id", e.EventID, "error", err)
			continue
		}
		published++
		if p.OnPublished != nil {
			p.OnPublished(e)
		}
	}

	if published > 0 {
		p.logger.Debug("outbox poll complete", "published", published)
	}
	return published, nil
}
