package checkout

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the slice of kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains the checkout outbox to Kafka. Events are published at
// least once: a publish that succeeds but fails to be marked processed will
// be retried, so consumers dedupe on checkout_id.
type OutboxPoller struct {
	repo     SessionRepository
	writer   MessageWriter
	interval time.Duration
	batch    int
	log      *zap.Logger
}

func NewOutboxPoller(repo SessionRepository, log *zap.Logger, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "checkout-completed",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		repo:     repo,
		writer:   w,
		interval: time.Second,
		batch:    100,
		log:      log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batch)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Error("failed to publish outbox event",
				zap.String("event_id", event.ID), zap.Error(err))
			continue
		}

		if err := p.repo.MarkEventProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark outbox event processed",
				zap.String("event_id", event.ID), zap.Error(err))
			continue
		}

		p.log.Info("outbox event published",
			zap.String("event_id", event.ID),
			zap.String("checkout_id", event.AggregateID))
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *OutboxEvent) error {
	msg := kafka.Message{
		// checkout_id as the key keeps events for one checkout ordered.
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
