package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/contracts"
)

type EventHandler interface {
	HandleDomainEvent(ctx context.Context, event contracts.EventEnvelope) error
}

// ConsumerWorker feeds consumed envelopes to the service. Messages that fail
// are logged as dead letters and skipped.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	handler  EventHandler
	interval time.Duration
	metrics  *metrics.Metrics
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, handler EventHandler, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, handler: handler, interval: interval,
	}
}

func (w *ConsumerWorker) WithMetrics(m *metrics.Metrics) *ConsumerWorker {
	w.metrics = m
	return w
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOnce handles one poll batch and returns the number handled cleanly.
func (w *ConsumerWorker) ProcessOnce(ctx context.Context) (int, error) {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return 0, err
	}
	handled := 0
	for _, msg := range msgs {
		var envelope contracts.EventEnvelope
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			w.deadLetter(ctx, msg, "", err)
			continue
		}
		if err := w.handler.HandleDomainEvent(ctx, envelope); err != nil {
			w.deadLetter(ctx, msg, envelope.EventID, err)
			continue
		}
		handled++
		w.observe("handled")
	}
	return handled, nil
}

func (w *ConsumerWorker) observe(outcome string) {
	if w.metrics != nil {
		w.metrics.EventsConsumed.WithLabelValues(outcome).Inc()
	}
}

func (w *ConsumerWorker) deadLetter(ctx context.Context, msg Message, eventID string, err error) {
	w.observe("dead_letter")
	w.logger.WarnContext(ctx, "event dead-lettered",
		"module", "events.consumer_worker",
		"layer", "adapter",
		"operation", "handle_event",
		"outcome", "dead_letter",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"event_id", eventID,
		"error", err,
	)
}
