package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

const (
	headerEventType = "event_type"
	headerProducer  = "producer"
	producerName    = "commission-engine"
)

// DefaultTopic is the topic an outbound event lands on when no override is configured.
func DefaultTopic(eventType string) string {
	return producerName + "." + eventType + ".v1"
}

// KafkaPublisher writes outbox events keyed by campaign or agent so that one
// chain's events stay ordered on a single partition.
type KafkaPublisher struct {
	logger       *slog.Logger
	writer       *kafka.Writer
	topicByEvent map[string]string
	nowFn        func() time.Time
}

func NewKafkaPublisher(logger *slog.Logger, brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	topics := make(map[string]string, len(topicByEvent))
	for eventType, topic := range topicByEvent {
		if !domain.IsPublishedEvent(eventType) {
			return nil, fmt.Errorf("%w: no outbound topic for %s", domain.ErrUnsupportedEventType, eventType)
		}
		if topic != "" {
			topics[eventType] = topic
		}
	}
	return &KafkaPublisher{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topicByEvent: topics,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	msg, err := p.message(eventType, payload, partitionKey)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "kafka publish failed",
			"module", "events.kafka_publisher",
			"layer", "adapter",
			"operation", "publish",
			"outcome", "failure",
			"event_type", eventType,
			"topic", msg.Topic,
			"partition_key", partitionKey,
			"error", err,
		)
		return fmt.Errorf("publish %s to %s: %w", eventType, msg.Topic, err)
	}
	p.logger.DebugContext(ctx, "kafka event published",
		"module", "events.kafka_publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"topic", msg.Topic,
		"partition_key", partitionKey,
	)
	return nil
}

func (p *KafkaPublisher) message(eventType string, payload []byte, partitionKey string) (kafka.Message, error) {
	if !domain.IsPublishedEvent(eventType) {
		return kafka.Message{}, fmt.Errorf("%w: %s is not published by this engine", domain.ErrUnsupportedEventType, eventType)
	}
	if partitionKey == "" {
		return kafka.Message{}, fmt.Errorf("%w: %s requires a partition key", domain.ErrValidation, eventType)
	}
	topic := DefaultTopic(eventType)
	if mapped, ok := p.topicByEvent[eventType]; ok {
		topic = mapped
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(partitionKey),
		Value: payload,
		Time:  p.nowFn(),
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(eventType)},
			{Key: headerProducer, Value: []byte(producerName)},
		},
	}, nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
