package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

// KafkaConsumer reads agent and sale events for the engine's consumer group.
type KafkaConsumer struct {
	logger *slog.Logger
	reader *kafka.Reader
}

func NewKafkaConsumer(logger *slog.Logger, brokers []string, groupID string, topics []string) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	topics = subscribedTopics(topics)
	if len(topics) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one topic")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return &KafkaConsumer{logger: logger, reader: reader}, nil
}

func (c *KafkaConsumer) Poll(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	out := make([]Message, 0, max)
	for len(out) < max {
		readCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		msg, err := c.reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				return out, nil
			case errors.Is(err, context.Canceled):
				return out, ctx.Err()
			default:
				c.logger.ErrorContext(ctx, "kafka read failed",
					"module", "events.kafka_consumer",
					"layer", "adapter",
					"operation", "poll",
					"outcome", "failure",
					"error", err,
				)
				return out, fmt.Errorf("read commission engine events: %w", err)
			}
		}
		converted, ok := fromKafkaMessage(msg)
		if !ok {
			c.logger.InfoContext(ctx, "kafka record skipped",
				"module", "events.kafka_consumer",
				"layer", "adapter",
				"operation", "poll",
				"outcome", "skipped",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"event_type", converted.EventType,
			)
			continue
		}
		out = append(out, converted)
	}
	return out, nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// fromKafkaMessage reports false for records whose event_type header names an
// event the engine does not consume. Records without the header are kept and
// judged by their envelope.
func fromKafkaMessage(msg kafka.Message) (Message, bool) {
	out := Message{
		Topic:     msg.Topic,
		Key:       string(msg.Key),
		Payload:   msg.Value,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
	for _, h := range msg.Headers {
		if h.Key == headerEventType {
			out.EventType = string(h.Value)
		}
	}
	if out.EventType != "" && !domain.IsConsumedEvent(out.EventType) {
		return out, false
	}
	return out, true
}

func subscribedTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic != "" && !slices.Contains(out, topic) {
			out = append(out, topic)
		}
	}
	return out
}
