package events

import (
	"context"
	"slices"
	"sync"
)

type Message struct {
	Topic   string
	Key     string
	Payload []byte

	// EventType comes from the record header when the producer set one.
	EventType string
	Partition int
	Offset    int64
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (n *NoopConsumer) Poll(_ context.Context, _ int) ([]Message, error) {
	return nil, nil
}

// MemoryConsumer hands out queued messages in order.
type MemoryConsumer struct {
	mu    sync.Mutex
	queue []Message
}

func NewMemoryConsumer(messages ...Message) *MemoryConsumer {
	return &MemoryConsumer{queue: slices.Clone(messages)}
}

func (c *MemoryConsumer) Push(messages ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, messages...)
}

func (c *MemoryConsumer) Poll(_ context.Context, max int) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if max <= 0 || max > len(c.queue) {
		max = len(c.queue)
	}
	out := slices.Clone(c.queue[:max])
	c.queue = c.queue[max:]
	return out, nil
}
