package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOutboxWorkerPublishesAndMarks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := memory.NewRepositories()
	for _, key := range []string{"camp-1", "camp-2"} {
		if err := repos.Outbox.Enqueue(ctx, ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    "campaign.created",
			PartitionKey: key,
			Payload:      []byte(`{"campaign_id":"` + key + `"}`),
			OccurredAt:   time.Now().UTC(),
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	pub := NewMemoryPublisher()
	worker := NewOutboxWorker(discardLogger(), repos.Outbox, pub, time.Second, 10)

	n, err := worker.ProcessOnce(ctx)
	if err != nil {
		t.Fatalf("process once: %v", err)
	}
	if n != 2 {
		t.Fatalf("published = %d, want 2", n)
	}
	var keys []string
	for _, msg := range pub.Messages() {
		keys = append(keys, msg.PartitionKey)
	}
	if diff := cmp.Diff([]string{"camp-1", "camp-2"}, keys); diff != "" {
		t.Fatalf("partition keys mismatch (-want +got):\n%s", diff)
	}
	if pending := repos.Outbox.Pending(); pending != 0 {
		t.Fatalf("pending = %d, want 0", pending)
	}

	n, err = worker.ProcessOnce(ctx)
	if err != nil || n != 0 {
		t.Fatalf("second pass = (%d, %v), want (0, nil)", n, err)
	}
}

func TestOutboxWorkerKeepsFailedRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repos := memory.NewRepositories()
	if err := repos.Outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID: uuid.New(), EventType: "campaign.created", PartitionKey: "camp-1", Payload: []byte(`{}`),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	pub := NewMemoryPublisher()
	pub.FailWith(errors.New("broker unavailable"))
	worker := NewOutboxWorker(discardLogger(), repos.Outbox, pub, time.Second, 10)

	n, err := worker.ProcessOnce(ctx)
	if err != nil {
		t.Fatalf("process once: %v", err)
	}
	if n != 0 {
		t.Fatalf("published = %d, want 0", n)
	}
	records, err := repos.Outbox.FetchUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || records[0].RetryCount != 1 || records[0].LastError == nil {
		t.Fatalf("unexpected record state: %+v", records)
	}

	pub.FailWith(nil)
	if n, err := worker.ProcessOnce(ctx); err != nil || n != 1 {
		t.Fatalf("retry pass = (%d, %v), want (1, nil)", n, err)
	}
}

type recordingHandler struct {
	mu     sync.Mutex
	seen   []string
	failOn string
}

func (h *recordingHandler) HandleDomainEvent(_ context.Context, event contracts.EventEnvelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if event.EventID == h.failOn {
		return errors.New("handler failed")
	}
	h.seen = append(h.seen, event.EventID)
	return nil
}

func envelopeMessage(t *testing.T, eventID string) Message {
	t.Helper()
	raw, err := json.Marshal(contracts.EventEnvelope{
		EventID:   eventID,
		EventType: "agent.upserted",
		Data:      json.RawMessage(`{"agent_id":"a1"}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return Message{Topic: "agent.upserted", Key: "a1", Payload: raw}
}

func TestConsumerWorkerSkipsBadMessages(t *testing.T) {
	t.Parallel()
	consumer := NewMemoryConsumer(
		envelopeMessage(t, "evt-1"),
		Message{Topic: "agent.upserted", Payload: []byte("not json")},
		envelopeMessage(t, "evt-fail"),
		envelopeMessage(t, "evt-2"),
	)
	handler := &recordingHandler{failOn: "evt-fail"}
	worker := NewConsumerWorker(discardLogger(), consumer, handler, time.Second)

	n, err := worker.ProcessOnce(context.Background())
	if err != nil {
		t.Fatalf("process once: %v", err)
	}
	if n != 2 {
		t.Fatalf("handled = %d, want 2", n)
	}
	if diff := cmp.Diff([]string{"evt-1", "evt-2"}, handler.seen); diff != "" {
		t.Fatalf("handled events mismatch (-want +got):\n%s", diff)
	}
}

func TestNoopConsumerReturnsNothing(t *testing.T) {
	t.Parallel()
	msgs, err := NewNoopConsumer().Poll(context.Background(), 10)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("noop poll = (%v, %v)", msgs, err)
	}
}
