package events

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

func TestKafkaPublisherRoutesEngineEvents(t *testing.T) {
	t.Parallel()
	pub, err := NewKafkaPublisher(discardLogger(), []string{"localhost:9092"}, map[string]string{
		domain.EventCampaignCreated:          "ops.campaigns",
		domain.EventCampaignSnapshotComputed: "",
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	t.Cleanup(func() { _ = pub.Close() })

	created, err := pub.message(domain.EventCampaignCreated, []byte(`{}`), "camp-1")
	if err != nil {
		t.Fatalf("campaign.created: %v", err)
	}
	if created.Topic != "ops.campaigns" || string(created.Key) != "camp-1" {
		t.Fatalf("created = %s key %s", created.Topic, created.Key)
	}
	wantHeaders := []kafka.Header{
		{Key: "event_type", Value: []byte(domain.EventCampaignCreated)},
		{Key: "producer", Value: []byte("commission-engine")},
	}
	if diff := cmp.Diff(wantHeaders, created.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}

	snap, err := pub.message(domain.EventCampaignSnapshotComputed, []byte(`{}`), "camp-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Topic != "commission-engine.campaign.snapshot.computed.v1" {
		t.Fatalf("snapshot topic = %s", snap.Topic)
	}

	if _, err := pub.message(domain.EventAgentUpserted, []byte(`{}`), "a1"); !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("inbound event err = %v", err)
	}
	if _, err := pub.message(domain.EventCommissionStatementComputed, []byte(`{}`), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing key err = %v", err)
	}
}

func TestNewKafkaPublisherRejectsForeignTopicMapping(t *testing.T) {
	t.Parallel()
	_, err := NewKafkaPublisher(discardLogger(), []string{"localhost:9092"}, map[string]string{
		domain.EventCampaignSaleAttributed: "sales",
	})
	if !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("err = %v", err)
	}
}

func TestFromKafkaMessageFiltersByEventHeader(t *testing.T) {
	t.Parallel()
	sale := kafka.Message{
		Topic: "campaign.sale_attributed", Partition: 3, Offset: 42,
		Key: []byte("camp-1"), Value: []byte(`{}`),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(domain.EventCampaignSaleAttributed)}},
	}
	got, ok := fromKafkaMessage(sale)
	if !ok {
		t.Fatalf("sale dropped")
	}
	want := Message{
		Topic: "campaign.sale_attributed", Key: "camp-1", Payload: []byte(`{}`),
		EventType: domain.EventCampaignSaleAttributed, Partition: 3, Offset: 42,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}

	echo := sale
	echo.Headers = []kafka.Header{{Key: "event_type", Value: []byte(domain.EventCampaignCreated)}}
	if _, ok := fromKafkaMessage(echo); ok {
		t.Fatalf("own outbound event accepted")
	}

	bare := sale
	bare.Headers = nil
	if _, ok := fromKafkaMessage(bare); !ok {
		t.Fatalf("record without header dropped")
	}
}

func TestNewKafkaConsumerNeedsTopics(t *testing.T) {
	t.Parallel()
	if got := subscribedTopics([]string{" agent.upserted ", "", "agent.upserted", "campaign.sale_attributed"}); !cmp.Equal(got, []string{"agent.upserted", "campaign.sale_attributed"}) {
		t.Fatalf("topics = %v", got)
	}
	if _, err := NewKafkaConsumer(discardLogger(), []string{"localhost:9092"}, "m42", []string{"", " "}); err == nil {
		t.Fatalf("blank topics accepted")
	}
	if _, err := NewKafkaConsumer(discardLogger(), []string{"localhost:9092"}, "", []string{"agent.upserted"}); err == nil {
		t.Fatalf("missing group accepted")
	}
}
