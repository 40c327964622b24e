package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
)

var eventNamespace = uuid.MustParse("6f1b7a52-2d43-4c3e-9a57-3c1f0e6b9d42")

func requireActor(actor Actor) error {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

func requireSelfOrAdmin(actor Actor, agentID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.SubjectID != agentID {
		return domain.ErrForbidden
	}
	return nil
}

// requireViewer lets admins, the agent itself and any upline ancestor through.
func requireViewer(actor Actor, agentID string, index *domain.DownlineIndex) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.IsAdmin() || actor.SubjectID == agentID {
		return nil
	}
	current, ok := index.Agent(agentID)
	for steps := 0; ok && !current.IsRoot() && steps < index.Len(); steps++ {
		if current.ParentID == actor.SubjectID {
			return nil
		}
		current, ok = index.Agent(current.ParentID)
	}
	return domain.ErrForbidden
}

func (s *Service) loadIndex(ctx context.Context) (*domain.DownlineIndex, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return domain.NewDownlineIndex(agents)
}

// withIdempotency replays the stored response for a known key and rejects a
// key reused with a different request.
func withIdempotency[T any](ctx context.Context, s *Service, key string, request any, statusCode int, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	key = strings.TrimSpace(key)
	if key == "" {
		return zero, domain.ErrIdempotencyRequired
	}
	now := s.nowFn()
	requestHash := hashPayload(request)
	existing, err := s.idempotency.Get(ctx, key, now)
	if err != nil {
		return zero, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return zero, domain.ErrIdempotencyConflict
		}
		if len(existing.ResponseBody) == 0 {
			return zero, fmt.Errorf("%w: request with this key is still in progress", domain.ErrConflict)
		}
		var cached T
		if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
			return zero, err
		}
		return cached, nil
	}
	if err := s.idempotency.Reserve(ctx, key, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		return zero, err
	}
	out, err := fn(ctx)
	if err != nil {
		return zero, err
	}
	body, err := json.Marshal(out)
	if err != nil {
		return zero, err
	}
	if err := s.idempotency.Complete(ctx, key, statusCode, body, s.nowFn()); err != nil {
		return zero, err
	}
	return out, nil
}

func hashPayload(value interface{}) string {
	blob, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

// enqueueDomainEvent derives the event id from the payload so that recomputing
// identical results does not emit the same event twice.
func (s *Service) enqueueDomainEvent(ctx context.Context, eventType, partitionPath, partitionKey string, occurredAt time.Time, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	eventID := uuid.NewSHA1(eventNamespace, []byte(eventType+"|"+partitionKey+"|"+hashPayload(payload)))
	traceID := uuid.NewString()
	envelope := contracts.EventEnvelope{
		EventID:          eventID.String(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClassDomain,
		OccurredAt:       occurredAt,
		PartitionKeyPath: partitionPath,
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          traceID,
		SchemaVersion:    "v1",
		Data:             data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          eventID,
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: partitionPath,
		Payload:          raw,
		OccurredAt:       occurredAt,
		SchemaVersion:    "v1",
		TraceID:          traceID,
	})
}

func (s *Service) enqueueCampaignCreated(ctx context.Context, c domain.Campaign) error {
	return s.enqueueDomainEvent(ctx, domain.EventCampaignCreated, "data.campaign_id", c.CampaignID, c.CreatedAt, contracts.CampaignCreatedPayload{
		CampaignID:          c.CampaignID,
		OwnerID:             c.OwnerID,
		ChainPosition:       c.ChainPosition,
		ParentCampaignID:    c.ParentCampaignID,
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
		InitialPeriodEndsAt: c.InitialPeriodEndsAt.Format(time.RFC3339),
	})
}

func (s *Service) invalidateSummaries(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, summaryCachePrefix); err != nil {
		s.logger.WarnContext(ctx, "summary cache invalidation failed",
			"module", "application",
			"layer", "service",
			"operation", "invalidate_summaries",
			"outcome", "failure",
			"error", err,
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
