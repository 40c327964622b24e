package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

func (s *Service) HandleDomainEvent(ctx context.Context, event contracts.EventEnvelope) error {
	if !s.cfg.EnableEventConsumption {
		return nil
	}
	if !domain.IsConsumedEvent(event.EventType) {
		return domain.ErrUnsupportedEventType
	}
	if event.EventClass != "" && event.EventClass != domain.CanonicalEventClassDomain {
		return domain.ErrUnsupportedEventClass
	}
	if err := validateDomainEventEnvelope(event, domain.ConsumedPartitionKeyPaths(event.EventType)...); err != nil {
		return err
	}

	now := s.nowFn()
	dup, err := s.eventDedup.IsDuplicate(ctx, event.EventID, now)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}

	switch event.EventType {
	case domain.EventAgentUpserted:
		var payload contracts.AgentUpsertedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode agent.upserted payload: %v", domain.ErrValidation, err)
		}
		updatedAt := event.OccurredAt
		if parsed, parseErr := time.Parse(time.RFC3339, payload.OccurredAt); parseErr == nil {
			updatedAt = parsed
		}
		err = s.UpsertAgent(ctx, domain.Agent{
			AgentID:   payload.AgentID,
			ParentID:  payload.ParentID,
			Sales30d:  payload.Sales30d,
			UpdatedAt: updatedAt.UTC(),
		})
	case domain.EventCampaignSaleAttributed:
		var payload contracts.CampaignSaleAttributedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode campaign.sale_attributed payload: %v", domain.ErrValidation, err)
		}
		installedAt, parseErr := time.Parse(time.RFC3339, payload.InstalledAt)
		if parseErr != nil {
			return fmt.Errorf("%w: installed_at must be RFC3339", domain.ErrValidation)
		}
		_, err = s.recordSale(ctx, AttributeSaleInput{
			SaleID:      payload.SaleID,
			CampaignID:  payload.CampaignID,
			AgentID:     payload.AgentID,
			Amount:      payload.Amount,
			InstalledAt: installedAt,
		})
	default:
		err = domain.ErrUnsupportedEventType
	}
	if err != nil {
		return err
	}

	return s.eventDedup.MarkProcessed(ctx, event.EventID, event.EventType, now.Add(s.cfg.EventDedupTTL))
}

func validateDomainEventEnvelope(event contracts.EventEnvelope, allowedPartitionPaths ...string) error {
	if len(allowedPartitionPaths) == 0 {
		return fmt.Errorf("%w: missing partition key policy", domain.ErrValidation)
	}
	if strings.TrimSpace(event.EventID) == "" {
		return fmt.Errorf("%w: missing event_id", domain.ErrValidation)
	}
	if event.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing occurred_at", domain.ErrValidation)
	}
	if strings.TrimSpace(event.SourceService) == "" {
		return fmt.Errorf("%w: missing source_service", domain.ErrValidation)
	}
	if strings.TrimSpace(event.TraceID) == "" {
		return fmt.Errorf("%w: missing trace_id", domain.ErrValidation)
	}
	if strings.TrimSpace(event.SchemaVersion) == "" {
		return fmt.Errorf("%w: missing schema_version", domain.ErrValidation)
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("%w: missing data payload", domain.ErrValidation)
	}

	allowed := false
	for _, path := range allowedPartitionPaths {
		if event.PartitionKeyPath == path {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: expected partition_key_path %s", domain.ErrValidation, allowedPartitionPaths[0])
	}
	field := strings.TrimPrefix(event.PartitionKeyPath, "data.")
	var payload map[string]interface{}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("%w: invalid data payload", domain.ErrValidation)
	}
	value, ok := payload[field]
	if !ok {
		return fmt.Errorf("%w: partition key field %s missing from payload", domain.ErrValidation, field)
	}
	if fmt.Sprint(value) != event.PartitionKey {
		return fmt.Errorf("%w: partition key invariant failed", domain.ErrValidation)
	}
	return nil
}
