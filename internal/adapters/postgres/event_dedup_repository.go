package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventDedupRepository remembers inbound agent and sale events until their
// window expires. An expired row is overwritten in place by the next delivery.
type eventDedupRepository struct {
	db *gorm.DB
}

func (r *eventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	if strings.TrimSpace(eventID) == "" {
		return false, fmt.Errorf("%w: event_id is required", domain.ErrValidation)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&eventDedupModel{}).
		Where("event_id = ? AND expires_at > ?", eventID, now.UTC()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check event %s: %w", eventID, err)
	}
	return count > 0, nil
}

func (r *eventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	rec, err := newDedupRecord(eventID, eventType, expiresAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"event_type", "processed_at", "expires_at"}),
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("mark event %s processed: %w", eventID, err)
	}
	return nil
}

// newDedupRecord only accepts the event types the engine consumes.
func newDedupRecord(eventID, eventType string, expiresAt, now time.Time) (eventDedupModel, error) {
	if strings.TrimSpace(eventID) == "" {
		return eventDedupModel{}, fmt.Errorf("%w: event_id is required", domain.ErrValidation)
	}
	if !domain.IsConsumedEvent(eventType) {
		return eventDedupModel{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedEventType, eventType)
	}
	if !expiresAt.After(now) {
		return eventDedupModel{}, fmt.Errorf("%w: dedup window for %s already expired", domain.ErrValidation, eventID)
	}
	return eventDedupModel{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: now,
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

var _ ports.EventDedupRepository = (*eventDedupRepository)(nil)
