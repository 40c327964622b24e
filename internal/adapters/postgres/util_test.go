package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"gorm.io/gorm"
)

func TestMapWriteError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"pg unique", &pgconn.PgError{Code: pgUniqueViolation}, domain.ErrConflict},
		{"gorm duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), domain.ErrConflict},
		{"pg foreign key", &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "campaign_sales_campaign_id_fkey"}, domain.ErrValidation},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, domain.ErrValidation},
		{"pg check", &pgconn.PgError{Code: pgCheckViolation}, domain.ErrValidation},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := mapWriteError(tc.err, "sale s-1"); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	other := errors.New("connection reset")
	if err := mapWriteError(other, "sale s-1"); err != other {
		t.Fatalf("unrelated error rewritten: %v", err)
	}
	if err := mapWriteError(nil, "sale s-1"); err != nil {
		t.Fatalf("nil mapped to %v", err)
	}
}

func TestNewDedupRecordAcceptsOnlyConsumedEvents(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	ttl := now.Add(7 * 24 * time.Hour)

	rec, err := newDedupRecord("evt-1", domain.EventCampaignSaleAttributed, ttl, now)
	if err != nil {
		t.Fatalf("sale event: %v", err)
	}
	if rec.EventID != "evt-1" || !rec.ProcessedAt.Equal(now) || !rec.ExpiresAt.Equal(ttl) {
		t.Fatalf("rec = %+v", rec)
	}

	if _, err := newDedupRecord("evt-2", domain.EventCampaignCreated, ttl, now); !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("outbound event err = %v", err)
	}
	if _, err := newDedupRecord(" ", domain.EventAgentUpserted, ttl, now); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank id err = %v", err)
	}
	if _, err := newDedupRecord("evt-3", domain.EventAgentUpserted, now, now); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expired window err = %v", err)
	}
}
