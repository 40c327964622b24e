package postgres

import (
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Agents      ports.AgentRepository
	Campaigns   ports.CampaignRepository
	Sales       ports.SaleRepository
	Snapshots   ports.SnapshotRepository
	Statements  ports.StatementRepository
	Runs        ports.WeeklyRunRepository
	Idempotency ports.IdempotencyRepository
	EventDedup  ports.EventDedupRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Agents:      &agentRepository{db: db},
		Campaigns:   &campaignRepository{db: db},
		Sales:       &saleRepository{db: db},
		Snapshots:   &snapshotRepository{db: db},
		Statements:  &statementRepository{db: db},
		Runs:        &weeklyRunRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}
