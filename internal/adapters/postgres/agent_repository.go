package postgres

import (
	"context"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type agentRepository struct {
	db *gorm.DB
}

func (r *agentRepository) Upsert(ctx context.Context, agent domain.Agent) error {
	rec := toAgentModel(agent)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"parent_id", "sales_30d", "updated_at"}),
	}).Create(&rec).Error
}

func (r *agentRepository) Get(ctx context.Context, agentID string) (domain.Agent, error) {
	var rec agentModel
	if err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.Agent{}, domain.ErrNotFound
		}
		return domain.Agent{}, err
	}
	return toDomainAgent(rec), nil
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	var rows []agentModel
	if err := r.db.WithContext(ctx).Order("agent_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Agent, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainAgent(row))
	}
	return out, nil
}

var _ ports.AgentRepository = (*agentRepository)(nil)
