package postgres

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct {
	db *gorm.DB
}

func (r *saleRepository) Record(ctx context.Context, sale domain.Sale) (bool, error) {
	rec := saleModel{
		SaleID: sale.SaleID, CampaignID: sale.CampaignID, AgentID: sale.AgentID,
		Amount: sale.Amount, InstalledAt: sale.InstalledAt, CreatedAt: time.Now().UTC(),
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, mapWriteError(res.Error, "sale "+sale.SaleID)
	}
	return res.RowsAffected > 0, nil
}

func (r *saleRepository) ListByCampaign(ctx context.Context, campaignID string, from, to time.Time) ([]domain.Sale, error) {
	var rows []saleModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND installed_at >= ? AND installed_at < ?", campaignID, from, to).
		Order("installed_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSale(row))
	}
	return out, nil
}

type snapshotRepository struct {
	db *gorm.DB
}

func (r *snapshotRepository) Upsert(ctx context.Context, snapshots []domain.WeeklySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]snapshotModel, 0, len(snapshots))
	for _, snap := range snapshots {
		row := toSnapshotModel(snap)
		row.ComputedAt = now
		rows = append(rows, row)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}, {Name: "week_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "week_index", "total_sales", "is_initial_period", "base_budget",
			"capped_budget", "overflow_in", "overflow_out", "total_budget", "computed_at",
		}),
	}).Create(&rows).Error
	return mapWriteError(err, "snapshots for week "+snapshots[0].WeekID)
}

func (r *snapshotRepository) Get(ctx context.Context, campaignID, weekID string) (domain.WeeklySnapshot, error) {
	var rec snapshotModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ? AND week_id = ?", campaignID, weekID).Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.WeeklySnapshot{}, domain.ErrNotFound
		}
		return domain.WeeklySnapshot{}, err
	}
	return toDomainSnapshot(rec), nil
}

func (r *snapshotRepository) ListByCampaign(ctx context.Context, campaignID string) ([]domain.WeeklySnapshot, error) {
	var rows []snapshotModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("week_start asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.WeeklySnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainSnapshot(row))
	}
	return out, nil
}

func (r *snapshotRepository) ExistingForWeek(ctx context.Context, campaignIDs []string, weekID string) (map[string]bool, error) {
	out := make(map[string]bool, len(campaignIDs))
	if len(campaignIDs) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&snapshotModel{}).
		Where("week_id = ? AND campaign_id IN ?", weekID, campaignIDs).
		Pluck("campaign_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

type statementRepository struct {
	db *gorm.DB
}

func (r *statementRepository) Upsert(ctx context.Context, statements []domain.CommissionStatement) error {
	if len(statements) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]statementModel, 0, len(statements))
	for _, st := range statements {
		row, err := toStatementModel(st)
		if err != nil {
			return err
		}
		row.ComputedAt = now
		rows = append(rows, row)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "agent_id"}, {Name: "week_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sales_30d", "key_active", "at_risk", "status", "total", "from_children",
			"from_grandchildren", "from_great_grandchildren", "lines", "computed_at",
		}),
	}).CreateInBatches(&rows, 500).Error
}

func (r *statementRepository) Get(ctx context.Context, agentID, weekID string) (domain.CommissionStatement, error) {
	var rec statementModel
	if err := r.db.WithContext(ctx).Where("agent_id = ? AND week_id = ?", agentID, weekID).Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.CommissionStatement{}, domain.ErrNotFound
		}
		return domain.CommissionStatement{}, err
	}
	return toDomainStatement(rec)
}

func (r *statementRepository) Latest(ctx context.Context, agentID string) (domain.CommissionStatement, error) {
	var rec statementModel
	if err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Order("week_start desc").Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.CommissionStatement{}, domain.ErrNotFound
		}
		return domain.CommissionStatement{}, err
	}
	return toDomainStatement(rec)
}

type weeklyRunRepository struct {
	db *gorm.DB
}

func (r *weeklyRunRepository) Save(ctx context.Context, run domain.WeeklyRun) error {
	rec, err := toWeeklyRunModel(run)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "week_id"}},
		UpdateAll: true,
	}).Create(&rec).Error
}

func (r *weeklyRunRepository) LatestCompleted(ctx context.Context) (*domain.WeeklyRun, error) {
	var rec weeklyRunModel
	if err := r.db.WithContext(ctx).Where("status = ?", string(domain.WeeklyRunCompleted)).Order("week_start desc").Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	run, err := toDomainWeeklyRun(rec)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *weeklyRunRepository) Get(ctx context.Context, weekID string) (domain.WeeklyRun, error) {
	var rec weeklyRunModel
	if err := r.db.WithContext(ctx).Where("week_id = ?", weekID).Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.WeeklyRun{}, domain.ErrNotFound
		}
		return domain.WeeklyRun{}, err
	}
	return toDomainWeeklyRun(rec)
}

var (
	_ ports.SaleRepository      = (*saleRepository)(nil)
	_ ports.SnapshotRepository  = (*snapshotRepository)(nil)
	_ ports.StatementRepository = (*statementRepository)(nil)
	_ ports.WeeklyRunRepository = (*weeklyRunRepository)(nil)
)
