package postgres

import (
	"context"
	"fmt"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type campaignRepository struct {
	db *gorm.DB
}

func (r *campaignRepository) Create(ctx context.Context, campaign domain.Campaign) error {
	rec, err := toCampaignModel(campaign)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: campaign %s or owner position %d already exists", domain.ErrConflict, campaign.CampaignID, campaign.ChainPosition)
		}
		return err
	}
	return nil
}

// CreateChild locks the parent row so two workers cannot both extend the chain.
func (r *campaignRepository) CreateChild(ctx context.Context, child domain.Campaign) error {
	rec, err := toCampaignModel(child)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent campaignModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ?", child.ParentCampaignID).Take(&parent).Error; err != nil {
			if isRecordNotFound(err) {
				return fmt.Errorf("%w: parent campaign %s", domain.ErrNotFound, child.ParentCampaignID)
			}
			return err
		}
		if parent.ChildCampaignID != nil && *parent.ChildCampaignID != "" {
			return fmt.Errorf("%w: campaign %s already has a child", domain.ErrConflict, parent.CampaignID)
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: campaign %s already exists", domain.ErrConflict, child.CampaignID)
			}
			return err
		}
		return tx.Model(&campaignModel{}).Where("campaign_id = ?", parent.CampaignID).Updates(map[string]any{
			"child_campaign_id": child.CampaignID,
			"updated_at":        child.CreatedAt,
			"version":           gorm.Expr("version + 1"),
		}).Error
	})
}

func (r *campaignRepository) Update(ctx context.Context, campaign domain.Campaign) error {
	rec, err := toCampaignModel(campaign)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("campaign_id = ? AND version = ?", campaign.CampaignID, campaign.Version).
		Updates(map[string]any{
			"status":          rec.Status,
			"participant_ids": rec.ParticipantIDs,
			"updated_at":      rec.UpdatedAt,
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&campaignModel{}).Where("campaign_id = ?", campaign.CampaignID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: campaign %s changed since it was read", domain.ErrConflict, campaign.CampaignID)
}

func (r *campaignRepository) Get(ctx context.Context, campaignID string) (domain.Campaign, error) {
	var rec campaignModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Take(&rec).Error; err != nil {
		if isRecordNotFound(err) {
			return domain.Campaign{}, domain.ErrNotFound
		}
		return domain.Campaign{}, err
	}
	return toDomainCampaign(rec)
}

func (r *campaignRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Campaign, error) {
	var rows []campaignModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("chain_position asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(rows))
	for _, row := range rows {
		c, err := toDomainCampaign(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *campaignRepository) ListOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.db.WithContext(ctx).Model(&campaignModel{}).Distinct("owner_id").Order("owner_id asc").Pluck("owner_id", &owners).Error
	return owners, err
}

var _ ports.CampaignRepository = (*campaignRepository)(nil)
