package application

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

func (s *Service) ListCampaigns(ctx context.Context, actor Actor, ownerID string) ([]domain.Campaign, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		ownerID = actor.SubjectID
	}
	if err := requireSelfOrAdmin(actor, ownerID); err != nil {
		return nil, err
	}
	return s.campaigns.ListByOwner(ctx, ownerID)
}

func (s *Service) GetCampaign(ctx context.Context, actor Actor, campaignID string) (domain.Campaign, error) {
	if err := requireActor(actor); err != nil {
		return domain.Campaign{}, err
	}
	campaign, err := s.campaigns.Get(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return domain.Campaign{}, err
	}
	if !actor.IsAdmin() && !campaign.HasParticipant(actor.SubjectID) {
		return domain.Campaign{}, domain.ErrForbidden
	}
	return campaign, nil
}

func (s *Service) ListSnapshots(ctx context.Context, actor Actor, campaignID string) ([]domain.WeeklySnapshot, error) {
	campaign, err := s.GetCampaign(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}
	return s.snapshots.ListByCampaign(ctx, campaign.CampaignID)
}

func (s *Service) loadOwnedCampaign(ctx context.Context, actor Actor, campaignID string) (domain.Campaign, error) {
	if err := requireActor(actor); err != nil {
		return domain.Campaign{}, err
	}
	campaign, err := s.campaigns.Get(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return domain.Campaign{}, err
	}
	if !actor.IsAdmin() && campaign.OwnerID != actor.SubjectID {
		return domain.Campaign{}, domain.ErrForbidden
	}
	return campaign, nil
}

// AddParticipant invites a guest into a campaign. Only the owner manages membership.
func (s *Service) AddParticipant(ctx context.Context, actor Actor, input AddParticipantInput) (domain.Campaign, error) {
	input.CampaignID = strings.TrimSpace(input.CampaignID)
	input.AgentID = strings.TrimSpace(input.AgentID)
	campaign, err := s.loadOwnedCampaign(ctx, actor, input.CampaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	return withIdempotency(ctx, s, actor.IdempotencyKey, input, http.StatusOK, func(ctx context.Context) (domain.Campaign, error) {
		if _, err := s.agents.Get(ctx, input.AgentID); err != nil {
			if isNotFound(err) {
				return domain.Campaign{}, fmt.Errorf("%w: agent %s is not in the directory", domain.ErrValidation, input.AgentID)
			}
			return domain.Campaign{}, err
		}
		if err := campaign.AddParticipant(input.AgentID); err != nil {
			return domain.Campaign{}, err
		}
		campaign.UpdatedAt = s.nowFn()
		if err := s.campaigns.Update(ctx, campaign); err != nil {
			return domain.Campaign{}, err
		}
		campaign.Version++
		return campaign, nil
	})
}

func (s *Service) RemoveParticipant(ctx context.Context, actor Actor, campaignID, agentID string) (domain.Campaign, error) {
	agentID = strings.TrimSpace(agentID)
	campaign, err := s.loadOwnedCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	request := map[string]string{"op": "remove_participant", "campaign_id": campaign.CampaignID, "agent_id": agentID}
	return withIdempotency(ctx, s, actor.IdempotencyKey, request, http.StatusOK, func(ctx context.Context) (domain.Campaign, error) {
		if err := campaign.RemoveParticipant(agentID); err != nil {
			return domain.Campaign{}, err
		}
		campaign.UpdatedAt = s.nowFn()
		if err := s.campaigns.Update(ctx, campaign); err != nil {
			return domain.Campaign{}, err
		}
		campaign.Version++
		return campaign, nil
	})
}

func (s *Service) SetCampaignStatus(ctx context.Context, actor Actor, campaignID, rawStatus string) (domain.Campaign, error) {
	status, err := domain.ParseCampaignStatus(rawStatus)
	if err != nil {
		return domain.Campaign{}, err
	}
	campaign, err := s.loadOwnedCampaign(ctx, actor, campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	request := map[string]string{"op": "set_status", "campaign_id": campaign.CampaignID, "status": string(status)}
	return withIdempotency(ctx, s, actor.IdempotencyKey, request, http.StatusOK, func(ctx context.Context) (domain.Campaign, error) {
		if err := campaign.TransitionTo(status); err != nil {
			return domain.Campaign{}, err
		}
		campaign.UpdatedAt = s.nowFn()
		if err := s.campaigns.Update(ctx, campaign); err != nil {
			return domain.Campaign{}, err
		}
		campaign.Version++
		return campaign, nil
	})
}

// AttributeSale records a participant's installed sale against a campaign.
// Participants attribute their own sales; admins may attribute for anyone.
func (s *Service) AttributeSale(ctx context.Context, actor Actor, input AttributeSaleInput) (AttributeSaleResult, error) {
	if err := requireActor(actor); err != nil {
		return AttributeSaleResult{}, err
	}
	if strings.TrimSpace(input.AgentID) == "" {
		input.AgentID = actor.SubjectID
	}
	if !actor.IsAdmin() && input.AgentID != actor.SubjectID {
		return AttributeSaleResult{}, domain.ErrForbidden
	}
	return withIdempotency(ctx, s, actor.IdempotencyKey, input, http.StatusCreated, func(ctx context.Context) (AttributeSaleResult, error) {
		return s.recordSale(ctx, input)
	})
}

func (s *Service) recordSale(ctx context.Context, input AttributeSaleInput) (AttributeSaleResult, error) {
	sale := domain.Sale{
		SaleID:      strings.TrimSpace(input.SaleID),
		CampaignID:  strings.TrimSpace(input.CampaignID),
		AgentID:     strings.TrimSpace(input.AgentID),
		Amount:      input.Amount,
		InstalledAt: input.InstalledAt.UTC(),
	}
	if err := domain.ValidateSale(sale); err != nil {
		return AttributeSaleResult{}, err
	}
	campaign, err := s.campaigns.Get(ctx, sale.CampaignID)
	if err != nil {
		return AttributeSaleResult{}, err
	}
	if campaign.IsClosed() {
		return AttributeSaleResult{}, domain.ErrCampaignClosed
	}
	if !campaign.HasParticipant(sale.AgentID) {
		return AttributeSaleResult{}, fmt.Errorf("%w: agent %s does not participate in campaign %s", domain.ErrValidation, sale.AgentID, sale.CampaignID)
	}
	created, err := s.sales.Record(ctx, sale)
	if err != nil {
		return AttributeSaleResult{}, err
	}
	return AttributeSaleResult{Sale: sale, Recorded: created}, nil
}
