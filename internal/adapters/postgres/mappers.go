package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func toAgentModel(a domain.Agent) agentModel {
	return agentModel{AgentID: a.AgentID, ParentID: optionalString(a.ParentID), Sales30d: a.Sales30d, UpdatedAt: a.UpdatedAt}
}

func toDomainAgent(m agentModel) domain.Agent {
	return domain.Agent{AgentID: m.AgentID, ParentID: derefString(m.ParentID), Sales30d: m.Sales30d, UpdatedAt: m.UpdatedAt.UTC()}
}

func toCampaignModel(c domain.Campaign) (campaignModel, error) {
	participants := c.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	raw, err := json.Marshal(participants)
	if err != nil {
		return campaignModel{}, fmt.Errorf("encode participants: %w", err)
	}
	return campaignModel{
		CampaignID: c.CampaignID, OwnerID: c.OwnerID, ChainPosition: c.ChainPosition,
		ParentCampaignID: optionalString(c.ParentCampaignID), ChildCampaignID: optionalString(c.ChildCampaignID),
		Status: string(c.Status), ParticipantIDs: string(raw), CreatedAt: c.CreatedAt,
		InitialPeriodEndsAt: c.InitialPeriodEndsAt, UpdatedAt: c.UpdatedAt, Version: c.Version,
	}, nil
}

func toDomainCampaign(m campaignModel) (domain.Campaign, error) {
	var participants []string
	if m.ParticipantIDs != "" {
		if err := json.Unmarshal([]byte(m.ParticipantIDs), &participants); err != nil {
			return domain.Campaign{}, fmt.Errorf("%w: campaign %s participants: %v", domain.ErrDataIntegrity, m.CampaignID, err)
		}
	}
	return domain.Campaign{
		CampaignID: m.CampaignID, OwnerID: m.OwnerID, ChainPosition: m.ChainPosition,
		ParentCampaignID: derefString(m.ParentCampaignID), ChildCampaignID: derefString(m.ChildCampaignID),
		Status: domain.CampaignStatus(m.Status), ParticipantIDs: participants, CreatedAt: m.CreatedAt.UTC(),
		InitialPeriodEndsAt: m.InitialPeriodEndsAt.UTC(), UpdatedAt: m.UpdatedAt.UTC(), Version: m.Version,
	}, nil
}

func toDomainSale(m saleModel) domain.Sale {
	return domain.Sale{SaleID: m.SaleID, CampaignID: m.CampaignID, AgentID: m.AgentID, Amount: m.Amount, InstalledAt: m.InstalledAt.UTC()}
}

func toSnapshotModel(s domain.WeeklySnapshot) snapshotModel {
	return snapshotModel{
		CampaignID: s.CampaignID, WeekID: s.WeekID, OwnerID: s.OwnerID, ChainPosition: s.ChainPosition,
		WeekStart: s.WeekStart, Status: string(s.Status), WeekIndex: s.WeekIndex, TotalSales: s.TotalSales,
		IsInitialPeriod: s.IsInitialPeriod, BaseBudget: s.BaseBudget, CappedBudget: s.CappedBudget,
		OverflowIn: s.OverflowIn, OverflowOut: s.OverflowOut, TotalBudget: s.TotalBudget,
	}
}

func toDomainSnapshot(m snapshotModel) domain.WeeklySnapshot {
	return domain.WeeklySnapshot{
		CampaignID: m.CampaignID, OwnerID: m.OwnerID, ChainPosition: m.ChainPosition, WeekID: m.WeekID,
		WeekStart: m.WeekStart.UTC(), Status: domain.CampaignStatus(m.Status),
		BudgetResult: domain.BudgetResult{
			WeekIndex: m.WeekIndex, TotalSales: m.TotalSales, IsInitialPeriod: m.IsInitialPeriod,
			BaseBudget: m.BaseBudget, CappedBudget: m.CappedBudget, OverflowIn: m.OverflowIn,
			OverflowOut: m.OverflowOut, TotalBudget: m.TotalBudget,
		},
	}
}

func toStatementModel(s domain.CommissionStatement) (statementModel, error) {
	lines := s.Lines
	if lines == nil {
		lines = []domain.CommissionLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return statementModel{}, fmt.Errorf("encode commission lines: %w", err)
	}
	return statementModel{
		AgentID: s.AgentID, WeekID: s.WeekID, WeekStart: s.WeekStart, Sales30d: s.Sales30d,
		KeyActive: s.KeyActive, AtRisk: s.AtRisk, Status: string(s.Status), Total: s.Total,
		FromChildren: s.FromChildren, FromGrandchildren: s.FromGrandchildren,
		FromGreatGrandchildren: s.FromGreatGrandchildren, Lines: string(raw),
	}, nil
}

func toDomainStatement(m statementModel) (domain.CommissionStatement, error) {
	var lines []domain.CommissionLine
	if m.Lines != "" {
		if err := json.Unmarshal([]byte(m.Lines), &lines); err != nil {
			return domain.CommissionStatement{}, fmt.Errorf("%w: statement %s/%s lines: %v", domain.ErrDataIntegrity, m.AgentID, m.WeekID, err)
		}
	}
	if len(lines) == 0 {
		lines = nil
	}
	return domain.CommissionStatement{
		AgentID: m.AgentID, WeekID: m.WeekID, WeekStart: m.WeekStart.UTC(), Sales30d: m.Sales30d,
		KeyActive: m.KeyActive, AtRisk: m.AtRisk, Status: domain.KeyStatus(m.Status),
		CommissionBreakdown: domain.CommissionBreakdown{
			ViewerID: m.AgentID, KeyActive: m.KeyActive, Total: m.Total, FromChildren: m.FromChildren,
			FromGrandchildren: m.FromGrandchildren, FromGreatGrandchildren: m.FromGreatGrandchildren, Lines: lines,
		},
	}, nil
}

func toWeeklyRunModel(r domain.WeeklyRun) (weeklyRunModel, error) {
	failed := r.FailedChains
	if failed == nil {
		failed = []string{}
	}
	raw, err := json.Marshal(failed)
	if err != nil {
		return weeklyRunModel{}, fmt.Errorf("encode failed chains: %w", err)
	}
	return weeklyRunModel{
		WeekID: r.WeekID, WeekStart: r.WeekStart, Status: string(r.Status), Agents: r.Agents,
		ActiveAgents: r.ActiveAgents, Statements: r.Statements, Chains: r.Chains, Snapshots: r.Snapshots,
		CampaignsCreated: r.CampaignsCreated, FailedChains: string(raw), CompletedAt: r.CompletedAt,
	}, nil
}

func toDomainWeeklyRun(m weeklyRunModel) (domain.WeeklyRun, error) {
	var failed []string
	if m.FailedChains != "" {
		if err := json.Unmarshal([]byte(m.FailedChains), &failed); err != nil {
			return domain.WeeklyRun{}, fmt.Errorf("%w: weekly run %s failed chains: %v", domain.ErrDataIntegrity, m.WeekID, err)
		}
	}
	if len(failed) == 0 {
		failed = nil
	}
	return domain.WeeklyRun{
		WeekID: m.WeekID, WeekStart: m.WeekStart.UTC(), Status: domain.WeeklyRunStatus(m.Status), Agents: m.Agents,
		ActiveAgents: m.ActiveAgents, Statements: m.Statements, Chains: m.Chains, Snapshots: m.Snapshots,
		CampaignsCreated: m.CampaignsCreated, FailedChains: failed, CompletedAt: m.CompletedAt.UTC(),
	}, nil
}
