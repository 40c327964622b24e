package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

const summaryCachePrefix = "commission:summary:"

func (s *Service) EvaluateEligibility(ctx context.Context, actor Actor, agentID string) (domain.Eligibility, error) {
	agentID = strings.TrimSpace(agentID)
	index, err := s.loadIndex(ctx)
	if err != nil {
		return domain.Eligibility{}, err
	}
	if err := requireViewer(actor, agentID, index); err != nil {
		return domain.Eligibility{}, err
	}
	agent, ok := index.Agent(agentID)
	if !ok {
		return domain.Eligibility{}, fmt.Errorf("%w: agent %s", domain.ErrNotFound, agentID)
	}
	return domain.EvaluateAgent(agent), nil
}

// CalculateCommissions computes the breakdown live from the current directory.
func (s *Service) CalculateCommissions(ctx context.Context, actor Actor, agentID string) (domain.CommissionBreakdown, error) {
	agentID = strings.TrimSpace(agentID)
	if err := requireSelfOrAdmin(actor, agentID); err != nil {
		return domain.CommissionBreakdown{}, err
	}
	index, err := s.loadIndex(ctx)
	if err != nil {
		return domain.CommissionBreakdown{}, err
	}
	return domain.CalculateCommissions(agentID, index)
}

func (s *Service) CalculateBudget(_ context.Context, actor Actor, input BudgetInput) (domain.BudgetResult, error) {
	if err := requireActor(actor); err != nil {
		return domain.BudgetResult{}, err
	}
	if input.TotalSales < 0 || input.OverflowIn < 0 {
		return domain.BudgetResult{}, fmt.Errorf("%w: total_sales and overflow_in must be >= 0", domain.ErrValidation)
	}
	if input.WeekIndex < 0 {
		return domain.BudgetResult{}, fmt.Errorf("%w: week_index must be >= 0", domain.ErrValidation)
	}
	return domain.CalculateCampaignBudget(input.WeekIndex, input.TotalSales, input.OverflowIn)
}

func (s *Service) GetLatestStatement(ctx context.Context, actor Actor, agentID string) (domain.CommissionStatement, error) {
	agentID = strings.TrimSpace(agentID)
	if err := requireSelfOrAdmin(actor, agentID); err != nil {
		return domain.CommissionStatement{}, err
	}
	return s.statements.Latest(ctx, agentID)
}

func (s *Service) GetStatement(ctx context.Context, actor Actor, agentID, weekID string) (domain.CommissionStatement, error) {
	agentID = strings.TrimSpace(agentID)
	if err := requireSelfOrAdmin(actor, agentID); err != nil {
		return domain.CommissionStatement{}, err
	}
	week, err := s.cfg.Calendar.ParseWeekID(strings.TrimSpace(weekID))
	if err != nil {
		return domain.CommissionStatement{}, err
	}
	return s.statements.Get(ctx, agentID, week.ID)
}

// GetAgentSummary serves the dashboard from stored results, cached until the
// next weekly run.
func (s *Service) GetAgentSummary(ctx context.Context, actor Actor, agentID string) (AgentSummary, error) {
	agentID = strings.TrimSpace(agentID)
	index, err := s.loadIndex(ctx)
	if err != nil {
		return AgentSummary{}, err
	}
	if err := requireViewer(actor, agentID, index); err != nil {
		return AgentSummary{}, err
	}
	cacheKey := summaryCachePrefix + agentID
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			var cached AgentSummary
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	agent, ok := index.Agent(agentID)
	if !ok {
		return AgentSummary{}, fmt.Errorf("%w: agent %s", domain.ErrNotFound, agentID)
	}
	summary := AgentSummary{
		Agent:          agent,
		Eligibility:    domain.EvaluateAgent(agent),
		DownlineCounts: make(map[string]int, domain.MaxCommissionDepth),
	}
	for gen, members := range index.Tiers(agentID) {
		summary.DownlineCounts[gen.String()] = len(members)
	}
	statement, err := s.statements.Latest(ctx, agentID)
	switch {
	case err == nil:
		summary.LatestStatement = &statement
	case !isNotFound(err):
		return AgentSummary{}, err
	}
	campaigns, err := s.campaigns.ListByOwner(ctx, agentID)
	if err != nil {
		return AgentSummary{}, err
	}
	summary.Campaigns = campaigns

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, cacheKey, raw, s.cfg.SummaryCacheTTL)
		}
	}
	return summary, nil
}

// UpsertAgent updates the local directory mirror. Older updates are ignored.
func (s *Service) UpsertAgent(ctx context.Context, agent domain.Agent) error {
	agent.AgentID = strings.TrimSpace(agent.AgentID)
	agent.ParentID = strings.TrimSpace(agent.ParentID)
	if err := domain.ValidateAgent(agent); err != nil {
		return err
	}
	if agent.UpdatedAt.IsZero() {
		agent.UpdatedAt = s.nowFn()
	}
	if existing, err := s.agents.Get(ctx, agent.AgentID); err == nil && existing.UpdatedAt.After(agent.UpdatedAt) {
		return nil
	}
	return s.agents.Upsert(ctx, agent)
}
