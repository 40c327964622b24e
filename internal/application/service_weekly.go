package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

// TriggerRecompute runs the weekly pass on behalf of an admin. An explicit
// weekID wins over at; with neither the most recently closed week is used.
func (s *Service) TriggerRecompute(ctx context.Context, actor Actor, weekID string, at time.Time) (domain.WeeklyRun, error) {
	if err := requireActor(actor); err != nil {
		return domain.WeeklyRun{}, err
	}
	if !actor.IsAdmin() {
		return domain.WeeklyRun{}, domain.ErrForbidden
	}
	if weekID != "" {
		week, err := s.cfg.Calendar.ParseWeekID(weekID)
		if err != nil {
			return domain.WeeklyRun{}, err
		}
		at = week.Start
	}
	if at.IsZero() {
		at = s.cfg.Calendar.Previous(s.cfg.Calendar.WeekOf(s.nowFn())).Start
	}
	return s.RunWeeklyRecompute(ctx, at)
}

// CatchUp finalizes every closed week after the last completed one, oldest
// first. A week is only computed once it has ended, so its whole sales window
// is in. Without history only the week that just closed runs. At most
// MaxCatchUpWeeks run per call; the rest wait for the next call.
func (s *Service) CatchUp(ctx context.Context, now time.Time) ([]domain.WeeklyRun, error) {
	closed := s.cfg.Calendar.Previous(s.cfg.Calendar.WeekOf(now))
	last, err := s.runs.LatestCompleted(ctx)
	if err != nil {
		return nil, err
	}

	pending := []domain.Week{closed}
	if last != nil {
		if !last.WeekStart.Before(closed.Start) {
			return nil, nil
		}
		pending = pending[:0]
		for w := s.cfg.Calendar.Next(s.cfg.Calendar.WeekOf(last.WeekStart)); !w.Start.After(closed.Start); w = s.cfg.Calendar.Next(w) {
			pending = append(pending, w)
		}
		if len(pending) > s.cfg.MaxCatchUpWeeks {
			s.logger.WarnContext(ctx, "weekly catch-up deferred",
				"module", "application",
				"layer", "service",
				"operation", "catch_up",
				"outcome", "deferred",
				"missed_weeks", len(pending),
				"max_weeks", s.cfg.MaxCatchUpWeeks,
			)
			pending = pending[:s.cfg.MaxCatchUpWeeks]
		}
	}

	runs := make([]domain.WeeklyRun, 0, len(pending))
	for _, w := range pending {
		run, err := s.RunWeeklyRecompute(ctx, w.Start)
		runs = append(runs, run)
		if err != nil {
			return runs, fmt.Errorf("week %s: %w", w.ID, err)
		}
	}
	return runs, nil
}

// RunWeeklyRecompute recomputes statements and campaign snapshots for the week
// containing at. Re-running a week rewrites the same rows.
func (s *Service) RunWeeklyRecompute(ctx context.Context, at time.Time) (domain.WeeklyRun, error) {
	started := s.nowFn()
	week := s.cfg.Calendar.WeekOf(at)
	lockKey := "weekly:" + week.ID
	token := uuid.NewString()
	acquired, err := s.locker.TryLock(ctx, lockKey, token, s.cfg.WeekLockTTL)
	if err != nil {
		return domain.WeeklyRun{}, fmt.Errorf("acquire week lock: %w", err)
	}
	if !acquired {
		return domain.WeeklyRun{}, fmt.Errorf("%w: week %s", domain.ErrWeekLocked, week.ID)
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.logger.WarnContext(ctx, "week lock release failed", "module", "application", "layer", "service", "operation", "weekly_recompute", "outcome", "failure", "week_id", week.ID, "error", err)
		}
	}()

	run := domain.WeeklyRun{WeekID: week.ID, WeekStart: week.Start, Status: domain.WeeklyRunCompleted}
	index, err := s.loadIndex(ctx)
	if err != nil {
		return s.finishRun(ctx, run, started, err)
	}
	run.Agents = index.Len()

	if err := s.computeStatements(ctx, week, index, &run); err != nil {
		return s.finishRun(ctx, run, started, err)
	}
	if err := s.openRootCampaigns(ctx, week, index, &run); err != nil {
		return s.finishRun(ctx, run, started, err)
	}

	owners, err := s.campaigns.ListOwners(ctx)
	if err != nil {
		return s.finishRun(ctx, run, started, err)
	}
	slices.Sort(owners)
	var chainErrs []error
	for _, owner := range owners {
		if err := s.recomputeChain(ctx, week, owner, &run); err != nil {
			run.FailedChains = append(run.FailedChains, owner)
			chainErrs = append(chainErrs, fmt.Errorf("chain %s: %w", owner, err))
			continue
		}
		run.Chains++
	}
	return s.finishRun(ctx, run, started, errors.Join(chainErrs...))
}

func (s *Service) computeStatements(ctx context.Context, week domain.Week, index *domain.DownlineIndex, run *domain.WeeklyRun) error {
	agents := index.Agents()
	statements := make([]domain.CommissionStatement, 0, len(agents))
	for _, agent := range agents {
		eligibility := domain.EvaluateAgent(agent)
		if eligibility.KeyActive {
			run.ActiveAgents++
		}
		breakdown, err := domain.CalculateCommissions(agent.AgentID, index)
		if err != nil {
			return err
		}
		statements = append(statements, domain.NewCommissionStatement(week, eligibility, breakdown))
	}
	if err := s.statements.Upsert(ctx, statements); err != nil {
		return fmt.Errorf("upsert statements: %w", err)
	}
	run.Statements = len(statements)
	if !s.cfg.EnableStatementEmission {
		return nil
	}
	for _, st := range statements {
		if err := s.enqueueDomainEvent(ctx, domain.EventCommissionStatementComputed, "data.agent_id", st.AgentID, week.Start, contracts.CommissionStatementComputedPayload{
			AgentID:                st.AgentID,
			WeekID:                 st.WeekID,
			KeyActive:              st.KeyActive,
			AtRisk:                 st.AtRisk,
			Total:                  st.Total,
			FromChildren:           st.FromChildren,
			FromGrandchildren:      st.FromGrandchildren,
			FromGreatGrandchildren: st.FromGreatGrandchildren,
		}); err != nil {
			return err
		}
	}
	return nil
}

// openRootCampaigns gives every Key holder without a chain its first campaign.
// Once week has ended the campaign opens in the following week.
func (s *Service) openRootCampaigns(ctx context.Context, week domain.Week, index *domain.DownlineIndex, run *domain.WeeklyRun) error {
	opening := week
	if !week.End.After(s.nowFn()) {
		opening = s.cfg.Calendar.Next(week)
	}
	for _, agent := range index.Agents() {
		if !domain.IsKeyActive(agent.Sales30d) {
			continue
		}
		existing, err := s.campaigns.ListByOwner(ctx, agent.AgentID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		campaign := domain.NewRootCampaign(uuid.NewString(), agent.AgentID, opening)
		if err := s.campaigns.Create(ctx, campaign); err != nil {
			return fmt.Errorf("create campaign for %s: %w", agent.AgentID, err)
		}
		run.CampaignsCreated++
		if err := s.enqueueCampaignCreated(ctx, campaign); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) recomputeChain(ctx context.Context, week domain.Week, ownerID string, run *domain.WeeklyRun) error {
	chain, err := s.campaigns.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	domain.SortChain(chain)
	ids := make([]string, 0, len(chain)+1)
	sales := make(map[string]float64, len(chain)+1)
	for _, c := range chain {
		ids = append(ids, c.CampaignID)
		total, err := s.weeklySales(ctx, c.CampaignID, week)
		if err != nil {
			return err
		}
		sales[c.CampaignID] = total
	}
	prior, err := s.snapshots.ExistingForWeek(ctx, ids, s.cfg.Calendar.Previous(week).ID)
	if err != nil {
		return err
	}

	for {
		result, err := domain.ComputeChainWeek(domain.ChainWeekInput{
			Week:            week,
			Chain:           chain,
			SalesByCampaign: sales,
			PriorSnapshots:  prior,
		})
		if err != nil {
			return err
		}
		if result.NeedsChild() {
			tail := result.Tail
			child := tail.NewChild(uuid.NewString(), week)
			if err := s.campaigns.CreateChild(ctx, child); err != nil {
				return fmt.Errorf("create child of %s: %w", tail.CampaignID, err)
			}
			chain[len(chain)-1].ChildCampaignID = child.CampaignID
			chain = append(chain, child)
			run.CampaignsCreated++
			if err := s.enqueueCampaignCreated(ctx, child); err != nil {
				return err
			}
			continue
		}
		if err := s.snapshots.Upsert(ctx, result.Snapshots); err != nil {
			return fmt.Errorf("upsert snapshots: %w", err)
		}
		run.Snapshots += len(result.Snapshots)
		return s.emitSnapshots(ctx, result.Snapshots)
	}
}

func (s *Service) weeklySales(ctx context.Context, campaignID string, week domain.Week) (float64, error) {
	sales, err := s.sales.ListByCampaign(ctx, campaignID, week.Start, week.End)
	if err != nil {
		return 0, err
	}
	return domain.TotalSalesInWeek(sales, week), nil
}

func (s *Service) emitSnapshots(ctx context.Context, snapshots []domain.WeeklySnapshot) error {
	if !s.cfg.EnableSnapshotEmission {
		return nil
	}
	for _, snap := range snapshots {
		if err := s.enqueueDomainEvent(ctx, domain.EventCampaignSnapshotComputed, "data.campaign_id", snap.CampaignID, snap.WeekStart, contracts.CampaignSnapshotComputedPayload{
			CampaignID:      snap.CampaignID,
			OwnerID:         snap.OwnerID,
			ChainPosition:   snap.ChainPosition,
			WeekID:          snap.WeekID,
			WeekIndex:       snap.WeekIndex,
			TotalSales:      snap.TotalSales,
			IsInitialPeriod: snap.IsInitialPeriod,
			BaseBudget:      snap.BaseBudget,
			CappedBudget:    snap.CappedBudget,
			OverflowIn:      snap.OverflowIn,
			OverflowOut:     snap.OverflowOut,
			TotalBudget:     snap.TotalBudget,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) finishRun(ctx context.Context, run domain.WeeklyRun, started time.Time, runErr error) (domain.WeeklyRun, error) {
	run.CompletedAt = s.nowFn()
	outcome := "success"
	if runErr != nil {
		run.Status = domain.WeeklyRunFailed
		outcome = "failure"
	}
	if err := s.runs.Save(ctx, run); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("save weekly run: %w", err))
	}
	s.invalidateSummaries(ctx)

	attrs := []any{
		"module", "application",
		"layer", "service",
		"operation", "weekly_recompute",
		"outcome", outcome,
		"week_id", run.WeekID,
		"agents", run.Agents,
		"active_agents", run.ActiveAgents,
		"chains", run.Chains,
		"snapshots", run.Snapshots,
		"campaigns_created", run.CampaignsCreated,
		"failed_chains", len(run.FailedChains),
		"duration_ms", run.CompletedAt.Sub(started).Milliseconds(),
	}
	if runErr != nil {
		s.logger.ErrorContext(ctx, "weekly recompute finished", append(attrs, "error", runErr)...)
	} else {
		s.logger.InfoContext(ctx, "weekly recompute finished", attrs...)
	}
	return run, runErr
}
