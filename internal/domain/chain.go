package domain

import (
	"fmt"
	"slices"
)

// ChainWeekInput is everything needed to compute one owner's chain for a week.
// Chain must be ordered by position. PriorSnapshots holds the ids of campaigns
// that have a snapshot for the previous week.
type ChainWeekInput struct {
	Week            Week
	Chain           []Campaign
	SalesByCampaign map[string]float64
	PriorSnapshots  map[string]bool
}

type ChainWeekResult struct {
	Snapshots []WeeklySnapshot
	// Tail is the last campaign that existed during the week.
	Tail Campaign
	// TrailingOverflow is the overflow leaving Tail with nowhere to go.
	TrailingOverflow float64
}

func (r ChainWeekResult) NeedsChild() bool {
	return r.TrailingOverflow > 0
}

// ValidateChain checks positions run 1..n for a single owner and that the
// parent/child links agree with that order.
func ValidateChain(chain []Campaign) error {
	for i, c := range chain {
		if c.ChainPosition != i+1 {
			return fmt.Errorf("%w: campaign %s has position %d, want %d", ErrDataIntegrity, c.CampaignID, c.ChainPosition, i+1)
		}
		if c.OwnerID != chain[0].OwnerID {
			return fmt.Errorf("%w: campaign %s belongs to %s, chain owner is %s", ErrDataIntegrity, c.CampaignID, c.OwnerID, chain[0].OwnerID)
		}
		var wantParent, wantChild string
		if i > 0 {
			wantParent = chain[i-1].CampaignID
		}
		if i < len(chain)-1 {
			wantChild = chain[i+1].CampaignID
		}
		if c.ParentCampaignID != wantParent || c.ChildCampaignID != wantChild {
			return fmt.Errorf("%w: campaign %s has broken chain links", ErrDataIntegrity, c.CampaignID)
		}
	}
	return nil
}

// SortChain orders campaigns by chain position.
func SortChain(chain []Campaign) {
	slices.SortFunc(chain, func(a, b Campaign) int { return a.ChainPosition - b.ChainPosition })
}

// ComputeChainWeek walks a chain from position 1 carrying overflow downward.
// Closed campaigns get no snapshot and hand the incoming overflow to the next
// campaign unchanged. Campaigns created after the week are ignored.
func ComputeChainWeek(in ChainWeekInput) (ChainWeekResult, error) {
	if len(in.Chain) == 0 {
		return ChainWeekResult{}, nil
	}
	if err := ValidateChain(in.Chain); err != nil {
		return ChainWeekResult{}, err
	}

	var (
		result   ChainWeekResult
		overflow float64
		existed  = 0
	)
	for _, c := range in.Chain {
		weekIndex := WeekIndex(c.CreatedAt, in.Week.Start)
		if weekIndex < 0 {
			break
		}
		existed++
		result.Tail = c

		if c.IsClosed() {
			continue
		}
		if weekIndex > 0 && !in.PriorSnapshots[c.CampaignID] {
			return ChainWeekResult{}, fmt.Errorf("%w: campaign %s has no snapshot for the week before %s", ErrDataIntegrity, c.CampaignID, in.Week.ID)
		}

		budget, err := CalculateCampaignBudget(weekIndex, in.SalesByCampaign[c.CampaignID], overflow)
		if err != nil {
			return ChainWeekResult{}, fmt.Errorf("campaign %s: %w", c.CampaignID, err)
		}
		result.Snapshots = append(result.Snapshots, WeeklySnapshot{
			CampaignID:    c.CampaignID,
			OwnerID:       c.OwnerID,
			ChainPosition: c.ChainPosition,
			WeekID:        in.Week.ID,
			WeekStart:     in.Week.Start,
			Status:        c.Status,
			BudgetResult:  budget,
		})
		overflow = budget.OverflowOut
	}

	result.TrailingOverflow = overflow
	if existed == 0 {
		return ChainWeekResult{}, nil
	}
	if overflow > 0 && existed < len(in.Chain) {
		next := in.Chain[existed]
		return ChainWeekResult{}, fmt.Errorf("%w: campaign %s overflowed in %s but its child %s was created later", ErrDataIntegrity, result.Tail.CampaignID, in.Week.ID, next.CampaignID)
	}
	return result, nil
}
