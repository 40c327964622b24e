package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	CampaignBudgetCap  = 800.0
	InitialFlatBudget  = 200.0
	BudgetSalesDivisor = 2.5
)

type BudgetResult struct {
	WeekIndex       int     `json:"week_index"`
	TotalSales      float64 `json:"total_sales"`
	IsInitialPeriod bool    `json:"is_initial_period"`
	BaseBudget      float64 `json:"base_budget"`
	CappedBudget    float64 `json:"capped_budget"`
	OverflowIn      float64 `json:"overflow_in"`
	OverflowOut     float64 `json:"overflow_out"`
	TotalBudget     float64 `json:"total_budget"`
}

// CalculateCampaignBudget derives one campaign's weekly budget. OverflowOut
// comes from the base budget alone; overflowIn is added to the visible total
// without being capped again.
func CalculateCampaignBudget(weekIndex int, totalSales, overflowIn float64) (BudgetResult, error) {
	if weekIndex < 0 {
		return BudgetResult{}, fmt.Errorf("%w: week index %d precedes campaign creation", ErrValidation, weekIndex)
	}
	if !isFiniteNonNegative(totalSales) {
		return BudgetResult{}, fmt.Errorf("%w: total sales %v", ErrDataIntegrity, totalSales)
	}
	if !isFiniteNonNegative(overflowIn) {
		return BudgetResult{}, fmt.Errorf("%w: overflow in %v", ErrDataIntegrity, overflowIn)
	}

	initial := weekIndex < InitialPeriodWeeks
	base := InitialFlatBudget
	if !initial {
		base = round2(totalSales / BudgetSalesDivisor)
	}
	capped := math.Min(base, CampaignBudgetCap)
	overflowIn = round2(overflowIn)

	return BudgetResult{
		WeekIndex:       weekIndex,
		TotalSales:      round2(totalSales),
		IsInitialPeriod: initial,
		BaseBudget:      base,
		CappedBudget:    capped,
		OverflowIn:      overflowIn,
		OverflowOut:     round2(math.Max(0, base-CampaignBudgetCap)),
		TotalBudget:     round2(capped + overflowIn),
	}, nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// WeeklySnapshot is the stored budget of one campaign for one week.
type WeeklySnapshot struct {
	CampaignID    string         `json:"campaign_id"`
	OwnerID       string         `json:"owner_id"`
	ChainPosition int            `json:"chain_position"`
	WeekID        string         `json:"week_id"`
	WeekStart     time.Time      `json:"week_start"`
	Status        CampaignStatus `json:"status"`
	BudgetResult
}
