package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCalculateCampaignBudget(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		weekIndex  int
		sales      float64
		overflowIn float64
		want       BudgetResult
	}{
		{
			name:      "cap splits overflow",
			weekIndex: 2, sales: 3000,
			want: BudgetResult{WeekIndex: 2, TotalSales: 3000, BaseBudget: 1200, CappedBudget: 800, OverflowOut: 400, TotalBudget: 800},
		},
		{
			name:      "week zero is flat",
			weekIndex: 0, sales: 100000, overflowIn: 50,
			want: BudgetResult{WeekIndex: 0, TotalSales: 100000, IsInitialPeriod: true, BaseBudget: 200, CappedBudget: 200, OverflowIn: 50, TotalBudget: 250},
		},
		{
			name:      "week one is flat",
			weekIndex: 1, sales: 0,
			want: BudgetResult{WeekIndex: 1, IsInitialPeriod: true, BaseBudget: 200, CappedBudget: 200, TotalBudget: 200},
		},
		{
			name:      "week three overflow",
			weekIndex: 3, sales: 2500,
			want: BudgetResult{WeekIndex: 3, TotalSales: 2500, BaseBudget: 1000, CappedBudget: 800, OverflowOut: 200, TotalBudget: 800},
		},
		{
			name:      "overflow in is not capped again",
			weekIndex: 5, sales: 2000, overflowIn: 700,
			want: BudgetResult{WeekIndex: 5, TotalSales: 2000, BaseBudget: 800, CappedBudget: 800, OverflowIn: 700, TotalBudget: 1500},
		},
	}
	for _, tc := range cases {
		got, err := CalculateCampaignBudget(tc.weekIndex, tc.sales, tc.overflowIn)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestCalculateCampaignBudgetRejectsCorruptInput(t *testing.T) {
	t.Parallel()
	if _, err := CalculateCampaignBudget(3, -1, 0); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("negative sales: expected ErrDataIntegrity, got %v", err)
	}
	if _, err := CalculateCampaignBudget(3, math.NaN(), 0); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("NaN sales: expected ErrDataIntegrity, got %v", err)
	}
	if _, err := CalculateCampaignBudget(3, 10, -5); !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("negative overflow: expected ErrDataIntegrity, got %v", err)
	}
	if _, err := CalculateCampaignBudget(-1, 10, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative week index: expected ErrValidation, got %v", err)
	}
}
