package domain

import "testing"

func TestEvaluateEligibility(t *testing.T) {
	t.Parallel()
	cases := []struct {
		sales     float64
		active    bool
		atRisk    bool
		status    KeyStatus
		shortfall float64
	}{
		{sales: 15000, active: true, status: KeyStatusActive},
		{sales: 14999.99, atRisk: true, status: KeyStatusAtRisk, shortfall: 0.01},
		{sales: 12000, atRisk: true, status: KeyStatusAtRisk, shortfall: 3000},
		{sales: 11999, status: KeyStatusInactive, shortfall: 3001},
		{sales: -50, status: KeyStatusInactive, shortfall: 15000},
	}
	for _, tc := range cases {
		got := EvaluateEligibility(tc.sales)
		if got.KeyActive != tc.active || got.AtRisk != tc.atRisk || got.Status != tc.status {
			t.Fatalf("sales %v: got %+v", tc.sales, got)
		}
		if got.ShortfallToKey != tc.shortfall {
			t.Fatalf("sales %v: expected shortfall %v, got %v", tc.sales, tc.shortfall, got.ShortfallToKey)
		}
	}
}

func TestEvaluateEligibilityClampsNegativeSales(t *testing.T) {
	t.Parallel()
	got := EvaluateEligibility(-250.5)
	want := Eligibility{Sales30d: 0, Status: KeyStatusInactive, ShortfallToKey: LlaveThreshold}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if IsKeyActive(-250.5) || IsAtRisk(-250.5) {
		t.Fatalf("negative sales classified as holding or near the Key")
	}
}

func TestGatingHoldsBelowThreshold(t *testing.T) {
	t.Parallel()
	for _, sales := range []float64{0, 1, 9000, 12000, 14999.99} {
		idx := mustIndex(t,
			Agent{AgentID: "v", Sales30d: sales},
			Agent{AgentID: "c", ParentID: "v", Sales30d: 50000},
			Agent{AgentID: "g", ParentID: "c", Sales30d: 50000},
		)
		got, err := CalculateCommissions("v", idx)
		if err != nil {
			t.Fatalf("CalculateCommissions: %v", err)
		}
		if got.Total != 0 || len(got.Lines) != 0 {
			t.Fatalf("sales %v: expected zero result, got %+v", sales, got)
		}
	}
}
