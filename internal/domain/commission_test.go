package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustIndex(t *testing.T, agents ...Agent) *DownlineIndex {
	t.Helper()
	idx, err := NewDownlineIndex(agents)
	if err != nil {
		t.Fatalf("NewDownlineIndex: %v", err)
	}
	return idx
}

type tierTotals struct {
	Total, Children, Grandchildren, GreatGrandchildren float64
}

func totalsOf(b CommissionBreakdown) tierTotals {
	return tierTotals{b.Total, b.FromChildren, b.FromGrandchildren, b.FromGreatGrandchildren}
}

func TestCalculateCommissionsScenarios(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		agents []Agent
		want   tierTotals
	}{
		{
			name: "active child and grandchild",
			agents: []Agent{
				{AgentID: "v", Sales30d: 20000},
				{AgentID: "c", ParentID: "v", Sales30d: 16000},
				{AgentID: "g", ParentID: "c", Sales30d: 8000},
			},
			want: tierTotals{Total: 560, Children: 320, Grandchildren: 240},
		},
		{
			name: "inactive child breaks the chain",
			agents: []Agent{
				{AgentID: "v", Sales30d: 20000},
				{AgentID: "c", ParentID: "v", Sales30d: 5000},
				{AgentID: "g", ParentID: "c", Sales30d: 8000},
			},
			want: tierTotals{Total: 100, Children: 100},
		},
		{
			name: "inactive viewer earns nothing",
			agents: []Agent{
				{AgentID: "v", Sales30d: 9000},
				{AgentID: "c", ParentID: "v", Sales30d: 90000},
				{AgentID: "g", ParentID: "c", Sales30d: 90000},
				{AgentID: "gg", ParentID: "g", Sales30d: 90000},
			},
			want: tierTotals{},
		},
		{
			name: "rate for a single child",
			agents: []Agent{
				{AgentID: "v", Sales30d: 15000},
				{AgentID: "c", ParentID: "v", Sales30d: 4000},
			},
			want: tierTotals{Total: 80, Children: 80},
		},
		{
			name: "no downline",
			agents: []Agent{
				{AgentID: "v", Sales30d: 50000},
			},
			want: tierTotals{},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := CalculateCommissions("v", mustIndex(t, tc.agents...))
			if err != nil {
				t.Fatalf("CalculateCommissions: %v", err)
			}
			if diff := cmp.Diff(tc.want, totalsOf(got)); diff != "" {
				t.Fatalf("totals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGreatGrandchildNeedsBothAncestorsActive(t *testing.T) {
	t.Parallel()
	base := []Agent{
		{AgentID: "v", Sales30d: 20000},
		{AgentID: "c", ParentID: "v", Sales30d: 16000},
		{AgentID: "g", ParentID: "c", Sales30d: 16000},
		{AgentID: "gg", ParentID: "g", Sales30d: 4000},
	}
	got, err := CalculateCommissions("v", mustIndex(t, base...))
	if err != nil {
		t.Fatalf("CalculateCommissions: %v", err)
	}
	// 4000/4 * 0.20
	if got.FromGreatGrandchildren != 200 {
		t.Fatalf("expected 200 from great-grandchild, got %v", got.FromGreatGrandchildren)
	}

	base[2].Sales30d = 14999
	got, err = CalculateCommissions("v", mustIndex(t, base...))
	if err != nil {
		t.Fatalf("CalculateCommissions: %v", err)
	}
	if got.FromGreatGrandchildren != 0 {
		t.Fatalf("inactive grandchild should block great-grandchild, got %v", got.FromGreatGrandchildren)
	}
	var blocked string
	for _, line := range got.Lines {
		if line.AgentID == "gg" {
			blocked = line.BlockedBy
		}
	}
	if blocked != "g" {
		t.Fatalf("expected gg blocked by g, got %q", blocked)
	}
}

func TestDepthFourNeverPays(t *testing.T) {
	t.Parallel()
	idx := mustIndex(t,
		Agent{AgentID: "v", Sales30d: 20000},
		Agent{AgentID: "c", ParentID: "v", Sales30d: 20000},
		Agent{AgentID: "g", ParentID: "c", Sales30d: 20000},
		Agent{AgentID: "gg", ParentID: "g", Sales30d: 20000},
		Agent{AgentID: "ggg", ParentID: "gg", Sales30d: 1000000},
	)
	got, err := CalculateCommissions("v", idx)
	if err != nil {
		t.Fatalf("CalculateCommissions: %v", err)
	}
	want := tierTotals{Children: 400, Grandchildren: 600, GreatGrandchildren: 1000, Total: 2000}
	if diff := cmp.Diff(want, totalsOf(got)); diff != "" {
		t.Fatalf("totals mismatch (-want +got):\n%s", diff)
	}
	for _, line := range got.Lines {
		if line.AgentID == "ggg" {
			t.Fatalf("depth 4 agent must not appear in breakdown")
		}
	}
}

func TestHighSalesGrandchildBehindInactiveChildPaysZero(t *testing.T) {
	t.Parallel()
	idx := mustIndex(t,
		Agent{AgentID: "v", Sales30d: 30000},
		Agent{AgentID: "c", ParentID: "v", Sales30d: 0},
		Agent{AgentID: "g", ParentID: "c", Sales30d: 10_000_000},
	)
	got, err := CalculateCommissions("v", idx)
	if err != nil {
		t.Fatalf("CalculateCommissions: %v", err)
	}
	if got.FromGrandchildren != 0 || got.Total != 0 {
		t.Fatalf("expected zero commission, got %+v", totalsOf(got))
	}
}

func TestCalculateCommissionsIsDeterministic(t *testing.T) {
	t.Parallel()
	idx := mustIndex(t,
		Agent{AgentID: "v", Sales30d: 20000},
		Agent{AgentID: "c1", ParentID: "v", Sales30d: 16000},
		Agent{AgentID: "c2", ParentID: "v", Sales30d: 333.33},
		Agent{AgentID: "g1", ParentID: "c1", Sales30d: 777.77},
	)
	first, err := CalculateCommissions("v", idx)
	if err != nil {
		t.Fatalf("CalculateCommissions: %v", err)
	}
	second, err := CalculateCommissions("v", idx)
	if err != nil {
		t.Fatalf("CalculateCommissions: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated calculation differs:\n%s", diff)
	}
}

func TestCalculateCommissionsUnknownViewer(t *testing.T) {
	t.Parallel()
	_, err := CalculateCommissions("ghost", mustIndex(t, Agent{AgentID: "v"}))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
