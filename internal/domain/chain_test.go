package domain

import (
	"errors"
	"testing"
	"time"
)

var testCalendar = DefaultWeekCalendar(time.UTC)

func weekAt(t *testing.T, id string) Week {
	t.Helper()
	w, err := testCalendar.ParseWeekID(id)
	if err != nil {
		t.Fatalf("ParseWeekID(%s): %v", id, err)
	}
	return w
}

// linkedChain builds a chain for owner "o" whose campaigns open in the given weeks.
func linkedChain(t *testing.T, weeks ...string) []Campaign {
	t.Helper()
	chain := make([]Campaign, 0, len(weeks))
	for i, id := range weeks {
		if i == 0 {
			chain = append(chain, NewRootCampaign("c1", "o", weekAt(t, id)))
			continue
		}
		child := chain[i-1].NewChild("c"+string(rune('1'+i)), weekAt(t, id))
		chain[i-1].ChildCampaignID = child.CampaignID
		chain = append(chain, child)
	}
	return chain
}

func TestComputeChainWeekPropagatesOverflow(t *testing.T) {
	t.Parallel()
	chain := linkedChain(t, "2026-09-16", "2026-09-23")
	res, err := ComputeChainWeek(ChainWeekInput{
		Week:            weekAt(t, "2026-10-07"),
		Chain:           chain,
		SalesByCampaign: map[string]float64{"c1": 3000, "c2": 2100},
		PriorSnapshots:  map[string]bool{"c1": true, "c2": true},
	})
	if err != nil {
		t.Fatalf("ComputeChainWeek: %v", err)
	}
	if len(res.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(res.Snapshots))
	}
	parent, child := res.Snapshots[0], res.Snapshots[1]
	if parent.OverflowOut != 400 {
		t.Fatalf("expected parent overflow 400, got %v", parent.OverflowOut)
	}
	if child.OverflowIn != parent.OverflowOut {
		t.Fatalf("child overflow in %v != parent overflow out %v", child.OverflowIn, parent.OverflowOut)
	}
	if child.WeekIndex != 2 || child.BaseBudget != 840 || child.TotalBudget != 1200 || child.OverflowOut != 40 {
		t.Fatalf("unexpected child snapshot %+v", child.BudgetResult)
	}
	if !res.NeedsChild() || res.TrailingOverflow != 40 || res.Tail.CampaignID != "c2" {
		t.Fatalf("expected trailing overflow 40 from c2, got %+v", res)
	}
}

func TestComputeChainWeekClosedCampaignPassesOverflowThrough(t *testing.T) {
	t.Parallel()
	chain := linkedChain(t, "2026-09-02", "2026-09-09", "2026-09-16")
	chain[1].Status = CampaignStatusClosed
	res, err := ComputeChainWeek(ChainWeekInput{
		Week:            weekAt(t, "2026-10-07"),
		Chain:           chain,
		SalesByCampaign: map[string]float64{"c1": 2500, "c2": 99999},
		PriorSnapshots:  map[string]bool{"c1": true, "c3": true},
	})
	if err != nil {
		t.Fatalf("ComputeChainWeek: %v", err)
	}
	if len(res.Snapshots) != 2 || res.Snapshots[1].CampaignID != "c3" {
		t.Fatalf("expected snapshots for c1 and c3, got %+v", res.Snapshots)
	}
	if res.Snapshots[1].OverflowIn != 200 {
		t.Fatalf("expected c3 overflow in 200, got %v", res.Snapshots[1].OverflowIn)
	}
}

func TestComputeChainWeekIgnoresCampaignsNotYetCreated(t *testing.T) {
	t.Parallel()
	chain := linkedChain(t, "2026-09-16", "2026-10-14")
	res, err := ComputeChainWeek(ChainWeekInput{
		Week:            weekAt(t, "2026-10-07"),
		Chain:           chain,
		SalesByCampaign: map[string]float64{"c1": 1000},
		PriorSnapshots:  map[string]bool{"c1": true},
	})
	if err != nil {
		t.Fatalf("ComputeChainWeek: %v", err)
	}
	if len(res.Snapshots) != 1 || res.Tail.CampaignID != "c1" {
		t.Fatalf("expected only c1, got %+v", res)
	}
}

func TestComputeChainWeekIntegrityFailures(t *testing.T) {
	t.Parallel()
	week := weekAt(t, "2026-10-07")

	chain := linkedChain(t, "2026-09-16")
	_, err := ComputeChainWeek(ChainWeekInput{Week: week, Chain: chain, PriorSnapshots: map[string]bool{}})
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("missing prior snapshot: expected ErrDataIntegrity, got %v", err)
	}

	chain = linkedChain(t, "2026-09-16", "2026-10-14")
	_, err = ComputeChainWeek(ChainWeekInput{
		Week:            week,
		Chain:           chain,
		SalesByCampaign: map[string]float64{"c1": 5000},
		PriorSnapshots:  map[string]bool{"c1": true},
	})
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("late child: expected ErrDataIntegrity, got %v", err)
	}

	chain = linkedChain(t, "2026-09-16", "2026-09-23")
	chain[1].ParentCampaignID = "elsewhere"
	_, err = ComputeChainWeek(ChainWeekInput{Week: week, Chain: chain, PriorSnapshots: map[string]bool{"c1": true, "c2": true}})
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("broken link: expected ErrDataIntegrity, got %v", err)
	}

	chain = linkedChain(t, "2026-09-16")
	_, err = ComputeChainWeek(ChainWeekInput{
		Week:            week,
		Chain:           chain,
		SalesByCampaign: map[string]float64{"c1": -10},
		PriorSnapshots:  map[string]bool{"c1": true},
	})
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("negative sales: expected ErrDataIntegrity, got %v", err)
	}
}

func TestComputeChainWeekFirstWeekNeedsNoHistory(t *testing.T) {
	t.Parallel()
	week := weekAt(t, "2026-10-14")
	res, err := ComputeChainWeek(ChainWeekInput{Week: week, Chain: linkedChain(t, "2026-10-14")})
	if err != nil {
		t.Fatalf("ComputeChainWeek: %v", err)
	}
	snap := res.Snapshots[0]
	if !snap.IsInitialPeriod || snap.TotalBudget != 200 || snap.WeekID != "2026-10-14" {
		t.Fatalf("unexpected first-week snapshot %+v", snap)
	}
}
