package domain

import (
	"errors"
	"testing"
)

func TestNewDownlineIndexRejectsBadGraphs(t *testing.T) {
	t.Parallel()
	cases := map[string][]Agent{
		"cycle": {
			{AgentID: "a", ParentID: "b"},
			{AgentID: "b", ParentID: "a"},
		},
		"cycle below a root": {
			{AgentID: "root"},
			{AgentID: "a", ParentID: "c"},
			{AgentID: "b", ParentID: "a"},
			{AgentID: "c", ParentID: "b"},
		},
		"unknown parent": {
			{AgentID: "a", ParentID: "missing"},
		},
		"duplicate id": {
			{AgentID: "a"},
			{AgentID: "a"},
		},
		"negative sales": {
			{AgentID: "a", Sales30d: -1},
		},
		"self parent": {
			{AgentID: "a", ParentID: "a"},
		},
	}
	for name, agents := range cases {
		if _, err := NewDownlineIndex(agents); !errors.Is(err, ErrDataIntegrity) {
			t.Fatalf("%s: expected ErrDataIntegrity, got %v", name, err)
		}
	}
}

func TestDownlineIndexRecomputesLevels(t *testing.T) {
	t.Parallel()
	idx := mustIndex(t,
		Agent{AgentID: "root", Level: 7},
		Agent{AgentID: "child", ParentID: "root"},
		Agent{AgentID: "grandchild", ParentID: "child", Level: 99},
		Agent{AgentID: "other"},
	)
	want := map[string]int{"root": 0, "child": 1, "grandchild": 2, "other": 0}
	for id, level := range want {
		a, ok := idx.Agent(id)
		if !ok {
			t.Fatalf("agent %s missing", id)
		}
		if a.Level != level {
			t.Fatalf("agent %s: expected level %d, got %d", id, level, a.Level)
		}
	}
}

func TestTiersStopsAtGreatGrandchildren(t *testing.T) {
	t.Parallel()
	idx := mustIndex(t,
		Agent{AgentID: "v"},
		Agent{AgentID: "c1", ParentID: "v"},
		Agent{AgentID: "c2", ParentID: "v"},
		Agent{AgentID: "g1", ParentID: "c1"},
		Agent{AgentID: "gg1", ParentID: "g1"},
		Agent{AgentID: "ggg1", ParentID: "gg1"},
	)
	tiers := idx.Tiers("v")
	if len(tiers[GenerationDirect]) != 2 || len(tiers[GenerationGrandchild]) != 1 || len(tiers[GenerationGreatGrandchild]) != 1 {
		t.Fatalf("unexpected tiers: %+v", tiers)
	}
	if len(tiers[GenerationBeyond]) != 0 {
		t.Fatalf("beyond tier should be empty")
	}
}

func TestGenerationForDepth(t *testing.T) {
	t.Parallel()
	for depth, want := range map[int]Generation{-1: GenerationBeyond, 0: GenerationBeyond, 1: GenerationDirect, 2: GenerationGrandchild, 3: GenerationGreatGrandchild, 4: GenerationBeyond} {
		if got := GenerationForDepth(depth); got != want {
			t.Fatalf("depth %d: expected %s, got %s", depth, want, got)
		}
	}
	if GenerationBeyond.Rate() != 0 {
		t.Fatalf("beyond must have zero rate")
	}
}
