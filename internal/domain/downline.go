package domain

import (
	"fmt"
	"slices"
)

// DownlineIndex is an immutable id -> children adjacency built once per pass.
// Construction rejects duplicate ids, unknown parents and cycles.
type DownlineIndex struct {
	agents   map[string]Agent
	children map[string][]string
	roots    []string
}

func NewDownlineIndex(agents []Agent) (*DownlineIndex, error) {
	idx := &DownlineIndex{
		agents:   make(map[string]Agent, len(agents)),
		children: make(map[string][]string, len(agents)),
	}
	for _, a := range agents {
		if err := ValidateAgent(a); err != nil {
			return nil, fmt.Errorf("%w: agent %q: %v", ErrDataIntegrity, a.AgentID, err)
		}
		if _, exists := idx.agents[a.AgentID]; exists {
			return nil, fmt.Errorf("%w: duplicate agent %s", ErrDataIntegrity, a.AgentID)
		}
		idx.agents[a.AgentID] = a
	}
	for id, a := range idx.agents {
		if a.IsRoot() {
			idx.roots = append(idx.roots, id)
			continue
		}
		if _, ok := idx.agents[a.ParentID]; !ok {
			return nil, fmt.Errorf("%w: parent %s of agent %s not found", ErrDataIntegrity, a.ParentID, id)
		}
		idx.children[a.ParentID] = append(idx.children[a.ParentID], id)
	}
	for parent := range idx.children {
		slices.Sort(idx.children[parent])
	}
	slices.Sort(idx.roots)
	if err := idx.assignLevels(); err != nil {
		return nil, err
	}
	return idx, nil
}

// assignLevels walks down from every root. Any agent left unvisited sits on a
// parent cycle, since every non-root has a known parent.
func (x *DownlineIndex) assignLevels() error {
	visited := make(map[string]bool, len(x.agents))
	queue := make([]string, 0, len(x.agents))
	for _, root := range x.roots {
		a := x.agents[root]
		a.Level = 0
		x.agents[root] = a
		visited[root] = true
		queue = append(queue, root)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		level := x.agents[id].Level
		for _, childID := range x.children[id] {
			if visited[childID] {
				return fmt.Errorf("%w: agent %s reached twice", ErrDataIntegrity, childID)
			}
			visited[childID] = true
			child := x.agents[childID]
			child.Level = level + 1
			x.agents[childID] = child
			queue = append(queue, childID)
		}
	}
	if len(visited) != len(x.agents) {
		for id := range x.agents {
			if !visited[id] {
				return fmt.Errorf("%w: cyclic parent chain through agent %s", ErrDataIntegrity, id)
			}
		}
	}
	return nil
}

func (x *DownlineIndex) Len() int {
	return len(x.agents)
}

func (x *DownlineIndex) Agent(id string) (Agent, bool) {
	a, ok := x.agents[id]
	return a, ok
}

// ChildrenOf returns direct referrals ordered by id.
func (x *DownlineIndex) ChildrenOf(id string) []Agent {
	ids := x.children[id]
	out := make([]Agent, 0, len(ids))
	for _, childID := range ids {
		out = append(out, x.agents[childID])
	}
	return out
}

// Agents returns every agent ordered by id, with levels recomputed from the tree.
func (x *DownlineIndex) Agents() []Agent {
	out := make([]Agent, 0, len(x.agents))
	for _, a := range x.agents {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Agent) int {
		switch {
		case a.AgentID < b.AgentID:
			return -1
		case a.AgentID > b.AgentID:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Tiers groups the viewer's downline by generation, stopping at MaxCommissionDepth.
func (x *DownlineIndex) Tiers(viewerID string) map[Generation][]Agent {
	out := make(map[Generation][]Agent, MaxCommissionDepth)
	frontier := []string{viewerID}
	for depth := 1; depth <= MaxCommissionDepth && len(frontier) > 0; depth++ {
		gen := GenerationForDepth(depth)
		next := make([]string, 0)
		for _, id := range frontier {
			for _, child := range x.ChildrenOf(id) {
				out[gen] = append(out[gen], child)
				next = append(next, child.AgentID)
			}
		}
		frontier = next
	}
	return out
}
