package domain

import "fmt"

type CommissionLine struct {
	AgentID     string     `json:"agent_id"`
	ViaAgentID  string     `json:"via_agent_id,omitempty"`
	Generation  Generation `json:"generation"`
	Label       string     `json:"label"`
	KeyActive   bool       `json:"key_active"`
	WeeklySales float64    `json:"weekly_sales"`
	Rate        float64    `json:"rate"`
	Amount      float64    `json:"amount"`
	// BlockedBy names the inactive ancestor that broke the chain, if any.
	BlockedBy string `json:"blocked_by,omitempty"`
}

type CommissionBreakdown struct {
	ViewerID               string           `json:"viewer_id"`
	KeyActive              bool             `json:"key_active"`
	Total                  float64          `json:"total"`
	FromChildren           float64          `json:"from_children"`
	FromGrandchildren      float64          `json:"from_grandchildren"`
	FromGreatGrandchildren float64          `json:"from_great_grandchildren"`
	Lines                  []CommissionLine `json:"lines,omitempty"`
}

// CalculateCommissions computes the weekly commission the viewer earns from its
// first three generations. The viewer's own Key is the outermost gate; deeper
// tiers additionally require every connecting ancestor to hold the Key.
func CalculateCommissions(viewerID string, index *DownlineIndex) (CommissionBreakdown, error) {
	viewer, ok := index.Agent(viewerID)
	if !ok {
		return CommissionBreakdown{}, fmt.Errorf("%w: agent %s", ErrNotFound, viewerID)
	}
	out := CommissionBreakdown{ViewerID: viewerID, KeyActive: IsKeyActive(viewer.Sales30d)}
	if !out.KeyActive {
		return out, nil
	}

	var fromChildren, fromGrandchildren, fromGreatGrandchildren float64
	for _, child := range index.ChildrenOf(viewerID) {
		childActive := IsKeyActive(child.Sales30d)
		line, amount := newLine(child, "", GenerationDirect, "")
		fromChildren += amount
		out.Lines = append(out.Lines, line)

		for _, grandchild := range index.ChildrenOf(child.AgentID) {
			blockedBy := ""
			if !childActive {
				blockedBy = child.AgentID
			}
			line, amount := newLine(grandchild, child.AgentID, GenerationGrandchild, blockedBy)
			fromGrandchildren += amount
			out.Lines = append(out.Lines, line)

			grandchildActive := IsKeyActive(grandchild.Sales30d)
			for _, greatGrandchild := range index.ChildrenOf(grandchild.AgentID) {
				blockedBy := ""
				switch {
				case !childActive:
					blockedBy = child.AgentID
				case !grandchildActive:
					blockedBy = grandchild.AgentID
				}
				line, amount := newLine(greatGrandchild, grandchild.AgentID, GenerationGreatGrandchild, blockedBy)
				fromGreatGrandchildren += amount
				out.Lines = append(out.Lines, line)
			}
		}
	}

	out.FromChildren = round2(fromChildren)
	out.FromGrandchildren = round2(fromGrandchildren)
	out.FromGreatGrandchildren = round2(fromGreatGrandchildren)
	out.Total = round2(out.FromChildren + out.FromGrandchildren + out.FromGreatGrandchildren)
	return out, nil
}

// newLine returns the display line and the unrounded amount that feeds the tier subtotal.
func newLine(member Agent, via string, gen Generation, blockedBy string) (CommissionLine, float64) {
	weekly := WeeklySales(member)
	line := CommissionLine{
		AgentID:     member.AgentID,
		ViaAgentID:  via,
		Generation:  gen,
		Label:       gen.Label(),
		KeyActive:   IsKeyActive(member.Sales30d),
		WeeklySales: round2(weekly),
		Rate:        gen.Rate(),
		BlockedBy:   blockedBy,
	}
	amount := 0.0
	if blockedBy == "" {
		amount = weekly * gen.Rate()
	}
	line.Amount = round2(amount)
	return line, amount
}
