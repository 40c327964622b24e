package domain

const (
	// LlaveThreshold is the trailing 30-day sales needed to hold the Key.
	LlaveThreshold = 15000.0
	// AtRiskThreshold marks agents close to losing or reaching the Key.
	AtRiskThreshold = 12000.0
)

type KeyStatus string

const (
	KeyStatusActive   KeyStatus = "active"
	KeyStatusAtRisk   KeyStatus = "at_risk"
	KeyStatusInactive KeyStatus = "inactive"
)

type Eligibility struct {
	AgentID        string    `json:"agent_id,omitempty"`
	Sales30d       float64   `json:"sales_30d"`
	KeyActive      bool      `json:"key_active"`
	AtRisk         bool      `json:"at_risk"`
	Status         KeyStatus `json:"status"`
	ShortfallToKey float64   `json:"shortfall_to_key"`
}

// IsKeyActive reports whether the Key is held.
func IsKeyActive(sales30d float64) bool {
	return sales30d >= LlaveThreshold
}

func IsAtRisk(sales30d float64) bool {
	return sales30d >= AtRiskThreshold && sales30d < LlaveThreshold
}

// EvaluateEligibility classifies an agent's trailing 30-day sales. Negative
// input counts as zero.
func EvaluateEligibility(sales30d float64) Eligibility {
	if sales30d < 0 {
		sales30d = 0
	}
	out := Eligibility{
		Sales30d:  sales30d,
		KeyActive: IsKeyActive(sales30d),
		AtRisk:    IsAtRisk(sales30d),
	}
	switch {
	case out.KeyActive:
		out.Status = KeyStatusActive
	case out.AtRisk:
		out.Status = KeyStatusAtRisk
	default:
		out.Status = KeyStatusInactive
	}
	if !out.KeyActive {
		out.ShortfallToKey = round2(LlaveThreshold - sales30d)
	}
	return out
}

func EvaluateAgent(a Agent) Eligibility {
	out := EvaluateEligibility(a.Sales30d)
	out.AgentID = a.AgentID
	return out
}
