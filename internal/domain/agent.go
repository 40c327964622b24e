package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Agent is the engine's view of a directory entry. The engine never mutates it.
type Agent struct {
	AgentID   string    `json:"agent_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Sales30d  float64   `json:"sales_30d"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Agent) IsRoot() bool {
	return a.ParentID == ""
}

func ValidateAgent(a Agent) error {
	if strings.TrimSpace(a.AgentID) == "" {
		return fmt.Errorf("%w: agent_id is required", ErrValidation)
	}
	if a.ParentID == a.AgentID {
		return fmt.Errorf("%w: agent %s cannot refer itself", ErrValidation, a.AgentID)
	}
	if math.IsNaN(a.Sales30d) || math.IsInf(a.Sales30d, 0) {
		return fmt.Errorf("%w: sales_30d must be a finite number", ErrValidation)
	}
	if a.Sales30d < 0 {
		return fmt.Errorf("%w: sales_30d must be >= 0", ErrValidation)
	}
	return nil
}

// WeeklySales approximates one week of sales from the rolling 30-day figure.
// Swap this out once a real weekly sales ledger exists.
func WeeklySales(a Agent) float64 {
	if a.Sales30d <= 0 {
		return 0
	}
	return a.Sales30d / 4
}
