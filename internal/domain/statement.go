package domain

import "time"

// CommissionStatement is the stored weekly result for one agent.
type CommissionStatement struct {
	AgentID   string    `json:"agent_id"`
	WeekID    string    `json:"week_id"`
	WeekStart time.Time `json:"week_start"`
	Sales30d  float64   `json:"sales_30d"`
	KeyActive bool      `json:"key_active"`
	AtRisk    bool      `json:"at_risk"`
	Status    KeyStatus `json:"status"`
	CommissionBreakdown
}

func NewCommissionStatement(week Week, eligibility Eligibility, breakdown CommissionBreakdown) CommissionStatement {
	return CommissionStatement{
		AgentID:             eligibility.AgentID,
		WeekID:              week.ID,
		WeekStart:           week.Start,
		Sales30d:            eligibility.Sales30d,
		KeyActive:           eligibility.KeyActive,
		AtRisk:              eligibility.AtRisk,
		Status:              eligibility.Status,
		CommissionBreakdown: breakdown,
	}
}

type WeeklyRunStatus string

const (
	WeeklyRunCompleted WeeklyRunStatus = "completed"
	WeeklyRunFailed    WeeklyRunStatus = "failed"
)

// WeeklyRun records one pass of the weekly recompute.
type WeeklyRun struct {
	WeekID           string          `json:"week_id"`
	WeekStart        time.Time       `json:"week_start"`
	Status           WeeklyRunStatus `json:"status"`
	Agents           int             `json:"agents"`
	ActiveAgents     int             `json:"active_agents"`
	Statements       int             `json:"statements"`
	Chains           int             `json:"chains"`
	Snapshots        int             `json:"snapshots"`
	CampaignsCreated int             `json:"campaigns_created"`
	FailedChains     []string        `json:"failed_chains,omitempty"`
	CompletedAt      time.Time       `json:"completed_at"`
}
