package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type AgentUpsertedPayload struct {
	AgentID    string  `json:"agent_id"`
	ParentID   string  `json:"parent_id,omitempty"`
	Sales30d   float64 `json:"sales_30d"`
	OccurredAt string  `json:"occurred_at,omitempty"`
}

type CampaignSaleAttributedPayload struct {
	SaleID      string  `json:"sale_id"`
	CampaignID  string  `json:"campaign_id"`
	AgentID     string  `json:"agent_id"`
	Amount      float64 `json:"amount"`
	InstalledAt string  `json:"installed_at"`
}

type CampaignCreatedPayload struct {
	CampaignID          string `json:"campaign_id"`
	OwnerID             string `json:"owner_id"`
	ChainPosition       int    `json:"chain_position"`
	ParentCampaignID    string `json:"parent_campaign_id,omitempty"`
	CreatedAt           string `json:"created_at"`
	InitialPeriodEndsAt string `json:"initial_period_ends_at"`
}

type CampaignSnapshotComputedPayload struct {
	CampaignID      string  `json:"campaign_id"`
	OwnerID         string  `json:"owner_id"`
	ChainPosition   int     `json:"chain_position"`
	WeekID          string  `json:"week_id"`
	WeekIndex       int     `json:"week_index"`
	TotalSales      float64 `json:"total_sales"`
	IsInitialPeriod bool    `json:"is_initial_period"`
	BaseBudget      float64 `json:"base_budget"`
	CappedBudget    float64 `json:"capped_budget"`
	OverflowIn      float64 `json:"overflow_in"`
	OverflowOut     float64 `json:"overflow_out"`
	TotalBudget     float64 `json:"total_budget"`
}

type CommissionStatementComputedPayload struct {
	AgentID                string  `json:"agent_id"`
	WeekID                 string  `json:"week_id"`
	KeyActive              bool    `json:"key_active"`
	AtRisk                 bool    `json:"at_risk"`
	Total                  float64 `json:"total"`
	FromChildren           float64 `json:"from_children"`
	FromGrandchildren      float64 `json:"from_grandchildren"`
	FromGreatGrandchildren float64 `json:"from_great_grandchildren"`
}
