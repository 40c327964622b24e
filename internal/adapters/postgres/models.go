package postgres

import (
	"time"

	"github.com/google/uuid"
)

type agentModel struct {
	AgentID   string    `gorm:"column:agent_id;primaryKey"`
	ParentID  *string   `gorm:"column:parent_id"`
	Sales30d  float64   `gorm:"column:sales_30d"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (agentModel) TableName() string { return "agents" }

type campaignModel struct {
	CampaignID          string    `gorm:"column:campaign_id;primaryKey"`
	OwnerID             string    `gorm:"column:owner_id"`
	ChainPosition       int       `gorm:"column:chain_position"`
	ParentCampaignID    *string   `gorm:"column:parent_campaign_id"`
	ChildCampaignID     *string   `gorm:"column:child_campaign_id"`
	Status              string    `gorm:"column:status"`
	ParticipantIDs      string    `gorm:"column:participant_ids;type:jsonb"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	InitialPeriodEndsAt time.Time `gorm:"column:initial_period_ends_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
	Version             int       `gorm:"column:version"`
}

func (campaignModel) TableName() string { return "campaigns" }

type saleModel struct {
	SaleID      string    `gorm:"column:sale_id;primaryKey"`
	CampaignID  string    `gorm:"column:campaign_id"`
	AgentID     string    `gorm:"column:agent_id"`
	Amount      float64   `gorm:"column:amount"`
	InstalledAt time.Time `gorm:"column:installed_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (saleModel) TableName() string { return "campaign_sales" }

type snapshotModel struct {
	CampaignID      string    `gorm:"column:campaign_id;primaryKey"`
	WeekID          string    `gorm:"column:week_id;primaryKey"`
	OwnerID         string    `gorm:"column:owner_id"`
	ChainPosition   int       `gorm:"column:chain_position"`
	WeekStart       time.Time `gorm:"column:week_start"`
	Status          string    `gorm:"column:status"`
	WeekIndex       int       `gorm:"column:week_index"`
	TotalSales      float64   `gorm:"column:total_sales"`
	IsInitialPeriod bool      `gorm:"column:is_initial_period"`
	BaseBudget      float64   `gorm:"column:base_budget"`
	CappedBudget    float64   `gorm:"column:capped_budget"`
	OverflowIn      float64   `gorm:"column:overflow_in"`
	OverflowOut     float64   `gorm:"column:overflow_out"`
	TotalBudget     float64   `gorm:"column:total_budget"`
	ComputedAt      time.Time `gorm:"column:computed_at"`
}

func (snapshotModel) TableName() string { return "campaign_snapshots" }

type statementModel struct {
	AgentID                string    `gorm:"column:agent_id;primaryKey"`
	WeekID                 string    `gorm:"column:week_id;primaryKey"`
	WeekStart              time.Time `gorm:"column:week_start"`
	Sales30d               float64   `gorm:"column:sales_30d"`
	KeyActive              bool      `gorm:"column:key_active"`
	AtRisk                 bool      `gorm:"column:at_risk"`
	Status                 string    `gorm:"column:status"`
	Total                  float64   `gorm:"column:total"`
	FromChildren           float64   `gorm:"column:from_children"`
	FromGrandchildren      float64   `gorm:"column:from_grandchildren"`
	FromGreatGrandchildren float64   `gorm:"column:from_great_grandchildren"`
	Lines                  string    `gorm:"column:lines;type:jsonb"`
	ComputedAt             time.Time `gorm:"column:computed_at"`
}

func (statementModel) TableName() string { return "commission_statements" }

type weeklyRunModel struct {
	WeekID           string    `gorm:"column:week_id;primaryKey"`
	WeekStart        time.Time `gorm:"column:week_start"`
	Status           string    `gorm:"column:status"`
	Agents           int       `gorm:"column:agents"`
	ActiveAgents     int       `gorm:"column:active_agents"`
	Statements       int       `gorm:"column:statements"`
	Chains           int       `gorm:"column:chains"`
	Snapshots        int       `gorm:"column:snapshots"`
	CampaignsCreated int       `gorm:"column:campaigns_created"`
	FailedChains     string    `gorm:"column:failed_chains;type:jsonb"`
	CompletedAt      time.Time `gorm:"column:completed_at"`
}

func (weeklyRunModel) TableName() string { return "weekly_runs" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "commission_idempotency" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "commission_event_dedup" }

type outboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	RetryCount       int        `gorm:"column:retry_count"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (outboxModel) TableName() string { return "commission_outbox" }
