package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

// AgentRepository is the local mirror of the agent directory.
type AgentRepository interface {
	Upsert(ctx context.Context, agent domain.Agent) error
	Get(ctx context.Context, agentID string) (domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) error
	// CreateChild stores child and links it from its parent atomically.
	CreateChild(ctx context.Context, child domain.Campaign) error
	// Update writes status, participants and updated_at when the stored
	// version still equals campaign.Version, then bumps the version. A stale
	// version returns domain.ErrConflict.
	Update(ctx context.Context, campaign domain.Campaign) error
	Get(ctx context.Context, campaignID string) (domain.Campaign, error)
	// ListByOwner returns the owner's chain ordered by position.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Campaign, error)
	ListOwners(ctx context.Context) ([]string, error)
}

type SaleRepository interface {
	// Record stores a sale once. A replayed sale id reports created=false.
	Record(ctx context.Context, sale domain.Sale) (created bool, err error)
	ListByCampaign(ctx context.Context, campaignID string, from, to time.Time) ([]domain.Sale, error)
}

type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshots []domain.WeeklySnapshot) error
	Get(ctx context.Context, campaignID, weekID string) (domain.WeeklySnapshot, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.WeeklySnapshot, error)
	// ExistingForWeek reports which of the given campaigns have a snapshot for weekID.
	ExistingForWeek(ctx context.Context, campaignIDs []string, weekID string) (map[string]bool, error)
}

type StatementRepository interface {
	Upsert(ctx context.Context, statements []domain.CommissionStatement) error
	Get(ctx context.Context, agentID, weekID string) (domain.CommissionStatement, error)
	Latest(ctx context.Context, agentID string) (domain.CommissionStatement, error)
}

type WeeklyRunRepository interface {
	Save(ctx context.Context, run domain.WeeklyRun) error
	// LatestCompleted returns nil when no week has completed yet.
	LatestCompleted(ctx context.Context) (*domain.WeeklyRun, error)
	Get(ctx context.Context, weekID string) (domain.WeeklyRun, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

// OutboxRepository ignores an Enqueue whose EventID is already stored.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}
