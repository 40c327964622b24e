package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
)

// Repositories is the in-process store used for local runs and tests.
type Repositories struct {
	Agents      *AgentRepository
	Campaigns   *CampaignRepository
	Sales       *SaleRepository
	Snapshots   *SnapshotRepository
	Statements  *StatementRepository
	Runs        *WeeklyRunRepository
	Idempotency *IdempotencyRepository
	EventDedup  *EventDedupRepository
	Outbox      *OutboxRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Agents:      &AgentRepository{records: make(map[string]domain.Agent)},
		Campaigns:   &CampaignRepository{records: make(map[string]domain.Campaign)},
		Sales:       &SaleRepository{records: make(map[string]domain.Sale)},
		Snapshots:   &SnapshotRepository{records: make(map[string]domain.WeeklySnapshot)},
		Statements:  &StatementRepository{records: make(map[string]domain.CommissionStatement)},
		Runs:        &WeeklyRunRepository{records: make(map[string]domain.WeeklyRun)},
		Idempotency: &IdempotencyRepository{records: make(map[string]ports.IdempotencyRecord)},
		EventDedup:  &EventDedupRepository{records: make(map[string]dedupRecord)},
		Outbox:      &OutboxRepository{records: make(map[uuid.UUID]ports.OutboxRecord)},
	}
}

type AgentRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Agent
}

func (r *AgentRepository) Upsert(_ context.Context, agent domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[agent.AgentID] = agent
	return nil
}

func (r *AgentRepository) Get(_ context.Context, agentID string) (domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.records[agentID]
	if !ok {
		return domain.Agent{}, domain.ErrNotFound
	}
	return agent, nil
}

func (r *AgentRepository) List(_ context.Context) ([]domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Agent, 0, len(r.records))
	for _, a := range r.records {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.Agent) int { return strings.Compare(a.AgentID, b.AgentID) })
	return out, nil
}

type CampaignRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Campaign
}

func cloneCampaign(c domain.Campaign) domain.Campaign {
	c.ParticipantIDs = slices.Clone(c.ParticipantIDs)
	return c
}

func (r *CampaignRepository) Create(_ context.Context, campaign domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[campaign.CampaignID]; exists {
		return domain.ErrConflict
	}
	for _, c := range r.records {
		if c.OwnerID == campaign.OwnerID && c.ChainPosition == campaign.ChainPosition {
			return fmt.Errorf("%w: owner %s already has position %d", domain.ErrConflict, campaign.OwnerID, campaign.ChainPosition)
		}
	}
	r.records[campaign.CampaignID] = cloneCampaign(campaign)
	return nil
}

func (r *CampaignRepository) CreateChild(_ context.Context, child domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	parent, ok := r.records[child.ParentCampaignID]
	if !ok {
		return fmt.Errorf("%w: parent campaign %s", domain.ErrNotFound, child.ParentCampaignID)
	}
	if parent.ChildCampaignID != "" {
		return fmt.Errorf("%w: campaign %s already has a child", domain.ErrConflict, parent.CampaignID)
	}
	if _, exists := r.records[child.CampaignID]; exists {
		return domain.ErrConflict
	}
	parent.ChildCampaignID = child.CampaignID
	parent.UpdatedAt = child.CreatedAt
	parent.Version++
	r.records[parent.CampaignID] = parent
	r.records[child.CampaignID] = cloneCampaign(child)
	return nil
}

func (r *CampaignRepository) Update(_ context.Context, campaign domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[campaign.CampaignID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != campaign.Version {
		return fmt.Errorf("%w: campaign %s changed since it was read", domain.ErrConflict, campaign.CampaignID)
	}
	stored.Status = campaign.Status
	stored.ParticipantIDs = slices.Clone(campaign.ParticipantIDs)
	stored.UpdatedAt = campaign.UpdatedAt
	stored.Version++
	r.records[campaign.CampaignID] = stored
	return nil
}

func (r *CampaignRepository) Get(_ context.Context, campaignID string) (domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.records[campaignID]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return cloneCampaign(c), nil
}

func (r *CampaignRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Campaign, 0)
	for _, c := range r.records {
		if c.OwnerID == ownerID {
			out = append(out, cloneCampaign(c))
		}
	}
	domain.SortChain(out)
	return out, nil
}

func (r *CampaignRepository) ListOwners(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, c := range r.records {
		if !seen[c.OwnerID] {
			seen[c.OwnerID] = true
			out = append(out, c.OwnerID)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *CampaignRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

type SaleRepository struct {
	mu      sync.RWMutex
	records map[string]domain.Sale
}

func (r *SaleRepository) Record(_ context.Context, sale domain.Sale) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[sale.SaleID]; exists {
		return false, nil
	}
	r.records[sale.SaleID] = sale
	return true, nil
}

func (r *SaleRepository) ListByCampaign(_ context.Context, campaignID string, from, to time.Time) ([]domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Sale, 0)
	for _, s := range r.records {
		if s.CampaignID != campaignID || s.InstalledAt.Before(from) || !s.InstalledAt.Before(to) {
			continue
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b domain.Sale) int { return a.InstalledAt.Compare(b.InstalledAt) })
	return out, nil
}

type SnapshotRepository struct {
	mu      sync.RWMutex
	records map[string]domain.WeeklySnapshot
}

func snapshotKey(campaignID, weekID string) string {
	return campaignID + "|" + weekID
}

func (r *SnapshotRepository) Upsert(_ context.Context, snapshots []domain.WeeklySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range snapshots {
		r.records[snapshotKey(snap.CampaignID, snap.WeekID)] = snap
	}
	return nil
}

func (r *SnapshotRepository) Get(_ context.Context, campaignID, weekID string) (domain.WeeklySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.records[snapshotKey(campaignID, weekID)]
	if !ok {
		return domain.WeeklySnapshot{}, domain.ErrNotFound
	}
	return snap, nil
}

func (r *SnapshotRepository) ListByCampaign(_ context.Context, campaignID string) ([]domain.WeeklySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.WeeklySnapshot, 0)
	for _, snap := range r.records {
		if snap.CampaignID == campaignID {
			out = append(out, snap)
		}
	}
	slices.SortFunc(out, func(a, b domain.WeeklySnapshot) int { return a.WeekStart.Compare(b.WeekStart) })
	return out, nil
}

func (r *SnapshotRepository) ExistingForWeek(_ context.Context, campaignIDs []string, weekID string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(campaignIDs))
	for _, id := range campaignIDs {
		if _, ok := r.records[snapshotKey(id, weekID)]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// Delete removes a stored snapshot. Used to simulate gaps in history.
func (r *SnapshotRepository) Delete(campaignID, weekID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, snapshotKey(campaignID, weekID))
}

type StatementRepository struct {
	mu      sync.RWMutex
	records map[string]domain.CommissionStatement
}

func (r *StatementRepository) Upsert(_ context.Context, statements []domain.CommissionStatement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range statements {
		r.records[st.AgentID+"|"+st.WeekID] = st
	}
	return nil
}

func (r *StatementRepository) Get(_ context.Context, agentID, weekID string) (domain.CommissionStatement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.records[agentID+"|"+weekID]
	if !ok {
		return domain.CommissionStatement{}, domain.ErrNotFound
	}
	return st, nil
}

func (r *StatementRepository) Latest(_ context.Context, agentID string) (domain.CommissionStatement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		latest domain.CommissionStatement
		found  bool
	)
	for _, st := range r.records {
		if st.AgentID != agentID {
			continue
		}
		if !found || st.WeekStart.After(latest.WeekStart) {
			latest, found = st, true
		}
	}
	if !found {
		return domain.CommissionStatement{}, domain.ErrNotFound
	}
	return latest, nil
}

type WeeklyRunRepository struct {
	mu      sync.RWMutex
	records map[string]domain.WeeklyRun
}

func (r *WeeklyRunRepository) Save(_ context.Context, run domain.WeeklyRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[run.WeekID] = run
	return nil
}

func (r *WeeklyRunRepository) LatestCompleted(_ context.Context) (*domain.WeeklyRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.WeeklyRun
	for _, run := range r.records {
		if run.Status != domain.WeeklyRunCompleted {
			continue
		}
		if latest == nil || run.WeekStart.After(latest.WeekStart) {
			copied := run
			latest = &copied
		}
	}
	return latest, nil
}

func (r *WeeklyRunRepository) Get(_ context.Context, weekID string) (domain.WeeklyRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.records[weekID]
	if !ok {
		return domain.WeeklyRun{}, domain.ErrNotFound
	}
	return run, nil
}

type IdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	if now.After(rec.ExpiresAt) {
		delete(r.records, key)
		return nil, nil
	}
	copied := rec
	copied.ResponseBody = slices.Clone(rec.ResponseBody)
	return &copied, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[key]; ok && existing.RequestHash != requestHash {
		return domain.ErrIdempotencyConflict
	}
	r.records[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.ResponseCode = responseCode
	rec.ResponseBody = slices.Clone(responseBody)
	r.records[key] = rec
	return nil
}

type dedupRecord struct {
	EventType string
	ExpiresAt time.Time
}

type EventDedupRepository struct {
	mu      sync.Mutex
	records map[string]dedupRecord
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[eventID]
	if !ok {
		return false, nil
	}
	if now.After(rec.ExpiresAt) {
		delete(r.records, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[eventID] = dedupRecord{EventType: eventType, ExpiresAt: expiresAt}
	return nil
}

type OutboxRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]ports.OutboxRecord
	order   []uuid.UUID
}

func (r *OutboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[event.EventID]; exists {
		return nil
	}
	r.records[event.EventID] = ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      slices.Clone(event.Payload),
		FirstSeenAt:  event.OccurredAt,
	}
	r.order = append(r.order, event.EventID)
	return nil
}

func (r *OutboxRepository) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, limit)
	for _, id := range r.order {
		if len(out) >= limit {
			break
		}
		rec := r.records[id]
		if rec.PublishedAt == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.PublishedAt = &at
	r.records[outboxID] = rec
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.RetryCount++
	rec.LastError = &errMsg
	rec.LastErrorAt = &at
	r.records[outboxID] = rec
	return nil
}

// Pending counts unpublished records.
func (r *OutboxRepository) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.PublishedAt == nil {
			n++
		}
	}
	return n
}

// EventTypes lists enqueued event types in order.
func (r *OutboxRepository) EventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id].EventType)
	}
	return out
}

var (
	_ ports.AgentRepository       = (*AgentRepository)(nil)
	_ ports.CampaignRepository    = (*CampaignRepository)(nil)
	_ ports.SaleRepository        = (*SaleRepository)(nil)
	_ ports.SnapshotRepository    = (*SnapshotRepository)(nil)
	_ ports.StatementRepository   = (*StatementRepository)(nil)
	_ ports.WeeklyRunRepository   = (*WeeklyRunRepository)(nil)
	_ ports.IdempotencyRepository = (*IdempotencyRepository)(nil)
	_ ports.EventDedupRepository  = (*EventDedupRepository)(nil)
	_ ports.OutboxRepository      = (*OutboxRepository)(nil)
)
