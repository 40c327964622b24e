package application

import (
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
)

type Config struct {
	ServiceName             string
	Calendar                domain.WeekCalendar
	IdempotencyTTL          time.Duration
	EventDedupTTL           time.Duration
	WeekLockTTL             time.Duration
	SummaryCacheTTL         time.Duration
	MaxCatchUpWeeks         int
	EnableEventConsumption  bool
	EnableSnapshotEmission  bool
	EnableStatementEmission bool
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

const (
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Service struct {
	cfg         Config
	logger      *slog.Logger
	agents      ports.AgentRepository
	campaigns   ports.CampaignRepository
	sales       ports.SaleRepository
	snapshots   ports.SnapshotRepository
	statements  ports.StatementRepository
	runs        ports.WeeklyRunRepository
	idempotency ports.IdempotencyRepository
	eventDedup  ports.EventDedupRepository
	outbox      ports.OutboxRepository
	locker      ports.WeekLocker
	cache       ports.Cache
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Logger      *slog.Logger
	Agents      ports.AgentRepository
	Campaigns   ports.CampaignRepository
	Sales       ports.SaleRepository
	Snapshots   ports.SnapshotRepository
	Statements  ports.StatementRepository
	Runs        ports.WeeklyRunRepository
	Idempotency ports.IdempotencyRepository
	EventDedup  ports.EventDedupRepository
	Outbox      ports.OutboxRepository
	Locker      ports.WeekLocker
	Cache       ports.Cache
	Clock       func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M42-Commission-Engine"
	}
	if cfg.Calendar.Location == nil {
		cfg.Calendar = domain.DefaultWeekCalendar(time.UTC)
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.WeekLockTTL <= 0 {
		cfg.WeekLockTTL = 15 * time.Minute
	}
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = 5 * time.Minute
	}
	if cfg.MaxCatchUpWeeks <= 0 {
		cfg.MaxCatchUpWeeks = 8
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		cfg:         cfg,
		logger:      logger,
		agents:      deps.Agents,
		campaigns:   deps.Campaigns,
		sales:       deps.Sales,
		snapshots:   deps.Snapshots,
		statements:  deps.Statements,
		runs:        deps.Runs,
		idempotency: deps.Idempotency,
		eventDedup:  deps.EventDedup,
		outbox:      deps.Outbox,
		locker:      deps.Locker,
		cache:       deps.Cache,
		nowFn:       nowFn,
	}
}

func (s *Service) Calendar() domain.WeekCalendar {
	return s.cfg.Calendar
}

// BudgetInput is a standalone budget calculation request.
type BudgetInput struct {
	WeekIndex  int
	TotalSales float64
	OverflowIn float64
}

type AddParticipantInput struct {
	CampaignID string
	AgentID    string
}

type AttributeSaleInput struct {
	SaleID      string
	CampaignID  string
	AgentID     string
	Amount      float64
	InstalledAt time.Time
}

type AttributeSaleResult struct {
	Sale     domain.Sale `json:"sale"`
	Recorded bool        `json:"recorded"`
}

// AgentSummary is the dashboard view of one agent.
type AgentSummary struct {
	Agent           domain.Agent                `json:"agent"`
	Eligibility     domain.Eligibility          `json:"eligibility"`
	DownlineCounts  map[string]int              `json:"downline_counts"`
	LatestStatement *domain.CommissionStatement `json:"latest_statement,omitempty"`
	Campaigns       []domain.Campaign           `json:"campaigns"`
}
