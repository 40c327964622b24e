package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/http"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/memory"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/scheduler"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/security"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
	"google.golang.org/grpc"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	verifier   *security.JWTVerifier
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	health     *grpcadapter.HealthReporter
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	weekly     *scheduler.WeeklyWorker
	cleanupFn  func(context.Context)
}

type stores struct {
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
	probes      []func(context.Context) error
	closers     []io.Closer
}

func (s *stores) ready(ctx context.Context) error {
	for _, probe := range s.probes {
		if err := probe(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// openStores connects Postgres and Redis when configured and falls back to
// in-process stores otherwise.
func openStores(ctx context.Context, cfg Config, logger *slog.Logger) (*stores, error) {
	st := &stores{}
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, sqlDB)
		if err := postgres.RunMigrations(ctx, db); err != nil {
			st.close()
			return nil, err
		}
		repos := postgres.NewRepositories(db)
		st.agents, st.campaigns, st.sales = repos.Agents, repos.Campaigns, repos.Sales
		st.snapshots, st.statements, st.runs = repos.Snapshots, repos.Statements, repos.Runs
		st.idempotency, st.eventDedup, st.outbox = repos.Idempotency, repos.EventDedup, repos.Outbox
		st.probes = append(st.probes, sqlDB.PingContext)
	} else {
		logger.WarnContext(ctx, "postgres url not set, using in-memory repositories")
		repos := memory.NewRepositories()
		st.agents, st.campaigns, st.sales = repos.Agents, repos.Campaigns, repos.Sales
		st.snapshots, st.statements, st.runs = repos.Snapshots, repos.Statements, repos.Runs
		st.idempotency, st.eventDedup, st.outbox = repos.Idempotency, repos.EventDedup, repos.Outbox
	}

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, client)
		st.locker = cache.NewRedisLocker(client)
		st.cache = cache.NewRedisCache(client)
		st.probes = append(st.probes, func(ctx context.Context) error { return pingRedis(ctx, client) })
	} else {
		logger.WarnContext(ctx, "redis url not set, using in-memory lock and cache")
		mem := cache.NewMemoryStore()
		st.locker, st.cache = mem, mem
	}
	return st, nil
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

func newLogger(serviceID string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", serviceID)
	slog.SetDefault(logger)
	return logger
}

func newService(cfg Config, logger *slog.Logger, st *stores) (*application.Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:             cfg.ServiceID,
			Calendar:                domain.WeekCalendar{Location: loc, StartWeekday: cfg.WeekStartDay, StartHour: cfg.WeekStartHour},
			IdempotencyTTL:          cfg.IdempotencyTTL,
			EventDedupTTL:           cfg.EventDedupTTL,
			WeekLockTTL:             cfg.WeekLockTTL,
			SummaryCacheTTL:         cfg.SummaryCacheTTL,
			MaxCatchUpWeeks:         cfg.MaxCatchUpWeeks,
			EnableEventConsumption:  cfg.FeatureEventConsumption,
			EnableSnapshotEmission:  cfg.FeatureSnapshotEmission,
			EnableStatementEmission: cfg.FeatureStatementEmission,
		},
		Logger:      logger,
		Agents:      st.agents,
		Campaigns:   st.campaigns,
		Sales:       st.sales,
		Snapshots:   st.snapshots,
		Statements:  st.statements,
		Runs:        st.runs,
		Idempotency: st.idempotency,
		EventDedup:  st.eventDedup,
		Outbox:      st.outbox,
		Locker:      st.locker,
		Cache:       st.cache,
	}), nil
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.ServiceID)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	service, err := newService(cfg, logger, st)
	if err != nil {
		st.close()
		return nil, err
	}
	verifier, err := security.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		st.close()
		return nil, err
	}
	m := metrics.New()

	handler := httpadapter.NewHandler(service)
	router := httpadapter.NewRouter(handler, httpadapter.RouterOptions{
		Verifier:  verifier,
		Metrics:   m,
		Readiness: st.ready,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	health := grpcadapter.NewHealthReporter(logger, st.ready, cfg.HealthProbeInterval)
	health.Register(grpcServer)

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	consumerAdapter := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	closers := st.closers
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(logger, cfg.KafkaBrokers, map[string]string{
			domain.EventCampaignCreated:             cfg.KafkaTopicCampaignCreated,
			domain.EventCampaignSnapshotComputed:    cfg.KafkaTopicSnapshotComputed,
			domain.EventCommissionStatementComputed: cfg.KafkaTopicStatementComputed,
		})
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(
			logger,
			cfg.KafkaBrokers,
			cfg.KafkaConsumerGroup,
			[]string{cfg.KafkaTopicAgentUpserted, cfg.KafkaTopicSaleAttributed},
		)
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			closers = append(closers, kafkaConsumer)
		}
	}
	outbox := eventadapter.NewOutboxWorker(logger, st.outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize).WithMetrics(m)
	consumer := eventadapter.NewConsumerWorker(logger, consumerAdapter, service, cfg.ConsumerPollInterval).WithMetrics(m)
	weekly := scheduler.NewWeeklyWorker(logger, service, m, cfg.SchedulerInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		verifier:   verifier,
		httpServer: httpServer,
		grpcServer: grpcServer,
		health:     health,
		outbox:     outbox,
		consumer:   consumer,
		weekly:     weekly,
		cleanupFn: func(ctx context.Context) {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i].Close()
			}
		},
	}, nil
}

func (r *Runtime) Service() *application.Service {
	return r.service
}

func (r *Runtime) Verifier() *security.JWTVerifier {
	return r.verifier
}

func (r *Runtime) Close(ctx context.Context) {
	r.cleanupFn(ctx)
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanupFn(ctx)
		return err
	}
	r.grpcLis = lis
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	go func() { _ = r.health.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.health.Shutdown()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.cleanupFn(context.Background())
	errCh := make(chan error, 3)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.weekly.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// RecomputeOnce runs the weekly pass for the week holding at and drains the
// outbox once so emitted events leave with the run.
func (r *Runtime) RecomputeOnce(ctx context.Context, at time.Time) (domain.WeeklyRun, error) {
	run, err := r.service.RunWeeklyRecompute(ctx, at)
	if err != nil {
		return run, err
	}
	if _, err := r.outbox.ProcessOnce(ctx); err != nil {
		r.logger.WarnContext(ctx, "outbox drain failed", "module", "bootstrap", "layer", "runtime", "operation", "recompute_once", "outcome", "failure", "error", err)
	}
	return run, nil
}
