package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

type CatchUpRunner interface {
	CatchUp(ctx context.Context, now time.Time) ([]domain.WeeklyRun, error)
}

// WeeklyWorker polls the weekly job. Each tick finalizes every week that has
// closed since the last completed run, so a restart picks up missed weeks.
type WeeklyWorker struct {
	logger   *slog.Logger
	runner   CatchUpRunner
	metrics  *metrics.Metrics
	interval time.Duration
	nowFn    func() time.Time
}

func NewWeeklyWorker(logger *slog.Logger, runner CatchUpRunner, m *metrics.Metrics, interval time.Duration) *WeeklyWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &WeeklyWorker{
		logger:   logger,
		runner:   runner,
		metrics:  m,
		interval: interval,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

func (w *WeeklyWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			level := slog.LevelError
			outcome := "failure"
			if errors.Is(err, domain.ErrWeekLocked) {
				level, outcome = slog.LevelInfo, "skipped"
			}
			w.logger.Log(ctx, level, "weekly tick finished",
				"module", "scheduler.weekly_worker",
				"layer", "adapter",
				"operation", "run_once",
				"outcome", outcome,
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *WeeklyWorker) RunOnce(ctx context.Context) error {
	started := time.Now()
	runs, err := w.runner.CatchUp(ctx, w.nowFn())
	if w.metrics != nil {
		for _, run := range runs {
			if run.WeekID == "" {
				continue
			}
			w.metrics.WeeklyRunsTotal.WithLabelValues(string(run.Status)).Inc()
			w.metrics.CampaignsCreated.Add(float64(run.CampaignsCreated))
		}
		if errors.Is(err, domain.ErrWeekLocked) {
			w.metrics.WeeklyRunsTotal.WithLabelValues("locked").Inc()
		}
		if len(runs) > 0 {
			w.metrics.WeeklyRunDuration.Observe(time.Since(started).Seconds())
		}
	}
	return err
}
