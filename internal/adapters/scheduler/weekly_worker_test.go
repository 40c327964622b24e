package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

type fakeRunner struct {
	runs []domain.WeeklyRun
	err  error
	seen []time.Time
}

func (f *fakeRunner) CatchUp(_ context.Context, now time.Time) ([]domain.WeeklyRun, error) {
	f.seen = append(f.seen, now)
	return f.runs, f.err
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestRunOnceRecordsRuns(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	runner := &fakeRunner{runs: []domain.WeeklyRun{
		{WeekID: "2025-01-01", Status: domain.WeeklyRunCompleted, CampaignsCreated: 2},
		{WeekID: "2025-01-08", Status: domain.WeeklyRunCompleted, CampaignsCreated: 1},
	}}
	w := NewWeeklyWorker(slog.New(slog.NewTextHandler(io.Discard, nil)), runner, m, time.Minute)
	fixed := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	w.nowFn = func() time.Time { return fixed }

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(runner.seen) != 1 || !runner.seen[0].Equal(fixed) {
		t.Fatalf("runner called with %v", runner.seen)
	}
	body := scrape(t, m)
	for _, want := range []string{
		`commission_weekly_runs_total{outcome="completed"} 2`,
		`commission_campaigns_created_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in exposition", want)
		}
	}
}

func TestRunOnceReportsLockedWeek(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	runner := &fakeRunner{runs: []domain.WeeklyRun{{}}, err: fmt.Errorf("week 2025-01-08: %w", domain.ErrWeekLocked)}
	w := NewWeeklyWorker(slog.New(slog.NewTextHandler(io.Discard, nil)), runner, m, time.Minute)

	err := w.RunOnce(context.Background())
	if !errors.Is(err, domain.ErrWeekLocked) {
		t.Fatalf("err = %v, want week locked", err)
	}
	if !strings.Contains(scrape(t, m), `commission_weekly_runs_total{outcome="locked"} 1`) {
		t.Fatalf("locked outcome not counted")
	}
}
