package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthReporterFollowsProbe(t *testing.T) {
	t.Parallel()
	var failing atomic.Bool
	reporter := NewHealthReporter(slog.New(slog.NewTextHandler(io.Discard, nil)), func(context.Context) error {
		if failing.Load() {
			return errors.New("postgres unreachable")
		}
		return nil
	}, 0)
	ctx := context.Background()

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := reporter.Server().Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		return resp.GetStatus()
	}

	if got := reporter.CheckOnce(ctx); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", got)
	}
	failing.Store(true)
	reporter.CheckOnce(ctx)
	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v, want NOT_SERVING", got)
	}
	failing.Store(false)
	reporter.CheckOnce(ctx)
	if got := check(); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING after recovery", got)
	}
}
