package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service key reported alongside the overall status.
const ServiceName = "commission.v1.Engine"

type Probe func(ctx context.Context) error

// HealthReporter keeps the gRPC health status in line with store reachability.
type HealthReporter struct {
	server   *health.Server
	probe    Probe
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthReporter(logger *slog.Logger, probe Probe, interval time.Duration) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return &HealthReporter{server: srv, probe: probe, interval: interval, logger: logger}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// CheckOnce runs the probe and updates the serving status.
func (h *HealthReporter) CheckOnce(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.probe != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.probe(probeCtx)
		cancel()
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			h.logger.WarnContext(ctx, "health probe failed",
				"module", "grpc.health",
				"layer", "adapter",
				"operation", "probe",
				"outcome", "failure",
				"error", err,
			)
		}
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

func (h *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		h.CheckOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Shutdown reports NOT_SERVING to every watcher before the server stops.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}

func (h *HealthReporter) Server() healthpb.HealthServer {
	return h.server
}
