package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WeeklyRunsTotal     *prometheus.CounterVec
	WeeklyRunDuration   prometheus.Histogram
	CampaignsCreated    prometheus.Counter
	OutboxPublished     prometheus.Counter
	EventsConsumed      *prometheus.CounterVec
}

// New registers the engine collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commission_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commission_http_request_duration_seconds",
				Help:    "Histogram of HTTP response times",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		WeeklyRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commission_weekly_runs_total",
				Help: "Weekly recompute runs by outcome",
			},
			[]string{"outcome"},
		),
		WeeklyRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "commission_weekly_run_duration_seconds",
				Help:    "Duration of weekly recompute runs",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),
		CampaignsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "commission_campaigns_created_total",
				Help: "Campaigns opened by the weekly job",
			},
		),
		OutboxPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "commission_outbox_published_total",
				Help: "Outbox records delivered to the broker",
			},
		),
		EventsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commission_events_consumed_total",
				Help: "Consumed events by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
