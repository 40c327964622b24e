package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/ports"
)

// ReadinessCheck reports whether backing stores are reachable.
type ReadinessCheck func(ctx context.Context) error

type RouterOptions struct {
	Verifier  ports.TokenVerifier
	Metrics   *metrics.Metrics
	Readiness ReadinessCheck
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Readiness(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error(), requestIDFromContext(r.Context()))
				return
			}
		}
		writeSuccess(w, http.StatusOK, "ready", nil)
	})
	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware(opts.Verifier))
		r.Route("/agents/{agent_id}", func(r chi.Router) {
			r.Get("/eligibility", handler.evaluateEligibility)
			r.Get("/commissions", handler.calculateCommissions)
			r.Get("/statements/latest", handler.getLatestStatement)
			r.Get("/statements/{week_id}", handler.getStatement)
			r.Get("/summary", handler.getAgentSummary)
		})
		r.Post("/budgets/calculate", handler.calculateBudget)
		r.Get("/campaigns", handler.listCampaigns)
		r.Route("/campaigns/{campaign_id}", func(r chi.Router) {
			r.Get("/", handler.getCampaign)
			r.Get("/snapshots", handler.listSnapshots)
			r.Post("/participants", handler.addParticipant)
			r.Delete("/participants/{agent_id}", handler.removeParticipant)
			r.Put("/status", handler.setCampaignStatus)
			r.Post("/sales", handler.attributeSale)
		})
		r.Post("/admin/recompute", handler.triggerRecompute)
	})
	return r
}
