package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return false
	}
	return true
}

func parseTimestamp(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return t.UTC(), nil
}

func (h *Handler) evaluateEligibility(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.EvaluateEligibility(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "agent_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) calculateCommissions(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.CalculateCommissions(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "agent_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) getLatestStatement(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetLatestStatement(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "agent_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) getStatement(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetStatement(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "agent_id"), chi.URLParam(r, "week_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) getAgentSummary(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetAgentSummary(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "agent_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) calculateBudget(w http.ResponseWriter, r *http.Request) {
	var req contracts.CalculateBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.CalculateBudget(r.Context(), actorFromContext(r.Context()), application.BudgetInput{
		WeekIndex: req.WeekIndex, TotalSales: req.TotalSales, OverflowIn: req.OverflowIn,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if ownerID == "" {
		ownerID = actor.SubjectID
	}
	out, err := h.service.ListCampaigns(r.Context(), actor, ownerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.CampaignListResponse{OwnerID: ownerID, Campaigns: out})
}

func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetCampaign(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "campaign_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) listSnapshots(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListSnapshots(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "campaign_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) addParticipant(w http.ResponseWriter, r *http.Request) {
	var req contracts.AddParticipantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.AddParticipant(r.Context(), actorFromContext(r.Context()), application.AddParticipantInput{
		CampaignID: chi.URLParam(r, "campaign_id"), AgentID: strings.TrimSpace(req.AgentID),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "participant added", out)
}

func (h *Handler) removeParticipant(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.RemoveParticipant(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "campaign_id"), chi.URLParam(r, "agent_id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "participant removed", out)
}

func (h *Handler) setCampaignStatus(w http.ResponseWriter, r *http.Request) {
	var req contracts.SetCampaignStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.SetCampaignStatus(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "campaign_id"), req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", out)
}

func (h *Handler) attributeSale(w http.ResponseWriter, r *http.Request) {
	var req contracts.AttributeSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	installedAt, err := parseTimestamp(req.InstalledAt, "installed_at")
	if err == nil && installedAt.IsZero() {
		err = fmt.Errorf("%w: installed_at is required", domain.ErrValidation)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	campaignID := chi.URLParam(r, "campaign_id")
	out, err := h.service.AttributeSale(r.Context(), actorFromContext(r.Context()), application.AttributeSaleInput{
		SaleID: req.SaleID, CampaignID: campaignID, AgentID: req.AgentID, Amount: req.Amount, InstalledAt: installedAt,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if out.Recorded {
		status = http.StatusCreated
	}
	writeSuccess(w, status, "", contracts.AttributeSaleResponse{SaleID: out.Sale.SaleID, CampaignID: out.Sale.CampaignID, Recorded: out.Recorded})
}

func (h *Handler) triggerRecompute(w http.ResponseWriter, r *http.Request) {
	var req contracts.RecomputeRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	at, err := parseTimestamp(req.At, "at")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	run, err := h.service.TriggerRecompute(r.Context(), actorFromContext(r.Context()), strings.TrimSpace(req.WeekID), at)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, string(run.Status), run)
}
