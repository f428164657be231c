package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/service"
	"github.com/elmasnur/nurcombinator/internal/session"
)

func (h *Handler) handleFileReport(w http.ResponseWriter, r *http.Request) {
	var in service.ReportInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	rep, err := h.svc.FileReport(r.Context(), session.FromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (h *Handler) handleModerationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.ModerationStats(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	status := models.ReportStatus(r.URL.Query().Get("status"))
	reports, err := h.svc.Reports(r.Context(), session.FromContext(r.Context()), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) handleSetReportStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.ReportStatus `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.SetReportStatus(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"), in.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetTrustLevel(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TrustLevel int `json:"trust_level"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.SetTrustLevel(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"), in.TrustLevel); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetRole grants the role, or revokes it when grant is false.
func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role  models.UserRole `json:"role"`
		Grant bool            `json:"grant"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess := session.FromContext(r.Context())
	userID := chi.URLParam(r, "id")
	var err error
	if in.Grant {
		err = h.svc.GrantRole(r.Context(), sess, userID, in.Role)
	} else {
		err = h.svc.RevokeRole(r.Context(), sess, userID, in.Role)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
