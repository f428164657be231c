package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/service"
	"github.com/elmasnur/nurcombinator/internal/session"
)

func (h *Handler) handleStages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.svc.Stages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

func (h *Handler) handleExploreProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.ExploreProjects(r.Context(), session.FromContext(r.Context()), service.ProjectQuery{
		Search:   q.Get("q"),
		Stage:    models.StageKey(q.Get("stage")),
		Type:     models.ProjectType(q.Get("type")),
		Tag:      q.Get("tag"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in service.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.CreateProject(r.Context(), session.FromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleMyProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.MyProjects(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// projectID resolves the {slug} of the route to the id of a project the
// caller may see.
func (h *Handler) projectID(r *http.Request) (string, error) {
	p, err := h.svc.ProjectBySlug(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (h *Handler) handleProjectProfile(w http.ResponseWriter, r *http.Request) {
	pp, err := h.svc.ProjectProfile(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pp)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in service.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), session.FromContext(r.Context()), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.svc.Dashboard(r.Context(), session.FromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleAdvanceStage(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in struct {
		Stage models.StageKey `json:"stage"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.AdvanceStage(r.Context(), session.FromContext(r.Context()), id, in.Stage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleToggleNeed(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	selected, err := h.svc.ToggleNeed(r.Context(), session.FromContext(r.Context()), id, chi.URLParam(r, "needID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"selected": selected})
}

func (h *Handler) handleListCheckins(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	checkins, err := h.svc.ListCheckins(r.Context(), session.FromContext(r.Context()), id, queryInt(r, "limit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkins)
}

func (h *Handler) handleSubmitCheckin(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in service.CheckinInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.SubmitCheckin(r.Context(), session.FromContext(r.Context()), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleProjectApplications(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	apps, err := h.svc.ProjectApplications(r.Context(), session.FromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) handleCreateOpenCall(w http.ResponseWriter, r *http.Request) {
	id, err := h.projectID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in service.OpenCallInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.CreateOpenCall(r.Context(), session.FromContext(r.Context()), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleExploreOpenCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.ExploreOpenCalls(r.Context(), session.FromContext(r.Context()), service.OpenCallQuery{
		Search:       q.Get("q"),
		CallType:     models.CallType(q.Get("call_type")),
		LocationMode: models.LocationMode(q.Get("location_mode")),
		Tag:          q.Get("tag"),
		Page:         queryInt(r, "page"),
		PageSize:     queryInt(r, "page_size"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleOpenCall(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.OpenCall(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleSetOpenCallStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.CallStatus `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.SetOpenCallStatus(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	var in service.ApplicationInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.SubmitApplication(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleSetApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.ApplicationStatus `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	a, err := h.svc.SetApplicationStatus(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.WithdrawApplication(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
