package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/service"
	"github.com/elmasnur/nurcombinator/internal/session"
)

type signUpResponse struct {
	*service.SignUpResult
	CSRFToken string `json:"csrf_token,omitempty"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in service.SignUpInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.SignUp(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.SessionToken != "" {
		h.setSessionCookie(w, r, res.SessionToken)
	}
	writeJSON(w, http.StatusCreated, signUpResponse{SignUpResult: res, CSRFToken: h.csrfToken(res.SessionToken)})
}

type tokenResponse struct {
	Token     string `json:"token"`
	CSRFToken string `json:"csrf_token"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in service.SignInInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.svc.SignIn(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, CSRFToken: h.csrfToken(token)})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), session.FromContext(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.VerifyEmail(r.Context(), in.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User        *models.User `json:"user"`
	UnreadCount int          `json:"unread_count"`
	CSRFToken   string       `json:"csrf_token"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	u, err := h.svc.Me(r.Context(), sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	unread, err := h.svc.UnreadCount(r.Context(), sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: u, UnreadCount: unread, CSRFToken: h.csrfToken(sess.Token)})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), session.FromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.PublicProfile(r.Context(), session.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleTelegramLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.TelegramLink(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *Handler) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.MyApplications(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}
