package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/middleware"
	"github.com/elmasnur/nurcombinator/internal/notify"
	"github.com/elmasnur/nurcombinator/internal/repo"
	"github.com/elmasnur/nurcombinator/internal/service"
	"github.com/elmasnur/nurcombinator/internal/session"
)

const (
	maxBodyBytes = 1 << 20
	csrfHeader   = "X-CSRF-Token"
)

type Handler struct {
	svc          *service.Service
	sessions     middleware.SessionStore
	hub          *notify.Hub
	csrfSecret   string
	cookieDomain string
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

func New(svc *service.Service, sessions middleware.SessionStore, hub *notify.Hub, csrfSecret, cookieDomain string, log zerolog.Logger) *Handler {
	return &Handler{
		svc:          svc,
		sessions:     sessions,
		hub:          hub,
		csrfSecret:   csrfSecret,
		cookieDomain: cookieDomain,
		log:          log.With().Str("component", "http").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(h.log))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.MethodHandler("method"))
	r.Use(hlog.URLHandler("path"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.CleanPath)
	r.Use(middleware.Auth(h.sessions))

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.csrfMiddleware)

		r.Post("/auth/signup", h.handleSignUp)
		r.Post("/auth/signin", h.handleSignIn)
		r.Post("/auth/signout", h.handleSignOut)
		r.Post("/auth/verify", h.handleVerifyEmail)

		r.Get("/me", h.handleMe)
		r.Put("/me/profile", h.handleUpdateProfile)
		r.Get("/me/projects", h.handleMyProjects)
		r.Get("/me/applications", h.handleMyApplications)
		r.Get("/me/telegram-link", h.handleTelegramLink)
		r.Get("/profiles/{id}", h.handlePublicProfile)

		r.Get("/stages", h.handleStages)

		r.Get("/projects", h.handleExploreProjects)
		r.Post("/projects", h.handleCreateProject)
		r.Route("/projects/{slug}", func(r chi.Router) {
			r.Get("/", h.handleProjectProfile)
			r.Patch("/", h.handleUpdateProject)
			r.Get("/dashboard", h.handleDashboard)
			r.Post("/stage", h.handleAdvanceStage)
			r.Post("/needs/{needID}/toggle", h.handleToggleNeed)
			r.Get("/checkins", h.handleListCheckins)
			r.Post("/checkins", h.handleSubmitCheckin)
			r.Get("/applications", h.handleProjectApplications)
			r.Post("/calls", h.handleCreateOpenCall)
		})

		r.Get("/calls", h.handleExploreOpenCalls)
		r.Get("/calls/{id}", h.handleOpenCall)
		r.Post("/calls/{id}/status", h.handleSetOpenCallStatus)
		r.Post("/calls/{id}/apply", h.handleApply)
		r.Post("/applications/{id}/status", h.handleSetApplicationStatus)
		r.Post("/applications/{id}/withdraw", h.handleWithdrawApplication)

		r.Get("/notifications", h.handleNotifications)
		r.Get("/notifications/unread", h.handleUnreadCount)
		r.Get("/notifications/stream", h.handleNotificationStream)
		r.Post("/notifications/read-all", h.handleMarkAllRead)
		r.Post("/notifications/{id}/read", h.handleMarkRead)

		r.Post("/reports", h.handleFileReport)
		r.Route("/moderation", func(r chi.Router) {
			r.Get("/stats", h.handleModerationStats)
			r.Get("/reports", h.handleReports)
			r.Post("/reports/{id}/status", h.handleSetReportStatus)
			r.Post("/users/{id}/trust", h.handleSetTrustLevel)
			r.Post("/users/{id}/roles", h.handleSetRole)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// csrfMiddleware guards mutating requests of signed-in cookie sessions.
// Bearer-token clients and anonymous callers are not subject to it.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		sess := session.FromContext(r.Context())
		if sess.Authenticated() && middleware.FromCookie(r) && !h.validCSRF(r, sess.Token) {
			h.writeError(w, r, apperr.New(apperr.PermissionDenied, "Oturum doğrulaması başarısız. Sayfayı yenileyin."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) csrfToken(sessionToken string) string {
	if sessionToken == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(h.csrfSecret))
	mac.Write([]byte(sessionToken))
	return hex.EncodeToString(mac.Sum(nil))[:32]
}

func (h *Handler) validCSRF(r *http.Request, sessionToken string) bool {
	expected := h.csrfToken(sessionToken)
	if expected == "" {
		return false
	}
	return hmac.Equal([]byte(r.Header.Get(csrfHeader)), []byte(expected))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	cookie := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   int(repo.SessionTTL / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookieDomain != "" {
		cookie.Domain = h.cookieDomain
	}
	http.SetCookie(w, cookie)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	}
	if h.cookieDomain != "" {
		cookie.Domain = h.cookieDomain
	}
	http.SetCookie(w, cookie)
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.UniquenessViolation, apperr.InvalidState:
		return http.StatusConflict
	case apperr.PermissionDenied, apperr.PolicyError:
		return http.StatusForbidden
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.MissingRequiredField, apperr.MalformedInput, apperr.ForeignKeyViolation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err as the JSON error body. Only the classified
// message reaches the client; unclassified errors are logged in full.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	msg, ok := apperr.Message(err)
	if !ok {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	} else if kind == apperr.PolicyError {
		hlog.FromRequest(r).Warn().Err(err).Msg("policy error")
	}
	writeJSON(w, statusFor(kind), errorBody{Error: errorDetail{Kind: kind.String(), Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Missing("İstek gövdesi boş.")
		}
		return apperr.Wrap(apperr.MalformedInput, err)
	}
	return nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
