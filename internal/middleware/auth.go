package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/session"
)

const CookieName = "session"

// SessionStore is what Auth needs to turn a token into a user.
type SessionStore interface {
	GetSessionUser(ctx context.Context, token string, now time.Time) (string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Auth attaches a session to every request. The token is read from the
// session cookie or from an "Authorization: Bearer" header. Unknown, expired
// or failing tokens leave the request anonymous.
func Auth(store SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := session.Anonymous()
			ctx := req.Context()

			if token := Token(req); token != "" {
				userID, err := store.GetSessionUser(ctx, token, time.Now().UTC())
				if err != nil {
					hlog.FromRequest(req).Warn().Err(err).Msg("session lookup failed")
				}
				if err == nil && userID != "" {
					user, err := store.GetUser(ctx, userID)
					if err != nil {
						hlog.FromRequest(req).Warn().Err(err).Str("user_id", userID).Msg("session user lookup failed")
					} else {
						sess = session.New(token, user)
					}
				}
			}

			next.ServeHTTP(w, req.WithContext(session.NewContext(ctx, sess)))
		})
	}
}

// Token returns the session token of the request, preferring the cookie.
func Token(req *http.Request) string {
	if cookie, err := req.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := req.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// FromCookie reports whether the request authenticates with the session
// cookie rather than a bearer header.
func FromCookie(req *http.Request) bool {
	cookie, err := req.Cookie(CookieName)
	return err == nil && cookie.Value != ""
}
