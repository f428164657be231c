// Package session carries the identity of the caller through a request.
//
// A Session starts anonymous, is filled in by the auth middleware, and is
// reset to anonymous on sign-out. Authorization levels resolved during the
// request are cached on it and dropped together with the identity.
package session

import (
	"context"
	"sync"

	"github.com/elmasnur/nurcombinator/internal/models"
)

type Session struct {
	Token string
	User  *models.User

	mu     sync.Mutex
	levels map[string]int
}

func Anonymous() *Session {
	return &Session{}
}

// New returns a session for an authenticated user.
func New(token string, user *models.User) *Session {
	return &Session{Token: token, User: user}
}

func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

func (s *Session) UserID() string {
	if !s.Authenticated() {
		return ""
	}
	return s.User.ID
}

func (s *Session) HasRole(roles ...models.UserRole) bool {
	if !s.Authenticated() {
		return false
	}
	for _, have := range s.User.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Verified reports whether the user may see verified_only content: trust
// level 1 or higher, or a moderator/admin role.
func (s *Session) Verified() bool {
	if !s.Authenticated() {
		return false
	}
	if s.User.Profile != nil && s.User.Profile.TrustLevel >= 1 {
		return true
	}
	return s.HasRole(models.UserRoleModerator, models.UserRoleAdmin)
}

// Reset turns s back into an anonymous session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = ""
	s.User = nil
	s.levels = nil
}

// CachedLevel returns a project access level stored earlier in the request.
func (s *Session) CachedLevel(projectID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.levels[projectID]
	return l, ok
}

func (s *Session) CacheLevel(projectID string, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.levels == nil {
		s.levels = make(map[string]int)
	}
	s.levels[projectID] = level
}

// Forget drops the cached level of one project, e.g. after its membership
// changed.
func (s *Session) Forget(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.levels, projectID)
}

type contextKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or an anonymous one when the
// middleware did not run.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return Anonymous()
}
