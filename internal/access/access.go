// Package access decides what a caller may do with a project.
//
// Every check fails closed: a lookup error, a missing row or an anonymous
// caller never yields more than NonMember, and Unknown decisions are treated
// as Forbidden.
package access

import (
	"context"

	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/session"
)

// Level is a caller's standing in a project. Levels are ordered.
type Level int

const (
	NonMember Level = iota
	Member
	Core
	Owner
)

var levelNames = map[Level]string{
	NonMember: "non_member",
	Member:    "member",
	Core:      "core",
	Owner:     "owner",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "non_member"
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l Level) AtLeast(min Level) bool { return l >= min }

// LevelForRole maps a membership role to a level.
func LevelForRole(role models.MemberRole) Level {
	switch role {
	case models.MemberOwner:
		return Owner
	case models.MemberCore:
		return Core
	case models.MemberVolunteer, models.MemberEditor, models.MemberModerator:
		return Member
	}
	return NonMember
}

type Decision int

const (
	Unknown Decision = iota
	Authorized
	Forbidden
)

func (d Decision) Allowed() bool { return d == Authorized }

// Err returns nil for Authorized and the matching error otherwise.
func (d Decision) Err() error {
	if d == Authorized {
		return nil
	}
	return apperr.ErrForbidden
}

// Store is the data access needs.
type Store interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	MemberRole(ctx context.Context, projectID, userID string) (models.MemberRole, bool, error)
	UserRoles(ctx context.Context, userID string) ([]models.UserRole, error)
}

type Resolver struct {
	store Store
}

func New(store Store) *Resolver {
	return &Resolver{store: store}
}

// ProjectLevel resolves userID's level in the project. The project owner is
// Owner even without a membership row.
func (r *Resolver) ProjectLevel(ctx context.Context, projectID, userID string) (Level, error) {
	if userID == "" {
		return NonMember, nil
	}
	p, err := r.store.GetProject(ctx, projectID)
	if err != nil {
		return NonMember, err
	}
	if p.OwnerID == userID {
		return Owner, nil
	}
	role, ok, err := r.store.MemberRole(ctx, projectID, userID)
	if err != nil || !ok {
		return NonMember, err
	}
	return LevelForRole(role), nil
}

// Level resolves the session's level in the project, caching it on the
// session for the rest of the request. Errors resolve to NonMember.
func (r *Resolver) Level(ctx context.Context, projectID string, s *session.Session) Level {
	if !s.Authenticated() {
		return NonMember
	}
	if l, ok := s.CachedLevel(projectID); ok {
		return Level(l)
	}
	l, err := r.ProjectLevel(ctx, projectID, s.UserID())
	if err != nil {
		return NonMember
	}
	s.CacheLevel(projectID, int(l))
	return l
}

// Require decides whether the session holds at least min in the project.
func (r *Resolver) Require(ctx context.Context, projectID string, s *session.Session, min Level) Decision {
	if !s.Authenticated() {
		return Forbidden
	}
	if r.Level(ctx, projectID, s).AtLeast(min) {
		return Authorized
	}
	return Forbidden
}

// Privileged decides whether userID holds the admin or moderator platform
// role. The roles are read from the store, not from the session.
func (r *Resolver) Privileged(ctx context.Context, userID string) Decision {
	if userID == "" {
		return Forbidden
	}
	roles, err := r.store.UserRoles(ctx, userID)
	if err != nil {
		return Forbidden
	}
	for _, role := range roles {
		if role == models.UserRoleAdmin || role == models.UserRoleModerator {
			return Authorized
		}
	}
	return Forbidden
}

// IsAdmin is like Privileged but accepts the admin role only.
func (r *Resolver) IsAdmin(ctx context.Context, userID string) Decision {
	if userID == "" {
		return Forbidden
	}
	roles, err := r.store.UserRoles(ctx, userID)
	if err != nil {
		return Forbidden
	}
	for _, role := range roles {
		if role == models.UserRoleAdmin {
			return Authorized
		}
	}
	return Forbidden
}

func IsApplicant(app *models.Application, userID string) bool {
	return app != nil && userID != "" && app.ApplicantID == userID
}
