package service

import (
	"context"

	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/session"
)

const maxTrustLevel = 3

func (s *Service) ModerationStats(ctx context.Context, sess *session.Session) (*models.ModerationStats, error) {
	if err := s.requirePrivileged(ctx, sess); err != nil {
		return nil, err
	}
	return s.repo.ModerationStats(ctx)
}

func (s *Service) SetTrustLevel(ctx context.Context, sess *session.Session, userID string, level int) error {
	if err := s.requirePrivileged(ctx, sess); err != nil {
		return err
	}
	if level < 0 || level > maxTrustLevel {
		return apperr.Invalid("Güven seviyesi 0 ile 3 arasında olmalı.")
	}
	if err := s.repo.SetTrustLevel(ctx, userID, level, s.now()); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Int("trust_level", level).Str("by", sess.UserID()).Msg("trust level set")
	return nil
}

// authorizeRoleChange lets moderators manage member and mentor roles and
// keeps moderator and admin in the hands of admins.
func (s *Service) authorizeRoleChange(ctx context.Context, sess *session.Session, role models.UserRole) error {
	if err := s.requirePrivileged(ctx, sess); err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.Invalid("Bilinmeyen rol.")
	}
	if role == models.UserRoleModerator || role == models.UserRoleAdmin {
		return s.access.IsAdmin(ctx, sess.UserID()).Err()
	}
	return nil
}

func (s *Service) GrantRole(ctx context.Context, sess *session.Session, userID string, role models.UserRole) error {
	if err := s.authorizeRoleChange(ctx, sess, role); err != nil {
		return err
	}
	if err := s.repo.GrantRole(ctx, userID, role); err != nil {
		if apperr.Is(err, apperr.ForeignKeyViolation) {
			return apperr.ErrNotFound
		}
		return err
	}
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Str("by", sess.UserID()).Msg("role granted")
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, sess *session.Session, userID string, role models.UserRole) error {
	if err := s.authorizeRoleChange(ctx, sess, role); err != nil {
		return err
	}
	if err := s.repo.RevokeRole(ctx, userID, role); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Str("by", sess.UserID()).Msg("role revoked")
	return nil
}
