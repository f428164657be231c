package service

import (
	"context"

	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/session"
)

// notify stores a notification and hands it to the notifier. Failures are
// logged and do not fail the action that caused them.
func (s *Service) notify(ctx context.Context, userID, typ string, payload map[string]any) {
	n := models.Notification{
		ID:        newID(),
		UserID:    userID,
		Type:      typ,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateNotification(ctx, &n); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("type", typ).Msg("create notification failed")
		return
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

func (s *Service) Notifications(ctx context.Context, sess *session.Session) ([]models.Notification, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	return s.repo.ListNotifications(ctx, sess.UserID(), notificationListLimit)
}

func (s *Service) UnreadCount(ctx context.Context, sess *session.Session) (int, error) {
	if err := requireAuth(sess); err != nil {
		return 0, err
	}
	return s.repo.UnreadNotificationCount(ctx, sess.UserID())
}

// MarkNotificationRead marks one of the caller's notifications read. It is
// idempotent, and ids of other users' notifications change nothing.
func (s *Service) MarkNotificationRead(ctx context.Context, sess *session.Session, id string) error {
	if err := requireAuth(sess); err != nil {
		return err
	}
	_, err := s.repo.MarkNotificationRead(ctx, id, sess.UserID(), s.now())
	return err
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, sess *session.Session) error {
	if err := requireAuth(sess); err != nil {
		return err
	}
	_, err := s.repo.MarkNotificationsRead(ctx, sess.UserID(), s.now())
	return err
}
