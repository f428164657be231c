package service

import (
	"context"
	"strings"
	"time"

	"github.com/elmasnur/nurcombinator/internal/access"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/session"
)

// WeekStart returns the Monday of t's week in UTC as YYYY-MM-DD.
func WeekStart(t time.Time) string {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format("2006-01-02")
}

type CheckinInput struct {
	MainMetricName  string `json:"main_metric_name" validate:"max=120"`
	MainMetricValue string `json:"main_metric_value" validate:"max=120"`
	DeliverableLink string `json:"deliverable_link" validate:"omitempty,max=500,weblink"`
	Blocker         string `json:"blocker" validate:"max=2000"`
	HelpRequest     string `json:"help_request" validate:"max=2000"`
}

// SubmitCheckin stores this week's check-in. A second submission in the same
// week replaces every field of the first.
func (s *Service) SubmitCheckin(ctx context.Context, sess *session.Session, projectID string, in CheckinInput) (*models.Checkin, error) {
	if err := s.require(ctx, projectID, sess, access.Member); err != nil {
		return nil, err
	}
	in.MainMetricName = strings.TrimSpace(in.MainMetricName)
	in.MainMetricValue = strings.TrimSpace(in.MainMetricValue)
	in.DeliverableLink = strings.TrimSpace(in.DeliverableLink)
	in.Blocker = strings.TrimSpace(in.Blocker)
	in.HelpRequest = strings.TrimSpace(in.HelpRequest)
	if err := s.check(in); err != nil {
		return nil, err
	}

	now := s.now()
	return s.repo.UpsertCheckin(ctx, &models.Checkin{
		ID:              newID(),
		ProjectID:       projectID,
		UserID:          sess.UserID(),
		WeekStart:       WeekStart(now),
		MainMetricName:  in.MainMetricName,
		MainMetricValue: in.MainMetricValue,
		DeliverableLink: in.DeliverableLink,
		Blocker:         in.Blocker,
		HelpRequest:     in.HelpRequest,
		CreatedAt:       now,
	})
}

func (s *Service) ListCheckins(ctx context.Context, sess *session.Session, projectID string, limit int) ([]models.Checkin, error) {
	if err := s.require(ctx, projectID, sess, access.Member); err != nil {
		return nil, err
	}
	return s.repo.ListCheckins(ctx, projectID, limit)
}
