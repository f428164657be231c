package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/session"
)

type ReportInput struct {
	TargetType models.ReportTargetType `json:"target_type" validate:"required,known"`
	TargetID   string                  `json:"target_id" validate:"required,max=100"`
	Reason     string                  `json:"reason" validate:"required"`
}

// FileReport records a report by the caller. Repeated reports of the same
// target are allowed.
func (s *Service) FileReport(ctx context.Context, sess *session.Session, in ReportInput) (*models.Report, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	in.TargetID = strings.TrimSpace(in.TargetID)
	in.Reason = strings.TrimSpace(in.Reason)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Reason) > maxReportReasonRunes {
		return nil, apperr.Invalid(fmt.Sprintf("Gerekçe en fazla %d karakter olabilir.", maxReportReasonRunes))
	}

	now := s.now()
	r := &models.Report{
		ID:         newID(),
		ReporterID: sess.UserID(),
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		Reason:     in.Reason,
		Status:     models.ReportOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateReport(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info().Str("report_id", r.ID).Str("target_type", string(r.TargetType)).Msg("report filed")
	return r, nil
}

// Reports lists reports for moderators. Other callers are refused rather
// than shown an empty list.
func (s *Service) Reports(ctx context.Context, sess *session.Session, status models.ReportStatus) ([]models.Report, error) {
	if err := s.requirePrivileged(ctx, sess); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Invalid("Bilinmeyen şikâyet durumu.")
	}
	return s.repo.ListReports(ctx, status, reportListLimit)
}

// SetReportStatus moves a report to any of the report statuses.
func (s *Service) SetReportStatus(ctx context.Context, sess *session.Session, id string, status models.ReportStatus) error {
	if err := s.requirePrivileged(ctx, sess); err != nil {
		return err
	}
	if !status.Valid() {
		return apperr.Invalid("Bilinmeyen şikâyet durumu.")
	}
	return s.repo.SetReportStatus(ctx, id, status, s.now())
}
