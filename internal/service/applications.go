package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/elmasnur/nurcombinator/internal/access"
	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/session"
)

type ApplicationInput struct {
	Message string   `json:"message"`
	Links   []string `json:"links"`
}

// reviewStatuses are the statuses a core member may move a submitted
// application to.
var reviewStatuses = map[models.ApplicationStatus]bool{
	models.ApplicationShortlisted: true,
	models.ApplicationAccepted:    true,
	models.ApplicationRejected:    true,
}

// applicationTransitionAllowed reports whether from -> to is an edge of the
// application workflow. Only submitted has outgoing edges.
func applicationTransitionAllowed(from, to models.ApplicationStatus) bool {
	if from != models.ApplicationSubmitted {
		return false
	}
	return reviewStatuses[to] || to == models.ApplicationWithdrawn
}

func (s *Service) cleanApplication(in ApplicationInput) (string, []string, error) {
	msg := strings.TrimSpace(in.Message)
	n := utf8.RuneCountInString(msg)
	if n == 0 && s.opts.MessageMin > 0 {
		return "", nil, apperr.Missing("Başvuru mesajı zorunludur.")
	}
	if n < s.opts.MessageMin {
		return "", nil, apperr.Invalid(fmt.Sprintf("Başvuru mesajı en az %d karakter olmalı.", s.opts.MessageMin))
	}
	if n > s.opts.MessageMax {
		return "", nil, apperr.Invalid(fmt.Sprintf("Başvuru mesajı en fazla %d karakter olabilir.", s.opts.MessageMax))
	}

	links := []string{}
	for _, l := range in.Links {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}
	if len(links) > maxApplicationLinks {
		return "", nil, apperr.Invalid(fmt.Sprintf("En fazla %d bağlantı ekleyebilirsiniz.", maxApplicationLinks))
	}
	for _, l := range links {
		if err := s.validate.Var(l, "url"); err != nil || !isWebURL(l) {
			return "", nil, apperr.Invalid("Bağlantılar geçerli bir http(s) adresi olmalı.")
		}
	}
	return msg, links, nil
}

// SubmitApplication applies the caller to an open call. Only calls with
// status open accept applications; apply_until is not enforced. Core
// members of the project are notified.
func (s *Service) SubmitApplication(ctx context.Context, sess *session.Session, callID string, in ApplicationInput) (*models.Application, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	c, err := s.repo.GetVisibleOpenCall(ctx, callID, viewer(sess))
	if err != nil {
		return nil, err
	}
	if c.Status != models.CallOpen {
		return nil, apperr.ErrCallNotOpen
	}
	p, err := s.repo.GetProject(ctx, c.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID == sess.UserID() {
		return nil, apperr.ErrOwnProject
	}

	applied, err := s.repo.HasApplied(ctx, callID, sess.UserID())
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, apperr.ErrAlreadyApplied
	}

	msg, links, err := s.cleanApplication(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &models.Application{
		ID:          newID(),
		OpenCallID:  callID,
		ApplicantID: sess.UserID(),
		Message:     msg,
		Links:       links,
		Status:      models.ApplicationSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateApplication(ctx, a); err != nil {
		if apperr.Is(err, apperr.UniquenessViolation) {
			return nil, apperr.ErrAlreadyApplied
		}
		return nil, err
	}

	applicantName := ""
	if sess.User.Profile != nil {
		applicantName = sess.User.Profile.DisplayName
	}
	recipients, err := s.repo.MemberIDsWithRoles(ctx, p.ID, models.MemberOwner, models.MemberCore)
	if err != nil {
		s.log.Warn().Err(err).Str("project_id", p.ID).Msg("list reviewers failed")
	}
	if !contains(recipients, p.OwnerID) {
		recipients = append(recipients, p.OwnerID)
	}
	for _, uid := range recipients {
		s.notify(ctx, uid, models.NotificationNewApplication, map[string]any{
			"application_id":  a.ID,
			"open_call_id":    c.ID,
			"open_call_title": c.Title,
			"project_slug":    p.Slug,
			"applicant_name":  applicantName,
		})
	}
	return a, nil
}

// SetApplicationStatus is the review action of a core member: shortlist,
// accept or reject a submitted application. Accepted applicants join the
// project. A withdrawn target is handed to WithdrawApplication.
func (s *Service) SetApplicationStatus(ctx context.Context, sess *session.Session, appID string, to models.ApplicationStatus) (*models.Application, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	if to == models.ApplicationWithdrawn {
		return s.WithdrawApplication(ctx, sess, appID)
	}
	if !reviewStatuses[to] {
		return nil, apperr.ErrInvalidTransition
	}

	a, err := s.repo.GetApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetOpenCall(ctx, a.OpenCallID)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, c.ProjectID, sess, access.Core); err != nil {
		return nil, err
	}
	if !applicationTransitionAllowed(a.Status, to) {
		return nil, apperr.ErrInvalidTransition
	}

	var ok bool
	if to == models.ApplicationAccepted {
		role := models.MemberVolunteer
		if c.CallType == models.CallTypeCore {
			role = models.MemberCore
		}
		ok, err = s.repo.AcceptApplication(ctx, appID, a.Status, c.ProjectID, a.ApplicantID, role, s.now())
	} else {
		ok, err = s.repo.TransitionApplication(ctx, appID, a.Status, to, s.now())
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidTransition
	}

	s.notify(ctx, a.ApplicantID, models.NotificationApplicationStatus, map[string]any{
		"application_id":  a.ID,
		"open_call_title": c.Title,
		"status":          string(to),
	})
	s.log.Info().Str("application_id", appID).Str("status", string(to)).Msg("application reviewed")
	return s.repo.GetApplication(ctx, appID)
}

// WithdrawApplication lets the applicant pull back a submitted application.
func (s *Service) WithdrawApplication(ctx context.Context, sess *session.Session, appID string) (*models.Application, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	a, err := s.repo.GetApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !access.IsApplicant(a, sess.UserID()) {
		return nil, apperr.ErrForbidden
	}
	if !applicationTransitionAllowed(a.Status, models.ApplicationWithdrawn) {
		return nil, apperr.ErrInvalidTransition
	}
	ok, err := s.repo.TransitionApplication(ctx, appID, a.Status, models.ApplicationWithdrawn, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidTransition
	}
	return s.repo.GetApplication(ctx, appID)
}

func (s *Service) MyApplications(ctx context.Context, sess *session.Session) ([]models.Application, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	return s.repo.ListApplicantApplications(ctx, sess.UserID())
}

// ProjectApplications lists every application across the project's calls
// with the applicants' public profile fields.
func (s *Service) ProjectApplications(ctx context.Context, sess *session.Session, projectID string) ([]models.Application, error) {
	if err := s.require(ctx, projectID, sess, access.Core); err != nil {
		return nil, err
	}
	return s.repo.ListProjectApplications(ctx, projectID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
