package service

import (
	"context"
	"strings"
	"time"

	"github.com/elmasnur/nurcombinator/internal/access"
	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/repo"
	"github.com/elmasnur/nurcombinator/internal/session"
)

type OpenCallInput struct {
	Title        string              `json:"title" validate:"required,max=160"`
	Description  string              `json:"description" validate:"max=5000"`
	Commitment   string              `json:"commitment" validate:"max=300"`
	CallType     models.CallType     `json:"call_type" validate:"omitempty,known"`
	LocationMode models.LocationMode `json:"location_mode" validate:"omitempty,known"`
	Visibility   models.Visibility   `json:"visibility" validate:"omitempty,known"`
	ApplyUntil   *time.Time          `json:"apply_until"`
	Tags         []string            `json:"tags" validate:"max=10,dive,max=40"`
}

// CreateOpenCall posts a new call on the project. It starts open.
func (s *Service) CreateOpenCall(ctx context.Context, sess *session.Session, projectID string, in OpenCallInput) (*models.OpenCall, error) {
	if err := s.require(ctx, projectID, sess, access.Core); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Commitment = strings.TrimSpace(in.Commitment)
	in.Tags = normalizeTags(in.Tags)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.CallType == "" {
		in.CallType = models.CallTypeVolunteer
	}
	if in.LocationMode == "" {
		in.LocationMode = models.LocationRemote
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}

	now := s.now()
	c := &models.OpenCall{
		ID:           newID(),
		ProjectID:    projectID,
		CreatedBy:    sess.UserID(),
		Title:        in.Title,
		Description:  in.Description,
		Commitment:   in.Commitment,
		CallType:     in.CallType,
		LocationMode: in.LocationMode,
		Visibility:   in.Visibility,
		Status:       models.CallOpen,
		Tags:         in.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.ApplyUntil != nil {
		t := in.ApplyUntil.UTC()
		c.ApplyUntil = &t
	}
	if err := s.repo.CreateOpenCall(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info().Str("open_call_id", c.ID).Str("project_id", projectID).Msg("open call created")
	return c, nil
}

// callStatusAllowed encodes open <-> paused and anything -> closed. Closed
// is terminal.
func callStatusAllowed(from, to models.CallStatus) bool {
	if from == models.CallClosed {
		return false
	}
	switch to {
	case models.CallClosed:
		return true
	case models.CallOpen:
		return from == models.CallPaused
	case models.CallPaused:
		return from == models.CallOpen
	}
	return false
}

// SetOpenCallStatus changes the status of a call. Repeating the current
// status is a no-op.
func (s *Service) SetOpenCallStatus(ctx context.Context, sess *session.Session, callID string, to models.CallStatus) (*models.OpenCall, error) {
	if !to.Valid() {
		return nil, apperr.Invalid("Bilinmeyen çağrı durumu.")
	}
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	c, err := s.repo.GetVisibleOpenCall(ctx, callID, viewer(sess))
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, c.ProjectID, sess, access.Core); err != nil {
		return nil, err
	}
	if c.Status == to {
		return c, nil
	}
	if !callStatusAllowed(c.Status, to) {
		return nil, apperr.ErrInvalidTransition
	}
	if err := s.repo.SetOpenCallStatus(ctx, callID, to, s.now()); err != nil {
		return nil, err
	}
	return s.repo.GetOpenCall(ctx, callID)
}

// OpenCallDetail is a call as seen by one caller. Application is the
// caller's own application, if any.
type OpenCallDetail struct {
	Call        *models.OpenCall    `json:"call"`
	Project     *models.Project     `json:"project"`
	Application *models.Application `json:"application,omitempty"`
	CanApply    bool                `json:"can_apply"`
	CanManage   bool                `json:"can_manage"`
}

// OpenCall returns a call the caller may see, with its project and the
// caller's relation to it.
func (s *Service) OpenCall(ctx context.Context, sess *session.Session, callID string) (*OpenCallDetail, error) {
	c, err := s.repo.GetVisibleOpenCall(ctx, callID, viewer(sess))
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProject(ctx, c.ProjectID)
	if err != nil {
		return nil, err
	}
	d := &OpenCallDetail{Call: c, Project: p}
	if !sess.Authenticated() {
		return d, nil
	}

	d.CanManage = s.access.Level(ctx, p.ID, sess).AtLeast(access.Core)

	apps, err := s.repo.ListApplicantApplications(ctx, sess.UserID())
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].OpenCallID == c.ID {
			d.Application = &apps[i]
			break
		}
	}
	d.CanApply = c.Status == models.CallOpen && d.Application == nil && p.OwnerID != sess.UserID()
	return d, nil
}

type OpenCallQuery struct {
	Search       string
	CallType     models.CallType
	LocationMode models.LocationMode
	Tag          string
	Page         int
	PageSize     int
}

// ExploreOpenCalls lists open calls visible to the caller, newest first.
func (s *Service) ExploreOpenCalls(ctx context.Context, sess *session.Session, q OpenCallQuery) (*models.Page[models.OpenCall], error) {
	if q.CallType != "" && !q.CallType.Valid() {
		return nil, apperr.Invalid("Bilinmeyen çağrı türü.")
	}
	if q.LocationMode != "" && !q.LocationMode.Valid() {
		return nil, apperr.Invalid("Bilinmeyen çalışma şekli.")
	}
	limit, offset, page := s.page(q.Page, q.PageSize)

	items, total, err := s.repo.ExploreOpenCalls(ctx, repo.OpenCallFilter{
		Search:       strings.TrimSpace(q.Search),
		CallType:     q.CallType,
		LocationMode: q.LocationMode,
		Tag:          strings.TrimSpace(q.Tag),
		Limit:        limit,
		Offset:       offset,
	}, viewer(sess))
	if err != nil {
		return nil, err
	}
	return &models.Page[models.OpenCall]{Items: items, Total: total, Page: page, PageSize: limit}, nil
}
