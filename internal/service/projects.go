package service

import (
	"context"
	"strings"

	"github.com/elmasnur/nurcombinator/internal/access"
	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/repo"
	"github.com/elmasnur/nurcombinator/internal/session"
	"github.com/elmasnur/nurcombinator/internal/slug"
	"github.com/elmasnur/nurcombinator/internal/stage"
)

type ProjectInput struct {
	Title         string             `json:"title" validate:"required,max=120"`
	Summary       string             `json:"summary" validate:"max=300"`
	Description   string             `json:"description" validate:"max=10000"`
	Type          models.ProjectType `json:"type" validate:"omitempty,known"`
	Visibility    models.Visibility  `json:"visibility" validate:"omitempty,known"`
	Tags          []string           `json:"tags" validate:"max=10,dive,max=40"`
	CoverImageURL string             `json:"cover_image_url" validate:"omitempty,max=500,weblink"`
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	in.Description = strings.TrimSpace(in.Description)
	in.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
	in.Tags = normalizeTags(in.Tags)
}

// CreateProject creates a project owned by the caller. The project row and
// the owner membership are written in one transaction.
func (s *Service) CreateProject(ctx context.Context, sess *session.Session, in ProjectInput) (*models.Project, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	in.normalize()
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = models.ProjectTypeOther
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}

	now := s.now()
	p := &models.Project{
		ID:             newID(),
		OwnerID:        sess.UserID(),
		Slug:           slug.WithSuffix(in.Title, now),
		Title:          in.Title,
		Summary:        in.Summary,
		Description:    in.Description,
		Type:           in.Type,
		Visibility:     in.Visibility,
		CurrentStage:   stage.Initial,
		StageUpdatedAt: now,
		Tags:           in.Tags,
		CoverImageURL:  in.CoverImageURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		if apperr.Is(err, apperr.UniquenessViolation) {
			return nil, apperr.ErrSlugTaken
		}
		return nil, err
	}
	sess.Forget(p.ID)
	s.log.Info().Str("project_id", p.ID).Str("slug", p.Slug).Msg("project created")
	return p, nil
}

// ProjectBySlug returns a project the caller may see.
func (s *Service) ProjectBySlug(ctx context.Context, sess *session.Session, projectSlug string) (*models.Project, error) {
	return s.repo.GetProjectBySlug(ctx, projectSlug, viewer(sess))
}

// UpdateProject changes the editable fields of a project. Empty type and
// visibility keep their current values.
func (s *Service) UpdateProject(ctx context.Context, sess *session.Session, projectID string, in ProjectInput) (*models.Project, error) {
	if err := s.require(ctx, projectID, sess, access.Core); err != nil {
		return nil, err
	}
	in.normalize()
	if err := s.check(in); err != nil {
		return nil, err
	}

	current, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = current.Type
	}
	if in.Visibility == "" {
		in.Visibility = current.Visibility
	}

	err = s.repo.UpdateProject(ctx, projectID, repo.ProjectUpdate{
		Title:         in.Title,
		Summary:       in.Summary,
		Description:   in.Description,
		Type:          in.Type,
		Visibility:    in.Visibility,
		Tags:          in.Tags,
		CoverImageURL: in.CoverImageURL,
	}, s.now())
	if err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}

// EnsureOwnerMembership adds the owner's membership row if it is missing.
func (s *Service) EnsureOwnerMembership(ctx context.Context, projectID string) error {
	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	inserted, err := s.repo.AddMember(ctx, p.ID, p.OwnerID, models.MemberOwner)
	if err != nil {
		return err
	}
	if inserted {
		s.log.Warn().Str("project_id", p.ID).Msg("repaired missing owner membership")
	}
	return nil
}

// AdvanceStage moves a project to another stage under the configured
// policy. Setting the current stage again changes nothing.
func (s *Service) AdvanceStage(ctx context.Context, sess *session.Session, projectID string, to models.StageKey) (*models.Project, error) {
	if err := s.require(ctx, projectID, sess, access.Core); err != nil {
		return nil, err
	}
	if !stage.Valid(to) {
		return nil, apperr.Invalid("Bilinmeyen aşama.")
	}

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.CurrentStage == to {
		return p, nil
	}
	if !stage.CanTransition(s.opts.StagePolicy, p.CurrentStage, to) {
		return nil, apperr.ErrInvalidTransition
	}

	if err := s.repo.SetProjectStage(ctx, projectID, to, s.now()); err != nil {
		return nil, err
	}
	s.log.Info().Str("project_id", projectID).Str("from", string(p.CurrentStage)).Str("to", string(to)).Msg("stage changed")
	return s.repo.GetProject(ctx, projectID)
}

type Dashboard struct {
	Project         *models.Project        `json:"project"`
	Level           access.Level           `json:"level"`
	StageLabel      string                 `json:"stage_label"`
	Checklist       *models.StageChecklist `json:"checklist"`
	ChecklistDone   int                    `json:"checklist_done"`
	ChecklistTotal  int                    `json:"checklist_total"`
	Needs           []models.Need          `json:"needs"`
	SelectedNeedIDs []string               `json:"selected_need_ids"`
	OpenCalls       []models.OpenCall      `json:"open_calls"`
	Members         []models.ProjectMember `json:"members"`
	Notifications   []models.Notification  `json:"notifications"`
	WeekStart       string                 `json:"week_start"`
	CurrentCheckin  *models.Checkin        `json:"current_checkin"`
	RecentCheckins  []models.Checkin       `json:"recent_checkins"`
}

// Dashboard assembles the team view of a project. Everything is read fresh:
// the checklist and needs follow the project's current stage. Applications
// are attached to the calls only for core members.
func (s *Service) Dashboard(ctx context.Context, sess *session.Session, projectID string) (*Dashboard, error) {
	if err := s.require(ctx, projectID, sess, access.Member); err != nil {
		return nil, err
	}
	if err := s.EnsureOwnerMembership(ctx, projectID); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		Project:    p,
		Level:      s.access.Level(ctx, projectID, sess),
		StageLabel: stage.Label(p.CurrentStage),
		WeekStart:  WeekStart(s.now()),
	}

	if d.Checklist, err = s.repo.GetChecklist(ctx, p.CurrentStage); err != nil {
		return nil, err
	}
	d.ChecklistDone, d.ChecklistTotal = stage.Progress(d.Checklist.Items)

	if d.Needs, err = s.repo.ListNeedsForStage(ctx, p.CurrentStage); err != nil {
		return nil, err
	}
	if d.SelectedNeedIDs, err = s.repo.SelectedNeedIDs(ctx, projectID); err != nil {
		return nil, err
	}
	if d.OpenCalls, err = s.repo.ListProjectOpenCalls(ctx, projectID, false, viewer(sess)); err != nil {
		return nil, err
	}
	if d.Level.AtLeast(access.Core) {
		apps, err := s.repo.ListProjectApplications(ctx, projectID)
		if err != nil {
			return nil, err
		}
		attachApplications(d.OpenCalls, apps)
	}
	if d.Members, err = s.repo.ListMembers(ctx, projectID); err != nil {
		return nil, err
	}
	if d.Notifications, err = s.repo.ListNotifications(ctx, sess.UserID(), dashboardNotifications); err != nil {
		return nil, err
	}
	if d.CurrentCheckin, err = s.repo.GetCheckin(ctx, projectID, d.WeekStart); err != nil {
		return nil, err
	}
	if d.RecentCheckins, err = s.repo.ListCheckins(ctx, projectID, dashboardCheckinHistory); err != nil {
		return nil, err
	}
	return d, nil
}

func attachApplications(calls []models.OpenCall, apps []models.Application) {
	byCall := make(map[string][]models.Application)
	for _, a := range apps {
		byCall[a.OpenCallID] = append(byCall[a.OpenCallID], a)
	}
	for i := range calls {
		calls[i].Applications = byCall[calls[i].ID]
		if calls[i].Applications == nil {
			calls[i].Applications = []models.Application{}
		}
	}
}

// ProjectProfile is the public view of a project. CanManage is set for the
// owner and every member, who get the dashboard.
type ProjectProfile struct {
	Project   *models.Project   `json:"project"`
	OpenCalls []models.OpenCall `json:"open_calls"`
	Needs     []models.Need     `json:"needs"`
	Role      models.MemberRole `json:"role,omitempty"`
	CanManage bool              `json:"can_manage"`
}

// ProjectProfile is the public page of a project: its open calls, its
// selected needs and the caller's relation to it.
func (s *Service) ProjectProfile(ctx context.Context, sess *session.Session, projectSlug string) (*ProjectProfile, error) {
	p, err := s.repo.GetProjectBySlug(ctx, projectSlug, viewer(sess))
	if err != nil {
		return nil, err
	}
	pp := &ProjectProfile{Project: p}

	if pp.OpenCalls, err = s.repo.ListProjectOpenCalls(ctx, p.ID, true, viewer(sess)); err != nil {
		return nil, err
	}
	if pp.Needs, err = s.repo.ListProjectNeeds(ctx, p.ID); err != nil {
		return nil, err
	}

	if sess.Authenticated() {
		role, ok, err := s.repo.MemberRole(ctx, p.ID, sess.UserID())
		if err != nil {
			return nil, err
		}
		if ok {
			pp.Role = role
		}
		pp.CanManage = s.access.Level(ctx, p.ID, sess).AtLeast(access.Member)
	}
	return pp, nil
}

type ProjectQuery struct {
	Search   string
	Stage    models.StageKey
	Type     models.ProjectType
	Tag      string
	Page     int
	PageSize int
}

// ExploreProjects lists the projects visible to the caller, newest first.
func (s *Service) ExploreProjects(ctx context.Context, sess *session.Session, q ProjectQuery) (*models.Page[models.Project], error) {
	if q.Stage != "" && !stage.Valid(q.Stage) {
		return nil, apperr.Invalid("Bilinmeyen aşama.")
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, apperr.Invalid("Bilinmeyen proje türü.")
	}
	limit, offset, page := s.page(q.Page, q.PageSize)

	items, total, err := s.repo.ExploreProjects(ctx, repo.ProjectFilter{
		Search: strings.TrimSpace(q.Search),
		Stage:  q.Stage,
		Type:   q.Type,
		Tag:    strings.TrimSpace(q.Tag),
		Limit:  limit,
		Offset: offset,
	}, viewer(sess))
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Project]{Items: items, Total: total, Page: page, PageSize: limit}, nil
}

// MyProjects lists the projects the caller owns or belongs to.
func (s *Service) MyProjects(ctx context.Context, sess *session.Session) ([]models.Project, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	return s.repo.ListMemberProjects(ctx, sess.UserID())
}

// ToggleNeed selects or deselects a catalog need for the project and
// reports whether it is selected afterwards.
func (s *Service) ToggleNeed(ctx context.Context, sess *session.Session, projectID, needID string) (bool, error) {
	if err := s.require(ctx, projectID, sess, access.Core); err != nil {
		return false, err
	}
	selected, err := s.repo.ToggleNeed(ctx, projectID, needID)
	if apperr.Is(err, apperr.ForeignKeyViolation) {
		return false, apperr.New(apperr.NotFound, "İhtiyaç bulunamadı.")
	}
	return selected, err
}
