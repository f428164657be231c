package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/repo"
	"github.com/elmasnur/nurcombinator/internal/service"
	"github.com/elmasnur/nurcombinator/internal/session"
	"github.com/elmasnur/nurcombinator/internal/stage"
)

const (
	password    = "dogru-at-pil-zimba"
	longMessage = "Bu projeye haftada birkaç saat ayırarak katkı sunmak isterim. Daha önce benzer işlerde çalıştım."
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu  sync.Mutex
	got []models.Notification
}

func (r *recorder) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) forUser(userID string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.got {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	repo  *repo.Repo
	svc   *service.Service
	clock *clock
	notes *recorder
}

func newFixture(t *testing.T, opts service.Options) *fixture {
	t.Helper()
	r, err := repo.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	// A Wednesday.
	c := &clock{t: time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)}
	opts.Now = c.now
	if opts.LinkSecret == "" {
		opts.LinkSecret = "test-secret"
	}
	rec := &recorder{}
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		repo:  r,
		svc:   service.New(r, rec, opts, zerolog.Nop()),
		clock: c,
		notes: rec,
	}
}

// user signs up a new account and returns a session for it.
func (f *fixture) user(name string) *session.Session {
	f.t.Helper()
	res, err := f.svc.SignUp(f.ctx, service.SignUpInput{
		Email:       name + "@example.com",
		Password:    password,
		DisplayName: name,
	})
	require.NoError(f.t, err)
	require.NotEmpty(f.t, res.SessionToken)
	return f.session(res.SessionToken)
}

func (f *fixture) session(token string) *session.Session {
	f.t.Helper()
	userID, err := f.repo.GetSessionUser(f.ctx, token, f.clock.now())
	require.NoError(f.t, err)
	require.NotEmpty(f.t, userID)
	u, err := f.repo.GetUser(f.ctx, userID)
	require.NoError(f.t, err)
	return session.New(token, u)
}

// reload refreshes the user behind sess, e.g. after a trust level change.
func (f *fixture) reload(sess *session.Session) *session.Session {
	return f.session(sess.Token)
}

func (f *fixture) project(owner *session.Session, title string, vis models.Visibility) *models.Project {
	f.t.Helper()
	p, err := f.svc.CreateProject(f.ctx, owner, service.ProjectInput{Title: title, Visibility: vis})
	require.NoError(f.t, err)
	f.clock.advance(time.Second)
	return p
}

func (f *fixture) call(owner *session.Session, projectID string, typ models.CallType) *models.OpenCall {
	f.t.Helper()
	c, err := f.svc.CreateOpenCall(f.ctx, owner, projectID, service.OpenCallInput{Title: "Tasarımcı aranıyor", CallType: typ})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) apply(sess *session.Session, callID string) *models.Application {
	f.t.Helper()
	a, err := f.svc.SubmitApplication(f.ctx, sess, callID, service.ApplicationInput{Message: longMessage})
	require.NoError(f.t, err)
	return a
}

func TestSignUpThenSignIn(t *testing.T) {
	f := newFixture(t, service.Options{})

	res, err := f.svc.SignUp(f.ctx, service.SignUpInput{Email: "  Ayse@Example.com ", Password: password})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionToken)
	assert.Empty(t, res.VerificationToken)

	token, err := f.svc.SignIn(f.ctx, service.SignInInput{Email: "ayse@example.com", Password: password})
	require.NoError(t, err)
	sess := f.session(token)
	assert.Equal(t, res.UserID, sess.UserID())
	assert.Equal(t, "Yeni Üye", sess.User.Profile.DisplayName)

	_, err = f.svc.SignIn(f.ctx, service.SignInInput{Email: "ayse@example.com", Password: "yanlis-sifre"})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = f.svc.SignIn(f.ctx, service.SignInInput{Email: "kimse@example.com", Password: password})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = f.svc.SignUp(f.ctx, service.SignUpInput{Email: "AYSE@example.com", Password: password})
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)
}

func TestSignInWaitsForVerification(t *testing.T) {
	f := newFixture(t, service.Options{RequireEmailVerification: true})

	res, err := f.svc.SignUp(f.ctx, service.SignUpInput{Email: "mehmet@example.com", Password: password})
	require.NoError(t, err)
	assert.Empty(t, res.SessionToken)
	require.NotEmpty(t, res.VerificationToken)

	in := service.SignInInput{Email: "mehmet@example.com", Password: password}
	_, err = f.svc.SignIn(f.ctx, in)
	assert.ErrorIs(t, err, apperr.ErrEmailNotVerified)

	require.NoError(t, f.svc.VerifyEmail(f.ctx, res.VerificationToken))
	token, err := f.svc.SignIn(f.ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	err = f.svc.VerifyEmail(f.ctx, res.VerificationToken)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t, service.Options{})

	tests := []struct {
		name string
		in   service.SignUpInput
		kind apperr.Kind
	}{
		{"missing email", service.SignUpInput{Password: password}, apperr.MissingRequiredField},
		{"bad email", service.SignUpInput{Email: "not-an-email", Password: password}, apperr.MalformedInput},
		{"short password", service.SignUpInput{Email: "a@example.com", Password: "kisa"}, apperr.MalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SignUp(f.ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestSignOutResetsSession(t *testing.T) {
	f := newFixture(t, service.Options{})
	sess := f.user("zeynep")
	token := sess.Token

	require.NoError(t, f.svc.SignOut(f.ctx, sess))
	assert.False(t, sess.Authenticated())

	userID, err := f.repo.GetSessionUser(f.ctx, token, f.clock.now())
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestNewProjectScenario(t *testing.T) {
	f := newFixture(t, service.Options{})
	a := f.user("ali")
	anon := session.Anonymous()

	p := f.project(a, "Test", models.VisibilityPublic)
	assert.True(t, strings.HasPrefix(p.Slug, "test-"), p.Slug)
	assert.Equal(t, stage.Initial, p.CurrentStage)

	role, ok, err := f.repo.MemberRole(f.ctx, p.ID, a.UserID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.MemberOwner, role)

	page, err := f.svc.ExploreProjects(f.ctx, anon, service.ProjectQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p.ID, page.Items[0].ID)

	profile, err := f.svc.ProjectProfile(f.ctx, anon, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, p.ID, profile.Project.ID)
	assert.False(t, profile.CanManage)

	_, err = f.svc.SubmitCheckin(f.ctx, anon, p.ID, service.CheckinInput{Blocker: "yok"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.svc.Dashboard(f.ctx, anon, p.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	owned, err := f.svc.ProjectProfile(f.ctx, a, p.Slug)
	require.NoError(t, err)
	assert.True(t, owned.CanManage)
	assert.Equal(t, models.MemberOwner, owned.Role)
}

func TestUpdateProjectKeepsCoverImage(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	p := f.project(owner, "Kapak", models.VisibilityPublic)

	got, err := f.svc.UpdateProject(f.ctx, owner, p.ID, service.ProjectInput{
		Title:         "Proje",
		CoverImageURL: " https://example.com/c.png ",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/c.png", got.CoverImageURL)
	assert.Equal(t, p.Visibility, got.Visibility)

	got, err = f.svc.UpdateProject(f.ctx, owner, p.ID, service.ProjectInput{Title: "Proje"})
	require.NoError(t, err)
	assert.Empty(t, got.CoverImageURL)
}

func TestExploreSearchTurkishTitles(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	cocuk := f.project(owner, "Çocuk Eğitimi", models.VisibilityPublic)
	ilim := f.project(owner, "İlim Halkası", models.VisibilityPublic)

	tests := []struct {
		search string
		want   string
	}{
		{"Çocuk", cocuk.ID},
		{"çocuk", cocuk.ID},
		{"İlim", ilim.ID},
		{"ilim", ilim.ID},
		{"ILIM", ilim.ID},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			page, err := f.svc.ExploreProjects(f.ctx, session.Anonymous(), service.ProjectQuery{Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, 1, page.Total)
			require.Len(t, page.Items, 1)
			assert.Equal(t, tt.want, page.Items[0].ID)
		})
	}
}

func TestProjectVisibility(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	other := f.user("other")

	hidden := f.project(owner, "Gizli Proje", models.VisibilityPrivate)
	verified := f.project(owner, "Doğrulanmış Proje", models.VisibilityVerifiedOnly)

	_, err := f.svc.ProjectBySlug(f.ctx, other, hidden.Slug)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = f.svc.ProjectBySlug(f.ctx, other, verified.Slug)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	require.NoError(t, f.repo.SetTrustLevel(f.ctx, other.UserID(), 1, f.clock.now()))
	other = f.reload(other)
	_, err = f.svc.ProjectBySlug(f.ctx, other, verified.Slug)
	assert.NoError(t, err)
	_, err = f.svc.ProjectBySlug(f.ctx, other, hidden.Slug)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	got, err := f.svc.ProjectBySlug(f.ctx, owner, hidden.Slug)
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, got.ID)
}

func TestExploreTotalIndependentOfPage(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	for i := 0; i < 5; i++ {
		f.project(owner, "Proje", models.VisibilityPublic)
	}
	f.project(owner, "Gizli", models.VisibilityPrivate)

	anon := session.Anonymous()
	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		res, err := f.svc.ExploreProjects(f.ctx, anon, service.ProjectQuery{Page: page, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Total)
		assert.Equal(t, page, res.Page)
		for _, p := range res.Items {
			assert.False(t, seen[p.ID], "project listed twice")
			seen[p.ID] = true
		}
	}
	assert.Len(t, seen, 5)

	res, err := f.svc.ExploreProjects(f.ctx, owner, service.ProjectQuery{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Total)

	_, err = f.svc.ExploreProjects(f.ctx, anon, service.ProjectQuery{Stage: "yok_boyle"})
	assert.True(t, apperr.Is(err, apperr.MalformedInput))
}

func TestStagePolicies(t *testing.T) {
	tests := []struct {
		name     string
		policy   stage.Policy
		from, to models.StageKey
		allowed  bool
	}{
		{"free jumps forward", stage.Free, models.StageNiyetIstikamet, models.StageYayginlastirma, true},
		{"free moves back", stage.Free, models.StageIlkYayin, models.StageNiyetIstikamet, true},
		{"forward jumps forward", stage.Forward, models.StageNiyetIstikamet, models.StageIlkYayin, true},
		{"forward rejects back", stage.Forward, models.StageIlkYayin, models.StageTaslakCerceve, false},
		{"adjacent steps", stage.Adjacent, models.StageNiyetIstikamet, models.StageTaslakCerceve, true},
		{"adjacent rejects jump", stage.Adjacent, models.StageNiyetIstikamet, models.StageIlkYayin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, service.Options{StagePolicy: tt.policy})
			owner := f.user("owner")
			p := f.project(owner, "Aşamalı", models.VisibilityPublic)
			if tt.from != p.CurrentStage {
				require.NoError(t, f.repo.SetProjectStage(f.ctx, p.ID, tt.from, f.clock.now()))
			}

			got, err := f.svc.AdvanceStage(f.ctx, owner, p.ID, tt.to)
			if !tt.allowed {
				assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
				current, err := f.repo.GetProject(f.ctx, p.ID)
				require.NoError(t, err)
				assert.Equal(t, tt.from, current.CurrentStage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.CurrentStage)
		})
	}
}

func TestAdvanceStageEdges(t *testing.T) {
	f := newFixture(t, service.Options{StagePolicy: stage.Forward})
	owner := f.user("owner")
	stranger := f.user("stranger")
	p := f.project(owner, "Aşamalı", models.VisibilityPublic)

	_, err := f.svc.AdvanceStage(f.ctx, owner, p.ID, "bilinmeyen")
	assert.True(t, apperr.Is(err, apperr.MalformedInput))

	f.clock.advance(time.Hour)
	same, err := f.svc.AdvanceStage(f.ctx, owner, p.ID, p.CurrentStage)
	require.NoError(t, err)
	assert.True(t, same.StageUpdatedAt.Equal(p.StageUpdatedAt))

	_, err = f.svc.AdvanceStage(f.ctx, stranger, p.ID, models.StageIlkYayin)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDashboardAccess(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	stranger := f.user("stranger")
	volunteer := f.user("volunteer")
	p := f.project(owner, "Ekip", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)
	a := f.apply(volunteer, c.ID)

	_, err := f.svc.Dashboard(f.ctx, stranger, p.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SubmitCheckin(f.ctx, stranger, p.ID, service.CheckinInput{Blocker: "yok"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.ListCheckins(f.ctx, stranger, p.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	d, err := f.svc.Dashboard(f.ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", d.Level.String())
	assert.Equal(t, "2025-03-10", d.WeekStart)
	require.Len(t, d.OpenCalls, 1)
	require.Len(t, d.OpenCalls[0].Applications, 1)
	assert.Equal(t, a.ID, d.OpenCalls[0].Applications[0].ID)

	_, err = f.svc.SetApplicationStatus(f.ctx, owner, a.ID, models.ApplicationAccepted)
	require.NoError(t, err)

	vd, err := f.svc.Dashboard(f.ctx, volunteer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "member", vd.Level.String())
	require.Len(t, vd.OpenCalls, 1)
	assert.Nil(t, vd.OpenCalls[0].Applications)

	_, err = f.svc.ProjectApplications(f.ctx, volunteer, p.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDashboardRepairsOwnerMembership(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	p := f.project(owner, "Onarım", models.VisibilityPublic)

	members, err := f.repo.ListMembers(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, f.svc.EnsureOwnerMembership(f.ctx, p.ID))
	members, err = f.repo.ListMembers(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestDashboardFollowsStage(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	p := f.project(owner, "Katalog", models.VisibilityPublic)

	ilk := models.StageIlkYayin
	require.NoError(t, f.repo.UpsertChecklist(f.ctx, ilk, []models.ChecklistItem{{Title: "Yayınla", Done: true}, {Title: "Duyur"}}))
	require.NoError(t, f.repo.UpsertNeed(f.ctx, models.Need{ID: "geri-bildirim", Category: models.NeedIcerik, Title: "Geri bildirim", StageKey: &ilk, IsActive: true}))
	require.NoError(t, f.repo.UpsertNeed(f.ctx, models.Need{ID: "mentor", Category: models.NeedMentorluk, Title: "Mentor", IsActive: true}))

	d, err := f.svc.Dashboard(f.ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, d.ChecklistTotal)
	require.Len(t, d.Needs, 1)
	assert.Equal(t, "mentor", d.Needs[0].ID)

	_, err = f.svc.AdvanceStage(f.ctx, owner, p.ID, ilk)
	require.NoError(t, err)
	d, err = f.svc.Dashboard(f.ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "İlk Yayın", d.StageLabel)
	assert.Equal(t, 1, d.ChecklistDone)
	assert.Equal(t, 2, d.ChecklistTotal)
	assert.Len(t, d.Needs, 2)
}

func TestToggleNeed(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	p := f.project(owner, "İhtiyaç", models.VisibilityPublic)
	require.NoError(t, f.repo.UpsertNeed(f.ctx, models.Need{ID: "hukuk", Category: models.NeedHukuk, Title: "Hukuki destek", IsActive: true}))

	on, err := f.svc.ToggleNeed(f.ctx, owner, p.ID, "hukuk")
	require.NoError(t, err)
	assert.True(t, on)

	profile, err := f.svc.ProjectProfile(f.ctx, session.Anonymous(), p.Slug)
	require.NoError(t, err)
	require.Len(t, profile.Needs, 1)

	off, err := f.svc.ToggleNeed(f.ctx, owner, p.ID, "hukuk")
	require.NoError(t, err)
	assert.False(t, off)

	_, err = f.svc.ToggleNeed(f.ctx, owner, p.ID, "yok")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSubmitApplicationRequiresOpenCall(t *testing.T) {
	for _, status := range []models.CallStatus{models.CallPaused, models.CallClosed} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, service.Options{})
			owner := f.user("owner")
			applicant := f.user("applicant")
			p := f.project(owner, "Çağrılı", models.VisibilityPublic)
			c := f.call(owner, p.ID, models.CallTypeVolunteer)

			_, err := f.svc.SetOpenCallStatus(f.ctx, owner, c.ID, status)
			require.NoError(t, err)

			_, err = f.svc.SubmitApplication(f.ctx, applicant, c.ID, service.ApplicationInput{Message: longMessage})
			assert.ErrorIs(t, err, apperr.ErrCallNotOpen)

			applied, err := f.repo.HasApplied(f.ctx, c.ID, applicant.UserID())
			require.NoError(t, err)
			assert.False(t, applied)
		})
	}
}

func TestApplyUntilIsInformational(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	applicant := f.user("applicant")
	p := f.project(owner, "Süreli", models.VisibilityPublic)

	past := f.clock.now().Add(-48 * time.Hour)
	c, err := f.svc.CreateOpenCall(f.ctx, owner, p.ID, service.OpenCallInput{Title: "Geçmiş tarihli", ApplyUntil: &past})
	require.NoError(t, err)
	assert.Equal(t, models.CallOpen, c.Status)

	detail, err := f.svc.OpenCall(f.ctx, applicant, c.ID)
	require.NoError(t, err)
	assert.True(t, detail.CanApply)

	a := f.apply(applicant, c.ID)
	assert.Equal(t, models.ApplicationSubmitted, a.Status)
}

func TestDuplicateApplication(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	applicant := f.user("applicant")
	p := f.project(owner, "Tekrar", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)

	f.apply(applicant, c.ID)
	_, err := f.svc.SubmitApplication(f.ctx, applicant, c.ID, service.ApplicationInput{Message: "kısa"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyApplied)

	_, err = f.svc.SubmitApplication(f.ctx, applicant, c.ID, service.ApplicationInput{Message: longMessage})
	assert.ErrorIs(t, err, apperr.ErrAlreadyApplied)

	msg, ok := apperr.Message(err)
	assert.True(t, ok)
	assert.Equal(t, "Bu çağrıya zaten başvurdunuz.", msg)

	detail, err := f.svc.OpenCall(f.ctx, applicant, c.ID)
	require.NoError(t, err)
	assert.False(t, detail.CanApply)
	require.NotNil(t, detail.Application)
}

func TestApplicationValidation(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	applicant := f.user("applicant")
	p := f.project(owner, "Doğrulama", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)

	tests := []struct {
		name string
		in   service.ApplicationInput
		kind apperr.Kind
	}{
		{"empty message", service.ApplicationInput{Message: "   "}, apperr.MissingRequiredField},
		{"short message", service.ApplicationInput{Message: "Merhaba"}, apperr.MalformedInput},
		{"long message", service.ApplicationInput{Message: strings.Repeat("ç", 1201)}, apperr.MalformedInput},
		{"bad link", service.ApplicationInput{Message: longMessage, Links: []string{"ftp://example.com"}}, apperr.MalformedInput},
		{"too many links", service.ApplicationInput{Message: longMessage, Links: []string{
			"https://a.example.com", "https://b.example.com", "https://c.example.com", "https://d.example.com",
		}}, apperr.MalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitApplication(f.ctx, applicant, c.ID, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	_, err := f.svc.SubmitApplication(f.ctx, owner, c.ID, service.ApplicationInput{Message: longMessage})
	assert.ErrorIs(t, err, apperr.ErrOwnProject)

	a, err := f.svc.SubmitApplication(f.ctx, applicant, c.ID, service.ApplicationInput{
		Message: longMessage,
		Links:   []string{" https://portfolyo.example.com ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://portfolyo.example.com"}, a.Links)
}

func TestSubmitApplicationNotifiesReviewers(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	applicant := f.user("applicant")
	p := f.project(owner, "Bildirim", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)

	a := f.apply(applicant, c.ID)

	got := f.notes.forUser(owner.UserID())
	require.Len(t, got, 1)
	assert.Equal(t, models.NotificationNewApplication, got[0].Type)
	assert.Equal(t, a.ID, got[0].Payload["application_id"])
	assert.Equal(t, "applicant", got[0].Payload["applicant_name"])

	stored, err := f.svc.Notifications(f.ctx, owner)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, got[0].ID, stored[0].ID)
	assert.Empty(t, f.notes.forUser(applicant.UserID()))
}

func TestAcceptedApplicantBecomesMember(t *testing.T) {
	tests := []struct {
		callType models.CallType
		role     models.MemberRole
	}{
		{models.CallTypeCore, models.MemberCore},
		{models.CallTypeVolunteer, models.MemberVolunteer},
		{models.CallTypeAdvisor, models.MemberVolunteer},
	}
	for _, tt := range tests {
		t.Run(string(tt.callType), func(t *testing.T) {
			f := newFixture(t, service.Options{})
			owner := f.user("owner")
			applicant := f.user("applicant")
			p := f.project(owner, "Kabul", models.VisibilityPublic)
			c := f.call(owner, p.ID, tt.callType)
			a := f.apply(applicant, c.ID)

			got, err := f.svc.SetApplicationStatus(f.ctx, owner, a.ID, models.ApplicationAccepted)
			require.NoError(t, err)
			assert.Equal(t, models.ApplicationAccepted, got.Status)

			role, ok, err := f.repo.MemberRole(f.ctx, p.ID, applicant.UserID())
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.role, role)

			notes := f.notes.forUser(applicant.UserID())
			require.Len(t, notes, 1)
			assert.Equal(t, models.NotificationApplicationStatus, notes[0].Type)
			assert.Equal(t, "accepted", notes[0].Payload["status"])
		})
	}
}

func TestReviewTransitions(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	applicant := f.user("applicant")
	stranger := f.user("stranger")
	p := f.project(owner, "İnceleme", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)
	a := f.apply(applicant, c.ID)

	_, err := f.svc.SetApplicationStatus(f.ctx, stranger, a.ID, models.ApplicationRejected)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SetApplicationStatus(f.ctx, applicant, a.ID, models.ApplicationAccepted)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SetApplicationStatus(f.ctx, owner, a.ID, models.ApplicationSubmitted)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	got, err := f.svc.SetApplicationStatus(f.ctx, owner, a.ID, models.ApplicationShortlisted)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationShortlisted, got.Status)

	_, err = f.svc.SetApplicationStatus(f.ctx, owner, a.ID, models.ApplicationAccepted)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestWithdrawOnlyFromSubmitted(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	first := f.user("first")
	second := f.user("second")
	third := f.user("third")
	p := f.project(owner, "Geri Çekme", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)

	submitted := f.apply(first, c.ID)
	_, err := f.svc.WithdrawApplication(f.ctx, second, submitted.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.svc.WithdrawApplication(f.ctx, first, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationWithdrawn, got.Status)

	_, err = f.svc.WithdrawApplication(f.ctx, first, submitted.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	for _, tc := range []struct {
		sess   *session.Session
		status models.ApplicationStatus
	}{
		{second, models.ApplicationAccepted},
		{third, models.ApplicationRejected},
	} {
		a := f.apply(tc.sess, c.ID)
		_, err := f.svc.SetApplicationStatus(f.ctx, owner, a.ID, tc.status)
		require.NoError(t, err)

		_, err = f.svc.WithdrawApplication(f.ctx, tc.sess, a.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

		stored, err := f.repo.GetApplication(f.ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.status, stored.Status)
	}
}

func TestOpenCallClosedIsTerminal(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	p := f.project(owner, "Kapanış", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)

	got, err := f.svc.SetOpenCallStatus(f.ctx, owner, c.ID, models.CallPaused)
	require.NoError(t, err)
	assert.Equal(t, models.CallPaused, got.Status)

	got, err = f.svc.SetOpenCallStatus(f.ctx, owner, c.ID, models.CallOpen)
	require.NoError(t, err)
	assert.Equal(t, models.CallOpen, got.Status)

	_, err = f.svc.SetOpenCallStatus(f.ctx, owner, c.ID, models.CallClosed)
	require.NoError(t, err)

	for _, to := range []models.CallStatus{models.CallOpen, models.CallPaused} {
		_, err = f.svc.SetOpenCallStatus(f.ctx, owner, c.ID, to)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	}
	got, err = f.svc.SetOpenCallStatus(f.ctx, owner, c.ID, models.CallClosed)
	require.NoError(t, err)
	assert.Equal(t, models.CallClosed, got.Status)
}

func TestOpenCallVisibility(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	other := f.user("other")
	p := f.project(owner, "Görünürlük", models.VisibilityPublic)
	c, err := f.svc.CreateOpenCall(f.ctx, owner, p.ID, service.OpenCallInput{
		Title:      "Sadece doğrulanmış",
		Visibility: models.VisibilityVerifiedOnly,
	})
	require.NoError(t, err)

	_, err = f.svc.OpenCall(f.ctx, other, c.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = f.svc.SubmitApplication(f.ctx, other, c.ID, service.ApplicationInput{Message: longMessage})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	page, err := f.svc.ExploreOpenCalls(f.ctx, other, service.OpenCallQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	require.NoError(t, f.repo.SetTrustLevel(f.ctx, other.UserID(), 2, f.clock.now()))
	other = f.reload(other)

	page, err = f.svc.ExploreOpenCalls(f.ctx, other, service.OpenCallQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	f.apply(other, c.ID)
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	p := f.project(owner, "Okundu", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)
	for _, name := range []string{"a", "b", "c"} {
		f.apply(f.user(name), c.ID)
	}

	count, err := f.svc.UnreadCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, f.svc.MarkAllNotificationsRead(f.ctx, owner))
	first, err := f.svc.Notifications(f.ctx, owner)
	require.NoError(t, err)

	f.clock.advance(time.Hour)
	require.NoError(t, f.svc.MarkAllNotificationsRead(f.ctx, owner))
	second, err := f.svc.Notifications(f.ctx, owner)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		require.NotNil(t, first[i].ReadAt)
		require.NotNil(t, second[i].ReadAt)
		assert.True(t, first[i].ReadAt.Equal(*second[i].ReadAt))
	}
	count, err = f.svc.UnreadCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkOtherUsersNotification(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	applicant := f.user("applicant")
	p := f.project(owner, "Başkası", models.VisibilityPublic)
	c := f.call(owner, p.ID, models.CallTypeVolunteer)
	f.apply(applicant, c.ID)

	notes, err := f.svc.Notifications(f.ctx, owner)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	require.NoError(t, f.svc.MarkNotificationRead(f.ctx, applicant, notes[0].ID))
	count, err := f.svc.UnreadCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, f.svc.MarkNotificationRead(f.ctx, owner, notes[0].ID))
	count, err = f.svc.UnreadCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCheckinUpsert(t *testing.T) {
	f := newFixture(t, service.Options{})
	owner := f.user("owner")
	p := f.project(owner, "Haftalık", models.VisibilityPublic)

	_, err := f.svc.SubmitCheckin(f.ctx, owner, p.ID, service.CheckinInput{
		MainMetricName:  "Okuyucu",
		MainMetricValue: "10",
		Blocker:         "Zaman",
	})
	require.NoError(t, err)

	f.clock.advance(24 * time.Hour)
	second, err := f.svc.SubmitCheckin(f.ctx, owner, p.ID, service.CheckinInput{
		MainMetricName:  "Okuyucu",
		MainMetricValue: "25",
		DeliverableLink: "https://example.com/rapor",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", second.WeekStart)

	list, err := f.svc.ListCheckins(f.ctx, owner, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "25", list[0].MainMetricValue)
	assert.Equal(t, "https://example.com/rapor", list[0].DeliverableLink)
	assert.Empty(t, list[0].Blocker)

	f.clock.advance(7 * 24 * time.Hour)
	_, err = f.svc.SubmitCheckin(f.ctx, owner, p.ID, service.CheckinInput{MainMetricValue: "40"})
	require.NoError(t, err)
	list, err = f.svc.ListCheckins(f.ctx, owner, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03-17", list[0].WeekStart)

	_, err = f.svc.SubmitCheckin(f.ctx, owner, p.ID, service.CheckinInput{DeliverableLink: "javascript:alert(1)"})
	assert.True(t, apperr.Is(err, apperr.MalformedInput))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "2025-03-10"},
		{time.Date(2025, 3, 16, 23, 59, 0, 0, time.UTC), "2025-03-10"},
		{time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), "2025-03-17"},
		{time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), "2024-12-30"},
		{time.Date(2025, 3, 17, 1, 0, 0, 0, time.FixedZone("TRT", 3*60*60)), "2025-03-10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.WeekStart(tt.in), tt.in.String())
	}
}

func TestUpdateProfileKeepsTrustLevel(t *testing.T) {
	f := newFixture(t, service.Options{})
	sess := f.user("deniz")
	require.NoError(t, f.repo.SetTrustLevel(f.ctx, sess.UserID(), 2, f.clock.now()))

	hours := 5
	p, err := f.svc.UpdateProfile(f.ctx, sess, service.ProfileInput{
		DisplayName:       "Deniz",
		SkillsTags:        []string{"go", " Go ", "tasarım"},
		AvailabilityHours: &hours,
	})
	require.NoError(t, err)
	assert.Equal(t, "Deniz", p.DisplayName)
	assert.Equal(t, []string{"go", "tasarım"}, p.SkillsTags)
	assert.Equal(t, 2, p.TrustLevel)

	_, err = f.svc.UpdateProfile(f.ctx, sess, service.ProfileInput{})
	assert.True(t, apperr.Is(err, apperr.MissingRequiredField))

	_, err = f.svc.PublicProfile(f.ctx, session.Anonymous(), sess.UserID())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestTelegramLink(t *testing.T) {
	f := newFixture(t, service.Options{BotUsername: "nurbot"})
	sess := f.user("emre")

	link, err := f.svc.TelegramLink(f.ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/nurbot?start="+link.Code, link.URL)

	require.NoError(t, f.svc.LinkTelegram(f.ctx, link.Code, 4242))
	p, err := f.repo.GetProfile(f.ctx, sess.UserID())
	require.NoError(t, err)
	assert.Equal(t, int64(4242), p.TelegramChatID)

	err = f.svc.LinkTelegram(f.ctx, sess.UserID()+"_0000000000000000", 1)
	assert.True(t, apperr.Is(err, apperr.MalformedInput))
	err = f.svc.LinkTelegram(f.ctx, "bozuk", 1)
	assert.True(t, apperr.Is(err, apperr.MalformedInput))
}

func TestReportsAndModeration(t *testing.T) {
	f := newFixture(t, service.Options{})
	reporter := f.user("reporter")
	mod := f.user("mod")
	admin := f.user("admin")
	require.NoError(t, f.repo.GrantRole(f.ctx, mod.UserID(), models.UserRoleModerator))
	require.NoError(t, f.repo.GrantRole(f.ctx, admin.UserID(), models.UserRoleAdmin))

	r, err := f.svc.FileReport(f.ctx, reporter, service.ReportInput{
		TargetType: models.ReportTargetProject,
		TargetID:   "p-1",
		Reason:     "Uygunsuz içerik",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportOpen, r.Status)

	_, err = f.svc.FileReport(f.ctx, session.Anonymous(), service.ReportInput{TargetType: models.ReportTargetProject, TargetID: "p-1", Reason: "x"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = f.svc.Reports(f.ctx, reporter, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	list, err := f.svc.Reports(f.ctx, mod, models.ReportOpen)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.svc.SetReportStatus(f.ctx, mod, r.ID, models.ReportResolved))
	list, err = f.svc.Reports(f.ctx, mod, models.ReportOpen)
	require.NoError(t, err)
	assert.Empty(t, list)

	stats, err := f.svc.ModerationStats(f.ctx, mod)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.UserCount)
	assert.Zero(t, stats.OpenReportCount)

	assert.ErrorIs(t, f.svc.GrantRole(f.ctx, mod, reporter.UserID(), models.UserRoleAdmin), apperr.ErrForbidden)
	require.NoError(t, f.svc.GrantRole(f.ctx, mod, reporter.UserID(), models.UserRoleMentor))
	require.NoError(t, f.svc.GrantRole(f.ctx, admin, reporter.UserID(), models.UserRoleModerator))

	require.NoError(t, f.svc.SetTrustLevel(f.ctx, mod, reporter.UserID(), 1))
	assert.True(t, apperr.Is(f.svc.SetTrustLevel(f.ctx, mod, reporter.UserID(), 4), apperr.MalformedInput))

	reporter = f.reload(reporter)
	assert.True(t, reporter.Verified())
}
