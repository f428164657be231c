// Package service implements the platform's operations on top of the
// repository. Every operation takes the caller's session explicitly and
// performs its own authorization.
package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elmasnur/nurcombinator/internal/access"
	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/repo"
	"github.com/elmasnur/nurcombinator/internal/session"
	"github.com/elmasnur/nurcombinator/internal/stage"
)

const (
	defaultPageSize         = 12
	maxPageSize             = 50
	notificationListLimit   = 50
	dashboardNotifications  = 10
	reportListLimit         = 100
	defaultMessageMin       = 50
	defaultMessageMax       = 1200
	defaultDisplayName      = "Yeni Üye"
	maxReportReasonRunes    = 1000
	maxApplicationLinks     = 3
	dashboardCheckinHistory = 8
)

// Notifier receives every notification after it has been stored.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type Options struct {
	StagePolicy              stage.Policy
	MessageMin               int
	MessageMax               int
	PageSize                 int
	RequireEmailVerification bool
	// LinkSecret signs Telegram link codes.
	LinkSecret  string
	BotUsername string
	Now         func() time.Time
}

type Service struct {
	repo     *repo.Repo
	access   *access.Resolver
	notifier Notifier
	validate *validator.Validate
	opts     Options
	log      zerolog.Logger
}

// New builds a Service. notifier may be nil.
func New(r *repo.Repo, notifier Notifier, opts Options, log zerolog.Logger) *Service {
	if opts.StagePolicy == nil {
		opts.StagePolicy = stage.Free
	}
	if opts.MessageMin == 0 && opts.MessageMax == 0 {
		opts.MessageMin, opts.MessageMax = defaultMessageMin, defaultMessageMax
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:     r,
		access:   access.New(r),
		notifier: notifier,
		validate: newValidator(),
		opts:     opts,
		log:      log.With().Str("component", "service").Logger(),
	}
}

// SetBotUsername sets the bot used in Telegram deep links once it is known.
func (s *Service) SetBotUsername(name string) {
	s.opts.BotUsername = name
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}

func viewer(sess *session.Session) repo.Viewer {
	return repo.Viewer{UserID: sess.UserID(), Verified: sess.Verified()}
}

func requireAuth(sess *session.Session) error {
	if !sess.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	return nil
}

func (s *Service) require(ctx context.Context, projectID string, sess *session.Session, min access.Level) error {
	if err := requireAuth(sess); err != nil {
		return err
	}
	return s.access.Require(ctx, projectID, sess, min).Err()
}

func (s *Service) requirePrivileged(ctx context.Context, sess *session.Session) error {
	if err := requireAuth(sess); err != nil {
		return err
	}
	return s.access.Privileged(ctx, sess.UserID()).Err()
}

// Level returns the session's standing in a project.
func (s *Service) Level(ctx context.Context, sess *session.Session, projectID string) access.Level {
	return s.access.Level(ctx, projectID, sess)
}

func (s *Service) page(page, pageSize int) (limit, offset, normPage int) {
	return repo.Pagination(page, pageSize, s.opts.PageSize, maxPageSize)
}

// Stages returns the lifecycle stages in order.
func (s *Service) Stages(ctx context.Context) ([]models.Stage, error) {
	return s.repo.ListStages(ctx)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
