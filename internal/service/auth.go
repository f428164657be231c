package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/elmasnur/nurcombinator/internal/apperr"
	"github.com/elmasnur/nurcombinator/internal/models"
	"github.com/elmasnur/nurcombinator/internal/repo"
	"github.com/elmasnur/nurcombinator/internal/session"
)

type SignUpInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=80"`
}

type SignUpResult struct {
	UserID string `json:"user_id"`
	// VerificationToken is set when sign-in waits for email verification.
	VerificationToken string `json:"verification_token,omitempty"`
	// SessionToken is set when the user is signed in right away.
	SessionToken string `json:"-"`
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.DisplayName == "" {
		in.DisplayName = defaultDisplayName
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.Invalid("Şifre çok uzun.")
	}
	if err != nil {
		return nil, err
	}

	u := repo.NewUser{
		ID:           newID(),
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  in.DisplayName,
		Verified:     !s.opts.RequireEmailVerification,
	}
	if s.opts.RequireEmailVerification {
		u.VerificationToken = newID()
	}
	if err := s.repo.CreateUser(ctx, u, s.now()); err != nil {
		if apperr.Is(err, apperr.UniquenessViolation) {
			return nil, apperr.ErrEmailTaken
		}
		return nil, err
	}

	res := &SignUpResult{UserID: u.ID, VerificationToken: u.VerificationToken}
	if !s.opts.RequireEmailVerification {
		token := repo.GenerateToken()
		if err := s.repo.CreateSession(ctx, token, u.ID, s.now()); err != nil {
			return nil, err
		}
		res.SessionToken = token
	}
	s.log.Info().Str("user_id", u.ID).Msg("user signed up")
	return res, nil
}

type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignIn checks the credentials and returns a new session token. Unknown
// emails and wrong passwords produce the same error.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.check(in); err != nil {
		return "", err
	}

	creds, err := s.repo.GetCredentials(ctx, in.Email)
	if apperr.Is(err, apperr.NotFound) {
		return "", apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(in.Password)) != nil {
		return "", apperr.ErrInvalidCredentials
	}
	if s.opts.RequireEmailVerification && !creds.Verified {
		return "", apperr.ErrEmailNotVerified
	}

	token := repo.GenerateToken()
	if err := s.repo.CreateSession(ctx, token, creds.UserID, s.now()); err != nil {
		return "", err
	}
	return token, nil
}

// SignOut deletes the session and turns sess anonymous.
func (s *Service) SignOut(ctx context.Context, sess *session.Session) error {
	if sess.Token != "" {
		if err := s.repo.DeleteSession(ctx, sess.Token); err != nil {
			return err
		}
	}
	sess.Reset()
	return nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Missing("Doğrulama kodu zorunludur.")
	}
	id, err := s.repo.VerifyEmail(ctx, token, s.now())
	if apperr.Is(err, apperr.NotFound) {
		return apperr.New(apperr.NotFound, "Doğrulama bağlantısı geçersiz veya daha önce kullanılmış.")
	}
	if err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("email verified")
	return nil
}

func (s *Service) Me(ctx context.Context, sess *session.Session) (*models.User, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, sess.UserID())
}

type ProfileInput struct {
	DisplayName       string   `json:"display_name" validate:"required,max=80"`
	Bio               string   `json:"bio" validate:"max=2000"`
	SkillsTags        []string `json:"skills_tags" validate:"max=20,dive,max=40"`
	AvailabilityHours *int     `json:"availability_hours" validate:"omitempty,gte=0,lte=168"`
}

// UpdateProfile changes the caller's own profile. The trust level is not
// part of the input and cannot be changed here.
func (s *Service) UpdateProfile(ctx context.Context, sess *session.Session, in ProfileInput) (*models.Profile, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Bio = strings.TrimSpace(in.Bio)
	in.SkillsTags = normalizeTags(in.SkillsTags)
	if err := s.check(in); err != nil {
		return nil, err
	}

	err := s.repo.UpdateProfile(ctx, sess.UserID(), repo.ProfileUpdate{
		DisplayName:       in.DisplayName,
		Bio:               in.Bio,
		SkillsTags:        in.SkillsTags,
		AvailabilityHours: in.AvailabilityHours,
	}, s.now())
	if err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, sess.UserID())
}

// PublicProfile returns the public fields of a user's profile to any
// signed-in caller.
func (s *Service) PublicProfile(ctx context.Context, sess *session.Session, userID string) (*models.PublicProfile, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	profiles, err := s.repo.PublicProfiles(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	p, ok := profiles[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

type TelegramLink struct {
	Code string `json:"code"`
	URL  string `json:"url,omitempty"`
}

// TelegramLink returns the code the caller sends to the bot as
// "/start <code>" to receive notifications in Telegram.
func (s *Service) TelegramLink(ctx context.Context, sess *session.Session) (*TelegramLink, error) {
	if err := requireAuth(sess); err != nil {
		return nil, err
	}
	link := &TelegramLink{Code: s.linkCode(sess.UserID())}
	if s.opts.BotUsername != "" {
		link.URL = "https://t.me/" + s.opts.BotUsername + "?start=" + link.Code
	}
	return link, nil
}

// LinkTelegram attaches chatID to the user a link code was issued for.
func (s *Service) LinkTelegram(ctx context.Context, code string, chatID int64) error {
	userID, sig, ok := strings.Cut(code, "_")
	if !ok || userID == "" || !hmac.Equal([]byte(s.linkCode(userID)), []byte(userID+"_"+sig)) {
		return apperr.Invalid("Bağlantı kodu geçersiz.")
	}
	if err := s.repo.SetTelegramChatID(ctx, userID, chatID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Int64("chat_id", chatID).Msg("telegram linked")
	return nil
}

func (s *Service) linkCode(userID string) string {
	mac := hmac.New(sha256.New, []byte(s.opts.LinkSecret))
	mac.Write([]byte("telegram:" + userID))
	return userID + "_" + hex.EncodeToString(mac.Sum(nil))[:16]
}
