package repo

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/elmasnur/nurcombinator/internal/models"
)

type NewUser struct {
	ID                string
	Email             string
	PasswordHash      string
	DisplayName       string
	VerificationToken string
	Verified          bool
}

// Credentials is what sign-in needs to check a password.
type Credentials struct {
	UserID       string
	PasswordHash string
	Verified     bool
}

func (r *Repo) CreateUser(ctx context.Context, u NewUser, now time.Time) error {
	var verifiedAt any
	if u.Verified {
		verifiedAt = now
	}
	var token any
	if u.VerificationToken != "" {
		token = u.VerificationToken
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, email_verified_at, verification_token) VALUES (?, ?, ?, ?, ?)`,
			u.ID, strings.ToLower(u.Email), u.PasswordHash, verifiedAt, token,
		); err != nil {
			return dbErr("insert user", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, display_name) VALUES (?, ?)`, u.ID, u.DisplayName,
		); err != nil {
			return dbErr("insert profile", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, u.ID, models.UserRoleMember,
		); err != nil {
			return dbErr("insert role", err)
		}
		return nil
	})
}

func (r *Repo) GetCredentials(ctx context.Context, email string) (*Credentials, error) {
	c := &Credentials{}
	var verifiedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash, email_verified_at FROM users WHERE email = ?`, strings.ToLower(email),
	).Scan(&c.UserID, &c.PasswordHash, &verifiedAt)
	if err != nil {
		return nil, dbErr("get credentials", err)
	}
	c.Verified = verifiedAt.Valid
	return c, nil
}

// VerifyEmail marks the owner of token verified and consumes the token.
func (r *Repo) VerifyEmail(ctx context.Context, token string, now time.Time) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET email_verified_at = ?, verification_token = NULL
		 WHERE verification_token = ? RETURNING id`, now, token,
	).Scan(&id)
	if err != nil {
		return "", dbErr("verify email", err)
	}
	return id, nil
}

func (r *Repo) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	var verifiedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, email_verified_at, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &verifiedAt, &u.CreatedAt)
	if err != nil {
		return nil, dbErr("get user", err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.EmailVerifiedAt = &t
	}

	if u.Profile, err = r.GetProfile(ctx, id); err != nil {
		return nil, err
	}
	if u.Roles, err = r.UserRoles(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

const profileColumns = `id, display_name, bio, skills_tags, availability_hours, trust_level, telegram_chat_id, created_at, updated_at`

func scanProfile(s scanner) (*models.Profile, error) {
	p := &models.Profile{}
	var skills string
	var hours sql.NullInt64
	if err := s.Scan(&p.ID, &p.DisplayName, &p.Bio, &skills, &hours, &p.TrustLevel, &p.TelegramChatID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.SkillsTags = decodeTags(skills)
	if hours.Valid {
		h := int(hours.Int64)
		p.AvailabilityHours = &h
	}
	return p, nil
}

func (r *Repo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, userID,
	))
	if err != nil {
		return nil, dbErr("get profile", err)
	}
	return p, nil
}

type ProfileUpdate struct {
	DisplayName       string
	Bio               string
	SkillsTags        []string
	AvailabilityHours *int
}

// UpdateProfile writes the self-editable profile fields. trust_level is not
// among them.
func (r *Repo) UpdateProfile(ctx context.Context, userID string, u ProfileUpdate, now time.Time) error {
	var hours any
	if u.AvailabilityHours != nil {
		hours = *u.AvailabilityHours
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET display_name = ?, bio = ?, skills_tags = ?, availability_hours = ?, updated_at = ? WHERE id = ?`,
		u.DisplayName, u.Bio, encodeTags(u.SkillsTags), hours, now, userID,
	)
	if err != nil {
		return dbErr("update profile", err)
	}
	return requireRow("update profile", res)
}

func (r *Repo) SetTrustLevel(ctx context.Context, userID string, level int, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET trust_level = ?, updated_at = ? WHERE id = ?`, level, now, userID,
	)
	if err != nil {
		return dbErr("set trust level", err)
	}
	return requireRow("set trust level", res)
}

func (r *Repo) SetTelegramChatID(ctx context.Context, userID string, chatID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET telegram_chat_id = ? WHERE id = ?`, chatID, userID)
	if err != nil {
		return dbErr("set telegram chat", err)
	}
	return requireRow("set telegram chat", res)
}

// PublicProfiles returns the public profile fields of the given users keyed
// by user id. Unknown ids are skipped.
func (r *Repo) PublicProfiles(ctx context.Context, ids []string) (map[string]models.PublicProfile, error) {
	out := make(map[string]models.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, dbErr("public profiles", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, dbErr("scan profile", err)
		}
		out[p.ID] = toPublic(p)
	}
	return out, rows.Err()
}

func toPublic(p *models.Profile) models.PublicProfile {
	return models.PublicProfile{
		ID:                p.ID,
		DisplayName:       p.DisplayName,
		Bio:               p.Bio,
		SkillsTags:        p.SkillsTags,
		AvailabilityHours: p.AvailabilityHours,
		TrustLevel:        p.TrustLevel,
	}
}

func (r *Repo) UserRoles(ctx context.Context, userID string) ([]models.UserRole, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, dbErr("get user roles", err)
	}
	defer rows.Close()

	roles := []models.UserRole{}
	for rows.Next() {
		var role models.UserRole
		if err := rows.Scan(&role); err != nil {
			return nil, dbErr("scan role", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *Repo) GrantRole(ctx context.Context, userID string, role models.UserRole) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?) ON CONFLICT (user_id, role) DO NOTHING`, userID, role,
	)
	return dbErr("grant role", err)
}

func (r *Repo) RevokeRole(ctx context.Context, userID string, role models.UserRole) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ? AND role = ?`, userID, role)
	return dbErr("revoke role", err)
}

func requireRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr(op, err)
	}
	if n == 0 {
		return dbErr(op, sql.ErrNoRows)
	}
	return nil
}
