package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/elmasnur/nurcombinator/internal/models"
)

// MemberRole returns the user's role in the project and whether a membership
// row exists.
func (r *Repo) MemberRole(ctx context.Context, projectID, userID string) (models.MemberRole, bool, error) {
	var role models.MemberRole
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dbErr("get member role", err)
	}
	return role, true, nil
}

// AddMember inserts a membership row. An existing membership is left as is,
// so a role is never downgraded by a later insert.
func (r *Repo) AddMember(ctx context.Context, projectID, userID string, role models.MemberRole) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role) VALUES (?, ?, ?)
		 ON CONFLICT (project_id, user_id) DO NOTHING`, projectID, userID, role,
	)
	if err != nil {
		return false, dbErr("add member", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id, user_id, role, created_at FROM project_members WHERE project_id = ? ORDER BY created_at, rowid`,
		projectID,
	)
	if err != nil {
		return nil, dbErr("list members", err)
	}
	defer rows.Close()

	members := []models.ProjectMember{}
	for rows.Next() {
		var m models.ProjectMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, dbErr("scan member", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// MemberIDsWithRoles returns the ids of project members holding any of roles.
func (r *Repo) MemberIDsWithRoles(ctx context.Context, projectID string, roles ...models.MemberRole) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	args := []any{projectID}
	for _, role := range roles {
		args = append(args, role)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roles)), ",")

	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM project_members WHERE project_id = ? AND role IN (`+placeholders+`) ORDER BY created_at, rowid`,
		args...,
	)
	if err != nil {
		return nil, dbErr("list member ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbErr("scan member id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
