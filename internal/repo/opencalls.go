package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/elmasnur/nurcombinator/internal/models"
)

type OpenCallFilter struct {
	Search       string
	CallType     models.CallType
	LocationMode models.LocationMode
	Tag          string
	Limit        int
	Offset       int
}

const openCallColumns = `c.id, c.project_id, COALESCE(c.created_by, ''), c.title, c.description, c.commitment, c.call_type,
	c.location_mode, c.visibility, c.status, c.apply_until, c.tags, c.created_at, c.updated_at`

func scanOpenCall(s scanner) (*models.OpenCall, error) {
	c := &models.OpenCall{}
	var tags string
	var applyUntil sql.NullTime
	err := s.Scan(&c.ID, &c.ProjectID, &c.CreatedBy, &c.Title, &c.Description, &c.Commitment, &c.CallType,
		&c.LocationMode, &c.Visibility, &c.Status, &applyUntil, &tags, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Tags = decodeTags(tags)
	if applyUntil.Valid {
		t := applyUntil.Time
		c.ApplyUntil = &t
	}
	return c, nil
}

// callVisible joins visibility of the call and of its project.
func callVisible(v Viewer) (string, []any) {
	projVis, projArgs := visibleClause("p.visibility", "p.id", "p.owner_id", v)
	callVis, callArgs := visibleClause("c.visibility", "c.project_id", "p.owner_id", v)
	return projVis + ` AND ` + callVis, append(projArgs, callArgs...)
}

func (r *Repo) CreateOpenCall(ctx context.Context, c *models.OpenCall) error {
	var applyUntil any
	if c.ApplyUntil != nil {
		applyUntil = *c.ApplyUntil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO open_calls (id, project_id, created_by, title, description, commitment, call_type,
			location_mode, visibility, status, apply_until, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.CreatedBy, c.Title, c.Description, c.Commitment, c.CallType,
		c.LocationMode, c.Visibility, c.Status, applyUntil, encodeTags(c.Tags), c.CreatedAt, c.UpdatedAt,
	)
	return dbErr("insert open call", err)
}

// GetOpenCall loads a call regardless of visibility.
func (r *Repo) GetOpenCall(ctx context.Context, id string) (*models.OpenCall, error) {
	c, err := scanOpenCall(r.db.QueryRowContext(ctx,
		`SELECT `+openCallColumns+` FROM open_calls c WHERE c.id = ?`, id,
	))
	if err != nil {
		return nil, dbErr("get open call", err)
	}
	return c, nil
}

// GetVisibleOpenCall loads a call only when v may see both it and its
// project.
func (r *Repo) GetVisibleOpenCall(ctx context.Context, id string, v Viewer) (*models.OpenCall, error) {
	vis, args := callVisible(v)
	args = append([]any{id}, args...)
	c, err := scanOpenCall(r.db.QueryRowContext(ctx,
		`SELECT `+openCallColumns+` FROM open_calls c JOIN projects p ON p.id = c.project_id
		 WHERE c.id = ? AND `+vis, args...,
	))
	if err != nil {
		return nil, dbErr("get visible open call", err)
	}
	return c, nil
}

func (r *Repo) SetOpenCallStatus(ctx context.Context, id string, status models.CallStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE open_calls SET status = ?, updated_at = ? WHERE id = ?`, status, now, id,
	)
	if err != nil {
		return dbErr("set open call status", err)
	}
	return requireRow("set open call status", res)
}

// ListProjectOpenCalls returns the project's calls visible to v. With
// onlyOpen set, paused and closed calls are left out.
func (r *Repo) ListProjectOpenCalls(ctx context.Context, projectID string, onlyOpen bool, v Viewer) ([]models.OpenCall, error) {
	vis, visArgs := callVisible(v)
	query := `SELECT ` + openCallColumns + ` FROM open_calls c JOIN projects p ON p.id = c.project_id
		WHERE c.project_id = ? AND ` + vis
	args := append([]any{projectID}, visArgs...)
	if onlyOpen {
		query += ` AND c.status = 'open'`
	}
	query += ` ORDER BY c.created_at DESC, c.rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("list project open calls", err)
	}
	defer rows.Close()

	calls := []models.OpenCall{}
	for rows.Next() {
		c, err := scanOpenCall(rows)
		if err != nil {
			return nil, dbErr("scan open call", err)
		}
		calls = append(calls, *c)
	}
	return calls, rows.Err()
}

// ExploreOpenCalls lists open calls visible to v, newest first, with the
// exact number of matches.
func (r *Repo) ExploreOpenCalls(ctx context.Context, f OpenCallFilter, v Viewer) ([]models.OpenCall, int, error) {
	vis, args := callVisible(v)
	conditions := []string{`c.status = 'open'`, vis}

	if f.Search != "" {
		cond, arg := titleMatch("c.title", f.Search)
		conditions = append(conditions, cond)
		args = append(args, arg)
	}
	if f.CallType != "" {
		conditions = append(conditions, `c.call_type = ?`)
		args = append(args, f.CallType)
	}
	if f.LocationMode != "" {
		conditions = append(conditions, `c.location_mode = ?`)
		args = append(args, f.LocationMode)
	}
	if f.Tag != "" {
		conditions = append(conditions, `EXISTS (SELECT 1 FROM json_each(c.tags) WHERE json_each.value = ?)`)
		args = append(args, f.Tag)
	}
	from := ` FROM open_calls c JOIN projects p ON p.id = c.project_id WHERE ` + strings.Join(conditions, ` AND `)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, dbErr("count open calls", err)
	}

	query := `SELECT ` + openCallColumns + from +
		fmt.Sprintf(` ORDER BY c.created_at DESC, c.rowid DESC LIMIT %d OFFSET %d`, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, dbErr("explore open calls", err)
	}
	defer rows.Close()

	calls := []models.OpenCall{}
	for rows.Next() {
		c, err := scanOpenCall(rows)
		if err != nil {
			return nil, 0, dbErr("scan open call", err)
		}
		calls = append(calls, *c)
	}
	return calls, total, rows.Err()
}
