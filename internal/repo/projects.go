package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/elmasnur/nurcombinator/internal/models"
)

type ProjectFilter struct {
	Search string
	Stage  models.StageKey
	Type   models.ProjectType
	Tag    string
	Limit  int
	Offset int
}

const projectColumns = `p.id, p.owner_id, p.slug, p.title, p.summary, p.description, p.type, p.visibility,
	p.current_stage, p.stage_updated_at, p.tags, p.cover_image_url, p.created_at, p.updated_at`

func scanProject(s scanner) (*models.Project, error) {
	p := &models.Project{}
	var tags string
	err := s.Scan(&p.ID, &p.OwnerID, &p.Slug, &p.Title, &p.Summary, &p.Description, &p.Type, &p.Visibility,
		&p.CurrentStage, &p.StageUpdatedAt, &tags, &p.CoverImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Tags = decodeTags(tags)
	return p, nil
}

// CreateProject inserts the project and its owner membership in a single
// transaction.
func (r *Repo) CreateProject(ctx context.Context, p *models.Project) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, owner_id, slug, title, summary, description, type, visibility,
				current_stage, stage_updated_at, tags, cover_image_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.OwnerID, p.Slug, p.Title, p.Summary, p.Description, p.Type, p.Visibility,
			p.CurrentStage, p.StageUpdatedAt, encodeTags(p.Tags), p.CoverImageURL, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return dbErr("insert project", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id, role) VALUES (?, ?, ?)`,
			p.ID, p.OwnerID, models.MemberOwner,
		)
		return dbErr("insert owner member", err)
	})
}

// GetProject loads a project regardless of visibility. Callers decide what
// the viewer may see.
func (r *Repo) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id))
	if err != nil {
		return nil, dbErr("get project", err)
	}
	return p, nil
}

// GetProjectBySlug loads a project the viewer is allowed to see. Hidden
// projects are reported as not found.
func (r *Repo) GetProjectBySlug(ctx context.Context, slug string, v Viewer) (*models.Project, error) {
	vis, args := visibleClause("p.visibility", "p.id", "p.owner_id", v)
	args = append([]any{slug}, args...)
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects p WHERE p.slug = ? AND `+vis, args...,
	))
	if err != nil {
		return nil, dbErr("get project by slug", err)
	}
	return p, nil
}

type ProjectUpdate struct {
	Title         string
	Summary       string
	Description   string
	Type          models.ProjectType
	Visibility    models.Visibility
	Tags          []string
	CoverImageURL string
}

func (r *Repo) UpdateProject(ctx context.Context, id string, u ProjectUpdate, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, summary = ?, description = ?, type = ?, visibility = ?, tags = ?, cover_image_url = ?, updated_at = ?
		WHERE id = ?`,
		u.Title, u.Summary, u.Description, u.Type, u.Visibility, encodeTags(u.Tags), u.CoverImageURL, now, id,
	)
	if err != nil {
		return dbErr("update project", err)
	}
	return requireRow("update project", res)
}

func (r *Repo) SetProjectStage(ctx context.Context, id string, stage models.StageKey, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET current_stage = ?, stage_updated_at = ?, updated_at = ? WHERE id = ?`,
		stage, now, now, id,
	)
	if err != nil {
		return dbErr("set project stage", err)
	}
	return requireRow("set project stage", res)
}

// ExploreProjects returns one page of projects visible to v, newest first,
// together with the exact number of matches.
func (r *Repo) ExploreProjects(ctx context.Context, f ProjectFilter, v Viewer) ([]models.Project, int, error) {
	vis, args := visibleClause("p.visibility", "p.id", "p.owner_id", v)
	conditions := []string{vis}

	if f.Search != "" {
		cond, arg := titleMatch("p.title", f.Search)
		conditions = append(conditions, cond)
		args = append(args, arg)
	}
	if f.Stage != "" {
		conditions = append(conditions, `p.current_stage = ?`)
		args = append(args, f.Stage)
	}
	if f.Type != "" {
		conditions = append(conditions, `p.type = ?`)
		args = append(args, f.Type)
	}
	if f.Tag != "" {
		conditions = append(conditions, `EXISTS (SELECT 1 FROM json_each(p.tags) WHERE json_each.value = ?)`)
		args = append(args, f.Tag)
	}
	where := ` WHERE ` + strings.Join(conditions, ` AND `)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects p`+where, args...).Scan(&total); err != nil {
		return nil, 0, dbErr("count projects", err)
	}

	query := `SELECT ` + projectColumns + ` FROM projects p` + where +
		fmt.Sprintf(` ORDER BY p.created_at DESC, p.rowid DESC LIMIT %d OFFSET %d`, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, dbErr("explore projects", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, dbErr("scan project", err)
		}
		projects = append(projects, *p)
	}
	return projects, total, rows.Err()
}

// ListMemberProjects returns every project the user belongs to.
func (r *Repo) ListMemberProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects p
		 WHERE p.owner_id = ? OR EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = ?)
		 ORDER BY p.created_at DESC, p.rowid DESC`, userID, userID,
	)
	if err != nil {
		return nil, dbErr("list member projects", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, dbErr("scan project", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}
