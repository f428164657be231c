package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/elmasnur/nurcombinator/internal/models"
)

func (r *Repo) ListStages(ctx context.Context) ([]models.Stage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, title, description, position FROM stages ORDER BY position`)
	if err != nil {
		return nil, dbErr("list stages", err)
	}
	defer rows.Close()

	stages := []models.Stage{}
	for rows.Next() {
		var s models.Stage
		if err := rows.Scan(&s.Key, &s.Title, &s.Description, &s.Position); err != nil {
			return nil, dbErr("scan stage", err)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// UpdateStageText changes the title and description of a known stage. The
// set of stages and their order are fixed by the schema.
func (r *Repo) UpdateStageText(ctx context.Context, key models.StageKey, title, description string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stages SET title = ?, description = ? WHERE key = ?`, title, description, key,
	)
	if err != nil {
		return dbErr("update stage", err)
	}
	return requireRow("update stage", res)
}

func (r *Repo) UpsertChecklist(ctx context.Context, key models.StageKey, items []models.ChecklistItem) error {
	if items == nil {
		items = []models.ChecklistItem{}
	}
	data, _ := json.Marshal(items)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stage_checklists (stage_key, items) VALUES (?, ?)
		 ON CONFLICT (stage_key) DO UPDATE SET items = excluded.items`, key, string(data),
	)
	return dbErr("upsert checklist", err)
}

// GetChecklist returns the checklist of a stage, or an empty one when none is
// defined.
func (r *Repo) GetChecklist(ctx context.Context, key models.StageKey) (*models.StageChecklist, error) {
	cl := &models.StageChecklist{StageKey: key, Items: []models.ChecklistItem{}}
	var items string
	err := r.db.QueryRowContext(ctx, `SELECT items FROM stage_checklists WHERE stage_key = ?`, key).Scan(&items)
	if errors.Is(err, sql.ErrNoRows) {
		return cl, nil
	}
	if err != nil {
		return nil, dbErr("get checklist", err)
	}
	_ = json.Unmarshal([]byte(items), &cl.Items)
	return cl, nil
}

func (r *Repo) UpsertNeed(ctx context.Context, n models.Need) error {
	var stage any
	if n.StageKey != nil {
		stage = *n.StageKey
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO needs_catalog (id, category, title, description, stage_key, is_active) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET category = excluded.category, title = excluded.title,
			description = excluded.description, stage_key = excluded.stage_key, is_active = excluded.is_active`,
		n.ID, n.Category, n.Title, n.Description, stage, n.IsActive,
	)
	return dbErr("upsert need", err)
}

const needColumns = `n.id, n.category, n.title, n.description, n.stage_key, n.is_active`

func scanNeed(s scanner) (*models.Need, error) {
	n := &models.Need{}
	var stage sql.NullString
	if err := s.Scan(&n.ID, &n.Category, &n.Title, &n.Description, &stage, &n.IsActive); err != nil {
		return nil, err
	}
	if stage.Valid {
		k := models.StageKey(stage.String)
		n.StageKey = &k
	}
	return n, nil
}

func (r *Repo) queryNeeds(ctx context.Context, op, query string, args ...any) ([]models.Need, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(op, err)
	}
	defer rows.Close()

	needs := []models.Need{}
	for rows.Next() {
		n, err := scanNeed(rows)
		if err != nil {
			return nil, dbErr(op, err)
		}
		needs = append(needs, *n)
	}
	return needs, rows.Err()
}

// ListNeedsForStage returns active catalog entries scoped to stage or to no
// stage at all.
func (r *Repo) ListNeedsForStage(ctx context.Context, stage models.StageKey) ([]models.Need, error) {
	return r.queryNeeds(ctx, "list needs for stage",
		`SELECT `+needColumns+` FROM needs_catalog n
		 WHERE n.is_active = 1 AND (n.stage_key = ? OR n.stage_key IS NULL)
		 ORDER BY n.stage_key IS NULL, n.category, n.title`, stage,
	)
}

// ListProjectNeeds returns the catalog entries the project has selected.
func (r *Repo) ListProjectNeeds(ctx context.Context, projectID string) ([]models.Need, error) {
	return r.queryNeeds(ctx, "list project needs",
		`SELECT `+needColumns+` FROM needs_catalog n
		 JOIN project_needs pn ON pn.need_id = n.id
		 WHERE pn.project_id = ?
		 ORDER BY n.category, n.title`, projectID,
	)
}

func (r *Repo) SelectedNeedIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT need_id FROM project_needs WHERE project_id = ? ORDER BY need_id`, projectID)
	if err != nil {
		return nil, dbErr("selected needs", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbErr("scan need id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ToggleNeed removes the project/need link if present and inserts it
// otherwise. It reports whether the need is selected afterwards.
func (r *Repo) ToggleNeed(ctx context.Context, projectID, needID string) (bool, error) {
	var selected bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM project_needs WHERE project_id = ? AND need_id = ?`, projectID, needID)
		if err != nil {
			return dbErr("delete project need", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			selected = false
			return nil
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_needs (project_id, need_id) VALUES (?, ?)`, projectID, needID); err != nil {
			return dbErr("insert project need", err)
		}
		selected = true
		return nil
	})
	return selected, err
}
