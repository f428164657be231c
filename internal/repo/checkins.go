package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/elmasnur/nurcombinator/internal/models"
)

const checkinColumns = `id, project_id, user_id, week_start, main_metric_name, main_metric_value,
	deliverable_link, blocker, help_request, created_at`

func scanCheckin(s scanner) (*models.Checkin, error) {
	c := &models.Checkin{}
	err := s.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.WeekStart, &c.MainMetricName, &c.MainMetricValue,
		&c.DeliverableLink, &c.Blocker, &c.HelpRequest, &c.CreatedAt)
	return c, err
}

// UpsertCheckin stores the check-in for (project, week_start). A second write
// in the same week replaces every field of the first and keeps its id.
func (r *Repo) UpsertCheckin(ctx context.Context, c *models.Checkin) (*models.Checkin, error) {
	out, err := scanCheckin(r.db.QueryRowContext(ctx,
		`INSERT INTO checkins (id, project_id, user_id, week_start, main_metric_name, main_metric_value,
			deliverable_link, blocker, help_request, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, week_start) DO UPDATE SET
			user_id = excluded.user_id,
			main_metric_name = excluded.main_metric_name,
			main_metric_value = excluded.main_metric_value,
			deliverable_link = excluded.deliverable_link,
			blocker = excluded.blocker,
			help_request = excluded.help_request
		 RETURNING `+checkinColumns,
		c.ID, c.ProjectID, c.UserID, c.WeekStart, c.MainMetricName, c.MainMetricValue,
		c.DeliverableLink, c.Blocker, c.HelpRequest, c.CreatedAt,
	))
	if err != nil {
		return nil, dbErr("upsert checkin", err)
	}
	return out, nil
}

// GetCheckin returns the check-in of a week, or nil when there is none.
func (r *Repo) GetCheckin(ctx context.Context, projectID, weekStart string) (*models.Checkin, error) {
	c, err := scanCheckin(r.db.QueryRowContext(ctx,
		`SELECT `+checkinColumns+` FROM checkins WHERE project_id = ? AND week_start = ?`, projectID, weekStart,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr("get checkin", err)
	}
	return c, nil
}

func (r *Repo) ListCheckins(ctx context.Context, projectID string, limit int) ([]models.Checkin, error) {
	if limit <= 0 {
		limit = 12
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+checkinColumns+` FROM checkins WHERE project_id = ? ORDER BY week_start DESC LIMIT ?`, projectID, limit,
	)
	if err != nil {
		return nil, dbErr("list checkins", err)
	}
	defer rows.Close()

	checkins := []models.Checkin{}
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, dbErr("scan checkin", err)
		}
		checkins = append(checkins, *c)
	}
	return checkins, rows.Err()
}
