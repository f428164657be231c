package repo

import (
	"context"
	"time"

	"github.com/elmasnur/nurcombinator/internal/models"
)

func (r *Repo) CreateReport(ctx context.Context, rep *models.Report) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, reporter_id, target_type, target_id, reason, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.ReporterID, rep.TargetType, rep.TargetID, rep.Reason, rep.Status, rep.CreatedAt, rep.UpdatedAt,
	)
	return dbErr("create report", err)
}

func (r *Repo) ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, reporter_id, target_type, target_id, reason, status, created_at, updated_at FROM reports`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("list reports", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.ReporterID, &rep.TargetType, &rep.TargetID, &rep.Reason, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, dbErr("scan report", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *Repo) SetReportStatus(ctx context.Context, id string, status models.ReportStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`, status, now, id,
	)
	if err != nil {
		return dbErr("set report status", err)
	}
	return requireRow("set report status", res)
}
