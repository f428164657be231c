package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/elmasnur/nurcombinator/internal/models"
)

const applicationColumns = `a.id, a.open_call_id, a.applicant_id, a.message, a.links, a.status, a.created_at, a.updated_at`

func scanApplication(s scanner, extra ...any) (*models.Application, error) {
	a := &models.Application{}
	var links string
	dest := append([]any{&a.ID, &a.OpenCallID, &a.ApplicantID, &a.Message, &links, &a.Status, &a.CreatedAt, &a.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	a.Links = decodeTags(links)
	return a, nil
}

func (r *Repo) CreateApplication(ctx context.Context, a *models.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, open_call_id, applicant_id, message, links, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OpenCallID, a.ApplicantID, a.Message, encodeTags(a.Links), a.Status, a.CreatedAt, a.UpdatedAt,
	)
	return dbErr("insert application", err)
}

func (r *Repo) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.id = ?`, id,
	))
	if err != nil {
		return nil, dbErr("get application", err)
	}
	return a, nil
}

// HasApplied reports whether the applicant already has an application for
// the call, whatever its status.
func (r *Repo) HasApplied(ctx context.Context, openCallID, applicantID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM applications WHERE open_call_id = ? AND applicant_id = ?`, openCallID, applicantID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, dbErr("has applied", err)
	}
	return true, nil
}

// TransitionApplication moves an application from one status to another.
// It returns false, without changing anything, when the row is no longer in
// the from status.
func (r *Repo) TransitionApplication(ctx context.Context, id string, from, to models.ApplicationStatus, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, to, now, id, from,
	)
	if err != nil {
		return false, dbErr("transition application", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbErr("transition application", err)
	}
	return n > 0, nil
}

// AcceptApplication moves a submitted application to accepted and adds the
// applicant to the project with role in one transaction. An existing
// membership is left as it is. It reports false, changing nothing, when the
// application is no longer in from.
func (r *Repo) AcceptApplication(ctx context.Context, id string, from models.ApplicationStatus, projectID, applicantID string, role models.MemberRole, now time.Time) (bool, error) {
	accepted := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE applications SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			models.ApplicationAccepted, now, id, from,
		)
		if err != nil {
			return dbErr("accept application", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dbErr("accept application", err)
		}
		if n == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id, role) VALUES (?, ?, ?)
			 ON CONFLICT (project_id, user_id) DO NOTHING`, projectID, applicantID, role,
		); err != nil {
			return dbErr("add member", err)
		}
		accepted = true
		return nil
	})
	return accepted, err
}

// ListApplicantApplications returns the applicant's applications with the
// call title and project slug/title filled in.
func (r *Repo) ListApplicantApplications(ctx context.Context, applicantID string) ([]models.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+`, c.title, p.id, p.slug, p.title
		 FROM applications a
		 JOIN open_calls c ON c.id = a.open_call_id
		 JOIN projects p ON p.id = c.project_id
		 WHERE a.applicant_id = ?
		 ORDER BY a.created_at DESC, a.rowid DESC`, applicantID,
	)
	if err != nil {
		return nil, dbErr("list applicant applications", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var callTitle, projectID, projectSlug, projectTitle string
		a, err := scanApplication(rows, &callTitle, &projectID, &projectSlug, &projectTitle)
		if err != nil {
			return nil, dbErr("scan application", err)
		}
		a.OpenCallTitle, a.ProjectID, a.ProjectSlug, a.ProjectTitle = callTitle, projectID, projectSlug, projectTitle
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// ListProjectApplications returns every application across the project's
// calls, each with the applicant's public profile only.
func (r *Repo) ListProjectApplications(ctx context.Context, projectID string) ([]models.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+`, c.title,
			COALESCE(pr.display_name, ''), COALESCE(pr.skills_tags, '[]'), pr.availability_hours
		 FROM applications a
		 JOIN open_calls c ON c.id = a.open_call_id
		 LEFT JOIN profiles pr ON pr.id = a.applicant_id
		 WHERE c.project_id = ?
		 ORDER BY a.created_at DESC, a.rowid DESC`, projectID,
	)
	if err != nil {
		return nil, dbErr("list project applications", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var callTitle, name, skills string
		var hours sql.NullInt64
		a, err := scanApplication(rows, &callTitle, &name, &skills, &hours)
		if err != nil {
			return nil, dbErr("scan application", err)
		}
		a.OpenCallTitle = callTitle
		a.ProjectID = projectID
		applicant := &models.PublicProfile{ID: a.ApplicantID, DisplayName: name, SkillsTags: decodeTags(skills)}
		if hours.Valid {
			h := int(hours.Int64)
			applicant.AvailabilityHours = &h
		}
		a.Applicant = applicant
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}
