package repo

import (
	"context"

	"github.com/elmasnur/nurcombinator/internal/models"
)

func (r *Repo) ModerationStats(ctx context.Context) (*models.ModerationStats, error) {
	s := &models.ModerationStats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM users`, &s.UserCount},
		{`SELECT COUNT(*) FROM projects`, &s.ProjectCount},
		{`SELECT COUNT(*) FROM open_calls WHERE status = 'open'`, &s.OpenCallCount},
		{`SELECT COUNT(*) FROM applications`, &s.ApplicationCount},
		{`SELECT COUNT(*) FROM reports WHERE status = 'open'`, &s.OpenReportCount},
	}
	for _, c := range counts {
		if err := r.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, dbErr("moderation stats", err)
		}
	}
	return s, nil
}
