package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/elmasnur/nurcombinator/internal/models"
)

func (r *Repo) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.Payload == nil {
		n.Payload = map[string]any{}
	}
	data, _ := json.Marshal(n.Payload)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, string(data), n.CreatedAt,
	)
	return dbErr("create notification", err)
}

func (r *Repo) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, payload, read_at, created_at FROM notifications
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, dbErr("list notifications", err)
	}
	defer rows.Close()

	notifs := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var payload string
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &payload, &readAt, &n.CreatedAt); err != nil {
			return nil, dbErr("scan notification", err)
		}
		_ = json.Unmarshal([]byte(payload), &n.Payload)
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func (r *Repo) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`, userID,
	).Scan(&count)
	return count, dbErr("unread notification count", err)
}

// MarkNotificationRead sets read_at on one of the user's unread
// notifications. Already-read rows and rows of other users are untouched.
func (r *Repo) MarkNotificationRead(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE id = ? AND user_id = ? AND read_at IS NULL`, now, id, userID,
	)
	if err != nil {
		return false, dbErr("mark notification read", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) MarkNotificationsRead(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`, now, userID,
	)
	if err != nil {
		return 0, dbErr("mark notifications read", err)
	}
	return res.RowsAffected()
}
