package repo

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Repo struct {
	db *sql.DB
}

func New(dbPath string) (*Repo, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repo{db: db}, nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func decodeTags(s string) []string {
	tags := []string{}
	_ = json.Unmarshal([]byte(s), &tags)
	return tags
}

// Viewer identifies who a read is performed for. Visibility of projects and
// open calls is decided from it inside the queries.
type Viewer struct {
	UserID   string
	Verified bool
}

// visibleClause restricts rows whose visibility column is visCol and whose
// project is projectCol (with owner ownerCol) to what v may see.
func visibleClause(visCol, projectCol, ownerCol string, v Viewer) (string, []any) {
	verified := 0
	if v.Verified {
		verified = 1
	}
	clause := fmt.Sprintf(`(%[1]s = 'public'
		OR (%[1]s = 'verified_only' AND ? = 1)
		OR (? <> '' AND (%[3]s = ? OR EXISTS (SELECT 1 FROM project_members vm WHERE vm.project_id = %[2]s AND vm.user_id = ?))))`,
		visCol, projectCol, ownerCol)
	return clause, []any{verified, v.UserID, v.UserID, v.UserID}
}

// Pagination turns a 1-based page and size into LIMIT/OFFSET values.
func Pagination(page, pageSize, defaultSize, maxSize int) (limit, offset, normPage int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return pageSize, (page - 1) * pageSize, page
}

type scanner interface {
	Scan(dest ...any) error
}
