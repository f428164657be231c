package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/elmasnur/nurcombinator/internal/apperr"
)

// dbErr wraps err with op and classifies it so callers and the HTTP layer can
// tell constraint failures apart from plain I/O errors.
func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", op, err)

	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, wrapped)
	}
	if code := sqliteCode(err); code != "" {
		return apperr.WithCode(code, wrapped)
	}
	return wrapped
}

func sqliteCode(err error) string {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return ""
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return apperr.CodeUniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return apperr.CodeForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return apperr.CodeNotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return apperr.CodeInvalidText
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return ""
	}

	// Extended codes disabled: fall back to the message.
	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return apperr.CodeUniqueViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return apperr.CodeForeignKeyViolation
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return apperr.CodeNotNullViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return apperr.CodeInvalidText
	}
	return ""
}
