package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrSerializationFailure means the database aborted the statement because a
	// concurrent transaction touched the same rows. The caller may retry.
	ErrSerializationFailure = errors.New("serialization failure")
	ErrDuplicate            = errors.New("duplicate key")
	ErrReferenceInvalid     = errors.New("referenced row does not exist")
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect adapts queries written with '?' placeholders to the target driver.
type Dialect struct {
	Driver   string
	bindType int
}

func NewDialect(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres:
		return Dialect{Driver: driver, bindType: sqlx.DOLLAR}, nil
	case DriverSQLite:
		return Dialect{Driver: driver, bindType: sqlx.QUESTION}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.bindType, query)
}

// ForUpdate returns the row-lock suffix. SQLite has none; its transactions are
// opened IMMEDIATE instead, which takes the write lock up front.
func (d Dialect) ForUpdate() string {
	if d.Driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

// TranslateError maps driver errors onto repository sentinels and leaves
// everything else untouched.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %v", ErrSerializationFailure, err)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrReferenceInvalid, pqErr.Constraint)
		}
		return err
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %v", ErrSerializationFailure, err)
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrReferenceInvalid, err)
		}
	}
	return err
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
