package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/league-buysell/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, s *models.Session) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Session, error)
	// GetForUpdate reads the session and, on Postgres, row-locks it until the
	// surrounding transaction ends. Marketplace submits for one session
	// serialize on this lock.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int) (*models.Session, error)
	ListFutureNonCancelled(ctx context.Context, now time.Time) ([]*models.Session, error)
}

type sessionRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSessionRepository(db *sql.DB, dialect Dialect) SessionRepository {
	return &sessionRepository{db: db, dialect: dialect}
}

func (r *sessionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const sessionColumns = `id, session_date, buy_day_minimum, note, created_at`

func (r *sessionRepository) scanSession(rowScanner interface{ Scan(...interface{}) error }) (*models.Session, error) {
	var s models.Session
	var note sql.NullString
	if err := rowScanner.Scan(&s.ID, &s.Date, &s.BuyDayMinimum, &note, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Note = nullStringPtr(note)
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, exec SQLExecutor, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	query := r.dialect.Rebind(`
		INSERT INTO sessions (session_date, buy_day_minimum, note, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		s.Date.UTC(), s.BuyDayMinimum, s.Note, s.CreatedAt.UTC(),
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", TranslateError(err))
	}
	return nil
}

func (r *sessionRepository) getOne(ctx context.Context, exec SQLExecutor, query string, id int) (*models.Session, error) {
	s, err := r.scanSession(exec.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %d: %w", id, TranslateError(err))
	}
	return s, nil
}

func (r *sessionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Session, error) {
	return r.getOne(ctx, r.getExecutor(exec), `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
}

func (r *sessionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int) (*models.Session, error) {
	if tx == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	return r.getOne(ctx, tx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`+r.dialect.ForUpdate(), id)
}

func (r *sessionRepository) ListFutureNonCancelled(ctx context.Context, now time.Time) ([]*models.Session, error) {
	query := r.dialect.Rebind(`
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE session_date > ? AND LOWER(COALESCE(note, '')) NOT LIKE '%cancelled%'
		ORDER BY session_date ASC, id ASC`)
	rows, err := r.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming sessions: %w", TranslateError(err))
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
