// File: repositories/roster_repository.go
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/league-buysell/models"
)

var ErrRosterEntryNotFound = errors.New("session roster entry not found")

type SessionRosterRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, entry *models.SessionRoster) error
	Get(ctx context.Context, exec SQLExecutor, sessionID, userID int) (*models.SessionRoster, error)
	ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]*models.SessionRoster, error)
}

type sessionRosterRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSessionRosterRepository(db *sql.DB, dialect Dialect) SessionRosterRepository {
	return &sessionRosterRepository{db: db, dialect: dialect}
}

func (r *sessionRosterRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const rosterColumns = `session_id, user_id, is_regular, is_playing, team_assignment, position, joined_at, left_at, last_buy_sell_id`

func (r *sessionRosterRepository) scanEntry(rowScanner interface{ Scan(...interface{}) error }) (*models.SessionRoster, error) {
	var (
		e        models.SessionRoster
		leftAt   sql.NullTime
		lastBSID sql.NullInt64
	)
	if err := rowScanner.Scan(&e.SessionID, &e.UserID, &e.IsRegular, &e.IsPlaying,
		&e.TeamAssignment, &e.Position, &e.JoinedAt, &leftAt, &lastBSID); err != nil {
		return nil, err
	}
	if leftAt.Valid {
		t := leftAt.Time
		e.LeftAt = &t
	}
	e.LastBuySellID = nullIntPtr(lastBSID)
	return &e, nil
}

func (r *sessionRosterRepository) Upsert(ctx context.Context, exec SQLExecutor, entry *models.SessionRoster) error {
	var leftAt interface{}
	if entry.LeftAt != nil {
		leftAt = entry.LeftAt.UTC()
	}
	query := r.dialect.Rebind(`
		INSERT INTO session_rosters (` + rosterColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, user_id) DO UPDATE SET
			is_regular = excluded.is_regular,
			is_playing = excluded.is_playing,
			team_assignment = excluded.team_assignment,
			position = excluded.position,
			joined_at = excluded.joined_at,
			left_at = excluded.left_at,
			last_buy_sell_id = excluded.last_buy_sell_id`)
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		entry.SessionID, entry.UserID, entry.IsRegular, entry.IsPlaying,
		entry.TeamAssignment, entry.Position, entry.JoinedAt.UTC(), leftAt, entry.LastBuySellID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert roster entry (session %d, user %d): %w", entry.SessionID, entry.UserID, TranslateError(err))
	}
	return nil
}

func (r *sessionRosterRepository) Get(ctx context.Context, exec SQLExecutor, sessionID, userID int) (*models.SessionRoster, error) {
	query := r.dialect.Rebind(`SELECT ` + rosterColumns + ` FROM session_rosters WHERE session_id = ? AND user_id = ?`)
	e, err := r.scanEntry(r.getExecutor(exec).QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRosterEntryNotFound
		}
		return nil, fmt.Errorf("failed to get roster entry (session %d, user %d): %w", sessionID, userID, TranslateError(err))
	}
	return e, nil
}

func (r *sessionRosterRepository) ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]*models.SessionRoster, error) {
	query := r.dialect.Rebind(`SELECT ` + rosterColumns + ` FROM session_rosters WHERE session_id = ? ORDER BY team_assignment, position, user_id`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for session %d: %w", sessionID, TranslateError(err))
	}
	defer rows.Close()

	entries := make([]*models.SessionRoster, 0)
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
