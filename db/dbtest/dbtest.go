// Package dbtest opens throwaway SQLite databases with the full schema for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dosada05/league-buysell/db"
	"github.com/Dosada05/league-buysell/models"
	"github.com/Dosada05/league-buysell/repositories"
)

// Store bundles a migrated database with its repositories.
type Store struct {
	DB       *sql.DB
	Dialect  repositories.Dialect
	Sessions repositories.SessionRepository
	BuySells repositories.BuySellRepository
	Rosters  repositories.SessionRosterRepository
	Users    repositories.UserRepository
}

func Open(t testing.TB) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "league.db")
	conn, err := db.OpenSQLite(path, 5*time.Second)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(context.Background(), conn, repositories.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	dialect, err := repositories.NewDialect(repositories.DriverSQLite)
	if err != nil {
		t.Fatalf("dialect: %v", err)
	}
	return &Store{
		DB:       conn,
		Dialect:  dialect,
		Sessions: repositories.NewSessionRepository(conn, dialect),
		BuySells: repositories.NewBuySellRepository(conn, dialect),
		Rosters:  repositories.NewSessionRosterRepository(conn, dialect),
		Users:    repositories.NewUserRepository(conn, dialect),
	}
}

// User inserts an active member. Email is derived from the names.
func (s *Store) User(t testing.TB, first, last string, opts ...func(*models.User)) *models.User {
	t.Helper()
	u := &models.User{
		FirstName: first,
		LastName:  last,
		Email:     fmt.Sprintf("%s.%s.%d@example.com", first, last, time.Now().UnixNano()),
		Active:    true,
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := s.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s %s: %v", first, last, err)
	}
	return u
}

func Preferred(u *models.User)     { u.Preferred = true }
func PreferredPlus(u *models.User) { u.PreferredPlus = true }
func LockerRoom13(u *models.User)  { u.LockerRoom13 = true }
func Inactive(u *models.User)      { u.Active = false }

func (s *Store) Session(t testing.TB, date time.Time, buyDayMinimum int, note string) *models.Session {
	t.Helper()
	sess := &models.Session{Date: date, BuyDayMinimum: buyDayMinimum}
	if note != "" {
		sess.Note = &note
	}
	if err := s.Sessions.Create(context.Background(), nil, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

// Spot seats a user on a session roster.
func (s *Store) Spot(t testing.TB, sessionID, userID int, regular bool, team, position string) *models.SessionRoster {
	t.Helper()
	e := &models.SessionRoster{
		SessionID:      sessionID,
		UserID:         userID,
		IsRegular:      regular,
		IsPlaying:      true,
		TeamAssignment: team,
		Position:       position,
		JoinedAt:       time.Now(),
	}
	if err := s.Rosters.Upsert(context.Background(), nil, e); err != nil {
		t.Fatalf("seat user %d in session %d: %v", userID, sessionID, err)
	}
	return e
}
