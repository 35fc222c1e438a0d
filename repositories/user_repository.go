package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/league-buysell/models"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

// UserRepository is read-mostly: profiles are owned by the account service,
// Create exists for seeding.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	ListByIDs(ctx context.Context, ids []int) (map[int]*models.User, error)
	ListLockerRoom13(ctx context.Context) ([]*models.User, error)
}

type userRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewUserRepository(db *sql.DB, dialect Dialect) UserRepository {
	return &userRepository{db: db, dialect: dialect}
}

const userColumns = `id, first_name, last_name, email, active, preferred, preferred_plus, locker_room_13, created_at`

func (r *userRepository) scanUser(rowScanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := rowScanner.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
		&u.Active, &u.Preferred, &u.PreferredPlus, &u.LockerRoom13, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	query := r.dialect.Rebind(`
		INSERT INTO users (first_name, last_name, email, active, preferred, preferred_plus, locker_room_13, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.Active,
		user.Preferred, user.PreferredPlus, user.LockerRoom13, user.CreatedAt.UTC(),
	).Scan(&user.ID)
	if err != nil {
		err = TranslateError(err)
		if errors.Is(err, ErrDuplicate) {
			return ErrUserEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	if exec == nil {
		exec = r.db
	}
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	u, err := r.scanUser(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, TranslateError(err))
	}
	return u, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []int) (map[int]*models.User, error) {
	users := make(map[int]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build user lookup: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by id: %w", TranslateError(err))
	}
	defer rows.Close()

	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}

// ListLockerRoom13 returns every LockerRoom13 member, active or not.
func (r *userRepository) ListLockerRoom13(ctx context.Context) ([]*models.User, error) {
	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE locker_room_13 = ? ORDER BY last_name, first_name, id`)
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list LockerRoom13 users: %w", TranslateError(err))
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
