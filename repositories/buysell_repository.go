package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/league-buysell/models"
)

var (
	ErrBuySellNotFound = errors.New("buy/sell order not found")
	// ErrBuySellConflict means a guarded update found the order in a different
	// state than the caller read, i.e. someone else got there first.
	ErrBuySellConflict = errors.New("buy/sell order was modified concurrently")
)

type BuySellRepository interface {
	Insert(ctx context.Context, exec SQLExecutor, b *models.BuySell) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BuySell, error)
	// GetForUpdate reads the order and row-locks it (Postgres) for the rest of tx.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int) (*models.BuySell, error)
	ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]*models.BuySell, error)
	// FindOldestUnmatchedSell returns the seller-only order a buyer would consume,
	// oldest first with ties broken by id. excludeUserID skips the caller's own
	// offers. Returns nil, nil when the queue is empty.
	FindOldestUnmatchedSell(ctx context.Context, exec SQLExecutor, sessionID, excludeUserID int) (*models.BuySell, error)
	FindOldestUnmatchedBuy(ctx context.Context, exec SQLExecutor, sessionID, excludeUserID int) (*models.BuySell, error)
	// FillBuyer and FillSeller complete a single-sided order. They only touch rows
	// whose missing side is still empty and return ErrBuySellConflict otherwise.
	FillBuyer(ctx context.Context, exec SQLExecutor, b *models.BuySell) error
	FillSeller(ctx context.Context, exec SQLExecutor, b *models.BuySell) error
	// UpdatePayment writes both payment flags on a matched order.
	UpdatePayment(ctx context.Context, exec SQLExecutor, b *models.BuySell) error
	// DeleteUnmatched removes a single-sided order. Matched orders are never removed.
	DeleteUnmatched(ctx context.Context, exec SQLExecutor, id int) error
}

type buySellRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewBuySellRepository(db *sql.DB, dialect Dialect) BuySellRepository {
	return &buySellRepository{db: db, dialect: dialect}
}

func (r *buySellRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const buySellColumns = `
	id, session_id, buyer_user_id, seller_user_id, price, payment_method,
	payment_sent, payment_received, buyer_note, seller_note,
	buyer_note_flagged, seller_note_flagged, team_assignment,
	created_at, updated_at, created_by_user_id, updated_by_user_id`

func (r *buySellRepository) scanBuySell(rowScanner interface{ Scan(...interface{}) error }) (*models.BuySell, error) {
	var (
		b                                       models.BuySell
		buyer, seller, createdBy, updatedBy     sql.NullInt64
		price                                   sql.NullFloat64
		method, buyerNote, sellerNote, teamName sql.NullString
	)
	err := rowScanner.Scan(
		&b.ID, &b.SessionID, &buyer, &seller, &price, &method,
		&b.PaymentSent, &b.PaymentReceived, &buyerNote, &sellerNote,
		&b.BuyerNoteFlagged, &b.SellerNoteFlagged, &teamName,
		&b.CreatedAt, &b.UpdatedAt, &createdBy, &updatedBy,
	)
	if err != nil {
		return nil, err
	}
	b.BuyerUserID = nullIntPtr(buyer)
	b.SellerUserID = nullIntPtr(seller)
	b.Price = nullFloatPtr(price)
	b.PaymentMethod = nullStringPtr(method)
	b.BuyerNote = nullStringPtr(buyerNote)
	b.SellerNote = nullStringPtr(sellerNote)
	b.TeamAssignment = nullStringPtr(teamName)
	b.CreatedByUserID = nullIntPtr(createdBy)
	b.UpdatedByUserID = nullIntPtr(updatedBy)
	return &b, nil
}

func (r *buySellRepository) Insert(ctx context.Context, exec SQLExecutor, b *models.BuySell) error {
	if b.BuyerUserID == nil && b.SellerUserID == nil {
		return errors.New("buy/sell order needs a buyer or a seller")
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	query := r.dialect.Rebind(`
		INSERT INTO buy_sells
			(session_id, buyer_user_id, seller_user_id, price, payment_method,
			 payment_sent, payment_received, buyer_note, seller_note,
			 buyer_note_flagged, seller_note_flagged, team_assignment,
			 created_at, updated_at, created_by_user_id, updated_by_user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		b.SessionID, b.BuyerUserID, b.SellerUserID, b.Price, b.PaymentMethod,
		b.PaymentSent, b.PaymentReceived, b.BuyerNote, b.SellerNote,
		b.BuyerNoteFlagged, b.SellerNoteFlagged, b.TeamAssignment,
		b.CreatedAt.UTC(), b.UpdatedAt.UTC(), b.CreatedByUserID, b.UpdatedByUserID,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to insert buy/sell order for session %d: %w", b.SessionID, TranslateError(err))
	}
	return nil
}

func (r *buySellRepository) getOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.BuySell, error) {
	b, err := r.scanBuySell(exec.QueryRowContext(ctx, r.dialect.Rebind(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuySellNotFound
		}
		return nil, fmt.Errorf("failed to get buy/sell order: %w", TranslateError(err))
	}
	return b, nil
}

func (r *buySellRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BuySell, error) {
	return r.getOne(ctx, r.getExecutor(exec), `SELECT `+buySellColumns+` FROM buy_sells WHERE id = ?`, id)
}

func (r *buySellRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int) (*models.BuySell, error) {
	if tx == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	return r.getOne(ctx, tx, `SELECT `+buySellColumns+` FROM buy_sells WHERE id = ?`+r.dialect.ForUpdate(), id)
}

func (r *buySellRepository) ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]*models.BuySell, error) {
	query := r.dialect.Rebind(`SELECT ` + buySellColumns + ` FROM buy_sells WHERE session_id = ? ORDER BY created_at ASC, id ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buy/sell orders for session %d: %w", sessionID, TranslateError(err))
	}
	defer rows.Close()

	orders := make([]*models.BuySell, 0)
	for rows.Next() {
		b, err := r.scanBuySell(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buy/sell order: %w", err)
		}
		orders = append(orders, b)
	}
	return orders, rows.Err()
}

func (r *buySellRepository) findOldest(ctx context.Context, exec SQLExecutor, where string, sessionID, excludeUserID int) (*models.BuySell, error) {
	query := `SELECT ` + buySellColumns + `
		FROM buy_sells
		WHERE session_id = ? AND ` + where + `
		ORDER BY created_at ASC, id ASC
		LIMIT 1` + r.dialect.ForUpdate()
	b, err := r.getOne(ctx, r.getExecutor(exec), query, sessionID, excludeUserID)
	if errors.Is(err, ErrBuySellNotFound) {
		return nil, nil
	}
	return b, err
}

func (r *buySellRepository) FindOldestUnmatchedSell(ctx context.Context, exec SQLExecutor, sessionID, excludeUserID int) (*models.BuySell, error) {
	return r.findOldest(ctx, exec, `seller_user_id IS NOT NULL AND buyer_user_id IS NULL AND seller_user_id <> ?`, sessionID, excludeUserID)
}

func (r *buySellRepository) FindOldestUnmatchedBuy(ctx context.Context, exec SQLExecutor, sessionID, excludeUserID int) (*models.BuySell, error) {
	return r.findOldest(ctx, exec, `buyer_user_id IS NOT NULL AND seller_user_id IS NULL AND buyer_user_id <> ?`, sessionID, excludeUserID)
}

func (r *buySellRepository) FillBuyer(ctx context.Context, exec SQLExecutor, b *models.BuySell) error {
	if b.BuyerUserID == nil {
		return errors.New("FillBuyer: buyer is not set")
	}
	query := r.dialect.Rebind(`
		UPDATE buy_sells
		SET buyer_user_id = ?, buyer_note = ?, team_assignment = ?, updated_at = ?, updated_by_user_id = ?
		WHERE id = ? AND buyer_user_id IS NULL AND seller_user_id IS NOT NULL`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		b.BuyerUserID, b.BuyerNote, b.TeamAssignment, b.UpdatedAt.UTC(), b.UpdatedByUserID, b.ID)
	if err != nil {
		return fmt.Errorf("FillBuyer: failed to update buy/sell order %d: %w", b.ID, TranslateError(err))
	}
	return checkAffectedRows(result, ErrBuySellConflict)
}

func (r *buySellRepository) FillSeller(ctx context.Context, exec SQLExecutor, b *models.BuySell) error {
	if b.SellerUserID == nil {
		return errors.New("FillSeller: seller is not set")
	}
	query := r.dialect.Rebind(`
		UPDATE buy_sells
		SET seller_user_id = ?, seller_note = ?, price = ?, payment_method = ?, team_assignment = ?,
		    updated_at = ?, updated_by_user_id = ?
		WHERE id = ? AND seller_user_id IS NULL AND buyer_user_id IS NOT NULL`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		b.SellerUserID, b.SellerNote, b.Price, b.PaymentMethod, b.TeamAssignment,
		b.UpdatedAt.UTC(), b.UpdatedByUserID, b.ID)
	if err != nil {
		return fmt.Errorf("FillSeller: failed to update buy/sell order %d: %w", b.ID, TranslateError(err))
	}
	return checkAffectedRows(result, ErrBuySellConflict)
}

func (r *buySellRepository) UpdatePayment(ctx context.Context, exec SQLExecutor, b *models.BuySell) error {
	query := r.dialect.Rebind(`
		UPDATE buy_sells
		SET payment_sent = ?, payment_received = ?, updated_at = ?, updated_by_user_id = ?
		WHERE id = ? AND buyer_user_id IS NOT NULL AND seller_user_id IS NOT NULL`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		b.PaymentSent, b.PaymentReceived, b.UpdatedAt.UTC(), b.UpdatedByUserID, b.ID)
	if err != nil {
		return fmt.Errorf("UpdatePayment: failed to update buy/sell order %d: %w", b.ID, TranslateError(err))
	}
	return checkAffectedRows(result, ErrBuySellConflict)
}

func (r *buySellRepository) DeleteUnmatched(ctx context.Context, exec SQLExecutor, id int) error {
	query := r.dialect.Rebind(`DELETE FROM buy_sells WHERE id = ? AND (buyer_user_id IS NULL OR seller_user_id IS NULL)`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete buy/sell order %d: %w", id, TranslateError(err))
	}
	return checkAffectedRows(result, ErrBuySellConflict)
}
