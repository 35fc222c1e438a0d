package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/league-buysell/repositories"
)

// translateRepoError maps repository sentinels onto service sentinels so
// handlers only ever need to know about this package.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrSessionNotFound):
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	case errors.Is(err, repositories.ErrBuySellNotFound):
		return fmt.Errorf("%w: %v", ErrBuySellNotFound, err)
	case errors.Is(err, repositories.ErrUserNotFound):
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	case errors.Is(err, repositories.ErrBuySellConflict),
		errors.Is(err, repositories.ErrSerializationFailure):
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}

// withTx runs fn inside one transaction, committing on nil and rolling back on
// error or panic.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return translateRepoError(fmt.Errorf("failed to begin transaction: %w", repositories.TranslateError(err)))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.ErrorContext(ctx, "transaction rollback failed", slog.Any("error", rbErr), slog.Any("cause", err))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = translateRepoError(fmt.Errorf("failed to commit transaction: %w", repositories.TranslateError(cErr)))
		}
	}()
	return fn(tx)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
