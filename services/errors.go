package services

import (
	"errors"
	"fmt"
	"time"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrBuySellNotFound = fmt.Errorf("%w: buy/sell order", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)

	// ErrInvalidState covers operations that do not apply to the order or
	// session as it currently stands, e.g. confirming payment on an unmatched
	// order or cancelling a matched one.
	ErrInvalidState = errors.New("operation not allowed in the current state")

	ErrWindowClosed = errors.New("buy window is not open")

	// ErrConcurrencyConflict means another request changed the same rows first.
	// Submitting again is safe.
	ErrConcurrencyConflict = errors.New("concurrent update conflict, please retry")

	ErrValidationFailed   = errors.New("validation failed")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)

// WindowClosedError is returned when a buy is attempted before the caller's
// tier window opens. errors.Is(err, ErrWindowClosed) holds.
type WindowClosedError struct {
	Reason           string
	OpensAt          time.Time
	TimeUntilAllowed time.Duration
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrWindowClosed, e.Reason)
}

func (e *WindowClosedError) Unwrap() error {
	return ErrWindowClosed
}
