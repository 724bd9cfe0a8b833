// Package errs holds the error kinds shared by the savings services.
//
// Validation kinds are sentinels and are matched with errors.Is. Failures of the
// underlying store are wrapped in a *StorageError and matched with errors.As.
package errs

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the scale of every stored amount column.
const AmountPlaces = 2

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrAlreadyMember     = errors.New("already a member")
	ErrNotAMember        = errors.New("not a member")
	ErrGroupFull         = errors.New("group is full")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// StorageError reports a failure of the record store itself (connectivity,
// constraint violations). The core never retries these.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for op. It returns nil for a nil err.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}

	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err came from the store.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Invalid returns an ErrInvalidInput carrying a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// CheckAmount returns ErrInvalidAmount unless d is positive and has at most
// AmountPlaces decimal places.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("amount %s: %w", d, ErrInvalidAmount)
	}

	if !d.Equal(d.Round(AmountPlaces)) {
		return fmt.Errorf("amount %s has more than %d decimal places: %w", d, AmountPlaces, ErrInvalidAmount)
	}

	return nil
}
