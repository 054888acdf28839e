/*
errors.go - Centralized error types for the ledger.

Sentinel errors are matched with errors.Is(); structured errors carry the
entity ids a caller needs for user-facing messages and manual reconciliation.
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned when a transaction amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a referenced transaction doesn't exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateIdempotencyKey is returned when a transaction with the same
	// idempotency key already exists. Expected behavior for client retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrConcurrentModification is returned when a storage uniqueness
	// constraint rejects a racing write.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrOrphanReference is returned when a transaction/source link would
	// dangle, including when a compensating rollback itself fails.
	ErrOrphanReference = errors.New("orphaned financial reference")

	// ErrSourceRecordNotFound is returned when an expense/salary/revenue
	// record doesn't exist.
	ErrSourceRecordNotFound = errors.New("source record not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidAmountError reports a rejected non-positive amount.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: amount must be positive", e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// OrphanReferenceError reports a dangling or un-rollback-able link between a
// transaction and its source record. It carries every id needed for manual
// reconciliation; it must never be swallowed.
type OrphanReferenceError struct {
	TransactionID string
	Source        SourceRef
	Cause         error
}

func (e *OrphanReferenceError) Error() string {
	return fmt.Sprintf("orphaned reference: transaction %s <-> %s %s: %v",
		e.TransactionID, e.Source.Type, e.Source.ID, e.Cause)
}

func (e *OrphanReferenceError) Unwrap() error { return ErrOrphanReference }

// IsClientError returns true if the error is due to invalid client input
// and should not be retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing ledger record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrSourceRecordNotFound)
}
