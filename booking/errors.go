// errors.go - Error types for the booking domain.
package booking

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOverpayment is returned when a payment would push the booking's
	// total past the unit price. Never silently clamped.
	ErrOverpayment = errors.New("payment exceeds remaining balance")

	// ErrUnitNotAvailable is returned when creating a booking against a
	// unit that is sold or already has an active booking.
	ErrUnitNotAvailable = errors.New("unit not available")

	// ErrInvalidTransition is returned when acting on a terminal booking.
	ErrInvalidTransition = errors.New("invalid booking transition")

	// ErrNoScheduleNeeded is returned when a plan is requested but nothing
	// remains to amortize.
	ErrNoScheduleNeeded = errors.New("no schedule needed: remaining balance is zero")

	// ErrInvalidPlan is returned for plan terms outside the supported range.
	ErrInvalidPlan = errors.New("invalid plan terms")

	// ErrPendingSchedule signals that cancellation requires explicit
	// confirmation because pending installments exist.
	ErrPendingSchedule = errors.New("booking has pending scheduled payments")

	// ErrActiveBookingExists is returned by stores when the one-active-
	// booking-per-unit constraint rejects an insert.
	ErrActiveBookingExists = errors.New("unit already has an active booking")

	ErrBookingNotFound  = errors.New("booking not found")
	ErrUnitNotFound     = errors.New("unit not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPaymentNotFound  = errors.New("payment not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OverpaymentError carries the maximum acceptable amount so the caller can
// tell the user exactly how much room is left.
type OverpaymentError struct {
	BookingID  string
	Attempted  decimal.Decimal
	MaxAllowed decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining balance of %s for booking %s",
		e.Attempted.StringFixed(2), e.MaxAllowed.StringFixed(2), e.BookingID)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// InvalidTransitionError reports an action attempted on a terminal booking.
type InvalidTransitionError struct {
	BookingID string
	Status    Status
	Action    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s booking %s in state %s", e.Action, e.BookingID, e.Status)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// PendingScheduleError is the HasPendingSchedule(count) signal: the caller
// decides whether to proceed with cancellation.
type PendingScheduleError struct {
	BookingID    string
	PendingCount int
}

func (e *PendingScheduleError) Error() string {
	return fmt.Sprintf("booking %s has %d pending scheduled payments; confirmation required",
		e.BookingID, e.PendingCount)
}

func (e *PendingScheduleError) Unwrap() error { return ErrPendingSchedule }

// IsClientError returns true for validation errors that map to user-facing
// messages and must never be retried automatically.
func IsClientError(err error) bool {
	return errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrUnitNotAvailable) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidPlan) ||
		errors.Is(err, ErrNoScheduleNeeded) ||
		errors.Is(err, ErrPendingSchedule)
}

// IsNotFound returns true if the error indicates a missing booking record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrUnitNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}
