/*
lifecycle.go - Booking state machine.

STATES:
  Active -> Cancelled   (unit released, open schedule discarded)
  Active -> Completed   (remaining hit zero, unit sold)

  Both end states are terminal. A terminal booking rejects every further
  action with InvalidTransition. Completion is evaluated after every
  payment-affecting operation, never on a timer; deleting or correcting a
  payment can also move a Completed booking back to Active (the unit drops
  back to Booked).

  Unit.Status and Unit.CustomerID are mutated here and nowhere else once a
  booking exists.
*/
package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewBooking validates unit availability and builds an Active booking plus
// the updated unit. The caller persists both; the store's partial unique
// index is the authoritative guard against a concurrent create racing past
// this check.
func NewBooking(unit *Unit, customerID string, date time.Time, plan *PlanTerms) (*Booking, *Unit, error) {
	if unit == nil {
		return nil, nil, ErrUnitNotFound
	}
	if unit.Status != UnitAvailable {
		return nil, nil, fmt.Errorf("%w: unit %s is %s", ErrUnitNotAvailable, unit.ID, unit.Status)
	}
	if plan != nil {
		if err := ValidateTerms(*plan); err != nil {
			return nil, nil, err
		}
	}

	b := &Booking{
		ID:          uuid.NewString(),
		UnitID:      unit.ID,
		CustomerID:  customerID,
		BookingDate: date,
		Status:      StatusActive,
		Plan:        plan,
		CreatedAt:   time.Now().UTC(),
	}

	booked := *unit
	booked.Status = UnitBooked
	booked.CustomerID = customerID
	return b, &booked, nil
}

// GuardActive rejects actions on terminal bookings.
func GuardActive(b *Booking, action string) error {
	if b.Status.Terminal() {
		return &InvalidTransitionError{BookingID: b.ID, Status: b.Status, Action: action}
	}
	return nil
}

// Cancel transitions an active booking to Cancelled and releases its unit.
// Returns the updated booking and unit for persistence.
func Cancel(b *Booking, unit *Unit) (*Booking, *Unit, error) {
	if err := GuardActive(b, "cancel"); err != nil {
		return nil, nil, err
	}
	cancelled := *b
	cancelled.Status = StatusCancelled

	released := *unit
	released.Status = UnitAvailable
	released.CustomerID = ""
	return &cancelled, &released, nil
}

// Complete transitions an active booking to Completed and marks its unit
// sold. Only valid when the remaining balance is zero; the caller derives
// that via the Tracker.
func Complete(b *Booking, unit *Unit) (*Booking, *Unit, error) {
	if err := GuardActive(b, "complete"); err != nil {
		return nil, nil, err
	}
	completed := *b
	completed.Status = StatusCompleted

	sold := *unit
	sold.Status = UnitSold
	sold.CustomerID = b.CustomerID
	return &completed, &sold, nil
}

// Reopen moves a Completed booking back to Active after a payment deletion
// or downward correction made the remaining balance positive again.
func Reopen(b *Booking, unit *Unit) (*Booking, *Unit, error) {
	if b.Status != StatusCompleted {
		return nil, nil, &InvalidTransitionError{BookingID: b.ID, Status: b.Status, Action: "reopen"}
	}
	reopened := *b
	reopened.Status = StatusActive

	booked := *unit
	booked.Status = UnitBooked
	booked.CustomerID = b.CustomerID
	return &reopened, &booked, nil
}
