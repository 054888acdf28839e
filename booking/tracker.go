/*
tracker.go - Payment tracking and the overpayment guard.

PURPOSE:
  Associates Payment records with a Booking and maintains the booking's
  derived totals. "Amount paid" is never stored: it is the sum of the
  booking's payment rows (the initial deposit is itself a payment row),
  recomputed on every read. The tracker enforces the business invariant
  that total paid can never exceed the unit price.

WHAT THE TRACKER DOES NOT DO:
  It never touches the ledger or the unit. Pairing a payment with its
  transaction, and flipping unit/booking status on completion, belong to
  the reconciliation coordinator and the state machine.
*/
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas-estates/booking-ledger/ledger"
)

// Tracker maintains derived payment aggregates for bookings.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// TotalPaid derives the booking's total paid by summing its payment rows.
func (t *Tracker) TotalPaid(ctx context.Context, bookingID string) (decimal.Decimal, error) {
	payments, err := t.store.ListPaymentsByBooking(ctx, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total, nil
}

// Remaining derives the unpaid portion of the unit price.
func (t *Tracker) Remaining(ctx context.Context, bookingID string) (decimal.Decimal, error) {
	booking, err := t.store.GetBooking(ctx, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	if booking == nil {
		return decimal.Zero, fmt.Errorf("remaining: %w: %s", ErrBookingNotFound, bookingID)
	}
	unit, err := t.store.GetUnit(ctx, booking.UnitID)
	if err != nil {
		return decimal.Zero, err
	}
	if unit == nil {
		return decimal.Zero, fmt.Errorf("remaining: %w: %s", ErrUnitNotFound, booking.UnitID)
	}
	total, err := t.TotalPaid(ctx, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	return unit.Price.Sub(total), nil
}

// CheckPayment verifies that adding amount would not exceed the unit price.
// excludePaymentID, when non-empty, removes that payment's current amount
// from the total first - used when re-validating an amount correction.
func (t *Tracker) CheckPayment(ctx context.Context, booking *Booking, amount decimal.Decimal, excludePaymentID string) error {
	unit, err := t.store.GetUnit(ctx, booking.UnitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return fmt.Errorf("check payment: %w: %s", ErrUnitNotFound, booking.UnitID)
	}

	payments, err := t.store.ListPaymentsByBooking(ctx, booking.ID)
	if err != nil {
		return err
	}
	current := decimal.Zero
	for _, p := range payments {
		if p.ID == excludePaymentID {
			continue
		}
		current = current.Add(p.Amount)
	}

	if current.Add(amount).GreaterThan(unit.Price) {
		return &OverpaymentError{
			BookingID:  booking.ID,
			Attempted:  amount,
			MaxAllowed: unit.Price.Sub(current),
		}
	}
	return nil
}

// PaymentInput describes a payment to record. TransactionID must reference
// the already-recorded ledger transaction that received the funds.
type PaymentInput struct {
	ID            string
	BookingID     string
	Amount        decimal.Decimal
	Date          time.Time
	Type          PaymentType
	AccountID     string
	TransactionID string
}

// RecordPayment validates and persists a payment row. The booking must be
// active and the amount must fit under the unit price. Callers are expected
// to run this inside the coordinator so the paired transaction cannot be
// left dangling.
func (t *Tracker) RecordPayment(ctx context.Context, in PaymentInput) (*Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, &ledger.InvalidAmountError{Amount: in.Amount}
	}

	booking, err := t.store.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("record payment: %w: %s", ErrBookingNotFound, in.BookingID)
	}
	if booking.Status.Terminal() {
		return nil, &InvalidTransitionError{BookingID: booking.ID, Status: booking.Status, Action: "record payment for"}
	}

	if err := t.CheckPayment(ctx, booking, in.Amount, ""); err != nil {
		return nil, err
	}

	payment := Payment{
		ID:            in.ID,
		BookingID:     booking.ID,
		CustomerID:    booking.CustomerID,
		UnitID:        booking.UnitID,
		Amount:        in.Amount,
		Date:          in.Date,
		Type:          in.Type,
		AccountID:     in.AccountID,
		TransactionID: in.TransactionID,
		CreatedAt:     time.Now().UTC(),
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Type == "" {
		payment.Type = PaymentInstallment
	}

	if err := t.store.SavePayment(ctx, payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ScheduleDrift reports how far the open schedule has drifted from the
// actual remaining balance (invariant: schedule sums to the remaining
// balance at creation time; ad-hoc payments outside the plan are allowed
// but the drift must be surfaced, not hidden).
//
// drift = sum(pending+overdue installments) - remaining. Zero means the
// open schedule still matches reality.
func (t *Tracker) ScheduleDrift(ctx context.Context, bookingID string) (decimal.Decimal, error) {
	rows, err := t.store.ListScheduledPayments(ctx, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	open := decimal.Zero
	for _, r := range rows {
		if r.Status == SchedulePending || r.Status == ScheduleOverdue {
			open = open.Add(r.Amount)
		}
	}
	if open.IsZero() {
		return decimal.Zero, nil
	}
	remaining, err := t.Remaining(ctx, bookingID)
	if err != nil {
		return decimal.Zero, err
	}
	return open.Sub(remaining), nil
}
