package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTrackedBooking seeds a 300,000 unit with an active booking and a 50,000
// deposit payment.
func newTrackedBooking(t *testing.T) (*memory.Store, *booking.Booking) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SaveUnit(ctx, booking.Unit{
		ID: "unit-1", Name: "Tower A - 101", Price: amount("300000"),
		Status: booking.UnitBooked, CustomerID: "cust-1",
	}))
	b := booking.Booking{
		ID: "b-1", UnitID: "unit-1", CustomerID: "cust-1",
		BookingDate: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Status:      booking.StatusActive,
	}
	require.NoError(t, store.SaveBooking(ctx, b))
	require.NoError(t, store.SavePayment(ctx, booking.Payment{
		ID: "pay-deposit", BookingID: "b-1", CustomerID: "cust-1", UnitID: "unit-1",
		Amount: amount("50000"), Date: b.BookingDate, Type: booking.PaymentBooking,
	}))
	return store, &b
}

// =============================================================================
// DERIVED TOTALS
// =============================================================================

func TestTracker_DerivedTotals(t *testing.T) {
	store, _ := newTrackedBooking(t)
	ctx := context.Background()
	tracker := booking.NewTracker(store)

	total, err := tracker.TotalPaid(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(amount("50000")))

	remaining, err := tracker.Remaining(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, remaining.Equal(amount("250000")))
}

func TestTracker_Remaining_UnknownBooking(t *testing.T) {
	store := memory.New()
	_, err := booking.NewTracker(store).Remaining(context.Background(), "ghost")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	assert.True(t, booking.IsNotFound(err))
}

// =============================================================================
// OVERPAYMENT GUARD
// =============================================================================

func TestTracker_CheckPayment_RejectsOverpayment(t *testing.T) {
	// GIVEN: 50,000 of 300,000 already paid
	// WHEN: Attempting a 260,000 payment
	// THEN: Rejected; the error names the 250,000 ceiling

	store, b := newTrackedBooking(t)
	ctx := context.Background()

	err := booking.NewTracker(store).CheckPayment(ctx, b, amount("260000"), "")
	require.Error(t, err)

	var overpay *booking.OverpaymentError
	require.ErrorAs(t, err, &overpay)
	assert.True(t, overpay.Attempted.Equal(amount("260000")))
	assert.True(t, overpay.MaxAllowed.Equal(amount("250000")))
	assert.ErrorIs(t, err, booking.ErrOverpayment)
	assert.True(t, booking.IsClientError(err))
}

func TestTracker_CheckPayment_ExactRemainderAllowed(t *testing.T) {
	store, b := newTrackedBooking(t)
	err := booking.NewTracker(store).CheckPayment(context.Background(), b, amount("250000"), "")
	assert.NoError(t, err)
}

func TestTracker_CheckPayment_ExcludesCorrectedPayment(t *testing.T) {
	// Re-validating an amount correction must not double-count the payment
	// being corrected.
	store, b := newTrackedBooking(t)
	err := booking.NewTracker(store).CheckPayment(context.Background(), b, amount("300000"), "pay-deposit")
	assert.NoError(t, err)
}

// =============================================================================
// RECORDING
// =============================================================================

func TestTracker_RecordPayment_DefaultsAndPersists(t *testing.T) {
	store, _ := newTrackedBooking(t)
	ctx := context.Background()

	p, err := booking.NewTracker(store).RecordPayment(ctx, booking.PaymentInput{
		BookingID: "b-1", Amount: amount("10000"),
		Date: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		AccountID: "acct-1", TransactionID: "tx-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID, "id assigned when empty")
	assert.Equal(t, booking.PaymentInstallment, p.Type, "type defaults to installment")
	assert.Equal(t, "cust-1", p.CustomerID, "denormalized from the booking")
	assert.Equal(t, "unit-1", p.UnitID)

	total, err := booking.NewTracker(store).TotalPaid(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(amount("60000")))
}

func TestTracker_RecordPayment_RejectsNonPositive(t *testing.T) {
	store, _ := newTrackedBooking(t)
	_, err := booking.NewTracker(store).RecordPayment(context.Background(), booking.PaymentInput{
		BookingID: "b-1", Amount: decimal.Zero,
	})
	var invalid *ledger.InvalidAmountError
	assert.ErrorAs(t, err, &invalid)
}

func TestTracker_RecordPayment_RejectsTerminalBooking(t *testing.T) {
	store, b := newTrackedBooking(t)
	ctx := context.Background()

	cancelled := *b
	cancelled.Status = booking.StatusCancelled
	require.NoError(t, store.UpdateBooking(ctx, cancelled))

	_, err := booking.NewTracker(store).RecordPayment(ctx, booking.PaymentInput{
		BookingID: "b-1", Amount: amount("1000"),
	})
	var transition *booking.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

// =============================================================================
// SCHEDULE DRIFT
// =============================================================================

func TestTracker_ScheduleDrift(t *testing.T) {
	// GIVEN: Open schedule of 250,000 matching the remaining balance
	// WHEN: An ad-hoc 10,000 payment lands outside the plan
	// THEN: Drift reports +10,000 (open schedule exceeds reality)

	store, _ := newTrackedBooking(t)
	ctx := context.Background()
	tracker := booking.NewTracker(store)

	rows, err := booking.BuildSchedule("b-1", amount("250000"), booking.PlanTerms{
		Years: 5, FrequencyMonths: 1, StartDate: planStart(),
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveScheduledPayments(ctx, rows))

	drift, err := tracker.ScheduleDrift(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, drift.IsZero(), "fresh schedule matches remaining, got %s", drift)

	_, err = tracker.RecordPayment(ctx, booking.PaymentInput{
		BookingID: "b-1", Amount: amount("10000"),
		Date: planStart(), TransactionID: "tx-adhoc",
	})
	require.NoError(t, err)

	drift, err = tracker.ScheduleDrift(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, drift.Equal(amount("10000")), "got %s", drift)
}

func TestTracker_ScheduleDrift_NoOpenSchedule(t *testing.T) {
	store, _ := newTrackedBooking(t)
	drift, err := booking.NewTracker(store).ScheduleDrift(context.Background(), "b-1")
	require.NoError(t, err)
	assert.True(t, drift.IsZero())
}
