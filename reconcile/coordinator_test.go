package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/event"
	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/reconcile"
	"github.com/atlas-estates/booking-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func bookingDate() time.Time {
	return time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
}

// newTestCoordinator seeds an account, a customer, and a 300,000 unit.
func newTestCoordinator(t *testing.T) (*reconcile.Coordinator, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SaveAccount(ctx, ledger.Account{
		ID: "acct-1", Name: "Main Bank", Type: ledger.AccountBank,
		InitialBalance: decimal.Zero,
	}))
	require.NoError(t, store.SaveCustomer(ctx, booking.Customer{
		ID: "cust-1", Name: "Omar Haddad",
	}))
	require.NoError(t, store.SaveUnit(ctx, booking.Unit{
		ID: "unit-1", ProjectID: "proj-1", Name: "Tower A - 101",
		Price: amount("300000"), Status: booking.UnitAvailable,
	}))
	return reconcile.New(store, nil, nil), store
}

func depositAndPlanInput() reconcile.CreateBookingInput {
	return reconcile.CreateBookingInput{
		UnitID:     "unit-1",
		CustomerID: "cust-1",
		Date:       bookingDate(),
		Deposit:    amount("50000"),
		AccountID:  "acct-1",
		Plan: &booking.PlanTerms{
			Years: 5, FrequencyMonths: 1,
			StartDate: bookingDate().AddDate(0, 1, 0),
		},
	}
}

// =============================================================================
// CREATE BOOKING
// =============================================================================

func TestCreateBooking_DepositAndPlan(t *testing.T) {
	// GIVEN: An available 300,000 unit
	// WHEN: Booking with a 50,000 deposit and a 5-year monthly plan
	// THEN: One payment, one paired transaction, a 60-row schedule over the
	//       remaining 250,000, and the unit flips to booked

	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	result, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)

	assert.Equal(t, booking.StatusActive, result.Booking.Status)
	assert.Equal(t, booking.UnitBooked, result.Unit.Status)
	assert.False(t, result.Completed)

	require.NotNil(t, result.Payment)
	assert.Equal(t, booking.PaymentBooking, result.Payment.Type)
	assert.True(t, result.Payment.Amount.Equal(amount("50000")))

	require.NotNil(t, result.Transaction)
	assert.Equal(t, ledger.TxDeposit, result.Transaction.Type)
	assert.Equal(t, ledger.SourceBookingPayment, result.Transaction.Source.Type)
	assert.Equal(t, result.Payment.ID, result.Transaction.Source.ID,
		"transaction back-links the payment")
	assert.Equal(t, result.Transaction.ID, result.Payment.TransactionID,
		"payment references its transaction")

	require.Len(t, result.Schedule, 60)
	sum := decimal.Zero
	for _, r := range result.Schedule {
		sum = sum.Add(r.Amount)
	}
	assert.True(t, sum.Equal(amount("250000")), "schedule covers the remaining balance, got %s", sum)

	balance, err := ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("50000")))
}

func TestCreateBooking_NoDeposit(t *testing.T) {
	coord, _ := newTestCoordinator(t)

	result, err := coord.CreateBooking(context.Background(), reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
	})
	require.NoError(t, err)
	assert.Nil(t, result.Payment)
	assert.Nil(t, result.Transaction)
	assert.Empty(t, result.Schedule)
	assert.Equal(t, booking.UnitBooked, result.Unit.Status)
}

func TestCreateBooking_UnitAlreadyBooked(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
	})
	require.NoError(t, err)

	_, err = coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
	})
	assert.ErrorIs(t, err, booking.ErrUnitNotAvailable)
}

func TestCreateBooking_ConcurrentCallersSameUnit(t *testing.T) {
	// GIVEN: Two callers racing to book the same unit
	// WHEN: Both run concurrently
	// THEN: Exactly one wins; the loser gets the unit-taken error and the
	//       store holds a single active booking

	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = coord.CreateBooking(ctx, reconcile.CreateBookingInput{
				UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, booking.ErrUnitNotAvailable):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	bookings, err := store.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1, "the loser's rollback must not remove the winner's booking")

	unit, err := store.GetUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, booking.UnitBooked, unit.Status)
}

func TestCreateBooking_UnknownCustomerAndUnit(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "ghost", Date: bookingDate(),
	})
	assert.ErrorIs(t, err, booking.ErrCustomerNotFound)

	_, err = coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "ghost", CustomerID: "cust-1", Date: bookingDate(),
	})
	assert.ErrorIs(t, err, booking.ErrUnitNotFound)
}

func TestCreateBooking_DepositAbovePriceRejected(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
		Deposit: amount("300001"), AccountID: "acct-1",
	})
	assert.ErrorIs(t, err, booking.ErrOverpayment)

	bookings, err := store.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings, "nothing persisted on rejection")
}

func TestCreateBooking_DepositEqualsPrice_CompletesImmediately(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	result, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
		Deposit: amount("300000"), AccountID: "acct-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, booking.StatusCompleted, result.Booking.Status)
	assert.Equal(t, booking.UnitSold, result.Unit.Status)

	unit, err := store.GetUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, booking.UnitSold, unit.Status)
}

func TestCreateBooking_IdempotencyReplayRejected(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	in := depositAndPlanInput()
	in.IdempotencyKey = "create-token-1"
	_, err := coord.CreateBooking(ctx, in)
	require.NoError(t, err)

	// Retry after an ambiguous failure: same token, must not double-write.
	// The unit being booked masks nothing - the token check runs first.
	_, err = coord.CreateBooking(ctx, in)
	assert.ErrorIs(t, err, ledger.ErrDuplicateIdempotencyKey)

	balance, err := ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("50000")), "deposit recorded once")
}

// =============================================================================
// RECORD PAYMENT
// =============================================================================

func TestRecordPayment_OverpaymentLeavesNothingBehind(t *testing.T) {
	// GIVEN: 50,000 of 300,000 paid
	// WHEN: A 260,000 payment is attempted
	// THEN: Rejected with the 250,000 ceiling, and neither a payment nor a
	//       transaction survives

	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	result, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)

	_, err = coord.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID: result.Booking.ID, Amount: amount("260000"),
		Date: bookingDate().AddDate(0, 1, 0), AccountID: "acct-1",
	})
	var overpay *booking.OverpaymentError
	require.ErrorAs(t, err, &overpay)
	assert.True(t, overpay.MaxAllowed.Equal(amount("250000")))

	payments, err := store.ListPaymentsByBooking(ctx, result.Booking.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1, "only the deposit remains")

	balance, err := ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("50000")), "ledger untouched by the failed payment")
}

func TestRecordPayment_CollectsInstallment(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)
	first := created.Schedule[0]

	result, err := coord.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID: created.Booking.ID, Amount: first.Amount, Date: first.DueDate,
		AccountID: "acct-1", Type: booking.PaymentInstallment,
		ScheduledPaymentID: first.ID,
	})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.True(t, result.ScheduleDrift.IsZero(),
		"collecting an installment keeps the schedule in sync, got %s", result.ScheduleDrift)

	rows, err := store.ListScheduledPayments(ctx, created.Booking.ID)
	require.NoError(t, err)
	for _, r := range rows {
		if r.ID == first.ID {
			assert.Equal(t, booking.SchedulePaid, r.Status)
			require.NotNil(t, r.PaidDate)
			assert.True(t, r.PaidDate.Equal(first.DueDate))
		}
	}
}

func TestRecordPayment_AdHocPaymentSurfacesDrift(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)

	// Payment outside the plan: no ScheduledPaymentID. The open schedule now
	// overstates the remaining balance by exactly this amount.
	result, err := coord.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID: created.Booking.ID, Amount: amount("10000"),
		Date: bookingDate().AddDate(0, 1, 0), AccountID: "acct-1",
	})
	require.NoError(t, err)
	assert.True(t, result.ScheduleDrift.Equal(amount("10000")), "got %s", result.ScheduleDrift)
}

func TestRecordPayment_FinalPaymentCompletesBooking(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
		Deposit: amount("250000"), AccountID: "acct-1",
	})
	require.NoError(t, err)

	result, err := coord.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID: created.Booking.ID, Amount: amount("50000"),
		Date: bookingDate().AddDate(0, 1, 0), AccountID: "acct-1",
		Type: booking.PaymentFinal,
	})
	require.NoError(t, err)
	assert.True(t, result.Completed)

	b, err := store.GetBooking(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, b.Status)

	unit, err := store.GetUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, booking.UnitSold, unit.Status)

	// Terminal booking rejects further payments.
	_, err = coord.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID: created.Booking.ID, Amount: amount("1"),
		Date: bookingDate(), AccountID: "acct-1",
	})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

// =============================================================================
// DELETE / CORRECT PAYMENT
// =============================================================================

func TestDeletePayment_RemovesPairAndReopens(t *testing.T) {
	// GIVEN: A completed booking
	// WHEN: The final payment is deleted
	// THEN: Payment and paired transaction both go, and the booking reopens
	//       with the unit back to booked

	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
		Deposit: amount("250000"), AccountID: "acct-1",
	})
	require.NoError(t, err)

	final, err := coord.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID: created.Booking.ID, Amount: amount("50000"),
		Date: bookingDate().AddDate(0, 1, 0), AccountID: "acct-1",
		Type: booking.PaymentFinal,
	})
	require.NoError(t, err)
	require.True(t, final.Completed)

	require.NoError(t, coord.DeletePayment(ctx, final.Payment.ID))

	tx, err := store.GetTransaction(ctx, final.Transaction.ID)
	require.NoError(t, err)
	assert.Nil(t, tx, "paired transaction deleted")

	b, err := store.GetBooking(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusActive, b.Status, "booking reopened")

	unit, err := store.GetUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, booking.UnitBooked, unit.Status)

	balance, err := ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("250000")))
}

func TestCorrectPaymentAmount_RewritesPair(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)

	result, err := coord.CorrectPaymentAmount(ctx, created.Payment.ID, amount("60000"))
	require.NoError(t, err)
	assert.True(t, result.Payment.Amount.Equal(amount("60000")))
	require.NotNil(t, result.Transaction)
	assert.True(t, result.Transaction.Amount.Equal(amount("60000")))

	balance, err := ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("60000")), "ledger follows the corrected amount")
}

func TestCorrectPaymentAmount_SubjectToOverpaymentCheck(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)

	// Correcting the 50,000 deposit to the full price is fine (its own
	// amount is excluded from the check)...
	_, err = coord.CorrectPaymentAmount(ctx, created.Payment.ID, amount("300000"))
	require.NoError(t, err)

	// ...but pushing past the price is not.
	_, err = coord.CorrectPaymentAmount(ctx, created.Payment.ID, amount("300001"))
	assert.ErrorIs(t, err, booking.ErrOverpayment)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancelBooking_PendingScheduleNeedsConfirmation(t *testing.T) {
	// GIVEN: A booking with one collected and 59 open installments
	// WHEN: Cancelling without confirmation
	// THEN: Refused with the open count; a confirmed retry cancels, discards
	//       the open rows, and keeps the paid row for audit

	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)
	first := created.Schedule[0]

	_, err = coord.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID: created.Booking.ID, Amount: first.Amount, Date: first.DueDate,
		AccountID: "acct-1", ScheduledPaymentID: first.ID,
	})
	require.NoError(t, err)

	_, err = coord.CancelBooking(ctx, created.Booking.ID, false)
	var pending *booking.PendingScheduleError
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, 59, pending.PendingCount)

	result, err := coord.CancelBooking(ctx, created.Booking.ID, true)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, result.Booking.Status)
	assert.Equal(t, booking.UnitAvailable, result.Unit.Status)
	assert.Equal(t, 59, result.RemovedInstallments)

	rows, err := store.ListScheduledPayments(ctx, created.Booking.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "paid row retained for audit")
	assert.Equal(t, booking.SchedulePaid, rows[0].Status)

	// Payments and their transactions survive cancellation.
	payments, err := store.ListPaymentsByBooking(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestCancelBooking_NoOpenSchedule_NoConfirmationNeeded(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
	})
	require.NoError(t, err)

	result, err := coord.CancelBooking(ctx, created.Booking.ID, false)
	require.NoError(t, err)
	assert.Zero(t, result.RemovedInstallments)

	// The released unit can be booked again.
	unit, err := store.GetUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, booking.UnitAvailable, unit.Status)
	_, err = coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
	})
	assert.NoError(t, err)
}

// =============================================================================
// PLAN REGENERATION AND OVERDUE SWEEP
// =============================================================================

func TestGenerateSchedule_AgainstCurrentRemaining(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
		Deposit: amount("60000"), AccountID: "acct-1",
	})
	require.NoError(t, err)

	terms := booking.PlanTerms{Years: 4, FrequencyMonths: 2, StartDate: bookingDate().AddDate(0, 1, 0)}
	rows, err := coord.GenerateSchedule(ctx, created.Booking.ID, terms)
	require.NoError(t, err)
	require.Len(t, rows, 24)

	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Amount)
	}
	assert.True(t, sum.Equal(amount("240000")), "amortizes the remaining 240,000, got %s", sum)

	b, err := store.GetBooking(ctx, created.Booking.ID)
	require.NoError(t, err)
	require.NotNil(t, b.Plan)
	assert.Equal(t, terms, *b.Plan)
}

func TestMarkOverdueInstallments(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	created, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)

	// Two installments past the cutoff date.
	asOf := created.Schedule[1].DueDate.AddDate(0, 0, 1)
	n, err := coord.MarkOverdueInstallments(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// =============================================================================
// EXPENSES / SALARIES / REVENUES / MANUAL
// =============================================================================

func TestSubmitExpense_PairsWithdrawal(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	exp, err := coord.SubmitExpense(ctx, reconcile.ExpenseInput{
		ProjectID: "proj-1", Category: "construction", Description: "Cement",
		Amount: amount("4200"), Date: bookingDate(), AccountID: "acct-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, exp.TransactionID)

	tx, err := store.GetTransaction(ctx, exp.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, ledger.TxWithdrawal, tx.Type)
	assert.Equal(t, ledger.SourceExpense, tx.Source.Type)
	assert.Equal(t, exp.ID, tx.Source.ID)

	balance, err := ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("-4200")))

	// Deleting the expense removes both sides.
	require.NoError(t, coord.DeleteExpense(ctx, exp.ID))
	tx, err = store.GetTransaction(ctx, exp.TransactionID)
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestSubmitSalaryAndRevenue(t *testing.T) {
	coord, store := newTestCoordinator(t)
	ctx := context.Background()

	sp, err := coord.SubmitSalaryPayment(ctx, reconcile.SalaryInput{
		EmployeeID: "emp-1", Month: "2026-02", Amount: amount("9000"),
		Date: bookingDate(), AccountID: "acct-1",
	})
	require.NoError(t, err)

	rev, err := coord.SubmitRevenue(ctx, reconcile.RevenueInput{
		ProjectID: "proj-1", Description: "Billboard lease",
		Amount: amount("15000"), Date: bookingDate(), AccountID: "acct-1",
	})
	require.NoError(t, err)

	balance, err := ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("6000")), "-9000 salary +15000 revenue, got %s", balance)

	require.NoError(t, coord.DeleteSalaryPayment(ctx, sp.ID))
	require.NoError(t, coord.DeleteRevenue(ctx, rev.ID))

	balance, err = ledger.New(store).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestDeleteManualTransaction_PairedRejected(t *testing.T) {
	coord, _ := newTestCoordinator(t)
	ctx := context.Background()

	manual, err := coord.SubmitManualTransaction(ctx, ledger.RecordInput{
		AccountID: "acct-1", Type: ledger.TxDeposit, Date: bookingDate(),
		Description: "Opening adjustment", Amount: amount("100"),
	})
	require.NoError(t, err)
	require.NoError(t, coord.DeleteManualTransaction(ctx, manual.ID))

	created, err := coord.CreateBooking(ctx, depositAndPlanInput())
	require.NoError(t, err)

	// The deposit transaction is paired with a payment; it can only be
	// removed through the payment.
	err = coord.DeleteManualTransaction(ctx, created.Transaction.ID)
	assert.ErrorIs(t, err, ledger.ErrOrphanReference)
}

// =============================================================================
// COMPENSATION (NO STORAGE TRANSACTION)
// =============================================================================

// sagaStore hides the memory store's WithTx so the coordinator falls back to
// compensation, and fails a chosen operation to trigger the unwind.
type sagaStore struct {
	reconcile.Store
	failUnitUpdate bool
	failSchedule   bool
}

var errInjected = errors.New("injected storage failure")

func (s *sagaStore) UpdateUnit(ctx context.Context, u booking.Unit) error {
	if s.failUnitUpdate {
		return errInjected
	}
	return s.Store.UpdateUnit(ctx, u)
}

func (s *sagaStore) SaveScheduledPayments(ctx context.Context, rows []booking.ScheduledPayment) error {
	if s.failSchedule {
		return errInjected
	}
	return s.Store.SaveScheduledPayments(ctx, rows)
}

func TestCreateBooking_CompensatesWhenUnitUpdateFails(t *testing.T) {
	// GIVEN: A store without transactions whose unit update fails
	// WHEN: Creating a booking
	// THEN: The already-written booking row is compensated away

	_, mem := newTestCoordinator(t)
	coord := reconcile.New(&sagaStore{Store: mem, failUnitUpdate: true}, nil, nil)
	ctx := context.Background()

	_, err := coord.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID: "unit-1", CustomerID: "cust-1", Date: bookingDate(),
	})
	assert.ErrorIs(t, err, errInjected)

	bookings, err := mem.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings, "compensation removed the booking")

	unit, err := mem.GetUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, booking.UnitAvailable, unit.Status)
}

func TestCreateBooking_CompensatesDepositWhenScheduleFails(t *testing.T) {
	// The deposit transaction and payment are written before the schedule;
	// a schedule failure must unwind them all.

	_, mem := newTestCoordinator(t)
	coord := reconcile.New(&sagaStore{Store: mem, failSchedule: true}, nil, nil)
	ctx := context.Background()

	_, err := coord.CreateBooking(ctx, depositAndPlanInput())
	assert.ErrorIs(t, err, errInjected)

	bookings, err := mem.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	balance, err := ledger.New(mem).Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "deposit transaction unwound, got %s", balance)

	unit, err := mem.GetUnit(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, booking.UnitAvailable, unit.Status)
}

// =============================================================================
// EVENTS
// =============================================================================

func TestCoordinator_PublishesEvents(t *testing.T) {
	_, mem := newTestCoordinator(t)
	bus := event.NewBus()
	var types []string
	bus.Subscribe(func(e event.Event) { types = append(types, e.Type) })

	coord := reconcile.New(mem, bus, nil)
	_, err := coord.CreateBooking(context.Background(), depositAndPlanInput())
	require.NoError(t, err)

	assert.Contains(t, types, event.BookingCreated)
	assert.Contains(t, types, event.PaymentRecorded)
	assert.Contains(t, types, event.TransactionRecorded)
	assert.Contains(t, types, event.ScheduleGenerated)
}
