/*
Package reconcile orchestrates multi-entity financial writes.

PURPOSE:
  Every compound operation - booking with deposit, expense, salary payment,
  revenue - touches two or three entities plus exactly one ledger
  transaction. The Coordinator guarantees that partial failure leaves no
  orphaned financial record.

PROTOCOL:
  Writes are ordered to fail safely: the transaction is created first
  (cheapest to undo), then the dependent record referencing it, then the
  transaction is back-linked to the record. When the backing store supports
  multi-statement transactions (TxRunner), the whole operation runs inside
  one; otherwise each successful step registers a compensating action that
  is unwound in reverse on failure (see saga.go).

IDEMPOTENCY:
  Callers may supply a client-generated idempotency token per compound
  operation. The coordinator checks the transaction log for the token
  before writing anything, so a retry after an ambiguous network failure
  cannot double-write.

SEE ALSO:
  - booking package: state machine, tracker, scheduler
  - ledger package: transaction log and derived balances
*/
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/event"
	"github.com/atlas-estates/booking-ledger/ledger"
)

// Coordinator executes compound operations against a shared store.
type Coordinator struct {
	store Store
	pub   event.Publisher
	log   *zap.Logger
}

func New(store Store, pub event.Publisher, log *zap.Logger) *Coordinator {
	if pub == nil {
		pub = event.Discard{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{store: store, pub: pub, log: log}
}

// atomically runs fn as a single logical unit of work. With a TxRunner
// store the storage transaction provides rollback and fn receives a nil
// saga; otherwise fn registers compensations which are unwound on failure.
// A rollback failure is escalated instead of the original error: at that
// point an orphaned record exists and the ids in the error are the only
// trail to it.
func (c *Coordinator) atomically(ctx context.Context, op string, fn func(st Store, sg *saga) error) error {
	if runner, ok := c.store.(TxRunner); ok {
		return runner.WithTx(ctx, func(txStore Store) error {
			return fn(txStore, nil)
		})
	}

	sg := newSaga(c.log)
	if err := fn(c.store, sg); err != nil {
		c.log.Warn("compound operation failed, compensating",
			zap.String("op", op), zap.Error(err))
		if rbErr := sg.rollback(ctx); rbErr != nil {
			return rbErr
		}
		return err
	}
	return nil
}

func (c *Coordinator) checkIdempotency(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	existing, err := c.store.FindTransactionByKey(ctx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateIdempotencyKey, key)
	}
	return nil
}

// =============================================================================
// BOOKINGS
// =============================================================================

type CreateBookingInput struct {
	UnitID         string
	CustomerID     string
	Date           time.Time
	Deposit        decimal.Decimal // zero for no down payment
	AccountID      string          // required when Deposit > 0
	Plan           *booking.PlanTerms
	IdempotencyKey string
}

type BookingResult struct {
	Booking     *booking.Booking
	Unit        *booking.Unit
	Payment     *booking.Payment
	Transaction *ledger.Transaction
	Schedule    []booking.ScheduledPayment
	Completed   bool
}

// CreateBooking creates a booking, records the deposit as a payment paired
// with a ledger transaction, and materializes the installment plan when one
// is requested. Exactly one transaction, one payment, and one unit status
// change per successful call.
func (c *Coordinator) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingResult, error) {
	if err := c.checkIdempotency(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	}

	customer, err := c.store.GetCustomer(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("create booking: %w: %s", booking.ErrCustomerNotFound, in.CustomerID)
	}

	unit, err := c.store.GetUnit(ctx, in.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("create booking: %w: %s", booking.ErrUnitNotFound, in.UnitID)
	}

	b, bookedUnit, err := booking.NewBooking(unit, in.CustomerID, in.Date, in.Plan)
	if err != nil {
		return nil, err
	}
	if in.Deposit.IsNegative() {
		return nil, &ledger.InvalidAmountError{Amount: in.Deposit}
	}
	if in.Deposit.GreaterThan(unit.Price) {
		return nil, &booking.OverpaymentError{BookingID: b.ID, Attempted: in.Deposit, MaxAllowed: unit.Price}
	}

	result := &BookingResult{}
	original := *unit

	err = c.atomically(ctx, "create_booking", func(st Store, sg *saga) error {
		if err := st.SaveBooking(ctx, *b); err != nil {
			if errors.Is(err, booking.ErrActiveBookingExists) {
				return fmt.Errorf("%w: %v", booking.ErrUnitNotAvailable, err)
			}
			return err
		}
		sg.add("delete booking", func(ctx context.Context) error {
			return st.DeleteBooking(ctx, b.ID)
		})

		if err := st.UpdateUnit(ctx, *bookedUnit); err != nil {
			return err
		}
		sg.add("restore unit", func(ctx context.Context) error {
			return st.UpdateUnit(ctx, original)
		})

		result.Booking = b
		result.Unit = bookedUnit

		if in.Deposit.IsPositive() {
			tx, payment, err := c.recordBookingPayment(ctx, st, sg, b, recordPaymentArgs{
				amount:         in.Deposit,
				date:           in.Date,
				paymentType:    booking.PaymentBooking,
				accountID:      in.AccountID,
				projectID:      unit.ProjectID,
				description:    fmt.Sprintf("Booking deposit for unit %s", unit.Name),
				idempotencyKey: in.IdempotencyKey,
			})
			if err != nil {
				return err
			}
			result.Transaction = tx
			result.Payment = payment
		}

		completed, _, err := c.evaluateCompletion(ctx, st, sg, result.Booking, result.Unit)
		if err != nil {
			return err
		}
		result.Completed = completed

		if in.Plan != nil && !completed {
			remaining := unit.Price.Sub(in.Deposit)
			rows, err := booking.NewScheduler(st).Generate(ctx, b.ID, remaining, *in.Plan)
			if err != nil {
				return err
			}
			sg.add("discard schedule", func(ctx context.Context) error {
				_, err := st.DeleteScheduledPayments(ctx, b.ID, booking.SchedulePending)
				return err
			})
			result.Schedule = rows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.pub.Publish(event.Event{Type: event.BookingCreated, EntityID: b.ID,
		Payload: map[string]any{"unit_id": b.UnitID, "customer_id": b.CustomerID}})
	if result.Transaction != nil {
		c.pub.Publish(event.Event{Type: event.TransactionRecorded, EntityID: result.Transaction.ID})
		c.pub.Publish(event.Event{Type: event.PaymentRecorded, EntityID: result.Payment.ID,
			Payload: map[string]any{"booking_id": b.ID, "amount": result.Payment.Amount.String()}})
	}
	if len(result.Schedule) > 0 {
		c.pub.Publish(event.Event{Type: event.ScheduleGenerated, EntityID: b.ID,
			Payload: map[string]any{"installments": len(result.Schedule)}})
	}
	if result.Completed {
		c.pub.Publish(event.Event{Type: event.BookingCompleted, EntityID: b.ID})
	}
	return result, nil
}

type CancelResult struct {
	Booking             *booking.Booking
	Unit                *booking.Unit
	RemovedInstallments int
}

// CancelBooking cancels an active booking. If open installments exist the
// caller must have confirmed: the first call without confirmation fails
// with PendingScheduleError carrying the count, and the caller decides.
// Paid installments are retained for audit.
func (c *Coordinator) CancelBooking(ctx context.Context, bookingID string, confirmed bool) (*CancelResult, error) {
	b, err := c.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("cancel booking: %w: %s", booking.ErrBookingNotFound, bookingID)
	}
	if err := booking.GuardActive(b, "cancel"); err != nil {
		return nil, err
	}

	rows, err := c.store.ListScheduledPayments(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var open []booking.ScheduledPayment
	for _, r := range rows {
		if r.Status == booking.SchedulePending || r.Status == booking.ScheduleOverdue {
			open = append(open, r)
		}
	}
	if len(open) > 0 && !confirmed {
		return nil, &booking.PendingScheduleError{BookingID: bookingID, PendingCount: len(open)}
	}

	unit, err := c.store.GetUnit(ctx, b.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("cancel booking: %w: %s", booking.ErrUnitNotFound, b.UnitID)
	}

	cancelled, released, err := booking.Cancel(b, unit)
	if err != nil {
		return nil, err
	}

	result := &CancelResult{Booking: cancelled, Unit: released}
	originalBooking, originalUnit := *b, *unit

	err = c.atomically(ctx, "cancel_booking", func(st Store, sg *saga) error {
		removed, err := booking.NewScheduler(st).Discard(ctx, bookingID)
		if err != nil {
			return err
		}
		sg.add("restore schedule", func(ctx context.Context) error {
			return st.SaveScheduledPayments(ctx, open)
		})
		result.RemovedInstallments = removed

		if err := st.UpdateBooking(ctx, *cancelled); err != nil {
			return err
		}
		sg.add("restore booking", func(ctx context.Context) error {
			return st.UpdateBooking(ctx, originalBooking)
		})

		if err := st.UpdateUnit(ctx, *released); err != nil {
			return err
		}
		sg.add("restore unit", func(ctx context.Context) error {
			return st.UpdateUnit(ctx, originalUnit)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.pub.Publish(event.Event{Type: event.BookingCancelled, EntityID: bookingID,
		Payload: map[string]any{"removed_installments": result.RemovedInstallments}})
	return result, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

type RecordPaymentInput struct {
	BookingID          string
	Amount             decimal.Decimal
	Date               time.Time
	AccountID          string
	Type               booking.PaymentType
	ScheduledPaymentID string // optional: installment being collected
	IdempotencyKey     string
}

type PaymentResult struct {
	Payment       *booking.Payment
	Transaction   *ledger.Transaction
	Completed     bool
	ScheduleDrift decimal.Decimal
}

// RecordPayment records a payment against a booking together with its
// ledger transaction, marks the collected installment paid when one is
// named, and completes the booking if nothing remains.
func (c *Coordinator) RecordPayment(ctx context.Context, in RecordPaymentInput) (*PaymentResult, error) {
	if err := c.checkIdempotency(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	}

	b, err := c.store.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("record payment: %w: %s", booking.ErrBookingNotFound, in.BookingID)
	}
	if err := booking.GuardActive(b, "record payment for"); err != nil {
		return nil, err
	}
	unit, err := c.store.GetUnit(ctx, b.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("record payment: %w: %s", booking.ErrUnitNotFound, b.UnitID)
	}

	result := &PaymentResult{}
	err = c.atomically(ctx, "record_payment", func(st Store, sg *saga) error {
		tx, payment, err := c.recordBookingPayment(ctx, st, sg, b, recordPaymentArgs{
			amount:         in.Amount,
			date:           in.Date,
			paymentType:    in.Type,
			accountID:      in.AccountID,
			projectID:      unit.ProjectID,
			description:    fmt.Sprintf("Payment for unit %s", unit.Name),
			idempotencyKey: in.IdempotencyKey,
		})
		if err != nil {
			return err
		}
		result.Transaction = tx
		result.Payment = payment

		if in.ScheduledPaymentID != "" {
			if err := c.markInstallmentPaid(ctx, st, sg, in.BookingID, in.ScheduledPaymentID, in.Date); err != nil {
				return err
			}
		}

		completed, _, err := c.evaluateCompletion(ctx, st, sg, b, unit)
		result.Completed = completed
		return err
	})
	if err != nil {
		return nil, err
	}

	drift, err := booking.NewTracker(c.store).ScheduleDrift(ctx, in.BookingID)
	if err != nil {
		c.log.Warn("schedule drift unavailable",
			zap.String("booking_id", in.BookingID), zap.Error(err))
	} else {
		result.ScheduleDrift = drift
	}

	c.pub.Publish(event.Event{Type: event.TransactionRecorded, EntityID: result.Transaction.ID})
	c.pub.Publish(event.Event{Type: event.PaymentRecorded, EntityID: result.Payment.ID,
		Payload: map[string]any{"booking_id": in.BookingID, "amount": in.Amount.String()}})
	if result.Completed {
		c.pub.Publish(event.Event{Type: event.BookingCompleted, EntityID: in.BookingID})
	}
	return result, nil
}

// DeletePayment removes a payment and its paired transaction as one unit of
// work. If the transaction delete fails, the payment delete is rolled back.
// A Completed booking whose remaining balance becomes positive again is
// reopened.
func (c *Coordinator) DeletePayment(ctx context.Context, paymentID string) error {
	p, err := c.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("delete payment: %w: %s", booking.ErrPaymentNotFound, paymentID)
	}
	b, err := c.store.GetBooking(ctx, p.BookingID)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("delete payment: %w: %s", booking.ErrBookingNotFound, p.BookingID)
	}
	unit, err := c.store.GetUnit(ctx, b.UnitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return fmt.Errorf("delete payment: %w: %s", booking.ErrUnitNotFound, b.UnitID)
	}

	var reopened bool
	err = c.atomically(ctx, "delete_payment", func(st Store, sg *saga) error {
		if err := st.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		restore := *p
		sg.add("restore payment", func(ctx context.Context) error {
			return st.SavePayment(ctx, restore)
		})

		if p.TransactionID != "" {
			tx, err := st.GetTransaction(ctx, p.TransactionID)
			if err != nil {
				return err
			}
			if tx == nil {
				return &ledger.OrphanReferenceError{
					TransactionID: p.TransactionID,
					Source:        ledger.SourceRef{Type: ledger.SourceBookingPayment, ID: p.ID},
					Cause:         ledger.ErrTransactionNotFound,
				}
			}
			if err := st.DeleteTransaction(ctx, tx.ID); err != nil {
				return err
			}
			restoreTx := *tx
			sg.add("restore transaction", func(ctx context.Context) error {
				return st.AppendTransaction(ctx, restoreTx)
			})
		}

		_, r, err := c.evaluateCompletion(ctx, st, sg, b, unit)
		reopened = r
		return err
	})
	if err != nil {
		return err
	}

	c.pub.Publish(event.Event{Type: event.PaymentDeleted, EntityID: paymentID,
		Payload: map[string]any{"booking_id": p.BookingID}})
	if p.TransactionID != "" {
		c.pub.Publish(event.Event{Type: event.TransactionDeleted, EntityID: p.TransactionID})
	}
	if reopened {
		c.pub.Publish(event.Event{Type: event.BookingReopened, EntityID: p.BookingID})
	}
	return nil
}

// CorrectPaymentAmount is the privileged administrative correction. The new
// amount is subject to the same overpayment check as a fresh payment (with
// the payment's own current amount excluded), the paired transaction is
// rewritten to match, and completion is re-evaluated.
func (c *Coordinator) CorrectPaymentAmount(ctx context.Context, paymentID string, newAmount decimal.Decimal) (*PaymentResult, error) {
	if !newAmount.IsPositive() {
		return nil, &ledger.InvalidAmountError{Amount: newAmount}
	}
	p, err := c.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("correct payment: %w: %s", booking.ErrPaymentNotFound, paymentID)
	}
	b, err := c.store.GetBooking(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("correct payment: %w: %s", booking.ErrBookingNotFound, p.BookingID)
	}
	if b.Status == booking.StatusCancelled {
		return nil, &booking.InvalidTransitionError{BookingID: b.ID, Status: b.Status, Action: "correct payment for"}
	}
	unit, err := c.store.GetUnit(ctx, b.UnitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("correct payment: %w: %s", booking.ErrUnitNotFound, b.UnitID)
	}

	if err := booking.NewTracker(c.store).CheckPayment(ctx, b, newAmount, paymentID); err != nil {
		return nil, err
	}

	result := &PaymentResult{}
	err = c.atomically(ctx, "correct_payment", func(st Store, sg *saga) error {
		old := *p
		corrected := *p
		corrected.Amount = newAmount
		if err := st.UpdatePayment(ctx, corrected); err != nil {
			return err
		}
		sg.add("restore payment amount", func(ctx context.Context) error {
			return st.UpdatePayment(ctx, old)
		})
		result.Payment = &corrected

		if p.TransactionID != "" {
			tx, err := st.GetTransaction(ctx, p.TransactionID)
			if err != nil {
				return err
			}
			if tx == nil {
				return &ledger.OrphanReferenceError{
					TransactionID: p.TransactionID,
					Source:        ledger.SourceRef{Type: ledger.SourceBookingPayment, ID: p.ID},
					Cause:         ledger.ErrTransactionNotFound,
				}
			}
			if err := st.DeleteTransaction(ctx, tx.ID); err != nil {
				return err
			}
			restoreTx := *tx
			sg.add("restore transaction", func(ctx context.Context) error {
				return st.AppendTransaction(ctx, restoreTx)
			})

			rewritten := *tx
			rewritten.Amount = newAmount
			if err := st.AppendTransaction(ctx, rewritten); err != nil {
				return err
			}
			sg.add("delete rewritten transaction", func(ctx context.Context) error {
				return st.DeleteTransaction(ctx, rewritten.ID)
			})
			result.Transaction = &rewritten
		}

		completed, _, err := c.evaluateCompletion(ctx, st, sg, b, unit)
		result.Completed = completed
		return err
	})
	if err != nil {
		return nil, err
	}

	if drift, err := booking.NewTracker(c.store).ScheduleDrift(ctx, p.BookingID); err != nil {
		c.log.Warn("schedule drift unavailable",
			zap.String("booking_id", p.BookingID), zap.Error(err))
	} else {
		result.ScheduleDrift = drift
	}

	c.pub.Publish(event.Event{Type: event.PaymentCorrected, EntityID: paymentID,
		Payload: map[string]any{"booking_id": p.BookingID, "amount": newAmount.String()}})
	return result, nil
}

// =============================================================================
// INSTALLMENT PLANS
// =============================================================================

// GenerateSchedule (re)materializes a booking's installment plan against
// its current remaining balance. Open rows are replaced wholesale; paid
// rows are kept.
func (c *Coordinator) GenerateSchedule(ctx context.Context, bookingID string, terms booking.PlanTerms) ([]booking.ScheduledPayment, error) {
	b, err := c.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("generate schedule: %w: %s", booking.ErrBookingNotFound, bookingID)
	}
	if err := booking.GuardActive(b, "generate schedule for"); err != nil {
		return nil, err
	}

	remaining, err := booking.NewTracker(c.store).Remaining(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	open, err := c.store.ListScheduledPayments(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var rows []booking.ScheduledPayment
	originalBooking := *b
	err = c.atomically(ctx, "generate_schedule", func(st Store, sg *saga) error {
		rows, err = booking.NewScheduler(st).Generate(ctx, bookingID, remaining, terms)
		if err != nil {
			return err
		}
		sg.add("restore schedule", func(ctx context.Context) error {
			if _, err := st.DeleteScheduledPayments(ctx, bookingID, booking.SchedulePending); err != nil {
				return err
			}
			return st.SaveScheduledPayments(ctx, open)
		})

		updated := *b
		updated.Plan = &terms
		if err := st.UpdateBooking(ctx, updated); err != nil {
			return err
		}
		sg.add("restore booking plan", func(ctx context.Context) error {
			return st.UpdateBooking(ctx, originalBooking)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.pub.Publish(event.Event{Type: event.ScheduleGenerated, EntityID: bookingID,
		Payload: map[string]any{"installments": len(rows)}})
	return rows, nil
}

// MarkOverdueInstallments flips pending installments past their due date to
// overdue. Called by the background sweep and the admin endpoint.
func (c *Coordinator) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int, error) {
	n, err := booking.NewScheduler(c.store).MarkOverdue(ctx, asOf)
	if err != nil {
		return n, err
	}
	if n > 0 {
		c.pub.Publish(event.Event{Type: event.ScheduleOverdue,
			Payload: map[string]any{"count": n, "as_of": asOf.Format("2006-01-02")}})
	}
	return n, nil
}

// =============================================================================
// EXPENSES / SALARIES / REVENUES
// =============================================================================

type ExpenseInput struct {
	ProjectID      string
	Category       string
	Description    string
	Amount         decimal.Decimal
	Date           time.Time
	AccountID      string
	IdempotencyKey string
}

// SubmitExpense records an expense and its withdrawal transaction.
func (c *Coordinator) SubmitExpense(ctx context.Context, in ExpenseInput) (*ledger.Expense, error) {
	if err := c.checkIdempotency(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	}

	exp := ledger.Expense{
		ID:          uuid.NewString(),
		ProjectID:   in.ProjectID,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		AccountID:   in.AccountID,
		CreatedAt:   time.Now().UTC(),
	}

	err := c.atomically(ctx, "submit_expense", func(st Store, sg *saga) error {
		tx, err := c.recordSourceTransaction(ctx, st, sg, sourceTxArgs{
			accountID:      in.AccountID,
			projectID:      in.ProjectID,
			txType:         ledger.TxWithdrawal,
			date:           in.Date,
			description:    fmt.Sprintf("Expense: %s", in.Description),
			amount:         in.Amount,
			sourceType:     ledger.SourceExpense,
			idempotencyKey: in.IdempotencyKey,
		})
		if err != nil {
			return err
		}
		exp.TransactionID = tx.ID

		if err := st.SaveExpense(ctx, exp); err != nil {
			return err
		}
		sg.add("delete expense", func(ctx context.Context) error {
			return st.DeleteExpense(ctx, exp.ID)
		})

		return st.LinkTransactionSource(ctx, tx.ID, ledger.SourceRef{Type: ledger.SourceExpense, ID: exp.ID})
	})
	if err != nil {
		return nil, err
	}

	c.pub.Publish(event.Event{Type: event.ExpenseRecorded, EntityID: exp.ID,
		Payload: map[string]any{"amount": in.Amount.String()}})
	return &exp, nil
}

// DeleteExpense removes an expense together with its transaction.
func (c *Coordinator) DeleteExpense(ctx context.Context, id string) error {
	exp, err := c.store.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if exp == nil {
		return fmt.Errorf("delete expense: %w: %s", ledger.ErrSourceRecordNotFound, id)
	}

	err = c.atomically(ctx, "delete_expense", func(st Store, sg *saga) error {
		if err := st.DeleteExpense(ctx, id); err != nil {
			return err
		}
		restore := *exp
		sg.add("restore expense", func(ctx context.Context) error {
			return st.SaveExpense(ctx, restore)
		})
		return c.deletePairedTransaction(ctx, st, sg, exp.TransactionID, ledger.SourceRef{Type: ledger.SourceExpense, ID: id})
	})
	if err != nil {
		return err
	}
	c.pub.Publish(event.Event{Type: event.ExpenseDeleted, EntityID: id})
	return nil
}

type SalaryInput struct {
	EmployeeID     string
	Month          string // YYYY-MM
	Amount         decimal.Decimal
	Date           time.Time
	AccountID      string
	IdempotencyKey string
}

// SubmitSalaryPayment records a salary disbursement and its withdrawal
// transaction.
func (c *Coordinator) SubmitSalaryPayment(ctx context.Context, in SalaryInput) (*ledger.SalaryPayment, error) {
	if err := c.checkIdempotency(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	}

	sp := ledger.SalaryPayment{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		Month:      in.Month,
		Amount:     in.Amount,
		Date:       in.Date,
		AccountID:  in.AccountID,
		CreatedAt:  time.Now().UTC(),
	}

	err := c.atomically(ctx, "submit_salary", func(st Store, sg *saga) error {
		tx, err := c.recordSourceTransaction(ctx, st, sg, sourceTxArgs{
			accountID:      in.AccountID,
			txType:         ledger.TxWithdrawal,
			date:           in.Date,
			description:    fmt.Sprintf("Salary %s for employee %s", in.Month, in.EmployeeID),
			amount:         in.Amount,
			sourceType:     ledger.SourceSalary,
			idempotencyKey: in.IdempotencyKey,
		})
		if err != nil {
			return err
		}
		sp.TransactionID = tx.ID

		if err := st.SaveSalaryPayment(ctx, sp); err != nil {
			return err
		}
		sg.add("delete salary payment", func(ctx context.Context) error {
			return st.DeleteSalaryPayment(ctx, sp.ID)
		})

		return st.LinkTransactionSource(ctx, tx.ID, ledger.SourceRef{Type: ledger.SourceSalary, ID: sp.ID})
	})
	if err != nil {
		return nil, err
	}

	c.pub.Publish(event.Event{Type: event.SalaryRecorded, EntityID: sp.ID,
		Payload: map[string]any{"employee_id": in.EmployeeID, "month": in.Month}})
	return &sp, nil
}

// DeleteSalaryPayment removes a salary payment together with its transaction.
func (c *Coordinator) DeleteSalaryPayment(ctx context.Context, id string) error {
	sp, err := c.store.GetSalaryPayment(ctx, id)
	if err != nil {
		return err
	}
	if sp == nil {
		return fmt.Errorf("delete salary payment: %w: %s", ledger.ErrSourceRecordNotFound, id)
	}

	err = c.atomically(ctx, "delete_salary", func(st Store, sg *saga) error {
		if err := st.DeleteSalaryPayment(ctx, id); err != nil {
			return err
		}
		restore := *sp
		sg.add("restore salary payment", func(ctx context.Context) error {
			return st.SaveSalaryPayment(ctx, restore)
		})
		return c.deletePairedTransaction(ctx, st, sg, sp.TransactionID, ledger.SourceRef{Type: ledger.SourceSalary, ID: id})
	})
	return err
}

type RevenueInput struct {
	ProjectID      string
	Description    string
	Amount         decimal.Decimal
	Date           time.Time
	AccountID      string
	IdempotencyKey string
}

// SubmitRevenue records non-booking income and its deposit transaction.
func (c *Coordinator) SubmitRevenue(ctx context.Context, in RevenueInput) (*ledger.Revenue, error) {
	if err := c.checkIdempotency(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	}

	rev := ledger.Revenue{
		ID:          uuid.NewString(),
		ProjectID:   in.ProjectID,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		AccountID:   in.AccountID,
		CreatedAt:   time.Now().UTC(),
	}

	err := c.atomically(ctx, "submit_revenue", func(st Store, sg *saga) error {
		tx, err := c.recordSourceTransaction(ctx, st, sg, sourceTxArgs{
			accountID:      in.AccountID,
			projectID:      in.ProjectID,
			txType:         ledger.TxDeposit,
			date:           in.Date,
			description:    fmt.Sprintf("Revenue: %s", in.Description),
			amount:         in.Amount,
			sourceType:     ledger.SourceRevenue,
			idempotencyKey: in.IdempotencyKey,
		})
		if err != nil {
			return err
		}
		rev.TransactionID = tx.ID

		if err := st.SaveRevenue(ctx, rev); err != nil {
			return err
		}
		sg.add("delete revenue", func(ctx context.Context) error {
			return st.DeleteRevenue(ctx, rev.ID)
		})

		return st.LinkTransactionSource(ctx, tx.ID, ledger.SourceRef{Type: ledger.SourceRevenue, ID: rev.ID})
	})
	if err != nil {
		return nil, err
	}

	c.pub.Publish(event.Event{Type: event.RevenueRecorded, EntityID: rev.ID,
		Payload: map[string]any{"amount": in.Amount.String()}})
	return &rev, nil
}

// DeleteRevenue removes a revenue record together with its transaction.
func (c *Coordinator) DeleteRevenue(ctx context.Context, id string) error {
	rev, err := c.store.GetRevenue(ctx, id)
	if err != nil {
		return err
	}
	if rev == nil {
		return fmt.Errorf("delete revenue: %w: %s", ledger.ErrSourceRecordNotFound, id)
	}

	err = c.atomically(ctx, "delete_revenue", func(st Store, sg *saga) error {
		if err := st.DeleteRevenue(ctx, id); err != nil {
			return err
		}
		restore := *rev
		sg.add("restore revenue", func(ctx context.Context) error {
			return st.SaveRevenue(ctx, restore)
		})
		return c.deletePairedTransaction(ctx, st, sg, rev.TransactionID, ledger.SourceRef{Type: ledger.SourceRevenue, ID: id})
	})
	return err
}

// =============================================================================
// MANUAL TRANSACTIONS
// =============================================================================

// SubmitManualTransaction records a transaction with no source record.
func (c *Coordinator) SubmitManualTransaction(ctx context.Context, in ledger.RecordInput) (*ledger.Transaction, error) {
	if err := c.checkIdempotency(ctx, in.IdempotencyKey); err != nil {
		return nil, err
	}
	in.Source = ledger.SourceRef{Type: ledger.SourceManual}
	tx, err := ledger.New(c.store).Record(ctx, in)
	if err != nil {
		return nil, err
	}
	c.pub.Publish(event.Event{Type: event.TransactionRecorded, EntityID: tx.ID})
	return tx, nil
}

// DeleteManualTransaction deletes a transaction that has no source record.
// Transactions paired with a payment/expense/salary/revenue must be deleted
// through their source operation so the pair cannot be split.
func (c *Coordinator) DeleteManualTransaction(ctx context.Context, id string) error {
	tx, err := c.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return fmt.Errorf("delete transaction: %w: %s", ledger.ErrTransactionNotFound, id)
	}
	if !tx.Source.IsManual() {
		return &ledger.OrphanReferenceError{
			TransactionID: id,
			Source:        tx.Source,
			Cause:         fmt.Errorf("transaction is paired; delete the %s record instead", tx.Source.Type),
		}
	}
	if err := c.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	c.pub.Publish(event.Event{Type: event.TransactionDeleted, EntityID: id})
	return nil
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

type recordPaymentArgs struct {
	amount         decimal.Decimal
	date           time.Time
	paymentType    booking.PaymentType
	accountID      string
	projectID      string
	description    string
	idempotencyKey string
}

// recordBookingPayment performs the transaction -> payment -> back-link
// sequence for one booking payment, registering compensations as it goes.
func (c *Coordinator) recordBookingPayment(ctx context.Context, st Store, sg *saga, b *booking.Booking, args recordPaymentArgs) (*ledger.Transaction, *booking.Payment, error) {
	tx, err := ledger.New(st).Record(ctx, ledger.RecordInput{
		AccountID:      args.accountID,
		ProjectID:      args.projectID,
		Type:           ledger.TxDeposit,
		Date:           args.date,
		Description:    args.description,
		Amount:         args.amount,
		Source:         ledger.SourceRef{Type: ledger.SourceBookingPayment},
		IdempotencyKey: args.idempotencyKey,
	})
	if err != nil {
		return nil, nil, err
	}
	sg.add("delete transaction", func(ctx context.Context) error {
		return st.DeleteTransaction(ctx, tx.ID)
	})

	payment, err := booking.NewTracker(st).RecordPayment(ctx, booking.PaymentInput{
		BookingID:     b.ID,
		Amount:        args.amount,
		Date:          args.date,
		Type:          args.paymentType,
		AccountID:     args.accountID,
		TransactionID: tx.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	sg.add("delete payment", func(ctx context.Context) error {
		return st.DeletePayment(ctx, payment.ID)
	})

	if err := st.LinkTransactionSource(ctx, tx.ID, ledger.SourceRef{Type: ledger.SourceBookingPayment, ID: payment.ID}); err != nil {
		return nil, nil, err
	}
	tx.Source.ID = payment.ID
	return tx, payment, nil
}

type sourceTxArgs struct {
	accountID      string
	projectID      string
	txType         ledger.TransactionType
	date           time.Time
	description    string
	amount         decimal.Decimal
	sourceType     ledger.SourceType
	idempotencyKey string
}

func (c *Coordinator) recordSourceTransaction(ctx context.Context, st Store, sg *saga, args sourceTxArgs) (*ledger.Transaction, error) {
	tx, err := ledger.New(st).Record(ctx, ledger.RecordInput{
		AccountID:      args.accountID,
		ProjectID:      args.projectID,
		Type:           args.txType,
		Date:           args.date,
		Description:    args.description,
		Amount:         args.amount,
		Source:         ledger.SourceRef{Type: args.sourceType},
		IdempotencyKey: args.idempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	sg.add("delete transaction", func(ctx context.Context) error {
		return st.DeleteTransaction(ctx, tx.ID)
	})
	return tx, nil
}

func (c *Coordinator) deletePairedTransaction(ctx context.Context, st Store, sg *saga, txID string, source ledger.SourceRef) error {
	if txID == "" {
		return nil
	}
	tx, err := st.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if tx == nil {
		return &ledger.OrphanReferenceError{TransactionID: txID, Source: source, Cause: ledger.ErrTransactionNotFound}
	}
	if err := st.DeleteTransaction(ctx, txID); err != nil {
		return err
	}
	restore := *tx
	sg.add("restore transaction", func(ctx context.Context) error {
		return st.AppendTransaction(ctx, restore)
	})
	return nil
}

func (c *Coordinator) markInstallmentPaid(ctx context.Context, st Store, sg *saga, bookingID, rowID string, paidDate time.Time) error {
	rows, err := st.ListScheduledPayments(ctx, bookingID)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.ID != rowID {
			continue
		}
		old := r
		r.Status = booking.SchedulePaid
		d := paidDate
		r.PaidDate = &d
		if err := st.UpdateScheduledPayment(ctx, r); err != nil {
			return err
		}
		sg.add("restore installment status", func(ctx context.Context) error {
			return st.UpdateScheduledPayment(ctx, old)
		})
		return nil
	}
	return fmt.Errorf("mark installment: scheduled payment %s not found on booking %s", rowID, bookingID)
}

// evaluateCompletion derives the remaining balance and applies the implicit
// transitions: Active -> Completed at zero, Completed -> Active when a
// deletion or correction made it positive again. Runs after every
// payment-affecting operation, never on a timer.
func (c *Coordinator) evaluateCompletion(ctx context.Context, st Store, sg *saga, b *booking.Booking, unit *booking.Unit) (completed, reopened bool, err error) {
	remaining, err := booking.NewTracker(st).Remaining(ctx, b.ID)
	if err != nil {
		return false, false, err
	}

	switch {
	case remaining.IsZero() && b.Status == booking.StatusActive:
		done, sold, err := booking.Complete(b, unit)
		if err != nil {
			return false, false, err
		}
		if err := c.applyStatusChange(ctx, st, sg, b, unit, done, sold); err != nil {
			return false, false, err
		}
		*b, *unit = *done, *sold
		return true, false, nil

	case remaining.IsPositive() && b.Status == booking.StatusCompleted:
		active, booked, err := booking.Reopen(b, unit)
		if err != nil {
			return false, false, err
		}
		if err := c.applyStatusChange(ctx, st, sg, b, unit, active, booked); err != nil {
			return false, false, err
		}
		*b, *unit = *active, *booked
		return false, true, nil
	}
	return false, false, nil
}

func (c *Coordinator) applyStatusChange(ctx context.Context, st Store, sg *saga, oldB *booking.Booking, oldU *booking.Unit, newB *booking.Booking, newU *booking.Unit) error {
	prevB, prevU := *oldB, *oldU
	if err := st.UpdateBooking(ctx, *newB); err != nil {
		return err
	}
	sg.add("restore booking status", func(ctx context.Context) error {
		return st.UpdateBooking(ctx, prevB)
	})
	if err := st.UpdateUnit(ctx, *newU); err != nil {
		return err
	}
	sg.add("restore unit status", func(ctx context.Context) error {
		return st.UpdateUnit(ctx, prevU)
	})
	return nil
}
