/*
Package booking tracks how much of a unit's price has been paid and keeps
bookings, payments, and installment schedules mutually consistent.

PURPOSE:
  A Booking is a customer's commitment to purchase a Unit. Payments
  accumulate against the unit's price; an optional installment plan
  materializes the remaining balance as ScheduledPayment rows. The
  booking's "amount paid" is ALWAYS derived by summing its payments -
  the initial deposit is modeled as a first-class Payment, not a cached
  field.

KEY CONCEPTS IN THIS FILE (types.go):
  - Unit: sellable inventory with a price and a lifecycle status
  - Customer: independent lifecycle, referenced but never cascade-deleted
  - Booking: Active -> Cancelled / Completed, at most one Active per unit
  - Payment: immutable money-in event, paired 1:1 with a ledger transaction
  - ScheduledPayment: one future due amount of an amortized plan
  - PlanTerms: duration and frequency parameters of a deferred plan

SEE ALSO:
  - tracker.go: Derived totals and the overpayment guard
  - schedule.go: Installment generation
  - lifecycle.go: State machine transitions
*/
package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNIT
// =============================================================================

type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitBooked    UnitStatus = "booked"
	UnitSold      UnitStatus = "sold"
)

// Unit is a sellable property unit. Status and CustomerID are owned by the
// booking state machine; nothing else may set them once a booking exists.
type Unit struct {
	ID         string
	ProjectID  string
	Name       string
	Price      decimal.Decimal
	Status     UnitStatus
	CustomerID string // empty when not booked/sold
	CreatedAt  time.Time
}

// =============================================================================
// CUSTOMER
// =============================================================================

type Customer struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// =============================================================================
// BOOKING
// =============================================================================

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool { return s == StatusCancelled || s == StatusCompleted }

// PlanTerms are the parameters of a deferred installment plan.
type PlanTerms struct {
	Years           int // 4 or 5
	FrequencyMonths int // 1..5
	StartDate       time.Time
}

// Booking is a customer's commitment to purchase a unit. It holds no cached
// money fields: paid/remaining totals are derived by the Tracker.
type Booking struct {
	ID          string
	UnitID      string
	CustomerID  string
	BookingDate time.Time
	Status      Status
	Plan        *PlanTerms // nil when no installment plan
	CreatedAt   time.Time
}

// =============================================================================
// PAYMENT
// =============================================================================

type PaymentType string

const (
	PaymentBooking     PaymentType = "booking"     // initial deposit
	PaymentInstallment PaymentType = "installment" // collected against the plan
	PaymentFinal       PaymentType = "final"
)

// Payment is money received against a booking. Immutable once created
// except for the privileged amount correction, which is re-validated
// against the overpayment invariant. CustomerID and UnitID are denormalized
// from the booking for reporting queries.
type Payment struct {
	ID            string
	BookingID     string
	CustomerID    string
	UnitID        string
	Amount        decimal.Decimal
	Date          time.Time
	Type          PaymentType
	AccountID     string // account that received the funds
	TransactionID string // paired ledger transaction
	CreatedAt     time.Time
}

// =============================================================================
// SCHEDULED PAYMENT
// =============================================================================

type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "pending"
	SchedulePaid    ScheduleStatus = "paid"
	ScheduleOverdue ScheduleStatus = "overdue"
)

// ScheduledPayment is one installment of a plan. Rows are generated and
// discarded wholesale by the scheduler; individual rows are never mutated
// by date arithmetic alone.
type ScheduledPayment struct {
	ID                string
	BookingID         string
	InstallmentNumber int // 1..N
	DueDate           time.Time
	Amount            decimal.Decimal
	Status            ScheduleStatus
	PaidDate          *time.Time
	CreatedAt         time.Time
}
