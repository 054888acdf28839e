/*
schedule.go - Amortized installment schedule generation.

ALGORITHM:
  totalMonths       = planYears * 12
  monthlyAmount     = remaining / totalMonths
  installmentAmount = round2(monthlyAmount * frequencyMonths)
  installmentCount  = ceil(totalMonths / frequencyMonths)
  dueDate[k]        = startDate + k*frequencyMonths months

REMAINDER POLICY:
  The final installment is the residual (remaining - sum of previous rows),
  not another repeated installmentAmount. The schedule therefore sums to
  the remaining balance EXACTLY, with no rounding leakage - 250,000 over
  60 months is 59 x 4,166.67 plus a final 4,166.47.

REGENERATION:
  When a plan is edited or a booking cancelled, pending and overdue rows
  are discarded wholesale before new ones are inserted. Paid rows are
  preserved for audit. Rows are never adjusted in place.
*/
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supported plan shapes. Anything else is rejected with ErrInvalidPlan.
const (
	minPlanYears       = 4
	maxPlanYears       = 5
	maxFrequencyMonths = 5
)

// Scheduler generates and regenerates installment schedules.
type Scheduler struct {
	store Store
}

func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store}
}

// ValidateTerms checks plan parameters against the supported range.
func ValidateTerms(terms PlanTerms) error {
	if terms.Years < minPlanYears || terms.Years > maxPlanYears {
		return fmt.Errorf("%w: plan years must be %d or %d, got %d",
			ErrInvalidPlan, minPlanYears, maxPlanYears, terms.Years)
	}
	if terms.FrequencyMonths < 1 || terms.FrequencyMonths > maxFrequencyMonths {
		return fmt.Errorf("%w: frequency must be 1..%d months, got %d",
			ErrInvalidPlan, maxFrequencyMonths, terms.FrequencyMonths)
	}
	if terms.StartDate.IsZero() {
		return fmt.Errorf("%w: start date required", ErrInvalidPlan)
	}
	return nil
}

// BuildSchedule computes the installment rows for a remaining balance.
// Pure function: no storage access, no side effects.
func BuildSchedule(bookingID string, remaining decimal.Decimal, terms PlanTerms) ([]ScheduledPayment, error) {
	if err := ValidateTerms(terms); err != nil {
		return nil, err
	}
	if !remaining.IsPositive() {
		return nil, fmt.Errorf("%w: booking %s", ErrNoScheduleNeeded, bookingID)
	}

	totalMonths := int64(terms.Years * 12)
	monthly := remaining.Div(decimal.NewFromInt(totalMonths))
	installment := monthly.Mul(decimal.NewFromInt(int64(terms.FrequencyMonths))).Round(2)
	count := (int(totalMonths) + terms.FrequencyMonths - 1) / terms.FrequencyMonths

	now := time.Now().UTC()
	rows := make([]ScheduledPayment, 0, count)
	sum := decimal.Zero
	for k := 0; k < count; k++ {
		amount := installment
		if k == count-1 {
			// Final installment absorbs the rounding remainder.
			amount = remaining.Sub(sum)
		}
		rows = append(rows, ScheduledPayment{
			ID:                uuid.NewString(),
			BookingID:         bookingID,
			InstallmentNumber: k + 1,
			DueDate:           terms.StartDate.AddDate(0, k*terms.FrequencyMonths, 0),
			Amount:            amount,
			Status:            SchedulePending,
			CreatedAt:         now,
		})
		sum = sum.Add(amount)
	}
	return rows, nil
}

// Generate materializes a schedule for a booking's remaining balance and
// persists it. Any existing pending/overdue rows are discarded first; paid
// rows are kept for audit.
func (s *Scheduler) Generate(ctx context.Context, bookingID string, remaining decimal.Decimal, terms PlanTerms) ([]ScheduledPayment, error) {
	rows, err := BuildSchedule(bookingID, remaining, terms)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.DeleteScheduledPayments(ctx, bookingID, SchedulePending, ScheduleOverdue); err != nil {
		return nil, err
	}
	if err := s.store.SaveScheduledPayments(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Discard removes a booking's open (pending/overdue) rows, returning how
// many were deleted. Used on cancellation.
func (s *Scheduler) Discard(ctx context.Context, bookingID string) (int, error) {
	return s.store.DeleteScheduledPayments(ctx, bookingID, SchedulePending, ScheduleOverdue)
}

// CountPending returns the number of open rows for a booking.
func (s *Scheduler) CountPending(ctx context.Context, bookingID string) (int, error) {
	rows, err := s.store.ListScheduledPayments(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.Status == SchedulePending || r.Status == ScheduleOverdue {
			n++
		}
	}
	return n, nil
}

// MarkOverdue flips pending rows past their due date to overdue and
// returns the number of rows changed.
func (s *Scheduler) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	rows, err := s.store.ListScheduledDueBefore(ctx, asOf)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, r := range rows {
		if r.Status != SchedulePending {
			continue
		}
		r.Status = ScheduleOverdue
		if err := s.store.UpdateScheduledPayment(ctx, r); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
