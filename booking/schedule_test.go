package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func planStart() time.Time {
	return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// SCHEDULE GENERATION
// =============================================================================

func TestBuildSchedule_MonthlyFiveYears_SumsExactly(t *testing.T) {
	// GIVEN: 250,000 remaining over 5 years, monthly installments
	// WHEN: Building the schedule
	// THEN: 60 rows, 59 x 4,166.67 plus a final 4,166.47, summing exactly

	rows, err := booking.BuildSchedule("b-1", amount("250000"), booking.PlanTerms{
		Years: 5, FrequencyMonths: 1, StartDate: planStart(),
	})
	require.NoError(t, err)
	require.Len(t, rows, 60)

	sum := decimal.Zero
	for i, r := range rows {
		assert.Equal(t, i+1, r.InstallmentNumber)
		assert.Equal(t, booking.SchedulePending, r.Status)
		if i < 59 {
			assert.True(t, r.Amount.Equal(amount("4166.67")),
				"row %d: got %s", i+1, r.Amount)
		}
		sum = sum.Add(r.Amount)
	}
	assert.True(t, rows[59].Amount.Equal(amount("4166.47")),
		"final row absorbs the rounding remainder, got %s", rows[59].Amount)
	assert.True(t, sum.Equal(amount("250000")), "schedule must sum exactly, got %s", sum)
}

func TestBuildSchedule_DueDatesSpacedByFrequency(t *testing.T) {
	rows, err := booking.BuildSchedule("b-1", amount("120000"), booking.PlanTerms{
		Years: 4, FrequencyMonths: 3, StartDate: planStart(),
	})
	require.NoError(t, err)
	require.Len(t, rows, 16) // 48 months / 3

	for k, r := range rows {
		want := planStart().AddDate(0, k*3, 0)
		assert.True(t, r.DueDate.Equal(want), "row %d due %s, want %s", k+1, r.DueDate, want)
	}
}

func TestBuildSchedule_InstallmentCountPerFrequency(t *testing.T) {
	// 4-year plan is 48 months; the last short installment still gets a row.
	cases := []struct {
		frequency int
		count     int
	}{
		{1, 48},
		{2, 24},
		{3, 16},
		{4, 12},
		{5, 10}, // ceil(48/5)
	}
	for _, tc := range cases {
		rows, err := booking.BuildSchedule("b-1", amount("96000"), booking.PlanTerms{
			Years: 4, FrequencyMonths: tc.frequency, StartDate: planStart(),
		})
		require.NoError(t, err, "frequency %d", tc.frequency)
		assert.Len(t, rows, tc.count, "frequency %d", tc.frequency)

		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(r.Amount)
		}
		assert.True(t, sum.Equal(amount("96000")), "frequency %d sums to %s", tc.frequency, sum)
	}
}

func TestBuildSchedule_RejectsUnsupportedTerms(t *testing.T) {
	cases := []booking.PlanTerms{
		{Years: 3, FrequencyMonths: 1, StartDate: planStart()},
		{Years: 6, FrequencyMonths: 1, StartDate: planStart()},
		{Years: 5, FrequencyMonths: 0, StartDate: planStart()},
		{Years: 5, FrequencyMonths: 6, StartDate: planStart()},
		{Years: 5, FrequencyMonths: 1}, // missing start date
	}
	for _, terms := range cases {
		_, err := booking.BuildSchedule("b-1", amount("100000"), terms)
		assert.ErrorIs(t, err, booking.ErrInvalidPlan, "terms %+v", terms)
	}
}

func TestBuildSchedule_NothingRemaining(t *testing.T) {
	_, err := booking.BuildSchedule("b-1", decimal.Zero, booking.PlanTerms{
		Years: 5, FrequencyMonths: 1, StartDate: planStart(),
	})
	assert.ErrorIs(t, err, booking.ErrNoScheduleNeeded)
}

// =============================================================================
// REGENERATION
// =============================================================================

func TestScheduler_Generate_ReplacesOpenRowsKeepsPaid(t *testing.T) {
	// GIVEN: A booking with one paid and two open rows
	// WHEN: Regenerating the plan
	// THEN: The paid row survives, the open rows are replaced wholesale

	store := memory.New()
	ctx := context.Background()
	paidDate := planStart()

	require.NoError(t, store.SaveScheduledPayments(ctx, []booking.ScheduledPayment{
		{ID: "row-paid", BookingID: "b-1", InstallmentNumber: 1, DueDate: planStart(),
			Amount: amount("5000"), Status: booking.SchedulePaid, PaidDate: &paidDate},
		{ID: "row-pending", BookingID: "b-1", InstallmentNumber: 2, DueDate: planStart().AddDate(0, 1, 0),
			Amount: amount("5000"), Status: booking.SchedulePending},
		{ID: "row-overdue", BookingID: "b-1", InstallmentNumber: 3, DueDate: planStart().AddDate(0, 2, 0),
			Amount: amount("5000"), Status: booking.ScheduleOverdue},
	}))

	rows, err := booking.NewScheduler(store).Generate(ctx, "b-1", amount("240000"), booking.PlanTerms{
		Years: 4, FrequencyMonths: 1, StartDate: planStart().AddDate(0, 3, 0),
	})
	require.NoError(t, err)
	require.Len(t, rows, 48)

	all, err := store.ListScheduledPayments(ctx, "b-1")
	require.NoError(t, err)
	assert.Len(t, all, 49, "48 new rows plus the retained paid row")

	var paidSurvived bool
	for _, r := range all {
		if r.ID == "row-paid" {
			paidSurvived = true
		}
		assert.NotEqual(t, "row-pending", r.ID)
		assert.NotEqual(t, "row-overdue", r.ID)
	}
	assert.True(t, paidSurvived)
}

// =============================================================================
// OVERDUE SWEEP
// =============================================================================

func TestScheduler_MarkOverdue_FlipsOnlyPastDuePending(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	asOf := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	paidDate := planStart()

	require.NoError(t, store.SaveScheduledPayments(ctx, []booking.ScheduledPayment{
		{ID: "past-pending", BookingID: "b-1", InstallmentNumber: 1,
			DueDate: asOf.AddDate(0, -2, 0), Amount: amount("1000"), Status: booking.SchedulePending},
		{ID: "past-paid", BookingID: "b-1", InstallmentNumber: 2,
			DueDate: asOf.AddDate(0, -1, 0), Amount: amount("1000"), Status: booking.SchedulePaid, PaidDate: &paidDate},
		{ID: "future-pending", BookingID: "b-1", InstallmentNumber: 3,
			DueDate: asOf.AddDate(0, 1, 0), Amount: amount("1000"), Status: booking.SchedulePending},
	}))

	n, err := booking.NewScheduler(store).MarkOverdue(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := store.ListScheduledPayments(ctx, "b-1")
	require.NoError(t, err)
	byID := map[string]booking.ScheduledPayment{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	assert.Equal(t, booking.ScheduleOverdue, byID["past-pending"].Status)
	assert.Equal(t, booking.SchedulePaid, byID["past-paid"].Status)
	assert.Equal(t, booking.SchedulePending, byID["future-pending"].Status)

	// Sweeping again is a no-op: already-overdue rows are not re-flipped.
	n, err = booking.NewScheduler(store).MarkOverdue(ctx, asOf)
	require.NoError(t, err)
	assert.Zero(t, n)
}
