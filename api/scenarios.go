/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates accounts, units,
	customers, and drives bookings through the coordinator so every demo
	row satisfies the same invariants as production data.

AVAILABLE SCENARIOS:

	fresh-launch:        Accounts, inventory, and customers, no bookings yet
	active-installments: Booking with a deposit and a 5-year monthly plan
	overdue-followup:    Installment plan with rows past due
	paid-off:            Booking collected in full, unit sold
	back-office:         Expenses, salaries, revenue, manual transactions

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create accounts, units, customers directly in the store
 3. Drive bookings and payments through the coordinator, so paired
    transactions, schedules, and unit statuses all line up

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "active-installments"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - reconcile/coordinator.go: booking/payment orchestration
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/reconcile"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-launch",
		Name:        "Fresh Launch",
		Description: "New project with accounts, units, and customers, no bookings yet",
	},
	{
		ID:          "active-installments",
		Name:        "Active Installments",
		Description: "Booking with a deposit and a 5-year monthly installment plan",
	},
	{
		ID:          "overdue-followup",
		Name:        "Overdue Follow-up",
		Description: "Installment plan with rows past their due date",
	},
	{
		ID:          "paid-off",
		Name:        "Paid Off",
		Description: "Booking collected in full; unit sold, booking completed",
	},
	{
		ID:          "back-office",
		Name:        "Back Office",
		Description: "Expenses, salaries, revenue, and manual ledger entries",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	resetter, ok := h.Store.(interface{ Reset(context.Context) error })
	if !ok {
		writeError(w, http.StatusInternalServerError, "Store does not support reset", nil)
		return
	}
	if err := resetter.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "fresh-launch":
		err = h.loadFreshLaunchScenario(ctx)
	case "active-installments":
		err = h.loadActiveInstallmentsScenario(ctx)
	case "overdue-followup":
		err = h.loadOverdueFollowupScenario(ctx)
	case "paid-off":
		err = h.loadPaidOffScenario(ctx)
	case "back-office":
		err = h.loadBackOfficeScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFreshLaunchScenario(ctx context.Context) error {
	now := time.Now().UTC()

	accounts := []ledger.Account{
		{ID: "acct-main", Name: "Main Bank Account", Type: ledger.AccountBank,
			InitialBalance: decimal.NewFromInt(1000000), CreatedAt: now},
		{ID: "acct-cash", Name: "Site Office Cash", Type: ledger.AccountCash,
			InitialBalance: decimal.NewFromInt(50000), CreatedAt: now},
	}
	for _, a := range accounts {
		if err := h.Store.SaveAccount(ctx, a); err != nil {
			return err
		}
	}

	units := []booking.Unit{
		{ID: "unit-a-101", ProjectID: "proj-hillside", Name: "Tower A - 101",
			Price: decimal.NewFromInt(300000), Status: booking.UnitAvailable, CreatedAt: now},
		{ID: "unit-a-102", ProjectID: "proj-hillside", Name: "Tower A - 102",
			Price: decimal.NewFromInt(300000), Status: booking.UnitAvailable, CreatedAt: now},
		{ID: "unit-b-201", ProjectID: "proj-hillside", Name: "Tower B - 201",
			Price: decimal.NewFromInt(450000), Status: booking.UnitAvailable, CreatedAt: now},
		{ID: "unit-v-01", ProjectID: "proj-lakeview", Name: "Villa 1",
			Price: decimal.NewFromInt(750000), Status: booking.UnitAvailable, CreatedAt: now},
	}
	for _, u := range units {
		if err := h.Store.SaveUnit(ctx, u); err != nil {
			return err
		}
	}

	customers := []booking.Customer{
		{ID: "cust-omar", Name: "Omar Haddad", Phone: "+20 100 555 0101",
			Email: "omar@example.com", CreatedAt: now},
		{ID: "cust-layla", Name: "Layla Mansour", Phone: "+20 100 555 0102",
			Email: "layla@example.com", CreatedAt: now},
		{ID: "cust-nour", Name: "Nour El-Sayed", Phone: "+20 100 555 0103",
			Email: "nour@example.com", CreatedAt: now},
	}
	for _, c := range customers {
		if err := h.Store.SaveCustomer(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadActiveInstallmentsScenario(ctx context.Context) error {
	if err := h.loadFreshLaunchScenario(ctx); err != nil {
		return err
	}

	// Booking three months back: 300000 unit, 50000 deposit, remaining
	// 250000 split over 5 years of monthly installments.
	bookingDate := monthsAgo(3)
	result, err := h.Coordinator.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID:     "unit-a-101",
		CustomerID: "cust-omar",
		Date:       bookingDate,
		Deposit:    decimal.NewFromInt(50000),
		AccountID:  "acct-main",
		Plan: &booking.PlanTerms{
			Years:           5,
			FrequencyMonths: 1,
			StartDate:       bookingDate.AddDate(0, 1, 0),
		},
		IdempotencyKey: "scenario-active-booking",
	})
	if err != nil {
		return err
	}

	// Collect the first two installments.
	for i, row := range result.Schedule {
		if i >= 2 {
			break
		}
		_, err := h.Coordinator.RecordPayment(ctx, reconcile.RecordPaymentInput{
			BookingID:          result.Booking.ID,
			Amount:             row.Amount,
			Date:               row.DueDate,
			AccountID:          "acct-main",
			Type:               booking.PaymentInstallment,
			ScheduledPaymentID: row.ID,
			IdempotencyKey:     fmt.Sprintf("scenario-active-installment-%d", i+1),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadOverdueFollowupScenario(ctx context.Context) error {
	if err := h.loadFreshLaunchScenario(ctx); err != nil {
		return err
	}

	// Plan started six months ago, only the first installment collected.
	bookingDate := monthsAgo(6)
	result, err := h.Coordinator.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID:     "unit-b-201",
		CustomerID: "cust-layla",
		Date:       bookingDate,
		Deposit:    decimal.NewFromInt(90000),
		AccountID:  "acct-main",
		Plan: &booking.PlanTerms{
			Years:           4,
			FrequencyMonths: 1,
			StartDate:       bookingDate.AddDate(0, 1, 0),
		},
		IdempotencyKey: "scenario-overdue-booking",
	})
	if err != nil {
		return err
	}

	first := result.Schedule[0]
	_, err = h.Coordinator.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID:          result.Booking.ID,
		Amount:             first.Amount,
		Date:               first.DueDate,
		AccountID:          "acct-main",
		Type:               booking.PaymentInstallment,
		ScheduledPaymentID: first.ID,
		IdempotencyKey:     "scenario-overdue-installment-1",
	})
	if err != nil {
		return err
	}

	// Flag everything past due so the demo starts with visible overdue rows.
	_, err = h.Coordinator.MarkOverdueInstallments(ctx, time.Now().UTC())
	return err
}

func (h *Handler) loadPaidOffScenario(ctx context.Context) error {
	if err := h.loadFreshLaunchScenario(ctx); err != nil {
		return err
	}

	// Deposit covers a third, one lump payment settles the rest. Recording
	// the full remainder completes the booking and marks the unit sold.
	bookingDate := monthsAgo(12)
	result, err := h.Coordinator.CreateBooking(ctx, reconcile.CreateBookingInput{
		UnitID:         "unit-a-102",
		CustomerID:     "cust-nour",
		Date:           bookingDate,
		Deposit:        decimal.NewFromInt(100000),
		AccountID:      "acct-main",
		IdempotencyKey: "scenario-paidoff-booking",
	})
	if err != nil {
		return err
	}

	_, err = h.Coordinator.RecordPayment(ctx, reconcile.RecordPaymentInput{
		BookingID:      result.Booking.ID,
		Amount:         decimal.NewFromInt(200000),
		Date:           bookingDate.AddDate(0, 2, 0),
		AccountID:      "acct-main",
		Type:           booking.PaymentFinal,
		IdempotencyKey: "scenario-paidoff-final",
	})
	return err
}

func (h *Handler) loadBackOfficeScenario(ctx context.Context) error {
	if err := h.loadFreshLaunchScenario(ctx); err != nil {
		return err
	}

	if _, err := h.Coordinator.SubmitExpense(ctx, reconcile.ExpenseInput{
		ProjectID:      "proj-hillside",
		Category:       "construction",
		Description:    "Concrete delivery, tower A",
		Amount:         decimal.NewFromInt(42000),
		Date:           monthsAgo(1),
		AccountID:      "acct-main",
		IdempotencyKey: "scenario-backoffice-expense-concrete",
	}); err != nil {
		return err
	}

	if _, err := h.Coordinator.SubmitSalaryPayment(ctx, reconcile.SalaryInput{
		EmployeeID:     "emp-site-eng",
		Month:          monthsAgo(1).Format("2006-01"),
		Amount:         decimal.NewFromInt(9500),
		Date:           monthsAgo(1),
		AccountID:      "acct-main",
		IdempotencyKey: "scenario-backoffice-salary-eng",
	}); err != nil {
		return err
	}

	if _, err := h.Coordinator.SubmitRevenue(ctx, reconcile.RevenueInput{
		ProjectID:      "proj-hillside",
		Description:    "Rooftop billboard lease",
		Amount:         decimal.NewFromInt(15000),
		Date:           monthsAgo(2),
		AccountID:      "acct-main",
		IdempotencyKey: "scenario-backoffice-billboard",
	}); err != nil {
		return err
	}

	_, err := h.Coordinator.SubmitManualTransaction(ctx, ledger.RecordInput{
		AccountID:      "acct-cash",
		Type:           ledger.TxWithdrawal,
		Date:           monthsAgo(0),
		Description:    "Petty cash, site office supplies",
		Amount:         decimal.NewFromInt(1200),
		IdempotencyKey: "scenario-backoffice-petty-cash",
	})
	return err
}

func monthsAgo(n int) time.Time {
	t := time.Now().UTC().AddDate(0, -n, 0)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
