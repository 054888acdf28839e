/*
handlers.go - HTTP API handlers for the booking ledger

PURPOSE:
  Exposes the booking ledger and installment engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                List accounts with derived balances
    POST   /api/accounts                Create account
    GET    /api/accounts/{id}           Account with balance (?project_id=)
    GET    /api/accounts/{id}/transactions Transaction history

  Units / Customers:
    GET/POST /api/units, /api/customers, GET .../{id}

  Bookings:
    POST   /api/bookings                Create booking (+deposit, +plan)
    GET    /api/bookings                List bookings
    GET    /api/bookings/{id}           Booking with derived totals
    POST   /api/bookings/{id}/cancel    Cancel (confirmed flag for open plans)
    POST   /api/bookings/{id}/payments  Record payment
    GET    /api/bookings/{id}/payments  Payment history
    GET    /api/bookings/{id}/schedule  Installment schedule
    PUT    /api/bookings/{id}/plan      (Re)generate installment plan

  Payments:
    DELETE /api/payments/{id}           Delete payment + paired transaction
    PATCH  /api/payments/{id}/amount    Privileged amount correction

  Ledger:
    POST   /api/transactions            Manual transaction
    DELETE /api/transactions/{id}       Delete manual transaction
    POST/DELETE /api/expenses, /api/salaries, /api/revenues

  Admin:
    POST   /api/admin/overdue-sweep     Flip past-due installments

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    POST   /api/scenarios/load          Load a demo scenario

ERROR HANDLING:
  Domain errors map to HTTP status via httpStatus():
  - 400: validation (invalid amount, invalid plan, overpayment)
  - 404: not found
  - 409: conflict (idempotency replay, unit taken, pending schedule)
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/reconcile"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       reconcile.Store
	Coordinator *reconcile.Coordinator

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler over the given store and coordinator.
func NewHandler(store reconcile.Store, coord *reconcile.Coordinator) *Handler {
	return &Handler{Store: store, Coordinator: coord}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts with their derived balances.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.Store.ListAccounts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	led := ledger.New(h.Store)
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dto := toAccountDTO(a)
		if balance, err := led.Balance(ctx, a.ID, ""); err == nil {
			dto.Balance = balance.String()
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates a new account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	accountType := ledger.AccountType(req.Type)
	if accountType != ledger.AccountBank && accountType != ledger.AccountCash {
		writeError(w, http.StatusBadRequest, "type must be 'bank' or 'cash'", nil)
		return
	}
	initial, err := parseAmount(req.InitialBalance, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid initial_balance", err)
		return
	}

	a := ledger.Account{
		ID:             req.ID,
		Name:           req.Name,
		Type:           accountType,
		InitialBalance: initial,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Store.SaveAccount(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(a))
}

// GetAccount returns one account with its balance, optionally scoped to a
// project via ?project_id=.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	projectID := r.URL.Query().Get("project_id")

	a, err := h.Store.GetAccount(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get account", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Account not found", nil)
		return
	}

	dto := toAccountDTO(*a)
	balance, err := ledger.New(h.Store).Balance(ctx, id, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive balance", err)
		return
	}
	dto.Balance = balance.String()
	writeJSON(w, http.StatusOK, dto)
}

// GetAccountTransactions returns an account's transaction history.
func (h *Handler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	projectID := r.URL.Query().Get("project_id")

	txs, err := ledger.New(h.Store).Transactions(r.Context(), id, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get transactions", err)
		return
	}
	dtos := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, toTransactionDTO(tx))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// UNIT HANDLERS
// =============================================================================

// ListUnits returns units, optionally filtered by ?project_id=.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.ListUnits(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list units", err)
		return
	}
	dtos := make([]UnitDTO, 0, len(units))
	for _, u := range units {
		dtos = append(dtos, toUnitDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUnit creates a new available unit.
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	price, err := parseAmount(req.Price, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid price", err)
		return
	}

	u := booking.Unit{
		ID:        req.ID,
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Price:     price,
		Status:    booking.UnitAvailable,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveUnit(r.Context(), u); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUnitDTO(u))
}

// GetUnit returns one unit.
func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetUnit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get unit", err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "Unit not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUnitDTO(*u))
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}
	dtos := make([]CustomerDTO, 0, len(customers))
	for _, c := range customers {
		dtos = append(dtos, toCustomerDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	c := booking.Customer{
		ID:        req.ID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveCustomer(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(c))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get customer", err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(*c))
}

// =============================================================================
// BOOKING HANDLERS
// =============================================================================

// CreateBooking creates a booking with an optional deposit and installment
// plan in one atomic operation.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	deposit := decimal.Zero
	if req.Deposit != "" {
		deposit, err = parseAmount(req.Deposit, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid deposit", err)
			return
		}
	}
	if deposit.IsPositive() && req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required when a deposit is given", nil)
		return
	}
	plan, err := parsePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}

	result, err := h.Coordinator.CreateBooking(r.Context(), reconcile.CreateBookingInput{
		UnitID:         req.UnitID,
		CustomerID:     req.CustomerID,
		Date:           date,
		Deposit:        deposit,
		AccountID:      req.AccountID,
		Plan:           plan,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, "Failed to create booking", err)
		return
	}

	dto := BookingResultDTO{
		Booking:   toBookingDTO(*result.Booking),
		Unit:      toUnitDTO(*result.Unit),
		Schedule:  toScheduleDTOs(result.Schedule),
		Completed: result.Completed,
	}
	if result.Payment != nil {
		p := toPaymentDTO(*result.Payment)
		dto.Payment = &p
	}
	if result.Transaction != nil {
		tx := toTransactionDTO(*result.Transaction)
		dto.Transaction = &tx
	}
	writeJSON(w, http.StatusCreated, dto)
}

// ListBookings returns all bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Store.ListBookings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}
	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBooking returns one booking with its derived paid/remaining totals.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	b, err := h.Store.GetBooking(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get booking", err)
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "Booking not found", nil)
		return
	}

	dto := toBookingDTO(*b)
	tracker := booking.NewTracker(h.Store)
	if total, err := tracker.TotalPaid(ctx, id); err == nil {
		dto.TotalPaid = total.String()
	}
	if remaining, err := tracker.Remaining(ctx, id); err == nil {
		dto.Remaining = remaining.String()
	}
	if drift, err := tracker.ScheduleDrift(ctx, id); err == nil && !drift.IsZero() {
		dto.ScheduleDrift = drift.String()
	}
	writeJSON(w, http.StatusOK, dto)
}

// CancelBooking cancels an active booking. When open installments exist the
// request must carry {"confirmed": true}; the 409 response tells the client
// how many rows would be discarded.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req CancelBookingRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.Coordinator.CancelBooking(r.Context(), chi.URLParam(r, "id"), req.Confirmed)
	if err != nil {
		writeDomainError(w, "Failed to cancel booking", err)
		return
	}
	writeJSON(w, http.StatusOK, CancelResultDTO{
		Booking:             toBookingDTO(*result.Booking),
		Unit:                toUnitDTO(*result.Unit),
		RemovedInstallments: result.RemovedInstallments,
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// RecordPayment records a payment against a booking.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "account_id is required", nil)
		return
	}

	result, err := h.Coordinator.RecordPayment(r.Context(), reconcile.RecordPaymentInput{
		BookingID:          bookingID,
		Amount:             amount,
		Date:               date,
		AccountID:          req.AccountID,
		Type:               booking.PaymentType(req.Type),
		ScheduledPaymentID: req.ScheduledPaymentID,
		IdempotencyKey:     req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResultDTO(result))
}

// ListBookingPayments returns a booking's payment history.
func (h *Handler) ListBookingPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPaymentsByBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DeletePayment removes a payment together with its paired transaction.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Coordinator.DeletePayment(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete payment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "payment_id": id})
}

// CorrectPaymentAmount applies the privileged amount correction.
func (h *Handler) CorrectPaymentAmount(w http.ResponseWriter, r *http.Request) {
	var req CorrectAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	result, err := h.Coordinator.CorrectPaymentAmount(r.Context(), chi.URLParam(r, "id"), amount)
	if err != nil {
		writeDomainError(w, "Failed to correct payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResultDTO(result))
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSchedule returns a booking's installment schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.ListScheduledPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTOs(rows))
}

// SetPlan (re)generates a booking's installment plan against its current
// remaining balance. Paid rows survive; open rows are replaced.
func (h *Handler) SetPlan(w http.ResponseWriter, r *http.Request) {
	var req GenerateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	plan, err := parsePlan(&req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}

	rows, err := h.Coordinator.GenerateSchedule(r.Context(), chi.URLParam(r, "id"), *plan)
	if err != nil {
		writeDomainError(w, "Failed to generate schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTOs(rows))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction records a manual ledger transaction.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	tx, err := h.Coordinator.SubmitManualTransaction(r.Context(), ledger.RecordInput{
		AccountID:      req.AccountID,
		ProjectID:      req.ProjectID,
		Type:           ledger.TransactionType(req.Type),
		Date:           date,
		Description:    req.Description,
		Amount:         amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, "Failed to record transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(*tx))
}

// DeleteTransaction deletes a manual transaction. Paired transactions are
// rejected with 409: they can only go through their source record.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Coordinator.DeleteManualTransaction(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "transaction_id": id})
}

// =============================================================================
// EXPENSE / SALARY / REVENUE HANDLERS
// =============================================================================

func (h *Handler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, date, err := parseAmountAndDate(req.Amount, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount or date", err)
		return
	}

	exp, err := h.Coordinator.SubmitExpense(r.Context(), reconcile.ExpenseInput{
		ProjectID:      req.ProjectID,
		Category:       req.Category,
		Description:    req.Description,
		Amount:         amount,
		Date:           date,
		AccountID:      req.AccountID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, "Failed to record expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(*exp))
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.Store.ListExpenses(r.Context(), r.URL.Query().Get("project_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}
	dtos := make([]ExpenseDTO, 0, len(expenses))
	for _, e := range expenses {
		dtos = append(dtos, toExpenseDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Coordinator.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "expense_id": id})
}

func (h *Handler) SubmitSalary(w http.ResponseWriter, r *http.Request) {
	var req SalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, date, err := parseAmountAndDate(req.Amount, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount or date", err)
		return
	}

	sp, err := h.Coordinator.SubmitSalaryPayment(r.Context(), reconcile.SalaryInput{
		EmployeeID:     req.EmployeeID,
		Month:          req.Month,
		Amount:         amount,
		Date:           date,
		AccountID:      req.AccountID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, "Failed to record salary payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalaryDTO(*sp))
}

func (h *Handler) DeleteSalary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Coordinator.DeleteSalaryPayment(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete salary payment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "salary_id": id})
}

func (h *Handler) SubmitRevenue(w http.ResponseWriter, r *http.Request) {
	var req RevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, date, err := parseAmountAndDate(req.Amount, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount or date", err)
		return
	}

	rev, err := h.Coordinator.SubmitRevenue(r.Context(), reconcile.RevenueInput{
		ProjectID:      req.ProjectID,
		Description:    req.Description,
		Amount:         amount,
		Date:           date,
		AccountID:      req.AccountID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeDomainError(w, "Failed to record revenue", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRevenueDTO(*rev))
}

func (h *Handler) DeleteRevenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Coordinator.DeleteRevenue(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete revenue", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "revenue_id": id})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// OverdueSweep flips pending installments past their due date to overdue.
// The background sweeper calls the same coordinator method; this endpoint
// exists for ops and tests.
func (h *Handler) OverdueSweep(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if s := r.URL.Query().Get("as_of"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
			return
		}
		asOf = t
	}

	n, err := h.Coordinator.MarkOverdueInstallments(r.Context(), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sweep overdue installments", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"marked_overdue": n,
		"as_of":          asOf.Format(dateLayout),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func toPaymentResultDTO(result *reconcile.PaymentResult) PaymentResultDTO {
	dto := PaymentResultDTO{
		Completed:     result.Completed,
		ScheduleDrift: result.ScheduleDrift.String(),
	}
	if result.Payment != nil {
		p := toPaymentDTO(*result.Payment)
		dto.Payment = &p
	}
	if result.Transaction != nil {
		tx := toTransactionDTO(*result.Transaction)
		dto.Transaction = &tx
	}
	return dto
}

func parseAmount(s string, allowZero bool) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() || (!allowZero && d.IsZero()) {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", d)
	}
	return d, nil
}

func parseAmountAndDate(amount, date string) (decimal.Decimal, time.Time, error) {
	a, err := parseAmount(amount, false)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return a, t, nil
}

func parsePlan(dto *PlanTermsDTO) (*booking.PlanTerms, error) {
	if dto == nil {
		return nil, nil
	}
	start, err := time.Parse(dateLayout, dto.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	plan := &booking.PlanTerms{
		Years:           dto.Years,
		FrequencyMonths: dto.FrequencyMonths,
		StartDate:       start,
	}
	if err := booking.ValidateTerms(*plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// httpStatus maps a domain error to an HTTP status code.
func httpStatus(err error) int {
	switch {
	case booking.IsNotFound(err) || ledger.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateIdempotencyKey),
		errors.Is(err, booking.ErrUnitNotAvailable),
		errors.Is(err, booking.ErrActiveBookingExists),
		errors.Is(err, booking.ErrPendingSchedule),
		errors.Is(err, ledger.ErrOrphanReference),
		errors.Is(err, ledger.ErrConcurrentModification):
		return http.StatusConflict
	case booking.IsClientError(err) || ledger.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, message, err)
		return
	}

	resp := map[string]any{"error": err.Error()}
	// Structured errors carry extra context the client can act on.
	var overpay *booking.OverpaymentError
	var pending *booking.PendingScheduleError
	switch {
	case errors.As(err, &overpay):
		resp["max_allowed"] = overpay.MaxAllowed.String()
		resp["attempted"] = overpay.Attempted.String()
	case errors.As(err, &pending):
		resp["pending_installments"] = pending.PendingCount
		resp["confirmation_required"] = true
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
