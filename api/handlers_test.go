package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-estates/booking-ledger/api"
	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/reconcile"
	"github.com/atlas-estates/booking-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestAPI builds the full router over an in-memory store seeded with one
// account, one 300,000 unit, and one customer.
func newTestAPI(t *testing.T) http.Handler {
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
		Price: decimal.NewFromInt(300000), Status: booking.UnitAvailable,
	}))

	h := api.NewHandler(store, reconcile.New(store, nil, nil))
	return api.NewRouter(h)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
}

func bookingRequest() map[string]any {
	return map[string]any{
		"unit_id":     "unit-1",
		"customer_id": "cust-1",
		"date":        "2026-02-01",
		"deposit":     "50000",
		"account_id":  "acct-1",
		"plan": map[string]any{
			"years":            5,
			"frequency_months": 1,
			"start_date":       "2026-03-01",
		},
	}
}

// =============================================================================
// BOOKINGS
// =============================================================================

func TestAPI_CreateBooking(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result api.BookingResultDTO
	decodeBody(t, rec, &result)
	assert.Equal(t, "active", result.Booking.Status)
	assert.Equal(t, "booked", result.Unit.Status)
	assert.False(t, result.Completed)
	require.NotNil(t, result.Payment)
	assert.Equal(t, "50000", result.Payment.Amount)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, "booking_payment", result.Transaction.SourceType)
	assert.Len(t, result.Schedule, 60)
}

func TestAPI_CreateBooking_DepositWithoutAccount(t *testing.T) {
	router := newTestAPI(t)
	req := bookingRequest()
	delete(req, "account_id")

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_CreateBooking_OverpaymentCarriesCeiling(t *testing.T) {
	router := newTestAPI(t)
	req := bookingRequest()
	req["deposit"] = "300001"
	delete(req, "plan")

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", req)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "300000", body["max_allowed"])
	assert.Equal(t, "300001", body["attempted"])
}

func TestAPI_CreateBooking_UnitTakenConflict(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/bookings", map[string]any{
		"unit_id": "unit-1", "customer_id": "cust-1", "date": "2026-02-02",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_GetBooking_DerivedTotals(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.BookingResultDTO
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodGet, "/api/bookings/"+created.Booking.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var b api.BookingDTO
	decodeBody(t, rec, &b)
	assert.Equal(t, "50000", b.TotalPaid)
	assert.Equal(t, "250000", b.Remaining)
}

func TestAPI_GetBooking_NotFound(t *testing.T) {
	router := newTestAPI(t)
	rec := doJSON(t, router, http.MethodGet, "/api/bookings/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CancelBooking_ConfirmationFlow(t *testing.T) {
	// GIVEN: A booking with a 60-row open schedule
	// WHEN: Cancelling without confirmation
	// THEN: 409 naming the open count; the confirmed retry succeeds and
	//       releases the unit

	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.BookingResultDTO
	decodeBody(t, rec, &created)
	cancelPath := fmt.Sprintf("/api/bookings/%s/cancel", created.Booking.ID)

	rec = doJSON(t, router, http.MethodPost, cancelPath, map[string]any{})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	var conflict map[string]any
	decodeBody(t, rec, &conflict)
	assert.Equal(t, true, conflict["confirmation_required"])
	assert.Equal(t, float64(60), conflict["pending_installments"])

	rec = doJSON(t, router, http.MethodPost, cancelPath, map[string]any{"confirmed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result api.CancelResultDTO
	decodeBody(t, rec, &result)
	assert.Equal(t, "cancelled", result.Booking.Status)
	assert.Equal(t, 60, result.RemovedInstallments)

	rec = doJSON(t, router, http.MethodGet, "/api/units/unit-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unit api.UnitDTO
	decodeBody(t, rec, &unit)
	assert.Equal(t, "available", unit.Status)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestAPI_RecordPayment(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.BookingResultDTO
	decodeBody(t, rec, &created)
	first := created.Schedule[0]

	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/bookings/%s/payments", created.Booking.ID), map[string]any{
			"amount":               first.Amount,
			"date":                 first.DueDate,
			"account_id":           "acct-1",
			"type":                 "installment",
			"scheduled_payment_id": first.ID,
		})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result api.PaymentResultDTO
	decodeBody(t, rec, &result)
	require.NotNil(t, result.Payment)
	assert.Equal(t, "installment", result.Payment.Type)
	assert.Equal(t, "0", result.ScheduleDrift)
	assert.False(t, result.Completed)
}

func TestAPI_RecordPayment_RequiresAccount(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.BookingResultDTO
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/bookings/%s/payments", created.Booking.ID), map[string]any{
			"amount": "1000", "date": "2026-03-01",
		})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_RecordPayment_IdempotencyReplay(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.BookingResultDTO
	decodeBody(t, rec, &created)

	payment := map[string]any{
		"amount": "1000", "date": "2026-03-01", "account_id": "acct-1",
		"idempotency_key": "pay-retry-1",
	}
	path := fmt.Sprintf("/api/bookings/%s/payments", created.Booking.ID)

	rec = doJSON(t, router, http.MethodPost, path, payment)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, path, payment)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestAPI_CorrectPaymentAmount(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.BookingResultDTO
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodPatch,
		fmt.Sprintf("/api/payments/%s/amount", created.Payment.ID),
		map[string]any{"amount": "60000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.PaymentResultDTO
	decodeBody(t, rec, &result)
	require.NotNil(t, result.Payment)
	assert.Equal(t, "60000", result.Payment.Amount)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, "60000", result.Transaction.Amount)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestAPI_DeletePairedTransactionConflict(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.BookingResultDTO
	decodeBody(t, rec, &created)

	// The deposit transaction belongs to a payment; deleting it directly
	// would orphan the payment's reference.
	rec = doJSON(t, router, http.MethodDelete, "/api/transactions/"+created.Transaction.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestAPI_ManualTransactionLifecycle(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/transactions", map[string]any{
		"account_id": "acct-1", "type": "deposit", "date": "2026-02-01",
		"description": "Opening adjustment", "amount": "100",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tx api.TransactionDTO
	decodeBody(t, rec, &tx)
	assert.Equal(t, "manual", tx.SourceType)

	rec = doJSON(t, router, http.MethodGet, "/api/accounts/acct-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var account api.AccountDTO
	decodeBody(t, rec, &account)
	assert.Equal(t, "100", account.Balance)

	rec = doJSON(t, router, http.MethodDelete, "/api/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_CreateAccount_RejectsUnknownType(t *testing.T) {
	router := newTestAPI(t)
	rec := doJSON(t, router, http.MethodPost, "/api/accounts", map[string]any{
		"id": "acct-x", "name": "Crypto Wallet", "type": "crypto", "initial_balance": "0",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAPI_OverdueSweep(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bookings", bookingRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	// Plan starts 2026-03-01 monthly; four rows are due by 2026-06-02.
	rec = doJSON(t, router, http.MethodPost, "/api/admin/overdue-sweep?as_of=2026-06-02", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result map[string]any
	decodeBody(t, rec, &result)
	assert.Equal(t, float64(4), result["marked_overdue"])
	assert.Equal(t, "2026-06-02", result["as_of"])
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestAPI_Scenarios(t *testing.T) {
	router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []api.ScenarioDTO
	decodeBody(t, rec, &list)
	assert.Len(t, list, 5)

	rec = doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		map[string]any{"scenario_id": "fresh-launch"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The scenario replaced the seeded data wholesale.
	rec = doJSON(t, router, http.MethodGet, "/api/units", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var units []api.UnitDTO
	decodeBody(t, rec, &units)
	assert.Len(t, units, 4)

	rec = doJSON(t, router, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current api.ScenarioDTO
	decodeBody(t, rec, &current)
	assert.Equal(t, "fresh-launch", current.ID)
}

func TestAPI_Scenarios_UnknownRejected(t *testing.T) {
	router := newTestAPI(t)
	rec := doJSON(t, router, http.MethodPost, "/api/scenarios/load",
		map[string]any{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
