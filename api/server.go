/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/accounts/*       Accounts and derived balances
  /api/transactions/*   Manual ledger transactions
  /api/units/*          Inventory
  /api/customers/*      Customers
  /api/bookings/*       Bookings, payments, schedules
  /api/payments/*       Payment delete / amount correction
  /api/expenses/*       Expenses
  /api/salaries/*       Salary payments
  /api/revenues/*       Non-booking revenue
  /api/admin/*          Overdue sweep
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Account routes
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Get("/{id}/transactions", h.GetAccountTransactions)
		})

		// Manual transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.CreateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		// Unit routes
		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Post("/", h.CreateUnit)
			r.Get("/{id}", h.GetUnit)
		})

		// Customer routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
		})

		// Booking routes
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/", h.CreateBooking)
			r.Get("/{id}", h.GetBooking)
			r.Post("/{id}/cancel", h.CancelBooking)
			r.Get("/{id}/payments", h.ListBookingPayments)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Put("/{id}/plan", h.SetPlan)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Delete("/{id}", h.DeletePayment)
			r.Patch("/{id}/amount", h.CorrectPaymentAmount)
		})

		// Expense routes
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.SubmitExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		// Salary routes
		r.Route("/salaries", func(r chi.Router) {
			r.Post("/", h.SubmitSalary)
			r.Delete("/{id}", h.DeleteSalary)
		})

		// Revenue routes
		r.Route("/revenues", func(r chi.Router) {
			r.Post("/", h.SubmitRevenue)
			r.Delete("/{id}", h.DeleteRevenue)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/overdue-sweep", h.OverdueSweep)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Booking Ledger</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Booking Ledger API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/accounts">/api/accounts</a> - List accounts with balances</li>
<li><a href="/api/units">/api/units</a> - List units</li>
<li><a href="/api/bookings">/api/bookings</a> - List bookings</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
