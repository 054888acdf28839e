/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

MONEY ON THE WIRE:
  All monetary amounts cross the wire as decimal strings ("250000.00"),
  never as floats: the domain uses decimal.Decimal end to end and a
  float64 round-trip through JSON would reintroduce exactly the precision
  loss the ledger exists to avoid. Dates are "2006-01-02"; timestamps are
  RFC3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: handler implementations that map domain <-> DTO
*/
package api

import (
	"time"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
)

const dateLayout = "2006-01-02"

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// LEDGER
// =============================================================================

type AccountDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	Balance        string `json:"balance,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type CreateAccountRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
}

type TransactionDTO struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	ProjectID   string `json:"project_id,omitempty"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	SourceType  string `json:"source_type"`
	SourceID    string `json:"source_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type CreateTransactionRequest struct {
	AccountID      string `json:"account_id"`
	ProjectID      string `json:"project_id,omitempty"`
	Type           string `json:"type"` // deposit | withdrawal
	Date           string `json:"date"`
	Description    string `json:"description,omitempty"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type ExpenseRequest struct {
	ProjectID      string `json:"project_id,omitempty"`
	Category       string `json:"category,omitempty"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Date           string `json:"date"`
	AccountID      string `json:"account_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type ExpenseDTO struct {
	ID            string `json:"id"`
	ProjectID     string `json:"project_id,omitempty"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
}

type SalaryRequest struct {
	EmployeeID     string `json:"employee_id"`
	Month          string `json:"month"` // YYYY-MM
	Amount         string `json:"amount"`
	Date           string `json:"date"`
	AccountID      string `json:"account_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type SalaryDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	Month         string `json:"month"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
}

type RevenueRequest struct {
	ProjectID      string `json:"project_id,omitempty"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Date           string `json:"date"`
	AccountID      string `json:"account_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type RevenueDTO struct {
	ID            string `json:"id"`
	ProjectID     string `json:"project_id,omitempty"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
}

// =============================================================================
// UNITS / CUSTOMERS
// =============================================================================

type UnitDTO struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id,omitempty"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Status     string `json:"status"`
	CustomerID string `json:"customer_id,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

type CreateUnitRequest struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id,omitempty"`
	Name      string `json:"name"`
	Price     string `json:"price"`
}

type CustomerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateCustomerRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

type PlanTermsDTO struct {
	Years           int    `json:"years"`
	FrequencyMonths int    `json:"frequency_months"`
	StartDate       string `json:"start_date"`
}

type CreateBookingRequest struct {
	UnitID         string        `json:"unit_id"`
	CustomerID     string        `json:"customer_id"`
	Date           string        `json:"date"`
	Deposit        string        `json:"deposit,omitempty"`
	AccountID      string        `json:"account_id,omitempty"`
	Plan           *PlanTermsDTO `json:"plan,omitempty"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
}

type BookingDTO struct {
	ID            string        `json:"id"`
	UnitID        string        `json:"unit_id"`
	CustomerID    string        `json:"customer_id"`
	BookingDate   string        `json:"booking_date"`
	Status        string        `json:"status"`
	Plan          *PlanTermsDTO `json:"plan,omitempty"`
	TotalPaid     string        `json:"total_paid,omitempty"`
	Remaining     string        `json:"remaining,omitempty"`
	ScheduleDrift string        `json:"schedule_drift,omitempty"`
	CreatedAt     string        `json:"created_at,omitempty"`
}

type BookingResultDTO struct {
	Booking     BookingDTO            `json:"booking"`
	Unit        UnitDTO               `json:"unit"`
	Payment     *PaymentDTO           `json:"payment,omitempty"`
	Transaction *TransactionDTO       `json:"transaction,omitempty"`
	Schedule    []ScheduledPaymentDTO `json:"schedule,omitempty"`
	Completed   bool                  `json:"completed"`
}

type CancelBookingRequest struct {
	Confirmed bool `json:"confirmed"`
}

type CancelResultDTO struct {
	Booking             BookingDTO `json:"booking"`
	Unit                UnitDTO    `json:"unit"`
	RemovedInstallments int        `json:"removed_installments"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

type RecordPaymentRequest struct {
	Amount             string `json:"amount"`
	Date               string `json:"date"`
	AccountID          string `json:"account_id"`
	Type               string `json:"type,omitempty"` // booking | installment | final
	ScheduledPaymentID string `json:"scheduled_payment_id,omitempty"`
	IdempotencyKey     string `json:"idempotency_key,omitempty"`
}

type PaymentDTO struct {
	ID            string `json:"id"`
	BookingID     string `json:"booking_id"`
	CustomerID    string `json:"customer_id"`
	UnitID        string `json:"unit_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Type          string `json:"type"`
	AccountID     string `json:"account_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type PaymentResultDTO struct {
	Payment       *PaymentDTO     `json:"payment,omitempty"`
	Transaction   *TransactionDTO `json:"transaction,omitempty"`
	Completed     bool            `json:"completed"`
	ScheduleDrift string          `json:"schedule_drift"`
}

type CorrectAmountRequest struct {
	Amount string `json:"amount"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

type ScheduledPaymentDTO struct {
	ID                string `json:"id"`
	BookingID         string `json:"booking_id"`
	InstallmentNumber int    `json:"installment_number"`
	DueDate           string `json:"due_date"`
	Amount            string `json:"amount"`
	Status            string `json:"status"`
	PaidDate          string `json:"paid_date,omitempty"`
}

type GenerateScheduleRequest struct {
	Plan PlanTermsDTO `json:"plan"`
}

// =============================================================================
// DOMAIN -> DTO MAPPERS
// =============================================================================

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance.String(),
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		ProjectID:   tx.ProjectID,
		Type:        string(tx.Type),
		Date:        tx.Date.Format(dateLayout),
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		SourceType:  string(tx.Source.Type),
		SourceID:    tx.Source.ID,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

func toUnitDTO(u booking.Unit) UnitDTO {
	return UnitDTO{
		ID:         u.ID,
		ProjectID:  u.ProjectID,
		Name:       u.Name,
		Price:      u.Price.String(),
		Status:     string(u.Status),
		CustomerID: u.CustomerID,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}

func toCustomerDTO(c booking.Customer) CustomerDTO {
	return CustomerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toBookingDTO(b booking.Booking) BookingDTO {
	dto := BookingDTO{
		ID:          b.ID,
		UnitID:      b.UnitID,
		CustomerID:  b.CustomerID,
		BookingDate: b.BookingDate.Format(dateLayout),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
	if b.Plan != nil {
		dto.Plan = &PlanTermsDTO{
			Years:           b.Plan.Years,
			FrequencyMonths: b.Plan.FrequencyMonths,
			StartDate:       b.Plan.StartDate.Format(dateLayout),
		}
	}
	return dto
}

func toPaymentDTO(p booking.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		BookingID:     p.BookingID,
		CustomerID:    p.CustomerID,
		UnitID:        p.UnitID,
		Amount:        p.Amount.String(),
		Date:          p.Date.Format(dateLayout),
		Type:          string(p.Type),
		AccountID:     p.AccountID,
		TransactionID: p.TransactionID,
	}
}

func toScheduledPaymentDTO(r booking.ScheduledPayment) ScheduledPaymentDTO {
	dto := ScheduledPaymentDTO{
		ID:                r.ID,
		BookingID:         r.BookingID,
		InstallmentNumber: r.InstallmentNumber,
		DueDate:           r.DueDate.Format(dateLayout),
		Amount:            r.Amount.String(),
		Status:            string(r.Status),
	}
	if r.PaidDate != nil {
		dto.PaidDate = r.PaidDate.Format(dateLayout)
	}
	return dto
}

func toScheduleDTOs(rows []booking.ScheduledPayment) []ScheduledPaymentDTO {
	dtos := make([]ScheduledPaymentDTO, len(rows))
	for i, r := range rows {
		dtos[i] = toScheduledPaymentDTO(r)
	}
	return dtos
}

func toExpenseDTO(e ledger.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:            e.ID,
		ProjectID:     e.ProjectID,
		Category:      e.Category,
		Description:   e.Description,
		Amount:        e.Amount.String(),
		Date:          e.Date.Format(dateLayout),
		AccountID:     e.AccountID,
		TransactionID: e.TransactionID,
	}
}

func toSalaryDTO(sp ledger.SalaryPayment) SalaryDTO {
	return SalaryDTO{
		ID:            sp.ID,
		EmployeeID:    sp.EmployeeID,
		Month:         sp.Month,
		Amount:        sp.Amount.String(),
		Date:          sp.Date.Format(dateLayout),
		AccountID:     sp.AccountID,
		TransactionID: sp.TransactionID,
	}
}

func toRevenueDTO(rev ledger.Revenue) RevenueDTO {
	return RevenueDTO{
		ID:            rev.ID,
		ProjectID:     rev.ProjectID,
		Description:   rev.Description,
		Amount:        rev.Amount.String(),
		Date:          rev.Date.Format(dateLayout),
		AccountID:     rev.AccountID,
		TransactionID: rev.TransactionID,
	}
}
