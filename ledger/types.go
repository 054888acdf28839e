/*
Package ledger is the source of truth for Account and Transaction records.

PURPOSE:
  Every financial event in the system produces exactly one Transaction.
  An Account's balance is NEVER stored - it is always derived by replaying
  the account's transaction log on top of the initial balance. There is no
  dual-write to keep in sync, so the balance cannot drift from its history.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A bank or cash account with an initial balance
  - Transaction: A single deposit or withdrawal against an account
  - SourceRef: Tagged back-reference to the record that caused a transaction
  - Expense/SalaryPayment/Revenue: Source records paired 1:1 with transactions

DESIGN PRINCIPLES:
  1. Derived balances: balance = initial + deposits - withdrawals, always
  2. Precision: decimal.Decimal for all money, never binary floats
  3. Paired lifecycle: a transaction with a source record is deleted
     atomically with that record, never on its own
  4. Idempotency: compound submissions carry a client token stored on the
     transaction so retries cannot double-write

SEE ALSO:
  - ledger.go: Record/delete/balance operations
  - store.go: Persistence interface
  - booking package: Payment records that pair with BookingPayment transactions
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT
// =============================================================================

type AccountType string

const (
	AccountBank AccountType = "bank"
	AccountCash AccountType = "cash"
)

// Account holds funds. Balance is computed from transactions; the only
// stored monetary field is the opening balance.
type Account struct {
	ID             string
	Name           string
	Type           AccountType
	InitialBalance decimal.Decimal
	CreatedAt      time.Time
}

// =============================================================================
// TRANSACTION
// =============================================================================

type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
)

// SourceType tags which kind of record caused a transaction.
// Modeled as a closed set rather than a free-form string so a dangling
// back-reference is a type error, not a silent corruption.
type SourceType string

const (
	SourceManual         SourceType = "manual"
	SourceExpense        SourceType = "expense"
	SourceSalary         SourceType = "salary"
	SourceBookingPayment SourceType = "booking_payment"
	SourceRevenue        SourceType = "revenue"
)

// Valid reports whether t is one of the known source tags.
func (t SourceType) Valid() bool {
	switch t {
	case SourceManual, SourceExpense, SourceSalary, SourceBookingPayment, SourceRevenue:
		return true
	}
	return false
}

// SourceRef is the back-reference from a transaction to the record that
// caused it. Manual transactions have Type=SourceManual and an empty ID.
type SourceRef struct {
	Type SourceType
	ID   string
}

func (r SourceRef) IsManual() bool { return r.Type == SourceManual || r.Type == "" }

// Transaction is a single financial event. Amount is always positive;
// direction is carried by Type.
type Transaction struct {
	ID          string
	AccountID   string
	ProjectID   string // optional scope for multi-project ledgers
	Type        TransactionType
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Source      SourceRef
	// IdempotencyKey is set by the reconciliation coordinator for compound
	// submissions. Unique when present.
	IdempotencyKey string
	CreatedAt      time.Time
}

// Signed returns the amount with its direction applied.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TxWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// =============================================================================
// SOURCE RECORDS - Records paired 1:1 with a transaction
// =============================================================================

// Expense is an outgoing cost backed by a withdrawal transaction.
type Expense struct {
	ID            string
	ProjectID     string
	Category      string
	Description   string
	Amount        decimal.Decimal
	Date          time.Time
	AccountID     string
	TransactionID string
	CreatedAt     time.Time
}

// SalaryPayment is a payroll disbursement backed by a withdrawal transaction.
type SalaryPayment struct {
	ID            string
	EmployeeID    string
	Month         string // YYYY-MM
	Amount        decimal.Decimal
	Date          time.Time
	AccountID     string
	TransactionID string
	CreatedAt     time.Time
}

// Revenue is non-booking income backed by a deposit transaction.
type Revenue struct {
	ID            string
	ProjectID     string
	Description   string
	Amount        decimal.Decimal
	Date          time.Time
	AccountID     string
	TransactionID string
	CreatedAt     time.Time
}
