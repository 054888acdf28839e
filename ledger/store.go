/*
store.go - Persistence interface for accounts, transactions, and source records.

PURPOSE:
  Defines the interface between the ledger logic and the database. Different
  implementations can use SQLite or in-memory storage; the reconciliation
  coordinator composes this with the booking store and a WithTx capability.

DELETE SEMANTICS:
  Unlike a pure audit log, transactions here CAN be hard-deleted - but only
  in lockstep with their source record, and only through the reconciliation
  coordinator. The store exposes the primitive; the coordinator owns the
  pairing rule. Callers needing reversibility must archive externally first.

SEE ALSO:
  - ledger.go: Higher-level operations using this interface
  - store/sqlite: Production implementation
  - store/memory: In-memory implementation for tests
*/
package ledger

import "context"

// Store handles persistence of ledger records.
type Store interface {
	// Accounts
	SaveAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	// Transactions. AppendTransaction fails with ErrDuplicateIdempotencyKey
	// if the transaction carries a key that already exists.
	AppendTransaction(ctx context.Context, tx Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	// ListTransactions returns an account's transactions ordered by date.
	// projectID narrows to one project when non-empty.
	ListTransactions(ctx context.Context, accountID, projectID string) ([]Transaction, error)
	// FindTransactionByKey returns the transaction recorded under an
	// idempotency key, or nil.
	FindTransactionByKey(ctx context.Context, idempotencyKey string) (*Transaction, error)
	// LinkTransactionSource back-links a transaction to the record that
	// caused it. This is the only permitted mutation of a transaction.
	LinkTransactionSource(ctx context.Context, txID string, source SourceRef) error

	// Source records
	SaveExpense(ctx context.Context, e Expense) error
	GetExpense(ctx context.Context, id string) (*Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context, projectID string) ([]Expense, error)

	SaveSalaryPayment(ctx context.Context, sp SalaryPayment) error
	GetSalaryPayment(ctx context.Context, id string) (*SalaryPayment, error)
	DeleteSalaryPayment(ctx context.Context, id string) error

	SaveRevenue(ctx context.Context, rev Revenue) error
	GetRevenue(ctx context.Context, id string) (*Revenue, error)
	DeleteRevenue(ctx context.Context, id string) error
}
