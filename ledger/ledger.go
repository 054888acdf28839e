/*
ledger.go - Record, delete, and derive balances from transactions.

PURPOSE:
  The Ledger validates and persists transactions and computes account
  balances by replaying the transaction log. It enforces ledger-level
  rules only (positive amounts, valid source tags, existing accounts).
  Business-level caps such as "total paid must not exceed unit price"
  belong to the booking package, not here.

BALANCE:
  balance(account) = initialBalance
                   + sum(amount of deposits)
                   - sum(amount of withdrawals)

  Computed on every call, never cached. Overdraft is allowed - the ledger
  does not forbid a negative derived balance.
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is the source of truth for all financial events.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordInput describes a transaction to record. ID is optional; a UUID is
// assigned when empty.
type RecordInput struct {
	ID             string
	AccountID      string
	ProjectID      string
	Type           TransactionType
	Date           time.Time
	Description    string
	Amount         decimal.Decimal
	Source         SourceRef
	IdempotencyKey string
}

// Record validates and persists a single transaction.
func (l *Ledger) Record(ctx context.Context, in RecordInput) (*Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, &InvalidAmountError{Amount: in.Amount}
	}
	if in.Type != TxDeposit && in.Type != TxWithdrawal {
		return nil, fmt.Errorf("unknown transaction type %q", in.Type)
	}
	if in.Source.Type != "" && !in.Source.Type.Valid() {
		return nil, fmt.Errorf("unknown source type %q", in.Source.Type)
	}

	account, err := l.store.GetAccount(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("record transaction: %w: %s", ErrAccountNotFound, in.AccountID)
	}

	tx := Transaction{
		ID:             in.ID,
		AccountID:      in.AccountID,
		ProjectID:      in.ProjectID,
		Type:           in.Type,
		Date:           in.Date,
		Description:    in.Description,
		Amount:         in.Amount,
		Source:         in.Source,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Source.Type == "" {
		tx.Source.Type = SourceManual
	}

	if err := l.store.AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Delete hard-deletes a transaction. No soft-delete or undo exists at this
// level; the reconciliation coordinator is responsible for deleting the
// paired source record in the same unit of work.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	tx, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if tx == nil {
		return fmt.Errorf("delete transaction: %w: %s", ErrTransactionNotFound, id)
	}
	return l.store.DeleteTransaction(ctx, id)
}

// Balance derives an account's balance from its transaction log.
// projectID scopes the sum to one project when non-empty; the initial
// balance is only included for the unscoped view, since an opening balance
// belongs to the account, not to any single project.
func (l *Ledger) Balance(ctx context.Context, accountID, projectID string) (decimal.Decimal, error) {
	account, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if account == nil {
		return decimal.Zero, fmt.Errorf("balance: %w: %s", ErrAccountNotFound, accountID)
	}

	txs, err := l.store.ListTransactions(ctx, accountID, projectID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	if projectID == "" {
		balance = account.InitialBalance
	}
	for _, tx := range txs {
		balance = balance.Add(tx.Signed())
	}
	return balance, nil
}

// Transactions returns an account's transaction history, oldest first.
func (l *Ledger) Transactions(ctx context.Context, accountID, projectID string) ([]Transaction, error) {
	return l.store.ListTransactions(ctx, accountID, projectID)
}
