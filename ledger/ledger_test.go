package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*ledger.Ledger, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.SaveAccount(context.Background(), ledger.Account{
		ID: "acct-1", Name: "Main Bank", Type: ledger.AccountBank,
		InitialBalance: amount("1000"),
	}))
	return ledger.New(store), store
}

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(d int) time.Time {
	return time.Date(2026, time.April, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// BALANCE DERIVATION
// =============================================================================

func TestLedger_Balance_DerivedFromLog(t *testing.T) {
	// GIVEN: Initial 1,000; deposit 500; withdrawal 200
	// THEN: Balance is 1,300, recomputed from the log

	led, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := led.Record(ctx, ledger.RecordInput{
		AccountID: "acct-1", Type: ledger.TxDeposit, Date: day(1),
		Description: "Client wire", Amount: amount("500"),
	})
	require.NoError(t, err)

	_, err = led.Record(ctx, ledger.RecordInput{
		AccountID: "acct-1", Type: ledger.TxWithdrawal, Date: day(2),
		Description: "Supplier invoice", Amount: amount("200"),
	})
	require.NoError(t, err)

	balance, err := led.Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("1300")), "got %s", balance)
}

func TestLedger_Balance_OverdraftAllowed(t *testing.T) {
	led, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := led.Record(ctx, ledger.RecordInput{
		AccountID: "acct-1", Type: ledger.TxWithdrawal, Date: day(1),
		Description: "Big purchase", Amount: amount("5000"),
	})
	require.NoError(t, err)

	balance, err := led.Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("-4000")), "negative derived balance is legal, got %s", balance)
}

func TestLedger_Balance_ProjectScopeExcludesInitialBalance(t *testing.T) {
	// The opening balance belongs to the account, not to any project, so a
	// project-scoped view sums only that project's transactions.

	led, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := led.Record(ctx, ledger.RecordInput{
		AccountID: "acct-1", ProjectID: "proj-a", Type: ledger.TxDeposit,
		Date: day(1), Description: "Project A deposit", Amount: amount("700"),
	})
	require.NoError(t, err)
	_, err = led.Record(ctx, ledger.RecordInput{
		AccountID: "acct-1", ProjectID: "proj-b", Type: ledger.TxDeposit,
		Date: day(2), Description: "Project B deposit", Amount: amount("300"),
	})
	require.NoError(t, err)

	scoped, err := led.Balance(ctx, "acct-1", "proj-a")
	require.NoError(t, err)
	assert.True(t, scoped.Equal(amount("700")), "got %s", scoped)

	unscoped, err := led.Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, unscoped.Equal(amount("2000")), "got %s", unscoped)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestLedger_Record_RejectsNonPositiveAmounts(t *testing.T) {
	led, _ := newTestLedger(t)
	ctx := context.Background()

	for _, a := range []decimal.Decimal{decimal.Zero, amount("-10")} {
		_, err := led.Record(ctx, ledger.RecordInput{
			AccountID: "acct-1", Type: ledger.TxDeposit, Date: day(1), Amount: a,
		})
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount, "amount %s", a)
		assert.True(t, ledger.IsClientError(err))
	}
}

func TestLedger_Record_UnknownAccount(t *testing.T) {
	led, _ := newTestLedger(t)
	_, err := led.Record(context.Background(), ledger.RecordInput{
		AccountID: "ghost", Type: ledger.TxDeposit, Date: day(1), Amount: amount("10"),
	})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.True(t, ledger.IsNotFound(err))
}

func TestLedger_Record_UnknownType(t *testing.T) {
	led, _ := newTestLedger(t)
	_, err := led.Record(context.Background(), ledger.RecordInput{
		AccountID: "acct-1", Type: "transfer", Date: day(1), Amount: amount("10"),
	})
	assert.Error(t, err)
}

func TestLedger_Record_DefaultsToManualSource(t *testing.T) {
	led, _ := newTestLedger(t)
	tx, err := led.Record(context.Background(), ledger.RecordInput{
		AccountID: "acct-1", Type: ledger.TxDeposit, Date: day(1), Amount: amount("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.SourceManual, tx.Source.Type)
	assert.True(t, tx.Source.IsManual())
	assert.NotEmpty(t, tx.ID)
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func TestLedger_Record_DuplicateIdempotencyKeyRejected(t *testing.T) {
	led, _ := newTestLedger(t)
	ctx := context.Background()

	in := ledger.RecordInput{
		AccountID: "acct-1", Type: ledger.TxDeposit, Date: day(1),
		Amount: amount("10"), IdempotencyKey: "retry-token-1",
	}
	_, err := led.Record(ctx, in)
	require.NoError(t, err)

	_, err = led.Record(ctx, in)
	assert.ErrorIs(t, err, ledger.ErrDuplicateIdempotencyKey)

	// The balance reflects exactly one write.
	balance, err := led.Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("1010")), "got %s", balance)
}

// =============================================================================
// DELETION
// =============================================================================

func TestLedger_Delete(t *testing.T) {
	led, _ := newTestLedger(t)
	ctx := context.Background()

	tx, err := led.Record(ctx, ledger.RecordInput{
		AccountID: "acct-1", Type: ledger.TxDeposit, Date: day(1), Amount: amount("10"),
	})
	require.NoError(t, err)

	require.NoError(t, led.Delete(ctx, tx.ID))

	balance, err := led.Balance(ctx, "acct-1", "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("1000")))

	err = led.Delete(ctx, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}
