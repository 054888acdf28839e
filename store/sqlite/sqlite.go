/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements the ledger and booking store interfaces plus WithTx using
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLES:
  accounts, transactions:       The ledger (balances always derived)
  expenses, salary_payments,
  revenues:                     Source records paired 1:1 with transactions
  units, customers, bookings,
  payments, scheduled_payments: The booking domain

CRITICAL INDEXES:
  idx_bookings_unit_active: partial UNIQUE index on bookings(unit_id)
    WHERE status='active'. This is the authoritative guard for the
    one-active-booking-per-unit rule: two racing inserts can both pass an
    application-level check, but they cannot both survive this index.
  idx_transactions_idempotency: unique idempotency keys, so a retried
    compound operation cannot double-write.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  A sync.RWMutex serializes in-process writers. WithTx holds the write
  lock for the duration of the storage transaction; the view it hands to
  the callback routes every call through the open sql.Tx via lock-free
  helpers, so the callback can read its own writes without deadlocking.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go, booking/store.go: interface definitions
  - reconcile/store.go: the combined Store and TxRunner surfaces
  - store/memory/memory.go: the in-memory counterpart used in tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/reconcile"
)

// Store implements reconcile.Store and reconcile.TxRunner on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// dbtx is satisfied by both *sql.DB and *sql.Tx. Every query helper in
// this file is parameterized on it so the same code serves direct calls
// and transactional views.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (or creates) the database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Reset drops all rows. Used by the demo scenario loader; never called in
// normal operation.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"scheduled_payments", "payments", "bookings",
		"expenses", "salary_payments", "revenues",
		"transactions", "units", "customers", "accounts",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("failed to reset %s: %w", t, err)
		}
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	-- Accounts: only the opening balance is stored, never the current one
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL,
		initial_balance TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Transactions: every financial event produces exactly one row
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		project_id TEXT,
		tx_type TEXT NOT NULL,
		tx_date TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		source_type TEXT NOT NULL DEFAULT 'manual',
		source_id TEXT,
		idempotency_key TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account_date
		ON transactions(account_id, tx_date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_idempotency
		ON transactions(idempotency_key) WHERE idempotency_key IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_source
		ON transactions(source_type, source_id) WHERE source_id IS NOT NULL;

	-- Source records
	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		project_id TEXT,
		category TEXT,
		description TEXT,
		amount TEXT NOT NULL,
		expense_date TEXT NOT NULL,
		account_id TEXT NOT NULL,
		transaction_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS salary_payments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		month TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		account_id TEXT NOT NULL,
		transaction_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS revenues (
		id TEXT PRIMARY KEY,
		project_id TEXT,
		description TEXT,
		amount TEXT NOT NULL,
		revenue_date TEXT NOT NULL,
		account_id TEXT NOT NULL,
		transaction_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Units
	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		project_id TEXT,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'available',
		customer_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_units_project ON units(project_id);

	-- Customers
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		created_at TEXT NOT NULL
	);

	-- Bookings
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		booking_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		plan_years INTEGER,
		plan_frequency_months INTEGER,
		plan_start_date TEXT,
		created_at TEXT NOT NULL
	);

	-- At most one active booking per unit, enforced by storage
	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_unit_active
		ON bookings(unit_id) WHERE status = 'active';
	CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id);

	-- Payments
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		payment_type TEXT,
		account_id TEXT,
		transaction_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_booking ON payments(booking_id);
	CREATE INDEX IF NOT EXISTS idx_payments_transaction
		ON payments(transaction_id) WHERE transaction_id IS NOT NULL;

	-- Scheduled payments (installment plans)
	CREATE TABLE IF NOT EXISTS scheduled_payments (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		installment_number INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		paid_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scheduled_booking
		ON scheduled_payments(booking_id, installment_number);
	CREATE INDEX IF NOT EXISTS idx_scheduled_status_due
		ON scheduled_payments(status, due_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER STORE
// =============================================================================

func (s *Store) SaveAccount(ctx context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAccount(ctx, s.db, a)
}

func saveAccount(ctx context.Context, db dbtx, a ledger.Account) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, account_type, initial_balance, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			account_type = excluded.account_type,
			initial_balance = excluded.initial_balance`,
		a.ID, a.Name, a.Type, a.InitialBalance.String(), fmtTime(a.CreatedAt))
	return err
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccount(ctx, s.db, id)
}

func getAccount(ctx context.Context, db dbtx, id string) (*ledger.Account, error) {
	var a ledger.Account
	var balance, createdAt string
	err := db.QueryRowContext(ctx,
		"SELECT id, name, account_type, initial_balance, created_at FROM accounts WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &a.Type, &balance, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.InitialBalance = parseDecimal(balance)
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAccounts(ctx, s.db)
}

func listAccounts(ctx context.Context, db dbtx) ([]ledger.Account, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, account_type, initial_balance, created_at FROM accounts ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		var a ledger.Account
		var balance, createdAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &balance, &createdAt); err != nil {
			return nil, err
		}
		a.InitialBalance = parseDecimal(balance)
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendTransaction(ctx, s.db, tx)
}

func appendTransaction(ctx context.Context, db dbtx, tx ledger.Transaction) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, account_id, project_id, tx_type, tx_date, description, amount,
		 source_type, source_id, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.AccountID, nullString(tx.ProjectID), tx.Type, fmtTime(tx.Date),
		tx.Description, tx.Amount.String(), string(tx.Source.Type),
		nullString(tx.Source.ID), nullString(tx.IdempotencyKey), fmtTime(tx.CreatedAt))
	if err != nil {
		if isIdempotencyKeyConstraint(err) {
			return ledger.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

const txColumns = `id, account_id, project_id, tx_type, tx_date, description,
	amount, source_type, source_id, idempotency_key, created_at`

func (s *Store) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTransaction(ctx, s.db, id)
}

func getTransaction(ctx context.Context, db dbtx, id string) (*ledger.Transaction, error) {
	return queryTransaction(ctx, db,
		"SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
}

func queryTransaction(ctx context.Context, db dbtx, query string, args ...any) (*ledger.Transaction, error) {
	row := db.QueryRowContext(ctx, query, args...)
	tx, err := scanTransactionRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func scanTransactionRow(scan func(...any) error) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var projectID, description, sourceID, idemKey sql.NullString
	var txDate, amount, sourceType, createdAt string

	err := scan(&tx.ID, &tx.AccountID, &projectID, &tx.Type, &txDate, &description,
		&amount, &sourceType, &sourceID, &idemKey, &createdAt)
	if err != nil {
		return nil, err
	}
	tx.ProjectID = projectID.String
	tx.Date = parseTime(txDate)
	tx.Description = description.String
	tx.Amount = parseDecimal(amount)
	tx.Source = ledger.SourceRef{Type: ledger.SourceType(sourceType), ID: sourceID.String}
	tx.IdempotencyKey = idemKey.String
	tx.CreatedAt = parseTime(createdAt)
	return &tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRow(ctx, s.db, "transactions", id, ledger.ErrTransactionNotFound)
}

func deleteRow(ctx context.Context, db dbtx, table, id string, notFound error) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID, projectID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTransactions(ctx, s.db, accountID, projectID)
}

func listTransactions(ctx context.Context, db dbtx, accountID, projectID string) ([]ledger.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions WHERE account_id = ?"
	args := []any{accountID}
	if projectID != "" {
		query += " AND project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY tx_date ASC, created_at ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

func (s *Store) FindTransactionByKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findTransactionByKey(ctx, s.db, key)
}

func findTransactionByKey(ctx context.Context, db dbtx, key string) (*ledger.Transaction, error) {
	return queryTransaction(ctx, db,
		"SELECT "+txColumns+" FROM transactions WHERE idempotency_key = ?", key)
}

func (s *Store) LinkTransactionSource(ctx context.Context, txID string, source ledger.SourceRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return linkTransactionSource(ctx, s.db, txID, source)
}

func linkTransactionSource(ctx context.Context, db dbtx, txID string, source ledger.SourceRef) error {
	res, err := db.ExecContext(ctx,
		"UPDATE transactions SET source_type = ?, source_id = ? WHERE id = ?",
		string(source.Type), nullString(source.ID), txID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

// ---- Expenses ----

func (s *Store) SaveExpense(ctx context.Context, e ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveExpense(ctx, s.db, e)
}

func saveExpense(ctx context.Context, db dbtx, e ledger.Expense) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO expenses
		(id, project_id, category, description, amount, expense_date, account_id, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			description = excluded.description,
			amount = excluded.amount,
			transaction_id = excluded.transaction_id`,
		e.ID, nullString(e.ProjectID), e.Category, e.Description, e.Amount.String(),
		fmtTime(e.Date), e.AccountID, nullString(e.TransactionID), fmtTime(e.CreatedAt))
	return err
}

func (s *Store) GetExpense(ctx context.Context, id string) (*ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getExpense(ctx, s.db, id)
}

func getExpense(ctx context.Context, db dbtx, id string) (*ledger.Expense, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, project_id, category, description, amount, expense_date, account_id, transaction_id, created_at
		FROM expenses WHERE id = ?`, id)
	e, err := scanExpenseRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanExpenseRow(scan func(...any) error) (*ledger.Expense, error) {
	var e ledger.Expense
	var projectID, txID sql.NullString
	var amount, date, createdAt string
	err := scan(&e.ID, &projectID, &e.Category, &e.Description, &amount, &date,
		&e.AccountID, &txID, &createdAt)
	if err != nil {
		return nil, err
	}
	e.ProjectID = projectID.String
	e.Amount = parseDecimal(amount)
	e.Date = parseTime(date)
	e.TransactionID = txID.String
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRow(ctx, s.db, "expenses", id, ledger.ErrSourceRecordNotFound)
}

func (s *Store) ListExpenses(ctx context.Context, projectID string) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listExpenses(ctx, s.db, projectID)
}

func listExpenses(ctx context.Context, db dbtx, projectID string) ([]ledger.Expense, error) {
	query := `SELECT id, project_id, category, description, amount, expense_date, account_id, transaction_id, created_at
		FROM expenses`
	args := []any{}
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY expense_date ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Expense
	for rows.Next() {
		e, err := scanExpenseRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ---- Salary payments ----

func (s *Store) SaveSalaryPayment(ctx context.Context, sp ledger.SalaryPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveSalaryPayment(ctx, s.db, sp)
}

func saveSalaryPayment(ctx context.Context, db dbtx, sp ledger.SalaryPayment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO salary_payments
		(id, employee_id, month, amount, payment_date, account_id, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			transaction_id = excluded.transaction_id`,
		sp.ID, sp.EmployeeID, sp.Month, sp.Amount.String(), fmtTime(sp.Date),
		sp.AccountID, nullString(sp.TransactionID), fmtTime(sp.CreatedAt))
	return err
}

func (s *Store) GetSalaryPayment(ctx context.Context, id string) (*ledger.SalaryPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSalaryPayment(ctx, s.db, id)
}

func getSalaryPayment(ctx context.Context, db dbtx, id string) (*ledger.SalaryPayment, error) {
	var sp ledger.SalaryPayment
	var txID sql.NullString
	var amount, date, createdAt string
	err := db.QueryRowContext(ctx, `
		SELECT id, employee_id, month, amount, payment_date, account_id, transaction_id, created_at
		FROM salary_payments WHERE id = ?`, id,
	).Scan(&sp.ID, &sp.EmployeeID, &sp.Month, &amount, &date, &sp.AccountID, &txID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sp.Amount = parseDecimal(amount)
	sp.Date = parseTime(date)
	sp.TransactionID = txID.String
	sp.CreatedAt = parseTime(createdAt)
	return &sp, nil
}

func (s *Store) DeleteSalaryPayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRow(ctx, s.db, "salary_payments", id, ledger.ErrSourceRecordNotFound)
}

// ---- Revenues ----

func (s *Store) SaveRevenue(ctx context.Context, rev ledger.Revenue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRevenue(ctx, s.db, rev)
}

func saveRevenue(ctx context.Context, db dbtx, rev ledger.Revenue) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO revenues
		(id, project_id, description, amount, revenue_date, account_id, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			transaction_id = excluded.transaction_id`,
		rev.ID, nullString(rev.ProjectID), rev.Description, rev.Amount.String(),
		fmtTime(rev.Date), rev.AccountID, nullString(rev.TransactionID), fmtTime(rev.CreatedAt))
	return err
}

func (s *Store) GetRevenue(ctx context.Context, id string) (*ledger.Revenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRevenue(ctx, s.db, id)
}

func getRevenue(ctx context.Context, db dbtx, id string) (*ledger.Revenue, error) {
	var rev ledger.Revenue
	var pid, txID sql.NullString
	var amount, date, createdAt string
	err := db.QueryRowContext(ctx, `
		SELECT id, project_id, description, amount, revenue_date, account_id, transaction_id, created_at
		FROM revenues WHERE id = ?`, id,
	).Scan(&rev.ID, &pid, &rev.Description, &amount, &date, &rev.AccountID, &txID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rev.ProjectID = pid.String
	rev.Amount = parseDecimal(amount)
	rev.Date = parseTime(date)
	rev.TransactionID = txID.String
	rev.CreatedAt = parseTime(createdAt)
	return &rev, nil
}

func (s *Store) DeleteRevenue(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRow(ctx, s.db, "revenues", id, ledger.ErrSourceRecordNotFound)
}

// =============================================================================
// BOOKING STORE
// =============================================================================

func (s *Store) SaveUnit(ctx context.Context, u booking.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertUnit(ctx, s.db, u)
}

func insertUnit(ctx context.Context, db dbtx, u booking.Unit) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO units (id, project_id, name, price, status, customer_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, nullString(u.ProjectID), u.Name, u.Price.String(), u.Status,
		nullString(u.CustomerID), fmtTime(u.CreatedAt))
	return err
}

func (s *Store) UpdateUnit(ctx context.Context, u booking.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateUnit(ctx, s.db, u)
}

func updateUnit(ctx context.Context, db dbtx, u booking.Unit) error {
	res, err := db.ExecContext(ctx, `
		UPDATE units SET project_id = ?, name = ?, price = ?, status = ?, customer_id = ?
		WHERE id = ?`,
		nullString(u.ProjectID), u.Name, u.Price.String(), u.Status, nullString(u.CustomerID), u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return booking.ErrUnitNotFound
	}
	return nil
}

func (s *Store) GetUnit(ctx context.Context, id string) (*booking.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUnit(ctx, s.db, id)
}

func getUnit(ctx context.Context, db dbtx, id string) (*booking.Unit, error) {
	var u booking.Unit
	var pid, customerID sql.NullString
	var price, createdAt string
	err := db.QueryRowContext(ctx,
		"SELECT id, project_id, name, price, status, customer_id, created_at FROM units WHERE id = ?", id,
	).Scan(&u.ID, &pid, &u.Name, &price, &u.Status, &customerID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.ProjectID = pid.String
	u.Price = parseDecimal(price)
	u.CustomerID = customerID.String
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *Store) ListUnits(ctx context.Context, projectID string) ([]booking.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUnits(ctx, s.db, projectID)
}

func listUnits(ctx context.Context, db dbtx, projectID string) ([]booking.Unit, error) {
	query := "SELECT id, project_id, name, price, status, customer_id, created_at FROM units"
	args := []any{}
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY name"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Unit
	for rows.Next() {
		var u booking.Unit
		var pid, customerID sql.NullString
		var price, createdAt string
		if err := rows.Scan(&u.ID, &pid, &u.Name, &price, &u.Status, &customerID, &createdAt); err != nil {
			return nil, err
		}
		u.ProjectID = pid.String
		u.Price = parseDecimal(price)
		u.CustomerID = customerID.String
		u.CreatedAt = parseTime(createdAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SaveCustomer(ctx context.Context, c booking.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCustomer(ctx, s.db, c)
}

func saveCustomer(ctx context.Context, db dbtx, c booking.Customer) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, email, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, phone = excluded.phone, email = excluded.email`,
		c.ID, c.Name, c.Phone, c.Email, fmtTime(c.CreatedAt))
	return err
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*booking.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCustomer(ctx, s.db, id)
}

func getCustomer(ctx context.Context, db dbtx, id string) (*booking.Customer, error) {
	var c booking.Customer
	var createdAt string
	err := db.QueryRowContext(ctx,
		"SELECT id, name, phone, email, created_at FROM customers WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]booking.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCustomers(ctx, s.db)
}

func listCustomers(ctx context.Context, db dbtx) ([]booking.Customer, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, phone, email, created_at FROM customers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Customer
	for rows.Next() {
		var c booking.Customer
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- Bookings ----

const bookingColumns = `id, unit_id, customer_id, booking_date, status,
	plan_years, plan_frequency_months, plan_start_date, created_at`

func (s *Store) SaveBooking(ctx context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBooking(ctx, s.db, b)
}

func saveBooking(ctx context.Context, db dbtx, b booking.Booking) error {
	planYears, planFreq, planStart := planFields(b.Plan)
	_, err := db.ExecContext(ctx, `
		INSERT INTO bookings
		(id, unit_id, customer_id, booking_date, status, plan_years, plan_frequency_months, plan_start_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UnitID, b.CustomerID, fmtTime(b.BookingDate), b.Status,
		planYears, planFreq, planStart, fmtTime(b.CreatedAt))
	if err != nil && isActiveBookingConstraint(err) {
		return booking.ErrActiveBookingExists
	}
	return err
}

func (s *Store) UpdateBooking(ctx context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateBooking(ctx, s.db, b)
}

func updateBooking(ctx context.Context, db dbtx, b booking.Booking) error {
	planYears, planFreq, planStart := planFields(b.Plan)
	res, err := db.ExecContext(ctx, `
		UPDATE bookings SET status = ?, plan_years = ?, plan_frequency_months = ?, plan_start_date = ?
		WHERE id = ?`,
		b.Status, planYears, planFreq, planStart, b.ID)
	if err != nil {
		if isActiveBookingConstraint(err) {
			return booking.ErrActiveBookingExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

func planFields(p *booking.PlanTerms) (years, freq, start any) {
	if p == nil {
		return nil, nil, nil
	}
	return p.Years, p.FrequencyMonths, fmtTime(p.StartDate)
}

func (s *Store) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBooking(ctx, s.db, id)
}

func getBooking(ctx context.Context, db dbtx, id string) (*booking.Booking, error) {
	return queryBooking(ctx, db,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
}

func queryBooking(ctx context.Context, db dbtx, query string, args ...any) (*booking.Booking, error) {
	row := db.QueryRowContext(ctx, query, args...)
	b, err := scanBookingRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBookingRow(scan func(...any) error) (*booking.Booking, error) {
	var b booking.Booking
	var bookingDate, createdAt string
	var planYears, planFreq sql.NullInt64
	var planStart sql.NullString

	err := scan(&b.ID, &b.UnitID, &b.CustomerID, &bookingDate, &b.Status,
		&planYears, &planFreq, &planStart, &createdAt)
	if err != nil {
		return nil, err
	}
	b.BookingDate = parseTime(bookingDate)
	b.CreatedAt = parseTime(createdAt)
	if planYears.Valid {
		b.Plan = &booking.PlanTerms{
			Years:           int(planYears.Int64),
			FrequencyMonths: int(planFreq.Int64),
			StartDate:       parseTime(planStart.String),
		}
	}
	return &b, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRow(ctx, s.db, "bookings", id, booking.ErrBookingNotFound)
}

func (s *Store) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBookings(ctx, s.db)
}

func listBookings(ctx context.Context, db dbtx) ([]booking.Booking, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBookingRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) FindActiveBookingByUnit(ctx context.Context, unitID string) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findActiveBookingByUnit(ctx, s.db, unitID)
}

func findActiveBookingByUnit(ctx context.Context, db dbtx, unitID string) (*booking.Booking, error) {
	return queryBooking(ctx, db,
		"SELECT "+bookingColumns+" FROM bookings WHERE unit_id = ? AND status = 'active'", unitID)
}

// ---- Payments ----

const paymentColumns = `id, booking_id, customer_id, unit_id, amount,
	payment_date, payment_type, account_id, transaction_id, created_at`

func (s *Store) SavePayment(ctx context.Context, p booking.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePayment(ctx, s.db, p)
}

func savePayment(ctx context.Context, db dbtx, p booking.Payment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO payments
		(id, booking_id, customer_id, unit_id, amount, payment_date, payment_type, account_id, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BookingID, p.CustomerID, p.UnitID, p.Amount.String(), fmtTime(p.Date),
		string(p.Type), nullString(p.AccountID), nullString(p.TransactionID), fmtTime(p.CreatedAt))
	return err
}

func (s *Store) UpdatePayment(ctx context.Context, p booking.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updatePayment(ctx, s.db, p)
}

func updatePayment(ctx context.Context, db dbtx, p booking.Payment) error {
	res, err := db.ExecContext(ctx,
		"UPDATE payments SET amount = ?, payment_type = ? WHERE id = ?",
		p.Amount.String(), string(p.Type), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return booking.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (*booking.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPayment(ctx, s.db, id)
}

func getPayment(ctx context.Context, db dbtx, id string) (*booking.Payment, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = ?", id)
	p, err := scanPaymentRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPaymentRow(scan func(...any) error) (*booking.Payment, error) {
	var p booking.Payment
	var amount, date, createdAt string
	var paymentType, accountID, txID sql.NullString

	err := scan(&p.ID, &p.BookingID, &p.CustomerID, &p.UnitID, &amount,
		&date, &paymentType, &accountID, &txID, &createdAt)
	if err != nil {
		return nil, err
	}
	p.Amount = parseDecimal(amount)
	p.Date = parseTime(date)
	p.Type = booking.PaymentType(paymentType.String)
	p.AccountID = accountID.String
	p.TransactionID = txID.String
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRow(ctx, s.db, "payments", id, booking.ErrPaymentNotFound)
}

func (s *Store) ListPaymentsByBooking(ctx context.Context, bookingID string) ([]booking.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPaymentsByBooking(ctx, s.db, bookingID)
}

func listPaymentsByBooking(ctx context.Context, db dbtx, bookingID string) ([]booking.Payment, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE booking_id = ? ORDER BY payment_date ASC, created_at ASC",
		bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Payment
	for rows.Next() {
		p, err := scanPaymentRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ---- Scheduled payments ----

func (s *Store) SaveScheduledPayments(ctx context.Context, rows []booking.ScheduledPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveScheduledPayments(ctx, s.db, rows)
}

func saveScheduledPayments(ctx context.Context, db dbtx, rows []booking.ScheduledPayment) error {
	for _, r := range rows {
		var paidDate any
		if r.PaidDate != nil {
			paidDate = fmtTime(*r.PaidDate)
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO scheduled_payments
			(id, booking_id, installment_number, due_date, amount, status, paid_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.BookingID, r.InstallmentNumber, fmtTime(r.DueDate),
			r.Amount.String(), r.Status, paidDate, fmtTime(r.CreatedAt))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateScheduledPayment(ctx context.Context, row booking.ScheduledPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateScheduledPayment(ctx, s.db, row)
}

func updateScheduledPayment(ctx context.Context, db dbtx, row booking.ScheduledPayment) error {
	var paidDate any
	if row.PaidDate != nil {
		paidDate = fmtTime(*row.PaidDate)
	}
	res, err := db.ExecContext(ctx,
		"UPDATE scheduled_payments SET status = ?, paid_date = ? WHERE id = ?",
		row.Status, paidDate, row.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return booking.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) ListScheduledPayments(ctx context.Context, bookingID string) ([]booking.ScheduledPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listScheduledPayments(ctx, s.db, bookingID)
}

func listScheduledPayments(ctx context.Context, db dbtx, bookingID string) ([]booking.ScheduledPayment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, booking_id, installment_number, due_date, amount, status, paid_date, created_at
		FROM scheduled_payments WHERE booking_id = ?
		ORDER BY installment_number ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScheduledRows(rows)
}

func scanScheduledRows(rows *sql.Rows) ([]booking.ScheduledPayment, error) {
	var out []booking.ScheduledPayment
	for rows.Next() {
		var r booking.ScheduledPayment
		var dueDate, amount, createdAt string
		var paidDate sql.NullString
		if err := rows.Scan(&r.ID, &r.BookingID, &r.InstallmentNumber, &dueDate,
			&amount, &r.Status, &paidDate, &createdAt); err != nil {
			return nil, err
		}
		r.DueDate = parseTime(dueDate)
		r.Amount = parseDecimal(amount)
		r.CreatedAt = parseTime(createdAt)
		if paidDate.Valid {
			t := parseTime(paidDate.String)
			r.PaidDate = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteScheduledPayments(ctx context.Context, bookingID string, statuses ...booking.ScheduleStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteScheduledPayments(ctx, s.db, bookingID, statuses...)
}

func deleteScheduledPayments(ctx context.Context, db dbtx, bookingID string, statuses ...booking.ScheduleStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := []any{bookingID}
	for _, st := range statuses {
		args = append(args, string(st))
	}
	res, err := db.ExecContext(ctx,
		"DELETE FROM scheduled_payments WHERE booking_id = ? AND status IN ("+placeholders+")",
		args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) ListScheduledDueBefore(ctx context.Context, cutoff time.Time) ([]booking.ScheduledPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listScheduledDueBefore(ctx, s.db, cutoff)
}

func listScheduledDueBefore(ctx context.Context, db dbtx, cutoff time.Time) ([]booking.ScheduledPayment, error) {
	// RFC3339 timestamps in UTC compare correctly as strings.
	rows, err := db.QueryContext(ctx, `
		SELECT id, booking_id, installment_number, due_date, amount, status, paid_date, created_at
		FROM scheduled_payments
		WHERE status = 'pending' AND due_date < ?
		ORDER BY due_date ASC`, fmtTime(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScheduledRows(rows)
}

// =============================================================================
// TRANSACTIONAL STORE (reconcile.TxRunner)
// =============================================================================

// WithTx executes fn within one database transaction. The write lock is
// held for the duration; the view given to fn runs every call through the
// open sql.Tx without re-acquiring the lock, so fn sees its own writes.
func (s *Store) WithTx(ctx context.Context, fn func(reconcile.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txView{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txView implements reconcile.Store against an open sql.Tx.
type txView struct {
	tx *sql.Tx
}

func (v *txView) SaveAccount(ctx context.Context, a ledger.Account) error {
	return saveAccount(ctx, v.tx, a)
}
func (v *txView) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	return getAccount(ctx, v.tx, id)
}
func (v *txView) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return listAccounts(ctx, v.tx)
}
func (v *txView) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	return appendTransaction(ctx, v.tx, tx)
}
func (v *txView) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	return getTransaction(ctx, v.tx, id)
}
func (v *txView) DeleteTransaction(ctx context.Context, id string) error {
	return deleteRow(ctx, v.tx, "transactions", id, ledger.ErrTransactionNotFound)
}
func (v *txView) ListTransactions(ctx context.Context, accountID, projectID string) ([]ledger.Transaction, error) {
	return listTransactions(ctx, v.tx, accountID, projectID)
}
func (v *txView) FindTransactionByKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	return findTransactionByKey(ctx, v.tx, key)
}
func (v *txView) LinkTransactionSource(ctx context.Context, txID string, source ledger.SourceRef) error {
	return linkTransactionSource(ctx, v.tx, txID, source)
}

func (v *txView) SaveExpense(ctx context.Context, e ledger.Expense) error {
	return saveExpense(ctx, v.tx, e)
}
func (v *txView) GetExpense(ctx context.Context, id string) (*ledger.Expense, error) {
	return getExpense(ctx, v.tx, id)
}
func (v *txView) DeleteExpense(ctx context.Context, id string) error {
	return deleteRow(ctx, v.tx, "expenses", id, ledger.ErrSourceRecordNotFound)
}
func (v *txView) ListExpenses(ctx context.Context, projectID string) ([]ledger.Expense, error) {
	return listExpenses(ctx, v.tx, projectID)
}

func (v *txView) SaveSalaryPayment(ctx context.Context, sp ledger.SalaryPayment) error {
	return saveSalaryPayment(ctx, v.tx, sp)
}
func (v *txView) GetSalaryPayment(ctx context.Context, id string) (*ledger.SalaryPayment, error) {
	return getSalaryPayment(ctx, v.tx, id)
}
func (v *txView) DeleteSalaryPayment(ctx context.Context, id string) error {
	return deleteRow(ctx, v.tx, "salary_payments", id, ledger.ErrSourceRecordNotFound)
}

func (v *txView) SaveRevenue(ctx context.Context, rev ledger.Revenue) error {
	return saveRevenue(ctx, v.tx, rev)
}
func (v *txView) GetRevenue(ctx context.Context, id string) (*ledger.Revenue, error) {
	return getRevenue(ctx, v.tx, id)
}
func (v *txView) DeleteRevenue(ctx context.Context, id string) error {
	return deleteRow(ctx, v.tx, "revenues", id, ledger.ErrSourceRecordNotFound)
}

func (v *txView) SaveUnit(ctx context.Context, u booking.Unit) error {
	return insertUnit(ctx, v.tx, u)
}
func (v *txView) UpdateUnit(ctx context.Context, u booking.Unit) error {
	return updateUnit(ctx, v.tx, u)
}
func (v *txView) GetUnit(ctx context.Context, id string) (*booking.Unit, error) {
	return getUnit(ctx, v.tx, id)
}
func (v *txView) ListUnits(ctx context.Context, projectID string) ([]booking.Unit, error) {
	return listUnits(ctx, v.tx, projectID)
}

func (v *txView) SaveCustomer(ctx context.Context, c booking.Customer) error {
	return saveCustomer(ctx, v.tx, c)
}
func (v *txView) GetCustomer(ctx context.Context, id string) (*booking.Customer, error) {
	return getCustomer(ctx, v.tx, id)
}
func (v *txView) ListCustomers(ctx context.Context) ([]booking.Customer, error) {
	return listCustomers(ctx, v.tx)
}

func (v *txView) SaveBooking(ctx context.Context, b booking.Booking) error {
	return saveBooking(ctx, v.tx, b)
}
func (v *txView) UpdateBooking(ctx context.Context, b booking.Booking) error {
	return updateBooking(ctx, v.tx, b)
}
func (v *txView) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return getBooking(ctx, v.tx, id)
}
func (v *txView) DeleteBooking(ctx context.Context, id string) error {
	return deleteRow(ctx, v.tx, "bookings", id, booking.ErrBookingNotFound)
}
func (v *txView) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	return listBookings(ctx, v.tx)
}
func (v *txView) FindActiveBookingByUnit(ctx context.Context, unitID string) (*booking.Booking, error) {
	return findActiveBookingByUnit(ctx, v.tx, unitID)
}

func (v *txView) SavePayment(ctx context.Context, p booking.Payment) error {
	return savePayment(ctx, v.tx, p)
}
func (v *txView) UpdatePayment(ctx context.Context, p booking.Payment) error {
	return updatePayment(ctx, v.tx, p)
}
func (v *txView) GetPayment(ctx context.Context, id string) (*booking.Payment, error) {
	return getPayment(ctx, v.tx, id)
}
func (v *txView) DeletePayment(ctx context.Context, id string) error {
	return deleteRow(ctx, v.tx, "payments", id, booking.ErrPaymentNotFound)
}
func (v *txView) ListPaymentsByBooking(ctx context.Context, bookingID string) ([]booking.Payment, error) {
	return listPaymentsByBooking(ctx, v.tx, bookingID)
}

func (v *txView) SaveScheduledPayments(ctx context.Context, rows []booking.ScheduledPayment) error {
	return saveScheduledPayments(ctx, v.tx, rows)
}
func (v *txView) UpdateScheduledPayment(ctx context.Context, row booking.ScheduledPayment) error {
	return updateScheduledPayment(ctx, v.tx, row)
}
func (v *txView) ListScheduledPayments(ctx context.Context, bookingID string) ([]booking.ScheduledPayment, error) {
	return listScheduledPayments(ctx, v.tx, bookingID)
}
func (v *txView) DeleteScheduledPayments(ctx context.Context, bookingID string, statuses ...booking.ScheduleStatus) (int, error) {
	return deleteScheduledPayments(ctx, v.tx, bookingID, statuses...)
}
func (v *txView) ListScheduledDueBefore(ctx context.Context, cutoff time.Time) ([]booking.ScheduledPayment, error) {
	return listScheduledDueBefore(ctx, v.tx, cutoff)
}

// =============================================================================
// HELPERS
// =============================================================================

func fmtTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// The violated index is identified by table.column in SQLite's message; a
// duplicate primary key reports transactions.id and must not be mistaken
// for an idempotency replay.
func isIdempotencyKeyConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "transactions.idempotency_key")
}

func isActiveBookingConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "bookings.unit_id")
}
