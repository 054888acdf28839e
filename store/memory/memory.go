/*
Package memory provides an in-memory implementation of the storage
interfaces, for tests and demos.

It enforces the same constraints the SQLite store enforces with SQL
indexes: unique idempotency keys and at most one active booking per unit.
Both checks run under the store mutex, so the memory store closes the
create-booking race the same way a partial unique index does.

The layout mirrors the SQLite store: all map access lives on an unlocked
core (data), public methods are locking wrappers, and WithTx holds the
write lock for the whole transaction while fn operates on a view that
does not re-acquire it. A failing transaction restores a deep copy taken
at entry; because the lock is held throughout, no other caller's writes
can land between the copy and the restore.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
	"github.com/atlas-estates/booking-ledger/reconcile"
)

// data is the unlocked core. Callers must hold the owning Store's mutex.
type data struct {
	accounts     map[string]ledger.Account
	transactions map[string]ledger.Transaction
	expenses     map[string]ledger.Expense
	salaries     map[string]ledger.SalaryPayment
	revenues     map[string]ledger.Revenue

	units     map[string]booking.Unit
	customers map[string]booking.Customer
	bookings  map[string]booking.Booking
	payments  map[string]booking.Payment
	scheduled map[string]booking.ScheduledPayment
}

func newData() data {
	return data{
		accounts:     make(map[string]ledger.Account),
		transactions: make(map[string]ledger.Transaction),
		expenses:     make(map[string]ledger.Expense),
		salaries:     make(map[string]ledger.SalaryPayment),
		revenues:     make(map[string]ledger.Revenue),
		units:        make(map[string]booking.Unit),
		customers:    make(map[string]booking.Customer),
		bookings:     make(map[string]booking.Booking),
		payments:     make(map[string]booking.Payment),
		scheduled:    make(map[string]booking.ScheduledPayment),
	}
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (d *data) clone() data {
	return data{
		accounts:     copyMap(d.accounts),
		transactions: copyMap(d.transactions),
		expenses:     copyMap(d.expenses),
		salaries:     copyMap(d.salaries),
		revenues:     copyMap(d.revenues),
		units:        copyMap(d.units),
		customers:    copyMap(d.customers),
		bookings:     copyMap(d.bookings),
		payments:     copyMap(d.payments),
		scheduled:    copyMap(d.scheduled),
	}
}

// Store wraps the core in one RWMutex.
type Store struct {
	mu sync.RWMutex
	d  data
}

func New() *Store {
	return &Store{d: newData()}
}

// Reset drops everything. Used by the demo scenario loader.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d = newData()
	return nil
}

// =============================================================================
// LEDGER CORE
// =============================================================================

func (d *data) saveAccount(a ledger.Account) error {
	d.accounts[a.ID] = a
	return nil
}

func (d *data) getAccount(id string) (*ledger.Account, error) {
	if a, ok := d.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (d *data) listAccounts() ([]ledger.Account, error) {
	out := make([]ledger.Account, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *data) appendTransaction(tx ledger.Transaction) error {
	if tx.IdempotencyKey != "" {
		for _, existing := range d.transactions {
			if existing.IdempotencyKey == tx.IdempotencyKey && existing.ID != tx.ID {
				return ledger.ErrDuplicateIdempotencyKey
			}
		}
	}
	d.transactions[tx.ID] = tx
	return nil
}

func (d *data) getTransaction(id string) (*ledger.Transaction, error) {
	if tx, ok := d.transactions[id]; ok {
		return &tx, nil
	}
	return nil, nil
}

func (d *data) deleteTransaction(id string) error {
	if _, ok := d.transactions[id]; !ok {
		return ledger.ErrTransactionNotFound
	}
	delete(d.transactions, id)
	return nil
}

func (d *data) listTransactions(accountID, projectID string) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	for _, tx := range d.transactions {
		if tx.AccountID != accountID {
			continue
		}
		if projectID != "" && tx.ProjectID != projectID {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (d *data) findTransactionByKey(key string) (*ledger.Transaction, error) {
	for _, tx := range d.transactions {
		if tx.IdempotencyKey != "" && tx.IdempotencyKey == key {
			t := tx
			return &t, nil
		}
	}
	return nil, nil
}

func (d *data) linkTransactionSource(txID string, source ledger.SourceRef) error {
	tx, ok := d.transactions[txID]
	if !ok {
		return ledger.ErrTransactionNotFound
	}
	tx.Source = source
	d.transactions[txID] = tx
	return nil
}

func (d *data) saveExpense(e ledger.Expense) error {
	d.expenses[e.ID] = e
	return nil
}

func (d *data) getExpense(id string) (*ledger.Expense, error) {
	if e, ok := d.expenses[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (d *data) deleteExpense(id string) error {
	delete(d.expenses, id)
	return nil
}

func (d *data) listExpenses(projectID string) ([]ledger.Expense, error) {
	var out []ledger.Expense
	for _, e := range d.expenses {
		if projectID != "" && e.ProjectID != projectID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (d *data) saveSalaryPayment(sp ledger.SalaryPayment) error {
	d.salaries[sp.ID] = sp
	return nil
}

func (d *data) getSalaryPayment(id string) (*ledger.SalaryPayment, error) {
	if sp, ok := d.salaries[id]; ok {
		return &sp, nil
	}
	return nil, nil
}

func (d *data) deleteSalaryPayment(id string) error {
	delete(d.salaries, id)
	return nil
}

func (d *data) saveRevenue(rev ledger.Revenue) error {
	d.revenues[rev.ID] = rev
	return nil
}

func (d *data) getRevenue(id string) (*ledger.Revenue, error) {
	if rev, ok := d.revenues[id]; ok {
		return &rev, nil
	}
	return nil, nil
}

func (d *data) deleteRevenue(id string) error {
	delete(d.revenues, id)
	return nil
}

// =============================================================================
// BOOKING CORE
// =============================================================================

func (d *data) saveUnit(u booking.Unit) error {
	d.units[u.ID] = u
	return nil
}

func (d *data) updateUnit(u booking.Unit) error {
	if _, ok := d.units[u.ID]; !ok {
		return booking.ErrUnitNotFound
	}
	d.units[u.ID] = u
	return nil
}

func (d *data) getUnit(id string) (*booking.Unit, error) {
	if u, ok := d.units[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (d *data) listUnits(projectID string) ([]booking.Unit, error) {
	var out []booking.Unit
	for _, u := range d.units {
		if projectID != "" && u.ProjectID != projectID {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *data) saveCustomer(c booking.Customer) error {
	d.customers[c.ID] = c
	return nil
}

func (d *data) getCustomer(id string) (*booking.Customer, error) {
	if c, ok := d.customers[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (d *data) listCustomers() ([]booking.Customer, error) {
	out := make([]booking.Customer, 0, len(d.customers))
	for _, c := range d.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// saveBooking enforces the one-active-booking-per-unit constraint
// atomically with the insert, mirroring the SQL partial unique index.
func (d *data) saveBooking(b booking.Booking) error {
	if b.Status == booking.StatusActive {
		for _, existing := range d.bookings {
			if existing.UnitID == b.UnitID && existing.Status == booking.StatusActive && existing.ID != b.ID {
				return booking.ErrActiveBookingExists
			}
		}
	}
	d.bookings[b.ID] = b
	return nil
}

func (d *data) updateBooking(b booking.Booking) error {
	if _, ok := d.bookings[b.ID]; !ok {
		return booking.ErrBookingNotFound
	}
	return d.saveBooking(b)
}

func (d *data) getBooking(id string) (*booking.Booking, error) {
	if b, ok := d.bookings[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (d *data) deleteBooking(id string) error {
	delete(d.bookings, id)
	return nil
}

func (d *data) listBookings() ([]booking.Booking, error) {
	out := make([]booking.Booking, 0, len(d.bookings))
	for _, b := range d.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (d *data) findActiveBookingByUnit(unitID string) (*booking.Booking, error) {
	for _, b := range d.bookings {
		if b.UnitID == unitID && b.Status == booking.StatusActive {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (d *data) savePayment(p booking.Payment) error {
	d.payments[p.ID] = p
	return nil
}

func (d *data) updatePayment(p booking.Payment) error {
	if _, ok := d.payments[p.ID]; !ok {
		return booking.ErrPaymentNotFound
	}
	d.payments[p.ID] = p
	return nil
}

func (d *data) getPayment(id string) (*booking.Payment, error) {
	if p, ok := d.payments[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (d *data) deletePayment(id string) error {
	if _, ok := d.payments[id]; !ok {
		return booking.ErrPaymentNotFound
	}
	delete(d.payments, id)
	return nil
}

func (d *data) listPaymentsByBooking(bookingID string) ([]booking.Payment, error) {
	var out []booking.Payment
	for _, p := range d.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (d *data) saveScheduledPayments(rows []booking.ScheduledPayment) error {
	for _, r := range rows {
		d.scheduled[r.ID] = r
	}
	return nil
}

func (d *data) updateScheduledPayment(row booking.ScheduledPayment) error {
	if _, ok := d.scheduled[row.ID]; !ok {
		return booking.ErrPaymentNotFound
	}
	d.scheduled[row.ID] = row
	return nil
}

func (d *data) listScheduledPayments(bookingID string) ([]booking.ScheduledPayment, error) {
	var out []booking.ScheduledPayment
	for _, r := range d.scheduled {
		if r.BookingID == bookingID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentNumber < out[j].InstallmentNumber })
	return out, nil
}

func (d *data) deleteScheduledPayments(bookingID string, statuses ...booking.ScheduleStatus) (int, error) {
	n := 0
	for id, r := range d.scheduled {
		if r.BookingID != bookingID {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				delete(d.scheduled, id)
				n++
				break
			}
		}
	}
	return n, nil
}

func (d *data) listScheduledDueBefore(cutoff time.Time) ([]booking.ScheduledPayment, error) {
	var out []booking.ScheduledPayment
	for _, r := range d.scheduled {
		if r.Status == booking.SchedulePending && r.DueDate.Before(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// =============================================================================
// LOCKING WRAPPERS (ledger.Store)
// =============================================================================

func (s *Store) SaveAccount(_ context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveAccount(a)
}

func (s *Store) GetAccount(_ context.Context, id string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getAccount(id)
}

func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listAccounts()
}

func (s *Store) AppendTransaction(_ context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.appendTransaction(tx)
}

func (s *Store) GetTransaction(_ context.Context, id string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getTransaction(id)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteTransaction(id)
}

func (s *Store) ListTransactions(_ context.Context, accountID, projectID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listTransactions(accountID, projectID)
}

func (s *Store) FindTransactionByKey(_ context.Context, key string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.findTransactionByKey(key)
}

func (s *Store) LinkTransactionSource(_ context.Context, txID string, source ledger.SourceRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.linkTransactionSource(txID, source)
}

func (s *Store) SaveExpense(_ context.Context, e ledger.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveExpense(e)
}

func (s *Store) GetExpense(_ context.Context, id string) (*ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getExpense(id)
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteExpense(id)
}

func (s *Store) ListExpenses(_ context.Context, projectID string) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listExpenses(projectID)
}

func (s *Store) SaveSalaryPayment(_ context.Context, sp ledger.SalaryPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveSalaryPayment(sp)
}

func (s *Store) GetSalaryPayment(_ context.Context, id string) (*ledger.SalaryPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getSalaryPayment(id)
}

func (s *Store) DeleteSalaryPayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteSalaryPayment(id)
}

func (s *Store) SaveRevenue(_ context.Context, rev ledger.Revenue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveRevenue(rev)
}

func (s *Store) GetRevenue(_ context.Context, id string) (*ledger.Revenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getRevenue(id)
}

func (s *Store) DeleteRevenue(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteRevenue(id)
}

// =============================================================================
// LOCKING WRAPPERS (booking.Store)
// =============================================================================

func (s *Store) SaveUnit(_ context.Context, u booking.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveUnit(u)
}

func (s *Store) UpdateUnit(_ context.Context, u booking.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateUnit(u)
}

func (s *Store) GetUnit(_ context.Context, id string) (*booking.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getUnit(id)
}

func (s *Store) ListUnits(_ context.Context, projectID string) ([]booking.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listUnits(projectID)
}

func (s *Store) SaveCustomer(_ context.Context, c booking.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveCustomer(c)
}

func (s *Store) GetCustomer(_ context.Context, id string) (*booking.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getCustomer(id)
}

func (s *Store) ListCustomers(_ context.Context) ([]booking.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listCustomers()
}

func (s *Store) SaveBooking(_ context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveBooking(b)
}

func (s *Store) UpdateBooking(_ context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateBooking(b)
}

func (s *Store) GetBooking(_ context.Context, id string) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getBooking(id)
}

func (s *Store) DeleteBooking(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteBooking(id)
}

func (s *Store) ListBookings(_ context.Context) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listBookings()
}

func (s *Store) FindActiveBookingByUnit(_ context.Context, unitID string) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.findActiveBookingByUnit(unitID)
}

func (s *Store) SavePayment(_ context.Context, p booking.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.savePayment(p)
}

func (s *Store) UpdatePayment(_ context.Context, p booking.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updatePayment(p)
}

func (s *Store) GetPayment(_ context.Context, id string) (*booking.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.getPayment(id)
}

func (s *Store) DeletePayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deletePayment(id)
}

func (s *Store) ListPaymentsByBooking(_ context.Context, bookingID string) ([]booking.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listPaymentsByBooking(bookingID)
}

func (s *Store) SaveScheduledPayments(_ context.Context, rows []booking.ScheduledPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.saveScheduledPayments(rows)
}

func (s *Store) UpdateScheduledPayment(_ context.Context, row booking.ScheduledPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.updateScheduledPayment(row)
}

func (s *Store) ListScheduledPayments(_ context.Context, bookingID string) ([]booking.ScheduledPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listScheduledPayments(bookingID)
}

func (s *Store) DeleteScheduledPayments(_ context.Context, bookingID string, statuses ...booking.ScheduleStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.deleteScheduledPayments(bookingID, statuses...)
}

func (s *Store) ListScheduledDueBefore(_ context.Context, cutoff time.Time) ([]booking.ScheduledPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d.listScheduledDueBefore(cutoff)
}

// =============================================================================
// TRANSACTIONAL STORE (reconcile.TxRunner)
// =============================================================================

// WithTx simulates a storage transaction. The write lock is held for the
// duration, so the deep copy taken at entry is a consistent point to
// restore on failure and concurrent callers cannot observe or lose
// intermediate state; fn's view runs on the core without re-locking.
func (s *Store) WithTx(_ context.Context, fn func(reconcile.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.d.clone()
	if err := fn(&txView{d: &s.d}); err != nil {
		s.d = snap
		return err
	}
	return nil
}

// txView implements reconcile.Store against the core while the owning
// Store's write lock is held by WithTx.
type txView struct {
	d *data
}

func (v *txView) SaveAccount(_ context.Context, a ledger.Account) error {
	return v.d.saveAccount(a)
}
func (v *txView) GetAccount(_ context.Context, id string) (*ledger.Account, error) {
	return v.d.getAccount(id)
}
func (v *txView) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	return v.d.listAccounts()
}
func (v *txView) AppendTransaction(_ context.Context, tx ledger.Transaction) error {
	return v.d.appendTransaction(tx)
}
func (v *txView) GetTransaction(_ context.Context, id string) (*ledger.Transaction, error) {
	return v.d.getTransaction(id)
}
func (v *txView) DeleteTransaction(_ context.Context, id string) error {
	return v.d.deleteTransaction(id)
}
func (v *txView) ListTransactions(_ context.Context, accountID, projectID string) ([]ledger.Transaction, error) {
	return v.d.listTransactions(accountID, projectID)
}
func (v *txView) FindTransactionByKey(_ context.Context, key string) (*ledger.Transaction, error) {
	return v.d.findTransactionByKey(key)
}
func (v *txView) LinkTransactionSource(_ context.Context, txID string, source ledger.SourceRef) error {
	return v.d.linkTransactionSource(txID, source)
}
func (v *txView) SaveExpense(_ context.Context, e ledger.Expense) error {
	return v.d.saveExpense(e)
}
func (v *txView) GetExpense(_ context.Context, id string) (*ledger.Expense, error) {
	return v.d.getExpense(id)
}
func (v *txView) DeleteExpense(_ context.Context, id string) error {
	return v.d.deleteExpense(id)
}
func (v *txView) ListExpenses(_ context.Context, projectID string) ([]ledger.Expense, error) {
	return v.d.listExpenses(projectID)
}
func (v *txView) SaveSalaryPayment(_ context.Context, sp ledger.SalaryPayment) error {
	return v.d.saveSalaryPayment(sp)
}
func (v *txView) GetSalaryPayment(_ context.Context, id string) (*ledger.SalaryPayment, error) {
	return v.d.getSalaryPayment(id)
}
func (v *txView) DeleteSalaryPayment(_ context.Context, id string) error {
	return v.d.deleteSalaryPayment(id)
}
func (v *txView) SaveRevenue(_ context.Context, rev ledger.Revenue) error {
	return v.d.saveRevenue(rev)
}
func (v *txView) GetRevenue(_ context.Context, id string) (*ledger.Revenue, error) {
	return v.d.getRevenue(id)
}
func (v *txView) DeleteRevenue(_ context.Context, id string) error {
	return v.d.deleteRevenue(id)
}

func (v *txView) SaveUnit(_ context.Context, u booking.Unit) error {
	return v.d.saveUnit(u)
}
func (v *txView) UpdateUnit(_ context.Context, u booking.Unit) error {
	return v.d.updateUnit(u)
}
func (v *txView) GetUnit(_ context.Context, id string) (*booking.Unit, error) {
	return v.d.getUnit(id)
}
func (v *txView) ListUnits(_ context.Context, projectID string) ([]booking.Unit, error) {
	return v.d.listUnits(projectID)
}
func (v *txView) SaveCustomer(_ context.Context, c booking.Customer) error {
	return v.d.saveCustomer(c)
}
func (v *txView) GetCustomer(_ context.Context, id string) (*booking.Customer, error) {
	return v.d.getCustomer(id)
}
func (v *txView) ListCustomers(_ context.Context) ([]booking.Customer, error) {
	return v.d.listCustomers()
}
func (v *txView) SaveBooking(_ context.Context, b booking.Booking) error {
	return v.d.saveBooking(b)
}
func (v *txView) UpdateBooking(_ context.Context, b booking.Booking) error {
	return v.d.updateBooking(b)
}
func (v *txView) GetBooking(_ context.Context, id string) (*booking.Booking, error) {
	return v.d.getBooking(id)
}
func (v *txView) DeleteBooking(_ context.Context, id string) error {
	return v.d.deleteBooking(id)
}
func (v *txView) ListBookings(_ context.Context) ([]booking.Booking, error) {
	return v.d.listBookings()
}
func (v *txView) FindActiveBookingByUnit(_ context.Context, unitID string) (*booking.Booking, error) {
	return v.d.findActiveBookingByUnit(unitID)
}
func (v *txView) SavePayment(_ context.Context, p booking.Payment) error {
	return v.d.savePayment(p)
}
func (v *txView) UpdatePayment(_ context.Context, p booking.Payment) error {
	return v.d.updatePayment(p)
}
func (v *txView) GetPayment(_ context.Context, id string) (*booking.Payment, error) {
	return v.d.getPayment(id)
}
func (v *txView) DeletePayment(_ context.Context, id string) error {
	return v.d.deletePayment(id)
}
func (v *txView) ListPaymentsByBooking(_ context.Context, bookingID string) ([]booking.Payment, error) {
	return v.d.listPaymentsByBooking(bookingID)
}
func (v *txView) SaveScheduledPayments(_ context.Context, rows []booking.ScheduledPayment) error {
	return v.d.saveScheduledPayments(rows)
}
func (v *txView) UpdateScheduledPayment(_ context.Context, row booking.ScheduledPayment) error {
	return v.d.updateScheduledPayment(row)
}
func (v *txView) ListScheduledPayments(_ context.Context, bookingID string) ([]booking.ScheduledPayment, error) {
	return v.d.listScheduledPayments(bookingID)
}
func (v *txView) DeleteScheduledPayments(_ context.Context, bookingID string, statuses ...booking.ScheduleStatus) (int, error) {
	return v.d.deleteScheduledPayments(bookingID, statuses...)
}
func (v *txView) ListScheduledDueBefore(_ context.Context, cutoff time.Time) ([]booking.ScheduledPayment, error) {
	return v.d.listScheduledDueBefore(cutoff)
}
