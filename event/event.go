/*
Package event is the change-notification boundary of the core.

The core only emits one domain event per successful mutation; delivery to
UI subscribers, websockets, or external queues is someone else's job. The
Publisher interface is what the core depends on; Bus is the in-process
implementation used by the server and by tests.
*/
package event

import (
	"sync"
	"time"
)

// Type names follow "entity.action".
const (
	BookingCreated       = "booking.created"
	BookingCancelled     = "booking.cancelled"
	BookingCompleted     = "booking.completed"
	BookingReopened      = "booking.reopened"
	PaymentRecorded      = "payment.recorded"
	PaymentDeleted       = "payment.deleted"
	PaymentCorrected     = "payment.corrected"
	ScheduleGenerated    = "schedule.generated"
	ScheduleOverdue      = "schedule.overdue"
	TransactionRecorded  = "transaction.recorded"
	TransactionDeleted   = "transaction.deleted"
	ExpenseRecorded      = "expense.recorded"
	ExpenseDeleted       = "expense.deleted"
	SalaryRecorded       = "salary.recorded"
	RevenueRecorded      = "revenue.recorded"
)

// Event describes one successful mutation.
type Event struct {
	Type     string
	EntityID string
	At       time.Time
	Payload  map[string]any
}

// Publisher is implemented by whatever transport fans events out.
type Publisher interface {
	Publish(e Event)
}

// =============================================================================
// BUS - In-process publisher with subscriptions
// =============================================================================

// Bus is a simple in-process Publisher. Subscribers receive events
// synchronously in subscription order; a slow subscriber blocks the
// publisher, which is acceptable for in-process UI fan-out and tests.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Discard is a Publisher that drops everything. Useful default.
type Discard struct{}

func (Discard) Publish(Event) {}
