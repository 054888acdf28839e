// store.go - Persistence interface for the booking domain.
//
// Implementations must enforce the one-active-booking-per-unit rule at the
// storage layer (a partial unique index in SQL), not just in application
// code: the check-then-act sequence in CreateBooking has a race window that
// only the store can close. SaveBooking returns ErrActiveBookingExists when
// the constraint rejects a racing insert.
package booking

import (
	"context"
	"time"
)

type Store interface {
	// Units
	SaveUnit(ctx context.Context, u Unit) error
	UpdateUnit(ctx context.Context, u Unit) error
	GetUnit(ctx context.Context, id string) (*Unit, error)
	ListUnits(ctx context.Context, projectID string) ([]Unit, error)

	// Customers
	SaveCustomer(ctx context.Context, c Customer) error
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)

	// Bookings
	SaveBooking(ctx context.Context, b Booking) error
	UpdateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (*Booking, error)
	// DeleteBooking hard-deletes a booking row. Exists for the
	// coordinator's compensation path; not exposed over the API.
	DeleteBooking(ctx context.Context, id string) error
	ListBookings(ctx context.Context) ([]Booking, error)
	// FindActiveBookingByUnit returns the unit's active booking, or nil.
	FindActiveBookingByUnit(ctx context.Context, unitID string) (*Booking, error)

	// Payments
	SavePayment(ctx context.Context, p Payment) error
	UpdatePayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	DeletePayment(ctx context.Context, id string) error
	ListPaymentsByBooking(ctx context.Context, bookingID string) ([]Payment, error)

	// Scheduled payments
	SaveScheduledPayments(ctx context.Context, rows []ScheduledPayment) error
	UpdateScheduledPayment(ctx context.Context, row ScheduledPayment) error
	ListScheduledPayments(ctx context.Context, bookingID string) ([]ScheduledPayment, error)
	// DeleteScheduledPayments removes a booking's rows in the given
	// statuses and returns how many were deleted.
	DeleteScheduledPayments(ctx context.Context, bookingID string, statuses ...ScheduleStatus) (int, error)
	// ListScheduledDueBefore returns pending rows with a due date strictly
	// before cutoff, across all bookings. Used by the overdue sweep.
	ListScheduledDueBefore(ctx context.Context, cutoff time.Time) ([]ScheduledPayment, error)
}
