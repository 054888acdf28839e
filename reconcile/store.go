// store.go - Combined storage surface for compound operations.
package reconcile

import (
	"context"

	"github.com/atlas-estates/booking-ledger/booking"
	"github.com/atlas-estates/booking-ledger/ledger"
)

// Store is everything a compound operation may touch. Both the SQLite and
// the in-memory store implement it.
type Store interface {
	booking.Store
	ledger.Store
}

// TxRunner is the optional capability of executing a function inside a
// single storage transaction. When the backing store provides it, the
// coordinator prefers it over compensating actions; when it doesn't, the
// saga in coordinator.go approximates atomicity.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(Store) error) error
}
