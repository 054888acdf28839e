/*
scheduler.go - Automated overdue installment sweeper

PURPOSE:
  Periodically flips pending scheduled payments whose due date has passed
  to overdue. Purely a status flag for reporting; no money moves and no
  penalty is assessed.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates to the reconciliation coordinator, same code path as the
    manual /api/admin/overdue-sweep endpoint
  - Sweep is idempotent: rows already overdue are not touched again

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewOverdueSweeper(coord, log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: OverdueSweep endpoint (manual sweep)
  - booking/schedule.go: MarkOverdue
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-estates/booking-ledger/reconcile"
)

// OverdueSweeper periodically marks past-due installments overdue.
type OverdueSweeper struct {
	Coordinator   *reconcile.Coordinator
	CheckInterval time.Duration
	Enabled       bool

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewOverdueSweeper creates a new sweeper.
func NewOverdueSweeper(coord *reconcile.Coordinator, log *zap.Logger) *OverdueSweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &OverdueSweeper{
		Coordinator:   coord,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the sweeper.
func (os *OverdueSweeper) Start() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if !os.Enabled {
		os.log.Info("overdue sweeper disabled, not starting")
		return
	}

	os.ticker = time.NewTicker(os.CheckInterval)
	os.wg.Add(1)

	go os.run()

	os.log.Info("overdue sweeper started", zap.Duration("interval", os.CheckInterval))
}

// Stop stops the sweeper.
func (os *OverdueSweeper) Stop() {
	os.mu.Lock()
	defer os.mu.Unlock()

	if os.ticker != nil {
		os.ticker.Stop()
		close(os.stop)
		os.wg.Wait()
		os.log.Info("overdue sweeper stopped")
	}
}

func (os *OverdueSweeper) run() {
	defer os.wg.Done()

	// Run immediately on start
	os.sweep()

	for {
		select {
		case <-os.ticker.C:
			os.sweep()
		case <-os.stop:
			return
		}
	}
}

func (os *OverdueSweeper) sweep() {
	ctx := context.Background()
	now := time.Now().UTC()

	n, err := os.Coordinator.MarkOverdueInstallments(ctx, now)
	if err != nil {
		os.log.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		os.log.Info("overdue sweep completed", zap.Int("marked_overdue", n))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (os *OverdueSweeper) RunNow() {
	os.sweep()
}
