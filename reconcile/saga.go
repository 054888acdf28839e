/*
saga.go - Compensating-action list for multi-entity writes.

Each step of a compound operation registers an undo action as it succeeds.
On failure, the stack is unwound in reverse order: the last write is the
first undone. A rollback failure is escalated as an orphan-reference error
carrying the failed step labels - never swallowed - because at that point a
dangling financial record exists and needs manual reconciliation.
*/
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atlas-estates/booking-ledger/ledger"
)

type compensation struct {
	label string
	undo  func(ctx context.Context) error
}

// saga collects compensations as a compound operation progresses.
// A nil *saga is valid and inert: when the store runs the operation inside
// a real transaction, no compensations are needed.
type saga struct {
	steps []compensation
	log   *zap.Logger
}

func newSaga(log *zap.Logger) *saga {
	return &saga{log: log}
}

// add registers an undo action for a step that just succeeded.
func (s *saga) add(label string, undo func(ctx context.Context) error) {
	if s == nil {
		return
	}
	s.steps = append(s.steps, compensation{label: label, undo: undo})
}

// rollback unwinds all registered compensations in reverse order.
// Returns nil if every compensation succeeded.
func (s *saga) rollback(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var failed []string
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", step.label, err))
			s.log.Error("compensation failed",
				zap.String("step", step.label),
				zap.Error(err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: rollback incomplete [%s]",
			ledger.ErrOrphanReference, strings.Join(failed, "; "))
	}
	return nil
}
