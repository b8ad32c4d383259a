package ops

import (
	"context"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/econ"
	"github.com/nodalync/engine/internal/primitives"
)

// ShouldSettle reports whether a settlement trigger should fire now,
// based on pending value or elapsed time since the last batch (§4.I).
func (e *Engine) ShouldSettle(now primitives.Timestamp) (bool, error) {
	pending, err := e.Queue.PeekPendingTotal()
	if err != nil {
		return false, err
	}
	last, err := e.Queue.LastSettlementTime()
	if err != nil {
		return false, err
	}
	return econ.ShouldSettle(pending, last, now), nil
}

// TriggerSettlement drains the pending queue, builds a settlement batch,
// and submits it through the settlement adapter. A submission failure
// re-enqueues every drained payment intact before returning, so a retry
// never loses a payment (§4.K Settlement trigger). At most one attempt
// runs at a time per engine.
func (e *Engine) TriggerSettlement(ctx context.Context, now primitives.Timestamp) (adapter.TransactionID, error) {
	e.settleMu.Lock()
	defer e.settleMu.Unlock()

	if e.Settlement == nil {
		return "", errSettlementMissing
	}

	payments, err := e.Queue.Drain()
	if err != nil {
		return "", err
	}
	if len(payments) == 0 {
		return "", nil
	}

	batch := econ.CreateSettlementBatch(payments)
	tx, err := e.Settlement.SettleBatch(ctx, batch)
	if err != nil {
		if reErr := e.Queue.Enqueue(payments...); reErr != nil {
			return "", reErr
		}
		return "", err
	}

	if err := e.Queue.SetLastSettlementTime(now); err != nil {
		return "", err
	}
	return tx, nil
}
