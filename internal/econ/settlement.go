package econ

import (
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/primitives"
)

// SettlementBatchThreshold and SettlementBatchIntervalMs are the two
// independent settlement triggers (§4.I): pending value reaching the
// threshold, or enough wall-clock time elapsing since the last batch.
const (
	SettlementBatchThreshold  primitives.Amount    = 10_000_000_000 // 100 HBAR in tinybars
	SettlementBatchIntervalMs primitives.Timestamp = 3_600_000      // 1 hour
)

// ShouldSettle reports whether a settlement batch should fire now.
func ShouldSettle(pendingTotal primitives.Amount, lastSettlement, now primitives.Timestamp) bool {
	if pendingTotal >= SettlementBatchThreshold {
		return true
	}
	if now >= lastSettlement && now-lastSettlement >= SettlementBatchIntervalMs {
		return true
	}
	return false
}

// CalculatePendingTotal sums amounts across pending payments.
func CalculatePendingTotal(payments []channel.Payment) primitives.Amount {
	var total primitives.Amount
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

// CreateSettlementBatch distributes revenue for each payment and aggregates
// the results into a single merkle-committed batch (§4.I). An empty input
// produces an empty batch with a zero id and zero root.
func CreateSettlementBatch(payments []channel.Payment) Batch {
	if len(payments) == 0 {
		return Batch{}
	}

	var queued []QueuedDistribution
	for _, p := range payments {
		for _, d := range DistributeRevenue(p.Amount, p.Recipient, p.Provenance) {
			queued = append(queued, QueuedDistribution{
				Recipient: d.Recipient,
				Amount:    d.Amount,
				PaymentID: p.ID,
			})
		}
	}
	return BuildBatch(queued)
}
