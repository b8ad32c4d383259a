package econ

import (
	"sort"

	"github.com/nodalync/engine/internal/primitives"
)

// Batch is a settlement batch: a merkle-committed, deterministically
// ordered set of aggregated per-recipient entries (§4.I/§4.G).
type Batch struct {
	ID      primitives.Hash
	Entries []SettlementEntry
	Root    primitives.Hash
}

// QueuedDistribution is one distribution owed to a recipient, carrying the
// provenance root and payment id it was earned from, for aggregation.
type QueuedDistribution struct {
	Recipient      primitives.PeerId
	Amount         primitives.Amount
	ProvenanceHash primitives.Hash
	PaymentID      primitives.Hash
}

// BuildBatch aggregates queued distributions per recipient into settlement
// entries (summing amounts, collecting every contributing provenance hash
// and payment id), sorts entries by recipient for determinism, and commits
// them into a merkle tree (§4.I).
func BuildBatch(queued []QueuedDistribution) Batch {
	type acc struct {
		amount     primitives.Amount
		provenance []primitives.Hash
		payments   []primitives.Hash
	}
	byRecipient := make(map[primitives.PeerId]*acc)
	var order []primitives.PeerId

	for _, q := range queued {
		a, ok := byRecipient[q.Recipient]
		if !ok {
			a = &acc{}
			byRecipient[q.Recipient] = a
			order = append(order, q.Recipient)
		}
		a.amount += q.Amount
		a.provenance = append(a.provenance, q.ProvenanceHash)
		a.payments = append(a.payments, q.PaymentID)
	}

	entries := make([]SettlementEntry, 0, len(order))
	for _, r := range order {
		a := byRecipient[r]
		entries = append(entries, SettlementEntry{
			Recipient:        r,
			Amount:           a.amount,
			ProvenanceHashes: a.provenance,
			PaymentIDs:       a.payments,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Recipient.Less(entries[j].Recipient) })

	return Batch{
		ID:      ComputeBatchID(entries),
		Entries: entries,
		Root:    ComputeMerkleRoot(entries),
	}
}
