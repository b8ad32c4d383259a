// Package econ implements revenue distribution, settlement batch
// construction, and the settlement merkle tree (§4.I).
package econ

import (
	"sort"

	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
)

// SynthesisFeeNumerator/Denominator fix the owner's synthesis fee at
// exactly 5% of a payment (§4.I).
const (
	SynthesisFeeNumerator   = 5
	SynthesisFeeDenominator = 100
)

// MinPrice and MaxPrice bound a manifest's per-query price (§4.I).
const (
	MinPrice primitives.Amount = 1
	MaxPrice primitives.Amount = 10_000_000_000_000_000 // 10^16
)

// Distribution is a single recipient's share of a payment.
type Distribution struct {
	Recipient primitives.PeerId
	Amount    primitives.Amount
}

// SynthesisFee returns 5% of amount, integer division.
func SynthesisFee(amount primitives.Amount) primitives.Amount {
	return amount * SynthesisFeeNumerator / SynthesisFeeDenominator
}

// RootPool returns the 95% remaining after the synthesis fee, computed by
// subtraction (not multiplication) to avoid a separate rounding path.
func RootPool(amount primitives.Amount) primitives.Amount {
	return amount - SynthesisFee(amount)
}

// DistributeRevenue splits a payment between the content owner (synthesis
// fee) and root contributors (proportional to weight, integer division
// with the remainder credited to the owner). Zero-amount recipients are
// dropped and the result is sorted by recipient for determinism (§4.I,
// §8 scenarios S1-S3).
func DistributeRevenue(paymentAmount primitives.Amount, owner primitives.PeerId, provenance []manifest.RootEntry) []Distribution {
	ownerShare := SynthesisFee(paymentAmount)
	rootPool := paymentAmount - ownerShare

	var totalWeight uint64
	for _, e := range provenance {
		totalWeight += e.Weight
	}

	if totalWeight == 0 {
		return []Distribution{{Recipient: owner, Amount: paymentAmount}}
	}

	perWeight := rootPool / primitives.Amount(totalWeight)
	var distributed primitives.Amount

	amounts := make(map[primitives.PeerId]primitives.Amount)
	for _, e := range provenance {
		amt := perWeight * primitives.Amount(e.Weight)
		distributed += amt
		amounts[e.Owner] += amt
	}

	remainder := rootPool - distributed
	amounts[owner] += ownerShare + remainder

	out := make([]Distribution, 0, len(amounts))
	for recipient, amt := range amounts {
		if amt == 0 {
			continue
		}
		out = append(out, Distribution{Recipient: recipient, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Recipient.Less(out[j].Recipient) })
	return out
}
