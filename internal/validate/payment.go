package validate

import (
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
)

// PublicKeyLookup resolves a peer's current public key, letting payment
// validation verify a signature without direct storage access.
type PublicKeyLookup interface {
	Lookup(peer primitives.PeerId) (primitives.PublicKey, bool)
}

// BondChecker reports whether a peer has posted a required bond (§4.H
// access validation).
type BondChecker interface {
	HasBond(peer primitives.PeerId, amount primitives.Amount) bool
}

// Payment checks a payment against its channel and target manifest (§9.4):
//  1. amount >= manifest.economics.price
//  2. recipient == manifest.owner
//  3. query_hash == manifest.hash
//  4. channel.state == Open
//  5. channel.their_balance >= amount
//  6. payment nonce > channel.nonce (replay prevention)
//  7. signature verifies against payerPubKey, when supplied
//  8. the multiset of hashes in payment.Provenance equals the multiset of
//     hashes in manifest.Provenance.RootL0L1 (order/visibility-independent)
func Payment(p channel.Payment, c channel.Channel, m manifest.Manifest, payerPubKey *primitives.PublicKey, paymentNonce uint64) error {
	if p.Amount < m.Economics.Price {
		return errs.New(errs.PaymentInvalid, "amount below manifest price")
	}
	if p.Recipient != m.Owner {
		return errs.New(errs.PaymentInvalid, "recipient is not the manifest owner")
	}
	if p.QueryHash != m.Hash {
		return errs.New(errs.PaymentInvalid, "query hash does not match manifest")
	}
	if c.State != channel.Open {
		return errs.New(errs.ChannelNotOpen, "channel is not open")
	}
	if c.TheirBalance < p.Amount {
		return errs.New(errs.InsufficientBalance, "channel balance insufficient for payment")
	}
	if paymentNonce <= c.Nonce {
		return errs.New(errs.InvalidNonce, "payment nonce must exceed channel nonce")
	}
	if payerPubKey != nil {
		if !verifyPaymentSignature(*payerPubKey, p) {
			return errs.New(errs.InvalidSignature, "payment signature does not verify")
		}
	}
	if !provenanceMultisetEqual(p.Provenance, m.Provenance.RootL0L1) {
		return errs.New(errs.InvalidProvenance, "payment provenance does not match manifest")
	}
	return nil
}

// PaymentBasic validates a payment without signature verification, for
// callers that have already verified the signature or lack the payer's
// public key.
func PaymentBasic(p channel.Payment, c channel.Channel, m manifest.Manifest, paymentNonce uint64) error {
	return Payment(p, c, m, nil, paymentNonce)
}

func verifyPaymentSignature(pub primitives.PublicKey, p channel.Payment) bool {
	bytes := primitives.PaymentSigningBytes(primitives.PaymentSigningInput{
		ChannelID: p.ChannelID,
		Amount:    p.Amount,
		Recipient: p.Recipient,
		QueryHash: p.QueryHash,
		Timestamp: p.Timestamp,
	})
	return primitives.Verify(pub, bytes, p.Signature)
}

// provenanceMultisetEqual compares the two provenance lists as multisets of
// hashes: each hash must occur equally often in both, in any order.
func provenanceMultisetEqual(a, b []manifest.RootEntry) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[primitives.Hash]int, len(a))
	for _, e := range a {
		counts[e.Hash]++
	}
	for _, e := range b {
		counts[e.Hash]--
		if counts[e.Hash] < 0 {
			return false
		}
	}
	return true
}
