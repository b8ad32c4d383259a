package channel

import (
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
)

// State is a payment channel's lifecycle state (§4.E).
type State int

const (
	Opening State = iota
	Open
	Closing
	Closed
	Disputed
)

func (s State) String() string {
	switch s {
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	case Disputed:
		return "disputed"
	default:
		return "unknown"
	}
}

// IsClosed reports whether s is Closed or Disputed. Disputed is not
// terminal: a resolved dispute moves the channel on to Closed.
func (s State) IsClosed() bool { return s == Closed || s == Disputed }

// Payment is a single payment for a content query, carried through a
// channel and eventually distributed per its provenance (§4.E/§4.H).
type Payment struct {
	ID         primitives.Hash
	ChannelID  primitives.Hash
	Amount     primitives.Amount
	Recipient  primitives.PeerId
	QueryHash  primitives.Hash
	Provenance []manifest.RootEntry
	Timestamp  primitives.Timestamp
	Signature  primitives.Signature
}

// TotalProvenanceWeight sums the weight across every provenance entry.
func (p Payment) TotalProvenanceWeight() uint64 {
	var total uint64
	for _, e := range p.Provenance {
		total += e.Weight
	}
	return total
}

// Channel is a bilateral off-chain payment channel with one peer (§4.E).
type Channel struct {
	ChannelID      primitives.Hash
	PeerID         primitives.PeerId
	State          State
	MyBalance      primitives.Amount
	TheirBalance   primitives.Amount
	Nonce          uint64
	LastUpdate     primitives.Timestamp
	PendingPayment []Payment
	FundingTxID    *string
}

// IsOpen reports whether the channel can process payments.
func (c *Channel) IsOpen() bool { return c.State == Open }

// TotalBalance returns the sum of both sides' balances.
func (c *Channel) TotalBalance() primitives.Amount { return c.MyBalance + c.TheirBalance }

// CanPay reports whether we have enough balance to pay amount.
func (c *Channel) CanPay(amount primitives.Amount) bool {
	return c.IsOpen() && c.MyBalance >= amount
}

// CanReceive reports whether the counterparty has enough balance to pay us amount.
func (c *Channel) CanReceive(amount primitives.Amount) bool {
	return c.IsOpen() && c.TheirBalance >= amount
}

// PendingAmount sums amounts across pending, not-yet-settled payments.
func (c *Channel) PendingAmount() primitives.Amount {
	var total primitives.Amount
	for _, p := range c.PendingPayment {
		total += p.Amount
	}
	return total
}

// ClearPending drops pending payments after settlement.
func (c *Channel) ClearPending() { c.PendingPayment = nil }

// Pay records an outgoing payment (we pay the counterparty). nonce must be
// strictly greater than the channel's current nonce (§4.E replay prevention).
func (c *Channel) Pay(p Payment, nonce uint64, at primitives.Timestamp) error {
	if !c.IsOpen() {
		return errChannelNotOpen
	}
	if nonce <= c.Nonce {
		return errStaleNonce
	}
	if c.MyBalance < p.Amount {
		return errInsufficientBalance
	}
	c.MyBalance -= p.Amount
	c.TheirBalance += p.Amount
	c.Nonce = nonce
	c.LastUpdate = at
	c.PendingPayment = append(c.PendingPayment, p)
	return nil
}

// Receive records an incoming payment (the counterparty pays us).
func (c *Channel) Receive(p Payment, nonce uint64, at primitives.Timestamp) error {
	if !c.IsOpen() {
		return errChannelNotOpen
	}
	if nonce <= c.Nonce {
		return errStaleNonce
	}
	if c.TheirBalance < p.Amount {
		return errInsufficientBalance
	}
	c.TheirBalance -= p.Amount
	c.MyBalance += p.Amount
	c.Nonce = nonce
	c.LastUpdate = at
	c.PendingPayment = append(c.PendingPayment, p)
	return nil
}
