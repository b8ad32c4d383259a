// Package adapter defines the thin contract to an on-chain settlement
// ledger (spec §4.L) plus an in-memory mock implementation for tests and
// local-only operation, and the peer-id <-> on-chain account mapping that
// sits alongside it.
package adapter

import (
	"fmt"

	"github.com/nodalync/engine/internal/primitives"
)

// AccountID identifies an on-chain account in shard.realm.num form (the
// teacher's settlement layer targets Hedera; the same three-part scheme
// generalizes to any account-model chain reached through this adapter).
type AccountID struct {
	Shard, Realm, Num uint64
}

// SimpleAccountID builds an AccountID with shard=0, realm=0.
func SimpleAccountID(num uint64) AccountID { return AccountID{Num: num} }

func (a AccountID) String() string {
	return fmt.Sprintf("%d.%d.%d", a.Shard, a.Realm, a.Num)
}

// TransactionID is an opaque reference to a submitted on-chain transaction.
type TransactionID string

// Attestation records that a content hash's provenance root was committed
// on-chain at a point in time.
type Attestation struct {
	ContentHash     primitives.Hash
	Account         AccountID
	Timestamp       primitives.Timestamp
	ProvenanceRoot  primitives.Hash
}

// SettlementStatusKind is a closed enum over a submitted transaction's
// on-chain disposition.
type SettlementStatusKind int

const (
	Pending SettlementStatusKind = iota
	Confirmed
	Failed
)

// SettlementStatus reports a transaction's on-chain disposition (§4.L).
type SettlementStatus struct {
	Kind      SettlementStatusKind
	Block     uint64
	Timestamp primitives.Timestamp
	Reason    string // set when Kind == Failed
}

func (s SettlementStatus) IsConfirmed() bool { return s.Kind == Confirmed }

// ChannelBalances is the final two-sided balance state submitted when
// closing, disputing, or counter-disputing a channel (§4.L).
type ChannelBalances struct {
	MyBalance    primitives.Amount
	TheirBalance primitives.Amount
}
