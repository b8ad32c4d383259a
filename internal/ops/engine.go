// Package ops implements the operations layer: the engine that wires the
// content, manifest, provenance, channel, cache, and settlement stores into
// the protocol's content-lifecycle, query, channel-lifecycle, and
// settlement-trigger operations (spec §4.K).
package ops

import (
	"context"
	"sync"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/cache"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/content"
	"github.com/nodalync/engine/internal/econ"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/provenance"
	"github.com/nodalync/engine/internal/settlement"
	"github.com/nodalync/engine/internal/wire"
)

// Extractor turns raw L0 bytes into an L1 summary and its mentions
// (§4.M). It is pluggable; the engine never assumes a particular
// implementation.
type Extractor interface {
	Extract(hash primitives.Hash, data []byte, at primitives.Timestamp) (manifest.L1Summary, []manifest.Mention, error)
}

// Announcer pushes an announcement onto the DHT/gossip substrate when a
// manifest's visibility is Shared (§4.J). A nil Announcer degrades Publish
// to local-only bookkeeping, matching the engine's optional-network field.
type Announcer interface {
	Announce(ctx context.Context, a wire.AnnouncePayload) error
}

// Locator finds the owning peer for content this node does not hold
// locally, as the first step of a remote Query (§4.K step 2).
type Locator interface {
	LocateOwner(ctx context.Context, hash primitives.Hash) (primitives.PeerId, error)
}

// Transport sends a query request to a remote peer and waits for its
// response, honoring the engine's configured timeout/retry policy.
type Transport interface {
	SendQueryRequest(ctx context.Context, peer primitives.PeerId, req wire.QueryRequestPayload) (*wire.QueryResponsePayload, *wire.QueryErrorPayload, error)
}

// SettlementAdapter is the external settlement contract (§4.L). A nil
// SettlementAdapter is a valid, supported configuration — the engine then
// runs local-only and fails every paid query closed with
// errs.SettlementMissing rather than deliver content without an
// on-chain-capable settlement path.
type SettlementAdapter interface {
	Deposit(ctx context.Context, amount primitives.Amount) (adapter.TransactionID, error)
	Withdraw(ctx context.Context, amount primitives.Amount) (adapter.TransactionID, error)
	GetContractBalance(ctx context.Context) (primitives.Amount, error)
	GetAccountBalance(ctx context.Context) (primitives.Amount, error)
	Attest(ctx context.Context, contentHash, provenanceRoot primitives.Hash) (adapter.TransactionID, error)
	GetAttestation(ctx context.Context, contentHash primitives.Hash) (*adapter.Attestation, error)
	OpenChannel(ctx context.Context, channelID primitives.Hash, peer primitives.PeerId, deposit primitives.Amount) (adapter.TransactionID, error)
	CloseChannel(ctx context.Context, channelID primitives.Hash, final adapter.ChannelBalances, sigs []primitives.Signature) (adapter.TransactionID, error)
	DisputeChannel(ctx context.Context, channelID primitives.Hash, state adapter.ChannelBalances, nonce uint64, sig primitives.Signature) (adapter.TransactionID, error)
	CounterDispute(ctx context.Context, channelID primitives.Hash, state adapter.ChannelBalances, nonce uint64, sig primitives.Signature) (adapter.TransactionID, error)
	ResolveDispute(ctx context.Context, channelID primitives.Hash) (adapter.TransactionID, error)
	SettleBatch(ctx context.Context, batch econ.Batch) (adapter.TransactionID, error)
	VerifySettlement(ctx context.Context, tx adapter.TransactionID) (adapter.SettlementStatus, error)
	GetOwnAccount() adapter.AccountID
	GetAccountForPeer(peer primitives.PeerId) (adapter.AccountID, bool)
	RegisterPeerAccount(peer primitives.PeerId, account adapter.AccountID)
}

// Engine is a node's single operations-layer instance, wrapping every
// local store plus the pluggable extraction, network, and settlement
// surfaces (§5: one engine per node; clones share state through the
// pointers held here).
type Engine struct {
	PeerID     primitives.PeerId
	PrivateKey primitives.PrivateKey

	Content    *content.Store
	Manifests  *manifest.Store
	Provenance *provenance.Graph
	Channels   *channel.Store
	Cache      *cache.Store
	Queue      *settlement.Store

	Config Config

	Extractor  Extractor // may be nil: content stays L0-only
	Announcer  Announcer // may be nil: Publish(Shared) stays local-only
	Locator    Locator   // may be nil: Query can only serve owned/cached content
	Transport  Transport // may be nil: Query can only serve owned/cached content
	Settlement SettlementAdapter // may be nil: paid queries fail closed

	settleMu sync.Mutex // serializes TriggerSettlement (§4.K: at most one attempt at a time)
}

// New assembles an Engine from its already-open stores.
func New(peerID primitives.PeerId, priv primitives.PrivateKey, cfg Config,
	contentStore *content.Store, manifests *manifest.Store, prov *provenance.Graph,
	channels *channel.Store, cacheStore *cache.Store, queue *settlement.Store) *Engine {
	return &Engine{
		PeerID:     peerID,
		PrivateKey: priv,
		Content:    contentStore,
		Manifests:  manifests,
		Provenance: prov,
		Channels:   channels,
		Cache:      cacheStore,
		Queue:      queue,
		Config:     cfg,
	}
}
