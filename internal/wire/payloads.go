package wire

import (
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
)

// AnnouncePayload announces a newly published or updated content item
// (types Announce/AnnounceUpdate, §4.J).
type AnnouncePayload struct {
	Hash        primitives.Hash
	ContentType manifest.ContentType
	Owner       primitives.PeerId
	Visibility  manifest.Visibility
	Title       string
	Price       primitives.Amount
}

// SearchPayload requests peers matching a free-text query (type Search).
type SearchPayload struct {
	Query string
	Limit int
}

// SearchResponsePayload returns matching announcements (type SearchResponse).
type SearchResponsePayload struct {
	Results []AnnouncePayload
}

// PreviewRequestPayload requests an L1 free-preview summary (type
// PreviewRequest).
type PreviewRequestPayload struct {
	Hash primitives.Hash
}

// PreviewResponsePayload carries back a preview summary, or an empty
// summary if none is available (type PreviewResponse).
type PreviewResponsePayload struct {
	Summary manifest.L1Summary
	Found   bool
}

// QueryRequestPayload requests paid content, carrying a signed payment and
// an optional specific version selector (type QueryRequest, §4.K).
type QueryRequestPayload struct {
	Hash           primitives.Hash
	Payment        channel.Payment
	VersionNumber  *uint64 // nil selects the latest version
}

// Receipt confirms a settled query, carried alongside the delivered
// content (type QueryResponse).
type Receipt struct {
	PaymentID            primitives.Hash
	Amount                primitives.Amount
	Timestamp             primitives.Timestamp
	ChannelNonce          uint64
	DistributorSignature primitives.Signature
}

// QueryResponsePayload delivers content bytes and a payment receipt (type
// QueryResponse).
type QueryResponsePayload struct {
	Hash    primitives.Hash
	Content []byte
	Receipt Receipt
}

// QueryErrorPayload reports why a query could not be served (type
// QueryError), carrying a stable error code from the closed taxonomy
// (§6/§7).
type QueryErrorPayload struct {
	Hash    primitives.Hash
	Code    uint16
	Message string
}

// VersionRequestPayload asks for the version chain of a content item (type
// VersionRequest).
type VersionRequestPayload struct {
	Hash primitives.Hash
}

// VersionResponsePayload returns the version chain, oldest first (type
// VersionResponse).
type VersionResponsePayload struct {
	Versions []manifest.Version
}

// ChannelOpenPayload proposes opening a channel (type ChannelOpen, §4.E).
type ChannelOpenPayload struct {
	ChannelID   primitives.Hash
	Initiator   primitives.PeerId
	MyBalance   primitives.Amount
}

// ChannelAcceptPayload accepts a channel proposal (type ChannelAccept).
type ChannelAcceptPayload struct {
	ChannelID    primitives.Hash
	TheirBalance primitives.Amount
}

// ChannelUpdatePayload carries a co-signed balance/nonce update (type
// ChannelUpdate).
type ChannelUpdatePayload struct {
	ChannelID    primitives.Hash
	MyBalance    primitives.Amount
	TheirBalance primitives.Amount
	Nonce        uint64
	Signature    primitives.Signature
}

// ChannelClosePayload requests a cooperative close at the given state (type
// ChannelClose).
type ChannelClosePayload struct {
	ChannelID primitives.Hash
	Nonce     uint64
	Signature primitives.Signature
}

// ChannelDisputePayload raises a dispute with the best state each side
// holds (type ChannelDispute).
type ChannelDisputePayload struct {
	ChannelID primitives.Hash
	MyBalance primitives.Amount
	TheirBalance primitives.Amount
	Nonce     uint64
	Signature primitives.Signature
}

// SettleBatchPayload submits a settlement batch for on-chain/adapter
// execution (type SettleBatch, §4.I).
type SettleBatchPayload struct {
	BatchID primitives.Hash
	Root    primitives.Hash
	Entries int
}

// SettleConfirmPayload confirms a previously submitted batch settled (type
// SettleConfirm).
type SettleConfirmPayload struct {
	BatchID primitives.Hash
	TxRef   string
}

// PingPayload is an empty liveness probe (type Ping).
type PingPayload struct {
	Nonce uint64
}

// PongPayload answers a Ping (type Pong).
type PongPayload struct {
	Nonce uint64
}

// PeerInfoPayload advertises a peer's reachable addresses (type PeerInfo).
type PeerInfoPayload struct {
	PeerID    primitives.PeerId
	Addresses []string
}
