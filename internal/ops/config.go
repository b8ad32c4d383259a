package ops

import "github.com/nodalync/engine/internal/primitives"

// Config carries the operator-tunable knobs the operations layer consults
// directly (§6 Configuration knobs). Everything else needed to run a node
// (network, storage paths, logging) lives one layer up, in the node's own
// configuration loader.
type Config struct {
	// ChannelMinDeposit is the smallest deposit accepted when opening a
	// channel, including an auto-opened one during Query.
	ChannelMinDeposit primitives.Amount

	// AutoOpenChannel allows Query to open a channel with an unknown owner
	// on the fly, provided the node's own balance permits it.
	AutoOpenChannel bool

	// MaxAcceptDeposit caps the counterparty deposit this node will accept
	// when responding to a ChannelOpen proposal.
	MaxAcceptDeposit primitives.Amount

	// DisputeWindowMs is how long a disputed channel stays open to a
	// higher-nonce counter-dispute before resolution may be requested.
	DisputeWindowMs uint64

	// DefaultPrice seeds newly created content's price when the caller does
	// not supply one explicitly.
	DefaultPrice primitives.Amount

	// QueryTimeoutMs and MaxRetries/RetryBaseDelayMs bound a remote query
	// request-response round trip (§5).
	QueryTimeoutMs   uint64
	MaxRetries       int
	RetryBaseDelayMs uint64
}

// DefaultConfig returns the knob values named directly in the protocol
// description.
func DefaultConfig() Config {
	return Config{
		ChannelMinDeposit: 1 * primitives.HBAR,
		AutoOpenChannel:   true,
		MaxAcceptDeposit:  100 * primitives.HBAR,
		DisputeWindowMs:   24 * 60 * 60 * 1000,
		DefaultPrice:      1,
		QueryTimeoutMs:    30_000,
		MaxRetries:        3,
		RetryBaseDelayMs:  100,
	}
}
