// Package p2p wires the operations engine's Announcer, Locator, and
// Transport interfaces onto a libp2p host: gossipsub for announcements and
// peer-info broadcast, and a request/response stream protocol for paid
// queries (§4.K, §4.J).
package p2p

import "github.com/nodalync/engine/internal/primitives"

// ControlTopic is the gossipsub topic carrying Announce and PeerInfo
// envelopes: the substrate Locator and the peer directory both read from.
const ControlTopic = "nodalync/control/v1"

// QueryProtocol is the libp2p stream protocol ID used for the paid query
// request/response exchange (§4.K).
const QueryProtocol = "/nodalync/query/1.0.0"

// Config bundles the libp2p host parameters a node needs to join the
// network, mirroring the teacher's network Config shape (listen address,
// bootstrap peers, discovery tag).
type Config struct {
	ListenAddr     string
	BootstrapPeers []string
	DiscoveryTag   string
	Identity       primitives.PrivateKey
}
