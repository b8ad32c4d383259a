package p2p

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nodalync/engine/internal/wire"
)

// Announce satisfies ops.Announcer: it signs and publishes the
// announcement on the control gossip topic, and registers this node as a
// DHT provider for the hash when Kademlia is available. Peers subscribed
// to the control topic feed the gossip half into their own AnnounceIndex
// via handleControlMessage; DHT providership is what keeps the content
// locatable well after the gossip message has scrolled out of anyone's
// recent-message cache.
func (n *Host) Announce(ctx context.Context, a wire.AnnouncePayload) error {
	if err := n.publishEnvelope(wire.Announce, a); err != nil {
		return err
	}
	if n.DHT != nil {
		if err := n.DHT.Provide(ctx, a.Hash); err != nil {
			logrus.Warnf("p2p: dht provide %s: %v", a.Hash, err)
		}
	}
	return nil
}

// BroadcastPeerInfo publishes this node's reachable addresses on the
// control topic, the mechanism by which other nodes populate their
// PeerDirectory and can later dial this node by primitives.PeerId for a
// query stream (§4.K).
func (n *Host) BroadcastPeerInfo(ctx context.Context) error {
	return n.publishEnvelope(wire.PeerInfo, wire.PeerInfoPayload{
		PeerID:    n.ownID,
		Addresses: n.Addrs(),
	})
}
