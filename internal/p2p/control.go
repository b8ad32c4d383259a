package p2p

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/wire"
)

// consumeControlTopic subscribes to the control topic and feeds decoded
// Announce and PeerInfo envelopes into the index and directory. It runs
// for the host's lifetime; a subscription error (including context
// cancellation on Close) ends the loop.
func (n *Host) consumeControlTopic() {
	sub, err := n.control.Subscribe()
	if err != nil {
		logrus.Warnf("p2p: subscribe control topic: %v", err)
		return
	}
	defer sub.Cancel()

	for {
		msg, err := sub.Next(n.ctx)
		if err != nil {
			return
		}
		n.handleControlMessage(msg.Data)
	}
}

// handleControlMessage decodes and dispatches one control-topic message.
// It does not verify the envelope signature: gossipsub's own strict
// message signing already authenticates the relaying libp2p peer, and a
// primitives.PeerId cannot be recovered from that identity without the
// raw public key, which the protocol only learns on a direct stream
// connection (see transport.go). Announce/PeerInfo content is therefore
// best-effort discovery data, not a trust boundary; a query is only ever
// paid for once its Payment signature verifies against the payer's
// public key obtained from the authenticated stream (§4.K, §4.H).
func (n *Host) handleControlMessage(raw []byte) {
	env, err := wire.Decode(raw)
	if err != nil {
		return
	}

	switch env.Type {
	case wire.Announce, wire.AnnounceUpdate:
		var payload wire.AnnouncePayload
		if err := wire.DecodePayload(env.Payload, &payload); err != nil {
			return
		}
		n.Index.Observe(payload)
	case wire.PeerInfo:
		var payload wire.PeerInfoPayload
		if err := wire.DecodePayload(env.Payload, &payload); err != nil {
			return
		}
		ai, err := ParseMultiaddrs(payload.Addresses)
		if err != nil {
			return
		}
		n.Directory.Register(payload.PeerID, ai)
	}
}

// publishEnvelope signs and encodes payload into an envelope of the given
// type and publishes it on the control topic.
func (n *Host) publishEnvelope(typ wire.MessageType, payload any) error {
	raw, err := wire.EncodePayload(payload)
	if err != nil {
		return err
	}
	env := wire.Envelope{
		Version:   wire.ProtocolVersion,
		Type:      typ,
		Timestamp: primitives.Timestamp(time.Now().UnixMilli()),
		Sender:    n.ownID,
		Payload:   raw,
	}
	env.Sign(n.ownPriv)
	return n.control.Publish(n.ctx, env.Encode())
}
