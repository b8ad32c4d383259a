package p2p

import (
	"time"

	libp2pnetwork "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/sirupsen/logrus"

	"github.com/nodalync/engine/internal/ops"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/wire"
)

// RegisterQueryHandler wires engine.HandleQueryRequest to incoming query
// streams. The requester's primitives.PeerId and public key are derived
// from the stream's authenticated remote public key rather than trusted
// from envelope contents, since that is the one point in the protocol
// where a libp2p identity and a protocol identity are provably the same
// key (see NewHost).
func RegisterQueryHandler(n *Host, engine *ops.Engine) {
	n.host.SetStreamHandler(protocol.ID(QueryProtocol), func(stream libp2pnetwork.Stream) {
		defer stream.Close()

		reqRaw, err := readFrame(stream)
		if err != nil {
			logrus.Warnf("p2p: read query request: %v", err)
			return
		}
		env, err := wire.Decode(reqRaw)
		if err != nil || env.Type != wire.QueryRequest {
			logrus.Warnf("p2p: malformed query request")
			return
		}
		var req wire.QueryRequestPayload
		if err := wire.DecodePayload(env.Payload, &req); err != nil {
			logrus.Warnf("p2p: decode query request payload: %v", err)
			return
		}

		pub, err := stream.Conn().RemotePublicKey().Raw()
		if err != nil {
			logrus.Warnf("p2p: read remote public key: %v", err)
			return
		}
		payerPubKey := primitives.PublicKey(pub)
		requester := primitives.PeerIdFromPublicKey(payerPubKey)

		resp, qerr := engine.HandleQueryRequest(req, requester, &payerPubKey, primitives.Timestamp(time.Now().UnixMilli()))

		var respEnv wire.Envelope
		if qerr != nil {
			raw, err := wire.EncodePayload(*qerr)
			if err != nil {
				logrus.Warnf("p2p: encode query error payload: %v", err)
				return
			}
			respEnv = wire.Envelope{Version: wire.ProtocolVersion, Type: wire.QueryError, Sender: n.ownID, Payload: raw}
		} else {
			raw, err := wire.EncodePayload(*resp)
			if err != nil {
				logrus.Warnf("p2p: encode query response payload: %v", err)
				return
			}
			respEnv = wire.Envelope{Version: wire.ProtocolVersion, Type: wire.QueryResponse, Sender: n.ownID, Payload: raw}
		}
		respEnv.Timestamp = primitives.Timestamp(time.Now().UnixMilli())
		respEnv.Sign(n.ownPriv)

		if err := writeFrame(stream, respEnv.Encode()); err != nil {
			logrus.Warnf("p2p: write query response: %v", err)
		}
	})
}
