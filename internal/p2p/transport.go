package p2p

import (
	"context"

	"github.com/libp2p/go-libp2p/core/protocol"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/wire"
)

var errPeerUnreachable = errs.New(errs.PeerNotFound, "no known address for peer")

// SendQueryRequest satisfies ops.Transport: it resolves the recipient's
// libp2p address from the peer directory, opens a query stream, and
// round-trips a single length-prefixed envelope exchange.
func (n *Host) SendQueryRequest(ctx context.Context, peer primitives.PeerId, req wire.QueryRequestPayload) (*wire.QueryResponsePayload, *wire.QueryErrorPayload, error) {
	ai, ok := n.Directory.Lookup(peer)
	if !ok {
		return nil, nil, errPeerUnreachable
	}
	if err := n.host.Connect(ctx, ai); err != nil {
		return nil, nil, errs.Wrap(errs.ConnectionFailed, "connect to "+peer.String(), err)
	}

	stream, err := n.host.NewStream(ctx, ai.ID, protocol.ID(QueryProtocol))
	if err != nil {
		return nil, nil, errs.Wrap(errs.ConnectionFailed, "open query stream", err)
	}
	defer stream.Close()

	raw, err := wire.EncodePayload(req)
	if err != nil {
		return nil, nil, err
	}
	env := wire.Envelope{
		Version:   wire.ProtocolVersion,
		Type:      wire.QueryRequest,
		Timestamp: req.Payment.Timestamp,
		Sender:    n.ownID,
		Payload:   raw,
	}
	env.Sign(n.ownPriv)

	if err := writeFrame(stream, env.Encode()); err != nil {
		return nil, nil, err
	}

	respRaw, err := readFrame(stream)
	if err != nil {
		return nil, nil, err
	}
	respEnv, err := wire.Decode(respRaw)
	if err != nil {
		return nil, nil, err
	}

	switch respEnv.Type {
	case wire.QueryResponse:
		var resp wire.QueryResponsePayload
		if err := wire.DecodePayload(respEnv.Payload, &resp); err != nil {
			return nil, nil, err
		}
		return &resp, nil, nil
	case wire.QueryError:
		var qerr wire.QueryErrorPayload
		if err := wire.DecodePayload(respEnv.Payload, &qerr); err != nil {
			return nil, nil, err
		}
		return nil, &qerr, nil
	default:
		return nil, nil, errs.New(errs.InvalidMessage, "unexpected response message type")
	}
}
