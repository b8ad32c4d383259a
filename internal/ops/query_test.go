package ops

import (
	"context"
	"testing"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/wire"
	"github.com/stretchr/testify/require"
)

// directLocator always resolves to a fixed peer.
type directLocator struct{ owner primitives.PeerId }

func (d directLocator) LocateOwner(_ context.Context, _ primitives.Hash) (primitives.PeerId, error) {
	return d.owner, nil
}

// directTransport calls the owning engine's HandleQueryRequest in-process,
// standing in for a real network round trip.
type directTransport struct {
	owner    *Engine
	pub      primitives.PublicKey
	requester primitives.PeerId
	at       primitives.Timestamp
}

func (d directTransport) SendQueryRequest(_ context.Context, _ primitives.PeerId, req wire.QueryRequestPayload) (*wire.QueryResponsePayload, *wire.QueryErrorPayload, error) {
	resp, qerr := d.owner.HandleQueryRequest(req, d.requester, &d.pub, d.at)
	return resp, qerr, nil
}

func openReciprocalChannels(t *testing.T, owner, requester *Engine, channelID primitives.Hash, amount primitives.Amount) {
	t.Helper()
	require.NoError(t, owner.Channels.Create(requester.PeerID, channel.Channel{
		ChannelID: channelID, PeerID: requester.PeerID, State: channel.Open, TheirBalance: amount,
	}))
	require.NoError(t, requester.Channels.Create(owner.PeerID, channel.Channel{
		ChannelID: channelID, PeerID: owner.PeerID, State: channel.Open, MyBalance: amount,
	}))
}

func TestQueryServesOwnedContentWithoutPayment(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.CreateContent([]byte("mine"), testMeta("doc"), 1000)
	require.NoError(t, err)

	data, receipt, err := e.Query(context.Background(), m.Hash, 0, nil, 2000)
	require.NoError(t, err)
	require.Equal(t, []byte("mine"), data)
	require.Equal(t, wire.Receipt{}, receipt)
}

func TestQueryFailsWithoutLocatorForRemoteContent(t *testing.T) {
	requester := newTestEngine(t)
	owner, _ := newTestEngineWithIdentity(t)
	m := manifest.Manifest{Hash: primitives.ContentHash([]byte("remote")), ContentType: manifest.L0, Owner: owner.PeerID, Visibility: manifest.Shared, Economics: manifest.Economics{Price: 10}}
	require.NoError(t, requester.Manifests.Put(m))

	_, _, err := requester.Query(context.Background(), m.Hash, 0, nil, 2000)
	require.Error(t, err)
}

func TestQueryRoundTripPaysAndCaches(t *testing.T) {
	owner, ownerPub := newTestEngineWithIdentity(t)
	requester, requesterPub := newTestEngineWithIdentity(t)

	created, err := owner.CreateContent([]byte("paid content"), testMeta("doc"), 1000)
	require.NoError(t, err)
	published, err := owner.Publish(context.Background(), created.Hash, owner.PeerID, manifest.Shared, 500, 1000)
	require.NoError(t, err)
	require.NoError(t, requester.Manifests.Put(published))

	channelID := primitives.ContentHash([]byte("chan"))
	openReciprocalChannels(t, owner, requester, channelID, 10*primitives.HBAR)

	requester.Locator = directLocator{owner: owner.PeerID}
	requester.Transport = directTransport{owner: owner, pub: requesterPub, requester: requester.PeerID, at: 2000}
	owner.Settlement = adapter.New(1)

	data, receipt, err := requester.Query(context.Background(), published.Hash, 0, nil, 2000)
	require.NoError(t, err)
	require.Equal(t, []byte("paid content"), data)
	require.NotEmpty(t, receipt.PaymentID)
	require.True(t, primitives.Verify(ownerPub, receipt.PaymentID[:], receipt.DistributorSignature))

	entry, err := requester.Cache.Get(published.Hash)
	require.NoError(t, err)
	require.NotNil(t, entry)

	c, err := requester.Channels.Get(owner.PeerID)
	require.NoError(t, err)
	require.Equal(t, uint64(1), c.Nonce)
}

func TestHandleQueryRequestFailsClosedWithoutSettlement(t *testing.T) {
	owner, ownerPub := newTestEngineWithIdentity(t)
	requester := newTestEngine(t)
	_ = ownerPub

	created, err := owner.CreateContent([]byte("paid"), testMeta("doc"), 1000)
	require.NoError(t, err)
	published, err := owner.Publish(context.Background(), created.Hash, owner.PeerID, manifest.Shared, 500, 1000)
	require.NoError(t, err)

	channelID := primitives.ContentHash([]byte("chan2"))
	openReciprocalChannels(t, owner, requester, channelID, 10*primitives.HBAR)

	payment := channel.Payment{
		ChannelID: channelID, Amount: 500, Recipient: owner.PeerID, QueryHash: published.Hash,
		Provenance: published.Provenance.RootL0L1, Timestamp: 2000,
	}
	req := wire.QueryRequestPayload{Hash: published.Hash, Payment: payment}

	_, qerr := owner.HandleQueryRequest(req, requester.PeerID, nil, 2000)
	require.NotNil(t, qerr)
	require.Equal(t, uint16(errs.SettlementMissing), qerr.Code)
}
