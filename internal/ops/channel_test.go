package ops

import (
	"context"
	"testing"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func TestOpenChannelRejectsBelowMinimum(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.OpenChannel(testPeer(2), e.Config.ChannelMinDeposit-1, 1000)
	require.Error(t, err)
}

func TestOpenThenAcceptChannel(t *testing.T) {
	e := newTestEngine(t)
	peer := testPeer(2)

	c, err := e.OpenChannel(peer, e.Config.ChannelMinDeposit, 1000)
	require.NoError(t, err)
	require.Equal(t, channel.Opening, c.State)

	other := newTestEngine(t)
	accepted, err := other.AcceptChannel(e.PeerID, c.ChannelID, e.Config.ChannelMinDeposit, 2*primitives.HBAR, 1500)
	require.NoError(t, err)
	require.Equal(t, channel.Open, accepted.State)
	require.Equal(t, e.Config.ChannelMinDeposit, accepted.TheirBalance)
}

func TestAcceptChannelRejectsOversizedDeposit(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AcceptChannel(testPeer(2), primitives.ContentHash([]byte("c")), e.Config.MaxAcceptDeposit+1, primitives.HBAR, 1000)
	require.Error(t, err)
}

func TestCloseChannelOffChainWithoutSettlement(t *testing.T) {
	e := newTestEngine(t)
	peer := testPeer(2)
	_, err := e.AcceptChannel(peer, primitives.ContentHash([]byte("c")), primitives.HBAR, primitives.HBAR, 1000)
	require.NoError(t, err)

	result, err := e.CloseChannel(context.Background(), peer, 2000)
	require.NoError(t, err)
	require.Equal(t, CloseSuccessOffChain, result.Kind)
	require.True(t, result.IsSuccess())

	has, err := e.HasOpenChannel(peer)
	require.NoError(t, err)
	require.False(t, has)
}

func TestCloseChannelOnChainSuccess(t *testing.T) {
	e := newTestEngine(t)
	e.Settlement = adapter.New(1)
	peer := testPeer(2)
	_, err := e.AcceptChannel(peer, primitives.ContentHash([]byte("c")), primitives.HBAR, primitives.HBAR, 1000)
	require.NoError(t, err)
	// The mock only closes channels it has seen opened on-chain.
	_, err = e.Settlement.OpenChannel(context.Background(), primitives.ContentHash([]byte("c")), peer, 0)
	require.NoError(t, err)

	result, err := e.CloseChannel(context.Background(), peer, 2000)
	require.NoError(t, err)
	require.Equal(t, CloseSuccess, result.Kind)
	require.NotEmpty(t, result.TransactionID)
}

func TestCloseChannelOnChainFailureReportedNotErrored(t *testing.T) {
	e := newTestEngine(t)
	e.Settlement = adapter.New(1).WithFailure(adapter.Failure{CloseChannel: true})
	peer := testPeer(2)
	_, err := e.AcceptChannel(peer, primitives.ContentHash([]byte("c")), primitives.HBAR, primitives.HBAR, 1000)
	require.NoError(t, err)

	result, err := e.CloseChannel(context.Background(), peer, 2000)
	require.NoError(t, err)
	require.Equal(t, CloseOnChainFailed, result.Kind)
	require.False(t, result.IsSuccess())
	require.NotEmpty(t, result.FailureReason)
}

func TestCloseChannelRejectsAlreadyClosed(t *testing.T) {
	e := newTestEngine(t)
	peer := testPeer(2)
	_, err := e.AcceptChannel(peer, primitives.ContentHash([]byte("c")), primitives.HBAR, primitives.HBAR, 1000)
	require.NoError(t, err)
	_, err = e.CloseChannel(context.Background(), peer, 2000)
	require.NoError(t, err)

	_, err = e.CloseChannel(context.Background(), peer, 3000)
	require.Error(t, err)
}

func TestDisputeAndResolveRespectsWindow(t *testing.T) {
	e := newTestEngine(t)
	e.Settlement = adapter.New(1)
	peer := testPeer(2)
	_, err := e.AcceptChannel(peer, primitives.ContentHash([]byte("c")), primitives.HBAR, primitives.HBAR, 1000)
	require.NoError(t, err)
	// The mock only disputes channels it has seen opened on-chain.
	_, err = e.Settlement.OpenChannel(context.Background(), primitives.ContentHash([]byte("c")), peer, 0)
	require.NoError(t, err)

	_, err = e.DisputeChannel(context.Background(), peer, 2000)
	require.NoError(t, err)

	_, err = e.ResolveDispute(context.Background(), peer, 2000+1)
	require.ErrorIs(t, err, errDisputeWindowActive)

	windowElapsed := 2000 + primitives.Timestamp(e.Config.DisputeWindowMs)
	_, err = e.ResolveDispute(context.Background(), peer, windowElapsed)
	require.NoError(t, err)

	has, err := e.HasOpenChannel(peer)
	require.NoError(t, err)
	require.False(t, has)
}

func TestCounterDisputeRequiresHigherNonce(t *testing.T) {
	e := newTestEngine(t)
	e.Settlement = adapter.New(1)
	peer := testPeer(2)
	c, err := e.AcceptChannel(peer, primitives.ContentHash([]byte("c")), primitives.HBAR, primitives.HBAR, 1000)
	require.NoError(t, err)
	// The mock only disputes channels it has seen opened on-chain.
	_, err = e.Settlement.OpenChannel(context.Background(), primitives.ContentHash([]byte("c")), peer, 0)
	require.NoError(t, err)
	_, err = e.DisputeChannel(context.Background(), peer, 2000)
	require.NoError(t, err)

	stale := *c
	stale.Nonce = c.Nonce
	_, err = e.CounterDisputeChannel(context.Background(), peer, stale, 2500)
	require.Error(t, err)

	higher := *c
	higher.Nonce = c.Nonce + 1
	higher.MyBalance = primitives.HBAR / 2
	higher.TheirBalance = primitives.HBAR + primitives.HBAR/2
	tx, err := e.CounterDisputeChannel(context.Background(), peer, higher, 2600)
	require.NoError(t, err)
	require.NotEmpty(t, tx)
}
