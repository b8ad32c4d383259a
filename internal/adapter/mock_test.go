package adapter

import (
	"context"
	"testing"

	"github.com/nodalync/engine/internal/econ"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func TestDepositWithdrawTrackContractBalance(t *testing.T) {
	m := New(1)
	ctx := context.Background()

	_, err := m.Deposit(ctx, 500)
	require.NoError(t, err)
	bal, err := m.GetContractBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(500), bal)

	_, err = m.Withdraw(ctx, 200)
	require.NoError(t, err)
	bal, err = m.GetContractBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(300), bal)

	require.Equal(t, []primitives.Amount{500}, m.Deposits())
	require.Equal(t, []primitives.Amount{200}, m.Withdrawals())
}

func TestWithdrawRejectsOverdraw(t *testing.T) {
	m := New(1)
	_, err := m.Withdraw(context.Background(), 100)
	require.Error(t, err)
}

func TestOpenChannelRejectsDuplicateAndInsufficientFunds(t *testing.T) {
	m := New(1).WithAccountBalance(100)
	ctx := context.Background()
	peer := testAdapterPeer(1)
	id := primitives.ContentHash([]byte("c1"))

	_, err := m.OpenChannel(ctx, id, peer, 50)
	require.NoError(t, err)
	require.Equal(t, 1, m.ChannelCount())

	_, err = m.OpenChannel(ctx, id, peer, 10)
	require.Error(t, err)

	_, err = m.OpenChannel(ctx, primitives.ContentHash([]byte("c2")), peer, 1000)
	require.Error(t, err)
}

func TestCloseChannelRequiresOpenAndSignature(t *testing.T) {
	m := New(1).WithAccountBalance(1000)
	ctx := context.Background()
	peer := testAdapterPeer(1)
	id := primitives.ContentHash([]byte("c1"))
	_, err := m.OpenChannel(ctx, id, peer, 100)
	require.NoError(t, err)

	_, err = m.CloseChannel(ctx, id, ChannelBalances{MyBalance: 100}, nil)
	require.Error(t, err)

	_, err = m.CloseChannel(ctx, id, ChannelBalances{MyBalance: 100}, []primitives.Signature{{}})
	require.NoError(t, err)

	_, err = m.CloseChannel(ctx, id, ChannelBalances{MyBalance: 100}, []primitives.Signature{{}})
	require.Error(t, err)
}

func TestDisputeCounterDisputeResolveLifecycle(t *testing.T) {
	m := New(1).WithAccountBalance(1000)
	ctx := context.Background()
	peer := testAdapterPeer(1)
	id := primitives.ContentHash([]byte("c1"))
	_, err := m.OpenChannel(ctx, id, peer, 100)
	require.NoError(t, err)

	_, err = m.DisputeChannel(ctx, id, ChannelBalances{MyBalance: 100}, 1, primitives.Signature{})
	require.NoError(t, err)

	_, err = m.CounterDispute(ctx, id, ChannelBalances{MyBalance: 40, TheirBalance: 60}, 1, primitives.Signature{})
	require.Error(t, err)

	_, err = m.CounterDispute(ctx, id, ChannelBalances{MyBalance: 40, TheirBalance: 60}, 2, primitives.Signature{})
	require.NoError(t, err)

	_, err = m.ResolveDispute(ctx, id)
	require.NoError(t, err)

	_, err = m.ResolveDispute(ctx, id)
	require.Error(t, err)
}

func TestSettleBatchRejectsEmptyBatch(t *testing.T) {
	m := New(1)
	_, err := m.SettleBatch(context.Background(), econ.Batch{})
	require.Error(t, err)
}

func TestFailureInjectionForcesConfiguredCallToFail(t *testing.T) {
	m := New(1)
	m.SetShouldFail(Failure{Deposit: true})
	_, err := m.Deposit(context.Background(), 10)
	require.Error(t, err)

	m.SetShouldFail(Failure{})
	_, err = m.Deposit(context.Background(), 10)
	require.NoError(t, err)
}

func TestFaucetFundsAccountBalanceDirectly(t *testing.T) {
	m := New(1)
	NewFaucet(m).Fund(1000)
	require.Equal(t, primitives.Amount(1000), m.CurrentBalance())
}

func testAdapterPeer(seed byte) primitives.PeerId {
	var p primitives.PeerId
	p[0] = seed
	return p
}
