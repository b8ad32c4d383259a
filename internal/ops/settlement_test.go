package ops

import (
	"context"
	"sync"
	"testing"

	"github.com/nodalync/engine/internal/adapter"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func TestTriggerSettlementFailsClosedWithoutAdapter(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.TriggerSettlement(context.Background(), 1000)
	require.ErrorIs(t, err, errSettlementMissing)
}

func TestTriggerSettlementNoopOnEmptyQueue(t *testing.T) {
	e := newTestEngine(t)
	e.Settlement = adapter.New(1)
	tx, err := e.TriggerSettlement(context.Background(), 1000)
	require.NoError(t, err)
	require.Empty(t, tx)
}

func TestTriggerSettlementDrainsAndRecordsTime(t *testing.T) {
	e := newTestEngine(t)
	mock := adapter.New(1)
	e.Settlement = mock

	p := channel.Payment{ID: primitives.ContentHash([]byte("p1")), ChannelID: primitives.ContentHash([]byte("c")), Amount: 100, Recipient: testPeer(9)}
	require.NoError(t, e.Queue.Enqueue(p))

	tx, err := e.TriggerSettlement(context.Background(), 5000)
	require.NoError(t, err)
	require.NotEmpty(t, tx)
	require.Len(t, mock.SettledBatches(), 1)

	pending, err := e.Queue.PeekPendingTotal()
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(0), pending)

	last, err := e.Queue.LastSettlementTime()
	require.NoError(t, err)
	require.Equal(t, primitives.Timestamp(5000), last)
}

func TestTriggerSettlementReenqueuesOnAdapterFailure(t *testing.T) {
	e := newTestEngine(t)
	mock := adapter.New(1).WithFailure(adapter.Failure{SettleBatch: true})
	e.Settlement = mock

	p := channel.Payment{ID: primitives.ContentHash([]byte("p1")), ChannelID: primitives.ContentHash([]byte("c")), Amount: 100, Recipient: testPeer(9)}
	require.NoError(t, e.Queue.Enqueue(p))

	_, err := e.TriggerSettlement(context.Background(), 5000)
	require.Error(t, err)

	pending, err := e.Queue.PeekPendingTotal()
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(100), pending)
}

func TestTriggerSettlementSerializesConcurrentAttempts(t *testing.T) {
	e := newTestEngine(t)
	e.Settlement = adapter.New(1)

	for i := 0; i < 5; i++ {
		p := channel.Payment{ID: primitives.ContentHash([]byte{byte(i)}), ChannelID: primitives.ContentHash([]byte("c")), Amount: 10, Recipient: testPeer(9)}
		require.NoError(t, e.Queue.Enqueue(p))
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = e.TriggerSettlement(context.Background(), 9000)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	pending, err := e.Queue.PeekPendingTotal()
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(0), pending)
}

func TestShouldSettleReflectsThresholdAndInterval(t *testing.T) {
	e := newTestEngine(t)
	should, err := e.ShouldSettle(1000)
	require.NoError(t, err)
	require.False(t, should)

	p := channel.Payment{ID: primitives.ContentHash([]byte("big")), ChannelID: primitives.ContentHash([]byte("c")), Amount: 20_000_000_000, Recipient: testPeer(9)}
	require.NoError(t, e.Queue.Enqueue(p))

	should, err = e.ShouldSettle(1000)
	require.NoError(t, err)
	require.True(t, should)
}
