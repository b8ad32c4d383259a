package channel

import (
	"testing"

	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func testPeer(seed byte) primitives.PeerId {
	var p primitives.PeerId
	p[0] = seed
	return p
}

func TestCreateRejectsDuplicate(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	peer := testPeer(1)
	c := Channel{ChannelID: primitives.ContentHash([]byte("c")), PeerID: peer, State: Opening, MyBalance: 1000}
	require.NoError(t, s.Create(peer, c))

	err = s.Create(peer, c)
	require.Error(t, err)
}

func TestUpdateRequiresExisting(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	err = s.Update(testPeer(2), Channel{})
	require.Error(t, err)
}

func TestAddPaymentCreditsRecipientAndEnforcesNonce(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	self := testPeer(1)
	peer := testPeer(2)
	c := Channel{
		ChannelID:    primitives.ContentHash([]byte("c")),
		PeerID:       peer,
		State:        Open,
		MyBalance:    1000,
		TheirBalance: 500,
	}
	require.NoError(t, s.Create(peer, c))

	payment := Payment{ID: primitives.ContentHash([]byte("p1")), Amount: 100, Recipient: self}
	require.NoError(t, s.AddPayment(peer, self, payment, 1, 1000))

	got, err := s.Get(peer)
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(1100), got.MyBalance)
	require.Equal(t, primitives.Amount(400), got.TheirBalance)
	require.Equal(t, uint64(1), got.Nonce)
	require.Len(t, got.PendingPayment, 1)

	// Stale nonce rejected.
	err = s.AddPayment(peer, self, payment, 1, 1001)
	require.Error(t, err)
}

func TestAddPaymentDebitsWhenWePay(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	self := testPeer(1)
	peer := testPeer(2)
	c := Channel{PeerID: peer, State: Open, MyBalance: 1000, TheirBalance: 500}
	require.NoError(t, s.Create(peer, c))

	payment := Payment{ID: primitives.ContentHash([]byte("p2")), Amount: 200, Recipient: peer}
	require.NoError(t, s.AddPayment(peer, self, payment, 1, 1000))

	got, err := s.Get(peer)
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(800), got.MyBalance)
	require.Equal(t, primitives.Amount(700), got.TheirBalance)
}

func TestClearPending(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	self := testPeer(1)
	peer := testPeer(2)
	require.NoError(t, s.Create(peer, Channel{PeerID: peer, State: Open, MyBalance: 1000, TheirBalance: 500}))
	require.NoError(t, s.AddPayment(peer, self, Payment{Amount: 50, Recipient: self}, 1, 1000))

	require.NoError(t, s.ClearPending(peer))
	got, err := s.Get(peer)
	require.NoError(t, err)
	require.Empty(t, got.PendingPayment)
}

func TestListAll(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Create(testPeer(1), Channel{PeerID: testPeer(1)}))
	require.NoError(t, s.Create(testPeer(2), Channel{PeerID: testPeer(2)}))

	all, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
}
