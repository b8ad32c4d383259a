package p2p

import (
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/require"
)

const testMultiaddr = "/ip4/127.0.0.1/tcp/4001/p2p/QmYyQSo1c1Ym7orWxLYvCrM2EmxFTANf8wXmmE7DWjhx5N"

func TestPeerDirectoryRegisterAndLookup(t *testing.T) {
	d := NewPeerDirectory()
	id := testP2PPeer(3)

	_, ok := d.Lookup(id)
	require.False(t, ok)

	ai, err := peer.AddrInfoFromString(testMultiaddr)
	require.NoError(t, err)
	d.Register(id, *ai)

	got, ok := d.Lookup(id)
	require.True(t, ok)
	require.Equal(t, ai.ID, got.ID)
	require.Equal(t, 1, d.Len())
}

func TestPeerDirectoryForget(t *testing.T) {
	d := NewPeerDirectory()
	id := testP2PPeer(3)
	ai, err := peer.AddrInfoFromString(testMultiaddr)
	require.NoError(t, err)
	d.Register(id, *ai)

	d.Forget(id)
	_, ok := d.Lookup(id)
	require.False(t, ok)
	require.Equal(t, 0, d.Len())
}

func TestParseMultiaddrsExtractsPeerID(t *testing.T) {
	ai, err := ParseMultiaddrs([]string{testMultiaddr})
	require.NoError(t, err)
	require.NotEmpty(t, ai.ID)
	require.Len(t, ai.Addrs, 1)
}

func TestParseMultiaddrsRejectsInvalidAddress(t *testing.T) {
	_, err := ParseMultiaddrs([]string{"not-a-multiaddr"})
	require.Error(t, err)
}

func TestPeerDirectoryByLibp2pIDResolvesAndClearsOnForget(t *testing.T) {
	d := NewPeerDirectory()
	id := testP2PPeer(9)
	ai, err := peer.AddrInfoFromString(testMultiaddr)
	require.NoError(t, err)
	d.Register(id, *ai)

	got, ok := d.ByLibp2pID(ai.ID.String())
	require.True(t, ok)
	require.Equal(t, id, got)

	d.Forget(id)
	_, ok = d.ByLibp2pID(ai.ID.String())
	require.False(t, ok)
}
