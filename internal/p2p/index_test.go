package p2p

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/wire"
)

func testP2PPeer(seed byte) primitives.PeerId {
	var p primitives.PeerId
	p[0] = seed
	return p
}

func TestAnnounceIndexLocateOwnerAfterObserve(t *testing.T) {
	idx := NewAnnounceIndex()
	hash := primitives.ContentHash([]byte("doc"))
	owner := testP2PPeer(7)

	_, err := idx.LocateOwner(context.Background(), hash)
	require.Error(t, err)

	idx.Observe(wire.AnnouncePayload{Hash: hash, Owner: owner})
	got, err := idx.LocateOwner(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, owner, got)
	require.Equal(t, 1, idx.Len())
}

func TestAnnounceIndexLatestAnnouncementWins(t *testing.T) {
	idx := NewAnnounceIndex()
	hash := primitives.ContentHash([]byte("doc"))
	first := testP2PPeer(1)
	second := testP2PPeer(2)

	idx.Observe(wire.AnnouncePayload{Hash: hash, Owner: first})
	idx.Observe(wire.AnnouncePayload{Hash: hash, Owner: second})

	got, err := idx.LocateOwner(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, second, got)
}
