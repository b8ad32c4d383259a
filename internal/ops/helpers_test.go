package ops

import (
	"testing"

	"github.com/nodalync/engine/internal/cache"
	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/content"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/provenance"
	"github.com/nodalync/engine/internal/settlement"
	"github.com/stretchr/testify/require"
)

// newTestEngine assembles a fresh Engine backed by temp-dir stores and a
// generated identity, the fixture shape every ops test starts from.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, _ := newTestEngineWithIdentity(t)
	return e
}

// newTestEngineWithIdentity is newTestEngine plus the generated public key,
// for tests that need to verify a signature the engine produced.
func newTestEngineWithIdentity(t *testing.T) (*Engine, primitives.PublicKey) {
	t.Helper()

	priv, pub, err := primitives.GenerateIdentity()
	require.NoError(t, err)
	peerID := primitives.PeerIdFromPublicKey(pub)

	contentStore, err := content.New(t.TempDir())
	require.NoError(t, err)
	manifests, err := manifest.Open(t.TempDir())
	require.NoError(t, err)
	prov, err := provenance.Open(t.TempDir())
	require.NoError(t, err)
	channels, err := channel.Open(t.TempDir())
	require.NoError(t, err)
	cacheStore, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	queue, err := settlement.Open(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		manifests.Close()
		channels.Close()
		cacheStore.Close()
		queue.Close()
	})

	e := New(peerID, priv, DefaultConfig(), contentStore, manifests, prov, channels, cacheStore, queue)
	return e, pub
}

func testPeer(seed byte) primitives.PeerId {
	var p primitives.PeerId
	p[0] = seed
	return p
}

func testMeta(title string) manifest.Metadata {
	return manifest.Metadata{Title: title}
}
