package provenance

import (
	"testing"

	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func openBoth(t *testing.T) (*Graph, *manifest.Store) {
	t.Helper()
	g, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	m, err := manifest.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return g, m
}

func putRoot(t *testing.T, m *manifest.Store, owner primitives.PeerId, seed byte) primitives.Hash {
	t.Helper()
	h := primitives.ContentHash([]byte{seed})
	require.NoError(t, m.Put(manifest.Manifest{
		Hash:        h,
		ContentType: manifest.L0,
		Owner:       owner,
		Version:     manifest.Version{Number: 1, Root: h, Timestamp: 1},
		Visibility:  manifest.Shared,
		Provenance:  manifest.Provenance{RootL0L1: []manifest.RootEntry{{Hash: h, Owner: owner, Weight: 1}}},
		CreatedAt:   1,
		UpdatedAt:   1,
	}))
	return h
}

func TestAddRejectsSelfLoop(t *testing.T) {
	g, _ := openBoth(t)
	h := primitives.ContentHash([]byte("x"))
	err := g.Add(h, []primitives.Hash{h})
	require.Error(t, err)
}

func TestAddRejectsCycle(t *testing.T) {
	g, _ := openBoth(t)
	a := primitives.ContentHash([]byte("a"))
	b := primitives.ContentHash([]byte("b"))

	require.NoError(t, g.Add(b, []primitives.Hash{a}))
	err := g.Add(a, []primitives.Hash{b})
	require.Error(t, err)
}

func TestListDirectSourcesAndDerivations(t *testing.T) {
	g, _ := openBoth(t)
	a := primitives.ContentHash([]byte("a"))
	b := primitives.ContentHash([]byte("b"))
	c := primitives.ContentHash([]byte("c"))

	require.NoError(t, g.Add(c, []primitives.Hash{a, b}))

	sources, err := g.ListDirectSources(c)
	require.NoError(t, err)
	require.ElementsMatch(t, []primitives.Hash{a, b}, sources)

	derivations, err := g.ListDirectDerivations(a)
	require.NoError(t, err)
	require.ElementsMatch(t, []primitives.Hash{c}, derivations)
}

func TestIsAncestorTransitive(t *testing.T) {
	g, _ := openBoth(t)
	a := primitives.ContentHash([]byte("a"))
	b := primitives.ContentHash([]byte("b"))
	c := primitives.ContentHash([]byte("c"))

	require.NoError(t, g.Add(b, []primitives.Hash{a}))
	require.NoError(t, g.Add(c, []primitives.Hash{b}))

	ok, err := g.IsAncestor(a, c)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.IsAncestor(c, a)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetRootsLeafIsOwnRoot(t *testing.T) {
	g, m := openBoth(t)
	var owner primitives.PeerId
	owner[0] = 1
	leaf := putRoot(t, m, owner, 1)

	roots, err := g.GetRoots(leaf, m)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, leaf, roots[0].Hash)
	require.Equal(t, uint64(1), roots[0].Weight)
}

// Mirrors the weighted three-root distribution scenario (alice/bob/carol
// roots feeding a single derived work; alice is reached by two paths, so
// the weights come out 2/1/1).
func TestGetRootsAccumulatesWeightAcrossPaths(t *testing.T) {
	g, m := openBoth(t)
	var alice, bob, carol primitives.PeerId
	alice[0], bob[0], carol[0] = 1, 2, 3

	rAlice := putRoot(t, m, alice, 10)
	rBob := putRoot(t, m, bob, 20)
	rCarol := putRoot(t, m, carol, 30)

	mid := primitives.ContentHash([]byte("mid"))
	require.NoError(t, g.Add(mid, []primitives.Hash{rAlice, rBob}))

	top := primitives.ContentHash([]byte("top"))
	// alice counted via mid, and again directly: weight should accumulate to 2.
	require.NoError(t, g.Add(top, []primitives.Hash{mid, rAlice, rCarol}))

	roots, err := g.GetRoots(top, m)
	require.NoError(t, err)

	byHash := make(map[primitives.Hash]uint64)
	for _, r := range roots {
		byHash[r.Hash] = r.Weight
	}
	require.Equal(t, uint64(2), byHash[rAlice])
	require.Equal(t, uint64(1), byHash[rBob])
	require.Equal(t, uint64(1), byHash[rCarol])
}

func TestGetRootsCachesResult(t *testing.T) {
	g, m := openBoth(t)
	var owner primitives.PeerId
	owner[0] = 5
	leaf := putRoot(t, m, owner, 7)
	derived := primitives.ContentHash([]byte("derived"))
	require.NoError(t, g.Add(derived, []primitives.Hash{leaf}))

	first, err := g.GetRoots(derived, m)
	require.NoError(t, err)

	cached, ok, err := g.cachedRootsLocked(derived)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, first, cached)
}
