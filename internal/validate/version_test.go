package validate

import (
	"testing"

	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func testManifestAt(content []byte, ts primitives.Timestamp) manifest.Manifest {
	hash := primitives.ContentHash(content)
	return manifest.Manifest{
		Hash:        hash,
		ContentType: manifest.L0,
		Owner:       primitives.PeerId{1},
		Version: manifest.Version{
			Number:    1,
			Root:      hash,
			Timestamp: ts,
		},
		Provenance: manifest.Provenance{
			RootL0L1: []manifest.RootEntry{{Hash: hash, Weight: 1}},
		},
	}
}

func TestValidV1(t *testing.T) {
	m := testManifestAt([]byte("v1"), 1000)
	require.NoError(t, Version(&m, nil))
}

func TestV1WithPreviousFails(t *testing.T) {
	m := testManifestAt([]byte("v1"), 1000)
	h := primitives.ContentHash([]byte("x"))
	m.Version.Previous = &h
	require.Error(t, Version(&m, nil))
}

func TestV1RootMismatchFails(t *testing.T) {
	m := testManifestAt([]byte("v1"), 1000)
	m.Version.Root = primitives.ContentHash([]byte("different"))
	require.Error(t, Version(&m, nil))
}

func testV2From(v1 manifest.Manifest, content []byte, ts primitives.Timestamp) manifest.Manifest {
	v2 := testManifestAt(content, ts)
	v2.Version.Number = v1.Version.Number + 1
	v2.Version.Root = v1.Version.Root
	v2.Version.Previous = &v1.Hash
	return v2
}

func TestValidV2(t *testing.T) {
	v1 := testManifestAt([]byte("v1"), 1000)
	v2 := testV2From(v1, []byte("v2"), 2000)
	require.NoError(t, Version(&v2, &v1))
}

func TestV2MissingPreviousFails(t *testing.T) {
	m := testManifestAt([]byte("v2 content"), 1000)
	m.Version.Number = 2
	require.Error(t, Version(&m, nil))
}

func TestV2PreviousHashMismatchFails(t *testing.T) {
	v1 := testManifestAt([]byte("v1"), 1000)
	v2 := testV2From(v1, []byte("v2"), 2000)
	wrong := primitives.ContentHash([]byte("wrong"))
	v2.Version.Previous = &wrong
	require.Error(t, Version(&v2, &v1))
}

func TestV2RootMismatchFails(t *testing.T) {
	v1 := testManifestAt([]byte("v1"), 1000)
	v2 := testV2From(v1, []byte("v2"), 2000)
	v2.Version.Root = primitives.ContentHash([]byte("wrong root"))
	require.Error(t, Version(&v2, &v1))
}

func TestV2VersionNumberMismatchFails(t *testing.T) {
	v1 := testManifestAt([]byte("v1"), 1000)
	v2 := testV2From(v1, []byte("v2"), 2000)
	v2.Version.Number = 5
	require.Error(t, Version(&v2, &v1))
}

func TestV2TimestampNotAfterPreviousFails(t *testing.T) {
	v1 := testManifestAt([]byte("v1"), 2000)
	v2 := testV2From(v1, []byte("v2"), 1000)
	require.Error(t, Version(&v2, &v1))
}

func TestValidVersionChain(t *testing.T) {
	v1 := testManifestAt([]byte("v1"), 1000)
	require.NoError(t, Version(&v1, nil))

	v2 := testV2From(v1, []byte("v2"), 2000)
	require.NoError(t, Version(&v2, &v1))

	v3 := testV2From(v2, []byte("v3"), 3000)
	require.NoError(t, Version(&v3, &v2))
	require.Equal(t, v1.Hash, v3.Version.Root)
}
