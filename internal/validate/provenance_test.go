package validate

import (
	"testing"

	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func l0Manifest() manifest.Manifest {
	hash := primitives.ContentHash([]byte("l0"))
	return manifest.Manifest{
		Hash:        hash,
		ContentType: manifest.L0,
		Provenance: manifest.Provenance{
			RootL0L1: []manifest.RootEntry{{Hash: hash, Weight: 1}},
		},
	}
}

func l3Manifest() manifest.Manifest {
	hash := primitives.ContentHash([]byte("l3"))
	source := primitives.ContentHash([]byte("source"))
	return manifest.Manifest{
		Hash:        hash,
		ContentType: manifest.L3,
		Provenance: manifest.Provenance{
			RootL0L1:    []manifest.RootEntry{{Hash: source, Weight: 1}},
			DerivedFrom: []primitives.Hash{source},
			Depth:       1,
		},
	}
}

func TestValidL0Provenance(t *testing.T) {
	m := l0Manifest()
	require.NoError(t, Provenance(&m))
}

func TestL0RootMustBeSelf(t *testing.T) {
	m := l0Manifest()
	m.Provenance.RootL0L1[0].Hash = primitives.ContentHash([]byte("other"))
	require.Error(t, Provenance(&m))
}

func TestL0MustHaveNoDerivedFrom(t *testing.T) {
	m := l0Manifest()
	m.Provenance.DerivedFrom = []primitives.Hash{primitives.ContentHash([]byte("x"))}
	require.Error(t, Provenance(&m))
}

func TestL0DepthMustBeZero(t *testing.T) {
	m := l0Manifest()
	m.Provenance.Depth = 1
	require.Error(t, Provenance(&m))
}

func TestValidL3Provenance(t *testing.T) {
	m := l3Manifest()
	require.NoError(t, Provenance(&m))
}

func TestL3RequiresNonEmptyRoots(t *testing.T) {
	m := l3Manifest()
	m.Provenance.RootL0L1 = nil
	require.Error(t, Provenance(&m))
}

func TestL3RequiresNonEmptyDerivedFrom(t *testing.T) {
	m := l3Manifest()
	m.Provenance.DerivedFrom = nil
	require.Error(t, Provenance(&m))
}

func TestL3RequiresDepthAtLeastOne(t *testing.T) {
	m := l3Manifest()
	m.Provenance.Depth = 0
	require.Error(t, Provenance(&m))
}

func TestL3RejectsSelfReference(t *testing.T) {
	m := l3Manifest()
	m.Provenance.DerivedFrom = append(m.Provenance.DerivedFrom, m.Hash)
	require.Error(t, Provenance(&m))
}

func TestL1L2HaveNoProvenanceInvariant(t *testing.T) {
	m := manifest.Manifest{ContentType: manifest.L1}
	require.NoError(t, Provenance(&m))
	m.ContentType = manifest.L2
	require.NoError(t, Provenance(&m))
}
