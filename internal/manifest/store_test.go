package manifest

import (
	"testing"

	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func testManifest(t *testing.T, owner primitives.PeerId, title string) Manifest {
	t.Helper()
	h := primitives.ContentHash([]byte(title))
	return Manifest{
		Hash:        h,
		ContentType: L0,
		Owner:       owner,
		Version:     Version{Number: 1, Root: h, Timestamp: 1},
		Visibility:  Private,
		Metadata:    Metadata{Title: title, Tags: []string{"alpha"}},
		Economics:   Economics{Price: 100, Currency: "HBAR"},
		Provenance:  Provenance{RootL0L1: []RootEntry{{Hash: h, Owner: owner, Weight: 1}}},
		CreatedAt:   1,
		UpdatedAt:   1,
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	var owner primitives.PeerId
	owner[0] = 1
	m := testManifest(t, owner, "hello world")
	require.NoError(t, s.Put(m))

	got, err := s.Get(m.Hash)
	require.NoError(t, err)
	require.Equal(t, m.Owner, got.Owner)
}

func TestPutRejectsRepublishWithDifferentPayload(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	var owner, other primitives.PeerId
	owner[0] = 1
	other[0] = 2
	m := testManifest(t, owner, "same title")
	require.NoError(t, s.Put(m))

	mutated := m
	mutated.Owner = other
	err = s.Put(mutated)
	require.Error(t, err)
}

func TestPutAllowsEconomicsUpdate(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	var owner primitives.PeerId
	owner[0] = 1
	m := testManifest(t, owner, "economics update")
	require.NoError(t, s.Put(m))

	m.Economics.TotalQueries++
	m.Economics.CumulativeRevenue += 100
	m.UpdatedAt = 2
	require.NoError(t, s.Put(m))

	got, err := s.Get(m.Hash)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.Economics.TotalQueries)
}

func TestListFiltersAndPaginates(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	var owner primitives.PeerId
	owner[0] = 9
	for i := 0; i < 5; i++ {
		title := string(rune('a' + i))
		require.NoError(t, s.Put(testManifest(t, owner, "post "+title)))
	}

	all, err := s.List(Filter{Owner: &owner})
	require.NoError(t, err)
	require.Len(t, all, 5)

	page, err := s.List(Filter{Owner: &owner, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)

	textFiltered, err := s.List(Filter{TextQuery: "alpha"})
	require.NoError(t, err)
	require.Len(t, textFiltered, 5)
}
