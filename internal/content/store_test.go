package content

import (
	"testing"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadRoundtrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("hello content")
	h, err := s.Store(data)
	require.NoError(t, err)
	require.Equal(t, primitives.ContentHash(data), h)

	require.True(t, s.Exists(h))
	loaded, err := s.Load(h)
	require.NoError(t, err)
	require.Equal(t, data, loaded)
}

func TestStoreIdempotent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("same bytes")
	h1, err := s.Store(data)
	require.NoError(t, err)
	h2, err := s.Store(data)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestStoreVerifiedMismatch(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	wrongHash := primitives.ContentHash([]byte("not this"))
	err = s.StoreVerified(wrongHash, []byte("actual data"))
	require.Error(t, err)
	var e *errs.E
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.InvalidHash, e.Code)
}

func TestLoadMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(primitives.ContentHash([]byte("missing")))
	require.Error(t, err)
	var e *errs.E
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.NotFound, e.Code)
}

func TestDeleteThenExists(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("to delete")
	h, err := s.Store(data)
	require.NoError(t, err)
	require.NoError(t, s.Delete(h))
	require.False(t, s.Exists(h))
}
