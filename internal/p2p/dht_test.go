package p2p

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodalync/engine/internal/primitives"
)

func TestContentCIDIsDeterministicPerHash(t *testing.T) {
	hash := primitives.ContentHash([]byte("doc"))

	a, err := contentCID(hash)
	require.NoError(t, err)
	b, err := contentCID(hash)
	require.NoError(t, err)
	require.Equal(t, a, b)

	other, err := contentCID(primitives.ContentHash([]byte("doc2")))
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}
