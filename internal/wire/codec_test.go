package wire

import (
	"testing"

	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePayloadRoundtrip(t *testing.T) {
	in := AnnouncePayload{
		Hash:  primitives.ContentHash([]byte("hello")),
		Title: "Hello",
		Price: 100,
	}
	raw, err := EncodePayload(in)
	require.NoError(t, err)

	var out AnnouncePayload
	require.NoError(t, DecodePayload(raw, &out))
	require.Equal(t, in, out)
}

func TestEncodePayloadDeterministic(t *testing.T) {
	in := PeerInfoPayload{
		PeerID:    primitives.PeerId{1, 2, 3},
		Addresses: []string{"/ip4/1.2.3.4/tcp/4001", "/ip4/5.6.7.8/tcp/4001"},
	}
	a, err := EncodePayload(in)
	require.NoError(t, err)
	b, err := EncodePayload(in)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDecodeMalformedCBORFails(t *testing.T) {
	var out PingPayload
	err := DecodePayload([]byte{0xff, 0xff, 0xff}, &out)
	require.Error(t, err)
}
