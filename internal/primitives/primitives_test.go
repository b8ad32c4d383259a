package primitives

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentHashDeterministic(t *testing.T) {
	h1 := ContentHash([]byte("hello"))
	h2 := ContentHash([]byte("hello"))
	require.Equal(t, h1, h2)

	h3 := ContentHash([]byte("world"))
	require.NotEqual(t, h1, h3)
}

func TestPeerIdFromPublicKeyDeterministic(t *testing.T) {
	_, pub, err := GenerateIdentity()
	require.NoError(t, err)

	p1 := PeerIdFromPublicKey(pub)
	p2 := PeerIdFromPublicKey(pub)
	require.Equal(t, p1, p2)
	require.True(t, ValidatePeerId(p1, pub))
}

func TestSignVerifyRoundtrip(t *testing.T) {
	priv, pub, err := GenerateIdentity()
	require.NoError(t, err)

	msg := []byte("payment bytes")
	sig := Sign(priv, msg)
	require.True(t, Verify(pub, msg, sig))

	tampered := append([]byte{}, msg...)
	tampered[0] ^= 0xFF
	require.False(t, Verify(pub, tampered, sig))
}

func TestKeyStoreGenerateLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	ks, err := NewKeyStore(dir)
	require.NoError(t, err)
	require.False(t, ks.Exists())

	peerID, err := ks.Generate("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, ks.Exists())

	loadedID, err := ks.LoadPeerID()
	require.NoError(t, err)
	require.Equal(t, peerID, loadedID)

	priv, pub, err := ks.Load("correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, peerID, PeerIdFromPublicKey(pub))

	sig := Sign(priv, []byte("x"))
	require.True(t, Verify(pub, []byte("x"), sig))

	_, _, err = ks.Load("wrong password")
	require.Error(t, err)
}
