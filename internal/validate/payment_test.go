package validate

import (
	"testing"

	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/stretchr/testify/require"
)

func testOwner() primitives.PeerId { return primitives.PeerId{9} }

func testManifestForPayment(price primitives.Amount) manifest.Manifest {
	hash := primitives.ContentHash([]byte("content"))
	root := manifest.RootEntry{Hash: hash, Owner: testOwner(), Weight: 1}
	return manifest.Manifest{
		Hash:       hash,
		Owner:      testOwner(),
		Economics:  manifest.Economics{Price: price},
		Provenance: manifest.Provenance{RootL0L1: []manifest.RootEntry{root}},
	}
}

func testOpenChannel(theirBalance primitives.Amount) channel.Channel {
	return channel.Channel{
		ChannelID:    primitives.ContentHash([]byte("channel")),
		State:        channel.Open,
		TheirBalance: theirBalance,
		Nonce:        0,
	}
}

func testPaymentFor(m manifest.Manifest, c channel.Channel, amount primitives.Amount) (channel.Payment, uint64) {
	p := channel.Payment{
		ID:         primitives.ContentHash([]byte("payment")),
		ChannelID:  c.ChannelID,
		Amount:     amount,
		Recipient:  m.Owner,
		QueryHash:  m.Hash,
		Provenance: m.Provenance.RootL0L1,
		Timestamp:  1234567890,
	}
	return p, c.Nonce + 1
}

func TestValidPayment(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	p, nonce := testPaymentFor(m, c, 100)
	require.NoError(t, PaymentBasic(p, c, m, nonce))
}

func TestPaymentExceedsPriceOK(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	p, nonce := testPaymentFor(m, c, 200)
	require.NoError(t, PaymentBasic(p, c, m, nonce))
}

func TestInsufficientPaymentFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	p, nonce := testPaymentFor(m, c, 50)
	require.Error(t, PaymentBasic(p, c, m, nonce))
}

func TestWrongRecipientFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	p, nonce := testPaymentFor(m, c, 100)
	p.Recipient = primitives.PeerId{2}
	require.Error(t, PaymentBasic(p, c, m, nonce))
}

func TestQueryHashMismatchFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	p, nonce := testPaymentFor(m, c, 100)
	p.QueryHash = primitives.ContentHash([]byte("different"))
	require.Error(t, PaymentBasic(p, c, m, nonce))
}

func TestChannelNotOpenFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	c.State = channel.Closing
	p, nonce := testPaymentFor(m, c, 100)
	require.Error(t, PaymentBasic(p, c, m, nonce))
}

func TestInsufficientChannelBalanceFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(50)
	p, nonce := testPaymentFor(m, c, 100)
	require.Error(t, PaymentBasic(p, c, m, nonce))
}

func TestInvalidNonceFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	c.Nonce = 5
	p, _ := testPaymentFor(m, c, 100)
	require.Error(t, PaymentBasic(p, c, m, 3))
}

func TestNonceEqualToChannelNonceFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	c.Nonce = 5
	p, _ := testPaymentFor(m, c, 100)
	require.Error(t, PaymentBasic(p, c, m, 5))
}

func TestProvenanceMismatchFails(t *testing.T) {
	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	p, nonce := testPaymentFor(m, c, 100)
	p.Provenance = []manifest.RootEntry{{Hash: primitives.ContentHash([]byte("different"))}}
	require.Error(t, PaymentBasic(p, c, m, nonce))
}

func TestProvenanceOrderAndVisibilityIndependent(t *testing.T) {
	h1 := primitives.ContentHash([]byte("hash1"))
	h2 := primitives.ContentHash([]byte("hash2"))
	a := []manifest.RootEntry{{Hash: h1}, {Hash: h2}}
	b := []manifest.RootEntry{
		{Hash: h2, VisibilityAtDerivation: manifest.Unlisted},
		{Hash: h1, VisibilityAtDerivation: manifest.Shared},
	}
	require.True(t, provenanceMultisetEqual(a, b))

	c := []manifest.RootEntry{{Hash: h1}}
	require.False(t, provenanceMultisetEqual(a, c))
}

func TestPaymentSignatureVerification(t *testing.T) {
	priv, pub, err := primitives.GenerateIdentity()
	require.NoError(t, err)

	m := testManifestForPayment(100)
	c := testOpenChannel(1000)
	p, nonce := testPaymentFor(m, c, 100)

	bytes := primitives.PaymentSigningBytes(primitives.PaymentSigningInput{
		ChannelID: p.ChannelID,
		Amount:    p.Amount,
		Recipient: p.Recipient,
		QueryHash: p.QueryHash,
		Timestamp: p.Timestamp,
	})
	p.Signature = primitives.Sign(priv, bytes)

	require.NoError(t, Payment(p, c, m, &pub, nonce))

	_, wrongPub, err := primitives.GenerateIdentity()
	require.NoError(t, err)
	require.Error(t, Payment(p, c, m, &wrongPub, nonce))
}
