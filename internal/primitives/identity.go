package primitives

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// GenerateIdentity creates a fresh ed25519 keypair.
func GenerateIdentity() (PrivateKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: generate identity: %w", err)
	}
	return PrivateKey(priv), PublicKey(pub), nil
}

// PeerIdFromPublicKey derives a PeerId deterministically from a public key:
// the low 20 bytes of SHA-256(pubkey).
func PeerIdFromPublicKey(pub PublicKey) PeerId {
	sum := sha256.Sum256(pub)
	var p PeerId
	copy(p[:], sum[len(sum)-PeerIdSize:])
	return p
}

// ValidatePeerId checks that a claimed peer id matches the given public key.
// This is cheap and must be applied on message receipt (§4.A).
func ValidatePeerId(claimed PeerId, pub PublicKey) bool {
	return PeerIdFromPublicKey(pub) == claimed
}

// Sign signs data with the private key.
func Sign(priv PrivateKey, data []byte) Signature {
	sig := ed25519.Sign(ed25519.PrivateKey(priv), data)
	var out Signature
	copy(out[:], sig)
	return out
}

// Verify checks a signature against data and a public key.
func Verify(pub PublicKey, data []byte, sig Signature) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), data, sig[:])
}
