// Package primitives implements the protocol's fixed-width wire types and
// domain-separated content hashing (spec §3, §4.A).
package primitives

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"

	"github.com/mr-tron/base58"
)

// HashSize is the width of every digest used by the protocol.
const HashSize = 32

// Hash is a fixed 32-byte digest. All comparisons are byte-exact.
type Hash [HashSize]byte

// ZeroHash is the all-zero digest used as the empty-batch merkle root.
var ZeroHash = Hash{}

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Base58 renders the hash the way libp2p-derived identifiers conventionally
// print, for CLI output and logs.
func (h Hash) Base58() string { return base58.Encode(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

// Bytes returns a copy of the underlying digest.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// HashFromBytes builds a Hash from a 32-byte slice.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, errors.New("primitives: hash must be 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}

// Less orders hashes lexicographically, used throughout for deterministic
// sorting (merkle pair ordering, settlement entry ordering).
func (h Hash) Less(o Hash) bool {
	for i := range h {
		if h[i] != o[i] {
			return h[i] < o[i]
		}
	}
	return false
}

// PeerIdSize is the width of a peer identifier.
const PeerIdSize = 20

// PeerId identifies a participant, derived deterministically from its
// public key (§4.A).
type PeerId [PeerIdSize]byte

func (p PeerId) String() string   { return hex.EncodeToString(p[:]) }
func (p PeerId) Base58() string   { return base58.Encode(p[:]) }
func (p PeerId) IsZero() bool     { return p == PeerId{} }
func (p PeerId) Bytes() []byte {
	b := make([]byte, PeerIdSize)
	copy(b, p[:])
	return b
}

func (p PeerId) Less(o PeerId) bool {
	for i := range p {
		if p[i] != o[i] {
			return p[i] < o[i]
		}
	}
	return false
}

// PeerIdFromBytes builds a PeerId from a 20-byte slice.
func PeerIdFromBytes(b []byte) (PeerId, error) {
	var p PeerId
	if len(b) != PeerIdSize {
		return p, errors.New("primitives: peer id must be 20 bytes")
	}
	copy(p[:], b)
	return p, nil
}

// PublicKey and PrivateKey are ed25519 keys.
type PublicKey ed25519.PublicKey
type PrivateKey ed25519.PrivateKey

// SignatureSize is the width of an ed25519 signature.
const SignatureSize = 64

// Signature is a 64-byte ed25519 signature.
type Signature [SignatureSize]byte

func (s Signature) Bytes() []byte {
	b := make([]byte, SignatureSize)
	copy(b, s[:])
	return b
}

func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != SignatureSize {
		return s, errors.New("primitives: signature must be 64 bytes")
	}
	copy(s[:], b)
	return s, nil
}

// Amount is an unsigned 64-bit integer denominated in tinybars
// (10^-8 HBAR). Never use floating point for money (spec §9).
type Amount uint64

// HBAR is the conversion factor between a whole HBAR and tinybars.
const HBAR Amount = 100_000_000

// Timestamp is milliseconds since the Unix epoch.
type Timestamp uint64
