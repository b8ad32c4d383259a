package primitives

import (
	"crypto/sha256"
	"encoding/binary"
)

// Domain separators. The merkle domain (§4.I) reuses the 0x01/0x02 prefixes
// inside its own hashing functions but never mixes inputs with these, so the
// two domains stay non-colliding in practice despite the shared byte values.
const (
	domainContent       byte = 0x00
	domainMessage       byte = 0x01
	domainChannelState  byte = 0x02
)

// ContentHash computes the domain-separated content hash: SHA-256(0x00 || data).
func ContentHash(data []byte) Hash {
	h := sha256.New()
	h.Write([]byte{domainContent})
	h.Write(data)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// MessageSigningInput is the canonical byte layout covered by a message
// signature (§4.H Message validation): version || type || message-id ||
// timestamp || sender || payload-hash.
type MessageSigningInput struct {
	Version    byte
	Type       uint16
	MessageID  Hash
	Timestamp  Timestamp
	Sender     PeerId
	PayloadHash Hash
}

// MessageHash computes the domain-separated message hash covering the
// signing input (§4.A).
func MessageHash(in MessageSigningInput) Hash {
	h := sha256.New()
	h.Write([]byte{domainMessage})
	h.Write([]byte{in.Version})
	var typeBuf [2]byte
	binary.BigEndian.PutUint16(typeBuf[:], in.Type)
	h.Write(typeBuf[:])
	h.Write(in.MessageID[:])
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(in.Timestamp))
	h.Write(tsBuf[:])
	h.Write(in.Sender[:])
	h.Write(in.PayloadHash[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ChannelStateSigningInput is the canonical byte layout for channel-state
// hashing, used when peers sign cooperative-close and dispute states.
type ChannelStateSigningInput struct {
	ChannelID   Hash
	OurBalance  Amount
	TheirBalance Amount
	Nonce       uint64
}

// ChannelStateHash computes the domain-separated channel-state hash (§4.A).
func ChannelStateHash(in ChannelStateSigningInput) Hash {
	h := sha256.New()
	h.Write([]byte{domainChannelState})
	h.Write(in.ChannelID[:])
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(in.OurBalance))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(in.TheirBalance))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], in.Nonce)
	h.Write(buf[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// PaymentSigningInput is the canonical byte layout covered by a payment
// signature (§4.H Payment validation): channel_id || amount_be_u64 ||
// recipient || query_hash || timestamp_be_u64.
type PaymentSigningInput struct {
	ChannelID Hash
	Amount    Amount
	Recipient PeerId
	QueryHash Hash
	Timestamp Timestamp
}

// PaymentSigningBytes returns the exact byte layout a payment signature
// covers, per §4.H.
func PaymentSigningBytes(in PaymentSigningInput) []byte {
	buf := make([]byte, 0, HashSize+8+PeerIdSize+HashSize+8)
	buf = append(buf, in.ChannelID[:]...)
	var amtBuf [8]byte
	binary.BigEndian.PutUint64(amtBuf[:], uint64(in.Amount))
	buf = append(buf, amtBuf[:]...)
	buf = append(buf, in.Recipient[:]...)
	buf = append(buf, in.QueryHash[:]...)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(in.Timestamp))
	buf = append(buf, tsBuf[:]...)
	return buf
}
