package wire

import (
	"encoding/binary"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
)

// Magic is the fixed first byte of every envelope.
const Magic byte = 0x00

// Envelope is the protocol's fixed binary framing around a CBOR-encoded
// payload (§4.J): magic(1) || version(1) || type(2 BE) || timestamp(8 BE)
// || sender(20) || length(4 BE) || payload(length) || signature(64).
type Envelope struct {
	Version   byte
	Type      MessageType
	Timestamp primitives.Timestamp
	Sender    primitives.PeerId
	Payload   []byte
	Signature primitives.Signature
}

// ID is the content hash of the encoded payload, used as the message's
// identity for dedup/logging purposes.
func (e Envelope) ID() primitives.Hash {
	return primitives.ContentHash(e.Payload)
}

// PayloadHash is the domain-separated hash of the payload bytes, the value
// folded into the message signing input (§4.A).
func (e Envelope) PayloadHash() primitives.Hash {
	return primitives.ContentHash(e.Payload)
}

// SigningBytes returns the 32-byte message hash (primitives.MessageHash)
// of the signing input, the exact bytes a sender signs and a verifier
// checks (§4.H). The input is
// version || type_be_u16 || message_id || timestamp_be_u64 || sender || payload_hash.
func (e Envelope) SigningBytes() []byte {
	in := primitives.MessageSigningInput{
		Version:     e.Version,
		Type:        uint16(e.Type),
		MessageID:   e.ID(),
		Timestamp:   e.Timestamp,
		Sender:      e.Sender,
		PayloadHash: e.PayloadHash(),
	}
	h := primitives.MessageHash(in)
	return h[:]
}

// Sign signs the envelope in place with priv.
func (e *Envelope) Sign(priv primitives.PrivateKey) {
	e.Signature = primitives.Sign(priv, e.SigningBytes())
}

// VerifySignature checks the envelope's signature against pub.
func (e Envelope) VerifySignature(pub primitives.PublicKey) bool {
	return primitives.Verify(pub, e.SigningBytes(), e.Signature)
}

const envelopeFixedSize = 1 + 1 + 2 + 8 + primitives.PeerIdSize + 4 + primitives.SignatureSize

// Encode serializes the envelope to its canonical wire bytes.
func (e Envelope) Encode() []byte {
	buf := make([]byte, 0, envelopeFixedSize+len(e.Payload))
	buf = append(buf, Magic, e.Version)

	var typeBuf [2]byte
	binary.BigEndian.PutUint16(typeBuf[:], uint16(e.Type))
	buf = append(buf, typeBuf[:]...)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(e.Timestamp))
	buf = append(buf, tsBuf[:]...)

	buf = append(buf, e.Sender[:]...)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(e.Payload)))
	buf = append(buf, lenBuf[:]...)

	buf = append(buf, e.Payload...)
	buf = append(buf, e.Signature[:]...)
	return buf
}

// Decode parses canonical wire bytes into an Envelope, rejecting an
// unknown magic byte, unsupported version, unknown message type, a
// truncated buffer, or a payload length that doesn't match the framed
// length field (§4.J).
func Decode(raw []byte) (Envelope, error) {
	var e Envelope

	const headerSize = 1 + 1 + 2 + 8 + primitives.PeerIdSize + 4
	if len(raw) < headerSize {
		return e, errs.New(errs.InvalidMessage, "envelope truncated")
	}

	off := 0
	if raw[off] != Magic {
		return e, errs.New(errs.InvalidMessage, "unknown envelope magic")
	}
	off++

	version := raw[off]
	off++
	if version != ProtocolVersion {
		return e, errs.New(errs.InvalidMessage, "unsupported protocol version")
	}

	typeVal := binary.BigEndian.Uint16(raw[off : off+2])
	off += 2
	msgType, ok := MessageTypeFromUint16(typeVal)
	if !ok {
		return e, errs.New(errs.InvalidMessage, "unknown message type")
	}

	ts := primitives.Timestamp(binary.BigEndian.Uint64(raw[off : off+8]))
	off += 8

	sender, err := primitives.PeerIdFromBytes(raw[off : off+primitives.PeerIdSize])
	if err != nil {
		return e, errs.Wrap(errs.InvalidMessage, "invalid sender", err)
	}
	off += primitives.PeerIdSize

	length := binary.BigEndian.Uint32(raw[off : off+4])
	off += 4

	if uint32(len(raw)-off) < length+primitives.SignatureSize {
		return e, errs.New(errs.InvalidMessage, "envelope truncated")
	}
	payload := raw[off : off+int(length)]
	off += int(length)

	if len(raw)-off != primitives.SignatureSize {
		return e, errs.New(errs.InvalidMessage, "payload length mismatch")
	}
	sig, err := primitives.SignatureFromBytes(raw[off:])
	if err != nil {
		return e, errs.Wrap(errs.InvalidMessage, "invalid signature", err)
	}

	e = Envelope{
		Version:   version,
		Type:      msgType,
		Timestamp: ts,
		Sender:    sender,
		Payload:   append([]byte{}, payload...),
		Signature: sig,
	}
	return e, nil
}
