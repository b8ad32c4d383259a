package validate

import (
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/wire"
)

// Message checks an envelope against the protocol's message rules (§9.5):
//  1. version == wire.ProtocolVersion
//  2. type is one of the closed set of known message types
//  3. timestamp is within ±wire.MaxClockSkewMs of currentTime
//  4. sender decodes as a structurally valid peer id (guaranteed by its
//     fixed-width type; no further check is needed here)
//  5. signature verifies against senderPubKey, when supplied
func Message(e wire.Envelope, currentTime primitives.Timestamp, senderPubKey *primitives.PublicKey) error {
	if e.Version != wire.ProtocolVersion {
		return errs.New(errs.InvalidMessage, "unsupported protocol version")
	}
	if !e.Type.IsKnown() {
		return errs.New(errs.InvalidMessage, "unknown message type")
	}
	if err := validateTimestamp(e.Timestamp, currentTime); err != nil {
		return err
	}
	if senderPubKey != nil {
		if !e.VerifySignature(*senderPubKey) {
			return errs.New(errs.InvalidSignature, "message signature does not verify")
		}
	}
	return nil
}

// MessageBasic validates a message without signature verification.
func MessageBasic(e wire.Envelope, currentTime primitives.Timestamp) error {
	return Message(e, currentTime, nil)
}

func validateTimestamp(messageTime, currentTime primitives.Timestamp) error {
	var skew primitives.Timestamp
	if messageTime >= currentTime {
		skew = messageTime - currentTime
	} else {
		skew = currentTime - messageTime
	}
	if skew > wire.MaxClockSkewMs {
		return errs.New(errs.InvalidMessage, "timestamp outside acceptable clock skew")
	}
	return nil
}
