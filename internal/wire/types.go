// Package wire implements the protocol's binary envelope and its typed,
// deterministically-CBOR-encoded payloads (§4.J).
package wire

import "github.com/nodalync/engine/internal/primitives"

// ProtocolVersion is the single supported wire protocol version.
const ProtocolVersion byte = 0x01

// MaxClockSkewMs bounds how far a message timestamp may drift from the
// local clock in either direction before it is rejected (§4.H).
const MaxClockSkewMs primitives.Timestamp = 5 * 60 * 1000

// MessageType is a closed, stable enum of wire message kinds (§4.J).
type MessageType uint16

const (
	Announce       MessageType = 0x0100
	AnnounceUpdate MessageType = 0x0101
	Search         MessageType = 0x0110
	SearchResponse MessageType = 0x0111

	PreviewRequest  MessageType = 0x0200
	PreviewResponse MessageType = 0x0201

	QueryRequest  MessageType = 0x0300
	QueryResponse MessageType = 0x0301
	QueryError    MessageType = 0x0302

	VersionRequest  MessageType = 0x0400
	VersionResponse MessageType = 0x0401

	ChannelOpen    MessageType = 0x0500
	ChannelAccept  MessageType = 0x0501
	ChannelUpdate  MessageType = 0x0502
	ChannelClose   MessageType = 0x0503
	ChannelDispute MessageType = 0x0504

	SettleBatch   MessageType = 0x0600
	SettleConfirm MessageType = 0x0601

	Ping     MessageType = 0x0700
	Pong     MessageType = 0x0701
	PeerInfo MessageType = 0x0710
)

var knownTypes = map[MessageType]string{
	Announce:       "Announce",
	AnnounceUpdate: "AnnounceUpdate",
	Search:         "Search",
	SearchResponse: "SearchResponse",

	PreviewRequest:  "PreviewRequest",
	PreviewResponse: "PreviewResponse",

	QueryRequest:  "QueryRequest",
	QueryResponse: "QueryResponse",
	QueryError:    "QueryError",

	VersionRequest:  "VersionRequest",
	VersionResponse: "VersionResponse",

	ChannelOpen:    "ChannelOpen",
	ChannelAccept:  "ChannelAccept",
	ChannelUpdate:  "ChannelUpdate",
	ChannelClose:   "ChannelClose",
	ChannelDispute: "ChannelDispute",

	SettleBatch:   "SettleBatch",
	SettleConfirm: "SettleConfirm",

	Ping:     "Ping",
	Pong:     "Pong",
	PeerInfo: "PeerInfo",
}

// String renders the message type's name, or "UNKNOWN" for an
// unrecognized code.
func (t MessageType) String() string {
	if name, ok := knownTypes[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKnown reports whether t is one of the closed set of wire message types.
func (t MessageType) IsKnown() bool {
	_, ok := knownTypes[t]
	return ok
}

// MessageTypeFromUint16 validates a raw wire value into a MessageType.
func MessageTypeFromUint16(v uint16) (MessageType, bool) {
	t := MessageType(v)
	return t, t.IsKnown()
}
