package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nodalync/engine/internal/primitives"
)

// errIdentityNotInitialized mirrors the reference CLI's
// CliError::IdentityNotInitialized: commands that need a live node refuse
// to proceed until `nodalyncd init` has created an identity.
var errIdentityNotInitialized = errors.New("identity not initialized: run `nodalyncd init` first")

func msToDuration(ms uint64) time.Duration { return time.Duration(ms) * time.Millisecond }

// parseHash decodes a content hash given as a hex string, the form every
// command prints it in (Hash.String), mirroring the reference CLI's
// parse_hash.
func parseHash(s string) (primitives.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return primitives.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	h, err := primitives.HashFromBytes(b)
	if err != nil {
		return primitives.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return h, nil
}

// parsePeerID decodes a peer id given as a hex string.
func parsePeerID(s string) (primitives.PeerId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return primitives.PeerId{}, fmt.Errorf("invalid peer id %q: %w", s, err)
	}
	p, err := primitives.PeerIdFromBytes(b)
	if err != nil {
		return primitives.PeerId{}, fmt.Errorf("invalid peer id %q: %w", s, err)
	}
	return p, nil
}
