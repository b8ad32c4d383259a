package p2p

import (
	"context"
	"sync"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/wire"
)

var errOwnerUnknown = errs.New(errs.PeerNotFound, "no announcement seen for this content hash")

// AnnounceIndex tracks the most recent owner announced for each content
// hash, built from Announce/AnnounceUpdate envelopes observed on the
// control topic. It implements ops.Locator directly; nothing about it
// depends on the transport that fed it, which keeps it unit-testable
// without a real libp2p host.
type AnnounceIndex struct {
	mu     sync.RWMutex
	owners map[primitives.Hash]primitives.PeerId
}

// NewAnnounceIndex returns an empty index.
func NewAnnounceIndex() *AnnounceIndex {
	return &AnnounceIndex{owners: make(map[primitives.Hash]primitives.PeerId)}
}

// Observe records an announcement's owner, overwriting whatever owner was
// previously recorded for the hash (the newest announcement wins).
func (idx *AnnounceIndex) Observe(a wire.AnnouncePayload) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.owners[a.Hash] = a.Owner
}

// LocateOwner satisfies ops.Locator.
func (idx *AnnounceIndex) LocateOwner(ctx context.Context, hash primitives.Hash) (primitives.PeerId, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	owner, ok := idx.owners[hash]
	if !ok {
		return primitives.PeerId{}, errOwnerUnknown
	}
	return owner, nil
}

// Len reports how many content hashes the index currently has an owner
// for.
func (idx *AnnounceIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.owners)
}
