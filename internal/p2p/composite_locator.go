package p2p

import (
	"context"

	"github.com/nodalync/engine/internal/primitives"
)

// CompositeLocator tries the gossip-fed AnnounceIndex before falling back
// to the slower Kademlia DHT query, the same cache-then-routing-table
// order real content-addressed networks use (the gossip cache serves
// recently-announced content in one hop; the DHT covers everything else
// at O(log n) hop cost).
type CompositeLocator struct {
	Cache *AnnounceIndex
	DHT   *DHTLocator
}

// LocateOwner satisfies ops.Locator.
func (c *CompositeLocator) LocateOwner(ctx context.Context, hash primitives.Hash) (primitives.PeerId, error) {
	if c.Cache != nil {
		if owner, err := c.Cache.LocateOwner(ctx, hash); err == nil {
			return owner, nil
		}
	}
	if c.DHT != nil {
		return c.DHT.LocateOwner(ctx, hash)
	}
	return primitives.PeerId{}, errOwnerUnknown
}
