package p2p

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/multiformats/go-multihash"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
)

// Kademlia parameters carried over from the original network configuration
// (bucket size 20, alpha 3, replication factor 20); go-libp2p-kad-dht
// applies bucket size and alpha as package-level options at construction.
const (
	dhtBucketSize = 20
	dhtAlpha      = 3
	// dhtReplication mirrors the original's replication factor; the DHT
	// library applies its own internal replication/republish policy
	// rather than taking this as a constructor option.
	dhtReplication  = 20
	dhtQueryTimeout = 60 * time.Second
)

// DHTLocator finds content owners through Kademlia provider records: the
// durable, scalable counterpart to AnnounceIndex's gossip cache. A node
// calls Provide once it owns (or republishes) a content hash; LocateOwner
// calls FindProvidersAsync and returns the first provider it sees whose
// libp2p identity is already resolvable to a protocol identity.
type DHTLocator struct {
	dht       *dht.IpfsDHT
	directory *PeerDirectory
}

// NewDHTLocator wraps h in server-mode Kademlia DHT participation, bootstrapping
// against whatever peers the host is already connected to (its bootstrap
// peers and any mDNS-discovered peers).
func NewDHTLocator(ctx context.Context, h *Host) (*DHTLocator, error) {
	kad, err := dht.New(ctx, h.host,
		dht.Mode(dht.ModeServer),
		dht.BucketSize(dhtBucketSize),
		dht.Concurrency(dhtAlpha),
	)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "create kademlia dht", err)
	}
	if err := kad.Bootstrap(ctx); err != nil {
		return nil, errs.Wrap(errs.Internal, "bootstrap kademlia dht", err)
	}
	return &DHTLocator{dht: kad, directory: h.Directory}, nil
}

// contentCID wraps a content hash's raw digest as a CIDv1 without
// rehashing it: the digest is already a domain-separated SHA-256 (see
// primitives.ContentHash), so it is encoded directly as a multihash
// rather than hashed a second time.
func contentCID(hash primitives.Hash) (cid.Cid, error) {
	raw, err := multihash.Encode(hash.Bytes(), multihash.SHA2_256)
	if err != nil {
		return cid.Undef, errs.Wrap(errs.Internal, "encode content multihash", err)
	}
	return cid.NewCidV1(cid.Raw, multihash.Multihash(raw)), nil
}

// Provide announces this node as a provider of hash to the DHT, to be
// called whenever content moves from unowned to owned/published.
func (l *DHTLocator) Provide(ctx context.Context, hash primitives.Hash) error {
	c, err := contentCID(hash)
	if err != nil {
		return err
	}
	if err := l.dht.Provide(ctx, c, true); err != nil {
		return errs.Wrap(errs.Internal, "dht provide", err)
	}
	return nil
}

// LocateOwner satisfies ops.Locator by querying the DHT for providers of
// hash and returning the first one resolvable back to a protocol
// identity via the host's PeerDirectory (populated by control-topic
// PeerInfo gossip). A provider whose libp2p identity was never announced
// on the control topic cannot be turned into a primitives.PeerId and is
// skipped.
func (l *DHTLocator) LocateOwner(ctx context.Context, hash primitives.Hash) (primitives.PeerId, error) {
	c, err := contentCID(hash)
	if err != nil {
		return primitives.PeerId{}, err
	}

	qctx, cancel := context.WithTimeout(ctx, dhtQueryTimeout)
	defer cancel()

	providers := l.dht.FindProvidersAsync(qctx, c, dhtAlpha)
	for info := range providers {
		if id, ok := l.directory.ByLibp2pID(info.ID.String()); ok {
			return id, nil
		}
	}
	return primitives.PeerId{}, errOwnerUnknown
}

// Close shuts down the DHT's background maintenance goroutines.
func (l *DHTLocator) Close() error {
	return l.dht.Close()
}
