package p2p

import (
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/nodalync/engine/internal/primitives"
)

// PeerDirectory maps protocol peer identities to their libp2p address info,
// learned from PeerInfo gossip broadcasts. The transport consults it to
// resolve a primitives.PeerId into something it can dial, since a libp2p
// peer.ID is derived from a different key encoding and the two identifier
// spaces are not interchangeable.
type PeerDirectory struct {
	mu      sync.RWMutex
	addrs   map[primitives.PeerId]peer.AddrInfo
	byLibp2p map[string]primitives.PeerId
}

// NewPeerDirectory returns an empty directory.
func NewPeerDirectory() *PeerDirectory {
	return &PeerDirectory{
		addrs:    make(map[primitives.PeerId]peer.AddrInfo),
		byLibp2p: make(map[string]primitives.PeerId),
	}
}

// Register records or replaces the address info known for a peer, and
// indexes it under its libp2p peer.ID string so DHTLocator can translate
// a provider record's peer.ID back into a primitives.PeerId.
func (d *PeerDirectory) Register(id primitives.PeerId, info peer.AddrInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addrs[id] = info
	d.byLibp2p[info.ID.String()] = id
}

// Lookup returns the address info for a peer, or false if it is unknown.
func (d *PeerDirectory) Lookup(id primitives.PeerId) (peer.AddrInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.addrs[id]
	return info, ok
}

// ByLibp2pID resolves a libp2p peer.ID string (as reported by, e.g., a
// DHT provider record) back to the protocol identity it was registered
// under. Unknown libp2p peers (discovered by the DHT but never seen in a
// PeerInfo broadcast) cannot be resolved and return false.
func (d *PeerDirectory) ByLibp2pID(libp2pID string) (primitives.PeerId, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byLibp2p[libp2pID]
	return id, ok
}

// Forget removes a peer's address info, used when a dial repeatedly fails
// and the entry is presumed stale.
func (d *PeerDirectory) Forget(id primitives.PeerId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if info, ok := d.addrs[id]; ok {
		delete(d.byLibp2p, info.ID.String())
	}
	delete(d.addrs, id)
}

// Len reports how many peers the directory currently holds.
func (d *PeerDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.addrs)
}

// PeerAddr is a known peer's protocol identity and its last-known
// multiaddrs, the shape health.PeerStore persists to disk.
type PeerAddr struct {
	PeerID    primitives.PeerId
	Addresses []string
}

// Entries snapshots the whole directory as protocol-identity/address pairs,
// for the health monitor's periodic peer-directory save.
func (d *PeerDirectory) Entries() []PeerAddr {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]PeerAddr, 0, len(d.addrs))
	for id, info := range d.addrs {
		addrs := make([]string, 0, len(info.Addrs))
		for _, a := range info.Addrs {
			addrs = append(addrs, fmt.Sprintf("%s/p2p/%s", a.String(), info.ID.String()))
		}
		out = append(out, PeerAddr{PeerID: id, Addresses: addrs})
	}
	return out
}

// ParseMultiaddrs turns a PeerInfoPayload's raw multiaddr strings into a
// libp2p AddrInfo, splitting the peer ID out of each address that carries
// a trailing /p2p/<id> component.
func ParseMultiaddrs(addrs []string) (peer.AddrInfo, error) {
	var info peer.AddrInfo
	for i, raw := range addrs {
		ai, err := peer.AddrInfoFromString(raw)
		if err != nil {
			return peer.AddrInfo{}, err
		}
		if i == 0 {
			info.ID = ai.ID
		}
		info.Addrs = append(info.Addrs, ai.Addrs...)
	}
	return info, nil
}
