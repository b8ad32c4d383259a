package health

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/storekit"
)

const bucketPeers = "known_peers"

// PeerRecord is a known peer's last-seen network location, the durable
// counterpart to the DHT's own transient routing table.
type PeerRecord struct {
	PeerID     primitives.PeerId
	Addresses  []string
	LastSeen   primitives.Timestamp
	Reputation int64
}

// PeerStore is a small bbolt-backed registry of known peer addresses,
// separate from the DHT itself (§5 supplemented feature), loaded once at
// startup and saved by the monitor every peer-save interval
// (DefaultPeerSaveInterval unless overridden with WithIntervals).
type PeerStore struct {
	mu sync.Mutex
	db *storekit.DB
}

// OpenPeerStore opens (creating if absent) the peer directory database at
// path.
func OpenPeerStore(path string) (*PeerStore, error) {
	db, err := storekit.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open peer store", err)
	}
	return &PeerStore{db: db}, nil
}

// Close closes the underlying database file.
func (s *PeerStore) Close() error { return s.db.Close() }

// Upsert records or updates a peer's known addresses and last-seen time.
func (s *PeerStore) Upsert(rec PeerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal peer record", err)
	}
	if err := s.db.Put(bucketPeers, rec.PeerID[:], raw); err != nil {
		return errs.Wrap(errs.Internal, "write peer record", err)
	}
	return nil
}

// Get returns a single known peer, if present.
func (s *PeerStore) Get(id primitives.PeerId) (*PeerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.db.Get(bucketPeers, id[:])
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "read peer record", err)
	}
	if raw == nil {
		return nil, nil
	}
	var rec PeerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errs.Wrap(errs.Internal, "unmarshal peer record", err)
	}
	return &rec, nil
}

// List returns every known peer, most-recently-seen first.
func (s *PeerStore) List() ([]PeerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PeerRecord
	err := s.db.ForEach(bucketPeers, nil, func(_, v []byte) bool {
		var rec PeerRecord
		if json.Unmarshal(v, &rec) == nil {
			out = append(out, rec)
		}
		return true
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "scan peer records", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen > out[j].LastSeen })
	return out, nil
}

// Count reports the number of known peers.
func (s *PeerStore) Count() (int, error) {
	peers, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(peers), nil
}

// Delete forgets a peer entirely.
func (s *PeerStore) Delete(id primitives.PeerId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Delete(bucketPeers, id[:]); err != nil {
		return errs.Wrap(errs.Internal, "delete peer record", err)
	}
	return nil
}

// BootstrapEntries returns up to max known peers' addresses, most recently
// seen first, for the monitor's reconnect attempt after a connectivity
// drop.
func (s *PeerStore) BootstrapEntries(max int) ([]PeerRecord, error) {
	peers, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(peers) > max {
		peers = peers[:max]
	}
	return peers, nil
}
