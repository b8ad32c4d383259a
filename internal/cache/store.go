// Package cache implements the hybrid disk+index cache store (§4.F):
// queried content bytes land on the filesystem in a sharded layout
// identical to internal/content, while metadata (for LRU eviction and
// membership queries) is durable in bbolt and fronted by a bounded
// in-memory LRU index of hot entries.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/logctx"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/storekit"
)

const bucketCacheMeta = "cache_meta"

// hotIndexSize bounds the in-memory LRU fronting bbolt metadata reads; it
// does not bound how much is cached on disk — that is evict-to(max_bytes).
const hotIndexSize = 4096

// Receipt is the proof-of-payment that justified fetching and caching a
// piece of remote content.
type Receipt struct {
	PaymentID            primitives.Hash
	Amount               primitives.Amount
	Timestamp            primitives.Timestamp
	ChannelNonce         uint64
	DistributorSignature primitives.Signature
}

// Entry is a cached piece of remote content plus its provenance-of-payment.
type Entry struct {
	Hash       primitives.Hash
	Content    []byte
	SourcePeer primitives.PeerId
	QueriedAt  primitives.Timestamp
	Receipt    Receipt
}

type meta struct {
	SourcePeer primitives.PeerId
	QueriedAt  primitives.Timestamp
	SizeBytes  uint64
	Receipt    Receipt
}

// Store is the hybrid disk+index cache store.
type Store struct {
	mu       sync.Mutex
	dir      string
	db       *storekit.DB
	hotIndex *lru.Cache[primitives.Hash, meta]
}

// Open opens (creating if absent) the cache store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.Internal, "create cache dir", err)
	}
	db, err := storekit.Open(filepath.Join(dir, "cache_meta.db"))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open cache store", err)
	}
	hot, err := lru.New[primitives.Hash, meta](hotIndexSize)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "create hot index", err)
	}
	return &Store{dir: dir, db: db, hotIndex: hot}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) contentPath(h primitives.Hash) string {
	hex := h.String()
	return filepath.Join(s.dir, hex[:2], hex)
}

// Cache stores entry's bytes on disk and its metadata durably, evicting
// nothing on its own — callers drive eviction explicitly via EvictTo.
func (s *Store) Cache(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.contentPath(entry.Hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.Internal, "create cache shard dir", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errs.Wrap(errs.Internal, "create temp cache file", err)
	}
	if _, err := tmp.Write(entry.Content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errs.Wrap(errs.Internal, "write cache content", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errs.Wrap(errs.Internal, "sync cache content", err)
	}
	tmp.Close()
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errs.Wrap(errs.Internal, "rename cache content", err)
	}

	m := meta{
		SourcePeer: entry.SourcePeer,
		QueriedAt:  entry.QueriedAt,
		SizeBytes:  uint64(len(entry.Content)),
		Receipt:    entry.Receipt,
	}
	if err := s.putMetaLocked(entry.Hash, m); err != nil {
		return err
	}
	logctx.For("cache_store").WithField("hash", entry.Hash.String()).Debug("cached content")
	return nil
}

// Get loads a cached entry. Stale metadata (file missing) is purged.
func (s *Store) Get(h primitives.Hash) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok, err := s.getMetaLocked(h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	path := s.contentPath(h)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			_ = s.deleteMetaLocked(h)
			return nil, nil
		}
		return nil, errs.Wrap(errs.Internal, "read cache content", err)
	}

	return &Entry{
		Hash:       h,
		Content:    content,
		SourcePeer: m.SourcePeer,
		QueriedAt:  m.QueriedAt,
		Receipt:    m.Receipt,
	}, nil
}

// IsCached reports whether h has both content bytes and metadata present.
func (s *Store) IsCached(h primitives.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.contentPath(h)); err != nil {
		return false
	}
	_, ok, err := s.getMetaLocked(h)
	return err == nil && ok
}

// Touch updates an entry's queried_at timestamp, refreshing its LRU
// recency without re-writing the content bytes.
func (s *Store) Touch(h primitives.Hash, at primitives.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok, err := s.getMetaLocked(h)
	if err != nil {
		return err
	}
	if !ok {
		return errs.New(errs.NotFound, "cache entry not found")
	}
	m.QueriedAt = at
	return s.putMetaLocked(h, m)
}

// EvictTo removes least-recently-queried entries until the total cached
// size is at or below maxBytes, and reports bytes freed (§4.F).
func (s *Store) EvictTo(maxBytes uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type row struct {
		hash primitives.Hash
		m    meta
	}
	var rows []row
	var total uint64
	err := s.db.ForEach(bucketCacheMeta, nil, func(k, v []byte) bool {
		h, err := primitives.HashFromBytes(k)
		if err != nil {
			return true
		}
		mm, err := decodeMeta(v)
		if err != nil {
			return true
		}
		rows = append(rows, row{hash: h, m: mm})
		total += mm.SizeBytes
		return true
	})
	if err != nil {
		return 0, errs.Wrap(errs.Internal, "scan cache metadata", err)
	}
	if total <= maxBytes {
		return 0, nil
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].m.QueriedAt < rows[j].m.QueriedAt })

	var freed uint64
	remaining := total
	for _, r := range rows {
		if remaining <= maxBytes {
			break
		}
		if err := os.Remove(s.contentPath(r.hash)); err != nil && !os.IsNotExist(err) {
			return freed, errs.Wrap(errs.Internal, "remove evicted content", err)
		}
		if err := s.deleteMetaLocked(r.hash); err != nil {
			return freed, err
		}
		freed += r.m.SizeBytes
		remaining -= r.m.SizeBytes
	}
	return freed, nil
}

// Clear removes every cached entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errs.Wrap(errs.Internal, "read cache dir", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
				return errs.Wrap(errs.Internal, "clear cache shard", err)
			}
		}
	}
	var keys [][]byte
	_ = s.db.ForEach(bucketCacheMeta, nil, func(k, _ []byte) bool {
		keys = append(keys, append([]byte{}, k...))
		return true
	})
	for _, k := range keys {
		if err := s.db.Delete(bucketCacheMeta, k); err != nil {
			return errs.Wrap(errs.Internal, "clear cache metadata", err)
		}
	}
	s.hotIndex.Purge()
	return nil
}

func (s *Store) getMetaLocked(h primitives.Hash) (meta, bool, error) {
	if m, ok := s.hotIndex.Get(h); ok {
		return m, true, nil
	}
	raw, err := s.db.Get(bucketCacheMeta, h[:])
	if err != nil {
		return meta{}, false, errs.Wrap(errs.Internal, "read cache metadata", err)
	}
	if raw == nil {
		return meta{}, false, nil
	}
	m, err := decodeMeta(raw)
	if err != nil {
		return meta{}, false, err
	}
	s.hotIndex.Add(h, m)
	return m, true, nil
}

func (s *Store) putMetaLocked(h primitives.Hash, m meta) error {
	raw, err := encodeMeta(m)
	if err != nil {
		return err
	}
	if err := s.db.Put(bucketCacheMeta, h[:], raw); err != nil {
		return errs.Wrap(errs.Internal, "write cache metadata", err)
	}
	s.hotIndex.Add(h, m)
	return nil
}

func (s *Store) deleteMetaLocked(h primitives.Hash) error {
	if err := s.db.Delete(bucketCacheMeta, h[:]); err != nil {
		return errs.Wrap(errs.Internal, "delete cache metadata", err)
	}
	s.hotIndex.Remove(h)
	return nil
}

func encodeMeta(m meta) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "marshal cache metadata", err)
	}
	return raw, nil
}

func decodeMeta(raw []byte) (meta, error) {
	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return meta{}, errs.Wrap(errs.Internal, "unmarshal cache metadata", err)
	}
	return m, nil
}
