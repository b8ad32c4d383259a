package manifest

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/storekit"
)

const bucketManifests = "manifests"

// Store is the persistent, indexed manifest store (§4.C). Manifests are
// durable via bbolt; owner/type/visibility/version-root indexes and the
// free-text search index are secondary structures rebuilt in memory on
// Open and kept current on every write.
type Store struct {
	mu sync.RWMutex
	db *storekit.DB

	byOwner      map[primitives.PeerId]map[primitives.Hash]struct{}
	byType       map[ContentType]map[primitives.Hash]struct{}
	byVisibility map[Visibility]map[primitives.Hash]struct{}
	byRoot       map[primitives.Hash]map[primitives.Hash]struct{}
	textIndex    map[primitives.Hash]string // lowercased title+description+tags
}

// Open opens the manifest store backed by a bbolt file under dir.
func Open(dir string) (*Store, error) {
	db, err := storekit.Open(filepath.Join(dir, "manifests.db"))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open manifest store", err)
	}
	s := &Store{
		db:           db,
		byOwner:      make(map[primitives.PeerId]map[primitives.Hash]struct{}),
		byType:       make(map[ContentType]map[primitives.Hash]struct{}),
		byVisibility: make(map[Visibility]map[primitives.Hash]struct{}),
		byRoot:       make(map[primitives.Hash]map[primitives.Hash]struct{}),
		textIndex:    make(map[primitives.Hash]string),
	}
	if err := s.rebuildIndexes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) rebuildIndexes() error {
	return s.db.ForEach(bucketManifests, nil, func(_ []byte, v []byte) bool {
		var m Manifest
		if json.Unmarshal(v, &m) == nil {
			s.indexLocked(&m)
		}
		return true
	})
}

func (s *Store) indexLocked(m *Manifest) {
	addTo(s.byOwner, m.Owner, m.Hash)
	addTo(s.byType, m.ContentType, m.Hash)
	addTo(s.byVisibility, m.Visibility, m.Hash)
	addTo(s.byRoot, m.Version.Root, m.Hash)

	var sb strings.Builder
	sb.WriteString(strings.ToLower(m.Metadata.Title))
	sb.WriteByte(' ')
	if m.Metadata.Description != nil {
		sb.WriteString(strings.ToLower(*m.Metadata.Description))
		sb.WriteByte(' ')
	}
	for _, t := range m.Metadata.Tags {
		sb.WriteString(strings.ToLower(t))
		sb.WriteByte(' ')
	}
	s.textIndex[m.Hash] = sb.String()
}

func addTo[K comparable](idx map[K]map[primitives.Hash]struct{}, key K, h primitives.Hash) {
	set, ok := idx[key]
	if !ok {
		set = make(map[primitives.Hash]struct{})
		idx[key] = set
	}
	set[h] = struct{}{}
}

// Put upserts a single manifest. Republishing the same hash with a
// different payload is rejected; the store never silently overwrites
// (§4.C) — but re-upserting the same content identity with changed
// economics, visibility, access, or UpdatedAt (see sameIdentity) is allowed.
func (s *Store) Put(m Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.Hash[:]
	existing, err := s.db.Get(bucketManifests, key)
	if err != nil {
		return errs.Wrap(errs.Internal, "read existing manifest", err)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal manifest", err)
	}
	if existing != nil {
		var prev Manifest
		if err := json.Unmarshal(existing, &prev); err == nil && !sameIdentity(prev, m) {
			return errs.New(errs.InvalidManifest, "republish of existing hash with different payload")
		}
	}
	if err := s.db.Put(bucketManifests, key, raw); err != nil {
		return errs.Wrap(errs.Internal, "write manifest", err)
	}
	if existing != nil {
		var prev Manifest
		if json.Unmarshal(existing, &prev) == nil {
			delete(s.byVisibility[prev.Visibility], m.Hash)
		}
	}
	s.indexLocked(&m)
	return nil
}

// sameIdentity reports whether two manifest revisions for the same hash
// describe the same content identity. Economics counters, UpdatedAt,
// Visibility, and Access are expected to change between upserts — Publish
// legitimately rewrites visibility/price/access, and queries legitimately
// bump economics counters. Everything else — owner, content type, version,
// provenance, metadata — must not change, otherwise the write is a
// silent-overwrite attempt the store must reject.
func sameIdentity(a, b Manifest) bool {
	a.Economics = Economics{}
	b.Economics = Economics{}
	a.UpdatedAt = 0
	b.UpdatedAt = 0
	a.Visibility = 0
	b.Visibility = 0
	a.Access = AccessControl{}
	b.Access = AccessControl{}
	ra, _ := json.Marshal(a)
	rb, _ := json.Marshal(b)
	return string(ra) == string(rb)
}

// Get loads a manifest by hash.
func (s *Store) Get(h primitives.Hash) (*Manifest, error) {
	raw, err := s.db.Get(bucketManifests, h[:])
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "read manifest", err)
	}
	if raw == nil {
		return nil, errs.New(errs.NotFound, "manifest not found")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.Wrap(errs.Internal, "unmarshal manifest", err)
	}
	return &m, nil
}

// Exists reports whether a manifest for h is stored.
func (s *Store) Exists(h primitives.Hash) bool {
	ok, _ := s.db.Has(bucketManifests, h[:])
	return ok
}

// Filter describes a combination of index lookups with pagination (§4.C).
type Filter struct {
	Owner        *primitives.PeerId
	ContentType  *ContentType
	Visibility   *Visibility
	VersionRoot  *primitives.Hash
	TextQuery    string
	Offset       int
	Limit        int
}

// List returns manifests matching every set field of f, paginated.
func (s *Store) List(f Filter) ([]Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.intersectLocked(f)

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })

	if f.Offset > len(candidates) {
		return nil, nil
	}
	end := len(candidates)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	candidates = candidates[f.Offset:end]

	out := make([]Manifest, 0, len(candidates))
	for _, h := range candidates {
		raw, err := s.db.Get(bucketManifests, h[:])
		if err != nil || raw == nil {
			continue
		}
		var m Manifest
		if json.Unmarshal(raw, &m) == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) intersectLocked(f Filter) []primitives.Hash {
	var sets []map[primitives.Hash]struct{}
	if f.Owner != nil {
		sets = append(sets, s.byOwner[*f.Owner])
	}
	if f.ContentType != nil {
		sets = append(sets, s.byType[*f.ContentType])
	}
	if f.Visibility != nil {
		sets = append(sets, s.byVisibility[*f.Visibility])
	}
	if f.VersionRoot != nil {
		sets = append(sets, s.byRoot[*f.VersionRoot])
	}

	var base map[primitives.Hash]struct{}
	if len(sets) == 0 {
		base = make(map[primitives.Hash]struct{})
		for h := range s.textIndex {
			base[h] = struct{}{}
		}
	} else {
		base = sets[0]
		for _, set := range sets[1:] {
			base = intersect(base, set)
		}
	}

	query := strings.ToLower(strings.TrimSpace(f.TextQuery))
	out := make([]primitives.Hash, 0, len(base))
	for h := range base {
		if query != "" && !strings.Contains(s.textIndex[h], query) {
			continue
		}
		out = append(out, h)
	}
	return out
}

func intersect(a, b map[primitives.Hash]struct{}) map[primitives.Hash]struct{} {
	out := make(map[primitives.Hash]struct{})
	for h := range a {
		if _, ok := b[h]; ok {
			out[h] = struct{}{}
		}
	}
	return out
}
