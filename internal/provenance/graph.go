// Package provenance implements the derivation DAG: forward edges plus a
// cached, flattened root-weight traversal (spec §4.D).
package provenance

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/storekit"
)

const (
	bucketEdges     = "derived_from"
	bucketRootCache = "root_cache"
)

// Graph stores forward derivation edges (content hash -> direct source
// hashes) and a cache of flattened root entries with accumulated weights.
type Graph struct {
	mu sync.RWMutex
	db *storekit.DB
}

// Open opens the provenance graph backed by a bbolt file under dir.
func Open(dir string) (*Graph, error) {
	db, err := storekit.Open(filepath.Join(dir, "provenance.db"))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open provenance graph", err)
	}
	return &Graph{db: db}, nil
}

func (g *Graph) Close() error { return g.db.Close() }

// Add records hash's direct sources. It enforces the no-self-loop /
// not-an-ancestor-of-itself invariant (§4.D) before writing any edge.
func (g *Graph) Add(hash primitives.Hash, derivedFrom []primitives.Hash) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, src := range derivedFrom {
		if src == hash {
			return errs.New(errs.InvalidProvenance, "self-loop: content cannot derive from itself")
		}
		isAncestor, err := g.isAncestorLocked(src, hash)
		if err != nil {
			return err
		}
		if isAncestor {
			return errs.New(errs.InvalidProvenance, "cycle: source is already a descendant")
		}
	}

	existing, err := g.directSourcesLocked(hash)
	if err != nil {
		return err
	}
	seen := make(map[primitives.Hash]struct{}, len(existing))
	for _, h := range existing {
		seen[h] = struct{}{}
	}
	merged := existing
	for _, src := range derivedFrom {
		if _, ok := seen[src]; !ok {
			merged = append(merged, src)
			seen[src] = struct{}{}
		}
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal edges", err)
	}
	if err := g.db.Put(bucketEdges, hash[:], raw); err != nil {
		return errs.Wrap(errs.Internal, "write edges", err)
	}
	// Any cached roots for this (and downstream) hash are now stale; the
	// simplest correct invalidation is to drop this node's cache entry and
	// let GetRoots recompute and re-persist it on next read.
	_ = g.db.Delete(bucketRootCache, hash[:])
	return nil
}

// ListDirectSources returns hash's immediate derivation sources.
func (g *Graph) ListDirectSources(hash primitives.Hash) ([]primitives.Hash, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.directSourcesLocked(hash)
}

func (g *Graph) directSourcesLocked(hash primitives.Hash) ([]primitives.Hash, error) {
	raw, err := g.db.Get(bucketEdges, hash[:])
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "read edges", err)
	}
	if raw == nil {
		return nil, nil
	}
	var out []primitives.Hash
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errs.Wrap(errs.Internal, "unmarshal edges", err)
	}
	return out, nil
}

// ListDirectDerivations returns every hash that lists h as a direct source.
// This is a full scan of the edge bucket; the graph is not expected to grow
// large enough locally for this to matter, and it is only used for
// diagnostics/UI, never on the query hot path.
func (g *Graph) ListDirectDerivations(h primitives.Hash) ([]primitives.Hash, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []primitives.Hash
	err := g.db.ForEach(bucketEdges, nil, func(k, v []byte) bool {
		child, err := primitives.HashFromBytes(k)
		if err != nil {
			return true
		}
		var sources []primitives.Hash
		if json.Unmarshal(v, &sources) != nil {
			return true
		}
		for _, s := range sources {
			if s == h {
				out = append(out, child)
				break
			}
		}
		return true
	})
	return out, err
}

// IsAncestor reports whether `candidate` is a (transitive) source of `of`,
// via BFS over source edges (§4.D).
func (g *Graph) IsAncestor(candidate, of primitives.Hash) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isAncestorLocked(candidate, of)
}

func (g *Graph) isAncestorLocked(candidate, of primitives.Hash) (bool, error) {
	visited := map[primitives.Hash]struct{}{of: {}}
	queue := []primitives.Hash{of}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sources, err := g.directSourcesLocked(cur)
		if err != nil {
			return false, err
		}
		for _, s := range sources {
			if s == candidate {
				return true, nil
			}
			if _, ok := visited[s]; !ok {
				visited[s] = struct{}{}
				queue = append(queue, s)
			}
		}
	}
	return false, nil
}

// GetRoots returns the accumulated, weighted root entries for hash: a BFS
// over source edges down to nodes with no further sources (L0/L1 leaves),
// with weights summed across every path that reaches the same root. Falls
// back to traversal when the cache is cold and persists the result (§4.D).
func (g *Graph) GetRoots(hash primitives.Hash, manifests *manifest.Store) ([]manifest.RootEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok, err := g.cachedRootsLocked(hash); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	weights := make(map[primitives.Hash]uint64)
	type queued struct {
		hash primitives.Hash
		mult uint64
	}
	queue := []queued{{hash: hash, mult: 1}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		sources, err := g.directSourcesLocked(cur.hash)
		if err != nil {
			return nil, err
		}
		if len(sources) == 0 {
			// Leaf: this node is itself a root.
			weights[cur.hash] += cur.mult
			continue
		}
		for _, src := range sources {
			queue = append(queue, queued{hash: src, mult: cur.mult})
		}
	}

	entries := make([]manifest.RootEntry, 0, len(weights))
	for h, w := range weights {
		m, err := manifests.Get(h)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, "resolve root manifest", err)
		}
		entries = append(entries, manifest.RootEntry{
			Hash:                   h,
			Owner:                  m.Owner,
			VisibilityAtDerivation: m.Visibility,
			Weight:                 w,
		})
	}

	if err := g.persistRootsLocked(hash, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (g *Graph) cachedRootsLocked(hash primitives.Hash) ([]manifest.RootEntry, bool, error) {
	raw, err := g.db.Get(bucketRootCache, hash[:])
	if err != nil {
		return nil, false, errs.Wrap(errs.Internal, "read root cache", err)
	}
	if raw == nil {
		return nil, false, nil
	}
	var entries []manifest.RootEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, errs.Wrap(errs.Internal, "unmarshal root cache", err)
	}
	return entries, true, nil
}

func (g *Graph) persistRootsLocked(hash primitives.Hash, entries []manifest.RootEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal root cache", err)
	}
	if err := g.db.Put(bucketRootCache, hash[:], raw); err != nil {
		return errs.Wrap(errs.Internal, "write root cache", err)
	}
	return nil
}
