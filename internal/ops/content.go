package ops

import (
	"context"

	"github.com/nodalync/engine/internal/econ"
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/validate"
	"github.com/nodalync/engine/internal/wire"
)

func announcementFor(m manifest.Manifest) wire.AnnouncePayload {
	return wire.AnnouncePayload{
		Hash:        m.Hash,
		ContentType: m.ContentType,
		Owner:       m.Owner,
		Visibility:  m.Visibility,
		Title:       m.Metadata.Title,
		Price:       m.Economics.Price,
	}
}

// CreateContent computes data's content hash, stores the bytes, and
// publishes a private v1 L0 manifest rooted at itself (§4.K Content
// creation).
func (e *Engine) CreateContent(data []byte, meta manifest.Metadata, at primitives.Timestamp) (manifest.Manifest, error) {
	h, err := e.Content.Store(data)
	if err != nil {
		return manifest.Manifest{}, err
	}
	meta.SizeBytes = uint64(len(data))

	m := manifest.Manifest{
		Hash:        h,
		ContentType: manifest.L0,
		Owner:       e.PeerID,
		Version:     manifest.Version{Number: 1, Root: h, Timestamp: at},
		Visibility:  manifest.Private,
		Metadata:    meta,
		Economics:   manifest.Economics{Price: e.Config.DefaultPrice},
		Provenance: manifest.Provenance{
			RootL0L1: []manifest.RootEntry{{Hash: h, Owner: e.PeerID, VisibilityAtDerivation: manifest.Private, Weight: 1}},
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := validate.Version(&m, nil); err != nil {
		return manifest.Manifest{}, errs.Wrap(errs.Internal, "create content: built an invalid version", err)
	}
	if err := validate.Provenance(&m); err != nil {
		return manifest.Manifest{}, errs.Wrap(errs.Internal, "create content: built invalid provenance", err)
	}
	if err := e.Manifests.Put(m); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

// UpdateContent stores new bytes as a new version of an existing content
// item, linking it into the version chain (§4.K Update, §3 Version).
func (e *Engine) UpdateContent(previousHash primitives.Hash, caller primitives.PeerId, data []byte, meta manifest.Metadata, at primitives.Timestamp) (manifest.Manifest, error) {
	prev, err := e.Manifests.Get(previousHash)
	if err != nil {
		return manifest.Manifest{}, err
	}
	if caller != prev.Owner {
		return manifest.Manifest{}, errNotOwner
	}

	h, err := e.Content.Store(data)
	if err != nil {
		return manifest.Manifest{}, err
	}
	meta.SizeBytes = uint64(len(data))

	m := manifest.Manifest{
		Hash:        h,
		ContentType: prev.ContentType,
		Owner:       prev.Owner,
		Version: manifest.Version{
			Number:    prev.Version.Number + 1,
			Previous:  &previousHash,
			Root:      prev.Version.Root,
			Timestamp: at,
		},
		Visibility: prev.Visibility,
		Access:     prev.Access,
		Metadata:   meta,
		Economics:  manifest.Economics{Price: prev.Economics.Price, Currency: prev.Economics.Currency},
		Provenance: manifest.Provenance{
			RootL0L1: []manifest.RootEntry{{Hash: h, Owner: prev.Owner, VisibilityAtDerivation: prev.Visibility, Weight: 1}},
		},
		CreatedAt: prev.CreatedAt,
		UpdatedAt: at,
	}
	if err := validate.Version(&m, prev); err != nil {
		return manifest.Manifest{}, err
	}
	if err := validate.Provenance(&m); err != nil {
		return manifest.Manifest{}, errs.Wrap(errs.Internal, "update content: built invalid provenance", err)
	}
	if err := e.Manifests.Put(m); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

// sourceAvailable reports whether hash's bytes are legitimately available
// to this node: either it created/holds the content directly, or it holds
// a completed cache entry from a prior paid query. The engine refuses any
// other source (§4.K Derive).
func (e *Engine) sourceAvailable(hash primitives.Hash) bool {
	return e.Content.Exists(hash) || e.Cache.IsCached(hash)
}

// Derive builds a new L3 synthesis from an ordered list of sources,
// merging their root provenance (accumulating weight on shared roots via
// the provenance graph) and setting depth to one past the deepest source
// (§4.K Derive, §3 Provenance).
func (e *Engine) Derive(sources []primitives.Hash, data []byte, meta manifest.Metadata, owner primitives.PeerId, at primitives.Timestamp) (manifest.Manifest, error) {
	if len(sources) == 0 {
		return manifest.Manifest{}, errs.New(errs.InvalidProvenance, "derive requires at least one source")
	}

	sourceManifests := make([]*manifest.Manifest, len(sources))
	var maxSourceDepth uint64
	for i, src := range sources {
		if !e.sourceAvailable(src) {
			return manifest.Manifest{}, errSourceNotAvailable
		}
		sm, err := e.Manifests.Get(src)
		if err != nil {
			return manifest.Manifest{}, errs.Wrap(errs.NotFound, "derive: no provenance context for source", err)
		}
		sourceManifests[i] = sm
		if sm.Provenance.Depth > maxSourceDepth {
			maxSourceDepth = sm.Provenance.Depth
		}
	}

	h, err := e.Content.Store(data)
	if err != nil {
		return manifest.Manifest{}, err
	}
	meta.SizeBytes = uint64(len(data))

	if err := e.Provenance.Add(h, sources); err != nil {
		return manifest.Manifest{}, err
	}
	roots, err := e.Provenance.GetRoots(h, e.Manifests)
	if err != nil {
		return manifest.Manifest{}, err
	}

	m := manifest.Manifest{
		Hash:        h,
		ContentType: manifest.L3,
		Owner:       owner,
		Version:     manifest.Version{Number: 1, Root: h, Timestamp: at},
		Visibility:  manifest.Private,
		Metadata:    meta,
		Economics:   manifest.Economics{Price: e.Config.DefaultPrice},
		Provenance: manifest.Provenance{
			RootL0L1:    roots,
			DerivedFrom: sources,
			Depth:       1 + maxSourceDepth,
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := validate.Version(&m, nil); err != nil {
		return manifest.Manifest{}, errs.Wrap(errs.Internal, "derive: built an invalid version", err)
	}
	if err := validate.Provenance(&m); err != nil {
		return manifest.Manifest{}, err
	}
	if err := e.Manifests.Put(m); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

// ReferenceL3AsL0 promotes a previously queried L3 (known to this node
// only through prior, which is the L3 manifest it learned from its own
// query) into a local L0 reference rooted solely at itself, so it can
// found further derivations without carrying forward its source weights
// (§4.K Reference L3 as L0). It is meant for a node that queried someone
// else's L3 and wants to build on it locally; an owner wanting to expose
// their own L3 as a foundation should Publish it directly instead — Put
// rejects this call if the node already holds a manifest for that hash.
func (e *Engine) ReferenceL3AsL0(prior manifest.Manifest, at primitives.Timestamp) (manifest.Manifest, error) {
	if prior.ContentType != manifest.L3 {
		return manifest.Manifest{}, errNotAnL3
	}
	if !e.sourceAvailable(prior.Hash) {
		return manifest.Manifest{}, errSourceNotAvailable
	}

	m := manifest.Manifest{
		Hash:        prior.Hash,
		ContentType: manifest.L0,
		Owner:       e.PeerID,
		Version:     manifest.Version{Number: 1, Root: prior.Hash, Timestamp: at},
		Visibility:  manifest.Private,
		Metadata:    prior.Metadata,
		Provenance: manifest.Provenance{
			RootL0L1: []manifest.RootEntry{{Hash: prior.Hash, Owner: e.PeerID, VisibilityAtDerivation: manifest.Private, Weight: 1}},
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := validate.Version(&m, nil); err != nil {
		return manifest.Manifest{}, errs.Wrap(errs.Internal, "reference-as-L0: built an invalid version", err)
	}
	if err := validate.Provenance(&m); err != nil {
		return manifest.Manifest{}, errs.Wrap(errs.Internal, "reference-as-L0: built invalid provenance", err)
	}
	if err := e.Manifests.Put(m); err != nil {
		return manifest.Manifest{}, err
	}
	return m, nil
}

// Publish updates a manifest's visibility and price, announcing it on the
// DHT substrate when it becomes Shared (§4.K Publish).
func (e *Engine) Publish(ctx context.Context, hash primitives.Hash, caller primitives.PeerId, visibility manifest.Visibility, price primitives.Amount, at primitives.Timestamp) (manifest.Manifest, error) {
	m, err := e.Manifests.Get(hash)
	if err != nil {
		return manifest.Manifest{}, err
	}
	if caller != m.Owner {
		return manifest.Manifest{}, errNotOwner
	}
	if m.ContentType == manifest.L2 {
		return manifest.Manifest{}, errs.New(errs.L2NotPublishable, "L2 entity graphs are never publishable")
	}
	if price < econ.MinPrice || price > econ.MaxPrice {
		return manifest.Manifest{}, errs.New(errs.InvalidManifest, "price out of bounds")
	}

	m.Visibility = visibility
	m.Economics.Price = price
	m.UpdatedAt = at
	if err := e.Manifests.Put(*m); err != nil {
		return manifest.Manifest{}, err
	}

	if visibility == manifest.Shared && e.Announcer != nil {
		announcement := announcementFor(*m)
		if err := e.Announcer.Announce(ctx, announcement); err != nil {
			return manifest.Manifest{}, err
		}
	}
	return *m, nil
}

// Preview returns a manifest's public fields and L1 summary, if any,
// without ever revealing content bytes (§4.K Preview).
func (e *Engine) Preview(hash primitives.Hash) (manifest.Manifest, *manifest.L1Summary, error) {
	m, err := e.Manifests.Get(hash)
	if err != nil {
		return manifest.Manifest{}, nil, err
	}
	if e.Extractor == nil || m.ContentType != manifest.L0 {
		return *m, nil, nil
	}
	data, err := e.Content.Load(hash)
	if err != nil {
		return *m, nil, nil // content not locally held; preview still returns manifest fields
	}
	summary, _, err := e.Extractor.Extract(hash, data, m.UpdatedAt)
	if err != nil {
		return *m, nil, nil
	}
	return *m, &summary, nil
}

// GetVersions returns a content item's version chain, oldest first,
// walking version.previous links back to v1.
func (e *Engine) GetVersions(hash primitives.Hash) ([]manifest.Version, error) {
	m, err := e.Manifests.Get(hash)
	if err != nil {
		return nil, err
	}
	chain := []manifest.Version{m.Version}
	cur := m
	for cur.Version.Previous != nil {
		prev, err := e.Manifests.Get(*cur.Version.Previous)
		if err != nil {
			return nil, err
		}
		chain = append(chain, prev.Version)
		cur = prev
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
