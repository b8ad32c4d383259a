// Package content implements the content-addressed byte store (spec §4.B).
package content

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/logctx"
	"github.com/nodalync/engine/internal/primitives"
)

// Store maps content hash -> raw bytes on disk, sharded two hex characters
// deep the way the teacher's ContentNode shards pinned payloads.
type Store struct {
	root string
}

// New opens (and creates, if absent) a content store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.Internal, "create content store dir", err)
	}
	return &Store{root: dir}, nil
}

func (s *Store) pathFor(h primitives.Hash) string {
	hexHash := hex.EncodeToString(h[:])
	return filepath.Join(s.root, hexHash[:2], hexHash)
}

// Store writes data, returning its content hash. Idempotent: storing the
// same bytes twice is a no-op the second time.
func (s *Store) Store(data []byte) (primitives.Hash, error) {
	h := primitives.ContentHash(data)
	if err := s.writeAtomic(h, data); err != nil {
		return h, err
	}
	return h, nil
}

// StoreVerified requires the caller-supplied hash to match the computed
// hash; otherwise it fails with InvalidHash (§4.B).
func (s *Store) StoreVerified(claimed primitives.Hash, data []byte) error {
	computed := primitives.ContentHash(data)
	if computed != claimed {
		return errs.New(errs.InvalidHash, "store-verified: hash mismatch")
	}
	return s.writeAtomic(claimed, data)
}

func (s *Store) writeAtomic(h primitives.Hash, data []byte) error {
	path := s.pathFor(h)
	if _, err := os.Stat(path); err == nil {
		return nil // idempotent: bytes are immutable once stored
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.Internal, "mkdir content shard", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errs.Wrap(errs.Internal, "create temp content file", err)
	}
	tmpName := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpName)
		return errs.Wrap(errs.Internal, "write content bytes", err)
	}
	// Writes must fsync the byte payload before reporting success (§4.B).
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpName)
		return errs.Wrap(errs.Internal, "fsync content bytes", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(errs.Internal, "close content file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(errs.Internal, "rename content file into place", err)
	}
	logctx.For("content_store").WithField("hash", h.String()).Debug("stored content")
	return nil
}

// Load reads bytes for a content hash.
func (s *Store) Load(h primitives.Hash) ([]byte, error) {
	data, err := os.ReadFile(s.pathFor(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.NotFound, fmt.Sprintf("content %s not found", h))
		}
		return nil, errs.Wrap(errs.Internal, "read content bytes", err)
	}
	return data, nil
}

// Exists reports whether content for h is stored locally.
func (s *Store) Exists(h primitives.Hash) bool {
	_, err := os.Stat(s.pathFor(h))
	return err == nil
}

// Delete removes stored bytes for h. Content is otherwise immutable; this
// exists only for explicit operator-driven pruning, not protocol mutation.
func (s *Store) Delete(h primitives.Hash) error {
	if err := os.Remove(s.pathFor(h)); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.Internal, "delete content bytes", err)
	}
	return nil
}
