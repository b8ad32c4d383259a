// Package storekit provides a small shared wrapper around bbolt, the
// embedded single-file database backing the protocol's persistent stores
// (spec §6 "a relational database file for manifests, provenance
// edges+root cache, channels+pending payments, peer directory, cache
// index, and settlement queue"). See DESIGN.md for why bbolt fills that
// role here instead of a SQL engine.
package storekit

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// DB wraps a bbolt handle opened against one data-directory file.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (creating if absent) a bbolt database at path.
func Open(path string) (*DB, error) {
	b, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("storekit: open %s: %w", path, err)
	}
	return &DB{bolt: b}, nil
}

// Close closes the underlying database file.
func (d *DB) Close() error { return d.bolt.Close() }

// EnsureBucket creates the named bucket if it doesn't already exist.
func (d *DB) EnsureBucket(bucket string) error {
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
}

// Put writes key -> value in bucket.
func (d *DB) Put(bucket string, key, value []byte) error {
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
}

// Get reads a value by key. Returns (nil, nil) if absent.
func (d *DB) Get(bucket string, key []byte) ([]byte, error) {
	var out []byte
	err := d.bolt.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v != nil {
			out = append([]byte{}, v...)
		}
		return nil
	})
	return out, err
}

// Delete removes a key from bucket.
func (d *DB) Delete(bucket string, key []byte) error {
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete(key)
	})
}

// Has reports whether key exists in bucket.
func (d *DB) Has(bucket string, key []byte) (bool, error) {
	v, err := d.Get(bucket, key)
	return v != nil, err
}

// ForEach iterates every key/value pair in bucket with the given prefix, in
// key order. Stops early if fn returns false.
func (d *DB) ForEach(bucket string, prefix []byte, fn func(k, v []byte) bool) error {
	return d.bolt.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		var k, v []byte
		if len(prefix) == 0 {
			k, v = c.First()
		} else {
			k, v = c.Seek(prefix)
		}
		for ; k != nil; k, v = c.Next() {
			if len(prefix) > 0 && !hasPrefix(k, prefix) {
				break
			}
			if !fn(k, v) {
				break
			}
		}
		return nil
	})
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Update runs fn inside a single read-write bbolt transaction across
// multiple buckets, for callers needing atomicity spanning more than one
// Put/Delete (e.g. settlement queue drain).
func (d *DB) Update(fn func(tx *bbolt.Tx) error) error {
	return d.bolt.Update(fn)
}

// View runs fn inside a single read-only bbolt transaction.
func (d *DB) View(fn func(tx *bbolt.Tx) error) error {
	return d.bolt.View(fn)
}
