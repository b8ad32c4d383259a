// Package settlement implements the append-only pending-payment queue that
// feeds settlement batch construction (§4.G). The original Rust store's
// SqliteSettlementQueue definition was not present in the retrieved
// reference material; this is grounded on spec §4.G directly and on the
// bbolt idiom shared by every other store in this repository
// (internal/channel, internal/manifest, internal/provenance).
package settlement

import (
	"encoding/binary"
	"encoding/json"
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/nodalync/engine/internal/channel"
	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/storekit"
)

const (
	bucketPending = "settlement_pending"
	bucketMeta    = "settlement_meta"

	keyLastSettlementTime = "last_settlement_time"
	keySequence           = "sequence"
)

// Store is the durable, append-only settlement queue.
type Store struct {
	mu sync.Mutex
	db *storekit.DB
}

// Open opens the settlement queue backed by a bbolt file under dir.
func Open(dir string) (*Store, error) {
	db, err := storekit.Open(filepath.Join(dir, "settlement.db"))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open settlement queue", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Enqueue appends one or more payments to the pending queue.
func (s *Store) Enqueue(payments ...channel.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		pending, err := tx.CreateBucketIfNotExists([]byte(bucketPending))
		if err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(bucketMeta))
		if err != nil {
			return err
		}
		seq := decodeUint64(meta.Get([]byte(keySequence)))
		for _, p := range payments {
			raw, err := json.Marshal(p)
			if err != nil {
				return err
			}
			seq++
			if err := pending.Put(encodeUint64(seq), raw); err != nil {
				return err
			}
		}
		return meta.Put([]byte(keySequence), encodeUint64(seq))
	})
}

// PeekPendingTotal sums the amount of every queued, undrained payment.
func (s *Store) PeekPendingTotal() (primitives.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total primitives.Amount
	err := s.db.ForEach(bucketPending, nil, func(_, v []byte) bool {
		var p channel.Payment
		if json.Unmarshal(v, &p) == nil {
			total += p.Amount
		}
		return true
	})
	if err != nil {
		return 0, errs.Wrap(errs.Internal, "peek pending total", err)
	}
	return total, nil
}

// Drain atomically removes and returns every pending payment, in enqueue
// order, so a batch builder never observes a partial queue.
func (s *Store) Drain() ([]channel.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []channel.Payment
	err := s.db.Update(func(tx *bbolt.Tx) error {
		pending := tx.Bucket([]byte(bucketPending))
		if pending == nil {
			return nil
		}
		c := pending.Cursor()
		var keys [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var p channel.Payment
			if json.Unmarshal(v, &p) == nil {
				out = append(out, p)
			}
			keys = append(keys, append([]byte{}, k...))
		}
		for _, k := range keys {
			if err := pending.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "drain settlement queue", err)
	}
	return out, nil
}

// LastSettlementTime returns the timestamp of the last completed batch, or
// zero if none has ever run.
func (s *Store) LastSettlementTime() (primitives.Timestamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.db.Get(bucketMeta, []byte(keyLastSettlementTime))
	if err != nil {
		return 0, errs.Wrap(errs.Internal, "read last settlement time", err)
	}
	return primitives.Timestamp(decodeUint64(raw)), nil
}

// SetLastSettlementTime records when a settlement batch completed.
func (s *Store) SetLastSettlementTime(ts primitives.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Put(bucketMeta, []byte(keyLastSettlementTime), encodeUint64(uint64(ts))); err != nil {
		return errs.Wrap(errs.Internal, "write last settlement time", err)
	}
	return nil
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
