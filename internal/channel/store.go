package channel

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/nodalync/engine/internal/errs"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/internal/storekit"
)

const bucketChannels = "channels"

// Store is the per-peer channel store (§4.E). There is at most one channel
// per counterparty, keyed by peer id.
type Store struct {
	mu sync.RWMutex
	db *storekit.DB
}

// Open opens the channel store backed by a bbolt file under dir.
func Open(dir string) (*Store, error) {
	db, err := storekit.Open(filepath.Join(dir, "channels.db"))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "open channel store", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Create stores a brand-new channel for peer. Fails if one already exists.
func (s *Store) Create(peer primitives.PeerId, c Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.db.Has(bucketChannels, peer[:])
	if err != nil {
		return errs.Wrap(errs.Internal, "check existing channel", err)
	}
	if existing {
		return errs.New(errs.ChannelAlreadyExists, "channel already exists with peer")
	}
	return s.putLocked(peer, c)
}

// Get loads the channel with peer, if any.
func (s *Store) Get(peer primitives.PeerId) (*Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(peer)
}

func (s *Store) getLocked(peer primitives.PeerId) (*Channel, error) {
	raw, err := s.db.Get(bucketChannels, peer[:])
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "read channel", err)
	}
	if raw == nil {
		return nil, nil
	}
	var c Channel
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errs.Wrap(errs.Internal, "unmarshal channel", err)
	}
	return &c, nil
}

// Update overwrites the stored channel state for peer. The channel must
// already exist.
func (s *Store) Update(peer primitives.PeerId, c Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getLocked(peer)
	if err != nil {
		return err
	}
	if existing == nil {
		return errs.New(errs.ChannelNotFound, "channel not found")
	}
	return s.putLocked(peer, c)
}

func (s *Store) putLocked(peer primitives.PeerId, c Channel) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal channel", err)
	}
	if err := s.db.Put(bucketChannels, peer[:], raw); err != nil {
		return errs.Wrap(errs.Internal, "write channel", err)
	}
	return nil
}

// AddPayment applies payment p to the peer's channel, crediting or debiting
// based on whether self is the recipient, enforcing the strictly monotonic
// nonce invariant, and appends it to pending payments.
func (s *Store) AddPayment(peer, self primitives.PeerId, p Payment, nonce uint64, at primitives.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getLocked(peer)
	if err != nil {
		return err
	}
	if c == nil {
		return errs.New(errs.ChannelNotFound, "channel not found")
	}

	if p.Recipient == self {
		if err := c.Receive(p, nonce, at); err != nil {
			return err
		}
	} else {
		if err := c.Pay(p, nonce, at); err != nil {
			return err
		}
	}
	return s.putLocked(peer, *c)
}

// ClearPending drops pending payments for peer's channel after settlement.
func (s *Store) ClearPending(peer primitives.PeerId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getLocked(peer)
	if err != nil {
		return err
	}
	if c == nil {
		return errs.New(errs.ChannelNotFound, "channel not found")
	}
	c.ClearPending()
	return s.putLocked(peer, *c)
}

// ListAll returns every stored channel.
func (s *Store) ListAll() ([]Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Channel
	err := s.db.ForEach(bucketChannels, nil, func(_, v []byte) bool {
		var c Channel
		if json.Unmarshal(v, &c) == nil {
			out = append(out, c)
		}
		return true
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "list channels", err)
	}
	return out, nil
}
