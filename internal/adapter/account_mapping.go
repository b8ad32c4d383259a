package adapter

import (
	"sync"

	"github.com/nodalync/engine/internal/primitives"
)

// AccountMapper is a bidirectional, concurrency-safe mapping between peer
// identities and the on-chain accounts that settle on their behalf. A node
// consults it whenever it needs an account id for a peer it only knows by
// PeerId (opening a channel, attesting a provenance root) or the reverse.
type AccountMapper struct {
	mu        sync.RWMutex
	toAccount map[primitives.PeerId]AccountID
	toPeer    map[AccountID]primitives.PeerId
}

// NewAccountMapper returns an empty mapper.
func NewAccountMapper() *AccountMapper {
	return &AccountMapper{
		toAccount: make(map[primitives.PeerId]AccountID),
		toPeer:    make(map[AccountID]primitives.PeerId),
	}
}

// Register binds peer to account, overwriting any prior binding for either
// side. Rebinding is allowed: a peer may rotate the account it settles
// through, and the mapper always reflects the latest registration.
func (a *AccountMapper) Register(peer primitives.PeerId, account AccountID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if old, ok := a.toAccount[peer]; ok {
		delete(a.toPeer, old)
	}
	if old, ok := a.toPeer[account]; ok {
		delete(a.toAccount, old)
	}
	a.toAccount[peer] = account
	a.toPeer[account] = peer
}

// AccountFor returns the account bound to peer, if any.
func (a *AccountMapper) AccountFor(peer primitives.PeerId) (AccountID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	acc, ok := a.toAccount[peer]
	return acc, ok
}

// PeerFor returns the peer bound to account, if any.
func (a *AccountMapper) PeerFor(account AccountID) (primitives.PeerId, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.toPeer[account]
	return p, ok
}

// Unregister removes peer's binding, if any.
func (a *AccountMapper) Unregister(peer primitives.PeerId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if acc, ok := a.toAccount[peer]; ok {
		delete(a.toPeer, acc)
		delete(a.toAccount, peer)
	}
}

// Len returns the number of registered bindings.
func (a *AccountMapper) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.toAccount)
}
