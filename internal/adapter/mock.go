package adapter

import (
	"context"
	"sync"

	"github.com/nodalync/engine/internal/econ"
	"github.com/nodalync/engine/internal/primitives"
)

// mockChannel is the on-chain-side view of a channel the mock tracks:
// enough to reject a close/dispute/resolve that doesn't match its
// lifecycle, without reimplementing the full channel state machine.
type mockChannel struct {
	balances     ChannelBalances
	nonce        uint64
	disputedAt   primitives.Timestamp
	disputed     bool
	closed       bool
}

// Failure is a configurable hook that fails one specific adapter method.
// Tests set it to force a path (insufficient funds, a dropped submission)
// without depending on real on-chain state.
type Failure struct {
	Deposit, Withdraw, Attest                            bool
	OpenChannel, CloseChannel, DisputeChannel             bool
	CounterDispute, ResolveDispute, SettleBatch           bool
}

// MockAdapter is an in-memory settlement adapter for tests and for
// local-only operation when no real chain is configured. It satisfies the
// engine's SettlementAdapter surface and records every call it serves so
// tests can assert on it directly, grounded on the teacher's in-memory
// fakes for its other stores.
type MockAdapter struct {
	mu sync.Mutex

	own            AccountID
	accountBalance primitives.Amount
	contractBalance primitives.Amount

	peerAccounts map[primitives.PeerId]AccountID
	channels     map[primitives.Hash]*mockChannel
	attestations map[primitives.Hash]Attestation

	deposits      []primitives.Amount
	withdrawals   []primitives.Amount
	settledBatches []econ.Batch

	fail    Failure
	nextTxN uint64
}

// New builds a MockAdapter owning account 0.0.num.
func New(num uint64) *MockAdapter {
	return &MockAdapter{
		own:          SimpleAccountID(num),
		peerAccounts: make(map[primitives.PeerId]AccountID),
		channels:     make(map[primitives.Hash]*mockChannel),
		attestations: make(map[primitives.Hash]Attestation),
	}
}

// WithAccount overrides the adapter's own account id.
func (m *MockAdapter) WithAccount(a AccountID) *MockAdapter {
	m.own = a
	return m
}

// WithBalance seeds the adapter's contract-held balance.
func (m *MockAdapter) WithBalance(amount primitives.Amount) *MockAdapter {
	m.contractBalance = amount
	return m
}

// WithAccountBalance seeds the adapter's own on-chain account balance.
func (m *MockAdapter) WithAccountBalance(amount primitives.Amount) *MockAdapter {
	m.accountBalance = amount
	return m
}

// WithFailure configures which methods fail from here on.
func (m *MockAdapter) WithFailure(f Failure) *MockAdapter {
	m.fail = f
	return m
}

// SetShouldFail replaces the whole failure configuration after construction.
func (m *MockAdapter) SetShouldFail(f Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = f
}

func (m *MockAdapter) nextTx() TransactionID {
	m.nextTxN++
	return TransactionID(SimpleAccountID(m.nextTxN).String())
}

func (m *MockAdapter) Deposit(_ context.Context, amount primitives.Amount) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.Deposit {
		return "", errInsufficientFunds
	}
	m.contractBalance += amount
	m.deposits = append(m.deposits, amount)
	return m.nextTx(), nil
}

func (m *MockAdapter) Withdraw(_ context.Context, amount primitives.Amount) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.Withdraw {
		return "", errInsufficientFunds
	}
	if amount > m.contractBalance {
		return "", errInsufficientFunds
	}
	m.contractBalance -= amount
	m.withdrawals = append(m.withdrawals, amount)
	return m.nextTx(), nil
}

func (m *MockAdapter) GetContractBalance(_ context.Context) (primitives.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contractBalance, nil
}

func (m *MockAdapter) GetAccountBalance(_ context.Context) (primitives.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accountBalance, nil
}

func (m *MockAdapter) Attest(_ context.Context, contentHash, provenanceRoot primitives.Hash) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.Attest {
		return "", errInternal
	}
	m.attestations[contentHash] = Attestation{
		ContentHash:    contentHash,
		Account:        m.own,
		ProvenanceRoot: provenanceRoot,
	}
	return m.nextTx(), nil
}

func (m *MockAdapter) GetAttestation(_ context.Context, contentHash primitives.Hash) (*Attestation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attestations[contentHash]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *MockAdapter) OpenChannel(_ context.Context, channelID primitives.Hash, peer primitives.PeerId, deposit primitives.Amount) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.OpenChannel {
		return "", errInsufficientFunds
	}
	if _, exists := m.channels[channelID]; exists {
		return "", errChannelExists
	}
	if deposit > m.accountBalance {
		return "", errInsufficientFunds
	}
	m.accountBalance -= deposit
	m.channels[channelID] = &mockChannel{balances: ChannelBalances{MyBalance: deposit}}
	return m.nextTx(), nil
}

func (m *MockAdapter) CloseChannel(_ context.Context, channelID primitives.Hash, final ChannelBalances, sigs []primitives.Signature) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.CloseChannel {
		return "", errInternal
	}
	c, ok := m.channels[channelID]
	if !ok {
		return "", errChannelNotFound
	}
	if c.closed {
		return "", errChannelNotOpen
	}
	if len(sigs) == 0 {
		return "", errInvalidSignature
	}
	c.balances = final
	c.closed = true
	m.accountBalance += final.MyBalance
	return m.nextTx(), nil
}

func (m *MockAdapter) DisputeChannel(_ context.Context, channelID primitives.Hash, state ChannelBalances, nonce uint64, sig primitives.Signature) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.DisputeChannel {
		return "", errInternal
	}
	c, ok := m.channels[channelID]
	if !ok {
		return "", errChannelNotFound
	}
	if c.closed {
		return "", errChannelNotOpen
	}
	c.balances = state
	c.nonce = nonce
	c.disputed = true
	return m.nextTx(), nil
}

func (m *MockAdapter) CounterDispute(_ context.Context, channelID primitives.Hash, state ChannelBalances, nonce uint64, sig primitives.Signature) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.CounterDispute {
		return "", errInternal
	}
	c, ok := m.channels[channelID]
	if !ok {
		return "", errChannelNotFound
	}
	if !c.disputed {
		return "", errChannelNotOpen
	}
	if nonce <= c.nonce {
		return "", errInvalidSignature
	}
	c.balances = state
	c.nonce = nonce
	return m.nextTx(), nil
}

func (m *MockAdapter) ResolveDispute(_ context.Context, channelID primitives.Hash) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.ResolveDispute {
		return "", errInternal
	}
	c, ok := m.channels[channelID]
	if !ok {
		return "", errChannelNotFound
	}
	if !c.disputed {
		return "", errDisputeNotElapsed
	}
	c.closed = true
	c.disputed = false
	m.accountBalance += c.balances.MyBalance
	return m.nextTx(), nil
}

func (m *MockAdapter) SettleBatch(_ context.Context, batch econ.Batch) (TransactionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail.SettleBatch {
		return "", errInternal
	}
	if len(batch.Entries) == 0 {
		return "", errEmptyBatch
	}
	m.settledBatches = append(m.settledBatches, batch)
	return m.nextTx(), nil
}

func (m *MockAdapter) VerifySettlement(_ context.Context, tx TransactionID) (SettlementStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx == "" {
		return SettlementStatus{}, errAccountNotFound
	}
	return SettlementStatus{Kind: Confirmed}, nil
}

func (m *MockAdapter) GetOwnAccount() AccountID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.own
}

func (m *MockAdapter) GetAccountForPeer(peer primitives.PeerId) (AccountID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.peerAccounts[peer]
	return a, ok
}

func (m *MockAdapter) RegisterPeerAccount(peer primitives.PeerId, account AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peerAccounts[peer] = account
}

// Deposits returns every amount ever successfully deposited, in call order.
func (m *MockAdapter) Deposits() []primitives.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]primitives.Amount, len(m.deposits))
	copy(out, m.deposits)
	return out
}

// Withdrawals returns every amount ever successfully withdrawn, in call order.
func (m *MockAdapter) Withdrawals() []primitives.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]primitives.Amount, len(m.withdrawals))
	copy(out, m.withdrawals)
	return out
}

// SettledBatches returns every batch ever successfully submitted.
func (m *MockAdapter) SettledBatches() []econ.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]econ.Batch, len(m.settledBatches))
	copy(out, m.settledBatches)
	return out
}

// CurrentBalance returns the adapter's own on-chain account balance.
func (m *MockAdapter) CurrentBalance() primitives.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accountBalance
}

// ChannelCount returns the number of channels the mock has ever opened.
func (m *MockAdapter) ChannelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// AttestationCount returns the number of attestations the mock has recorded.
func (m *MockAdapter) AttestationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attestations)
}
