package adapter

import "github.com/nodalync/engine/internal/primitives"

// Faucet credits a MockAdapter's own account balance directly, bypassing
// Deposit's contract-balance bookkeeping. It exists only to seed test
// fixtures with spendable balance before exercising channel-open or
// settlement flows; no real adapter implements anything like it.
type Faucet struct {
	adapter *MockAdapter
}

// NewFaucet wraps a MockAdapter for seeding.
func NewFaucet(a *MockAdapter) *Faucet {
	return &Faucet{adapter: a}
}

// Fund adds amount to the wrapped adapter's own account balance.
func (f *Faucet) Fund(amount primitives.Amount) {
	f.adapter.mu.Lock()
	defer f.adapter.mu.Unlock()
	f.adapter.accountBalance += amount
}
