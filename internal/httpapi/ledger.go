package httpapi

import (
	"sync"

	"github.com/ledgermint/lendingcore/native/lending"
)

// MemoryLedger is a single-node, in-memory reference implementation of
// lending.TokenLedger. Real token custody (an on-chain vault, an external
// settlement rail) is explicitly out of scope for this engine; MemoryLedger
// exists so cmd/lendingd can run end to end against a concrete collaborator
// without depending on one.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[lending.ID]uint64
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[lending.ID]uint64)}
}

// Credit adds amount to account's balance, used to fund test/demo accounts
// and asset vaults out of band (minting, not a protocol operation).
func (l *MemoryLedger) Credit(account lending.ID, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Transfer moves amount from "from" to "to", failing if "from" does not
// hold a sufficient balance.
func (l *MemoryLedger) Transfer(from, to lending.ID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return lending.ErrInsufficientLiquidity
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Balance returns account's current balance.
func (l *MemoryLedger) Balance(account lending.ID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account], nil
}
