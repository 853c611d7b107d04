package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/ccoin/mixer/pkg/types"
)

// ErrLedgerInsufficientFunds is returned by Ledger implementations when a
// transfer's source address cannot cover the amount. The processor
// translates this into the numbered CodeInsufficientFunds error at the
// instruction boundary.
var ErrLedgerInsufficientFunds = errors.New("pool: insufficient funds")

// Ledger is the host ledger's native-coin transfer primitive, injected
// rather than implemented here: spec.md §1 scopes out "the host ledger's
// account model, the native-coin transfer primitive, [and] transaction
// signing" as external collaborators. It generalizes
// _examples/original_source/src/utils.rs's transfer_sol/create_account (a
// Solana-specific lamport move via system-program CPI) into a
// ledger-agnostic interface the processor can drive without knowing
// anything about account ownership or signing.
type Ledger interface {
	// Transfer moves amount in full from from to to. Implementations must
	// be all-or-nothing: a failed Transfer must not move any funds
	// (spec.md §4.7's "full amount; partial transfers are invalid").
	Transfer(ctx context.Context, from, to types.Address, amount uint64) error

	// Balance returns addr's current balance.
	Balance(ctx context.Context, addr types.Address) (uint64, error)
}

// MemoryLedger is an in-memory Ledger, used by cmd/mixer-cli's dry-run mode
// and by tests. It is not meant to model a production ledger's durability
// or concurrency guarantees beyond what's needed to exercise the
// processor.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[types.Address]uint64
}

// NewMemoryLedger creates an empty ledger. Credit seeds an address's
// starting balance.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[types.Address]uint64)}
}

// Credit adds amount to addr's balance unconditionally, for seeding test
// fixtures and CLI dry-runs.
func (l *MemoryLedger) Credit(addr types.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

// Transfer moves amount from from to to, failing if from's balance is
// insufficient.
func (l *MemoryLedger) Transfer(_ context.Context, from, to types.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return ErrLedgerInsufficientFunds
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Balance returns addr's current balance.
func (l *MemoryLedger) Balance(_ context.Context, addr types.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr], nil
}
