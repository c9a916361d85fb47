// Package yield provides the development yield venue. It tracks each pool's
// notional position and mints a flat-rate return on withdrawal; the pooled
// principal never leaves the ledger, so a venue failure can never strand it.
package yield

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/susu-finance/susu-api/internal/ledger"
)

const rateDenominator = 10_000

type positionKey struct {
	token string
	pool  string
}

// Memory is an in-memory YieldVenue paying a fixed rate in basis points on
// the deposited notional.
type Memory struct {
	mu        sync.Mutex
	rateBps   uint64
	positions map[positionKey]*uint256.Int
	ledger    *ledger.Memory
}

// NewMemory creates a venue that mints realized yield into the pool's ledger
// account on withdrawal.
func NewMemory(rateBps uint64, l *ledger.Memory) *Memory {
	return &Memory{
		rateBps:   rateBps,
		positions: make(map[positionKey]*uint256.Int),
		ledger:    l,
	}
}

// Deposit adds to the pool's notional position with the venue.
func (m *Memory) Deposit(_ context.Context, token, pool string, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := positionKey{token: token, pool: pool}
	pos := m.positions[key]
	if pos == nil {
		pos = uint256.NewInt(0)
		m.positions[key] = pos
	}
	pos.Add(pos, amount)
	return nil
}

// Withdraw closes the pool's position, credits the realized yield to the
// pool's ledger account, and returns the realized amount.
func (m *Memory) Withdraw(_ context.Context, token, pool string) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := positionKey{token: token, pool: pool}
	pos := m.positions[key]
	if pos == nil || pos.IsZero() {
		return uint256.NewInt(0), nil
	}
	delete(m.positions, key)

	realized := new(uint256.Int).Mul(pos, uint256.NewInt(m.rateBps))
	realized.Div(realized, uint256.NewInt(rateDenominator))
	if !realized.IsZero() {
		m.ledger.Mint(token, pool, realized)
	}
	return realized, nil
}
