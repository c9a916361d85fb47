// Package ledger provides the development token ledger: an in-memory balance
// book with ERC-20 approval semantics. Production deployments swap in an
// adapter over the real asset ledger; the engine only sees the
// susu.TokenLedger interface.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the payer's
	// balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance is returned when a TransferFrom exceeds what
	// the payer approved for the spender.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

type balanceKey struct {
	token   string
	account string
}

type allowanceKey struct {
	token   string
	owner   string
	spender string
}

// Memory is an in-memory TokenLedger. Transfers are atomic under one mutex:
// either both sides of a movement happen or neither does.
type Memory struct {
	mu         sync.Mutex
	balances   map[balanceKey]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
}

// NewMemory creates an empty ledger.
func NewMemory() *Memory {
	return &Memory{
		balances:   make(map[balanceKey]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
	}
}

// Mint credits new funds to an account. Dev faucet only.
func (m *Memory) Mint(token, account string, amount *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balanceKey{token: norm(token), account: norm(account)}
	bal := m.balances[key]
	if bal == nil {
		bal = uint256.NewInt(0)
		m.balances[key] = bal
	}
	bal.Add(bal, amount)
}

// BalanceOf returns the account's balance for a token.
func (m *Memory) BalanceOf(token, account string) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.balances[balanceKey{token: norm(token), account: norm(account)}]
	if bal == nil {
		return uint256.NewInt(0)
	}
	return bal.Clone()
}

// Approve sets (not adds to) the spender's allowance over the owner's funds.
func (m *Memory) Approve(token, owner, spender string, amount *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowances[allowanceKey{token: norm(token), owner: norm(owner), spender: norm(spender)}] = amount.Clone()
}

// Allowance reports how much of owner's balance spender may move.
func (m *Memory) Allowance(_ context.Context, token, owner, spender string) (*uint256.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := m.allowances[allowanceKey{token: norm(token), owner: norm(owner), spender: norm(spender)}]
	if allowed == nil {
		return uint256.NewInt(0), nil
	}
	return allowed.Clone(), nil
}

// Transfer moves funds between accounts.
func (m *Memory) Transfer(_ context.Context, token, from, to string, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.move(norm(token), norm(from), norm(to), amount)
}

// TransferFrom moves funds from payer to pool, consuming the payer's
// allowance for the pool as spender.
func (m *Memory) TransferFrom(_ context.Context, token, payer, pool string, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, p, o := norm(token), norm(payer), norm(pool)
	akey := allowanceKey{token: t, owner: p, spender: o}
	allowed := m.allowances[akey]
	if allowed == nil || allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := m.move(t, p, o, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

// move requires m.mu held.
func (m *Memory) move(token, from, to string, amount *uint256.Int) error {
	fromKey := balanceKey{token: token, account: from}
	bal := m.balances[fromKey]
	if bal == nil || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	toKey := balanceKey{token: token, account: to}
	toBal := m.balances[toKey]
	if toBal == nil {
		toBal = uint256.NewInt(0)
		m.balances[toKey] = toBal
	}
	bal.Sub(bal, amount)
	toBal.Add(toBal, amount)
	return nil
}

func norm(s string) string { return strings.ToLower(s) }
