package susu

import (
	"context"
	"time"

	"github.com/holiman/uint256"
)

// TokenLedger is the external balance book. The engine only ever asks it to
// move funds between a participant and a circle's pool account and to report
// approvals; it trusts the returned error as the sole success signal.
type TokenLedger interface {
	// TransferFrom debits payer and credits pool, honoring the payer's
	// prior approval of the pool as a spender.
	TransferFrom(ctx context.Context, token, payer, pool string, amount *uint256.Int) error

	// Transfer moves pooled funds out to a recipient.
	Transfer(ctx context.Context, token, pool, recipient string, amount *uint256.Int) error

	// Allowance reports how much of owner's balance spender may move.
	Allowance(ctx context.Context, token, owner, spender string) (*uint256.Int, error)
}

// VerificationGate is the externally supplied proof-of-unique-personhood
// credential, consulted once per participant at join time.
type VerificationGate interface {
	IsVerified(ctx context.Context, participant string) (bool, error)
}

// YieldVenue earns return on pooled funds between contribution and payout.
// It is strictly best-effort: the engine logs its failures and moves on,
// never letting them block a contribution or a payout.
type YieldVenue interface {
	// Deposit places freshly contributed funds with the venue.
	Deposit(ctx context.Context, token, pool string, amount *uint256.Int) error

	// Withdraw recalls the pool's position and returns the realized yield
	// credited back to the pool account.
	Withdraw(ctx context.Context, token, pool string) (*uint256.Int, error)
}

// Clock supplies the current time for cycle-deadline checks. Tests inject a
// fake; production uses time.Now.
type Clock func() time.Time
