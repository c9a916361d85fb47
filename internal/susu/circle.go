package susu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

const (
	// MaxMembers caps a circle at twelve participants.
	MaxMembers = 12

	// MinMembers is the smallest viable rotation.
	MinMembers = 3

	// MaxNameLength bounds the display name.
	MaxNameLength = 50

	// DefaultCycleDuration is the contribution window per cycle.
	DefaultCycleDuration = 7 * 24 * time.Hour
)

// State is a circle's lifecycle phase.
type State uint8

const (
	// StateOpen accepts joins and leaves; the circle has not started.
	StateOpen State = iota
	// StateActive runs cycles: contributions in, one payout out per cycle.
	StateActive
	// StateCompleted is terminal: every member has received their payout.
	StateCompleted
	// StateCancelled is reserved. No transition into it exists today.
	StateCancelled
)

// String returns the lowercase name used in API responses and logs.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Info is the read-model snapshot of a circle, shaped after the on-chain
// getCircleInfo tuple.
type Info struct {
	ID                 uuid.UUID
	Name               string
	Token              string
	ContributionAmount *uint256.Int
	Creator            string
	MemberCount        int
	CurrentCycle       int
	TotalCycles        int
	State              State
	YieldEnabled       bool
	CycleStartTime     time.Time
}

type contributionKey struct {
	cycle  int
	member string
}

// Circle is one rotating savings group. All mutating operations serialize on
// the circle's mutex, check every precondition, and only then mutate, so a
// failed operation leaves state untouched. External collaborator calls happen
// inside the critical section: their result gates the transition.
type Circle struct {
	id            uuid.UUID
	name          string
	token         string
	contribution  *uint256.Int
	creator       string
	yieldEnabled  bool
	cycleDuration time.Duration

	mu            sync.RWMutex
	state         State
	members       []string
	currentCycle  int
	totalCycles   int
	cycleStart    time.Time
	contributions map[contributionKey]bool
	payouts       map[string]int // recipient -> cycle paid, for AlreadyClaimed detection

	gate   VerificationGate
	ledger TokenLedger
	yield  YieldVenue
	sink   Sink
	logger *zap.Logger
	now    Clock
}

func newCircle(id uuid.UUID, name, token string, contribution *uint256.Int, creator string, yieldEnabled bool, cycleDuration time.Duration, deps circleDeps) *Circle {
	c := &Circle{
		id:            id,
		name:          name,
		token:         token,
		contribution:  contribution.Clone(),
		creator:       creator,
		yieldEnabled:  yieldEnabled,
		cycleDuration: cycleDuration,
		state:         StateOpen,
		members:       []string{creator},
		contributions: make(map[contributionKey]bool),
		payouts:       make(map[string]int),
		gate:          deps.gate,
		ledger:        deps.ledger,
		yield:         deps.yield,
		sink:          deps.sink,
		logger:        deps.logger,
		now:           deps.now,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

type circleDeps struct {
	gate   VerificationGate
	ledger TokenLedger
	yield  YieldVenue
	sink   Sink
	logger *zap.Logger
	now    Clock
}

// ID returns the circle's immutable identifier.
func (c *Circle) ID() uuid.UUID { return c.id }

// Name returns the display name.
func (c *Circle) Name() string { return c.name }

// Token returns the contribution asset.
func (c *Circle) Token() string { return c.token }

// Creator returns the participant who created the circle.
func (c *Circle) Creator() string { return c.creator }

// ContributionAmount returns a copy of the per-cycle contribution.
func (c *Circle) ContributionAmount() *uint256.Int { return c.contribution.Clone() }

// YieldEnabled reports whether pooled funds are placed with the yield venue.
func (c *Circle) YieldEnabled() bool { return c.yieldEnabled }

// PoolAccount is the ledger account holding the circle's pooled funds.
func (c *Circle) PoolAccount() string { return c.id.String() }

// State returns the current lifecycle phase.
func (c *Circle) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Info returns a consistent snapshot of the circle.
func (c *Circle) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		ID:                 c.id,
		Name:               c.name,
		Token:              c.token,
		ContributionAmount: c.contribution.Clone(),
		Creator:            c.creator,
		MemberCount:        len(c.members),
		CurrentCycle:       c.currentCycle,
		TotalCycles:        c.totalCycles,
		State:              c.state,
		YieldEnabled:       c.yieldEnabled,
		CycleStartTime:     c.cycleStart,
	}
}

// Members returns the membership in payout rotation order.
func (c *Circle) Members() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.members))
	copy(out, c.members)
	return out
}

// IsMember reports whether the participant belongs to the circle.
func (c *Circle) IsMember(participant string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOf(participant) >= 0
}

// HasContributed reports whether the member paid in for the given cycle.
func (c *Circle) HasContributed(cycle int, participant string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contributions[contributionKey{cycle: cycle, member: participant}]
}

// AllContributed reports whether every member has paid in for the current
// cycle. Always false outside ACTIVE.
func (c *Circle) AllContributed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allContributedLocked()
}

// ContributionStatus returns the members and, per member, whether they have
// contributed for the given cycle.
func (c *Circle) ContributionStatus(cycle int) ([]string, []bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	members := make([]string, len(c.members))
	copy(members, c.members)
	contributed := make([]bool, len(members))
	for i, m := range members {
		contributed[i] = c.contributions[contributionKey{cycle: cycle, member: m}]
	}
	return members, contributed
}

// CurrentRecipient returns the member entitled to this cycle's payout.
func (c *Circle) CurrentRecipient() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateActive {
		return "", ErrCircleNotActive
	}
	return c.recipientLocked(), nil
}

// CycleTimeRemaining returns how long until the current cycle's window
// elapses, zero once it has. Zero outside ACTIVE.
func (c *Circle) CycleTimeRemaining() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeRemainingLocked()
}

// Join admits a verified participant to an OPEN circle.
func (c *Circle) Join(ctx context.Context, participant string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return ErrCircleNotOpen
	}
	if c.indexOf(participant) >= 0 {
		return ErrAlreadyMember
	}
	if len(c.members) >= MaxMembers {
		return ErrCircleFull
	}
	verified, err := c.gate.IsVerified(ctx, participant)
	if err != nil {
		return fmt.Errorf("failed to check verification: %w", err)
	}
	if !verified {
		return ErrNotVerified
	}

	c.members = append(c.members, participant)
	c.emit(ctx, Event{
		Type:        EventMemberJoined,
		CircleID:    c.id,
		Participant: participant,
		MemberCount: len(c.members),
	})
	return nil
}

// Leave removes a non-creator member from an OPEN circle, preserving the
// relative order of everyone else.
func (c *Circle) Leave(ctx context.Context, participant string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return ErrCircleNotOpen
	}
	idx := c.indexOf(participant)
	if idx < 0 {
		return ErrNotMember
	}
	if participant == c.creator {
		return ErrCreatorCannotLeave
	}

	c.members = append(c.members[:idx], c.members[idx+1:]...)
	c.emit(ctx, Event{
		Type:        EventMemberLeft,
		CircleID:    c.id,
		Participant: participant,
		MemberCount: len(c.members),
	})
	return nil
}

// Start freezes membership and begins cycle 1. Creator only.
func (c *Circle) Start(ctx context.Context, caller string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return ErrCircleNotOpen
	}
	if caller != c.creator {
		return ErrUnauthorized
	}
	if len(c.members) < MinMembers {
		return ErrInsufficientMembers
	}

	c.state = StateActive
	c.totalCycles = len(c.members)
	c.currentCycle = 1
	c.cycleStart = c.now()
	c.emit(ctx, Event{
		Type:        EventCircleStarted,
		CircleID:    c.id,
		TotalCycles: c.totalCycles,
		MemberCount: len(c.members),
	})
	return nil
}

// Contribute debits the member's contribution into the pool for the current
// cycle. The ledger debit gates the transition: on transfer failure nothing
// is recorded. The optional yield deposit runs after the contribution has
// committed and cannot fail it.
func (c *Circle) Contribute(ctx context.Context, participant string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrCircleNotActive
	}
	if c.indexOf(participant) < 0 {
		return ErrNotMember
	}
	key := contributionKey{cycle: c.currentCycle, member: participant}
	if c.contributions[key] {
		return ErrAlreadyContributed
	}
	if err := c.ledger.TransferFrom(ctx, c.token, participant, c.PoolAccount(), c.contribution); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	c.contributions[key] = true
	c.emit(ctx, Event{
		Type:        EventContributionMade,
		CircleID:    c.id,
		Participant: participant,
		Cycle:       c.currentCycle,
		Amount:      c.contribution.Clone(),
	})

	if c.yieldEnabled && c.yield != nil {
		if err := c.yield.Deposit(ctx, c.token, c.PoolAccount(), c.contribution); err != nil {
			c.logger.Warn("yield deposit failed, funds remain in pool",
				zap.String("circle_id", c.id.String()),
				zap.Int("cycle", c.currentCycle),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Claim pays the current cycle's pool to its recipient and advances the
// rotation. Claimable only by the recipient, only once every member has
// contributed, and only after the cycle window has fully elapsed.
func (c *Circle) Claim(ctx context.Context, participant string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return ErrCircleNotActive
	}
	if participant != c.recipientLocked() {
		if _, paid := c.payouts[participant]; paid {
			return ErrAlreadyClaimed
		}
		return ErrUnauthorized
	}
	if !c.allContributedLocked() || c.timeRemainingLocked() > 0 {
		return ErrCycleIncomplete
	}

	principal := new(uint256.Int).Mul(c.contribution, uint256.NewInt(uint64(len(c.members))))
	if err := c.ledger.Transfer(ctx, c.token, c.PoolAccount(), participant, principal); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	// Principal has moved; everything below must not undo the payout.
	yieldAmount := uint256.NewInt(0)
	if c.yieldEnabled && c.yield != nil {
		realized, err := c.yield.Withdraw(ctx, c.token, c.PoolAccount())
		switch {
		case err != nil:
			c.logger.Warn("yield withdrawal failed, paying principal only",
				zap.String("circle_id", c.id.String()),
				zap.Int("cycle", c.currentCycle),
				zap.Error(err),
			)
		case realized != nil && !realized.IsZero():
			if err := c.ledger.Transfer(ctx, c.token, c.PoolAccount(), participant, realized); err != nil {
				c.logger.Warn("yield payout transfer failed, yield stays in pool",
					zap.String("circle_id", c.id.String()),
					zap.Error(err),
				)
			} else {
				yieldAmount = realized.Clone()
			}
		}
	}

	c.payouts[participant] = c.currentCycle
	c.emit(ctx, Event{
		Type:        EventPayoutClaimed,
		CircleID:    c.id,
		Participant: participant,
		Cycle:       c.currentCycle,
		Amount:      principal,
		YieldAmount: yieldAmount,
	})

	if c.currentCycle == c.totalCycles {
		c.state = StateCompleted
		c.emit(ctx, Event{
			Type:     EventCircleCompleted,
			CircleID: c.id,
		})
	} else {
		c.currentCycle++
		c.cycleStart = c.now()
	}
	return nil
}

func (c *Circle) indexOf(participant string) int {
	for i, m := range c.members {
		if m == participant {
			return i
		}
	}
	return -1
}

func (c *Circle) recipientLocked() string {
	return c.members[(c.currentCycle-1)%len(c.members)]
}

func (c *Circle) allContributedLocked() bool {
	if c.state != StateActive {
		return false
	}
	for _, m := range c.members {
		if !c.contributions[contributionKey{cycle: c.currentCycle, member: m}] {
			return false
		}
	}
	return true
}

func (c *Circle) timeRemainingLocked() time.Duration {
	if c.state != StateActive {
		return 0
	}
	remaining := c.cycleDuration - c.now().Sub(c.cycleStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Circle) emit(ctx context.Context, ev Event) {
	if c.sink == nil {
		return
	}
	ev.OccurredAt = c.now()
	c.sink.Emit(ctx, ev)
}
