package susu

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// EventType identifies a domain event emitted by a circle or the registry.
type EventType string

const (
	EventCircleCreated    EventType = "circle.created"
	EventMemberJoined     EventType = "member.joined"
	EventMemberLeft       EventType = "member.left"
	EventCircleStarted    EventType = "circle.started"
	EventContributionMade EventType = "contribution.made"
	EventPayoutClaimed    EventType = "payout.claimed"
	EventCircleCompleted  EventType = "circle.completed"
)

// Event is the audit record of a committed state transition. Payload fields
// mirror the transition that produced them; unused fields are omitted.
type Event struct {
	Type        EventType    `json:"type"`
	CircleID    uuid.UUID    `json:"circle_id"`
	Participant string       `json:"participant,omitempty"`
	Name        string       `json:"name,omitempty"`
	Token       string       `json:"token,omitempty"`
	Cycle       int          `json:"cycle,omitempty"`
	TotalCycles int          `json:"total_cycles,omitempty"`
	MemberCount int          `json:"member_count,omitempty"`
	Amount      *uint256.Int `json:"amount,omitempty"`
	YieldAmount *uint256.Int `json:"yield_amount,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// Sink receives events after the transition that produced them has committed.
// Implementations must not block for long and must not fail the caller: a
// sink error is the sink's problem, not the circle's.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev Event)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }
