package susu

import "errors"

// Sentinel errors for every way a circle operation can be rejected. Handlers
// match on these with errors.Is to pick the response status and message, so
// each distinct failure gets its own sentinel rather than a generic error.
var (
	// ErrInvalidArgument is returned for malformed creation parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCircleNotFound is returned by the registry for unknown circle ids.
	ErrCircleNotFound = errors.New("circle not found")

	// ErrCircleNotOpen is returned when a join/leave/start is attempted on a
	// circle that is no longer accepting membership changes.
	ErrCircleNotOpen = errors.New("circle is not open")

	// ErrCircleNotActive is returned when a contribute/claim is attempted on
	// a circle that has not started or has already finished.
	ErrCircleNotActive = errors.New("circle is not active")

	// ErrAlreadyMember is returned when a participant joins a circle twice.
	ErrAlreadyMember = errors.New("already a member of this circle")

	// ErrNotMember is returned when a non-member tries to leave or contribute.
	ErrNotMember = errors.New("not a member of this circle")

	// ErrCreatorCannotLeave is returned when the creator tries to leave their
	// own circle. The creator stays for the life of the circle.
	ErrCreatorCannotLeave = errors.New("creator cannot leave their own circle")

	// ErrCircleFull is returned when a join would exceed MaxMembers.
	ErrCircleFull = errors.New("circle is full")

	// ErrInsufficientMembers is returned when a start is attempted below
	// MinMembers.
	ErrInsufficientMembers = errors.New("not enough members to start")

	// ErrNotVerified is returned when the verification gate rejects a joining
	// participant.
	ErrNotVerified = errors.New("participant is not verified")

	// ErrAlreadyContributed is returned when a member contributes twice in
	// the same cycle.
	ErrAlreadyContributed = errors.New("already contributed this cycle")

	// ErrCycleIncomplete is returned when a payout is claimed before every
	// member has contributed and the cycle window has fully elapsed.
	ErrCycleIncomplete = errors.New("cycle is not complete")

	// ErrAlreadyClaimed is returned when a member who has already received
	// their payout claims again in a later cycle.
	ErrAlreadyClaimed = errors.New("payout already claimed")

	// ErrUnauthorized is returned for a privileged action by the wrong caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransferFailed wraps a token ledger failure. The ledger's own error
	// is preserved in the chain for the boundary to surface.
	ErrTransferFailed = errors.New("token transfer failed")
)
