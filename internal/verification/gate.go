// Package verification holds the proof-of-unique-personhood gate. The proof
// flow itself is external; the engine only consumes the resulting boolean
// credential per participant.
package verification

import (
	"context"
	"strings"
	"sync"
)

// Gate is an in-memory set of verified participants. The verify endpoint
// marks participants after their external proof is accepted; AllowAll exists
// for development environments without a proof provider.
type Gate struct {
	mu       sync.RWMutex
	verified map[string]struct{}
	allowAll bool
}

// NewGate creates a gate seeded with pre-verified participants.
func NewGate(allowAll bool, seed []string) *Gate {
	g := &Gate{
		verified: make(map[string]struct{}, len(seed)),
		allowAll: allowAll,
	}
	for _, p := range seed {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			g.verified[p] = struct{}{}
		}
	}
	return g
}

// MarkVerified records a participant as a verified unique human.
func (g *Gate) MarkVerified(participant string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verified[strings.ToLower(participant)] = struct{}{}
}

// IsVerified reports whether the participant holds the credential.
func (g *Gate) IsVerified(_ context.Context, participant string) (bool, error) {
	if g.allowAll {
		return true, nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.verified[strings.ToLower(participant)]
	return ok, nil
}
