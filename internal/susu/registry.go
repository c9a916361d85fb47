package susu

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// CreateCircleParams are the creation inputs validated by the registry.
type CreateCircleParams struct {
	Name               string
	Token              string
	ContributionAmount *uint256.Int
	YieldEnabled       bool
	Creator            string
}

// RegistryConfig wires the registry and every circle it creates.
type RegistryConfig struct {
	Gate          VerificationGate
	Ledger        TokenLedger
	Yield         YieldVenue
	Sink          Sink
	Logger        *zap.Logger
	Now           Clock
	CycleDuration time.Duration
	Tokens        []Token
}

// Registry owns every circle: it creates them, holds the id -> circle map,
// and maintains the discovery indices (all, open, by creator, by member).
// Member and open indices are kept current by observing the events each
// circle emits, so index updates commit in the same critical section as the
// transition that caused them.
type Registry struct {
	mu        sync.RWMutex
	circles   map[uuid.UUID]*Circle
	order     []uuid.UUID
	open      map[uuid.UUID]struct{}
	byCreator map[string][]uuid.UUID
	byMember  map[string][]uuid.UUID

	tokens    map[string]Token
	tokenList []Token

	deps          circleDeps
	cycleDuration time.Duration
	logger        *zap.Logger
	now           Clock
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	cycleDuration := cfg.CycleDuration
	if cycleDuration <= 0 {
		cycleDuration = DefaultCycleDuration
	}
	tokens := cfg.Tokens
	if len(tokens) == 0 {
		tokens = DefaultTokens()
	}

	r := &Registry{
		circles:       make(map[uuid.UUID]*Circle),
		open:          make(map[uuid.UUID]struct{}),
		byCreator:     make(map[string][]uuid.UUID),
		byMember:      make(map[string][]uuid.UUID),
		tokens:        make(map[string]Token, len(tokens)),
		cycleDuration: cycleDuration,
		logger:        logger,
		now:           now,
	}
	for _, t := range tokens {
		t.Address = strings.ToLower(t.Address)
		r.tokens[t.Address] = t
		r.tokenList = append(r.tokenList, t)
	}
	r.deps = circleDeps{
		gate:   cfg.Gate,
		ledger: cfg.Ledger,
		yield:  cfg.Yield,
		sink:   chainSinks(SinkFunc(r.observe), cfg.Sink),
		logger: logger,
		now:    now,
	}
	return r
}

// CreateCircle validates the parameters, allocates a new OPEN circle with the
// creator as its first member, registers it in every index, and emits
// CircleCreated.
func (r *Registry) CreateCircle(ctx context.Context, p CreateCircleParams) (*Circle, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > MaxNameLength {
		return nil, ErrInvalidArgument
	}
	if p.ContributionAmount == nil || p.ContributionAmount.IsZero() {
		return nil, ErrInvalidArgument
	}
	if p.Creator == "" {
		return nil, ErrInvalidArgument
	}
	token := strings.ToLower(p.Token)
	if _, ok := r.tokens[token]; !ok {
		return nil, ErrInvalidArgument
	}

	id := uuid.New()
	c := newCircle(id, name, token, p.ContributionAmount, p.Creator, p.YieldEnabled, r.cycleDuration, r.deps)

	r.mu.Lock()
	r.circles[id] = c
	r.order = append(r.order, id)
	r.open[id] = struct{}{}
	r.byCreator[p.Creator] = append(r.byCreator[p.Creator], id)
	r.byMember[p.Creator] = append(r.byMember[p.Creator], id)
	r.mu.Unlock()

	if r.deps.sink != nil {
		r.deps.sink.Emit(ctx, Event{
			Type:        EventCircleCreated,
			CircleID:    id,
			Participant: p.Creator,
			Name:        name,
			Token:       token,
			Amount:      p.ContributionAmount.Clone(),
			MemberCount: 1,
			OccurredAt:  r.now(),
		})
	}
	return c, nil
}

// Get returns the circle for an id.
func (r *Registry) Get(id uuid.UUID) (*Circle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.circles[id]
	if !ok {
		return nil, ErrCircleNotFound
	}
	return c, nil
}

// ListCircles returns circle ids in creation order, paginated.
func (r *Registry) ListCircles(offset, limit int) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return paginate(r.order, offset, limit)
}

// ListOpenCircles returns ids of circles still accepting members, in
// creation order, paginated.
func (r *Registry) ListOpenCircles(offset, limit int) []uuid.UUID {
	r.mu.RLock()
	openIDs := make([]uuid.UUID, 0, len(r.open))
	for _, id := range r.order {
		if _, ok := r.open[id]; ok {
			openIDs = append(openIDs, id)
		}
	}
	r.mu.RUnlock()
	return paginate(openIDs, offset, limit)
}

// ListCirclesForMember returns every circle the participant belongs to.
func (r *Registry) ListCirclesForMember(participant string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]uuid.UUID(nil), r.byMember[participant]...)
}

// ListCirclesCreatedBy returns every circle the participant created.
func (r *Registry) ListCirclesCreatedBy(participant string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]uuid.UUID(nil), r.byCreator[participant]...)
}

// TotalCircles returns the count of circles ever created.
func (r *Registry) TotalCircles() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// SupportedTokens returns the contribution asset catalog.
func (r *Registry) SupportedTokens() []Token {
	out := make([]Token, len(r.tokenList))
	copy(out, r.tokenList)
	return out
}

// observe maintains the discovery indices from circle events. It runs inside
// the emitting circle's critical section, so the indices never lag the
// transition they reflect.
func (r *Registry) observe(_ context.Context, ev Event) {
	switch ev.Type {
	case EventMemberJoined:
		r.mu.Lock()
		r.byMember[ev.Participant] = append(r.byMember[ev.Participant], ev.CircleID)
		r.mu.Unlock()
	case EventMemberLeft:
		r.mu.Lock()
		ids := r.byMember[ev.Participant]
		for i, id := range ids {
			if id == ev.CircleID {
				r.byMember[ev.Participant] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
	case EventCircleStarted:
		r.mu.Lock()
		delete(r.open, ev.CircleID)
		r.mu.Unlock()
	}
}

func paginate(ids []uuid.UUID, offset, limit int) []uuid.UUID {
	if offset < 0 || limit <= 0 || offset >= len(ids) {
		return []uuid.UUID{}
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return append([]uuid.UUID(nil), ids[offset:end]...)
}

type sinkChain []Sink

func (s sinkChain) Emit(ctx context.Context, ev Event) {
	for _, sink := range s {
		sink.Emit(ctx, ev)
	}
}

func chainSinks(sinks ...Sink) Sink {
	out := make(sinkChain, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
