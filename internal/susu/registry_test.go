package susu_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu-finance/susu-api/internal/susu"
)

func TestRegistry_CreateCircleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := susu.CreateCircleParams{
		Name:               "community pot",
		Token:              testToken,
		ContributionAmount: amount(100),
		Creator:            addr(0),
	}

	tests := []struct {
		name   string
		mutate func(*susu.CreateCircleParams)
	}{
		{name: "empty name", mutate: func(p *susu.CreateCircleParams) { p.Name = "  " }},
		{name: "name too long", mutate: func(p *susu.CreateCircleParams) { p.Name = strings.Repeat("a", 51) }},
		{name: "nil amount", mutate: func(p *susu.CreateCircleParams) { p.ContributionAmount = nil }},
		{name: "zero amount", mutate: func(p *susu.CreateCircleParams) { p.ContributionAmount = amount(0) }},
		{name: "unsupported token", mutate: func(p *susu.CreateCircleParams) { p.Token = addr(42) }},
		{name: "empty creator", mutate: func(p *susu.CreateCircleParams) { p.Creator = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := f.registry.CreateCircle(ctx, p)
			assert.ErrorIs(t, err, susu.ErrInvalidArgument)
		})
	}

	assert.Equal(t, 0, f.registry.TotalCircles())

	c, err := f.registry.CreateCircle(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, susu.StateOpen, c.State())
	assert.Equal(t, []string{addr(0)}, c.Members())
	assert.Equal(t, 1, f.registry.TotalCircles())

	// A 50-character name is still accepted.
	p := valid
	p.Name = strings.Repeat("b", 50)
	_, err = f.registry.CreateCircle(ctx, p)
	assert.NoError(t, err)
}

func TestRegistry_GetUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.Get(uuid.New())
	assert.ErrorIs(t, err, susu.ErrCircleNotFound)
}

func TestRegistry_Pagination(t *testing.T) {
	f := newFixture(t)

	var created []uuid.UUID
	for i := 0; i < 5; i++ {
		c := createCircle(t, f, addr(i), 100)
		created = append(created, c.ID())
	}

	assert.Equal(t, created, f.registry.ListCircles(0, 10))
	assert.Equal(t, created[:2], f.registry.ListCircles(0, 2))
	assert.Equal(t, created[2:4], f.registry.ListCircles(2, 2))
	assert.Equal(t, created[4:], f.registry.ListCircles(4, 10))
	assert.Empty(t, f.registry.ListCircles(5, 10))
	assert.Empty(t, f.registry.ListCircles(0, 0))
	assert.Empty(t, f.registry.ListCircles(-1, 10))
	assert.Equal(t, 5, f.registry.TotalCircles())
}

func TestRegistry_OpenIndexFollowsStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := createCircle(t, f, addr(0), 100)
	b := createCircle(t, f, addr(1), 100)
	assert.Equal(t, []uuid.UUID{a.ID(), b.ID()}, f.registry.ListOpenCircles(0, 10))

	require.NoError(t, a.Join(ctx, addr(2)))
	require.NoError(t, a.Join(ctx, addr(3)))
	require.NoError(t, a.Start(ctx, addr(0)))

	assert.Equal(t, []uuid.UUID{b.ID()}, f.registry.ListOpenCircles(0, 10))
	// The full listing is unaffected by the transition.
	assert.Equal(t, []uuid.UUID{a.ID(), b.ID()}, f.registry.ListCircles(0, 10))
}

func TestRegistry_MemberAndCreatorIndices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := createCircle(t, f, addr(0), 100)
	b := createCircle(t, f, addr(1), 100)

	require.NoError(t, b.Join(ctx, addr(0)))
	require.NoError(t, a.Join(ctx, addr(2)))

	assert.Equal(t, []uuid.UUID{a.ID(), b.ID()}, f.registry.ListCirclesForMember(addr(0)))
	assert.Equal(t, []uuid.UUID{a.ID()}, f.registry.ListCirclesCreatedBy(addr(0)))
	assert.Equal(t, []uuid.UUID{b.ID()}, f.registry.ListCirclesCreatedBy(addr(1)))
	assert.Equal(t, []uuid.UUID{a.ID()}, f.registry.ListCirclesForMember(addr(2)))

	// Leaving drops the member index entry but not the creator's.
	require.NoError(t, a.Leave(ctx, addr(2)))
	assert.Empty(t, f.registry.ListCirclesForMember(addr(2)))
	assert.Equal(t, []uuid.UUID{a.ID(), b.ID()}, f.registry.ListCirclesForMember(addr(0)))
}

func TestRegistry_SupportedTokens(t *testing.T) {
	f := newFixture(t)
	tokens := f.registry.SupportedTokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, "cUSD", tokens[0].Symbol)
	assert.Equal(t, 18, tokens[0].Decimals)
}
