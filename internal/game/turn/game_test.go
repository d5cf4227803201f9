package turn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/brain"
	"github.com/cory-johannsen/rogue/internal/game/dice"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/input"
	"github.com/cory-johannsen/rogue/internal/game/turn"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

var behaviours = []string{`
behaviour:
  id: player
  root: main
  nodes:
    - id: main
      forever: act
    - id: act
      leaf: player_input
`, `
behaviour:
  id: zombie
  root: main
  nodes:
    - id: main
      forever: decide
    - id: decide
      switch:
        predicate: adjacent_to_player
        when_true: bite
        when_false: hunt
    - id: bite
      leaf: attack_adjacent_player
    - id: hunt
      switch:
        predicate: can_see_player
        when_true: chase
        when_false: idle
        reset: true
    - id: chase
      leaf: move_towards_player
    - id: idle
      leaf: wait
`, `
behaviour:
  id: once
  root: main
  nodes:
    - id: main
      all: [rest]
    - id: rest
      leaf: wait
`}

func newLibrary(t *testing.T) *brain.Library {
	t.Helper()
	lib := brain.NewLibrary()
	for _, doc := range behaviours {
		d, err := brain.ParseDefinition([]byte(doc))
		require.NoError(t, err)
		require.NoError(t, lib.Register(d))
	}
	return lib
}

type game struct {
	*turn.Game
	resolver *turn.Resolver
}

func newGame(t *testing.T, w *world.World, src input.Source, maxTurns uint64) game {
	t.Helper()
	r := turn.NewResolver(turn.ResolverConfig{
		World:  w,
		Chain:  gameplay(),
		Dice:   dice.NewLoggedRoller(dice.NewFixedSource(5), zap.NewNop()),
		Logger: zaptest.NewLogger(t),
	})
	g := turn.NewGame(turn.GameConfig{
		World:    w,
		Resolver: r,
		Library:  newLibrary(t),
		Input:    src,
		Rand:     dice.NewFixedSource(0),
		Logger:   zaptest.NewLogger(t),
		MaxTurns: maxTurns,
	})
	return game{Game: g, resolver: r}
}

func TestGame_QuitStopsRun(t *testing.T) {
	a := newArena(t)
	g := newGame(t, a.w, input.NewScripted(input.Wait(), input.Wait()), 0)
	g.Add(a.player, 0)
	g.Add(a.zombie, 0)

	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turn.StopQuit, res.Reason)
	assert.Equal(t, uint64(4), res.Turns)
	assert.Equal(t, uint64(20), res.Time)

	pos, _ := a.w.Position(a.zombie)
	assert.Equal(t, geom.C(3, 1), pos.Coord, "the zombie chased the player twice")
	_, ok := g.State(a.zombie)
	assert.True(t, ok)
}

func TestGame_MaxTurns(t *testing.T) {
	a := newArena(t)
	events := make([]input.Event, 10)
	for i := range events {
		events[i] = input.Wait()
	}
	g := newGame(t, a.w, input.NewScripted(events...), 3)
	g.Add(a.player, 0)

	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turn.StopMaxTurns, res.Reason)
	assert.Equal(t, uint64(3), res.Turns)
}

func TestGame_Cancelled(t *testing.T) {
	a := newArena(t)
	g := newGame(t, a.w, input.NewScripted(input.Wait()), 0)
	g.Add(a.player, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := g.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, turn.StopCancelled, res.Reason)
	assert.Zero(t, res.Turns)
}

func TestGame_PlayerDestroyed(t *testing.T) {
	a := newArena(t)
	_, err := a.w.Apply(action.ApplyDamage{Target: a.player, Amount: 9, Source: a.zombie})
	require.NoError(t, err)
	_, err = a.w.Apply(action.LevelSwitch{Entity: a.zombie, Level: "arena", Coord: geom.C(2, 1)})
	require.NoError(t, err)

	g := newGame(t, a.w, input.NewScripted(input.Wait(), input.Wait()), 0)
	g.Add(a.player, 0)
	g.Add(a.zombie, 0)

	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turn.StopPlayerDestroyed, res.Reason)
	assert.False(t, a.w.Alive(a.player))
	// wait, melee, damage, destroy
	assert.Equal(t, uint64(4), res.Turns)
}

func TestGame_DestroyedEntityLosesStateAndTurns(t *testing.T) {
	a := newArena(t)
	g := newGame(t, a.w, input.NewScripted(input.Wait(), input.Fire(geom.East)), 0)
	g.Add(a.player, 0)
	g.Add(a.zombie, 0)

	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turn.StopQuit, res.Reason)

	assert.False(t, a.w.Alive(a.zombie))
	_, ok := g.State(a.zombie)
	assert.False(t, ok)
	assert.False(t, g.Scheduled(a.zombie))
	_, seen := g.resolver.Knowledge().For(a.player).LastSeen(a.zombie)
	assert.False(t, seen, "the player forgets destroyed entities")
}

func TestGame_FinishedBehaviourGoesIdle(t *testing.T) {
	w := world.New()
	require.NoError(t, w.AddLevel("cell", geom.Size{Width: 3, Height: 3}))
	id, err := w.Create(world.Template{
		Kind:      entity.KindZombie,
		Position:  geom.Position{Level: "cell", Coord: geom.C(1, 1)},
		Health:    1,
		Speed:     12,
		Behaviour: "once",
	})
	require.NoError(t, err)

	g := newGame(t, w, nil, 0)
	g.Add(id, 0)
	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turn.StopIdle, res.Reason)
	assert.Equal(t, uint64(1), res.Turns)
	assert.Equal(t, uint64(12), res.Time)
	_, ok := g.State(id)
	assert.False(t, ok)
}

func TestGame_UnknownBehaviour(t *testing.T) {
	w := world.New()
	require.NoError(t, w.AddLevel("cell", geom.Size{Width: 3, Height: 3}))
	id, err := w.Create(world.Template{
		Kind:      entity.KindZombie,
		Position:  geom.Position{Level: "cell", Coord: geom.C(1, 1)},
		Speed:     5,
		Behaviour: "ghost",
	})
	require.NoError(t, err)

	g := newGame(t, w, nil, 0)
	g.Add(id, 0)
	res, err := g.Run(context.Background())
	assert.ErrorContains(t, err, "ghost")
	assert.Equal(t, turn.StopError, res.Reason)
}

func TestGame_EntitiesWithoutBehaviourAreSkipped(t *testing.T) {
	a := newArena(t)
	g := newGame(t, a.w, nil, 0)
	g.Add(a.door, 0)
	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turn.StopIdle, res.Reason)
	assert.Zero(t, res.Turns)
}

func TestNewGame_NilPanics(t *testing.T) {
	a := newArena(t)
	r := newResolver(t, a, gameplay(), nil)
	lib := newLibrary(t)
	logger := zaptest.NewLogger(t)
	assert.Panics(t, func() { turn.NewGame(turn.GameConfig{Resolver: r, Library: lib, Logger: logger}) })
	assert.Panics(t, func() { turn.NewGame(turn.GameConfig{World: a.w, Library: lib, Logger: logger}) })
	assert.Panics(t, func() { turn.NewGame(turn.GameConfig{World: a.w, Resolver: r, Logger: logger}) })
	assert.Panics(t, func() { turn.NewGame(turn.GameConfig{World: a.w, Resolver: r, Library: lib}) })
}
