package brain

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/behaviour"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/input"
)

// LeafKind names a built-in leaf.
type LeafKind string

const (
	LeafPlayerInput          LeafKind = "player_input"
	LeafWait                 LeafKind = "wait"
	LeafWander               LeafKind = "wander"
	LeafMoveTowardsPlayer    LeafKind = "move_towards_player"
	LeafAttackAdjacentPlayer LeafKind = "attack_adjacent_player"
	LeafFireAtPlayer         LeafKind = "fire_at_player"
)

// LeafKinds lists every built-in leaf.
var LeafKinds = []LeafKind{
	LeafPlayerInput, LeafWait, LeafWander,
	LeafMoveTowardsPlayer, LeafAttackAdjacentPlayer, LeafFireAtPlayer,
}

// Valid reports whether k is a built-in leaf.
func (k LeafKind) Valid() bool {
	for _, l := range LeafKinds {
		if l == k {
			return true
		}
	}
	return false
}

// Leaf is a built-in decision. Range applies to the firing leaves.
type Leaf struct {
	Kind  LeafKind
	Range int
}

type resolution = behaviour.LeafResolution[action.Args]

func yield(a action.Args) resolution { return behaviour.Yield[action.Args](a) }

func done(v bool) resolution { return behaviour.Return[action.Args](v) }

func (l Leaf) fireRange() int {
	if l.Range > 0 {
		return l.Range
	}
	return DefaultFireRange
}

// Resolve decides for k.Self.
//
// player_input blocks on k.Input; its input.ErrQuit is returned wrapped.
// The player-seeking leaves Return(false) when the player is not where they
// need it to be, so a parent switch can choose something else.
func (l Leaf) Resolve(k *Context) (resolution, error) {
	switch l.Kind {
	case LeafPlayerInput:
		return l.playerInput(k)
	case LeafWait:
		return yield(action.Wait{Entity: k.Self}), nil
	case LeafWander:
		return l.wander(k)
	case LeafMoveTowardsPlayer:
		return l.moveTowardsPlayer(k)
	case LeafAttackAdjacentPlayer:
		return l.attackAdjacentPlayer(k)
	case LeafFireAtPlayer:
		return l.fireAtPlayer(k)
	}
	return resolution{}, fmt.Errorf("brain: unknown leaf %q", l.Kind)
}

func (l Leaf) playerInput(k *Context) (resolution, error) {
	if k.Input == nil {
		return resolution{}, ErrNoInput
	}
	ev, err := k.Input.NextInput()
	if err != nil {
		return resolution{}, fmt.Errorf("player input: %w", err)
	}
	switch ev.Command {
	case input.CommandMove:
		return yield(action.Walk{Entity: k.Self, Direction: ev.Direction}), nil
	case input.CommandFire:
		return yield(action.Fire{Entity: k.Self, Direction: ev.Direction, Range: l.fireRange()}), nil
	}
	return yield(action.Wait{Entity: k.Self}), nil
}

// wander steps in a random direction whose remembered cell is not solid.
// Unknown cells count as open; the rule chain has the final word.
func (l Leaf) wander(k *Context) (resolution, error) {
	pos, err := k.position()
	if err != nil {
		return resolution{}, err
	}
	open := make([]geom.Direction, 0, len(geom.Directions))
	for _, d := range geom.Directions {
		c := pos.Coord.Step(d)
		if cell, ok := k.Knowledge.Cell(pos.Level, c); ok && cell.Solid {
			continue
		}
		if lvl, ok := k.World.Level(pos.Level); ok && !lvl.Size.Contains(c) {
			continue
		}
		open = append(open, d)
	}
	if len(open) == 0 || k.Rand == nil {
		return yield(action.Wait{Entity: k.Self}), nil
	}
	return yield(action.Walk{Entity: k.Self, Direction: open[k.Rand.Intn(len(open))]}), nil
}

// moveTowardsPlayer walks toward where the player was last seen. Reaching
// that spot without finding the player returns false.
func (l Leaf) moveTowardsPlayer(k *Context) (resolution, error) {
	pos, err := k.position()
	if err != nil {
		return resolution{}, err
	}
	_, sg, ok := k.player()
	if !ok || sg.Position.Level != pos.Level {
		return done(false), nil
	}
	d, ok := geom.Toward(pos.Coord, sg.Position.Coord)
	if !ok {
		return done(false), nil
	}
	return yield(action.Walk{Entity: k.Self, Direction: d}), nil
}

func (l Leaf) attackAdjacentPlayer(k *Context) (resolution, error) {
	pos, err := k.position()
	if err != nil {
		return resolution{}, err
	}
	id, at, ok := k.visiblePlayer()
	if !ok || at.Level != pos.Level || !pos.Coord.Adjacent(at.Coord) {
		return done(false), nil
	}
	return yield(action.Melee{Attacker: k.Self, Target: id}), nil
}

// fireAtPlayer shoots when the player is visible on a straight or diagonal
// line within range.
func (l Leaf) fireAtPlayer(k *Context) (resolution, error) {
	pos, err := k.position()
	if err != nil {
		return resolution{}, err
	}
	_, at, ok := k.visiblePlayer()
	if !ok || at.Level != pos.Level {
		return done(false), nil
	}
	delta := at.Coord.Sub(pos.Coord)
	aligned := delta.X == 0 || delta.Y == 0 || delta.X == delta.Y || delta.X == -delta.Y
	dist := pos.Coord.Chebyshev(at.Coord)
	if !aligned || dist == 0 || dist > l.fireRange() {
		return done(false), nil
	}
	d, _ := geom.Toward(pos.Coord, at.Coord)
	return yield(action.Fire{Entity: k.Self, Direction: d, Range: l.fireRange()}), nil
}
