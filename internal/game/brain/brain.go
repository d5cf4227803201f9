// Package brain provides the gameplay leaves and switch predicates that
// entities decide with, and compiles YAML behaviour definitions into
// behaviour graphs over them.
package brain

import (
	"errors"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/behaviour"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/input"
	"github.com/cory-johannsen/rogue/internal/game/knowledge"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// DefaultFireRange is how far a fire_at_player or player fire shot travels
// when the definition sets no range.
const DefaultFireRange = 8

// ErrNoInput is returned by a player_input leaf with no input source.
var ErrNoInput = errors.New("brain: no input source")

// Rand picks uniformly in [0, n).
type Rand interface {
	Intn(n int) int
}

// ScriptCaller evaluates a Lua predicate. Implemented by *scripting.Manager.
type ScriptCaller interface {
	Predicate(scope, fn string, fields map[string]any) (bool, error)
}

// Context is what a leaf or switch sees when deciding for Self.
type Context struct {
	Self      entity.ID
	World     world.View
	Knowledge *knowledge.Store
	Input     input.Source
	Rand      Rand
	Scripts   ScriptCaller
	// Turn is the number of actions committed so far.
	Turn uint64
}

// Graph and State are the behaviour types every entity in the game uses.
type (
	Graph = behaviour.Graph[*Context, action.Args]
	State = behaviour.State[*Context, action.Args]
)

// NewState returns an uninitialised State.
func NewState() *State { return behaviour.NewState[*Context, action.Args]() }

// position returns where Self is.
func (k *Context) position() (geom.Position, error) {
	return world.RequirePosition(k.World, k.Self)
}

// player returns the player's ID and where Self last saw it.
func (k *Context) player() (entity.ID, knowledge.Sighting, bool) {
	id, ok := k.World.Player()
	if !ok || id == k.Self {
		return entity.None, knowledge.Sighting{}, false
	}
	sg, ok := k.Knowledge.LastSeen(id)
	return id, sg, ok
}

// visiblePlayer returns the player's ID and position if Self sees it on its level now.
func (k *Context) visiblePlayer() (entity.ID, geom.Position, bool) {
	id, sg, ok := k.player()
	if !ok || !k.Knowledge.Sees(id) {
		return entity.None, geom.Position{}, false
	}
	return id, sg.Position, true
}
