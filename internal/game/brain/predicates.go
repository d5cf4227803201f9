package brain

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/rogue/internal/game/behaviour"
)

// Built-in predicate names. A predicate "lua:<fn>" calls the Lua function fn.
const (
	PredicateCanSeePlayer     = "can_see_player"
	PredicateAdjacentToPlayer = "adjacent_to_player"
	PredicateLowHealth        = "low_health"

	luaPrefix = "lua:"
)

// Predicate is a switch condition.
type Predicate func(k *Context) (bool, error)

var builtinPredicates = map[string]Predicate{
	PredicateCanSeePlayer: func(k *Context) (bool, error) {
		_, _, ok := k.visiblePlayer()
		return ok, nil
	},
	PredicateAdjacentToPlayer: func(k *Context) (bool, error) {
		pos, err := k.position()
		if err != nil {
			return false, err
		}
		_, at, ok := k.visiblePlayer()
		return ok && at.Level == pos.Level && pos.Coord.Adjacent(at.Coord), nil
	},
	// low_health holds at or below a third of maximum health. Entities
	// without health are never low.
	PredicateLowHealth: func(k *Context) (bool, error) {
		h, ok := k.World.Health(k.Self)
		if !ok || h.Max <= 0 {
			return false, nil
		}
		return h.Current*3 <= h.Max, nil
	},
}

// LookupPredicate resolves a predicate name.
//
// Postcondition: returns false for an unknown built-in or an empty Lua
// function name.
func LookupPredicate(name string) (Predicate, bool) {
	if fn, ok := strings.CutPrefix(name, luaPrefix); ok {
		if fn == "" {
			return nil, false
		}
		return luaPredicate(fn), true
	}
	p, ok := builtinPredicates[name]
	return p, ok
}

// luaPredicate calls fn with a table describing Self, scoped to Self's level.
func luaPredicate(fn string) Predicate {
	return func(k *Context) (bool, error) {
		if k.Scripts == nil {
			return false, fmt.Errorf("brain: predicate lua:%s needs a script caller", fn)
		}
		pos, err := k.position()
		if err != nil {
			return false, err
		}
		fields := map[string]any{
			"self":  uint64(k.Self),
			"level": pos.Level,
			"x":     pos.Coord.X,
			"y":     pos.Coord.Y,
			"turn":  k.Turn,
		}
		if h, ok := k.World.Health(k.Self); ok {
			fields["hp"] = h.Current
			fields["max_hp"] = h.Max
		}
		_, _, sees := k.visiblePlayer()
		fields["sees_player"] = sees
		return k.Scripts.Predicate(pos.Level, fn, fields)
	}
}

// Condition is a two-way switch. It picks WhenTrue or WhenFalse by
// Predicate on every descent.
type Condition struct {
	Predicate Predicate
	WhenTrue  behaviour.NodeIndex
	WhenFalse behaviour.NodeIndex
	// Reset restarts the chosen child instead of resuming it.
	Reset bool
	// Continue keeps the switch running when its child returns.
	Continue bool
}

// Call evaluates the predicate.
func (c Condition) Call(k *Context) (behaviour.SwitchResolution, error) {
	ok, err := c.Predicate(k)
	if err != nil {
		return behaviour.SwitchResolution{}, err
	}
	node := c.WhenFalse
	if ok {
		node = c.WhenTrue
	}
	if c.Reset {
		return behaviour.Reset(node), nil
	}
	return behaviour.Select(node), nil
}

// ReturnTo passes the child's result up unless Continue is set.
func (c Condition) ReturnTo(success bool) behaviour.SwitchReturn {
	if c.Continue {
		return behaviour.Continue()
	}
	return behaviour.ReturnWith(success)
}
