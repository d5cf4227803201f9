package rules

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/action"
)

// DefaultScriptHook is the Lua function the Script rule calls.
const DefaultScriptHook = "check_action"

// ActionChecker runs a script hook over an action's fields and reports
// whether the script vetoed it. *scripting.Manager implements it.
type ActionChecker interface {
	CheckAction(scope, hook string, fields map[string]any) (reject bool, err error)
}

// Script lets content scripts reject actions. The hook is looked up in the
// VM of the actor's level, falling back to the global VM.
type Script struct {
	Checker ActionChecker
	Hook    string
}

// NewScript returns a Script rule calling hook, or DefaultScriptHook if empty.
//
// Precondition: checker must be non-nil.
func NewScript(checker ActionChecker, hook string) Script {
	if checker == nil {
		panic("rules.NewScript: checker must not be nil")
	}
	if hook == "" {
		hook = DefaultScriptHook
	}
	return Script{Checker: checker, Hook: hook}
}

func (Script) Name() string { return "script" }

func (s Script) Check(env Env, a action.Args) (Outcome, error) {
	fields := action.Fields(a)
	fields["turn"] = env.Turn
	fields["time"] = env.Time
	var scope string
	if p, ok := env.World.Position(a.Actor()); ok {
		scope = p.Level
	}
	reject, err := s.Checker.CheckAction(scope, s.Hook, fields)
	if err != nil {
		return Outcome{}, fmt.Errorf("script hook %s: %w", s.Hook, err)
	}
	if reject {
		return Rejected(), nil
	}
	return Accepted(), nil
}
