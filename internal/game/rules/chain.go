package rules

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/action"
)

// Result is the verdict of a whole chain.
type Result struct {
	Resolution Resolution
	// Action is the substitute when Resolution is Consume, else nil.
	Action action.Args
	// Reactions are every reaction emitted when accepted, or only those of
	// the deciding rule when rejected or consumed.
	Reactions []action.Reaction
	// Rule names the rule that rejected or consumed. Empty on Accept.
	Rule string
}

// Chain runs rules in a fixed order.
type Chain struct {
	rules []Rule
}

// NewChain returns a Chain evaluating rules in the given order.
//
// Precondition: no rule may be nil.
func NewChain(rules ...Rule) *Chain {
	for i, r := range rules {
		if r == nil {
			panic(fmt.Sprintf("rules.NewChain: rule %d must not be nil", i))
		}
	}
	return &Chain{rules: append([]Rule(nil), rules...)}
}

// Names returns the rule names in evaluation order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate runs every rule against a until one rejects or consumes it.
//
// Reactions accumulate while rules accept. A reject or consume discards
// them and keeps only the deciding rule's reactions; later rules never run.
//
// Postcondition: a non-nil error names the failing rule and wraps its error.
func (c *Chain) Evaluate(env Env, a action.Args) (Result, error) {
	var reactions []action.Reaction
	for _, r := range c.rules {
		out, err := r.Check(env, a)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", r.Name(), err)
		}
		switch out.Resolution {
		case Accept:
			reactions = append(reactions, out.Reactions...)
		case Reject, Consume:
			if out.Resolution == Consume && out.Substitute == nil {
				return Result{}, fmt.Errorf("rule %s: consume without substitute", r.Name())
			}
			return Result{
				Resolution: out.Resolution,
				Action:     out.Substitute,
				Reactions:  out.Reactions,
				Rule:       r.Name(),
			}, nil
		default:
			return Result{}, fmt.Errorf("rule %s: unknown resolution %s", r.Name(), out.Resolution)
		}
	}
	return Result{Resolution: Accept, Reactions: reactions}, nil
}
