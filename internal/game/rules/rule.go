// Package rules checks proposed actions against the world before they are
// committed.
//
// A Rule inspects one action and accepts it, rejects it, or consumes it in
// favour of a substitute, optionally emitting delayed reactions. A Chain runs
// rules in order and stops at the first reject or consume.
package rules

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/dice"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/knowledge"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// Resolution is a rule's verdict.
type Resolution uint8

const (
	Accept Resolution = iota
	Reject
	Consume
)

func (r Resolution) String() string {
	switch r {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case Consume:
		return "consume"
	}
	return fmt.Sprintf("resolution(%d)", uint8(r))
}

// Outcome is the result of one rule check.
//
// Invariant: Substitute is non-nil iff Resolution is Consume.
type Outcome struct {
	Resolution Resolution
	Substitute action.Args
	Reactions  []action.Reaction
}

// Accepted returns an Accept outcome with reactions.
func Accepted(reactions ...action.Reaction) Outcome {
	return Outcome{Resolution: Accept, Reactions: reactions}
}

// Rejected returns a Reject outcome with reactions.
func Rejected(reactions ...action.Reaction) Outcome {
	return Outcome{Resolution: Reject, Reactions: reactions}
}

// Consumed returns a Consume outcome replacing the action with substitute.
//
// Precondition: substitute must be non-nil.
func Consumed(substitute action.Args, reactions ...action.Reaction) Outcome {
	if substitute == nil {
		panic("rules.Consumed: substitute must not be nil")
	}
	return Outcome{Resolution: Consume, Substitute: substitute, Reactions: reactions}
}

// Roller rolls dice expressions.
type Roller interface {
	RollExpr(expr string) (dice.RollResult, error)
}

// IDAllocator reserves entity IDs for entities a rule wants spawned. A
// reserved ID is invisible until a Spawn naming it is committed.
type IDAllocator interface {
	Reserve() entity.ID
}

// Env is everything a rule may read. Rules never mutate the world.
type Env struct {
	World     world.View
	Knowledge *knowledge.Book
	Dice      Roller
	IDs       IDAllocator
	// Turn is the number of actions committed so far.
	Turn uint64
	// Time is the current absolute simulated time.
	Time uint64
}

// Rule is one independent check in the chain.
type Rule interface {
	// Name identifies the rule in logs and metrics.
	Name() string
	// Check evaluates a. A returned error is a data-integrity failure, such
	// as a *world.MissingComponentError, and aborts the chain.
	Check(env Env, a action.Args) (Outcome, error)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc struct {
	RuleName string
	Fn       func(env Env, a action.Args) (Outcome, error)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Check(env Env, a action.Args) (Outcome, error) { return r.Fn(env, a) }
