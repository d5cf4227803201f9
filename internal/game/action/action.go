// Package action defines the closed set of game effects that entities
// propose, rules check, and the world commits.
//
// Every Args value is plain data: entity identifiers and parameters, no
// behaviour. The set is closed by the unexported marker method.
package action

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
)

// EntityID identifies an entity.
type EntityID = entity.ID

// Kind names an Args variant.
type Kind string

const (
	KindWait           Kind = "wait"
	KindWalk           Kind = "walk"
	KindMelee          Kind = "melee"
	KindFire           Kind = "fire"
	KindSpawn          Kind = "spawn"
	KindProjectileStep Kind = "projectile_step"
	KindApplyDamage    Kind = "apply_damage"
	KindDestroy        Kind = "destroy"
	KindTransform      Kind = "transform"
	KindLevelSwitch    Kind = "level_switch"
)

// Args is one proposed game effect.
type Args interface {
	// Kind names the variant.
	Kind() Kind
	// Actor returns the entity performing or suffering the effect.
	Actor() EntityID
	isArgs()
}

// Wait spends a turn doing nothing.
type Wait struct {
	Entity EntityID `json:"entity"`
}

// Walk moves Entity one cell in Direction.
type Walk struct {
	Entity    EntityID       `json:"entity"`
	Direction geom.Direction `json:"direction"`
}

// Melee strikes an adjacent Target.
type Melee struct {
	Attacker EntityID `json:"attacker"`
	Target   EntityID `json:"target"`
}

// Fire launches a projectile from Entity travelling up to Range cells.
type Fire struct {
	Entity    EntityID       `json:"entity"`
	Direction geom.Direction `json:"direction"`
	Range     int            `json:"range"`
}

// Spawn brings a reserved entity into the world.
type Spawn struct {
	Entity EntityID `json:"entity"`
	// As is the kind the spawned entity takes.
	As       entity.Kind   `json:"kind"`
	Position geom.Position `json:"position"`
	// Speed is the time between the spawned entity's steps. 0 means none.
	Speed uint64 `json:"speed,omitempty"`
	// Damage is the dice expression the spawned entity deals on contact.
	Damage string `json:"damage,omitempty"`
}

// ProjectileStep advances a projectile one cell with Remaining steps left after it.
type ProjectileStep struct {
	Projectile EntityID       `json:"projectile"`
	Direction  geom.Direction `json:"direction"`
	Remaining  int            `json:"remaining"`
}

// ApplyDamage removes Amount hit points from Target.
type ApplyDamage struct {
	Target EntityID `json:"target"`
	Amount int      `json:"amount"`
	Source EntityID `json:"source"`
}

// Destroy removes Entity from the world.
type Destroy struct {
	Entity EntityID `json:"entity"`
}

// Transform changes the kind of Entity, e.g. opening a door.
type Transform struct {
	Entity EntityID    `json:"entity"`
	Into   entity.Kind `json:"into"`
}

// LevelSwitch moves Entity to Coord on Level.
type LevelSwitch struct {
	Entity EntityID   `json:"entity"`
	Level  string     `json:"level"`
	Coord  geom.Coord `json:"coord"`
}

func (Wait) Kind() Kind           { return KindWait }
func (Walk) Kind() Kind           { return KindWalk }
func (Melee) Kind() Kind          { return KindMelee }
func (Fire) Kind() Kind           { return KindFire }
func (Spawn) Kind() Kind          { return KindSpawn }
func (ProjectileStep) Kind() Kind { return KindProjectileStep }
func (ApplyDamage) Kind() Kind    { return KindApplyDamage }
func (Destroy) Kind() Kind        { return KindDestroy }
func (Transform) Kind() Kind      { return KindTransform }
func (LevelSwitch) Kind() Kind    { return KindLevelSwitch }

func (a Wait) Actor() EntityID           { return a.Entity }
func (a Walk) Actor() EntityID           { return a.Entity }
func (a Melee) Actor() EntityID          { return a.Attacker }
func (a Fire) Actor() EntityID           { return a.Entity }
func (a Spawn) Actor() EntityID          { return a.Entity }
func (a ProjectileStep) Actor() EntityID { return a.Projectile }
func (a ApplyDamage) Actor() EntityID    { return a.Target }
func (a Destroy) Actor() EntityID        { return a.Entity }
func (a Transform) Actor() EntityID      { return a.Entity }
func (a LevelSwitch) Actor() EntityID    { return a.Entity }

func (Wait) isArgs()           {}
func (Walk) isArgs()           {}
func (Melee) isArgs()          {}
func (Fire) isArgs()           {}
func (Spawn) isArgs()          {}
func (ProjectileStep) isArgs() {}
func (ApplyDamage) isArgs()    {}
func (Destroy) isArgs()        {}
func (Transform) isArgs()      {}
func (LevelSwitch) isArgs()    {}

// Reaction is a follow-up action that fires Delay time units after the
// action that produced it was processed.
type Reaction struct {
	Action Args
	Delay  uint64
}

// After returns a Reaction firing a after delay.
func After(delay uint64, a Args) Reaction {
	return Reaction{Action: a, Delay: delay}
}

// Now returns a Reaction firing a at the same instant.
func Now(a Args) Reaction {
	return Reaction{Action: a}
}

// Describe renders a for logs.
func Describe(a Args) string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%+v", a.Kind(), a)
}
