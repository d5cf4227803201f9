package rules

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// Default projectile parameters.
const (
	DefaultBulletSpeed  uint64 = 1
	DefaultBulletDamage        = "1d4"
)

// Options configures the gameplay rules.
type Options struct {
	// Stairs maps a level ID to where its down stairs lead.
	Stairs map[string]geom.Position
	// BulletSpeed is the time between projectile steps. 0 means DefaultBulletSpeed.
	BulletSpeed uint64
	// BulletDamage is used when the shooter has no Damage attribute.
	BulletDamage string
}

// Gameplay returns the gameplay rules in chain order.
func Gameplay(opts Options) []Rule {
	if opts.BulletSpeed == 0 {
		opts.BulletSpeed = DefaultBulletSpeed
	}
	if opts.BulletDamage == "" {
		opts.BulletDamage = DefaultBulletDamage
	}
	return []Rule{
		Existence{},
		Movement{Stairs: opts.Stairs},
		Combat{},
		Firing{BulletSpeed: opts.BulletSpeed, Damage: opts.BulletDamage},
		Projectile{},
		Damage{},
	}
}

// Existence rejects actions naming an entity that is no longer alive.
// Spawn is exempt because its entity only becomes alive on commit.
type Existence struct{}

func (Existence) Name() string { return "existence" }

func (Existence) Check(env Env, a action.Args) (Outcome, error) {
	switch a := a.(type) {
	case action.Spawn:
		if env.World.Alive(a.Entity) {
			return Rejected(), nil
		}
		return Accepted(), nil
	case action.Melee:
		if !env.World.Alive(a.Target) {
			return Rejected(), nil
		}
	}
	if !env.World.Alive(a.Actor()) {
		return Rejected(), nil
	}
	return Accepted(), nil
}

// Movement resolves walking into terrain and other entities.
//
// Walking into a closed door opens it instead. Walking into an entity of a
// different kind that has health attacks it. Other solid cells and the level
// edge block. Stepping onto down stairs switches level right after the step.
type Movement struct {
	Stairs map[string]geom.Position
}

func (Movement) Name() string { return "movement" }

func (m Movement) Check(env Env, a action.Args) (Outcome, error) {
	walk, ok := a.(action.Walk)
	if !ok {
		return Accepted(), nil
	}
	if !walk.Direction.Valid() {
		return Rejected(), nil
	}
	from, err := world.RequirePosition(env.World, walk.Entity)
	if err != nil {
		return Outcome{}, err
	}
	to := from.Coord.Step(walk.Direction)
	cell := env.World.OccupancyAt(from.Level, to)
	if !cell.InBounds {
		return Rejected(), nil
	}
	if door, ok := world.FirstOfKind(env.World, cell, entity.KindDoorClosed); ok {
		return Consumed(action.Transform{Entity: door, Into: entity.KindDoorOpen}), nil
	}
	if target, ok := world.FirstWithHealth(env.World, cell); ok {
		mine, _ := env.World.Kind(walk.Entity)
		theirs, _ := env.World.Kind(target)
		if mine == theirs {
			return Rejected(), nil
		}
		return Consumed(action.Melee{Attacker: walk.Entity, Target: target}), nil
	}
	if cell.Solid {
		return Rejected(), nil
	}
	if _, ok := world.FirstOfKind(env.World, cell, entity.KindStairsDown); ok {
		if dest, ok := m.Stairs[from.Level]; ok {
			return Accepted(action.Now(action.LevelSwitch{Entity: walk.Entity, Level: dest.Level, Coord: dest.Coord})), nil
		}
	}
	return Accepted(), nil
}

// Combat turns an adjacent melee strike into damage.
type Combat struct{}

func (Combat) Name() string { return "combat" }

func (Combat) Check(env Env, a action.Args) (Outcome, error) {
	melee, ok := a.(action.Melee)
	if !ok {
		return Accepted(), nil
	}
	ap, err := world.RequirePosition(env.World, melee.Attacker)
	if err != nil {
		return Outcome{}, err
	}
	tp, err := world.RequirePosition(env.World, melee.Target)
	if err != nil {
		return Outcome{}, err
	}
	if ap.Level != tp.Level || !ap.Coord.Adjacent(tp.Coord) {
		return Rejected(), nil
	}
	expr, err := world.RequireDamage(env.World, melee.Attacker)
	if err != nil {
		return Outcome{}, err
	}
	roll, err := env.Dice.RollExpr(expr)
	if err != nil {
		return Outcome{}, fmt.Errorf("rolling damage for %s: %w", melee.Attacker, err)
	}
	return Accepted(action.Now(action.ApplyDamage{
		Target: melee.Target,
		Amount: roll.Total(),
		Source: melee.Attacker,
	})), nil
}

// Firing replaces a Fire with the spawn of a bullet at the shooter's
// position and schedules the bullet's first step.
type Firing struct {
	BulletSpeed uint64
	Damage      string
}

func (Firing) Name() string { return "firing" }

func (f Firing) Check(env Env, a action.Args) (Outcome, error) {
	fire, ok := a.(action.Fire)
	if !ok {
		return Accepted(), nil
	}
	if fire.Range <= 0 || !fire.Direction.Valid() {
		return Rejected(), nil
	}
	pos, err := world.RequirePosition(env.World, fire.Entity)
	if err != nil {
		return Outcome{}, err
	}
	damage, ok := env.World.Damage(fire.Entity)
	if !ok {
		damage = f.Damage
	}
	bullet := env.IDs.Reserve()
	spawn := action.Spawn{
		Entity:   bullet,
		As:       entity.KindBullet,
		Position: pos,
		Speed:    f.BulletSpeed,
		Damage:   damage,
	}
	step := action.ProjectileStep{Projectile: bullet, Direction: fire.Direction, Remaining: fire.Range}
	return Consumed(spawn, action.After(f.BulletSpeed, step)), nil
}

// Projectile moves bullets, hits whatever has health in their path and
// removes them when they are spent or blocked.
type Projectile struct{}

func (Projectile) Name() string { return "projectile" }

func (Projectile) Check(env Env, a action.Args) (Outcome, error) {
	step, ok := a.(action.ProjectileStep)
	if !ok {
		return Accepted(), nil
	}
	destroy := action.Destroy{Entity: step.Projectile}
	if step.Remaining <= 0 {
		return Consumed(destroy), nil
	}
	pos, err := world.RequirePosition(env.World, step.Projectile)
	if err != nil {
		return Outcome{}, err
	}
	cell := env.World.OccupancyAt(pos.Level, pos.Coord.Step(step.Direction))
	if !cell.InBounds {
		return Consumed(destroy), nil
	}
	if target, ok := world.FirstWithHealth(env.World, cell); ok {
		expr, err := world.RequireDamage(env.World, step.Projectile)
		if err != nil {
			return Outcome{}, err
		}
		roll, err := env.Dice.RollExpr(expr)
		if err != nil {
			return Outcome{}, fmt.Errorf("rolling damage for %s: %w", step.Projectile, err)
		}
		hit := action.ApplyDamage{Target: target, Amount: roll.Total(), Source: step.Projectile}
		return Consumed(hit, action.Now(destroy)), nil
	}
	if cell.Solid {
		return Consumed(destroy), nil
	}
	speed, err := world.RequireSpeed(env.World, step.Projectile)
	if err != nil {
		return Outcome{}, err
	}
	next := step
	next.Remaining--
	return Accepted(action.After(speed, next)), nil
}

// Damage destroys entities whose health a blow would exhaust.
type Damage struct{}

func (Damage) Name() string { return "damage" }

func (Damage) Check(env Env, a action.Args) (Outcome, error) {
	dmg, ok := a.(action.ApplyDamage)
	if !ok {
		return Accepted(), nil
	}
	h, err := world.RequireHealth(env.World, dmg.Target)
	if err != nil {
		return Outcome{}, err
	}
	if dmg.Amount <= 0 {
		return Rejected(), nil
	}
	if h.Current-dmg.Amount <= 0 {
		return Accepted(action.Now(action.Destroy{Entity: dmg.Target})), nil
	}
	return Accepted(), nil
}
