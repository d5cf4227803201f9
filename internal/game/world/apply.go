package world

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
)

// Delta summarises the effect of one applied action.
type Delta struct {
	// Spawned lists entities that became alive.
	Spawned []entity.ID
	// Destroyed lists entities that stopped being alive.
	Destroyed []entity.ID
	// Moved lists entities whose position changed.
	Moved []entity.ID
	// Changed lists entities whose other attributes changed.
	Changed []entity.ID
}

// Empty reports whether the action had no visible effect.
func (d Delta) Empty() bool {
	return len(d.Spawned)+len(d.Destroyed)+len(d.Moved)+len(d.Changed) == 0
}

// Apply commits a to the world. It is the only mutation point used by the
// turn loop, and either applies a completely or not at all.
//
// Postcondition: returns ErrNoSuchEntity if a names a dead entity, a
// *MissingComponentError if a required attribute is absent, and
// ErrUnknownLevel or ErrOutOfBounds for an invalid destination.
func (w *World) Apply(a action.Args) (Delta, error) {
	switch a := a.(type) {
	case action.Wait, action.Melee, action.Fire:
		if !w.Alive(a.Actor()) {
			return Delta{}, w.noSuchEntity(a.Actor())
		}
		return Delta{}, nil
	case action.Walk:
		return w.step(a.Entity, a.Direction)
	case action.ProjectileStep:
		return w.step(a.Projectile, a.Direction)
	case action.Spawn:
		return w.spawn(a)
	case action.ApplyDamage:
		return w.damageEntity(a)
	case action.Destroy:
		return w.destroy(a.Entity)
	case action.Transform:
		if !w.Alive(a.Entity) {
			return Delta{}, w.noSuchEntity(a.Entity)
		}
		if !a.Into.Valid() {
			return Delta{}, fmt.Errorf("transform %s: unknown entity kind %q", a.Entity, a.Into)
		}
		w.kinds.Set(a.Entity, a.Into)
		return Delta{Changed: []entity.ID{a.Entity}}, nil
	case action.LevelSwitch:
		if !w.Alive(a.Entity) {
			return Delta{}, w.noSuchEntity(a.Entity)
		}
		if !w.positions.Has(a.Entity) {
			return Delta{}, Missing(a.Entity, "position")
		}
		if err := w.move(a.Entity, geom.Position{Level: a.Level, Coord: a.Coord}); err != nil {
			return Delta{}, fmt.Errorf("level switch %s: %w", a.Entity, err)
		}
		return Delta{Moved: []entity.ID{a.Entity}}, nil
	case nil:
		return Delta{}, fmt.Errorf("apply: nil action")
	default:
		return Delta{}, fmt.Errorf("apply: unsupported action %T", a)
	}
}

func (w *World) noSuchEntity(id entity.ID) error {
	return fmt.Errorf("%w: %s", ErrNoSuchEntity, id)
}

func (w *World) step(id entity.ID, dir geom.Direction) (Delta, error) {
	if !w.Alive(id) {
		return Delta{}, w.noSuchEntity(id)
	}
	if !dir.Valid() {
		return Delta{}, fmt.Errorf("step %s: invalid direction %q", id, dir)
	}
	p, ok := w.positions.Get(id)
	if !ok {
		return Delta{}, Missing(id, "position")
	}
	p.Coord = p.Coord.Step(dir)
	if err := w.move(id, p); err != nil {
		return Delta{}, fmt.Errorf("step %s: %w", id, err)
	}
	return Delta{Moved: []entity.ID{id}}, nil
}

func (w *World) spawn(a action.Spawn) (Delta, error) {
	if !w.pool.Alive(a.Entity) {
		return Delta{}, fmt.Errorf("spawn %s: ID was not reserved", a.Entity)
	}
	if w.kinds.Has(a.Entity) {
		return Delta{}, fmt.Errorf("spawn %s: entity already alive", a.Entity)
	}
	if !a.As.Valid() {
		return Delta{}, fmt.Errorf("spawn %s: unknown entity kind %q", a.Entity, a.As)
	}
	if err := w.checkPosition(a.Position); err != nil {
		return Delta{}, fmt.Errorf("spawn %s: %w", a.Entity, err)
	}
	w.kinds.Set(a.Entity, a.As)
	w.place(a.Entity, a.Position)
	if a.Speed > 0 {
		w.speeds.Set(a.Entity, a.Speed)
	}
	if a.Damage != "" {
		w.damage.Set(a.Entity, a.Damage)
	}
	return Delta{Spawned: []entity.ID{a.Entity}}, nil
}

func (w *World) damageEntity(a action.ApplyDamage) (Delta, error) {
	if !w.Alive(a.Target) {
		return Delta{}, w.noSuchEntity(a.Target)
	}
	h, ok := w.health.Get(a.Target)
	if !ok {
		return Delta{}, Missing(a.Target, "health")
	}
	h.Current = max(h.Current-a.Amount, 0)
	w.health.Set(a.Target, h)
	return Delta{Changed: []entity.ID{a.Target}}, nil
}

func (w *World) destroy(id entity.ID) (Delta, error) {
	if !w.Alive(id) {
		return Delta{}, w.noSuchEntity(id)
	}
	w.unplace(id)
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
	return Delta{Destroyed: []entity.ID{id}}, nil
}
