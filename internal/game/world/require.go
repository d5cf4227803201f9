package world

import (
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
)

// RequirePosition returns id's position or a *MissingComponentError.
func RequirePosition(v View, id entity.ID) (geom.Position, error) {
	p, ok := v.Position(id)
	if !ok {
		return geom.Position{}, Missing(id, "position")
	}
	return p, nil
}

// RequireHealth returns id's health or a *MissingComponentError.
func RequireHealth(v View, id entity.ID) (Health, error) {
	h, ok := v.Health(id)
	if !ok {
		return Health{}, Missing(id, "health")
	}
	return h, nil
}

// RequireSpeed returns id's speed or a *MissingComponentError.
func RequireSpeed(v View, id entity.ID) (uint64, error) {
	s, ok := v.Speed(id)
	if !ok {
		return 0, Missing(id, "speed")
	}
	return s, nil
}

// RequireDamage returns id's damage expression or a *MissingComponentError.
func RequireDamage(v View, id entity.ID) (string, error) {
	d, ok := v.Damage(id)
	if !ok {
		return "", Missing(id, "damage")
	}
	return d, nil
}

// FirstWithHealth returns the first occupant of cell that has a Health attribute.
func FirstWithHealth(v View, cell CellView) (entity.ID, bool) {
	for _, id := range cell.Entities {
		if _, ok := v.Health(id); ok {
			return id, true
		}
	}
	return entity.None, false
}

// FirstOfKind returns the first occupant of cell of kind k.
func FirstOfKind(v View, cell CellView, k entity.Kind) (entity.ID, bool) {
	for _, id := range cell.Entities {
		if got, _ := v.Kind(id); got == k {
			return id, true
		}
	}
	return entity.None, false
}
