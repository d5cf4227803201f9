package scripting

import (
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// WorldQuery returns a QueryEntity function reading live entities from v.
//
// Precondition: v must be non-nil.
func WorldQuery(v world.View) func(id uint64) *EntityInfo {
	if v == nil {
		panic("scripting.WorldQuery: view must not be nil")
	}
	return func(raw uint64) *EntityInfo {
		id := entity.ID(raw)
		if !v.Alive(id) {
			return nil
		}
		kind, _ := v.Kind(id)
		info := &EntityInfo{
			ID:     raw,
			Kind:   string(kind),
			Player: kind == entity.KindPlayer,
		}
		if p, ok := v.Position(id); ok {
			info.Level = p.Level
			info.X, info.Y = p.Coord.X, p.Coord.Y
		}
		if h, ok := v.Health(id); ok {
			info.HP, info.MaxHP = h.Current, h.Max
		}
		return info
	}
}
