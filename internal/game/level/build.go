package level

import (
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// Built is the result of spawning a campaign.
type Built struct {
	World  *world.World
	Player entity.ID
	// Stairs maps a level ID to where its down stairs lead.
	Stairs map[string]geom.Position
	// Actors lists every spawned entity with a Speed, player first, then in
	// map order. These are the entities that take turns.
	Actors []entity.ID
}

// Build creates a world holding every level of c.
//
// Precondition: c must be validated.
// Postcondition: Returns the populated world or the first creation error.
func Build(c *Campaign) (*Built, error) {
	w := world.New()
	b := &Built{World: w, Stairs: make(map[string]geom.Position)}
	for _, l := range c.Levels {
		if err := w.AddLevel(l.ID, l.Size()); err != nil {
			return nil, fmt.Errorf("adding level %q: %w", l.ID, err)
		}
		if l.StairsTo != nil {
			b.Stairs[l.ID] = *l.StairsTo
		}
	}

	var creatures []entity.ID
	for _, l := range c.Levels {
		for y, row := range l.Rows {
			for x, g := range row {
				pos := geom.Position{Level: l.ID, Coord: geom.C(x, y)}
				tpl, ok := c.template(g, pos)
				if !ok {
					continue
				}
				id, err := w.Create(tpl)
				if err != nil {
					return nil, fmt.Errorf("level %q: spawning %q at %s: %w", l.ID, g, pos.Coord, err)
				}
				switch {
				case g == GlyphPlayer:
					b.Player = id
				case tpl.Speed > 0:
					creatures = append(creatures, id)
				}
			}
		}
	}
	if b.Player.IsZero() {
		return nil, fmt.Errorf("level.Build: campaign %q has no player", c.ID)
	}
	b.Actors = append([]entity.ID{b.Player}, creatures...)
	return b, nil
}

func (c *Campaign) template(g rune, pos geom.Position) (world.Template, bool) {
	if k, ok := terrain[g]; ok {
		return world.Template{Kind: k, Position: pos}, true
	}
	var cr Creature
	switch g {
	case GlyphFloor, GlyphVoid:
		return world.Template{}, false
	case GlyphPlayer:
		cr = c.Player
	default:
		var ok bool
		if cr, ok = c.Bestiary[g]; !ok {
			return world.Template{}, false
		}
	}
	return world.Template{
		Kind:         cr.Kind,
		Position:     pos,
		Health:       cr.Health,
		Speed:        cr.Speed,
		Damage:       cr.Damage,
		Behaviour:    cr.Behaviour,
		VisionRadius: cr.VisionRadius,
	}, true
}
