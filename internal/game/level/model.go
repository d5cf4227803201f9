// Package level describes hand-authored level layouts and spawns them into
// a world.
//
// A Campaign is a set of ASCII-mapped levels joined by down stairs, a
// bestiary of creature templates keyed by map glyph and the player's
// starting attributes.
package level

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
)

// Terrain glyphs understood in level maps. Any other glyph must name a
// bestiary entry.
const (
	GlyphFloor      = '.'
	GlyphWall       = '#'
	GlyphDoorClosed = '+'
	GlyphDoorOpen   = '\''
	GlyphStairsDown = '>'
	GlyphPlayer     = '@'
	GlyphVoid       = ' '
)

// Creature is a bestiary template.
type Creature struct {
	Kind         entity.Kind
	Health       int
	Speed        uint64
	Damage       string
	Behaviour    string
	VisionRadius int
}

// Level is one map.
type Level struct {
	ID   string
	Name string
	// Rows are the map lines, top first. Short rows are padded with void.
	Rows []string
	// StairsTo is where the level's down stairs lead. Nil when it has none.
	StairsTo *geom.Position
	// ScriptDir holds Lua scripts scoped to this level. Empty = none.
	ScriptDir string
}

// Size returns the level's extent.
func (l *Level) Size() geom.Size {
	w := 0
	for _, r := range l.Rows {
		w = max(w, len(r))
	}
	return geom.Size{Width: w, Height: len(l.Rows)}
}

// Campaign is a complete set of levels.
//
// Invariant: after Validate, exactly one '@' exists in Start, every glyph
// resolves, and every stairs destination is an in-bounds cell of a known level.
type Campaign struct {
	ID       string
	Start    string
	Player   Creature
	Bestiary map[rune]Creature
	Levels   []*Level
}

// LevelByID returns the level with id.
func (c *Campaign) LevelByID(id string) (*Level, bool) {
	for _, l := range c.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

var terrain = map[rune]entity.Kind{
	GlyphWall:       entity.KindWall,
	GlyphDoorClosed: entity.KindDoorClosed,
	GlyphDoorOpen:   entity.KindDoorOpen,
	GlyphStairsDown: entity.KindStairsDown,
}

// Validate checks required fields and cross references.
//
// Postcondition: nil return guarantees Build succeeds on an empty world.
func (c *Campaign) Validate() error {
	if c.ID == "" {
		return errors.New("level.Campaign: ID must not be empty")
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("level.Campaign %q: must have at least one level", c.ID)
	}
	if c.Player.Speed == 0 {
		return fmt.Errorf("level.Campaign %q: player speed must be >= 1", c.ID)
	}
	if c.Player.Health <= 0 {
		return fmt.Errorf("level.Campaign %q: player health must be >= 1", c.ID)
	}
	for g, cr := range c.Bestiary {
		if _, clash := terrain[g]; clash || g == GlyphFloor || g == GlyphPlayer || g == GlyphVoid {
			return fmt.Errorf("level.Campaign %q: bestiary glyph %q is reserved", c.ID, g)
		}
		if !cr.Kind.Valid() {
			return fmt.Errorf("level.Campaign %q: bestiary glyph %q has unknown kind %q", c.ID, g, cr.Kind)
		}
	}

	ids := make(map[string]*Level, len(c.Levels))
	for _, l := range c.Levels {
		if l.ID == "" {
			return fmt.Errorf("level.Campaign %q: level has empty ID", c.ID)
		}
		if _, dup := ids[l.ID]; dup {
			return fmt.Errorf("level.Campaign %q: duplicate level ID %q", c.ID, l.ID)
		}
		ids[l.ID] = l
		if sz := l.Size(); sz.Width == 0 || sz.Height == 0 {
			return fmt.Errorf("level.Campaign %q level %q: map must not be empty", c.ID, l.ID)
		}
	}
	if _, ok := ids[c.Start]; !ok {
		return fmt.Errorf("level.Campaign %q: start %q references unknown level", c.ID, c.Start)
	}

	players := 0
	for _, l := range c.Levels {
		stairs := 0
		for y, row := range l.Rows {
			for x, g := range row {
				switch {
				case g == GlyphPlayer:
					if l.ID != c.Start {
						return fmt.Errorf("level.Campaign %q level %q: player at (%d,%d) outside the start level", c.ID, l.ID, x, y)
					}
					players++
				case g == GlyphStairsDown:
					stairs++
				case g == GlyphFloor || g == GlyphVoid:
				default:
					if _, ok := terrain[g]; ok {
						continue
					}
					if _, ok := c.Bestiary[g]; !ok {
						return fmt.Errorf("level.Campaign %q level %q: unknown glyph %q at (%d,%d)", c.ID, l.ID, g, x, y)
					}
				}
			}
		}
		if l.StairsTo != nil {
			if stairs == 0 {
				return fmt.Errorf("level.Campaign %q level %q: stairs_to set but map has no '>'", c.ID, l.ID)
			}
			dest, ok := ids[l.StairsTo.Level]
			if !ok {
				return fmt.Errorf("level.Campaign %q level %q: stairs lead to unknown level %q", c.ID, l.ID, l.StairsTo.Level)
			}
			if !dest.Size().Contains(l.StairsTo.Coord) {
				return fmt.Errorf("level.Campaign %q level %q: stairs destination %s out of bounds", c.ID, l.ID, l.StairsTo.Coord)
			}
		}
	}
	if players != 1 {
		return fmt.Errorf("level.Campaign %q: start level must contain exactly one '@', found %d", c.ID, players)
	}
	return nil
}
