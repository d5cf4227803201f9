// Package knowledge holds what each entity has observed of the world.
//
// A Store is an entity's possibly stale memory of cells keyed by level and
// coordinate. It only changes through Observe, which copies what the entity
// can currently see out of a world.View.
package knowledge

import (
	"slices"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// DefaultVisionRadius applies to observers without a VisionRadius attribute.
const DefaultVisionRadius = 6

// Cell is the remembered content of one grid cell.
type Cell struct {
	Entities []entity.ID
	Kinds    []entity.Kind
	Solid    bool
	Opaque   bool
	// Turn is when the cell was last seen.
	Turn uint64
}

func (c Cell) sameContent(o Cell) bool {
	return c.Solid == o.Solid && c.Opaque == o.Opaque &&
		slices.Equal(c.Entities, o.Entities) && slices.Equal(c.Kinds, o.Kinds)
}

// Sighting is the last place an entity was seen.
type Sighting struct {
	Position geom.Position
	Turn     uint64
}

// Store is one entity's knowledge.
type Store struct {
	levels    map[string]map[geom.Coord]Cell
	sightings map[entity.ID]Sighting
	visible   map[geom.Coord]struct{}
	level     string
	version   uint64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		levels:    make(map[string]map[geom.Coord]Cell),
		sightings: make(map[entity.ID]Sighting),
		visible:   make(map[geom.Coord]struct{}),
	}
}

// Version increments every time an observation changes the store.
func (s *Store) Version() uint64 { return s.version }

// Level returns the level of the most recent observation.
func (s *Store) Level() string { return s.level }

// Cell returns the remembered cell at c on level.
func (s *Store) Cell(level string, c geom.Coord) (Cell, bool) {
	cell, ok := s.levels[level][c]
	return cell, ok
}

// Visible reports whether c on the current level was in sight at the last observation.
func (s *Store) Visible(c geom.Coord) bool {
	_, ok := s.visible[c]
	return ok
}

// LastSeen returns where id was last observed.
func (s *Store) LastSeen(id entity.ID) (Sighting, bool) {
	sg, ok := s.sightings[id]
	return sg, ok
}

// Sees reports whether id was in sight at the last observation.
func (s *Store) Sees(id entity.ID) bool {
	sg, ok := s.sightings[id]
	if !ok || sg.Position.Level != s.level || !s.Visible(sg.Position.Coord) {
		return false
	}
	return slices.Contains(s.levels[s.level][sg.Position.Coord].Entities, id)
}

// Forget drops everything id was last seen doing.
func (s *Store) Forget(id entity.ID) {
	delete(s.sightings, id)
}

// Observe updates the store with everything observer can see at turn.
//
// A cell is visible when it lies within the observer's vision radius and no
// opaque cell lies strictly between it and the observer. An opaque cell in
// radius that touches a visible transparent cell is visible too, so the
// walls of a corridor show along its whole length.
//
// Postcondition: changed is true iff Version was incremented. Returns a
// *world.MissingComponentError if observer has no position.
func (s *Store) Observe(v world.View, observer entity.ID, turn uint64) (changed bool, err error) {
	pos, err := world.RequirePosition(v, observer)
	if err != nil {
		return false, err
	}
	lvl, ok := v.Level(pos.Level)
	if !ok {
		return false, world.ErrUnknownLevel
	}
	radius, ok := v.VisionRadius(observer)
	if !ok {
		radius = DefaultVisionRadius
	}

	if s.level != pos.Level {
		s.level = pos.Level
		changed = true
	}
	cells := s.levels[pos.Level]
	if cells == nil {
		cells = make(map[geom.Coord]Cell)
		s.levels[pos.Level] = cells
	}

	visible := s.sight(v, pos.Level, lvl.Size, pos.Coord, radius)
	for c := range visible {
		view := v.OccupancyAt(pos.Level, c)
		cell := Cell{
			Entities: view.Entities,
			Solid:    view.Solid,
			Opaque:   view.Opaque,
			Turn:     turn,
		}
		for _, id := range view.Entities {
			k, _ := v.Kind(id)
			cell.Kinds = append(cell.Kinds, k)
			s.sightings[id] = Sighting{Position: geom.Position{Level: pos.Level, Coord: c}, Turn: turn}
		}
		if old, seen := cells[c]; !seen || !old.sameContent(cell) {
			changed = true
		}
		cells[c] = cell
	}
	if len(visible) != len(s.visible) {
		changed = true
	} else {
		for c := range visible {
			if _, ok := s.visible[c]; !ok {
				changed = true
				break
			}
		}
	}
	s.visible = visible
	if changed {
		s.version++
	}
	return changed, nil
}

func (s *Store) sight(v world.View, level string, size geom.Size, origin geom.Coord, radius int) map[geom.Coord]struct{} {
	visible := make(map[geom.Coord]struct{}, len(s.visible))
	var walls []geom.Coord
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			c := geom.C(x, y)
			if !size.Contains(c) {
				continue
			}
			if s.lineOfSight(v, level, origin, c) {
				visible[c] = struct{}{}
			} else if v.OccupancyAt(level, c).Opaque {
				walls = append(walls, c)
			}
		}
	}
	for _, c := range walls {
		for _, d := range geom.Directions {
			n := c.Step(d)
			if _, ok := visible[n]; ok && !v.OccupancyAt(level, n).Opaque {
				visible[c] = struct{}{}
				break
			}
		}
	}
	return visible
}

func (s *Store) lineOfSight(v world.View, level string, from, to geom.Coord) bool {
	line := geom.Line(from, to)
	if len(line) <= 2 {
		return true
	}
	for _, c := range line[1 : len(line)-1] {
		if v.OccupancyAt(level, c).Opaque {
			return false
		}
	}
	return true
}

// Book keeps one Store per entity.
type Book struct {
	stores map[entity.ID]*Store
}

// NewBook returns an empty Book.
func NewBook() *Book {
	return &Book{stores: make(map[entity.ID]*Store)}
}

// For returns id's Store, creating it on first use.
func (b *Book) For(id entity.ID) *Store {
	s, ok := b.stores[id]
	if !ok {
		s = NewStore()
		b.stores[id] = s
	}
	return s
}

// Drop discards id's Store and removes id from every other store's sightings.
func (b *Book) Drop(id entity.ID) {
	delete(b.stores, id)
	for _, s := range b.stores {
		s.Forget(id)
	}
}
