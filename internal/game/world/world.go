// Package world owns persistent game state: entities, their attributes and
// the spatial occupancy of every level.
//
// Readers get a View. Only World.Apply mutates state during play, one
// committed action at a time.
package world

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
)

var (
	// ErrMissingComponent is matched by every *MissingComponentError.
	ErrMissingComponent = errors.New("world: missing component")
	// ErrNoSuchEntity is returned when an action names an entity that is not alive.
	ErrNoSuchEntity = errors.New("world: no such entity")
	// ErrUnknownLevel is returned for a level ID that was never added.
	ErrUnknownLevel = errors.New("world: unknown level")
	// ErrOutOfBounds is returned when a coordinate lies outside its level.
	ErrOutOfBounds = errors.New("world: coordinate out of bounds")
)

// MissingComponentError reports an entity lacking an attribute an operation
// requires. It is a data-integrity error, not a game outcome.
type MissingComponentError struct {
	Entity    entity.ID
	Component string
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("entity %s has no %s component", e.Entity, e.Component)
}

// Is makes errors.Is(err, ErrMissingComponent) hold.
func (e *MissingComponentError) Is(target error) bool {
	return target == ErrMissingComponent
}

// Missing returns a *MissingComponentError for id and component.
func Missing(id entity.ID, component string) error {
	return &MissingComponentError{Entity: id, Component: component}
}

// Health is an entity's hit points.
type Health struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Dead reports whether no hit points remain.
func (h Health) Dead() bool { return h.Current <= 0 }

// Level is a bounded grid.
type Level struct {
	ID   string
	Size geom.Size
}

// CellView is the read-only summary of one cell.
type CellView struct {
	// InBounds is false for coordinates outside the level; the other fields are then empty.
	InBounds bool
	// Entities lists the occupants in arrival order.
	Entities []entity.ID
	// Solid is true if any occupant blocks movement.
	Solid bool
	// Opaque is true if any occupant blocks sight.
	Opaque bool
}

// View is the read-only query interface over world state handed to rules
// and behaviour leaves.
type View interface {
	Alive(id entity.ID) bool
	Level(id string) (Level, bool)
	OccupancyAt(level string, c geom.Coord) CellView
	Player() (entity.ID, bool)

	Position(id entity.ID) (geom.Position, bool)
	Health(id entity.ID) (Health, bool)
	Kind(id entity.ID) (entity.Kind, bool)
	Speed(id entity.ID) (uint64, bool)
	Damage(id entity.ID) (string, bool)
	Behaviour(id entity.ID) (string, bool)
	VisionRadius(id entity.ID) (int, bool)
}

// Template lists the attributes of an entity created at setup time. Zero
// values for optional attributes mean the entity lacks them.
type Template struct {
	Kind         entity.Kind
	Position     geom.Position
	Health       int
	Speed        uint64
	Damage       string
	Behaviour    string
	VisionRadius int
}

// World is the authoritative game state. It is not safe for concurrent use.
//
// Invariant: an entity appears in exactly one occupancy cell iff it is alive
// and has a Position.
type World struct {
	pool     *entity.Pool
	registry entity.Registry

	kinds      *entity.Store[entity.Kind]
	positions  *entity.Store[geom.Position]
	health     *entity.Store[Health]
	speeds     *entity.Store[uint64]
	damage     *entity.Store[string]
	behaviours *entity.Store[string]
	vision     *entity.Store[int]

	levels    map[string]Level
	occupancy map[string]map[geom.Coord][]entity.ID
}

// New returns an empty World.
func New() *World {
	w := &World{
		pool:       entity.NewPool(),
		kinds:      entity.NewStore[entity.Kind](),
		positions:  entity.NewStore[geom.Position](),
		health:     entity.NewStore[Health](),
		speeds:     entity.NewStore[uint64](),
		damage:     entity.NewStore[string](),
		behaviours: entity.NewStore[string](),
		vision:     entity.NewStore[int](),
		levels:     make(map[string]Level),
		occupancy:  make(map[string]map[geom.Coord][]entity.ID),
	}
	w.registry.Register(w.kinds)
	w.registry.Register(w.positions)
	w.registry.Register(w.health)
	w.registry.Register(w.speeds)
	w.registry.Register(w.damage)
	w.registry.Register(w.behaviours)
	w.registry.Register(w.vision)
	return w
}

// AddLevel registers a level.
//
// Precondition: id must be non-empty and size positive in both dimensions.
func (w *World) AddLevel(id string, size geom.Size) error {
	if id == "" {
		return fmt.Errorf("level ID must not be empty")
	}
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("level %q: size must be positive, got %dx%d", id, size.Width, size.Height)
	}
	if _, exists := w.levels[id]; exists {
		return fmt.Errorf("duplicate level ID %q", id)
	}
	w.levels[id] = Level{ID: id, Size: size}
	w.occupancy[id] = make(map[geom.Coord][]entity.ID)
	return nil
}

// Reserve allocates an ID that is not alive until a Spawn naming it is applied.
func (w *World) Reserve() entity.ID {
	return w.pool.Create()
}

// Create spawns an entity from t immediately. It is meant for level setup,
// outside the turn loop.
//
// Postcondition: returns the live entity's ID, or an error if t is invalid.
func (w *World) Create(t Template) (entity.ID, error) {
	if !t.Kind.Valid() {
		return entity.None, fmt.Errorf("unknown entity kind %q", t.Kind)
	}
	if err := w.checkPosition(t.Position); err != nil {
		return entity.None, err
	}
	id := w.pool.Create()
	w.kinds.Set(id, t.Kind)
	w.place(id, t.Position)
	if t.Health > 0 {
		w.health.Set(id, Health{Current: t.Health, Max: t.Health})
	}
	if t.Speed > 0 {
		w.speeds.Set(id, t.Speed)
	}
	if t.Damage != "" {
		w.damage.Set(id, t.Damage)
	}
	if t.Behaviour != "" {
		w.behaviours.Set(id, t.Behaviour)
	}
	if t.VisionRadius > 0 {
		w.vision.Set(id, t.VisionRadius)
	}
	return id, nil
}

// Alive reports whether id has been spawned and not destroyed.
func (w *World) Alive(id entity.ID) bool {
	return w.pool.Alive(id) && w.kinds.Has(id)
}

func (w *World) Level(id string) (Level, bool) {
	l, ok := w.levels[id]
	return l, ok
}

// Levels returns the IDs of all levels in ascending order.
func (w *World) Levels() []string {
	ids := make([]string, 0, len(w.levels))
	for id := range w.levels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// OccupancyAt summarises the cell at c on level.
func (w *World) OccupancyAt(level string, c geom.Coord) CellView {
	l, ok := w.levels[level]
	if !ok || !l.Size.Contains(c) {
		return CellView{}
	}
	ids := w.occupancy[level][c]
	cell := CellView{InBounds: true, Entities: slices.Clone(ids)}
	for _, id := range ids {
		k, _ := w.kinds.Get(id)
		cell.Solid = cell.Solid || k.Solid()
		cell.Opaque = cell.Opaque || k.Opaque()
	}
	return cell
}

// Player returns the lowest live ID of kind player.
func (w *World) Player() (entity.ID, bool) {
	for _, id := range w.kinds.IDs() {
		if k, _ := w.kinds.Get(id); k == entity.KindPlayer {
			return id, true
		}
	}
	return entity.None, false
}

// Entities returns every live entity in ascending ID order.
func (w *World) Entities() []entity.ID { return w.kinds.IDs() }

func (w *World) Position(id entity.ID) (geom.Position, bool) { return w.positions.Get(id) }
func (w *World) Health(id entity.ID) (Health, bool)          { return w.health.Get(id) }
func (w *World) Kind(id entity.ID) (entity.Kind, bool)       { return w.kinds.Get(id) }
func (w *World) Speed(id entity.ID) (uint64, bool)           { return w.speeds.Get(id) }
func (w *World) Damage(id entity.ID) (string, bool)          { return w.damage.Get(id) }
func (w *World) Behaviour(id entity.ID) (string, bool)       { return w.behaviours.Get(id) }
func (w *World) VisionRadius(id entity.ID) (int, bool)       { return w.vision.Get(id) }

func (w *World) checkPosition(p geom.Position) error {
	l, ok := w.levels[p.Level]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, p.Level)
	}
	if !l.Size.Contains(p.Coord) {
		return fmt.Errorf("%w: %s on level %q", ErrOutOfBounds, p.Coord, p.Level)
	}
	return nil
}

func (w *World) place(id entity.ID, p geom.Position) {
	w.positions.Set(id, p)
	cells := w.occupancy[p.Level]
	cells[p.Coord] = append(cells[p.Coord], id)
}

func (w *World) unplace(id entity.ID) {
	p, ok := w.positions.Get(id)
	if !ok {
		return
	}
	cells := w.occupancy[p.Level]
	ids := slices.DeleteFunc(cells[p.Coord], func(o entity.ID) bool { return o == id })
	if len(ids) == 0 {
		delete(cells, p.Coord)
	} else {
		cells[p.Coord] = ids
	}
	w.positions.Remove(id)
}

func (w *World) move(id entity.ID, to geom.Position) error {
	if err := w.checkPosition(to); err != nil {
		return err
	}
	w.unplace(id)
	w.place(id, to)
	return nil
}
