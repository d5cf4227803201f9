// Package geom provides grid coordinates, compass directions and level positions.
package geom

import "fmt"

// Coord is a cell on a level grid. X grows east, Y grows south.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// C returns the Coord (x, y).
func C(x, y int) Coord { return Coord{X: x, Y: y} }

// Add returns c translated by d.
func (c Coord) Add(d Coord) Coord { return Coord{X: c.X + d.X, Y: c.Y + d.Y} }

// Sub returns the offset from o to c.
func (c Coord) Sub(o Coord) Coord { return Coord{X: c.X - o.X, Y: c.Y - o.Y} }

// Step returns the neighbour of c in direction d.
func (c Coord) Step(d Direction) Coord { return c.Add(d.Delta()) }

// Chebyshev returns the king-move distance between c and o.
func (c Coord) Chebyshev(o Coord) int {
	d := c.Sub(o)
	return max(abs(d.X), abs(d.Y))
}

// Adjacent reports whether o is one of the eight neighbours of c.
func (c Coord) Adjacent(o Coord) bool { return c != o && c.Chebyshev(o) == 1 }

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Position places an entity on a named level.
type Position struct {
	Level string `json:"level" yaml:"level"`
	Coord Coord  `json:"coord" yaml:"coord"`
}

// Size is the extent of a level grid.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Contains reports whether c lies inside a grid of size s.
func (s Size) Contains(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < s.Width && c.Y < s.Height
}

// Direction is one of the eight compass directions.
type Direction string

const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
)

// Directions lists all compass directions in clockwise order from north.
var Directions = []Direction{
	North, Northeast, East, Southeast, South, Southwest, West, Northwest,
}

// Valid reports whether d is one of the eight compass directions.
func (d Direction) Valid() bool {
	_, ok := deltas[d]
	return ok
}

// Delta returns the unit offset of d, or the zero Coord for an invalid direction.
func (d Direction) Delta() Coord { return deltas[d] }

// Opposite returns the reverse of d.
//
// Precondition: d should be valid for a meaningful result.
func (d Direction) Opposite() Direction {
	delta := d.Delta()
	dir, _ := Toward(Coord{}, Coord{X: -delta.X, Y: -delta.Y})
	return dir
}

// Toward returns the direction of the first step from from to to.
//
// Postcondition: ok is false when from == to.
func Toward(from, to Coord) (Direction, bool) {
	d := to.Sub(from)
	step := Coord{X: sign(d.X), Y: sign(d.Y)}
	for dir, delta := range deltas {
		if delta == step {
			return dir, true
		}
	}
	return "", false
}

var deltas = map[Direction]Coord{
	North:     {X: 0, Y: -1},
	Northeast: {X: 1, Y: -1},
	East:      {X: 1, Y: 0},
	Southeast: {X: 1, Y: 1},
	South:     {X: 0, Y: 1},
	Southwest: {X: -1, Y: 1},
	West:      {X: -1, Y: 0},
	Northwest: {X: -1, Y: -1},
}

// Line returns the cells from a to b inclusive along a Bresenham line.
func Line(a, b Coord) []Coord {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	e := dx + dy
	out := make([]Coord, 0, max(dx, -dy)+1)
	for c := a; ; {
		out = append(out, c)
		if c == b {
			return out
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			c.X += sx
		}
		if e2 <= dx {
			e += dx
			c.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
