package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDirection_Opposite(t *testing.T) {
	pairs := [][2]Direction{
		{North, South},
		{East, West},
		{Northeast, Southwest},
		{Northwest, Southeast},
	}
	for _, pair := range pairs {
		assert.Equal(t, pair[1], pair[0].Opposite())
		assert.Equal(t, pair[0], pair[1].Opposite())
	}
	assert.False(t, Direction("up").Valid())
}

func TestToward(t *testing.T) {
	d, ok := Toward(C(2, 2), C(5, 0))
	assert.True(t, ok)
	assert.Equal(t, Northeast, d)

	_, ok = Toward(C(1, 1), C(1, 1))
	assert.False(t, ok)
}

func TestSize_Contains(t *testing.T) {
	s := Size{Width: 3, Height: 2}
	assert.True(t, s.Contains(C(0, 0)))
	assert.True(t, s.Contains(C(2, 1)))
	assert.False(t, s.Contains(C(3, 0)))
	assert.False(t, s.Contains(C(0, -1)))
}

func TestLine_Endpoints(t *testing.T) {
	line := Line(C(0, 0), C(4, 2))
	assert.Equal(t, C(0, 0), line[0])
	assert.Equal(t, C(4, 2), line[len(line)-1])
	assert.Len(t, line, 5)
}

func TestPropertyOppositeIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.SampledFrom(Directions).Draw(t, "dir")
		assert.Equal(t, d, d.Opposite().Opposite())
		assert.Equal(t, C(0, 0), d.Delta().Add(d.Opposite().Delta()))
	})
}

func TestPropertyLineStepsAreAdjacent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := C(rapid.IntRange(-20, 20).Draw(t, "ax"), rapid.IntRange(-20, 20).Draw(t, "ay"))
		b := C(rapid.IntRange(-20, 20).Draw(t, "bx"), rapid.IntRange(-20, 20).Draw(t, "by"))
		line := Line(a, b)
		assert.Equal(t, a, line[0])
		assert.Equal(t, b, line[len(line)-1])
		assert.Len(t, line, a.Chebyshev(b)+1)
		for i := 1; i < len(line); i++ {
			assert.True(t, line[i-1].Adjacent(line[i]), "step %d: %s -> %s", i, line[i-1], line[i])
		}
	})
}
