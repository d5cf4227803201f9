package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/knowledge"
	"github.com/cory-johannsen/rogue/internal/game/world"
	"github.com/cory-johannsen/rogue/internal/render"
)

type fixture struct {
	w      *world.World
	player entity.ID
	zombie entity.ID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	w := world.New()
	require.NoError(t, w.AddLevel("crypt", geom.Size{Width: 5, Height: 3}))
	at := func(x, y int) geom.Position { return geom.Position{Level: "crypt", Coord: geom.C(x, y)} }
	for x := 0; x < 5; x++ {
		for _, y := range []int{0, 2} {
			_, err := w.Create(world.Template{Kind: entity.KindWall, Position: at(x, y)})
			require.NoError(t, err)
		}
	}
	for _, x := range []int{0, 4} {
		_, err := w.Create(world.Template{Kind: entity.KindWall, Position: at(x, 1)})
		require.NoError(t, err)
	}
	player, err := w.Create(world.Template{Kind: entity.KindPlayer, Position: at(1, 1), Health: 10, Speed: 10})
	require.NoError(t, err)
	zombie, err := w.Create(world.Template{Kind: entity.KindZombie, Position: at(3, 1), Health: 5, Speed: 10})
	require.NoError(t, err)
	return fixture{w: w, player: player, zombie: zombie}
}

func TestText_DrawsKnowledge(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	r := render.NewText(&out, knowledge.NewBook(), zaptest.NewLogger(t), render.Options{})

	assert.True(t, r.Render(f.w, f.player, 0))
	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, []string{"#####", "#@.z#", "#####"}, lines[:3])
	assert.Contains(t, lines[3], "hp 10/10")
	assert.Contains(t, lines[3], "turn 0")
	assert.Equal(t, 1, r.Frames())
}

func TestText_SkipsUnchangedKnowledge(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	r := render.NewText(&out, knowledge.NewBook(), zaptest.NewLogger(t), render.Options{})

	require.True(t, r.Render(f.w, f.player, 0))
	n := out.Len()
	assert.False(t, r.Render(f.w, f.zombie, 1))
	assert.Equal(t, n, out.Len())

	_, err := f.w.Apply(action.Walk{Entity: f.zombie, Direction: geom.West})
	require.NoError(t, err)
	assert.True(t, r.Render(f.w, f.zombie, 2))
	assert.Contains(t, out.String()[n:], "#@z.#")
	assert.Equal(t, 2, r.Frames())
}

func TestText_ClearScreen(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	r := render.NewText(&out, knowledge.NewBook(), zaptest.NewLogger(t), render.Options{Clear: true})
	require.True(t, r.Render(f.w, f.player, 0))
	assert.True(t, strings.HasPrefix(out.String(), "\x1b[H\x1b[2J"))
}

func TestText_NoPlayer(t *testing.T) {
	w := world.New()
	require.NoError(t, w.AddLevel("empty", geom.Size{Width: 2, Height: 2}))
	var out bytes.Buffer
	r := render.NewText(&out, knowledge.NewBook(), zaptest.NewLogger(t), render.Options{})
	assert.False(t, r.Render(w, entity.None, 0))
	assert.Zero(t, out.Len())
}

func TestText_RememberedActorsAreHidden(t *testing.T) {
	w := world.New()
	require.NoError(t, w.AddLevel("hall", geom.Size{Width: 8, Height: 1}))
	at := func(x int) geom.Position { return geom.Position{Level: "hall", Coord: geom.C(x, 0)} }
	player, err := w.Create(world.Template{Kind: entity.KindPlayer, Position: at(2), Health: 3, VisionRadius: 3})
	require.NoError(t, err)
	_, err = w.Create(world.Template{Kind: entity.KindZombie, Position: at(5), Health: 3})
	require.NoError(t, err)

	var out bytes.Buffer
	r := render.NewText(&out, knowledge.NewBook(), zaptest.NewLogger(t), render.Options{})
	require.True(t, r.Render(w, player, 0))
	assert.True(t, strings.HasPrefix(out.String(), "..@..z  \n"))

	for range 2 {
		_, err = w.Apply(action.Walk{Entity: player, Direction: geom.West})
		require.NoError(t, err)
	}
	out.Reset()
	require.True(t, r.Render(w, player, 1))
	assert.True(t, strings.HasPrefix(out.String(), "@.....  \n"), "remembered creatures are not drawn")
}

func TestNewText_NilPanics(t *testing.T) {
	logger := zaptest.NewLogger(t)
	assert.Panics(t, func() { render.NewText(nil, knowledge.NewBook(), logger, render.Options{}) })
	assert.Panics(t, func() { render.NewText(&bytes.Buffer{}, nil, logger, render.Options{}) })
	assert.Panics(t, func() { render.NewText(&bytes.Buffer{}, knowledge.NewBook(), nil, render.Options{}) })
}
