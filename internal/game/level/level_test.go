package level_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/level"
)

const campaignYAML = `
campaign:
  id: test
  start: top
  player:
    health: 20
    speed: 10
    damage: 1d6
    behaviour: player
    vision: 8
  bestiary:
    - glyph: z
      kind: zombie
      health: 6
      speed: 12
      damage: 1d4
      behaviour: zombie
  levels:
    - id: top
      name: Top
      stairs_to: {level: bottom, x: 1, y: 1}
      map: |
        ######
        #@.z>#
        #..+.#
        ######
    - id: bottom
      map: |
        ####
        #..#
        ####
`

func TestLoadFromBytes(t *testing.T) {
	c, err := level.LoadFromBytes([]byte(campaignYAML))
	require.NoError(t, err)
	assert.Equal(t, "test", c.ID)
	assert.Equal(t, entity.KindPlayer, c.Player.Kind)
	require.Len(t, c.Levels, 2)
	top, ok := c.LevelByID("top")
	require.True(t, ok)
	assert.Equal(t, geom.Size{Width: 6, Height: 4}, top.Size())
	assert.Equal(t, &geom.Position{Level: "bottom", Coord: geom.C(1, 1)}, top.StairsTo)
	assert.Equal(t, entity.KindZombie, c.Bestiary['z'].Kind)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(campaignYAML), 0644))
	_, err := level.LoadFromFile(path)
	require.NoError(t, err)

	_, err = level.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"two players":     strings.Replace(campaignYAML, "#..+.#", "#.@+.#", 1),
		"no player":       strings.Replace(campaignYAML, "#@.z>#", "#..z>#", 1),
		"unknown glyph":   strings.Replace(campaignYAML, "#..+.#", "#..?.#", 1),
		"bad stairs":      strings.Replace(campaignYAML, "{level: bottom, x: 1, y: 1}", "{level: bottom, x: 9, y: 1}", 1),
		"unknown stairs":  strings.Replace(campaignYAML, "{level: bottom, x: 1, y: 1}", "{level: cellar, x: 1, y: 1}", 1),
		"bad kind":        strings.Replace(campaignYAML, "kind: zombie", "kind: dragon", 1),
		"reserved glyph":  strings.Replace(campaignYAML, "glyph: z", "glyph: '#'", 1),
		"long glyph":      strings.Replace(campaignYAML, "glyph: z", "glyph: zz", 1),
		"unknown start":   strings.Replace(campaignYAML, "start: top", "start: middle", 1),
		"no player speed": strings.Replace(campaignYAML, "    speed: 10\n", "", 1),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := level.LoadFromBytes([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	c, err := level.LoadFromBytes([]byte(campaignYAML))
	require.NoError(t, err)
	b, err := level.Build(c)
	require.NoError(t, err)

	w := b.World
	assert.Equal(t, []string{"bottom", "top"}, w.Levels())

	pos, ok := w.Position(b.Player)
	require.True(t, ok)
	assert.Equal(t, geom.Position{Level: "top", Coord: geom.C(1, 1)}, pos)
	h, ok := w.Health(b.Player)
	require.True(t, ok)
	assert.Equal(t, 20, h.Max)
	vision, _ := w.VisionRadius(b.Player)
	assert.Equal(t, 8, vision)

	require.Len(t, b.Actors, 2)
	assert.Equal(t, b.Player, b.Actors[0])
	zombie := b.Actors[1]
	behaviour, _ := w.Behaviour(zombie)
	assert.Equal(t, "zombie", behaviour)

	assert.True(t, w.OccupancyAt("top", geom.C(0, 0)).Solid)
	door := w.OccupancyAt("top", geom.C(3, 2))
	require.Len(t, door.Entities, 1)
	kind, _ := w.Kind(door.Entities[0])
	assert.Equal(t, entity.KindDoorClosed, kind)
	assert.False(t, w.OccupancyAt("top", geom.C(1, 2)).Solid)

	assert.Equal(t, geom.Position{Level: "bottom", Coord: geom.C(1, 1)}, b.Stairs["top"])
	_, ok = b.Stairs["bottom"]
	assert.False(t, ok)
}
