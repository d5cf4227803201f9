package level_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rogue/internal/game/brain"
	"github.com/cory-johannsen/rogue/internal/game/level"
)

func TestShippedContent(t *testing.T) {
	c, err := level.LoadFromFile("../../../content/levels/crypt.yaml")
	require.NoError(t, err)
	lib, err := brain.LoadDir("../../../content/graphs")
	require.NoError(t, err)

	assert.True(t, lib.Has(c.Player.Behaviour), "player behaviour %q", c.Player.Behaviour)
	for glyph, cr := range c.Bestiary {
		assert.True(t, lib.Has(cr.Behaviour), "bestiary %q behaviour %q", glyph, cr.Behaviour)
	}

	b, err := level.Build(c)
	require.NoError(t, err)
	assert.Greater(t, len(b.Actors), 1)
	assert.Contains(t, b.Stairs, "upper")
	for _, id := range b.Actors {
		name, ok := b.World.Behaviour(id)
		require.True(t, ok)
		_, err := lib.NewState(name)
		assert.NoError(t, err)
	}
}
