// Package render draws the player's knowledge of the world as styled text.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
	"github.com/cory-johannsen/rogue/internal/game/knowledge"
	"github.com/cory-johannsen/rogue/internal/game/world"
)

// clearScreen homes the cursor and erases the terminal.
const clearScreen = "\x1b[H\x1b[2J"

// drawOrder ranks kinds when several share a cell; the first present wins.
var drawOrder = []entity.Kind{
	entity.KindPlayer,
	entity.KindZombie,
	entity.KindBullet,
	entity.KindDoorClosed,
	entity.KindDoorOpen,
	entity.KindStairsDown,
	entity.KindWall,
}

// Options configures a Text renderer.
type Options struct {
	// Clear erases the terminal before every frame.
	Clear bool
}

// Text renders frames to a writer. It is not safe for concurrent use.
type Text struct {
	out    io.Writer
	book   *knowledge.Book
	logger *zap.Logger
	opts   Options

	styles     map[entity.Kind]lipgloss.Style
	floor      lipgloss.Style
	remembered lipgloss.Style
	status     lipgloss.Style

	drawn   bool
	version uint64
	level   string
	frames  int
}

// NewText returns a renderer writing frames to out from the stores in book.
// Colours are chosen for out's terminal profile, so a non-terminal writer
// receives plain text.
//
// Precondition: out, book and logger must be non-nil.
func NewText(out io.Writer, book *knowledge.Book, logger *zap.Logger, opts Options) *Text {
	if out == nil {
		panic("render.NewText: writer must not be nil")
	}
	if book == nil {
		panic("render.NewText: knowledge book must not be nil")
	}
	if logger == nil {
		panic("render.NewText: logger must not be nil")
	}
	r := lipgloss.NewRenderer(out)
	return &Text{
		out:    out,
		book:   book,
		logger: logger,
		opts:   opts,
		styles: map[entity.Kind]lipgloss.Style{
			entity.KindPlayer:     r.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
			entity.KindZombie:     r.NewStyle().Foreground(lipgloss.Color("34")),
			entity.KindBullet:     r.NewStyle().Foreground(lipgloss.Color("196")),
			entity.KindDoorClosed: r.NewStyle().Foreground(lipgloss.Color("130")),
			entity.KindDoorOpen:   r.NewStyle().Foreground(lipgloss.Color("130")),
			entity.KindStairsDown: r.NewStyle().Foreground(lipgloss.Color("45")).Bold(true),
			entity.KindWall:       r.NewStyle().Foreground(lipgloss.Color("252")),
		},
		floor:      r.NewStyle().Foreground(lipgloss.Color("243")),
		remembered: r.NewStyle().Foreground(lipgloss.Color("238")),
		status:     r.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")),
	}
}

// Frames returns how many frames have been written.
func (t *Text) Frames() int { return t.frames }

// Render refreshes the player's knowledge from v and draws it if it changed
// since the previous frame. actor is the entity whose action is about to be
// resolved.
//
// Postcondition: returns true iff a frame was written.
func (t *Text) Render(v world.View, actor entity.ID, turn uint64) bool {
	player, ok := v.Player()
	if !ok {
		return false
	}
	store := t.book.For(player)
	if _, err := store.Observe(v, player, turn); err != nil {
		t.logger.Debug("player observation failed", zap.Error(err))
		return false
	}
	if t.drawn && store.Version() == t.version && store.Level() == t.level {
		return false
	}
	lvl, ok := v.Level(store.Level())
	if !ok {
		return false
	}

	var b strings.Builder
	if t.opts.Clear {
		b.WriteString(clearScreen)
	}
	for y := 0; y < lvl.Size.Height; y++ {
		for x := 0; x < lvl.Size.Width; x++ {
			b.WriteString(t.cell(store, lvl.ID, geom.C(x, y)))
		}
		b.WriteByte('\n')
	}
	b.WriteString(t.status.Render(statusLine(v, player, actor, lvl.ID, turn)))
	b.WriteByte('\n')

	if _, err := io.WriteString(t.out, b.String()); err != nil {
		t.logger.Warn("writing frame", zap.Error(err))
		return false
	}
	t.drawn = true
	t.version = store.Version()
	t.level = store.Level()
	t.frames++
	return true
}

func (t *Text) cell(store *knowledge.Store, level string, c geom.Coord) string {
	mem, ok := store.Cell(level, c)
	if !ok {
		return " "
	}
	visible := store.Visible(c)
	for _, k := range drawOrder {
		if !slices.Contains(mem.Kinds, k) {
			continue
		}
		if !visible {
			if isActor(k) {
				continue
			}
			return t.remembered.Render(string(k.Glyph()))
		}
		return t.styles[k].Render(string(k.Glyph()))
	}
	if visible {
		return t.floor.Render(".")
	}
	return t.remembered.Render(".")
}

// isActor reports whether a remembered k may have moved since it was seen.
func isActor(k entity.Kind) bool {
	return k == entity.KindPlayer || k == entity.KindZombie || k == entity.KindBullet
}

func statusLine(v world.View, player, actor entity.ID, level string, turn uint64) string {
	hp := "-"
	if h, ok := v.Health(player); ok {
		hp = fmt.Sprintf("%d/%d", h.Current, h.Max)
	}
	return fmt.Sprintf(" %s | hp %s | turn %d | acting %s ", level, hp, turn, actor)
}
