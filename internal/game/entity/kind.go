package entity

// Kind classifies an entity for collision, sight and rendering.
type Kind string

const (
	KindPlayer     Kind = "player"
	KindZombie     Kind = "zombie"
	KindWall       Kind = "wall"
	KindDoorClosed Kind = "door_closed"
	KindDoorOpen   Kind = "door_open"
	KindStairsDown Kind = "stairs_down"
	KindBullet     Kind = "bullet"
)

type kindTraits struct {
	solid  bool
	opaque bool
	glyph  rune
}

var traits = map[Kind]kindTraits{
	KindPlayer:     {solid: true, glyph: '@'},
	KindZombie:     {solid: true, glyph: 'z'},
	KindWall:       {solid: true, opaque: true, glyph: '#'},
	KindDoorClosed: {solid: true, opaque: true, glyph: '+'},
	KindDoorOpen:   {glyph: '\''},
	KindStairsDown: {glyph: '>'},
	KindBullet:     {glyph: '*'},
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := traits[k]
	return ok
}

// Solid reports whether k blocks movement.
func (k Kind) Solid() bool { return traits[k].solid }

// Opaque reports whether k blocks line of sight.
func (k Kind) Opaque() bool { return traits[k].opaque }

// Glyph returns the character k is drawn with, or '?' for an unknown kind.
func (k Kind) Glyph() rune {
	if t, ok := traits[k]; ok {
		return t.glyph
	}
	return '?'
}
