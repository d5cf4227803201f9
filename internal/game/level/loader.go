package level

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rogue/internal/game/entity"
	"github.com/cory-johannsen/rogue/internal/game/geom"
)

// yamlCampaignFile is the top-level YAML structure for level files.
type yamlCampaignFile struct {
	Campaign yamlCampaign `yaml:"campaign"`
}

type yamlCampaign struct {
	ID       string         `yaml:"id"`
	Start    string         `yaml:"start"`
	Player   yamlCreature   `yaml:"player"`
	Bestiary []yamlCreature `yaml:"bestiary"`
	Levels   []yamlLevel    `yaml:"levels"`
}

type yamlCreature struct {
	Glyph     string `yaml:"glyph"`
	Kind      string `yaml:"kind"`
	Health    int    `yaml:"health"`
	Speed     uint64 `yaml:"speed"`
	Damage    string `yaml:"damage"`
	Behaviour string `yaml:"behaviour"`
	Vision    int    `yaml:"vision"`
}

type yamlStairs struct {
	Level string `yaml:"level"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
}

type yamlLevel struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Map       string      `yaml:"map"`
	StairsTo  *yamlStairs `yaml:"stairs_to"`
	ScriptDir string      `yaml:"script_dir"`
}

// LoadFromFile reads and validates a campaign YAML file.
//
// Precondition: path must point to a valid YAML campaign file.
// Postcondition: Returns a validated Campaign or a non-nil error.
func LoadFromFile(path string) (*Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a campaign from YAML bytes.
//
// Postcondition: Returns a validated Campaign or a non-nil error.
func LoadFromBytes(data []byte) (*Campaign, error) {
	var file yamlCampaignFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing level YAML: %w", err)
	}
	c, err := convertYAMLCampaign(file.Campaign)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating campaign: %w", err)
	}
	return c, nil
}

func convertCreature(y yamlCreature) Creature {
	return Creature{
		Kind:         entity.Kind(y.Kind),
		Health:       y.Health,
		Speed:        y.Speed,
		Damage:       y.Damage,
		Behaviour:    y.Behaviour,
		VisionRadius: y.Vision,
	}
}

// convertYAMLCampaign converts the parsed YAML structures into domain types.
func convertYAMLCampaign(yc yamlCampaign) (*Campaign, error) {
	player := convertCreature(yc.Player)
	player.Kind = entity.KindPlayer
	c := &Campaign{
		ID:       yc.ID,
		Start:    yc.Start,
		Player:   player,
		Bestiary: make(map[rune]Creature, len(yc.Bestiary)),
	}
	for _, yb := range yc.Bestiary {
		if len(yb.Glyph) != 1 || yb.Glyph[0] >= utf8.RuneSelf {
			return nil, fmt.Errorf("bestiary glyph %q must be a single ASCII character", yb.Glyph)
		}
		g := rune(yb.Glyph[0])
		if _, dup := c.Bestiary[g]; dup {
			return nil, fmt.Errorf("duplicate bestiary glyph %q", yb.Glyph)
		}
		c.Bestiary[g] = convertCreature(yb)
	}
	for _, yl := range yc.Levels {
		l := &Level{
			ID:        yl.ID,
			Name:      yl.Name,
			Rows:      splitMap(yl.Map),
			ScriptDir: yl.ScriptDir,
		}
		if yl.StairsTo != nil {
			l.StairsTo = &geom.Position{Level: yl.StairsTo.Level, Coord: geom.C(yl.StairsTo.X, yl.StairsTo.Y)}
		}
		c.Levels = append(c.Levels, l)
	}
	return c, nil
}

// splitMap splits a block scalar into rows, dropping trailing blank lines.
func splitMap(m string) []string {
	rows := strings.Split(strings.TrimRight(m, "\n "), "\n")
	if len(rows) == 1 && rows[0] == "" {
		return nil
	}
	return rows
}
