package brain

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rogue/internal/game/behaviour"
)

type compiled struct {
	graph *Graph
	root  behaviour.NodeIndex
}

// Library indexes compiled behaviour graphs by definition ID.
//
// Invariant: each ID is registered at most once.
type Library struct {
	graphs map[string]compiled
}

// NewLibrary returns an empty Library.
func NewLibrary() *Library {
	return &Library{graphs: make(map[string]compiled)}
}

// Register compiles d and stores it.
//
// Precondition: d must not be nil.
// Postcondition: returns an error on an invalid definition or an ID collision.
func (l *Library) Register(d *Definition) error {
	if _, exists := l.graphs[d.ID]; exists {
		return fmt.Errorf("brain.Library: behaviour %q already registered", d.ID)
	}
	g, root, err := d.Compile()
	if err != nil {
		return err
	}
	l.graphs[d.ID] = compiled{graph: g, root: root}
	return nil
}

// Has reports whether id is registered.
func (l *Library) Has(id string) bool {
	_, ok := l.graphs[id]
	return ok
}

// IDs returns the registered behaviour IDs sorted.
func (l *Library) IDs() []string {
	ids := make([]string, 0, len(l.graphs))
	for id := range l.graphs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NewState returns a State initialised at the root of behaviour id.
func (l *Library) NewState(id string) (*State, error) {
	c, ok := l.graphs[id]
	if !ok {
		return nil, fmt.Errorf("brain.Library: unknown behaviour %q", id)
	}
	s := NewState()
	if err := s.Initialise(c.graph, c.root); err != nil {
		return nil, fmt.Errorf("initialising behaviour %q: %w", id, err)
	}
	return s, nil
}

// yamlBehaviourFile wraps the YAML top-level key.
type yamlBehaviourFile struct {
	Behaviour *Definition `yaml:"behaviour"`
}

// ParseDefinition decodes one behaviour file.
//
// Postcondition: returns a validated Definition or a non-nil error.
func ParseDefinition(data []byte) (*Definition, error) {
	var f yamlBehaviourFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing behaviour: %w", err)
	}
	if f.Behaviour == nil {
		return nil, fmt.Errorf("missing top-level 'behaviour' key")
	}
	if err := f.Behaviour.Validate(); err != nil {
		return nil, err
	}
	return f.Behaviour, nil
}

// LoadDir reads every *.yaml file in dir into a Library.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns an error if any file fails to parse, validate or
// collides with another behaviour ID.
func LoadDir(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("brain.LoadDir: reading %q: %w", dir, err)
	}
	lib := NewLibrary()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("brain.LoadDir: reading %s: %w", e.Name(), err)
		}
		d, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("brain.LoadDir: %s: %w", e.Name(), err)
		}
		if err := lib.Register(d); err != nil {
			return nil, fmt.Errorf("brain.LoadDir: %s: %w", e.Name(), err)
		}
	}
	return lib, nil
}
