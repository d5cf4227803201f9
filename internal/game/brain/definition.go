package brain

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/action"
	"github.com/cory-johannsen/rogue/internal/game/behaviour"
)

// Switch return policies.
const (
	OnReturnReturn   = "return"
	OnReturnContinue = "continue"
)

// SwitchDef declares a two-way switch.
type SwitchDef struct {
	Predicate string `yaml:"predicate"`
	WhenTrue  string `yaml:"when_true"`
	WhenFalse string `yaml:"when_false"`
	Reset     bool   `yaml:"reset"`
	// OnReturn is "return" (default) or "continue".
	OnReturn string `yaml:"on_return"`
}

// NodeDef declares one node. Exactly one of Leaf, All, Forever or Switch is set.
type NodeDef struct {
	ID      string     `yaml:"id"`
	Leaf    LeafKind   `yaml:"leaf"`
	Range   int        `yaml:"range"`
	All     []string   `yaml:"all"`
	Forever string     `yaml:"forever"`
	Switch  *SwitchDef `yaml:"switch"`
}

func (n *NodeDef) forms() int {
	count := 0
	if n.Leaf != "" {
		count++
	}
	if n.All != nil {
		count++
	}
	if n.Forever != "" {
		count++
	}
	if n.Switch != nil {
		count++
	}
	return count
}

func (n *NodeDef) children() []string {
	switch {
	case n.All != nil:
		return n.All
	case n.Forever != "":
		return []string{n.Forever}
	case n.Switch != nil:
		return []string{n.Switch.WhenTrue, n.Switch.WhenFalse}
	}
	return nil
}

// Definition is a named behaviour graph.
//
// Invariant: after Validate, node IDs are unique, every reference resolves
// and the node references form no cycle.
type Definition struct {
	ID          string     `yaml:"id"`
	Description string     `yaml:"description"`
	Root        string     `yaml:"root"`
	Nodes       []*NodeDef `yaml:"nodes"`
}

// Validate checks required fields, references and acyclicity.
//
// Postcondition: nil return guarantees Compile succeeds.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return errors.New("brain.Definition: ID must not be empty")
	}
	if len(d.Nodes) == 0 {
		return fmt.Errorf("brain.Definition %q: must have at least one node", d.ID)
	}
	nodes := make(map[string]*NodeDef, len(d.Nodes))
	for _, n := range d.Nodes {
		if n == nil || n.ID == "" {
			return fmt.Errorf("brain.Definition %q: node has empty ID", d.ID)
		}
		if _, dup := nodes[n.ID]; dup {
			return fmt.Errorf("brain.Definition %q: duplicate node ID %q", d.ID, n.ID)
		}
		nodes[n.ID] = n
	}
	if _, ok := nodes[d.Root]; !ok {
		return fmt.Errorf("brain.Definition %q: root %q references unknown node", d.ID, d.Root)
	}

	for _, n := range d.Nodes {
		if n.forms() != 1 {
			return fmt.Errorf("brain.Definition %q node %q: exactly one of leaf, all, forever, switch must be set", d.ID, n.ID)
		}
		switch {
		case n.Leaf != "":
			if !n.Leaf.Valid() {
				return fmt.Errorf("brain.Definition %q node %q: unknown leaf %q", d.ID, n.ID, n.Leaf)
			}
			if n.Range < 0 {
				return fmt.Errorf("brain.Definition %q node %q: range must be >= 0", d.ID, n.ID)
			}
		case n.All != nil:
			if len(n.All) == 0 {
				return fmt.Errorf("brain.Definition %q node %q: all must not be empty", d.ID, n.ID)
			}
		case n.Switch != nil:
			if _, ok := LookupPredicate(n.Switch.Predicate); !ok {
				return fmt.Errorf("brain.Definition %q node %q: unknown predicate %q", d.ID, n.ID, n.Switch.Predicate)
			}
			switch n.Switch.OnReturn {
			case "", OnReturnReturn, OnReturnContinue:
			default:
				return fmt.Errorf("brain.Definition %q node %q: on_return must be %q or %q, got %q",
					d.ID, n.ID, OnReturnReturn, OnReturnContinue, n.Switch.OnReturn)
			}
		}
		for _, c := range n.children() {
			if _, ok := nodes[c]; !ok {
				return fmt.Errorf("brain.Definition %q node %q: child %q references unknown node", d.ID, n.ID, c)
			}
		}
	}
	return d.checkAcyclic(nodes)
}

func (d *Definition) checkAcyclic(nodes map[string]*NodeDef) error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(nodes))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("brain.Definition %q: cycle through node %q", d.ID, id)
		case visited:
			return nil
		}
		state[id] = visiting
		for _, c := range nodes[id].children() {
			if err := visit(c); err != nil {
				return err
			}
		}
		state[id] = visited
		return nil
	}
	for _, n := range d.Nodes {
		if err := visit(n.ID); err != nil {
			return err
		}
	}
	return nil
}

// Compile validates d and builds its graph. Children are added before their
// parents, so every stored index points backwards in the arenas.
//
// Postcondition: returns the graph and its root node, or a validation error.
func (d *Definition) Compile() (*Graph, behaviour.NodeIndex, error) {
	if err := d.Validate(); err != nil {
		return nil, behaviour.NodeIndex{}, err
	}
	nodes := make(map[string]*NodeDef, len(d.Nodes))
	for _, n := range d.Nodes {
		nodes[n.ID] = n
	}
	g := behaviour.NewGraph[*Context, action.Args]()
	built := make(map[string]behaviour.NodeIndex, len(d.Nodes))

	var build func(id string) (behaviour.NodeIndex, error)
	build = func(id string) (behaviour.NodeIndex, error) {
		if idx, ok := built[id]; ok {
			return idx, nil
		}
		n := nodes[id]
		var (
			idx behaviour.NodeIndex
			err error
		)
		switch {
		case n.Leaf != "":
			idx = g.AddLeaf(Leaf{Kind: n.Leaf, Range: n.Range})
		case n.All != nil:
			children := make([]behaviour.NodeIndex, len(n.All))
			for i, c := range n.All {
				if children[i], err = build(c); err != nil {
					return idx, err
				}
			}
			idx, err = g.AddAll(children...)
		case n.Forever != "":
			var child behaviour.NodeIndex
			if child, err = build(n.Forever); err != nil {
				return idx, err
			}
			idx, err = g.AddForever(child)
		case n.Switch != nil:
			var yes, no behaviour.NodeIndex
			if yes, err = build(n.Switch.WhenTrue); err != nil {
				return idx, err
			}
			if no, err = build(n.Switch.WhenFalse); err != nil {
				return idx, err
			}
			pred, _ := LookupPredicate(n.Switch.Predicate)
			idx = g.AddSwitch(Condition{
				Predicate: pred,
				WhenTrue:  yes,
				WhenFalse: no,
				Reset:     n.Switch.Reset,
				Continue:  n.Switch.OnReturn == OnReturnContinue,
			})
		}
		if err != nil {
			return idx, fmt.Errorf("brain.Definition %q node %q: %w", d.ID, id, err)
		}
		built[id] = idx
		return idx, nil
	}

	root, err := build(d.Root)
	if err != nil {
		return nil, behaviour.NodeIndex{}, err
	}
	return g, root, nil
}
