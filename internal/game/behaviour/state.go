package behaviour

import "fmt"

// frame is one level of the execution stack.
type frame struct {
	node NodeIndex

	// All: index of the current child and the most recent child result.
	index int
	last  bool

	// Switch: the child whose frames follow this one, and the retained
	// stacks of children that were deselected mid-run.
	active    NodeIndex
	hasActive bool
	saved     map[NodeIndex][]frame
}

// State is the resumable execution context of one entity over a Graph.
//
// Run and DeclareReturn strictly alternate: Run yields an action and the
// state suspends in the leaf that produced it; DeclareReturn reports the
// action's outcome and unwinds the stack to the next point that needs a
// decision. The next Run descends from there.
//
// Invariant: while running, every frame except the top has its child frame
// directly above it.
type State[K, A any] struct {
	graph    *Graph[K, A]
	stack    []frame
	awaiting bool
}

// NewState returns a State with no frames.
func NewState[K, A any]() *State[K, A] {
	return &State[K, A]{}
}

// Initialise binds the state to g and pushes the root frame.
//
// Postcondition: returns ErrAlreadyRunning if the state has frames, or
// ErrInvalidNode if root is not in g.
func (s *State[K, A]) Initialise(g *Graph[K, A], root NodeIndex) error {
	if len(s.stack) > 0 {
		return ErrAlreadyRunning
	}
	if g == nil {
		return fmt.Errorf("%w: nil graph", ErrInvalidNode)
	}
	if err := g.Validate(root); err != nil {
		return err
	}
	s.graph = g
	s.awaiting = false
	s.stack = append(s.stack[:0], frame{node: root})
	return nil
}

// Running reports whether the state has frames.
func (s *State[K, A]) Running() bool { return len(s.stack) > 0 }

// Awaiting reports whether a yielded action is waiting for DeclareReturn.
func (s *State[K, A]) Awaiting() bool { return s.awaiting }

// Depth returns the number of frames on the active stack.
func (s *State[K, A]) Depth() int { return len(s.stack) }

// Run descends from the root until a leaf yields an action.
//
// Switches on the path are re-evaluated on every Run. Leaves that return
// instead of yielding propagate their result upward within this call.
//
// Postcondition: on success the state awaits DeclareReturn. Returns
// ErrNotRunning for an empty stack, ErrAwaitingReturn if the previous action
// was not declared, ErrCompleted if the root returned without yielding, and
// wraps any error from a leaf or switch.
func (s *State[K, A]) Run(k K) (A, error) {
	var zero A
	if len(s.stack) == 0 {
		return zero, ErrNotRunning
	}
	if s.awaiting {
		return zero, ErrAwaitingReturn
	}

	for i := 0; ; {
		top := i == len(s.stack)-1
		node := s.stack[i].node

		if node.Kind == KindLeaf {
			res, err := s.graph.leaves[node.Index].Resolve(k)
			if err != nil {
				return zero, fmt.Errorf("resolving %s: %w", node, err)
			}
			if a, ok := res.Action(); ok {
				s.awaiting = true
				return a, nil
			}
			if s.propagate(res.Result()) {
				return zero, ErrCompleted
			}
			i = len(s.stack) - 1
			continue
		}

		c := s.graph.collections[node.Index]
		switch c.kind {
		case collectionAll:
			if top {
				s.push(c.children[s.stack[i].index])
			}
		case collectionForever:
			if top {
				s.push(c.children[0])
			}
		case collectionSwitch:
			res, err := c.sw.Call(k)
			if err != nil {
				return zero, fmt.Errorf("calling switch %s: %w", node, err)
			}
			if err := s.graph.Validate(res.Node); err != nil {
				return zero, fmt.Errorf("switch %s: %w", node, err)
			}
			s.activate(i, res)
		}
		i++
	}
}

// DeclareReturn reports whether the most recently yielded action succeeded
// and unwinds the stack accordingly.
//
// Postcondition: returns ErrNotAwaitingReturn if no action is pending. If the
// root returns the state stops running.
func (s *State[K, A]) DeclareReturn(success bool) error {
	if !s.awaiting {
		return ErrNotAwaitingReturn
	}
	s.awaiting = false
	s.propagate(success)
	return nil
}

func (s *State[K, A]) push(n NodeIndex) {
	s.stack = append(s.stack, frame{node: n})
}

// propagate pops the top frame, which returned v, and delivers v to its
// ancestors until one of them continues. It reports whether the root returned.
func (s *State[K, A]) propagate(v bool) bool {
	for {
		s.stack[len(s.stack)-1] = frame{}
		s.stack = s.stack[:len(s.stack)-1]
		if len(s.stack) == 0 {
			return true
		}
		parent := &s.stack[len(s.stack)-1]
		c := s.graph.collections[parent.node.Index]
		switch c.kind {
		case collectionAll:
			parent.last = v
			parent.index++
			if parent.index < len(c.children) {
				return false
			}
			v = parent.last
		case collectionForever:
			return false
		case collectionSwitch:
			parent.hasActive = false
			r := c.sw.ReturnTo(v)
			if !r.Done {
				return false
			}
			v = r.Value
		}
	}
}

// activate makes res.Node the active child of the switch frame at i.
//
// A Select of a different child retains the current child's frames for a
// later Select. A Reset discards the current child's frames and any frames
// retained for the target.
func (s *State[K, A]) activate(i int, res SwitchResolution) {
	f := &s.stack[i]
	if f.hasActive {
		if f.active == res.Node && !res.Reset {
			return
		}
		sub := append([]frame(nil), s.stack[i+1:]...)
		s.truncate(i + 1)
		f = &s.stack[i]
		if !res.Reset {
			if f.saved == nil {
				f.saved = make(map[NodeIndex][]frame)
			}
			f.saved[f.active] = sub
		}
	}

	f.active = res.Node
	f.hasActive = true
	if sub, ok := f.saved[res.Node]; ok {
		delete(f.saved, res.Node)
		if !res.Reset {
			s.stack = append(s.stack, sub...)
			return
		}
	}
	s.push(res.Node)
}

func (s *State[K, A]) truncate(n int) {
	for j := n; j < len(s.stack); j++ {
		s.stack[j] = frame{}
	}
	s.stack = s.stack[:n]
}
