// Package behaviour implements the behaviour graph and the resumable
// per-entity execution state that walks it.
//
// A Graph is an immutable arena of leaf and collection nodes referenced by
// NodeIndex. A State is an explicit stack of frames over a Graph that yields
// one action per Run and resumes from the same point after DeclareReturn
// reports whether that action succeeded.
//
// Graph and State are generic over the knowledge context K handed to leaves
// and switches and the action type A that leaves yield.
package behaviour

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Initialise on a State that has frames.
	ErrAlreadyRunning = errors.New("behaviour: state already running")
	// ErrNotRunning is returned by Run on a State with an empty stack.
	ErrNotRunning = errors.New("behaviour: state not running")
	// ErrNotAwaitingReturn is returned by DeclareReturn when no leaf is pending.
	ErrNotAwaitingReturn = errors.New("behaviour: state not awaiting a return")
	// ErrAwaitingReturn is returned by Run while a yielded action is still unresolved.
	ErrAwaitingReturn = errors.New("behaviour: state awaiting a return")
	// ErrCompleted is returned by Run when the root returned without yielding.
	ErrCompleted = errors.New("behaviour: root completed")
	// ErrInvalidNode is returned when a NodeIndex does not address a node in the graph.
	ErrInvalidNode = errors.New("behaviour: invalid node index")
	// ErrEmptyAll is returned when constructing an All collection without children.
	ErrEmptyAll = errors.New("behaviour: all collection requires at least one child")
)

// NodeKind tags which arena a NodeIndex addresses.
type NodeKind uint8

const (
	KindLeaf NodeKind = iota
	KindCollection
)

// NodeIndex addresses a node in one of the graph's arenas.
type NodeIndex struct {
	Kind  NodeKind
	Index int
}

// LeafIndex returns the NodeIndex of the i-th leaf.
func LeafIndex(i int) NodeIndex { return NodeIndex{Kind: KindLeaf, Index: i} }

// CollectionIndex returns the NodeIndex of the i-th collection.
func CollectionIndex(i int) NodeIndex { return NodeIndex{Kind: KindCollection, Index: i} }

func (n NodeIndex) String() string {
	if n.Kind == KindLeaf {
		return fmt.Sprintf("leaf(%d)", n.Index)
	}
	return fmt.Sprintf("collection(%d)", n.Index)
}

// LeafResolution is either Yield(action) or Return(result).
type LeafResolution[A any] struct {
	yield  bool
	action A
	result bool
}

// Yield produces action and suspends until DeclareReturn.
func Yield[A any](action A) LeafResolution[A] {
	return LeafResolution[A]{yield: true, action: action}
}

// Return finishes the leaf's subtree with result and produces no action.
func Return[A any](result bool) LeafResolution[A] {
	return LeafResolution[A]{result: result}
}

// Action returns the yielded action and true, or the zero value and false for a Return.
func (r LeafResolution[A]) Action() (A, bool) { return r.action, r.yield }

// Result returns the Return value. Meaningless for a Yield.
func (r LeafResolution[A]) Result() bool { return r.result }

// Leaf decides what to do from the knowledge context.
type Leaf[K, A any] interface {
	Resolve(k K) (LeafResolution[A], error)
}

// LeafFunc adapts a function to the Leaf interface.
type LeafFunc[K, A any] func(k K) (LeafResolution[A], error)

// Resolve calls f(k).
func (f LeafFunc[K, A]) Resolve(k K) (LeafResolution[A], error) { return f(k) }

// SwitchResolution picks a child of a switch node. Select resumes the
// child's retained state; Reset discards it and starts the child over.
type SwitchResolution struct {
	Node  NodeIndex
	Reset bool
}

// Select resumes node, keeping any state it had when last deselected.
func Select(node NodeIndex) SwitchResolution { return SwitchResolution{Node: node} }

// Reset restarts node from scratch.
func Reset(node NodeIndex) SwitchResolution { return SwitchResolution{Node: node, Reset: true} }

// SwitchReturn is the switch's reaction to its active child returning.
type SwitchReturn struct {
	Done  bool
	Value bool
}

// ReturnWith makes the switch itself return value to its parent.
func ReturnWith(value bool) SwitchReturn { return SwitchReturn{Done: true, Value: value} }

// Continue keeps the switch running; it calls Call again on the next descent.
func Continue() SwitchReturn { return SwitchReturn{} }

// Switch chooses between children at runtime.
//
// Call is invoked every time Run descends through the switch. ReturnTo is
// invoked when the active child returns.
type Switch[K any] interface {
	Call(k K) (SwitchResolution, error)
	ReturnTo(success bool) SwitchReturn
}

// SwitchFuncs adapts a pair of functions to the Switch interface. A nil
// ReturnFn behaves as ReturnWith(success).
type SwitchFuncs[K any] struct {
	CallFn   func(k K) (SwitchResolution, error)
	ReturnFn func(success bool) SwitchReturn
}

// Call calls CallFn.
func (s SwitchFuncs[K]) Call(k K) (SwitchResolution, error) { return s.CallFn(k) }

// ReturnTo calls ReturnFn.
func (s SwitchFuncs[K]) ReturnTo(success bool) SwitchReturn {
	if s.ReturnFn == nil {
		return ReturnWith(success)
	}
	return s.ReturnFn(success)
}

type collectionKind uint8

const (
	collectionAll collectionKind = iota
	collectionForever
	collectionSwitch
)

type collection[K any] struct {
	kind     collectionKind
	children []NodeIndex
	sw       Switch[K]
}

// Graph owns the leaf and collection arenas. Nodes only reference nodes
// added before them, so the static structure is acyclic.
//
// Invariant: every child index stored in a collection addresses an existing node.
type Graph[K, A any] struct {
	leaves      []Leaf[K, A]
	collections []collection[K]
}

// NewGraph returns an empty Graph.
func NewGraph[K, A any]() *Graph[K, A] {
	return &Graph[K, A]{}
}

// AddLeaf appends l to the leaf arena.
//
// Precondition: l must not be nil.
func (g *Graph[K, A]) AddLeaf(l Leaf[K, A]) NodeIndex {
	if l == nil {
		panic("behaviour.Graph.AddLeaf: leaf must not be nil")
	}
	g.leaves = append(g.leaves, l)
	return LeafIndex(len(g.leaves) - 1)
}

// AddAll appends a sequence collection over children.
//
// Postcondition: returns ErrEmptyAll for no children and ErrInvalidNode for
// a child that is not in the graph.
func (g *Graph[K, A]) AddAll(children ...NodeIndex) (NodeIndex, error) {
	if len(children) == 0 {
		return NodeIndex{}, ErrEmptyAll
	}
	for _, c := range children {
		if err := g.Validate(c); err != nil {
			return NodeIndex{}, err
		}
	}
	cs := append([]NodeIndex(nil), children...)
	return g.addCollection(collection[K]{kind: collectionAll, children: cs}), nil
}

// AddForever appends a collection that restarts child every time it returns.
//
// A child that always returns without yielding makes Run loop forever. That
// is the caller's responsibility.
func (g *Graph[K, A]) AddForever(child NodeIndex) (NodeIndex, error) {
	if err := g.Validate(child); err != nil {
		return NodeIndex{}, err
	}
	return g.addCollection(collection[K]{kind: collectionForever, children: []NodeIndex{child}}), nil
}

// AddSwitch appends a switch collection. Its children are chosen at runtime
// and validated on every Call.
//
// Precondition: sw must not be nil.
func (g *Graph[K, A]) AddSwitch(sw Switch[K]) NodeIndex {
	if sw == nil {
		panic("behaviour.Graph.AddSwitch: switch must not be nil")
	}
	return g.addCollection(collection[K]{kind: collectionSwitch, sw: sw})
}

func (g *Graph[K, A]) addCollection(c collection[K]) NodeIndex {
	g.collections = append(g.collections, c)
	return CollectionIndex(len(g.collections) - 1)
}

// Validate reports whether n addresses a node in g.
func (g *Graph[K, A]) Validate(n NodeIndex) error {
	switch n.Kind {
	case KindLeaf:
		if n.Index >= 0 && n.Index < len(g.leaves) {
			return nil
		}
	case KindCollection:
		if n.Index >= 0 && n.Index < len(g.collections) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidNode, n)
}

// Len returns the number of leaves and collections.
func (g *Graph[K, A]) Len() (leaves, collections int) {
	return len(g.leaves), len(g.collections)
}
