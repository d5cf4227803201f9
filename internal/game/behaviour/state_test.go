package behaviour_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rogue/internal/game/behaviour"
)

// counter is the knowledge context used by these tests.
type counter struct {
	value int
	calls int
}

type graph = behaviour.Graph[*counter, string]

func yield(g *graph, s string) behaviour.NodeIndex {
	return g.AddLeaf(behaviour.LeafFunc[*counter, string](func(*counter) (behaviour.LeafResolution[string], error) {
		return behaviour.Yield(s), nil
	}))
}

func returns(g *graph, v bool) behaviour.NodeIndex {
	return g.AddLeaf(behaviour.LeafFunc[*counter, string](func(*counter) (behaviour.LeafResolution[string], error) {
		return behaviour.Return[string](v), nil
	}))
}

func all(t require.TestingT, g *graph, children ...behaviour.NodeIndex) behaviour.NodeIndex {
	n, err := g.AddAll(children...)
	require.NoError(t, err)
	return n
}

func forever(t require.TestingT, g *graph, child behaviour.NodeIndex) behaviour.NodeIndex {
	n, err := g.AddForever(child)
	require.NoError(t, err)
	return n
}

func sequence(t require.TestingT, g *graph, words ...string) behaviour.NodeIndex {
	leaves := make([]behaviour.NodeIndex, len(words))
	for i, w := range words {
		leaves[i] = yield(g, w)
	}
	return forever(t, g, all(t, g, leaves...))
}

func start(t require.TestingT, g *graph, root behaviour.NodeIndex) *behaviour.State[*counter, string] {
	s := behaviour.NewState[*counter, string]()
	require.NoError(t, s.Initialise(g, root))
	return s
}

func step(t require.TestingT, s *behaviour.State[*counter, string], k *counter) string {
	a, err := s.Run(k)
	require.NoError(t, err)
	require.NoError(t, s.DeclareReturn(true))
	return a
}

// parity selects a when the counter is even and b when it is odd.
func parity(a, b behaviour.NodeIndex, reset bool) behaviour.SwitchFuncs[*counter] {
	return behaviour.SwitchFuncs[*counter]{
		CallFn: func(k *counter) (behaviour.SwitchResolution, error) {
			k.calls++
			target := a
			if k.value%2 != 0 {
				target = b
			}
			if reset {
				return behaviour.Reset(target), nil
			}
			return behaviour.Select(target), nil
		},
	}
}

func TestState_AllForever_Cycles(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	root := sequence(t, g, "hello", "world")
	s := start(t, g, root)
	k := &counter{}

	var got []string
	for i := 0; i < 5; i++ {
		got = append(got, step(t, s, k))
	}
	assert.Equal(t, []string{"hello", "world", "hello", "world", "hello"}, got)
}

func TestState_All_AdvancesOnFailureToo(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	root := sequence(t, g, "a", "b")
	s := start(t, g, root)
	k := &counter{}

	a, err := s.Run(k)
	require.NoError(t, err)
	assert.Equal(t, "a", a)
	require.NoError(t, s.DeclareReturn(false))

	b, err := s.Run(k)
	require.NoError(t, err)
	assert.Equal(t, "b", b)
}

func TestState_Switch_SelectResumesRetainedState(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	a := sequence(t, g, "hello", "world")
	b := sequence(t, g, "one", "two", "three")
	root := forever(t, g, g.AddSwitch(parity(a, b, false)))
	s := start(t, g, root)

	k := &counter{}
	var got []string
	for _, v := range []int{0, 0, 0, 0, 1, 1, 0, 0} {
		k.value = v
		got = append(got, step(t, s, k))
	}
	assert.Equal(t, []string{"hello", "world", "hello", "world", "one", "two", "hello", "world"}, got)

	k.value = 1
	assert.Equal(t, "three", step(t, s, k), "B resumes after 'two'")
}

func TestState_Switch_InterleavedCounter(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	a := sequence(t, g, "hello", "world")
	b := sequence(t, g, "one", "two", "three")
	root := forever(t, g, g.AddSwitch(parity(a, b, false)))
	s := start(t, g, root)

	k := &counter{}
	var got []string
	for _, v := range []int{0, 0, 1, 1, 0, 0, 1} {
		k.value = v
		got = append(got, step(t, s, k))
	}
	assert.Equal(t, []string{"hello", "world", "one", "two", "hello", "world", "three"}, got)
	assert.Equal(t, 7, k.calls, "switch is consulted once per run")
}

func TestState_Switch_ResetDiscardsState(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	a := sequence(t, g, "hello", "world")
	b := sequence(t, g, "one", "two", "three")
	root := forever(t, g, g.AddSwitch(parity(a, b, true)))
	s := start(t, g, root)

	k := &counter{}
	var got []string
	for _, v := range []int{1, 1, 0, 1, 1} {
		k.value = v
		got = append(got, step(t, s, k))
	}
	assert.Equal(t, []string{"one", "one", "hello", "one", "one"}, got)
}

func TestState_Switch_ResetDiscardsNestedSwitchState(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	inner := sequence(t, g, "x1", "x2", "x3")
	other := sequence(t, g, "y")
	innerSwitch := g.AddSwitch(behaviour.SwitchFuncs[*counter]{
		CallFn: func(*counter) (behaviour.SwitchResolution, error) { return behaviour.Select(inner), nil },
	})
	outerSeq := forever(t, g, innerSwitch)
	selectOuter := true
	outer := g.AddSwitch(behaviour.SwitchFuncs[*counter]{
		CallFn: func(*counter) (behaviour.SwitchResolution, error) {
			if selectOuter {
				return behaviour.Select(outerSeq), nil
			}
			return behaviour.Reset(other), nil
		},
	})
	s := start(t, g, forever(t, g, outer))
	k := &counter{}

	assert.Equal(t, "x1", step(t, s, k))
	assert.Equal(t, "x2", step(t, s, k))
	selectOuter = false
	assert.Equal(t, "y", step(t, s, k))
	selectOuter = true
	assert.Equal(t, "x1", step(t, s, k), "reset away from the subtree drops its nested state")
}

func TestState_Switch_ReturnPropagates(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	a := all(t, g, yield(g, "only"))
	sw := g.AddSwitch(behaviour.SwitchFuncs[*counter]{
		CallFn:   func(*counter) (behaviour.SwitchResolution, error) { return behaviour.Select(a), nil },
		ReturnFn: func(success bool) behaviour.SwitchReturn { return behaviour.ReturnWith(!success) },
	})
	s := start(t, g, sw)
	k := &counter{}

	assert.Equal(t, "only", step(t, s, k))
	assert.False(t, s.Running(), "non-forever root finishes once the switch returns")

	_, err := s.Run(k)
	assert.ErrorIs(t, err, behaviour.ErrNotRunning)
}

func TestState_Switch_ContinueRecallsOnNextRun(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	a := all(t, g, yield(g, "a"))
	b := all(t, g, yield(g, "b"))
	sw := g.AddSwitch(behaviour.SwitchFuncs[*counter]{
		CallFn: func(k *counter) (behaviour.SwitchResolution, error) {
			k.calls++
			if k.calls%2 == 1 {
				return behaviour.Select(a), nil
			}
			return behaviour.Select(b), nil
		},
		ReturnFn: func(bool) behaviour.SwitchReturn { return behaviour.Continue() },
	})
	s := start(t, g, sw)
	k := &counter{}

	assert.Equal(t, "a", step(t, s, k))
	assert.True(t, s.Running())
	assert.Equal(t, "b", step(t, s, k))
	assert.Equal(t, "a", step(t, s, k))
}

func TestState_Run_SynchronousReturnsCascade(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	inner := all(t, g, returns(g, true), returns(g, false))
	root := forever(t, g, all(t, g, inner, yield(g, "after")))
	s := start(t, g, root)
	k := &counter{}

	assert.Equal(t, "after", step(t, s, k))
	assert.Equal(t, "after", step(t, s, k))
}

func TestState_Run_RootCompletesWithoutYield(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	root := all(t, g, returns(g, true))
	s := start(t, g, root)

	_, err := s.Run(&counter{})
	assert.ErrorIs(t, err, behaviour.ErrCompleted)
	assert.False(t, s.Running())
}

func TestState_Protocol_Errors(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	root := sequence(t, g, "a")
	s := behaviour.NewState[*counter, string]()
	k := &counter{}

	_, err := s.Run(k)
	assert.ErrorIs(t, err, behaviour.ErrNotRunning)
	assert.ErrorIs(t, s.DeclareReturn(true), behaviour.ErrNotAwaitingReturn)

	require.NoError(t, s.Initialise(g, root))
	assert.ErrorIs(t, s.Initialise(g, root), behaviour.ErrAlreadyRunning)
	assert.ErrorIs(t, s.DeclareReturn(true), behaviour.ErrNotAwaitingReturn)

	_, err = s.Run(k)
	require.NoError(t, err)
	_, err = s.Run(k)
	assert.ErrorIs(t, err, behaviour.ErrAwaitingReturn)
	require.NoError(t, s.DeclareReturn(true))
	assert.ErrorIs(t, s.DeclareReturn(true), behaviour.ErrNotAwaitingReturn)
}

func TestState_Initialise_InvalidRoot(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	s := behaviour.NewState[*counter, string]()
	assert.ErrorIs(t, s.Initialise(g, behaviour.LeafIndex(3)), behaviour.ErrInvalidNode)
	assert.False(t, s.Running())
}

func TestState_Switch_InvalidIndexIsError(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	sw := g.AddSwitch(behaviour.SwitchFuncs[*counter]{
		CallFn: func(*counter) (behaviour.SwitchResolution, error) {
			return behaviour.Select(behaviour.CollectionIndex(42)), nil
		},
	})
	s := start(t, g, sw)
	_, err := s.Run(&counter{})
	assert.ErrorIs(t, err, behaviour.ErrInvalidNode)
}

func TestState_Run_LeafErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	g := behaviour.NewGraph[*counter, string]()
	leaf := g.AddLeaf(behaviour.LeafFunc[*counter, string](func(*counter) (behaviour.LeafResolution[string], error) {
		return behaviour.LeafResolution[string]{}, boom
	}))
	s := start(t, g, forever(t, g, leaf))
	_, err := s.Run(&counter{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Awaiting())
}

func TestGraph_AddAll_Empty(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	_, err := g.AddAll()
	assert.ErrorIs(t, err, behaviour.ErrEmptyAll)
}

func TestGraph_AddAll_UnknownChild(t *testing.T) {
	g := behaviour.NewGraph[*counter, string]()
	_, err := g.AddAll(behaviour.LeafIndex(0))
	assert.ErrorIs(t, err, behaviour.ErrInvalidNode)
	_, err = g.AddForever(behaviour.CollectionIndex(0))
	assert.ErrorIs(t, err, behaviour.ErrInvalidNode)
}

func TestProperty_State_SequenceCyclesInOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 1, 6).Draw(rt, "words")
		outcomes := rapid.SliceOfN(rapid.Bool(), 1, 40).Draw(rt, "outcomes")

		g := behaviour.NewGraph[*counter, string]()
		s := start(rt, g, sequence(rt, g, words...))
		k := &counter{}
		for i, ok := range outcomes {
			a, err := s.Run(k)
			if err != nil {
				rt.Fatalf("run %d: %v", i, err)
			}
			if want := words[i%len(words)]; a != want {
				rt.Fatalf("run %d yielded %q, want %q", i, a, want)
			}
			if err := s.DeclareReturn(ok); err != nil {
				rt.Fatalf("declare %d: %v", i, err)
			}
		}
	})
}

func TestProperty_State_StackNeverEmptyUnderForever(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := behaviour.NewGraph[*counter, string]()
		a := sequence(rt, g, "a1", "a2")
		b := sequence(rt, g, "b1", "b2", "b3")
		reset := rapid.Bool().Draw(rt, "reset")
		s := start(rt, g, forever(rt, g, g.AddSwitch(parity(a, b, reset))))
		k := &counter{}
		for _, v := range rapid.SliceOfN(rapid.IntRange(0, 3), 1, 50).Draw(rt, "values") {
			k.value = v
			if _, err := s.Run(k); err != nil {
				rt.Fatalf("run: %v", err)
			}
			if err := s.DeclareReturn(rapid.Bool().Draw(rt, "ok")); err != nil {
				rt.Fatalf("declare: %v", err)
			}
			if !s.Running() || s.Depth() == 0 {
				rt.Fatal("forever root must keep the state running")
			}
		}
	})
}
