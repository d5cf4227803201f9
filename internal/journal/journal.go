// Package journal records every committed action of a run.
//
// The journal is append-only. Replaying a run's entries in Turn order
// against the same initial world reproduces its final state.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/rogue/internal/game/action"
)

// Entry is one committed action.
type Entry struct {
	RunID uuid.UUID
	// Turn is the turn counter value after the commit, starting at 1.
	Turn uint64
	// Time is the absolute simulated time of the commit.
	Time    uint64
	Kind    action.Kind
	Actor   uint64
	Payload json.RawMessage
}

// NewEntry encodes a as an Entry.
//
// Precondition: a must be non-nil.
// Postcondition: Returns an Entry with a JSON payload or a non-nil error.
func NewEntry(run uuid.UUID, turn, time uint64, a action.Args) (Entry, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding %s: %w", a.Kind(), err)
	}
	return Entry{
		RunID:   run,
		Turn:    turn,
		Time:    time,
		Kind:    a.Kind(),
		Actor:   uint64(a.Actor()),
		Payload: payload,
	}, nil
}

// Recorder persists journal entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Reader lists the entries of a run in Turn order.
type Reader interface {
	Entries(ctx context.Context, run uuid.UUID) ([]Entry, error)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Record(context.Context, Entry) error { return nil }

// Memory keeps entries in process. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]Entry
}

// NewMemory returns an empty Memory journal.
func NewMemory() *Memory {
	return &Memory{entries: make(map[uuid.UUID][]Entry)}
}

// Record appends e.
//
// Postcondition: Returns ctx.Err() without recording if ctx is done.
func (m *Memory) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.RunID] = append(m.entries[e.RunID], e)
	return nil
}

// Entries returns a copy of run's entries sorted by Turn.
func (m *Memory) Entries(_ context.Context, run uuid.UUID) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.entries[run])
	slices.SortStableFunc(out, func(a, b Entry) int {
		switch {
		case a.Turn < b.Turn:
			return -1
		case a.Turn > b.Turn:
			return 1
		}
		return 0
	})
	return out, nil
}

// Runs returns the IDs of every run recorded so far.
func (m *Memory) Runs() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := make([]uuid.UUID, 0, len(m.entries))
	for id := range m.entries {
		runs = append(runs, id)
	}
	slices.SortFunc(runs, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return runs
}
