// Package schedule provides the discrete-event priority queue that orders
// actions and entity turns in simulated time.
//
// Entries are ordered by (absolute time, insertion sequence). The sequence
// tie-break makes same-time entries pop in insertion order, which replay
// determinism depends on.
package schedule

import "container/heap"

// Ticket identifies a scheduled entry for later invalidation.
type Ticket struct {
	// Seq is the insertion sequence number of the entry.
	Seq uint64
	// Time is the absolute time at which the entry fires.
	Time uint64
}

type entry[T any] struct {
	value T
	time  uint64
	seq   uint64
}

type entryHeap[T any] []entry[T]

func (h entryHeap[T]) Len() int { return len(h) }

func (h entryHeap[T]) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[T]) Push(x any) { *h = append(*h, x.(entry[T])) }

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	var zero entry[T]
	old[n-1] = zero
	*h = old[:n-1]
	return e
}

// Scheduler is a min-priority queue keyed by absolute simulated time.
// It is not safe for concurrent use; the turn loop owns it exclusively.
//
// Invariant: now is non-decreasing.
type Scheduler[T any] struct {
	heap    entryHeap[T]
	now     uint64
	nextSeq uint64
	queued  map[uint64]struct{}
	invalid map[uint64]struct{}
}

// New returns an empty Scheduler with its clock at 0.
func New[T any]() *Scheduler[T] {
	return &Scheduler[T]{
		queued:  make(map[uint64]struct{}),
		invalid: make(map[uint64]struct{}),
	}
}

// Insert schedules value to fire relTime units after the current time.
// relTime == 0 is valid; same-time entries keep insertion order.
//
// Postcondition: the returned Ticket carries a sequence number unique to this Scheduler.
func (s *Scheduler[T]) Insert(value T, relTime uint64) Ticket {
	t := Ticket{Seq: s.nextSeq, Time: s.now + relTime}
	s.nextSeq++
	s.queued[t.Seq] = struct{}{}
	heap.Push(&s.heap, entry[T]{value: value, time: t.Time, seq: t.Seq})
	return t
}

// Next pops the earliest valid entry, advances the clock to its time and
// returns the elapsed time since the previous pop.
//
// Postcondition: ok is false iff no valid entries remain; that means the
// simulation is idle, not that anything failed.
func (s *Scheduler[T]) Next() (value T, delta uint64, ok bool) {
	for s.heap.Len() > 0 {
		e := heap.Pop(&s.heap).(entry[T])
		delete(s.queued, e.seq)
		if _, skip := s.invalid[e.seq]; skip {
			delete(s.invalid, e.seq)
			continue
		}
		delta = e.time - s.now
		s.now = e.time
		return e.value, delta, true
	}
	var zero T
	return zero, 0, false
}

// Invalidate marks the entry with sequence seq to be skipped when popped.
// Unknown or already-popped sequence numbers are ignored.
func (s *Scheduler[T]) Invalidate(seq uint64) {
	if _, ok := s.queued[seq]; !ok {
		return
	}
	s.invalid[seq] = struct{}{}
}

// Now returns the absolute time of the most recent pop.
func (s *Scheduler[T]) Now() uint64 { return s.now }

// Len returns the number of entries still queued, invalidated ones included.
func (s *Scheduler[T]) Len() int { return s.heap.Len() }

// Empty reports whether no valid entries remain.
func (s *Scheduler[T]) Empty() bool {
	return s.heap.Len() == len(s.invalid)
}

// Cancel invalidates the entry identified by t.
func (s *Scheduler[T]) Cancel(t Ticket) { s.Invalidate(t.Seq) }
