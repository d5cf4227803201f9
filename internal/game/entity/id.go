// Package entity provides generational entity identifiers, the pool that
// allocates them and the typed attribute stores keyed by them.
package entity

import "fmt"

// ID encodes a 32-bit index in the lower bits and a 32-bit generation in the
// upper bits. The generation increments on destroy so stale IDs stop
// resolving once their slot is reused.
type ID uint64

// None is the zero ID. The pool never allocates it.
const None ID = 0

// NewID packs index and generation into an ID.
func NewID(index, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

func (id ID) Index() uint32      { return uint32(id) }
func (id ID) Generation() uint32 { return uint32(id >> 32) }
func (id ID) IsZero() bool       { return id == None }

func (id ID) String() string {
	return fmt.Sprintf("e%d.%d", id.Index(), id.Generation())
}

// Pool allocates IDs with generational indices and a free list.
//
// Index 0 is reserved so that None is never a live ID.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 1, 256),
		freeList:    make([]uint32, 0, 64),
		nextIndex:   1,
	}
}

// Create allocates an ID, reusing a destroyed slot when one is free.
func (p *Pool) Create() ID {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return NewID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewID(idx, p.generations[idx])
}

// Alive reports whether id was allocated and not destroyed since.
func (p *Pool) Alive(id ID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

// Destroy releases id. Stale or unknown IDs are ignored.
func (p *Pool) Destroy(id ID) {
	if !p.Alive(id) {
		return
	}
	idx := id.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}
