package ecs

// Key is any handle that encodes a 32-bit slot index in the lower bits and a
// 32-bit generation in the upper bits. Generation increments when the slot is
// freed so stale handles stop resolving.
type Key interface {
	~uint64
}

// EntityID identifies an entity slot in the world arena.
type EntityID uint64

// ComponentID identifies a component slot inside one per-type store.
type ComponentID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(makeKey(index, generation))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

func (id ComponentID) Index() uint32      { return uint32(id) }
func (id ComponentID) Generation() uint32 { return uint32(id >> 32) }
func (id ComponentID) IsZero() bool       { return id == 0 }

func makeKey(index, generation uint32) uint64 {
	return uint64(generation)<<32 | uint64(index)
}

// Pool manages slot allocation with generational indices and a free list.
// Generations start at 1 so the zero key never names a live slot.
type Pool[K Key] struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
	live        int
}

func NewPool[K Key]() *Pool[K] {
	return &Pool[K]{
		generations: make([]uint32, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *Pool[K]) Create() K {
	p.live++
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return K(makeKey(idx, p.generations[idx]))
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 1)
	}
	return K(makeKey(idx, p.generations[idx]))
}

func (p *Pool[K]) Alive(id K) bool {
	idx := uint32(id)
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == uint32(uint64(id)>>32)
}

// Issued reports whether id could have come from this pool: its slot has
// been allocated and its generation is not newer than the slot's.
func (p *Pool[K]) Issued(id K) bool {
	idx := uint32(id)
	gen := uint32(uint64(id) >> 32)
	return gen != 0 && idx < p.nextIndex && gen <= p.generations[idx]
}

// Destroy frees the slot. Stale or already destroyed keys are ignored.
func (p *Pool[K]) Destroy(id K) bool {
	if !p.Alive(id) {
		return false
	}
	idx := uint32(id)
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	p.freeList = append(p.freeList, idx)
	p.live--
	return true
}

// Len returns the number of live slots.
func (p *Pool[K]) Len() int { return p.live }

// Cap returns the number of slots ever allocated (live or free).
func (p *Pool[K]) Cap() int { return int(p.nextIndex) }
