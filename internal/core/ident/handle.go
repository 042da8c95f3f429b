package ident

// Handle encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on release so stale handles stop
// resolving. Zero is never issued.
type Handle uint64

func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsZero() bool       { return h == 0 }

// HandlePool allocates generational handles with a free list.
// Not safe for concurrent use; owners guard it with their own mutex.
type HandlePool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
	live        int
}

func NewHandlePool() *HandlePool {
	return &HandlePool{
		generations: make([]uint32, 0, 64),
		freeList:    make([]uint32, 0, 16),
	}
}

// Acquire returns a fresh handle. Generations start at 1 so the zero Handle
// stays invalid.
func (p *HandlePool) Acquire() Handle {
	p.live++
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewHandle(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 1)
	}
	return NewHandle(idx, p.generations[idx])
}

func (p *HandlePool) Alive(h Handle) bool {
	idx := h.Index()
	if h.IsZero() || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == h.Generation()
}

// Release invalidates h. Releasing a stale handle is a no-op and returns false.
func (p *HandlePool) Release(h Handle) bool {
	if !p.Alive(h) {
		return false
	}
	idx := h.Index()
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	p.freeList = append(p.freeList, idx)
	p.live--
	return true
}

// Len returns the number of live handles.
func (p *HandlePool) Len() int { return p.live }
