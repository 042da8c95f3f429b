package world

import (
	"sync"
	"sync/atomic"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// SpatialGrid is a double-buffered cell index of object positions.
// Writers (host position updates) fill a private draft; Swap publishes it as
// an immutable snapshot that any goroutine may query without locking.
// Query results can name objects that have since despawned.
type SpatialGrid struct {
	ext  Extents
	size float32

	mu    sync.Mutex
	draft map[ident.EntityID]Position
	dirty bool

	snap  atomic.Pointer[gridSnapshot]
	swaps atomic.Uint64
}

type gridEntry struct {
	id  ident.EntityID
	pos Position
}

type gridSnapshot struct {
	cells map[int32][]gridEntry // cy*GridCells+cx → entries
	count int
}

var emptySnapshot = &gridSnapshot{cells: map[int32][]gridEntry{}}

func NewSpatialGrid(ext Extents) *SpatialGrid {
	g := &SpatialGrid{
		ext:   ext,
		size:  ext.CellSize(),
		draft: make(map[ident.EntityID]Position),
	}
	g.snap.Store(emptySnapshot)
	return g
}

// CellSize is the edge length of one cell in yards.
func (g *SpatialGrid) CellSize() float32 { return g.size }

// CellOf returns the cell coordinates containing p.
func (g *SpatialGrid) CellOf(p Position) (int, int) {
	return cellOf(g.ext, g.size, p)
}

// Update places or moves id in the draft.
func (g *SpatialGrid) Update(id ident.EntityID, p Position) {
	g.mu.Lock()
	if old, ok := g.draft[id]; !ok || old != p {
		g.draft[id] = p
		g.dirty = true
	}
	g.mu.Unlock()
}

// Remove takes id out of the draft.
func (g *SpatialGrid) Remove(id ident.EntityID) {
	g.mu.Lock()
	if _, ok := g.draft[id]; ok {
		delete(g.draft, id)
		g.dirty = true
	}
	g.mu.Unlock()
}

// Swap publishes the draft as the new read snapshot. Called once per tick.
// Returns false when nothing changed since the last swap.
func (g *SpatialGrid) Swap() bool {
	g.mu.Lock()
	if !g.dirty {
		g.mu.Unlock()
		return false
	}
	s := &gridSnapshot{cells: make(map[int32][]gridEntry), count: len(g.draft)}
	for id, p := range g.draft {
		cx, cy := g.CellOf(p)
		k := int32(cy*GridCells + cx)
		s.cells[k] = append(s.cells[k], gridEntry{id: id, pos: p})
	}
	g.dirty = false
	g.mu.Unlock()

	g.snap.Store(s)
	g.swaps.Add(1)
	return true
}

// QueryRadius returns the ids within r yards (2D) of center in the current
// snapshot.
func (g *SpatialGrid) QueryRadius(center Position, r float32) []ident.EntityID {
	s := g.snap.Load()
	minX, minY := g.CellOf(Position{X: center.X - r, Y: center.Y - r})
	maxX, maxY := g.CellOf(Position{X: center.X + r, Y: center.Y + r})
	var out []ident.EntityID
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			for _, e := range s.cells[int32(cy*GridCells+cx)] {
				if e.pos.Dist2D(center) <= r {
					out = append(out, e.id)
				}
			}
		}
	}
	return out
}

// QueryCell returns every id in one cell of the current snapshot.
func (g *SpatialGrid) QueryCell(cx, cy int) []ident.EntityID {
	if cx < 0 || cy < 0 || cx >= GridCells || cy >= GridCells {
		return nil
	}
	entries := g.snap.Load().cells[int32(cy*GridCells+cx)]
	out := make([]ident.EntityID, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}

// Len is the number of objects in the current snapshot.
func (g *SpatialGrid) Len() int { return g.snap.Load().count }

// Swaps counts published snapshots.
func (g *SpatialGrid) Swaps() uint64 { return g.swaps.Load() }
