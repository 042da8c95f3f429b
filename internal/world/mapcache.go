package world

import (
	"sort"
	"sync"
)

// MapCaches owns one TerrainCache and one SpatialGrid per map. Switching maps
// always means switching cache instances.
type MapCaches struct {
	src     TerrainSource
	opts    TerrainOptions
	extents func(mapID uint32) (Extents, bool)

	mu      sync.RWMutex
	terrain map[uint32]*TerrainCache
	grids   map[uint32]*SpatialGrid
}

// NewMapCaches builds an empty set. extents may be nil, in which case every
// map uses opts.Extents (or the full default map).
func NewMapCaches(src TerrainSource, opts TerrainOptions, extents func(uint32) (Extents, bool)) *MapCaches {
	return &MapCaches{
		src:     src,
		opts:    opts,
		extents: extents,
		terrain: make(map[uint32]*TerrainCache),
		grids:   make(map[uint32]*SpatialGrid),
	}
}

func (m *MapCaches) extentsFor(mapID uint32) Extents {
	if m.extents != nil {
		if e, ok := m.extents(mapID); ok {
			return e
		}
	}
	if m.opts.Extents != (Extents{}) {
		return m.opts.Extents
	}
	return DefaultExtents()
}

// Terrain returns the cache for mapID, creating it on first use.
func (m *MapCaches) Terrain(mapID uint32) *TerrainCache {
	m.mu.RLock()
	c := m.terrain[mapID]
	m.mu.RUnlock()
	if c != nil {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c = m.terrain[mapID]; c == nil {
		opts := m.opts
		opts.Extents = m.extentsFor(mapID)
		c = NewTerrainCache(mapID, m.src, opts)
		m.terrain[mapID] = c
	}
	return c
}

// Grid returns the spatial grid for mapID, creating it on first use.
func (m *MapCaches) Grid(mapID uint32) *SpatialGrid {
	m.mu.RLock()
	g := m.grids[mapID]
	m.mu.RUnlock()
	if g != nil {
		return g
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g = m.grids[mapID]; g == nil {
		g = NewSpatialGrid(m.extentsFor(mapID))
		m.grids[mapID] = g
	}
	return g
}

// SwapAll publishes every grid's draft. Returns the number of grids that
// changed.
func (m *MapCaches) SwapAll() int {
	m.mu.RLock()
	grids := make([]*SpatialGrid, 0, len(m.grids))
	for _, g := range m.grids {
		grids = append(grids, g)
	}
	m.mu.RUnlock()

	n := 0
	for _, g := range grids {
		if g.Swap() {
			n++
		}
	}
	return n
}

// TerrainStats returns per-map terrain counters sorted by map id.
func (m *MapCaches) TerrainStats() []TerrainStats {
	m.mu.RLock()
	out := make([]TerrainStats, 0, len(m.terrain))
	for _, c := range m.terrain {
		out = append(out, c.Stats())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Map < out[j].Map })
	return out
}
