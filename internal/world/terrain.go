package world

import (
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// NoGroundHeight is the height the host reports when no ground exists under a
// position. It is cached like any other answer.
const NoGroundHeight float32 = -200000

const DefaultTerrainTTL = 60 * time.Second

// LiquidStatus 液體狀態
type LiquidStatus uint8

const (
	LiquidNone LiquidStatus = iota
	LiquidAboveWater
	LiquidWaterWalk
	LiquidInWater
	LiquidUnderWater
)

func (l LiquidStatus) String() string {
	switch l {
	case LiquidNone:
		return "None"
	case LiquidAboveWater:
		return "AboveWater"
	case LiquidWaterWalk:
		return "WaterWalk"
	case LiquidInWater:
		return "InWater"
	case LiquidUnderWater:
		return "UnderWater"
	default:
		return "LiquidStatus(" + strconv.Itoa(int(l)) + ")"
	}
}

// TerrainInfo is one cached cell.
type TerrainInfo struct {
	Height     float32
	WaterLevel float32
	Liquid     LiquidStatus
	Valid      bool
	Phase      uint32
	At         time.Time
}

// HasGround is false for the no-ground sentinel; callers treat such
// positions as unreachable.
func (t TerrainInfo) HasGround() bool { return t.Height > NoGroundHeight }

// TerrainSource is the host geometry service.
type TerrainSource interface {
	QueryTerrain(mapID uint32, pos Position, phase uint32) TerrainInfo
}

// TerrainStats is a snapshot of the cache counters.
type TerrainStats struct {
	Map       uint32
	Hits      uint64
	Misses    uint64 // host queries issued
	Coalesced uint64 // misses answered by another caller's in-flight query
	Evictions uint64
	Entries   int64
}

func (s TerrainStats) HitRate() float64 {
	total := s.Hits + s.Misses + s.Coalesced
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type TerrainOptions struct {
	TTL     time.Duration
	Extents Extents
	Now     func() time.Time
}

// TerrainCache caches host terrain answers for one map on a
// GridCells×GridCells grid. Valid in-TTL reads are a single atomic load;
// misses for the same cell are coalesced into one host query.
type TerrainCache struct {
	mapID uint32
	src   TerrainSource
	ttl   time.Duration
	now   func() time.Time
	ext   Extents
	size  float32

	cells []atomic.Pointer[TerrainInfo]
	sf    singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	coalesced atomic.Uint64
	evictions atomic.Uint64
	entries   atomic.Int64
}

func NewTerrainCache(mapID uint32, src TerrainSource, opts TerrainOptions) *TerrainCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTerrainTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Extents == (Extents{}) {
		opts.Extents = DefaultExtents()
	}
	return &TerrainCache{
		mapID: mapID,
		src:   src,
		ttl:   opts.TTL,
		now:   opts.Now,
		ext:   opts.Extents,
		size:  opts.Extents.CellSize(),
		cells: make([]atomic.Pointer[TerrainInfo], GridCells*GridCells),
	}
}

func (c *TerrainCache) MapID() uint32 { return c.mapID }

// CellOf returns the cell coordinates containing p.
func (c *TerrainCache) CellOf(p Position) (int, int) {
	return cellOf(c.ext, c.size, p)
}

func (c *TerrainCache) center(cx, cy int) Position {
	return Position{
		X: c.ext.MinX + (float32(cx)+0.5)*c.size,
		Y: c.ext.MinY + (float32(cy)+0.5)*c.size,
	}
}

func (c *TerrainCache) fresh(e *TerrainInfo, phase uint32, now time.Time) bool {
	return e != nil && e.Valid && e.Phase == phase && now.Sub(e.At) < c.ttl
}

// Get returns the terrain of the cell containing pos. A missing, expired or
// other-phase entry is re-queried before returning, so the result is always
// valid. Positions outside the map extents have no ground and never reach
// the host.
func (c *TerrainCache) Get(pos Position, phase uint32) TerrainInfo {
	if !c.ext.Contains(pos) {
		return c.outside(phase)
	}
	cx, cy := c.CellOf(pos)
	idx := cy*GridCells + cx
	if e := c.cells[idx].Load(); c.fresh(e, phase, c.now()) {
		c.hits.Add(1)
		return *e
	}
	info, _ := c.populate(idx, cx, cy, phase)
	return info
}

func (c *TerrainCache) outside(phase uint32) TerrainInfo {
	return TerrainInfo{
		Height:     NoGroundHeight,
		WaterLevel: NoGroundHeight,
		Liquid:     LiquidNone,
		Valid:      true,
		Phase:      phase,
		At:         c.now(),
	}
}

// populate queries the host for one cell. The bool reports whether this call
// issued the query.
func (c *TerrainCache) populate(idx, cx, cy int, phase uint32) (TerrainInfo, bool) {
	key := strconv.Itoa(idx) + "/" + strconv.FormatUint(uint64(phase), 10)
	queried := false
	v, _, shared := c.sf.Do(key, func() (any, error) {
		// Another caller may have filled the cell while we waited for the
		// flight slot.
		if e := c.cells[idx].Load(); c.fresh(e, phase, c.now()) {
			return *e, nil
		}
		queried = true
		info := c.src.QueryTerrain(c.mapID, c.center(cx, cy), phase)
		info.Valid = true
		info.Phase = phase
		info.At = c.now()
		if old := c.cells[idx].Swap(&info); old == nil {
			c.entries.Add(1)
		} else {
			c.evictions.Add(1)
		}
		return info, nil
	})
	switch {
	case queried:
		c.misses.Add(1)
	case shared:
		c.coalesced.Add(1)
	default:
		c.hits.Add(1)
	}
	return v.(TerrainInfo), queried
}

// Warm pre-populates the cells under positions and returns how many cells
// were queried.
func (c *TerrainCache) Warm(positions []Position, phase uint32) int {
	n := 0
	now := c.now()
	for _, p := range positions {
		if !c.ext.Contains(p) {
			continue
		}
		cx, cy := c.CellOf(p)
		idx := cy*GridCells + cx
		if c.fresh(c.cells[idx].Load(), phase, now) {
			continue
		}
		if _, q := c.populate(idx, cx, cy, phase); q {
			n++
		}
	}
	return n
}

// InvalidateCell drops one cell; the next Get for it re-queries.
func (c *TerrainCache) InvalidateCell(cx, cy int) {
	if cx < 0 || cy < 0 || cx >= GridCells || cy >= GridCells {
		return
	}
	if old := c.cells[cy*GridCells+cx].Swap(nil); old != nil {
		c.entries.Add(-1)
		c.evictions.Add(1)
	}
}

// Clear drops every cell, e.g. after a phase change.
func (c *TerrainCache) Clear() {
	for i := range c.cells {
		if old := c.cells[i].Swap(nil); old != nil {
			c.entries.Add(-1)
			c.evictions.Add(1)
		}
	}
}

func (c *TerrainCache) Stats() TerrainStats {
	return TerrainStats{
		Map:       c.mapID,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Coalesced: c.coalesced.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.entries.Load(),
	}
}
