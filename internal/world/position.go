package world

import "math"

const (
	// GridCells is the number of cells per axis for both the spatial grid
	// and the terrain cache.
	GridCells = 512
	// MapSpan is the edge length of a full map in yards (64 tiles of
	// 533.33333 yards).
	MapSpan = 533.33333 * 64
	// DefaultCellSize is MapSpan/GridCells, about 66.67 yards.
	DefaultCellSize = MapSpan / GridCells

	RaidIconSlots = 8
)

// Position is a point in map space, in yards.
type Position struct {
	X, Y, Z float32
}

// Dist returns the 3D distance between p and q.
func (p Position) Dist(q Position) float32 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// Dist2D ignores height.
func (p Position) Dist2D(q Position) float32 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// Toward returns the point d yards from p in the direction of q. When p and
// q coincide p is returned.
func (p Position) Toward(q Position, d float32) Position {
	l := p.Dist2D(q)
	if l == 0 {
		return p
	}
	f := d / l
	return Position{X: p.X + (q.X-p.X)*f, Y: p.Y + (q.Y-p.Y)*f, Z: p.Z}
}

// Offset moves p by d yards along angle (radians, 0 = +X).
func (p Position) Offset(angle float64, d float32) Position {
	return Position{
		X: p.X + d*float32(math.Cos(angle)),
		Y: p.Y + d*float32(math.Sin(angle)),
		Z: p.Z,
	}
}

// Extents is the rectangle covered by a map's grids.
type Extents struct {
	MinX, MinY, MaxX, MaxY float32
}

// DefaultExtents is a full map centred on the origin.
func DefaultExtents() Extents {
	h := float32(MapSpan / 2)
	return Extents{MinX: -h, MinY: -h, MaxX: h, MaxY: h}
}

// Contains reports whether p lies inside e, edges included.
func (e Extents) Contains(p Position) bool {
	return p.X >= e.MinX && p.X <= e.MaxX && p.Y >= e.MinY && p.Y <= e.MaxY
}

// CellSize returns the edge length of one of the GridCells×GridCells cells.
func (e Extents) CellSize() float32 {
	w := e.MaxX - e.MinX
	if h := e.MaxY - e.MinY; h > w {
		w = h
	}
	if w <= 0 {
		return DefaultCellSize
	}
	return w / GridCells
}

// cellOf maps a position to clamped cell coordinates.
func cellOf(e Extents, size float32, p Position) (int, int) {
	return clampCell(int(math.Floor(float64((p.X - e.MinX) / size)))),
		clampCell(int(math.Floor(float64((p.Y - e.MinY) / size))))
}

func clampCell(v int) int {
	if v < 0 {
		return 0
	}
	if v >= GridCells {
		return GridCells - 1
	}
	return v
}
