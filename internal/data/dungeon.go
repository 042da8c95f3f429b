package data

import (
	"fmt"
	"os"
	"sort"

	"github.com/l1jgo/playerbot/internal/world"
	"gopkg.in/yaml.v3"
)

// Point is a yaml position.
type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

func (p Point) Position() world.Position { return world.Position{X: p.X, Y: p.Y, Z: p.Z} }

// Bounds is the rectangle a dungeon map occupies.
type Bounds struct {
	MinX float32 `yaml:"min_x"`
	MinY float32 `yaml:"min_y"`
	MaxX float32 `yaml:"max_x"`
	MaxY float32 `yaml:"max_y"`
}

// PackInfo is one trash pack on a dungeon's pull route.
type PackInfo struct {
	ID      uint32   `yaml:"id"`
	Name    string   `yaml:"name"`
	Pos     Point    `yaml:"pos"`
	Radius  float32  `yaml:"radius"` // yards around Pos that belong to the pack
	Size    int      `yaml:"size"`   // expected mob count
	Entries []uint32 `yaml:"entries"`
	Patrol  bool     `yaml:"patrol"`
}

// BossInfo is one boss encounter.
type BossInfo struct {
	Entry uint32 `yaml:"entry"`
	Name  string `yaml:"name"`
	Pos   Point  `yaml:"pos"`
}

// DungeonInfo holds everything the framework knows about one instance map,
// loaded from dungeons.yaml.
type DungeonInfo struct {
	MapID    uint32     `yaml:"map_id"`
	Name     string     `yaml:"name"`
	MinLevel int        `yaml:"min_level"`
	MaxLevel int        `yaml:"max_level"`
	Raid     bool       `yaml:"raid"`
	Bounds   *Bounds    `yaml:"bounds"`
	Entrance Point      `yaml:"entrance"`
	Hotspots []Point    `yaml:"hotspots"` // terrain cache warm positions
	Packs    []PackInfo `yaml:"packs"`    // pull route, in order
	Bosses   []BossInfo `yaml:"bosses"`
}

// HotspotPositions converts Hotspots.
func (d *DungeonInfo) HotspotPositions() []world.Position {
	out := make([]world.Position, len(d.Hotspots))
	for i, p := range d.Hotspots {
		out[i] = p.Position()
	}
	return out
}

// Boss returns the boss with the given entry.
func (d *DungeonInfo) Boss(entry uint32) (BossInfo, bool) {
	for _, b := range d.Bosses {
		if b.Entry == entry {
			return b, true
		}
	}
	return BossInfo{}, false
}

// DungeonTable provides dungeon lookups by map id.
type DungeonTable struct {
	dungeons map[uint32]*DungeonInfo
	bosses   map[uint32]uint32 // boss entry → map id
}

type dungeonListFile struct {
	Dungeons []DungeonInfo `yaml:"dungeons"`
}

// LoadDungeonTable loads dungeon definitions from a YAML file.
func LoadDungeonTable(path string) (*DungeonTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dungeons %s: %w", path, err)
	}
	return ParseDungeonTable(raw)
}

// ParseDungeonTable builds a table from YAML bytes.
func ParseDungeonTable(raw []byte) (*DungeonTable, error) {
	var file dungeonListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse dungeons: %w", err)
	}

	t := &DungeonTable{
		dungeons: make(map[uint32]*DungeonInfo, len(file.Dungeons)),
		bosses:   make(map[uint32]uint32),
	}
	for i := range file.Dungeons {
		d := &file.Dungeons[i]
		if _, dup := t.dungeons[d.MapID]; dup {
			return nil, fmt.Errorf("dungeon map %d defined twice", d.MapID)
		}
		packs := make(map[uint32]bool, len(d.Packs))
		for j := range d.Packs {
			p := &d.Packs[j]
			if packs[p.ID] {
				return nil, fmt.Errorf("dungeon %d: pack %d defined twice", d.MapID, p.ID)
			}
			packs[p.ID] = true
			if p.Radius <= 0 {
				p.Radius = 15
			}
		}
		for _, b := range d.Bosses {
			if m, dup := t.bosses[b.Entry]; dup {
				return nil, fmt.Errorf("boss %d listed in maps %d and %d", b.Entry, m, d.MapID)
			}
			t.bosses[b.Entry] = d.MapID
		}
		t.dungeons[d.MapID] = d
	}
	return t, nil
}

// Get returns a dungeon by map id, or nil if not found.
func (t *DungeonTable) Get(mapID uint32) *DungeonInfo {
	if t == nil {
		return nil
	}
	return t.dungeons[mapID]
}

// MapOfBoss returns the map a boss entry belongs to.
func (t *DungeonTable) MapOfBoss(entry uint32) (uint32, bool) {
	if t == nil {
		return 0, false
	}
	m, ok := t.bosses[entry]
	return m, ok
}

// Extents returns the grid extents for a map. Maps without bounds use the
// full default map.
func (t *DungeonTable) Extents(mapID uint32) (world.Extents, bool) {
	d := t.Get(mapID)
	if d == nil || d.Bounds == nil {
		return world.Extents{}, false
	}
	return world.Extents{MinX: d.Bounds.MinX, MinY: d.Bounds.MinY, MaxX: d.Bounds.MaxX, MaxY: d.Bounds.MaxY}, true
}

// Maps lists the known map ids in ascending order.
func (t *DungeonTable) Maps() []uint32 {
	if t == nil {
		return nil
	}
	out := make([]uint32, 0, len(t.dungeons))
	for id := range t.dungeons {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of loaded dungeons.
func (t *DungeonTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.dungeons)
}
