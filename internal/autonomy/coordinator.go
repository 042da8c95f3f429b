package autonomy

import (
	"sort"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/data"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
)

const (
	// scanRadius bounds the pull search on maps without a pack route.
	scanRadius = 40
	// packLink is how close two mobs must stand to be pulled together when
	// no route groups them.
	packLink = 10
	// defaultPackRadius applies to route packs without a radius.
	defaultPackRadius = 15
)

// Wait reasons reported in Status.WaitReason.
const (
	reasonPassive     = "passive"
	reasonRecovery    = "recovery"
	reasonHealth      = "group health"
	reasonMana        = "healer mana"
	reasonStragglers  = "members too far"
	reasonNoPack      = "no pack"
	reasonPackTooBig  = "pack too large"
	reasonNoGrid      = "no spatial index"
	reasonOnlyCCMobs  = "pack crowd-controlled"
	reasonCombatGroup = "group in combat"
)

// ccSpells are crowd-control auras a pull must not break.
var ccSpells = map[uint32]bool{
	118:   true, // Polymorph
	12824: true, // Polymorph (rank 2)
	6770:  true, // Sap
	2637:  true, // Hibernate
	9484:  true, // Shackle Undead
	3355:  true, // Freezing Trap
	710:   true, // Banish
	339:   true, // Entangling Roots
}

func crowdControlled(u host.Unit) bool {
	for _, a := range u.Auras {
		if ccSpells[a.Spell] {
			return true
		}
	}
	return false
}

// Pull is the coordinator's answer to "what next".
type Pull struct {
	Pack uint32 // 0 for packs found without a route
	Name string
	Pos  world.Position
	// Mobs are ordered by distance from the tank; Mobs[0] is the pull target.
	Mobs []host.Unit
}

// Coordinator walks one map's pack route for one group and remembers which
// packs are cleared. It is owned by the manager and used under its lock.
type Coordinator struct {
	mapID   uint32
	route   []data.PackInfo
	world   host.World
	grid    *world.SpatialGrid
	cleared map[uint32]bool
}

func newCoordinator(mapID uint32, info *data.DungeonInfo, w host.World, grid *world.SpatialGrid) *Coordinator {
	c := &Coordinator{mapID: mapID, world: w, grid: grid, cleared: make(map[uint32]bool)}
	if info != nil {
		c.route = info.Packs
	}
	return c
}

func (c *Coordinator) MapID() uint32 { return c.mapID }

// MarkCleared records pack as done. Pack 0 is never recorded.
func (c *Coordinator) MarkCleared(pack uint32) {
	if pack != 0 {
		c.cleared[pack] = true
	}
}

func (c *Coordinator) Cleared() int { return len(c.cleared) }

// Remaining counts route packs not yet cleared.
func (c *Coordinator) Remaining() int {
	n := 0
	for _, p := range c.route {
		if !c.cleared[p.ID] {
			n++
		}
	}
	return n
}

// NextPack returns the nearest live pack that is not cleared. The second
// result explains why nothing was returned.
func (c *Coordinator) NextPack(from world.Position, cfg Config) (Pull, string, bool) {
	if c.grid == nil {
		return Pull{}, reasonNoGrid, false
	}
	if len(c.route) == 0 {
		return c.nearestHostiles(from, cfg)
	}

	packs := make([]data.PackInfo, 0, len(c.route))
	for _, p := range c.route {
		if !c.cleared[p.ID] {
			packs = append(packs, p)
		}
	}
	sort.SliceStable(packs, func(i, j int) bool {
		return from.Dist2D(packs[i].Pos.Position()) < from.Dist2D(packs[j].Pos.Position())
	})

	for _, p := range packs {
		pos := p.Pos.Position()
		r := p.Radius
		if r <= 0 {
			r = defaultPackRadius
		}
		mobs := c.liveMobs(pos, r, p.Entries)
		if len(mobs) == 0 {
			// 已被清掉或尚未重生
			c.cleared[p.ID] = true
			continue
		}
		return c.shape(Pull{Pack: p.ID, Name: p.Name, Pos: pos}, mobs, from, cfg)
	}
	return Pull{}, reasonNoPack, false
}

func (c *Coordinator) nearestHostiles(from world.Position, cfg Config) (Pull, string, bool) {
	mobs := c.liveMobs(from, scanRadius, nil)
	if len(mobs) == 0 {
		return Pull{}, reasonNoPack, false
	}
	sortByDistance(mobs, from)
	lead := mobs[0]
	pack := mobs[:0:0]
	for _, m := range mobs {
		if m.Pos.Dist2D(lead.Pos) <= packLink {
			pack = append(pack, m)
		}
	}
	return c.shape(Pull{Pos: lead.Pos}, pack, from, cfg)
}

// shape applies the size and crowd-control rules to a candidate pack.
func (c *Coordinator) shape(p Pull, mobs []host.Unit, from world.Position, cfg Config) (Pull, string, bool) {
	if cfg.MaxPullSize > 0 && len(mobs) > cfg.MaxPullSize {
		return Pull{}, reasonPackTooBig, false
	}
	if cfg.RespectCC {
		free := mobs[:0:0]
		for _, m := range mobs {
			if !crowdControlled(m) {
				free = append(free, m)
			}
		}
		mobs = free
	}
	if len(mobs) == 0 {
		return Pull{}, reasonOnlyCCMobs, false
	}
	sortByDistance(mobs, from)
	p.Mobs = mobs
	return p, "", true
}

// liveMobs resolves grid ids around center to live hostile creatures that
// are not yet fighting. A nil entries list accepts any creature.
func (c *Coordinator) liveMobs(center world.Position, r float32, entries []uint32) []host.Unit {
	var out []host.Unit
	for _, id := range c.grid.QueryRadius(center, r) {
		u, ok := c.world.Unit(id)
		if !ok || !u.Alive || !u.Hostile || u.Entry == 0 || u.InCombat || u.Map != c.mapID {
			continue
		}
		if len(entries) > 0 && !containsEntry(entries, u.Entry) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func containsEntry(entries []uint32, e uint32) bool {
	for _, x := range entries {
		if x == e {
			return true
		}
	}
	return false
}

func sortByDistance(us []host.Unit, from world.Position) {
	sort.Slice(us, func(i, j int) bool {
		di, dj := us[i].Pos.Dist2D(from), us[j].Pos.Dist2D(from)
		if di != dj {
			return di < dj
		}
		return ident.Less(us[i].ID, us[j].ID)
	})
}
