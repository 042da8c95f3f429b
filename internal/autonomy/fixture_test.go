package autonomy

import (
	"testing"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap/zaptest"
)

const testMap = 36

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type party struct {
	h     *memhost.Host
	clk   *clock
	maps  *world.MapCaches
	m     *Manager
	group ident.EntityID

	tank, healer, melee, ranged ident.EntityID
}

func (p *party) members() []ident.EntityID {
	return []ident.EntityID{p.tank, p.healer, p.melee, p.ranged}
}

// newParty builds a four-man group (tank, healer, two DPS) standing together
// around the origin of testMap.
func newParty(t *testing.T, opts ...Option) *party {
	t.Helper()
	clk := &clock{t: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)}
	p := &party{
		h:      memhost.New(memhost.WithClock(clk.Now)),
		clk:    clk,
		group:  ident.NewEntityID(),
		tank:   ident.NewEntityID(),
		healer: ident.NewEntityID(),
		melee:  ident.NewEntityID(),
		ranged: ident.NewEntityID(),
	}
	p.maps = world.NewMapCaches(p.h, world.TerrainOptions{}, nil)

	place := func(id ident.EntityID, x, y float32) {
		p.h.PutUnit(host.Unit{
			ID: id, Map: testMap, Pos: world.Position{X: x, Y: y}, Alive: true,
			Health: 100, MaxHealth: 100, Power: 100, MaxPower: 100,
		})
	}
	place(p.tank, 0, 0)
	place(p.healer, -8, 0)
	place(p.melee, -3, 2)
	place(p.ranged, -10, -3)
	p.h.PutGroup(host.Group{
		ID:     p.group,
		Leader: p.tank,
		Members: []host.GroupMember{
			{ID: p.tank, Role: host.RoleTank},
			{ID: p.healer, Role: host.RoleHealer},
			{ID: p.melee, Role: host.RoleMeleeDPS},
			{ID: p.ranged, Role: host.RoleRangedDPS},
		},
	})

	all := append([]Option{WithClock(clk.Now), WithMaps(p.maps)}, opts...)
	p.m = NewManager(p.h, p.h, zaptest.NewLogger(t), all...)
	return p
}

// spawn adds a live hostile creature and publishes it to the spatial grid.
func (p *party) spawn(entry uint32, x, y float32, fn func(*host.Unit)) ident.EntityID {
	id := ident.NewEntityID()
	u := host.Unit{
		ID: id, Entry: entry, Map: testMap, Pos: world.Position{X: x, Y: y},
		Alive: true, Hostile: true, Health: 100, MaxHealth: 100,
	}
	if fn != nil {
		fn(&u)
	}
	p.h.PutUnit(u)
	g := p.maps.Grid(testMap)
	g.Update(id, u.Pos)
	g.Swap()
	return id
}

func (p *party) kill(id ident.EntityID) {
	p.h.UpdateUnit(id, func(u *host.Unit) { u.Alive = false; u.InCombat = false })
}

// tickAll advances the clock by one world tick and updates every member.
func (p *party) tickAll() {
	p.clk.Advance(100 * time.Millisecond)
	for _, id := range p.members() {
		p.m.Update(id, 100*time.Millisecond)
	}
}

func (p *party) setInCombat(in bool) {
	for _, id := range p.members() {
		p.h.UpdateUnit(id, func(u *host.Unit) { u.InCombat = in })
	}
}

func (p *party) status(t *testing.T) Status {
	t.Helper()
	st, ok := p.m.Snapshot(p.group)
	if !ok {
		t.Fatalf("no autonomy state for group")
	}
	return st
}
