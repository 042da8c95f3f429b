package dungeon

import (
	"testing"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap/zaptest"
)

type party struct {
	h     *memhost.Host
	maps  *world.MapCaches
	reg   *Registry
	group ident.EntityID
	boss  ident.EntityID

	tank, healer, melee, ranged, ranged2 ident.EntityID
}

func (p *party) members() []ident.EntityID {
	return []ident.EntityID{p.tank, p.healer, p.melee, p.ranged, p.ranged2}
}

// newParty places a five-man group and an engaged boss on mapID.
func newParty(t *testing.T, mapID, bossEntry uint32, opts ...Option) *party {
	t.Helper()
	p := &party{
		h:       memhost.New(),
		group:   ident.NewEntityID(),
		boss:    ident.NewEntityID(),
		tank:    ident.NewEntityID(),
		healer:  ident.NewEntityID(),
		melee:   ident.NewEntityID(),
		ranged:  ident.NewEntityID(),
		ranged2: ident.NewEntityID(),
	}
	p.maps = world.NewMapCaches(p.h, world.TerrainOptions{}, nil)

	place := func(id ident.EntityID, x, y float32) {
		p.h.PutUnit(host.Unit{
			ID: id, Map: mapID, Pos: world.Position{X: x, Y: y}, Alive: true,
			Health: 100, MaxHealth: 100, Power: 100, MaxPower: 100,
		})
	}
	place(p.tank, 5, 0)
	place(p.healer, -20, 0)
	place(p.melee, 2, 2)
	place(p.ranged, -15, 5)
	place(p.ranged2, -15, -5)
	p.h.PutUnit(host.Unit{
		ID: p.boss, Entry: bossEntry, Map: mapID, Pos: world.Position{X: 10}, Alive: true, Hostile: true,
		Health: 1000, MaxHealth: 1000, Target: p.tank,
	})
	p.h.PutGroup(host.Group{
		ID:     p.group,
		Leader: p.tank,
		Members: []host.GroupMember{
			{ID: p.tank, Role: host.RoleTank},
			{ID: p.healer, Role: host.RoleHealer},
			{ID: p.melee, Role: host.RoleMeleeDPS},
			{ID: p.ranged, Role: host.RoleRangedDPS},
			{ID: p.ranged2, Role: host.RoleRangedDPS},
		},
	})
	p.reg = NewRegistry(Env{World: p.h, Cmd: p.h, Maps: p.maps}, zaptest.NewLogger(t), opts...)
	return p
}

// spawn adds a hostile unit and publishes it to the map's spatial grid.
func (p *party) spawn(entry uint32, pos world.Position, fn func(*host.Unit)) ident.EntityID {
	id := ident.NewEntityID()
	u := host.Unit{ID: id, Entry: entry, Map: 36, Pos: pos, Alive: true, Hostile: true, Health: 100, MaxHealth: 100}
	if boss, ok := p.h.Unit(p.boss); ok {
		u.Map = boss.Map
	}
	if fn != nil {
		fn(&u)
	}
	p.h.PutUnit(u)
	g := p.maps.Grid(u.Map)
	g.Update(id, pos)
	g.Swap()
	return id
}

func (p *party) context(t *testing.T, player ident.EntityID) *Context {
	t.Helper()
	c, err := p.reg.newContext(player, p.boss)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	return c
}

func (p *party) moves() []memhost.Command {
	var out []memhost.Command
	for _, c := range p.h.Commands() {
		if c.Kind == memhost.CmdMove {
			out = append(out, c)
		}
	}
	return out
}

func (p *party) casts() []memhost.Command {
	var out []memhost.Command
	for _, c := range p.h.Commands() {
		if c.Kind == memhost.CmdCast {
			out = append(out, c)
		}
	}
	return out
}
