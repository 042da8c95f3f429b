package main

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/config"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/framework"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/net/packet"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap"
)

// 模擬世界：每隊五人，依副本拉怪路線放置怪物群。
// 代理走進仇恨範圍即開戰，施法視為造成傷害，怪物死亡時送出死亡封包給封包監聽器。

const (
	spellDamage  = 25
	mobHealth    = 100
	packSpacing  = 3.0
	aggroRadius  = 8
	linkRadius   = 10 // pack members pulled along with the first mob
	instanceBase = 1000
)

var partyRoles = []host.Role{host.RoleTank, host.RoleHealer, host.RoleMeleeDPS, host.RoleRangedDPS, host.RoleRangedDPS}

type simParty struct {
	group   ident.EntityID
	members []ident.EntityID
	session map[ident.EntityID]*memhost.Session
	paused  bool
}

type sim struct {
	h   *memhost.Host
	fw  *framework.Framework
	cfg config.SimConfig
	log *zap.Logger

	parties []*simParty
	owner   map[ident.EntityID]*simParty // member -> party
	mobs    map[ident.EntityID]bool      // alive hostile units
	seen    int                          // commands already applied
	elapsed time.Duration
}

func newSim(h *memhost.Host, fw *framework.Framework, cfg config.SimConfig, log *zap.Logger) *sim {
	return &sim{
		h:     h,
		fw:    fw,
		cfg:   cfg,
		log:   log,
		owner: make(map[ident.EntityID]*simParty),
		mobs:  make(map[ident.EntityID]bool),
	}
}

func (s *sim) build() error {
	if s.cfg.Groups <= 0 {
		return fmt.Errorf("sim.groups must be positive, got %d", s.cfg.Groups)
	}
	entrance := world.Position{}
	var packs []world.Position
	if s.fw.Dungeons() != nil {
		if d := s.fw.Dungeons().Get(s.cfg.MapID); d != nil {
			entrance = d.Entrance.Position()
			for _, p := range d.Packs {
				packs = append(packs, p.Pos.Position())
			}
		}
	}
	if len(packs) == 0 {
		for i := 0; i < s.cfg.Packs; i++ {
			packs = append(packs, world.Position{X: entrance.X + 20 + float32(i)*15, Y: entrance.Y})
		}
	}

	for gi := 0; gi < s.cfg.Groups; gi++ {
		p := &simParty{group: ident.NewEntityID(), session: make(map[ident.EntityID]*memhost.Session)}
		hg := host.Group{ID: p.group}
		for i, role := range partyRoles {
			id := ident.NewEntityID()
			p.members = append(p.members, id)
			hg.Members = append(hg.Members, host.GroupMember{ID: id, Role: role})
			s.h.PutUnit(host.Unit{
				ID: id, Map: s.cfg.MapID, Alive: true,
				Pos:    world.Position{X: entrance.X - float32(i)*2, Y: entrance.Y + float32(gi)*10, Z: entrance.Z},
				Health: 1000, MaxHealth: 1000, Power: 1000, MaxPower: 1000,
			})
			s.owner[id] = p
		}
		hg.Leader = p.members[0]
		s.h.PutGroup(hg)
		for _, id := range p.members {
			if _, err := s.fw.Agents.Spawn(id, nil); err != nil {
				return err
			}
			p.session[id] = s.h.NewSession(id, true)
		}
		s.parties = append(s.parties, p)

		for _, id := range p.members {
			s.fw.Bridge.OnDungeonEnter(id, s.cfg.MapID, instanceBase+uint32(gi), 0)
		}
		if _, err := s.fw.EnableAutonomy(p.members[0]); err != nil {
			return err
		}
		s.spawnPacks(packs, float32(gi)*10)
	}
	s.log.Info("模擬世界已建立",
		zap.Int("groups", len(s.parties)),
		zap.Int("mobs", len(s.mobs)),
		zap.Uint32("map", s.cfg.MapID))
	return nil
}

func (s *sim) spawnPacks(centers []world.Position, offsetY float32) {
	grid := s.fw.Maps.Grid(s.cfg.MapID)
	for i := 0; i < s.cfg.Packs; i++ {
		c := centers[i%len(centers)]
		for j := 0; j < 3; j++ {
			id := ident.NewEntityID()
			pos := world.Position{X: c.X + float32(j)*packSpacing, Y: c.Y + offsetY, Z: c.Z}
			s.h.PutUnit(host.Unit{
				ID: id, Entry: uint32(100 + i), Map: s.cfg.MapID, Pos: pos,
				Alive: true, Hostile: true, Health: mobHealth, MaxHealth: mobHealth,
			})
			grid.Update(id, pos)
			s.mobs[id] = true
		}
	}
}

// step applies the commands the framework issued since the last step.
func (s *sim) step(dt time.Duration) {
	s.elapsed += dt
	if s.cfg.PauseAfter > 0 && s.elapsed >= s.cfg.PauseAfter {
		for _, p := range s.parties {
			if p.paused {
				continue
			}
			p.paused = true
			if _, err := s.fw.PauseAutonomy(p.members[0], "sim pause"); err != nil {
				s.log.Warn("暫停失敗", zap.Error(err))
			}
		}
	}

	cmds := s.h.Commands()
	for _, c := range cmds[s.seen:] {
		switch c.Kind {
		case memhost.CmdMove:
			s.approach(c.Agent, c.Pos)
		case memhost.CmdCast:
			s.hit(c.Agent, c.Target)
		}
	}
	s.seen = len(cmds)

	for _, p := range s.parties {
		if !s.engaged(p) {
			for _, id := range p.members {
				s.h.UpdateUnit(id, func(u *host.Unit) { u.InCombat, u.Target = false, ident.Empty })
			}
		}
	}
}

// approach aggroes the first idle mob within aggroRadius of pos and every
// idle mob linked to it.
func (s *sim) approach(agent ident.EntityID, pos world.Position) {
	if _, ok := s.owner[agent]; !ok {
		return
	}
	grid := s.fw.Maps.Grid(s.cfg.MapID)
	for _, id := range grid.QueryRadius(pos, aggroRadius) {
		u, ok := s.h.Unit(id)
		if !ok || !s.mobs[id] || u.InCombat {
			continue
		}
		for _, linked := range grid.QueryRadius(u.Pos, linkRadius) {
			if s.mobs[linked] {
				s.aggro(agent, linked)
			}
		}
		return
	}
}

// aggro puts mob in combat with the party of attacker.
func (s *sim) aggro(attacker, mob ident.EntityID) {
	p := s.owner[attacker]
	first := false
	s.h.UpdateUnit(mob, func(u *host.Unit) {
		if !u.Alive || u.InCombat {
			return
		}
		first = true
		u.InCombat, u.Target = true, attacker
	})
	if !first {
		return
	}
	for _, id := range p.members {
		s.h.UpdateUnit(id, func(u *host.Unit) {
			u.InCombat = true
			if u.Target.IsEmpty() {
				u.Target = mob
			}
		})
	}
	s.fw.Sniffer.OnTypedPacket(p.session[attacker], &packet.AttackStart{Attacker: mob, Victim: attacker})
}

func (s *sim) hit(attacker, target ident.EntityID) {
	p, ok := s.owner[attacker]
	if !ok || !s.mobs[target] {
		return
	}
	s.aggro(attacker, target)
	dead := false
	s.h.UpdateUnit(target, func(u *host.Unit) {
		if u.Health <= spellDamage {
			u.Health, u.Alive, u.InCombat = 0, false, false
			dead = true
		} else {
			u.Health -= spellDamage
		}
	})
	if !dead {
		return
	}
	delete(s.mobs, target)
	s.fw.Maps.Grid(s.cfg.MapID).Remove(target)
	for _, id := range p.members {
		s.h.UpdateUnit(id, func(u *host.Unit) {
			if u.Target == target {
				u.Target = ident.Empty
			}
		})
		s.fw.Sniffer.OnTypedPacket(p.session[id], &packet.UnitDeath{Killer: attacker, Victim: target})
	}
}

// engaged reports whether any live mob is fighting a member of p.
func (s *sim) engaged(p *simParty) bool {
	for id := range s.mobs {
		u, ok := s.h.Unit(id)
		if !ok || !u.InCombat {
			continue
		}
		if s.owner[u.Target] == p {
			return true
		}
	}
	return false
}

func (s *sim) cleared() bool { return len(s.mobs) == 0 }
