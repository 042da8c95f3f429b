package autonomy

import (
	"time"

	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap"
)

// Raid icon slots used when marking a pull.
const (
	iconSkull uint8 = 7
	iconCross uint8 = 6
)

const (
	// pullStandoff is how far short of the pack leader the tank stops.
	pullStandoff = 4
	meleeFollow  = 6
	rangedFollow = 12
	healerFollow = 15
)

type member struct {
	unit host.Unit
	role host.Role
}

// tick is everything one Update resolved from the host, built under the
// manager lock.
type tick struct {
	gs       *groupState
	group    host.Group
	self     host.Unit
	role     host.Role
	members  []member
	tank     host.Unit
	hasTank  bool
	inCombat bool
	now      time.Time
}

func (m *Manager) newTick(gs *groupState, g host.Group, self host.Unit, now time.Time) *tick {
	t := &tick{gs: gs, group: g, self: self, now: now}
	for _, gm := range g.Members {
		u, ok := m.world.Unit(gm.ID)
		if !ok {
			continue
		}
		role := gm.Role
		if role == host.RoleNone {
			role = m.world.Role(gm.ID)
		}
		t.members = append(t.members, member{unit: u, role: role})
		if u.Alive && u.InCombat && u.Map == self.Map {
			t.inCombat = true
		}
		if role == host.RoleTank && u.Alive && !t.hasTank {
			t.tank, t.hasTank = u, true
		}
		if gm.ID == self.ID {
			t.role = role
		}
	}
	if t.role == host.RoleNone {
		t.role = m.world.Role(self.ID)
	}

	if gs.coord == nil || gs.mapID != self.Map {
		gs.mapID = self.Map
		var grid *world.SpatialGrid
		if m.maps != nil {
			grid = m.maps.Grid(self.Map)
		}
		gs.coord = newCoordinator(self.Map, m.dungeons.Get(self.Map), m.world, grid)
	}
	return t
}

// wait records why the tank is holding. Only Active and Waiting groups wait;
// a chain-pull check that fails in Combat leaves the fight alone.
func (m *Manager) wait(gs *groupState, reason string, now time.Time) {
	if gs.state != StateActive && gs.state != StateWaiting {
		return
	}
	m.setState(gs, StateWaiting, reason, now)
	gs.waitReason = reason
}

// ---------- tank ----------

func (m *Manager) updateTank(t *tick) []action {
	gs, cfg := t.gs, t.gs.cfg
	gs.lastTankPos = t.self.Pos

	switch gs.state {
	case StateActive, StateWaiting:
	case StateCombat:
		if !cfg.ChainPull {
			return m.attackMarked(t)
		}
	default:
		return nil
	}

	if !cfg.AutoPull {
		m.wait(gs, reasonPassive, t.now)
		return nil
	}
	if gs.state != StateCombat && !gs.lastPull.IsZero() && t.now.Sub(gs.lastPull) < cfg.RecoveryTime {
		m.wait(gs, reasonRecovery, t.now)
		return nil
	}
	if reason, ok := m.readyToPull(t); !ok {
		m.wait(gs, reason, t.now)
		if gs.state == StateCombat {
			return m.attackMarked(t)
		}
		return nil
	}
	pull, reason, ok := gs.coord.NextPack(t.self.Pos, cfg)
	if !ok {
		m.wait(gs, reason, t.now)
		if gs.state == StateCombat {
			return m.attackMarked(t)
		}
		return nil
	}
	return m.startPull(t, pull)
}

// readyToPull checks group health, healer mana and member spread.
func (m *Manager) readyToPull(t *tick) (string, bool) {
	cfg := t.gs.cfg
	var health float64
	n := 0
	for _, mem := range t.members {
		n++
		if mem.unit.Alive {
			health += mem.unit.HealthFraction()
		}
	}
	if n > 0 && health/float64(n) < cfg.MinHealthToPull {
		return reasonHealth, false
	}
	for _, mem := range t.members {
		if mem.role == host.RoleHealer && mem.unit.Alive && mem.unit.PowerFraction() < cfg.MinManaToPull {
			return reasonMana, false
		}
	}
	if cfg.WaitForSlowMembers {
		for _, mem := range t.members {
			u := mem.unit
			if u.ID == t.self.ID || !u.Alive {
				continue
			}
			if u.Map != t.self.Map || u.Pos.Dist2D(t.self.Pos) > cfg.MaxMemberDistance {
				return reasonStragglers, false
			}
		}
	}
	return "", true
}

func (m *Manager) startPull(t *tick, pull Pull) []action {
	gs := t.gs
	lead := pull.Mobs[0]
	gs.pack = pull.Pack
	gs.pullTarget = lead.ID
	gs.lastPull = t.now
	gs.pullStarted = t.now
	m.setState(gs, StatePulling, "pull", t.now)

	var acts []action
	if gs.cfg.AutoMark {
		acts = append(acts, action{kind: actIcon, group: gs.id, slot: iconSkull, target: lead.ID})
		if len(pull.Mobs) > 1 {
			acts = append(acts, action{kind: actIcon, group: gs.id, slot: iconCross, target: pull.Mobs[1].ID})
		}
	}
	acts = append(acts, action{
		kind:  actMove,
		agent: t.self.ID,
		pos:   lead.Pos.Toward(t.self.Pos, pullStandoff),
	})
	m.log.Debug("開始拉怪",
		zap.String("group", gs.id.Short()),
		zap.Uint32("pack", pull.Pack),
		zap.String("name", pull.Name),
		zap.Int("mobs", len(pull.Mobs)))
	return acts
}

// attackMarked points the agent at the skull-marked mob.
func (m *Manager) attackMarked(t *tick) []action {
	target := t.group.Icons[iconSkull]
	if target.IsEmpty() || t.self.Target == target {
		return nil
	}
	u, ok := m.world.Unit(target)
	if !ok || !u.Alive || !u.Hostile || u.Map != t.self.Map {
		return nil
	}
	if t.gs.cfg.RespectCC && crowdControlled(u) {
		return nil
	}
	return []action{{kind: actCast, agent: t.self.ID, spell: host.SpellAutoAttack, target: target}}
}

// ---------- healer / dps ----------

func (m *Manager) updateHealer(t *tick) []action {
	switch t.gs.state {
	case StateCombat, StatePulling:
		return nil
	}
	return m.follow(t, healerFollow)
}

func (m *Manager) updateDPS(t *tick) []action {
	switch t.gs.state {
	case StateCombat:
		if acts := m.attackMarked(t); len(acts) > 0 {
			return acts
		}
		return m.assistTank(t)
	case StatePulling:
		return nil
	}
	if t.role == host.RoleMeleeDPS {
		return m.follow(t, meleeFollow)
	}
	return m.follow(t, rangedFollow)
}

// assistTank attacks whatever the tank is hitting when nothing is marked.
func (m *Manager) assistTank(t *tick) []action {
	if !t.hasTank || t.tank.Target.IsEmpty() || t.self.Target == t.tank.Target {
		return nil
	}
	if !t.group.Icons[iconSkull].IsEmpty() {
		return nil
	}
	u, ok := m.world.Unit(t.tank.Target)
	if !ok || !u.Alive || !u.Hostile {
		return nil
	}
	if t.gs.cfg.RespectCC && crowdControlled(u) {
		return nil
	}
	return []action{{kind: actCast, agent: t.self.ID, spell: host.SpellAutoAttack, target: u.ID}}
}

// follow keeps the agent within dist of the tank.
func (m *Manager) follow(t *tick, dist float32) []action {
	if !t.hasTank || t.tank.ID == t.self.ID || t.tank.Map != t.self.Map {
		return nil
	}
	if t.self.Pos.Dist2D(t.tank.Pos) <= dist {
		return nil
	}
	return []action{{
		kind:  actMove,
		agent: t.self.ID,
		pos:   t.tank.Pos.Toward(t.self.Pos, dist/2),
	}}
}
