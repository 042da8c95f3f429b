package autonomy

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/data"
	"github.com/l1jgo/playerbot/internal/events/combat"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap"
)

var (
	ErrUnknownGroup = errors.New("autonomy: unknown group")
	ErrNotPaused    = errors.New("autonomy: group not paused")
)

// groupState is one group's machine. Everything except the atomics is
// guarded by Manager.mu.
type groupState struct {
	id    ident.EntityID
	cfg   Config
	state State // underlying state; Paused is never stored here

	paused      atomic.Bool
	pausedBy    ident.EntityID
	pauseReason string
	pausedAt    time.Time

	lastChange    time.Time
	lastPull      time.Time
	pullStarted   time.Time
	combatEndedAt time.Time
	pack          uint32
	pullTarget    ident.EntityID
	lastTankPos   world.Position
	waitReason    string
	mapID         uint32
	coord         *Coordinator

	pulls, aborted, timeouts, stateChanges uint64
	actions, suppressed                    atomic.Uint64
}

// visible is what State() reports.
func (gs *groupState) visible() State {
	if gs.paused.Load() {
		return StatePaused
	}
	return gs.state
}

func (gs *groupState) clearPull() {
	gs.pack = 0
	gs.pullTarget = ident.Empty
	gs.pullStarted = time.Time{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDungeons supplies the pack routes.
func WithDungeons(t *data.DungeonTable) Option {
	return func(m *Manager) { m.dungeons = t }
}

// WithMaps supplies the per-map spatial grids.
func WithMaps(maps *world.MapCaches) Option {
	return func(m *Manager) { m.maps = maps }
}

// WithDefaults replaces the config used when Enable is given a zero Config.
func WithDefaults(c Config) Option {
	return func(m *Manager) { m.defaults = c }
}

// WithChangeHook registers fn for every visible state change. fn runs
// outside the manager lock.
func WithChangeHook(fn func(Change)) Option {
	return func(m *Manager) { m.onChange = fn }
}

// Manager owns every group's autonomy state.
type Manager struct {
	mu       sync.Mutex
	groups   map[ident.EntityID]*groupState
	changes  []Change // pending hook calls, flushed after unlock
	world    host.World
	cmd      host.Commander
	dungeons *data.DungeonTable
	maps     *world.MapCaches
	defaults Config
	now      func() time.Time
	log      *zap.Logger
	onChange func(Change)
}

func NewManager(w host.World, cmd host.Commander, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		groups:   make(map[ident.EntityID]*groupState),
		world:    w,
		cmd:      cmd,
		defaults: DefaultConfig(),
		now:      time.Now,
		log:      log.Named("autonomy"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// unlock releases the lock and runs the change hook for what happened while
// it was held.
func (m *Manager) unlock() {
	pending := m.changes
	m.changes = nil
	m.mu.Unlock()
	if m.onChange == nil {
		return
	}
	for _, c := range pending {
		m.onChange(c)
	}
}

func (m *Manager) record(gs *groupState, from, to State, by ident.EntityID, reason string, now time.Time) {
	gs.lastChange = now
	gs.stateChanges++
	m.changes = append(m.changes, Change{Group: gs.id, From: from, To: to, By: by, Reason: reason, At: now})
}

// setState moves the underlying state. While paused the visible state does
// not change, so neither the change time nor the hook fire.
func (m *Manager) setState(gs *groupState, to State, reason string, now time.Time) {
	if gs.state == to {
		return
	}
	from := gs.state
	gs.state = to
	if to != StateWaiting {
		gs.waitReason = ""
	}
	if gs.paused.Load() {
		return
	}
	m.record(gs, from, to, ident.Empty, reason, now)
}

func (m *Manager) ensure(group ident.EntityID) *groupState {
	gs := m.groups[group]
	if gs == nil {
		gs = &groupState{id: group, cfg: m.defaults, state: StateDisabled}
		m.groups[group] = gs
	}
	return gs
}

// ---------- control ----------

// Pause stops every autonomous action of group at once. A group the manager
// has not seen yet is created paused, so a later Enable keeps the pause.
// Pausing an already paused group changes nothing and returns false.
func (m *Manager) Pause(group, by ident.EntityID, reason string) bool {
	m.mu.Lock()
	defer m.unlock()
	gs := m.ensure(group)
	if gs.paused.Load() {
		return false
	}
	now := m.now()
	from := gs.state
	gs.paused.Store(true)
	gs.pausedBy, gs.pauseReason, gs.pausedAt = by, reason, now
	m.record(gs, from, StatePaused, by, reason, now)
	m.log.Info("自主模式已暫停",
		zap.String("group", group.Short()),
		zap.String("by", by.Short()),
		zap.String("reason", reason),
		zap.Stringer("was", from))
	return true
}

// Resume clears the pause. A pull that was under way is abandoned and a
// fight that ended meanwhile continues as recovery.
func (m *Manager) Resume(group, by ident.EntityID) (State, error) {
	m.mu.Lock()
	defer m.unlock()
	gs := m.groups[group]
	if gs == nil {
		return StateDisabled, ErrUnknownGroup
	}
	if !gs.paused.Load() {
		return gs.state, ErrNotPaused
	}
	now := m.now()
	switch gs.state {
	case StatePulling:
		gs.state = StateActive
		gs.clearPull()
	case StateCombat:
		if !m.groupInCombat(group) {
			gs.state = StateRecovering
			gs.combatEndedAt = now
		}
	}
	gs.paused.Store(false)
	m.record(gs, StatePaused, gs.state, by, "resume", now)
	m.log.Info("自主模式已恢復",
		zap.String("group", group.Short()),
		zap.String("by", by.Short()),
		zap.Duration("paused_for", now.Sub(gs.pausedAt)),
		zap.Stringer("state", gs.state))
	gs.pausedBy, gs.pauseReason, gs.pausedAt = ident.Empty, "", time.Time{}
	return gs.state, nil
}

// Toggle pauses a running group and resumes a paused one. It returns the
// visible state afterwards.
func (m *Manager) Toggle(group, by ident.EntityID) (State, error) {
	m.mu.Lock()
	gs := m.groups[group]
	paused := gs != nil && gs.paused.Load()
	m.mu.Unlock()
	if paused {
		return m.Resume(group, by)
	}
	m.Pause(group, by, "toggle")
	return StatePaused, nil
}

// Enable starts autonomy for group with cfg; a zero cfg takes the manager
// defaults. A paused group stays paused.
func (m *Manager) Enable(group ident.EntityID, cfg Config) State {
	m.mu.Lock()
	defer m.unlock()
	if cfg == (Config{}) {
		cfg = m.defaults
	}
	gs := m.ensure(group)
	gs.cfg = cfg
	if gs.state == StateDisabled {
		m.setState(gs, StateActive, "enable", m.now())
	}
	if gs.paused.Load() {
		m.log.Info("隊伍仍在暫停，啟用後維持暫停",
			zap.String("group", group.Short()),
			zap.String("paused_by", gs.pausedBy.Short()))
		return StatePaused
	}
	m.log.Info("自主模式已啟用",
		zap.String("group", group.Short()),
		zap.Stringer("aggression", cfg.Aggression))
	return gs.state
}

// Disable stops autonomy. The pause flag is kept.
func (m *Manager) Disable(group ident.EntityID) {
	m.mu.Lock()
	defer m.unlock()
	gs := m.groups[group]
	if gs == nil {
		return
	}
	gs.clearPull()
	gs.coord = nil
	m.setState(gs, StateDisabled, "disable", m.now())
}

// SetAggression re-applies the preset of tier a.
func (m *Manager) SetAggression(group ident.EntityID, a Aggression) error {
	if a > Reckless {
		return ErrUnknownAggression
	}
	m.mu.Lock()
	defer m.unlock()
	gs := m.groups[group]
	if gs == nil {
		return ErrUnknownGroup
	}
	gs.cfg = gs.cfg.withAggression(a)
	m.log.Info("積極度已變更", zap.String("group", group.Short()), zap.Stringer("aggression", a))
	return nil
}

// ---------- lifecycle ----------

// OnGroupDisbanded forgets the group, its coordinator included.
func (m *Manager) OnGroupDisbanded(group ident.EntityID) bool {
	m.mu.Lock()
	defer m.unlock()
	if _, ok := m.groups[group]; !ok {
		return false
	}
	delete(m.groups, group)
	m.log.Debug("隊伍解散，清除自主狀態", zap.String("group", group.Short()))
	return true
}

// OnLeaveDungeon disables the group and drops its pack route.
func (m *Manager) OnLeaveDungeon(group ident.EntityID) {
	m.Disable(group)
}

// ---------- queries ----------

// State is the visible state; unknown groups report Disabled.
func (m *Manager) State(group ident.EntityID) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gs := m.groups[group]; gs != nil {
		return gs.visible()
	}
	return StateDisabled
}

func (m *Manager) IsPaused(group ident.EntityID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs := m.groups[group]
	return gs != nil && gs.paused.Load()
}

func (m *Manager) Snapshot(group ident.EntityID) (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs := m.groups[group]
	if gs == nil {
		return Status{}, false
	}
	st := Status{
		Group:           gs.id,
		State:           gs.visible(),
		Underlying:      gs.state,
		Config:          gs.cfg,
		PausedBy:        gs.pausedBy,
		PauseReason:     gs.pauseReason,
		PausedAt:        gs.pausedAt,
		LastStateChange: gs.lastChange,
		LastPull:        gs.lastPull,
		Pack:            gs.pack,
		PullTarget:      gs.pullTarget,
		WaitReason:      gs.waitReason,
		MapID:           gs.mapID,
		Counters: Counters{
			Pulls:        gs.pulls,
			Aborted:      gs.aborted,
			Timeouts:     gs.timeouts,
			StateChanges: gs.stateChanges,
			Actions:      gs.actions.Load(),
			Suppressed:   gs.suppressed.Load(),
		},
	}
	if gs.coord != nil {
		st.PacksCleared = gs.coord.Cleared()
	}
	return st, true
}

// Groups lists the groups the manager holds state for.
func (m *Manager) Groups() []ident.EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ident.EntityID, 0, len(m.groups))
	for id := range m.groups {
		out = append(out, id)
	}
	return out
}

// ---------- tick ----------

// Update runs one tick of autonomy for agent. It returns true when autonomy
// took charge of the agent this tick and the agent should skip its own
// default behavior.
func (m *Manager) Update(agent ident.EntityID, _ time.Duration) bool {
	group, ok := m.world.GroupOf(agent)
	if !ok {
		return false
	}
	m.mu.Lock()
	gs := m.groups[group]
	if gs == nil {
		m.mu.Unlock()
		return false
	}
	if gs.paused.Load() {
		gs.suppressed.Add(1)
		m.mu.Unlock()
		return false
	}
	if gs.state == StateDisabled {
		m.mu.Unlock()
		return false
	}
	self, ok := m.world.Unit(agent)
	if !ok || !self.Alive {
		m.mu.Unlock()
		return false
	}
	g, ok := m.world.Group(group)
	if !ok {
		m.mu.Unlock()
		return false
	}

	now := m.now()
	t := m.newTick(gs, g, self, now)
	m.advance(t)

	var acts []action
	switch t.role {
	case host.RoleTank:
		acts = m.updateTank(t)
	case host.RoleHealer:
		acts = m.updateHealer(t)
	default:
		acts = m.updateDPS(t)
	}
	handled := len(acts) > 0 || gs.state != StateCombat
	m.unlock()

	m.issue(gs, acts)
	return handled
}

// advance runs the timers and the pull checks shared by every role.
func (m *Manager) advance(t *tick) {
	gs := t.gs
	switch gs.state {
	case StateRecovering:
		if t.inCombat {
			m.setState(gs, StateCombat, "attacked", t.now)
		} else if t.now.Sub(gs.combatEndedAt) >= gs.cfg.RecoveryTime {
			m.setState(gs, StateActive, "recovered", t.now)
		}
	case StatePulling:
		target, ok := m.world.Unit(gs.pullTarget)
		switch {
		case t.inCombat:
			m.engage(gs, t.now)
		case !ok || !target.Alive:
			m.abortPull(gs, "target gone", t.now)
		case gs.cfg.PullTimeout > 0 && t.now.Sub(gs.pullStarted) >= gs.cfg.PullTimeout:
			gs.timeouts++
			m.log.Warn("拉怪逾時",
				zap.String("group", gs.id.Short()),
				zap.Uint32("pack", gs.pack),
				zap.Duration("timeout", gs.cfg.PullTimeout))
			gs.clearPull()
			m.setState(gs, StateActive, "pull timeout", t.now)
		}
	case StateCombat:
		if !t.inCombat {
			m.leaveCombat(gs, t.now)
		}
	case StateActive, StateWaiting:
		if t.inCombat {
			m.setState(gs, StateCombat, "attacked", t.now)
		}
	}
}

// engage is Pulling → Combat; the pull counts.
func (m *Manager) engage(gs *groupState, now time.Time) {
	if gs.state != StatePulling {
		return
	}
	gs.pulls++
	m.setState(gs, StateCombat, "engaged", now)
}

func (m *Manager) abortPull(gs *groupState, why string, now time.Time) {
	gs.aborted++
	m.log.Info("拉怪目標失效",
		zap.String("group", gs.id.Short()),
		zap.Uint32("pack", gs.pack),
		zap.String("why", why))
	gs.clearPull()
	m.setState(gs, StateActive, why, now)
}

// leaveCombat is Combat → Recovering; the pack in progress counts as cleared.
func (m *Manager) leaveCombat(gs *groupState, now time.Time) {
	if gs.state != StateCombat {
		return
	}
	if gs.coord != nil {
		gs.coord.MarkCleared(gs.pack)
	}
	gs.clearPull()
	gs.combatEndedAt = now
	m.setState(gs, StateRecovering, "combat ended", now)
}

func (m *Manager) groupInCombat(group ident.EntityID) bool {
	g, ok := m.world.Group(group)
	if !ok {
		return false
	}
	for _, mem := range g.Members {
		if u, ok := m.world.Unit(mem.ID); ok && u.Alive && u.InCombat {
			return true
		}
	}
	return false
}

// ---------- combat bus ----------

// combatTypes are the combat events the manager listens to.
var combatTypes = []combat.Type{
	combat.DamageTaken, combat.AggroGained, combat.CombatStarted,
	combat.CombatEnded, combat.UnitDied,
}

// Attach subscribes the manager to bus.
func (m *Manager) Attach(bus *combat.Bus) event.SubscriptionID {
	return bus.SubscribeCallback(m.OnCombatEvent, combatTypes...)
}

// OnCombatEvent drives the Pulling → Combat → Recovering edges from combat
// traffic. Events without a group are matched through their target.
func (m *Manager) OnCombatEvent(e combat.Event) {
	group := e.Group
	if group.IsEmpty() {
		var ok bool
		if group, ok = m.world.GroupOf(e.Target); !ok {
			if group, ok = m.world.GroupOf(e.Source); !ok {
				return
			}
		}
	}
	m.mu.Lock()
	defer m.unlock()
	gs := m.groups[group]
	if gs == nil || gs.state == StateDisabled {
		return
	}
	now := m.now()
	switch e.Type {
	case combat.DamageTaken, combat.AggroGained, combat.CombatStarted:
		switch gs.state {
		case StatePulling:
			m.engage(gs, now)
		case StateActive, StateWaiting, StateRecovering:
			m.setState(gs, StateCombat, "attacked", now)
		}
	case combat.CombatEnded:
		if gs.state == StateCombat && !m.groupInCombat(group) {
			m.leaveCombat(gs, now)
		}
	case combat.UnitDied:
		if gs.state == StatePulling && e.Target == gs.pullTarget {
			m.abortPull(gs, "target died", now)
		}
	}
}

// ---------- outbound ----------

type actionKind uint8

const (
	actMove actionKind = iota + 1
	actCast
	actIcon
)

type action struct {
	kind   actionKind
	agent  ident.EntityID
	group  ident.EntityID
	pos    world.Position
	spell  uint32
	target ident.EntityID
	slot   uint8
}

// issue sends the collected commands. The pause flag is checked before each
// one, so a pause that lands between the decision and the send still wins.
func (m *Manager) issue(gs *groupState, acts []action) {
	for _, a := range acts {
		if gs.paused.Load() {
			gs.suppressed.Add(1)
			continue
		}
		var err error
		switch a.kind {
		case actMove:
			err = m.cmd.MoveTo(a.agent, a.pos)
		case actCast:
			err = m.cmd.CastSpell(a.agent, a.spell, a.target)
		case actIcon:
			err = m.cmd.SetRaidIcon(a.group, a.slot, a.target)
		}
		if err != nil {
			m.log.Debug("自主指令失敗", zap.String("agent", a.agent.Short()), zap.Error(err))
			continue
		}
		gs.actions.Add(1)
	}
}
