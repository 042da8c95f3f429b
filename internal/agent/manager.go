package agent

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/events"
	"github.com/l1jgo/playerbot/internal/events/group"
	"github.com/l1jgo/playerbot/internal/host"
	"go.uber.org/zap"
)

var (
	ErrSpawned   = errors.New("agent: already spawned")
	ErrInvalidID = errors.New("agent: empty id")
)

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithHandler sets the handler used by Spawn when none is given.
func WithHandler(h Handler) Option { return func(m *Manager) { m.handler = h } }

// Manager owns the agents and keeps their subscriptions in step with group
// membership.
type Manager struct {
	world    host.World
	buses    *events.Family
	autonomy *autonomy.Manager // may be nil
	log      *zap.Logger
	now      func() time.Time
	handler  Handler

	mu     sync.Mutex
	agents map[ident.EntityID]*Agent
	doomed []ident.EntityID

	groupSub event.SubscriptionID
}

func NewManager(w host.World, buses *events.Family, am *autonomy.Manager, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		world:    w,
		buses:    buses,
		autonomy: am,
		log:      log.Named("agent"),
		now:      time.Now,
		agents:   make(map[ident.EntityID]*Agent),
	}
	for _, o := range opts {
		o(m)
	}
	// registered before any agent, so it runs ahead of agent subscriptions
	m.groupSub = buses.Group.SubscribeCallback(m.onGroupEvent,
		group.GroupDisbanded, group.MemberLeft, group.MemberJoined, group.InviteReceived)
	return m
}

// Close removes the manager's own bus subscription.
func (m *Manager) Close() {
	m.buses.Group.UnsubscribeCallback(m.groupSub)
}

// subscribe binds a to every type of b.
func subscribe[E event.Event[E], K event.Kind](b *event.Bus[E, K], a *Agent) {
	name := b.Name()
	b.Subscribe(event.Bind(a.id, func(e E) {
		a.deliver(name, b.TypeName(e.TypeIndex()), e)
	}), b.Types()...)
}

// subscribeGroup binds a to the group bus, skipping other groups' traffic
// unless it names the agent.
func (m *Manager) subscribeGroup(a *Agent) {
	b := m.buses.Group
	b.Subscribe(event.Bind(a.id, func(e group.Event) {
		if e.Group != a.Group() && e.Target != a.id {
			return
		}
		a.deliver(b.Name(), e.Type.String(), e)
	}), b.Types()...)
}

// Spawn registers an agent and subscribes it. h may be nil, in which case
// the manager's default handler is used.
func (m *Manager) Spawn(id ident.EntityID, h Handler) (*Agent, error) {
	if id.IsEmpty() {
		return nil, ErrInvalidID
	}
	if h == nil {
		h = m.handler
	}
	m.mu.Lock()
	if _, ok := m.agents[id]; ok {
		m.mu.Unlock()
		return nil, ErrSpawned
	}
	a := newAgent(id, h, m.now)
	m.agents[id] = a
	m.mu.Unlock()

	f := m.buses
	subscribe(f.Combat, a)
	subscribe(f.Cooldown, a)
	subscribe(f.Loot, a)
	subscribe(f.Quest, a)
	subscribe(f.Aura, a)
	subscribe(f.Resource, a)
	subscribe(f.Social, a)
	subscribe(f.Auction, a)
	subscribe(f.NPC, a)
	subscribe(f.Instance, a)
	if g, ok := m.world.GroupOf(id); ok {
		a.setGroup(g)
		m.subscribeGroup(a)
	}
	m.log.Info("代理已生成", zap.String("agent", id.Short()), zap.String("group", a.Group().Short()))
	return a, nil
}

// Despawn unsubscribes the agent from every bus and forgets it.
func (m *Manager) Despawn(id ident.EntityID) bool {
	m.mu.Lock()
	_, ok := m.agents[id]
	delete(m.agents, id)
	m.mu.Unlock()
	if !ok {
		return false
	}
	n := m.buses.UnsubscribeAll(id)
	m.log.Info("代理已移除", zap.String("agent", id.Short()), zap.Int("buses", n))
	return true
}

// QueueDespawn defers Despawn of id to FlushDespawns. Handlers running
// inside a bus delivery use it instead of Despawn.
func (m *Manager) QueueDespawn(id ident.EntityID) {
	m.mu.Lock()
	m.doomed = append(m.doomed, id)
	m.mu.Unlock()
}

// FlushDespawns runs the queued despawns and returns how many agents went.
func (m *Manager) FlushDespawns() int {
	m.mu.Lock()
	ids := m.doomed
	m.doomed = nil
	m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if m.Despawn(id) {
			n++
		}
	}
	return n
}

func (m *Manager) Get(id ident.EntityID) (*Agent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	return a, ok
}

// Agents returns the agents sorted by id.
func (m *Manager) Agents() []*Agent {
	m.mu.Lock()
	out := make([]*Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return ident.Less(out[i].id, out[j].id) })
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents)
}

// Tick runs one autonomy update per agent and returns how many ticks
// autonomy handled. Unhandled ticks belong to the agent's own rotation.
func (m *Manager) Tick(diff time.Duration) int {
	handled := 0
	for _, a := range m.Agents() {
		ok := m.autonomy != nil && m.autonomy.Update(a.id, diff)
		a.countTick(ok)
		if ok {
			handled++
		}
	}
	return handled
}

// leave hands e to a and then drops its group-bus subscription. The manager
// callback runs before a's own subscription, so a sees e exactly once.
func (m *Manager) leave(a *Agent, e group.Event) {
	a.setGroup(ident.Empty)
	if m.buses.Group.UnsubscribeID(a.id) {
		a.deliver(m.buses.Group.Name(), e.Type.String(), e)
	}
}

// join subscribes a to the group bus if needed. A fresh subscription missed
// e, so e is handed over directly.
func (m *Manager) join(a *Agent, e group.Event) {
	if m.buses.Group.IsSubscribed(a.id) {
		return
	}
	m.subscribeGroup(a)
	a.deliver(m.buses.Group.Name(), e.Type.String(), e)
}

func (m *Manager) onGroupEvent(e group.Event) {
	switch e.Type {
	case group.GroupDisbanded:
		n := 0
		for _, a := range m.Agents() {
			if a.Group() == e.Group {
				m.leave(a, e)
				n++
			}
		}
		if n > 0 {
			m.log.Debug("隊伍解散，代理已退訂隊伍事件", zap.String("group", e.Group.Short()), zap.Int("agents", n))
		}
	case group.MemberLeft:
		if a, ok := m.Get(e.Target); ok && a.Group() == e.Group {
			m.leave(a, e)
		}
	case group.MemberJoined:
		if a, ok := m.Get(e.Target); ok {
			a.setGroup(e.Group)
			m.join(a, e)
		}
	case group.InviteReceived:
		if a, ok := m.Get(e.Target); ok {
			m.join(a, e)
		}
	}
}
