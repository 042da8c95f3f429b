// Package sniffer intercepts packets on their way to agent sessions and
// turns them into bus events.
//
// The host hands over each packet still typed, before serializing it. The
// sniffer drops non-agent sessions first, validates the packet, and
// dispatches it by dynamic type to the translator registered for it.
// Translators are pure with respect to framework state: they read the
// packet, build events with the bus factories, and publish.
package sniffer

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/events"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/net/packet"
	"go.uber.org/zap"
)

// ErrUntranslatable is returned by translators for packets whose content
// cannot be mapped to an event.
var ErrUntranslatable = errors.New("untranslatable packet")

// Context is handed to every translator call.
type Context struct {
	Session host.Session
	Player  ident.EntityID
	Buses   *events.Family

	s        *Sniffer
	group    ident.EntityID
	groupSet bool
}

// Group returns the receiving agent's group, Empty when ungrouped.
func (c *Context) Group() ident.EntityID {
	if !c.groupSet {
		c.group, _ = c.s.world.GroupOf(c.Player)
		c.groupSet = true
	}
	return c.group
}

// Once reports whether p is a new packet rather than another receiver's copy
// of a broadcast already translated. Translators of packets that every
// nearby agent receives call it so the event is published once per packet.
// A second identical packet to the same session is a new packet.
func (c *Context) Once(p any) bool {
	if c.Buses.Gate.FirstFor(p, c.Session.ID()) {
		return true
	}
	c.s.stats.deduplicated.Add(1)
	return false
}

type groupScoped struct {
	p     any
	group ident.EntityID
}

// OncePerGroup is Once keyed additionally by the receiving agent's group,
// for events that carry a group key.
func (c *Context) OncePerGroup(p any) bool {
	return c.Once(groupScoped{p: p, group: c.Group()})
}

type handler func(c *Context, p packet.Packet) error

type handlerEntry struct {
	name string
	fn   handler
}

// Sniffer is the single interception point on the server-to-client path.
type Sniffer struct {
	world host.World
	buses *events.Family
	log   *zap.Logger

	mu       sync.RWMutex
	handlers map[reflect.Type]handlerEntry
	initOnce sync.Once

	stats counters

	opMu     sync.Mutex
	opcounts map[uint16]*opcodeCounter
}

func New(world host.World, buses *events.Family, log *zap.Logger) *Sniffer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sniffer{
		world:    world,
		buses:    buses,
		log:      log.Named("sniffer"),
		handlers: make(map[reflect.Type]handlerEntry),
		opcounts: make(map[uint16]*opcodeCounter),
	}
}

// RegisterTyped installs the translator for packet type T. Registering the
// same type twice replaces the earlier translator and logs a warning.
func RegisterTyped[T packet.Packet](s *Sniffer, fn func(c *Context, p T) error) {
	rt := reflect.TypeFor[T]()
	entry := handlerEntry{
		name: rt.String(),
		fn: func(c *Context, p packet.Packet) error {
			return fn(c, p.(T))
		},
	}
	s.mu.Lock()
	if _, dup := s.handlers[rt]; dup {
		s.log.Warn("封包轉譯器重複註冊", zap.String("type", entry.name))
	}
	s.handlers[rt] = entry
	s.mu.Unlock()
}

// Initialize wires every domain translator. Safe to call more than once.
func (s *Sniffer) Initialize() {
	s.initOnce.Do(func() {
		registerGroup(s)
		registerCombat(s)
		registerCooldown(s)
		registerLoot(s)
		registerQuest(s)
		registerAura(s)
		registerResource(s)
		registerSocial(s)
		registerAuction(s)
		registerNPC(s)
		registerInstance(s)

		s.mu.RLock()
		n := len(s.handlers)
		s.mu.RUnlock()
		s.log.Info("封包轉譯器已就緒", zap.Int("handlers", n))
	})
}

// Handlers returns the number of registered packet types.
func (s *Sniffer) Handlers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// OnTypedPacket is the primary hook, called for every packet the host is
// about to send to sess.
func (s *Sniffer) OnTypedPacket(sess host.Session, p packet.Packet) {
	if sess == nil || p == nil || !s.world.IsAgentSession(sess) {
		s.stats.skipped.Add(1)
		return
	}

	depth := s.stats.depth.Add(1)
	defer s.stats.depth.Add(-1)
	for {
		peak := s.stats.peak.Load()
		if depth <= peak || s.stats.peak.CompareAndSwap(peak, depth) {
			break
		}
	}

	cat := p.Category()
	s.mu.RLock()
	entry, ok := s.handlers[reflect.TypeOf(p)]
	s.mu.RUnlock()
	if !ok || cat == packet.CategoryUnknown {
		s.stats.byCategory[packet.CategoryUnknown].Add(1)
		return
	}
	s.stats.byCategory[cat].Add(1)

	if err := p.Validate(); err != nil {
		s.stats.parseFailures.Add(1)
		s.log.Debug("封包欄位無效，略過", zap.String("packet", entry.name), zap.Error(err))
		return
	}

	c := Context{Session: sess, Player: sess.Player(), Buses: s.buses, s: s}
	if err := s.safeCall(entry, &c, p); err != nil {
		s.stats.parseFailures.Add(1)
		s.log.Debug("封包轉譯失敗", zap.String("packet", entry.name), zap.Error(err))
		return
	}
	s.stats.translated.Add(1)
}

// safeCall runs a translator with panic recovery so one bad packet cannot
// unwind through the host tick.
func (s *Sniffer) safeCall(entry handlerEntry, c *Context, p packet.Packet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.stats.panics.Add(1)
			s.log.Error("轉譯器 panic 已恢復",
				zap.String("packet", entry.name),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("translator panic: %v", r)
		}
	}()
	return entry.fn(c, p)
}

// OnPacketSend is the serialized-packet hook. It only feeds the per-opcode
// statistics; events come from OnTypedPacket.
func (s *Sniffer) OnPacketSend(sess host.Session, raw []byte) {
	if sess == nil || !s.world.IsAgentSession(sess) {
		return
	}
	r := packet.NewReader(raw)
	if r.Short() {
		s.stats.parseFailures.Add(1)
		return
	}
	op := r.Opcode()

	s.opMu.Lock()
	oc := s.opcounts[op]
	if oc == nil {
		oc = &opcodeCounter{}
		s.opcounts[op] = oc
	}
	s.opMu.Unlock()

	oc.packets.Add(1)
	oc.bytes.Add(uint64(len(raw)))
	s.stats.legacy.Add(1)
}

// ---------- statistics ----------

type counters struct {
	byCategory    [packet.NumCategories]atomic.Uint64
	translated    atomic.Uint64
	parseFailures atomic.Uint64
	panics        atomic.Uint64
	skipped       atomic.Uint64
	deduplicated  atomic.Uint64
	legacy        atomic.Uint64
	depth         atomic.Int64
	peak          atomic.Int64
}

type opcodeCounter struct {
	packets atomic.Uint64
	bytes   atomic.Uint64
}

// OpcodeStat is the legacy-path count for one opcode.
type OpcodeStat struct {
	Opcode   uint16
	Name     string
	Category packet.Category
	Packets  uint64
	Bytes    uint64
}

// Stats is a snapshot of the sniffer counters.
type Stats struct {
	ByCategory    map[string]uint64
	Translated    uint64
	ParseFailures uint64
	Panics        uint64
	Skipped       uint64 // non-agent sessions
	Deduplicated  uint64
	Legacy        uint64
	PeakDepth     int64
	Opcodes       []OpcodeStat
}

// Unknown is the count of packets that had no translator.
func (s Stats) Unknown() uint64 { return s.ByCategory[packet.CategoryUnknown.String()] }

func (s *Sniffer) Stats() Stats {
	out := Stats{
		ByCategory:    make(map[string]uint64, packet.NumCategories),
		Translated:    s.stats.translated.Load(),
		ParseFailures: s.stats.parseFailures.Load(),
		Panics:        s.stats.panics.Load(),
		Skipped:       s.stats.skipped.Load(),
		Deduplicated:  s.stats.deduplicated.Load(),
		Legacy:        s.stats.legacy.Load(),
		PeakDepth:     s.stats.peak.Load(),
	}
	for c := packet.Category(0); c < packet.NumCategories; c++ {
		out.ByCategory[c.String()] = s.stats.byCategory[c].Load()
	}

	s.opMu.Lock()
	for op, oc := range s.opcounts {
		out.Opcodes = append(out.Opcodes, OpcodeStat{
			Opcode:   op,
			Name:     packet.OpcodeName(op),
			Category: packet.CategoryOf(op),
			Packets:  oc.packets.Load(),
			Bytes:    oc.bytes.Load(),
		})
	}
	s.opMu.Unlock()
	sort.Slice(out.Opcodes, func(i, j int) bool { return out.Opcodes[i].Opcode < out.Opcodes[j].Opcode })
	return out
}
