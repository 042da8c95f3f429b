// Package event implements the bus skeleton shared by every event domain.
//
// A Bus is a priority-ordered, TTL-bounded, multi-subscriber channel. Non-batch
// events are delivered synchronously on the publishing goroutine before Publish
// returns; batch events wait for ProcessEvents. Locks are never held while a
// subscriber runs, so a subscriber may publish again (the nested event is queued
// and delivered by the outermost drain loop).
//
// Lock order: Bus.mu (subscribers + counters) before Bus.qmu (queue).
package event

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"go.uber.org/zap"
)

const (
	DefaultTTL      = 30 * time.Second
	DefaultMaxQueue = 10000
)

// Kind is the constraint for a domain's event-type discriminator.
type Kind interface {
	~uint8 | ~uint16
}

// Descriptor is the static description of one event domain.
type Descriptor[E any] struct {
	Name string
	// TypeNames is indexed by Event.TypeIndex.
	TypeNames []string
	// Defaults holds the default priority for each type.
	Defaults []Priority
	// GroupKey extracts the group an event belongs to for ProcessGroupEvents.
	// Nil means Header.Target.
	GroupKey func(E) ident.EntityID
}

// Options tune a bus instance.
type Options struct {
	TTL      time.Duration
	MaxQueue int
	Now      func() time.Time
	Log      *zap.Logger
}

// DropReason labels why an event left the bus without being delivered.
type DropReason string

const (
	DropInvalid  DropReason = "invalid"
	DropOverflow DropReason = "overflow"
	DropExpired  DropReason = "expired"
)

// Observer receives bus telemetry. Calls happen outside the bus locks.
type Observer interface {
	EventPublished(bus, typ string, p Priority)
	EventDelivered(bus, typ string, took time.Duration)
	EventDropped(bus, typ string, reason DropReason)
	SubscriberFault(bus, typ string)
}

type slot[E any] struct {
	handle ident.Handle
	owner  ident.EntityID // Empty for callback subscriptions
	fn     func(E)
	all    bool
	types  []bool
}

type target[E any] struct {
	handle ident.Handle
	fn     func(E)
}

// Bus is one event domain's distribution channel.
type Bus[E Event[E], K Kind] struct {
	desc Descriptor[E]
	ttl  time.Duration
	max  int
	now  func() time.Time
	log  *zap.Logger

	mu       sync.Mutex
	handles  *ident.HandlePool
	slots    map[ident.Handle]*slot[E]
	owners   map[ident.EntityID]ident.Handle
	byType   [][]ident.Handle
	global   []ident.Handle
	stats    counters
	observer Observer

	qmu      sync.Mutex
	queue    pqueue[E]
	seq      uint64
	draining bool
}

// NewBus builds a bus for the given domain. Zero-valued options fall back to
// the package defaults.
func NewBus[E Event[E], K Kind](desc Descriptor[E], opts Options) *Bus[E, K] {
	if len(desc.Defaults) != len(desc.TypeNames) {
		panic(fmt.Sprintf("event: bus %s has %d type names but %d default priorities",
			desc.Name, len(desc.TypeNames), len(desc.Defaults)))
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxQueue <= 0 {
		opts.MaxQueue = DefaultMaxQueue
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Bus[E, K]{
		desc:    desc,
		ttl:     opts.TTL,
		max:     opts.MaxQueue,
		now:     opts.Now,
		log:     opts.Log.Named(desc.Name),
		handles: ident.NewHandlePool(),
		slots:   make(map[ident.Handle]*slot[E]),
		owners:  make(map[ident.EntityID]ident.Handle),
		byType:  make([][]ident.Handle, len(desc.TypeNames)),
		stats:   newCounters(len(desc.TypeNames)),
	}
}

func (b *Bus[E, K]) Name() string { return b.desc.Name }

// TTL is the lifetime stamped onto events that arrive without an expiry.
func (b *Bus[E, K]) TTL() time.Duration { return b.ttl }

// TypeName returns the display name for a type index.
func (b *Bus[E, K]) TypeName(i int) string {
	if i < 0 || i >= len(b.desc.TypeNames) {
		return fmt.Sprintf("Unknown(%d)", i)
	}
	return b.desc.TypeNames[i]
}

// Types lists every event type of the domain in declaration order.
func (b *Bus[E, K]) Types() []K {
	out := make([]K, len(b.desc.TypeNames))
	for i := range out {
		out[i] = K(i)
	}
	return out
}

// DefaultPriority returns the table priority for k.
func (b *Bus[E, K]) DefaultPriority(k K) Priority {
	i := int(k)
	if i < 0 || i >= len(b.desc.Defaults) {
		return PriorityMedium
	}
	return b.desc.Defaults[i]
}

// SetObserver attaches a telemetry sink. Pass nil to detach.
func (b *Bus[E, K]) SetObserver(o Observer) {
	b.mu.Lock()
	b.observer = o
	b.mu.Unlock()
}

// ---------- publish ----------

// Publish validates e, stamps defaults, queues it, and for non-batch events
// delivers everything deliverable before returning. It returns false when e
// was rejected or evicted immediately on overflow.
func (b *Bus[E, K]) Publish(e E) bool {
	typ := e.TypeIndex()
	if typ < 0 || typ >= len(b.desc.TypeNames) {
		b.reject(typ, fmt.Errorf("%w: type %d out of range", ErrInvalidEvent, typ))
		return false
	}
	if err := e.Validate(); err != nil {
		b.reject(typ, err)
		return false
	}

	h := e.Head()
	if h.Priority == PriorityDefault {
		h.Priority = b.desc.Defaults[typ]
	} else if !h.Priority.Valid() {
		b.reject(typ, fmt.Errorf("%w: priority %d", ErrInvalidEvent, h.Priority))
		return false
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = b.now()
	}
	if h.ExpiresAt.IsZero() {
		h.ExpiresAt = h.CreatedAt.Add(b.ttl)
	}
	e = e.WithHead(h)

	b.mu.Lock()
	b.stats.published++
	b.stats.perType[typ]++

	b.qmu.Lock()
	b.seq++
	it := &queued[E]{ev: e, typ: typ, priority: h.Priority, created: h.CreatedAt, seq: b.seq}
	b.queue.push(it)
	var victim *queued[E]
	if b.queue.Len() > b.max {
		victim = b.queue.evictVictim()
	}
	if depth := b.queue.Len(); depth > b.stats.peak {
		b.stats.peak = depth
	}
	startDrain := h.Priority != PriorityBatch && !b.draining
	if startDrain {
		b.draining = true
	}
	b.qmu.Unlock()

	if victim != nil {
		b.stats.dropped++
	}
	obs := b.observer
	b.mu.Unlock()

	if obs != nil {
		obs.EventPublished(b.desc.Name, b.desc.TypeNames[typ], h.Priority)
	}
	if victim != nil {
		vname := b.desc.TypeNames[victim.typ]
		b.log.Warn("事件佇列已滿，丟棄最低優先權事件",
			zap.String("evicted", vname),
			zap.Stringer("priority", victim.priority),
			zap.Int("max", b.max),
		)
		if obs != nil {
			obs.EventDropped(b.desc.Name, vname, DropOverflow)
		}
	}

	if startDrain {
		b.drainImmediate()
	}
	return victim != it
}

func (b *Bus[E, K]) reject(typ int, err error) {
	b.mu.Lock()
	b.stats.rejected++
	obs := b.observer
	b.mu.Unlock()

	name := b.TypeName(typ)
	b.log.Error("無效事件已丟棄", zap.String("type", name), zap.Error(err))
	if obs != nil {
		obs.EventDropped(b.desc.Name, name, DropInvalid)
	}
}

// ---------- drain ----------

// nextImmediate pops the head if it is not a batch event. When the queue has
// nothing immediate left and release is set, the draining flag is cleared in
// the same critical section so a concurrent publisher starts its own drain.
func (b *Bus[E, K]) nextImmediate(release bool) *queued[E] {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	top := b.queue.peek()
	if top == nil || top.priority == PriorityBatch {
		if release {
			b.draining = false
		}
		return nil
	}
	return b.queue.pop()
}

func (b *Bus[E, K]) drainImmediate() {
	for it := b.nextImmediate(true); it != nil; it = b.nextImmediate(true) {
		b.dispatch(it)
	}
}

// ProcessEvents drains queued events, batch ones included. max caps how many
// batch events are taken off the queue (0 = no limit); immediate events are
// always drained and never count against it. Returns the number of events
// delivered. A call made from inside a delivery returns 0; the outer drain
// handles whatever it queued.
func (b *Bus[E, K]) ProcessEvents(_ time.Duration, max int) int {
	b.qmu.Lock()
	if b.draining {
		b.qmu.Unlock()
		return 0
	}
	b.draining = true
	b.qmu.Unlock()

	processed, batches := 0, 0
	for {
		b.qmu.Lock()
		top := b.queue.peek()
		if top == nil || (top.priority == PriorityBatch && max > 0 && batches >= max) {
			b.draining = false
			b.qmu.Unlock()
			return processed
		}
		b.queue.pop()
		b.qmu.Unlock()
		if top.priority == PriorityBatch {
			batches++
		}

		if b.dispatch(top) {
			processed++
		}
	}
}

// ProcessGroupEvents delivers the queued batch events keyed to group, in
// priority order, leaving other groups' batch events queued.
func (b *Bus[E, K]) ProcessGroupEvents(group ident.EntityID, _ time.Duration) int {
	key := b.desc.GroupKey
	if key == nil {
		key = func(e E) ident.EntityID { return e.Head().Target }
	}

	b.qmu.Lock()
	if b.draining {
		b.qmu.Unlock()
		return 0
	}
	items := b.queue.extract(func(it *queued[E]) bool {
		return it.priority == PriorityBatch && key(it.ev) == group
	})
	b.draining = true
	b.qmu.Unlock()

	sort.Slice(items, func(i, j int) bool { return items[i].before(items[j]) })
	processed := 0
	for _, it := range items {
		if b.dispatch(it) {
			processed++
		}
		for nested := b.nextImmediate(false); nested != nil; nested = b.nextImmediate(false) {
			b.dispatch(nested)
		}
	}
	b.drainImmediate()
	return processed
}

// dispatch delivers one dequeued event. Returns false if it had expired.
func (b *Bus[E, K]) dispatch(it *queued[E]) bool {
	name := b.desc.TypeNames[it.typ]
	if it.ev.Head().Expired(b.now()) {
		b.mu.Lock()
		b.stats.expired++
		obs := b.observer
		b.mu.Unlock()
		if obs != nil {
			obs.EventDropped(b.desc.Name, name, DropExpired)
		}
		return false
	}

	targets := b.targets(it.typ)

	start := time.Now()
	for _, t := range targets {
		// Unsubscribe during this delivery must stop the remaining calls.
		if !b.alive(t.handle) {
			continue
		}
		b.safeCall(t.fn, it.ev, name)
	}
	took := time.Since(start)

	b.mu.Lock()
	b.stats.observe(took)
	obs := b.observer
	b.mu.Unlock()
	if obs != nil {
		obs.EventDelivered(b.desc.Name, name, took)
	}
	return true
}

// targets snapshots the subscribers for a type and marks the event delivered.
// Delivered is counted here, before any callback runs, so the counter
// identity holds even when a callback inspects Stats.
func (b *Bus[E, K]) targets(typ int) []target[E] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.delivered++
	out := make([]target[E], 0, len(b.byType[typ])+len(b.global))
	for _, h := range b.byType[typ] {
		out = append(out, target[E]{handle: h, fn: b.slots[h].fn})
	}
	for _, h := range b.global {
		out = append(out, target[E]{handle: h, fn: b.slots[h].fn})
	}
	return out
}

func (b *Bus[E, K]) alive(h ident.Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handles.Alive(h)
}

// safeCall runs a subscriber with panic recovery so one faulty subscriber
// never stops delivery to the rest.
func (b *Bus[E, K]) safeCall(fn func(E), e E, typ string) {
	defer func() {
		if rec := recover(); rec != nil {
			b.mu.Lock()
			b.stats.faults++
			obs := b.observer
			b.mu.Unlock()
			b.log.Error("訂閱者 panic 已恢復",
				zap.String("type", typ),
				zap.Any("panic", rec),
			)
			if obs != nil {
				obs.SubscriberFault(b.desc.Name, typ)
			}
		}
	}()
	fn(e)
}

// ---------- subscriptions ----------

// Subscribe registers sub for the given types. Subscribing again adds any
// missing types; repeating the same call is a no-op.
func (b *Bus[E, K]) Subscribe(sub Subscriber[E], types ...K) {
	id := sub.SubscriberID()
	if id.IsEmpty() {
		b.log.Warn("忽略空白 ID 的訂閱者")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.slotForOwnerLocked(id, sub)
	if s.all {
		return
	}
	for _, k := range types {
		t := int(k)
		if t < 0 || t >= len(b.byType) || s.types[t] {
			continue
		}
		s.types[t] = true
		b.byType[t] = append(b.byType[t], s.handle)
	}
}

// SubscribeAll registers sub as a global subscriber receiving every type.
func (b *Bus[E, K]) SubscribeAll(sub Subscriber[E]) {
	id := sub.SubscriberID()
	if id.IsEmpty() {
		b.log.Warn("忽略空白 ID 的訂閱者")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.slotForOwnerLocked(id, sub)
	if s.all {
		return
	}
	for t, on := range s.types {
		if on {
			b.byType[t] = removeHandle(b.byType[t], s.handle)
			s.types[t] = false
		}
	}
	s.all = true
	b.global = append(b.global, s.handle)
}

func (b *Bus[E, K]) slotForOwnerLocked(id ident.EntityID, sub Subscriber[E]) *slot[E] {
	if h, ok := b.owners[id]; ok {
		return b.slots[h]
	}
	h := b.handles.Acquire()
	s := &slot[E]{
		handle: h,
		owner:  id,
		fn:     sub.HandleEvent,
		types:  make([]bool, len(b.byType)),
	}
	b.slots[h] = s
	b.owners[id] = h
	return s
}

// Unsubscribe removes sub. Unknown subscribers are ignored.
func (b *Bus[E, K]) Unsubscribe(sub Subscriber[E]) {
	b.UnsubscribeID(sub.SubscriberID())
}

// UnsubscribeID removes the agent-bound subscription owned by id.
func (b *Bus[E, K]) UnsubscribeID(id ident.EntityID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.owners[id]
	if !ok {
		return false
	}
	delete(b.owners, id)
	b.removeSlotLocked(h)
	return true
}

// SubscribeCallback registers fn for the given types, or for every type when
// none are given.
func (b *Bus[E, K]) SubscribeCallback(fn func(E), types ...K) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.handles.Acquire()
	s := &slot[E]{handle: h, fn: fn, types: make([]bool, len(b.byType))}
	b.slots[h] = s
	if len(types) == 0 {
		s.all = true
		b.global = append(b.global, h)
		return h
	}
	for _, k := range types {
		t := int(k)
		if t < 0 || t >= len(b.byType) || s.types[t] {
			continue
		}
		s.types[t] = true
		b.byType[t] = append(b.byType[t], h)
	}
	return h
}

// UnsubscribeCallback cancels a callback subscription. Stale or unknown ids
// return false.
func (b *Bus[E, K]) UnsubscribeCallback(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.slots[id]
	if !ok || !s.owner.IsEmpty() {
		return false
	}
	b.removeSlotLocked(id)
	return true
}

func (b *Bus[E, K]) removeSlotLocked(h ident.Handle) {
	s, ok := b.slots[h]
	if !ok {
		return
	}
	delete(b.slots, h)
	b.handles.Release(h)
	if s.all {
		b.global = removeHandle(b.global, h)
		return
	}
	for t, on := range s.types {
		if on {
			b.byType[t] = removeHandle(b.byType[t], h)
		}
	}
}

func removeHandle(list []ident.Handle, h ident.Handle) []ident.Handle {
	for i, x := range list {
		if x == h {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// IsSubscribed reports whether id holds an agent-bound subscription.
func (b *Bus[E, K]) IsSubscribed(id ident.EntityID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.owners[id]
	return ok
}

// SubscriberCount counts agent-bound and callback subscriptions.
func (b *Bus[E, K]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handles.Len()
}

// ---------- statistics ----------

// Pending returns the number of queued events.
func (b *Bus[E, K]) Pending() int {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	return b.queue.Len()
}

// Stats returns a snapshot of the bus counters.
func (b *Bus[E, K]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.qmu.Lock()
	pending := b.queue.Len()
	b.qmu.Unlock()

	s := Stats{
		Bus:             b.desc.Name,
		Published:       b.stats.published,
		Delivered:       b.stats.delivered,
		Dropped:         b.stats.dropped,
		Rejected:        b.stats.rejected,
		Expired:         b.stats.expired,
		Faults:          b.stats.faults,
		Pending:         pending,
		PeakQueueDepth:  b.stats.peak,
		Subscribers:     b.handles.Len(),
		ProcessingCount: b.stats.procCount,
		ProcessingTotal: b.stats.procTotal,
		Histogram:       append([]uint64(nil), b.stats.histogram...),
		PublishedByType: make(map[string]uint64),
	}
	for i, n := range b.stats.perType {
		if n > 0 {
			s.PublishedByType[b.desc.TypeNames[i]] = n
		}
	}
	return s
}

// ResetStats zeroes the counters. Pending events stay queued, so the
// counter identity is re-based: Published restarts at the pending count.
func (b *Bus[E, K]) ResetStats() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.qmu.Lock()
	pending := b.queue.Len()
	b.qmu.Unlock()

	b.stats = newCounters(len(b.desc.TypeNames))
	b.stats.published = uint64(pending)
	b.stats.peak = pending
}
