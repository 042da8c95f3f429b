package event

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testType uint8

const (
	tAlpha testType = iota
	tBeta
	tSync
	numTestTypes
)

type testEvent struct {
	Header
	Type testType
	N    int
}

func (e testEvent) Head() Header                { return e.Header }
func (e testEvent) WithHead(h Header) testEvent { e.Header = h; return e }
func (e testEvent) TypeIndex() int              { return int(e.Type) }
func (e testEvent) Validate() error {
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: missing source", ErrInvalidEvent)
	}
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testBus = Bus[testEvent, testType]

func newTestBus(t *testing.T, clk *fakeClock, max int) *testBus {
	t.Helper()
	desc := Descriptor[testEvent]{
		Name:      "test",
		TypeNames: []string{"Alpha", "Beta", "Sync"},
		Defaults:  []Priority{PriorityHigh, PriorityLow, PriorityBatch},
	}
	return NewBus[testEvent, testType](desc, Options{
		TTL:      30 * time.Second,
		MaxQueue: max,
		Now:      clk.Now,
		Log:      zaptest.NewLogger(t),
	})
}

var src = ident.NewEntityID()

func ev(typ testType, n int) testEvent {
	return testEvent{Header: Header{Source: src}, Type: typ, N: n}
}

type recorder struct {
	id  ident.EntityID
	mu  sync.Mutex
	got []testEvent
}

func newRecorder() *recorder { return &recorder{id: ident.NewEntityID()} }

func (r *recorder) SubscriberID() ident.EntityID { return r.id }
func (r *recorder) HandleEvent(e testEvent) {
	r.mu.Lock()
	r.got = append(r.got, e)
	r.mu.Unlock()
}

func (r *recorder) ns() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.got))
	for i, e := range r.got {
		out[i] = e.N
	}
	return out
}

func assertIdentity(t *testing.T, b *testBus) {
	t.Helper()
	s := b.Stats()
	assert.Equal(t, int64(s.Pending),
		int64(s.Published)-int64(s.Delivered)-int64(s.Dropped)-int64(s.Expired),
		"published - delivered - dropped - expired must equal pending")
}

func TestPublishDeliversExactlyOnce(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	typed := newRecorder()
	global := newRecorder()
	b.Subscribe(typed, tAlpha)
	b.Subscribe(typed, tAlpha) // idempotent
	b.SubscribeAll(global)

	var cbCount int
	b.SubscribeCallback(func(testEvent) { cbCount++ }, tAlpha)

	require.True(t, b.Publish(ev(tAlpha, 1)))
	require.True(t, b.Publish(ev(tBeta, 2)))

	assert.Equal(t, []int{1}, typed.ns())
	assert.Equal(t, []int{1, 2}, global.ns())
	assert.Equal(t, 1, cbCount)
	assert.Equal(t, 0, b.Pending())
	assertIdentity(t, b)
}

func TestDefaultPriorityAndStampedExpiry(t *testing.T) {
	clk := newFakeClock()
	b := newTestBus(t, clk, 0)
	r := newRecorder()
	b.SubscribeAll(r)

	b.Publish(ev(tBeta, 1))
	override := ev(tBeta, 2)
	override.Priority = PriorityCritical
	b.Publish(override)

	require.Len(t, r.got, 2)
	assert.Equal(t, PriorityLow, r.got[0].Priority)
	assert.Equal(t, PriorityCritical, r.got[1].Priority)
	assert.Equal(t, clk.Now(), r.got[0].CreatedAt)
	assert.Equal(t, clk.Now().Add(30*time.Second), r.got[0].ExpiresAt)
}

func TestInvalidEventRejected(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	r := newRecorder()
	b.SubscribeAll(r)

	assert.False(t, b.Publish(testEvent{Type: tAlpha}), "missing source")
	assert.False(t, b.Publish(testEvent{Header: Header{Source: src}, Type: numTestTypes}))
	bad := ev(tAlpha, 1)
	bad.Priority = Priority(42)
	assert.False(t, b.Publish(bad))

	assert.Empty(t, r.got)
	s := b.Stats()
	assert.Equal(t, uint64(3), s.Rejected)
	assert.Equal(t, uint64(3), s.DroppedTotal())
	assert.Equal(t, uint64(0), s.Published)
	assertIdentity(t, b)
}

func TestReentrantPublishOrderedByPriority(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	r := newRecorder()
	b.SubscribeAll(r)

	b.SubscribeCallback(func(e testEvent) {
		if e.N != 1 {
			return
		}
		low := ev(tBeta, 2) // Low
		b.Publish(low)
		crit := ev(tBeta, 3)
		crit.Priority = PriorityCritical
		b.Publish(crit)
	}, tAlpha)

	done := make(chan struct{})
	go func() {
		b.Publish(ev(tAlpha, 1))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("re-entrant publish deadlocked")
	}

	// Both nested events are delivered before the outer Publish returns,
	// the critical one first.
	assert.Equal(t, []int{1, 3, 2}, r.ns())
	assert.Equal(t, 0, b.Pending())
	assertIdentity(t, b)
}

func TestBatchEventsWaitForProcess(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	r := newRecorder()
	b.SubscribeAll(r)

	b.Publish(ev(tSync, 1))
	b.Publish(ev(tSync, 2))
	assert.Empty(t, r.got)
	assert.Equal(t, 2, b.Pending())
	assertIdentity(t, b)

	assert.Equal(t, 1, b.ProcessEvents(0, 1))
	assert.Equal(t, []int{1}, r.ns())
	assert.Equal(t, 1, b.ProcessEvents(0, 0))
	assert.Equal(t, []int{1, 2}, r.ns())
	assertIdentity(t, b)
}

func TestBatchLimitIgnoresImmediateEvents(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	r := newRecorder()
	b.SubscribeAll(r)
	b.SubscribeCallback(func(e testEvent) {
		if e.N == 1 {
			b.Publish(ev(tAlpha, 10))
			b.Publish(ev(tAlpha, 11))
		}
	}, tSync)

	for i := 1; i <= 3; i++ {
		b.Publish(ev(tSync, i))
	}
	// two batch events, plus the immediate ones queued while draining
	assert.Equal(t, 4, b.ProcessEvents(0, 2))
	assert.Equal(t, []int{1, 10, 11, 2}, r.ns())
	assert.Equal(t, 1, b.Pending())

	assert.Equal(t, 1, b.ProcessEvents(0, 2))
	assert.Equal(t, 0, b.Pending())
	assertIdentity(t, b)
}

func TestExpiredEventsNeverDelivered(t *testing.T) {
	clk := newFakeClock()
	b := newTestBus(t, clk, 0)
	r := newRecorder()
	b.SubscribeAll(r)

	b.Publish(ev(tSync, 1))
	clk.Advance(31 * time.Second)
	assert.Equal(t, 0, b.ProcessEvents(0, 0))
	assert.Empty(t, r.got)

	s := b.Stats()
	assert.Equal(t, uint64(1), s.Expired)
	assertIdentity(t, b)
}

func TestOverflowEvictsLowestPriorityOldest(t *testing.T) {
	clk := newFakeClock()
	b := newTestBus(t, clk, 3)

	for i := 1; i <= 4; i++ {
		assert.True(t, b.Publish(ev(tSync, i)))
		clk.Advance(time.Millisecond)
	}

	r := newRecorder()
	b.SubscribeAll(r)
	b.ProcessEvents(0, 0)
	assert.Equal(t, []int{2, 3, 4}, r.ns())

	s := b.Stats()
	assert.Equal(t, uint64(1), s.Dropped)
	assert.Equal(t, 3, s.PeakQueueDepth)
	assertIdentity(t, b)
}

func TestOverflowRejectsIncomingWhenItIsLowest(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 2)
	r := newRecorder()
	b.SubscribeAll(r)

	var accepted []bool
	b.SubscribeCallback(func(e testEvent) {
		if e.N != 0 {
			return
		}
		// Still inside the outer drain, so these stay queued.
		accepted = append(accepted,
			b.Publish(ev(tBeta, 1)),
			b.Publish(ev(tBeta, 2)),
			b.Publish(ev(tSync, 3)),
		)
	}, tAlpha)

	b.Publish(ev(tAlpha, 0))

	assert.Equal(t, []bool{true, true, false}, accepted)
	assert.Equal(t, []int{0, 1, 2}, r.ns())
	assert.Equal(t, uint64(1), b.Stats().Dropped)
	assertIdentity(t, b)
}

func TestSubscriberPanicIsContained(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	b.SubscribeCallback(func(testEvent) { panic("boom") })
	r := newRecorder()
	b.SubscribeAll(r)

	assert.NotPanics(t, func() { b.Publish(ev(tAlpha, 1)) })
	assert.Equal(t, []int{1}, r.ns())
	assert.Equal(t, uint64(1), b.Stats().Faults)
}

func TestUnsubscribeDuringDeliveryStopsRemainingCalls(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	victim := newRecorder()

	// Registered first, so it runs before victim.
	b.SubscribeCallback(func(testEvent) { b.Unsubscribe(victim) }, tAlpha)
	b.Subscribe(victim, tAlpha)

	b.Publish(ev(tAlpha, 1))
	assert.Empty(t, victim.got)
	assert.False(t, b.IsSubscribed(victim.id))

	assert.False(t, b.UnsubscribeID(victim.id), "second unsubscribe is a no-op")
}

func TestCallbackSubscriptionCancel(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	n := 0
	id := b.SubscribeCallback(func(testEvent) { n++ }, tAlpha, tBeta)
	b.Publish(ev(tAlpha, 1))
	b.Publish(ev(tBeta, 2))
	require.True(t, b.UnsubscribeCallback(id))
	assert.False(t, b.UnsubscribeCallback(id))
	b.Publish(ev(tAlpha, 3))
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestSubscribeAllAfterTypedDeliversOnce(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	r := newRecorder()
	b.Subscribe(r, tAlpha, tBeta)
	b.SubscribeAll(r)
	b.Publish(ev(tAlpha, 1))
	assert.Equal(t, []int{1}, r.ns())
	assert.Equal(t, 1, b.SubscriberCount())
}

func TestProcessGroupEventsOnlyDrainsThatGroup(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	r := newRecorder()
	b.SubscribeAll(r)

	g1, g2 := ident.NewEntityID(), ident.NewEntityID()
	e1 := ev(tSync, 1)
	e1.Target = g1
	e2 := ev(tSync, 2)
	e2.Target = g2
	e3 := ev(tSync, 3)
	e3.Target = g1
	b.Publish(e1)
	b.Publish(e2)
	b.Publish(e3)

	assert.Equal(t, 2, b.ProcessGroupEvents(g1, 0))
	assert.Equal(t, []int{1, 3}, r.ns())
	assert.Equal(t, 1, b.Pending())
	assertIdentity(t, b)
}

func TestResetStatsKeepsIdentity(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 0)
	b.Publish(ev(tAlpha, 1))
	b.Publish(ev(tSync, 2))
	b.ResetStats()
	s := b.Stats()
	assert.Equal(t, uint64(1), s.Published)
	assert.Equal(t, uint64(0), s.Delivered)
	assertIdentity(t, b)
}

func TestPerSubscriberOrderingWithinDrain(t *testing.T) {
	clk := newFakeClock()
	b := newTestBus(t, clk, 0)
	r := newRecorder()
	b.SubscribeAll(r)

	for i, p := range []Priority{PriorityBatch, PriorityBatch, PriorityBatch} {
		e := ev(tSync, i)
		e.Priority = p
		b.Publish(e)
		clk.Advance(time.Millisecond)
	}
	b.ProcessEvents(0, 0)

	for i := 1; i < len(r.got); i++ {
		prev, cur := r.got[i-1], r.got[i]
		ok := prev.Priority < cur.Priority ||
			(prev.Priority == cur.Priority && !cur.CreatedAt.Before(prev.CreatedAt))
		assert.True(t, ok, "delivery %d out of order", i)
	}
}

func TestTypesListsDomain(t *testing.T) {
	b := newTestBus(t, newFakeClock(), 10)
	assert.Equal(t, []testType{tAlpha, tBeta, tSync}, b.Types())
	assert.Equal(t, "Sync", b.TypeName(int(tSync)))
	assert.Equal(t, "Unknown(9)", b.TypeName(9))
}
