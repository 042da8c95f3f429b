package sniffer

import (
	"testing"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/events"
	"github.com/l1jgo/playerbot/internal/events/auction"
	"github.com/l1jgo/playerbot/internal/events/aura"
	"github.com/l1jgo/playerbot/internal/events/combat"
	"github.com/l1jgo/playerbot/internal/events/group"
	"github.com/l1jgo/playerbot/internal/events/quest"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	host  *memhost.Host
	buses *events.Family
	sn    *Sniffer
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{now: time.Unix(5000, 0)}
	log := zaptest.NewLogger(t)
	f.host = memhost.New(memhost.WithClock(func() time.Time { return f.now }))
	f.buses = events.NewFamily(event.Options{Log: log, Now: func() time.Time { return f.now }}, 0)
	f.sn = New(f.host, f.buses, log)
	f.sn.Initialize()
	return f
}

func TestInitializeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	n := f.sn.Handlers()
	assert.Equal(t, 64, n)
	f.sn.Initialize()
	assert.Equal(t, n, f.sn.Handlers())
}

func TestAuctionWonTranslation(t *testing.T) {
	f := newFixture(t)
	a := ident.NewEntityID()
	sess := f.host.NewSession(a, true)

	var got []auction.Event
	f.buses.Auction.SubscribeCallback(func(e auction.Event) { got = append(got, e) })

	f.sn.OnTypedPacket(sess, &packet.AuctionBidderNotify{Auction: 42, Item: 6948, Bid: 1500, Won: true, Party: "Vendor"})

	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, auction.AuctionWon, e.Type)
	assert.Equal(t, a, e.Player())
	assert.EqualValues(t, 42, e.Auction)
	assert.EqualValues(t, 6948, e.Item)
	assert.EqualValues(t, 1, f.sn.Stats().ByCategory["Auction"])
	assert.EqualValues(t, 1, f.sn.Stats().Translated)
}

func TestNonAgentSessionsAreSkipped(t *testing.T) {
	f := newFixture(t)
	human := f.host.NewSession(ident.NewEntityID(), false)

	var got int
	f.buses.Auction.SubscribeCallback(func(auction.Event) { got++ })
	f.sn.OnTypedPacket(human, &packet.AuctionBidderNotify{Auction: 1, Item: 2, Won: true})
	f.sn.OnTypedPacket(nil, &packet.AuctionBidderNotify{Auction: 1, Item: 2, Won: true})

	assert.Zero(t, got)
	st := f.sn.Stats()
	assert.EqualValues(t, 2, st.Skipped)
	assert.Zero(t, st.Translated)
}

func TestUnknownPacketFallsThrough(t *testing.T) {
	f := newFixture(t)
	sess := f.host.NewSession(ident.NewEntityID(), true)

	f.sn.OnTypedPacket(sess, &packet.Raw{Op: 0x7FF, Data: []byte{1, 2, 3}})
	st := f.sn.Stats()
	assert.EqualValues(t, 1, st.Unknown())
	assert.Zero(t, st.Translated)
}

func TestMalformedPacketDropped(t *testing.T) {
	f := newFixture(t)
	sess := f.host.NewSession(ident.NewEntityID(), true)

	f.sn.OnTypedPacket(sess, &packet.GroupInvite{Inviter: ident.NewEntityID()})
	f.sn.OnTypedPacket(sess, &packet.MessageChat{Sender: ident.NewEntityID(), Kind: 99})

	st := f.sn.Stats()
	assert.EqualValues(t, 2, st.ParseFailures)
	assert.Zero(t, f.buses.Group.Stats().Published)
	assert.Zero(t, f.buses.Social.Stats().Published)
}

func TestBroadcastReadyCheckPublishedOnce(t *testing.T) {
	f := newFixture(t)
	g, leader := ident.NewEntityID(), ident.NewEntityID()
	members := []ident.EntityID{leader, ident.NewEntityID(), ident.NewEntityID(), ident.NewEntityID(), ident.NewEntityID()}
	var sessions []host.Session
	for _, m := range members {
		sessions = append(sessions, f.host.NewSession(m, true))
	}

	var got []group.Event
	f.buses.Group.SubscribeCallback(func(e group.Event) { got = append(got, e) })

	start := &packet.ReadyCheckStart{Group: g, Initiator: leader, DurationMs: 30000}
	for _, s := range sessions {
		f.sn.OnTypedPacket(s, start)
	}
	for _, s := range sessions {
		f.sn.OnTypedPacket(s, &packet.ReadyCheckResponse{Group: g, Member: members[1], Ready: true})
	}

	require.Len(t, got, 2)
	assert.Equal(t, group.ReadyCheckStarted, got[0].Type)
	assert.Equal(t, 30*time.Second, got[0].Duration)
	assert.Equal(t, leader, got[0].Source)
	assert.Equal(t, group.ReadyCheckResponse, got[1].Type)
	assert.Equal(t, members[1], got[1].Target)
}

func TestCombatEventsCarryReceiverGroup(t *testing.T) {
	f := newFixture(t)
	g := ident.NewEntityID()
	tank, healer, mob := ident.NewEntityID(), ident.NewEntityID(), ident.NewEntityID()
	f.host.PutGroup(host.Group{ID: g, Leader: tank, Members: []host.GroupMember{
		{ID: tank, Role: host.RoleTank}, {ID: healer, Role: host.RoleHealer},
	}})
	tankSess, healerSess := f.host.NewSession(tank, true), f.host.NewSession(healer, true)

	var got []combat.Event
	f.buses.Combat.SubscribeCallback(func(e combat.Event) { got = append(got, e) })

	hit := &packet.AttackerStateUpdate{Attacker: mob, Victim: tank, Damage: 120, School: 1}
	f.sn.OnTypedPacket(tankSess, hit)
	f.sn.OnTypedPacket(healerSess, hit) // same broadcast, second receiver

	require.Len(t, got, 2)
	assert.Equal(t, combat.DamageDealt, got[0].Type)
	assert.Equal(t, combat.DamageTaken, got[1].Type)
	assert.Equal(t, tank, got[1].Target)
	assert.EqualValues(t, 120, got[1].Amount)
	for _, e := range got {
		assert.Equal(t, g, e.Group)
	}
	assert.EqualValues(t, 1, f.sn.Stats().Deduplicated)
}

func TestIdenticalPacketsToOneSessionAreDistinct(t *testing.T) {
	f := newFixture(t)
	g := ident.NewEntityID()
	tank, healer, mob := ident.NewEntityID(), ident.NewEntityID(), ident.NewEntityID()
	f.host.PutGroup(host.Group{ID: g, Leader: tank, Members: []host.GroupMember{
		{ID: tank, Role: host.RoleTank}, {ID: healer, Role: host.RoleHealer},
	}})
	tankSess, healerSess := f.host.NewSession(tank, true), f.host.NewSession(healer, true)

	var taken int
	f.buses.Combat.SubscribeCallback(func(combat.Event) { taken++ }, combat.DamageTaken)
	var auras []aura.Event
	f.buses.Aura.SubscribeCallback(func(e aura.Event) { auras = append(auras, e) })

	// two swings for the same damage, both seen by both members, in
	// either delivery order
	hit := packet.AttackerStateUpdate{Attacker: mob, Victim: tank, Damage: 120}
	first, second := hit, hit
	f.sn.OnTypedPacket(tankSess, &first)
	f.sn.OnTypedPacket(tankSess, &second)
	f.sn.OnTypedPacket(healerSess, &first)
	f.sn.OnTypedPacket(healerSess, &second)
	assert.Equal(t, 2, taken)

	// apply, remove, apply again within one tick
	apply := &packet.AuraUpdate{Caster: mob, Unit: tank, Spell: 772, Harmful: true, Change: packet.AuraApply}
	remove := &packet.AuraUpdate{Caster: mob, Unit: tank, Spell: 772, Harmful: true, Change: packet.AuraRemove}
	for _, p := range []*packet.AuraUpdate{apply, remove, apply} {
		f.sn.OnTypedPacket(tankSess, p)
		f.sn.OnTypedPacket(healerSess, p)
	}
	require.Len(t, auras, 3)
	assert.Equal(t, aura.AuraApplied, auras[0].Type)
	assert.Equal(t, aura.AuraRemoved, auras[1].Type)
	assert.Equal(t, aura.AuraApplied, auras[2].Type)

	assert.EqualValues(t, 5, f.sn.Stats().Deduplicated)
}

func TestTranslatorPanicIsContained(t *testing.T) {
	f := newFixture(t)
	sess := f.host.NewSession(ident.NewEntityID(), true)
	RegisterTyped(f.sn, func(*Context, *packet.DuelRequested) error { panic("boom") })

	assert.NotPanics(t, func() {
		f.sn.OnTypedPacket(sess, &packet.DuelRequested{Challenger: ident.NewEntityID()})
	})
	f.sn.OnTypedPacket(sess, &packet.QuestAccepted{Quest: 7})

	st := f.sn.Stats()
	assert.EqualValues(t, 1, st.Panics)
	assert.EqualValues(t, 1, st.Translated)
	assert.EqualValues(t, 1, f.buses.Quest.Stats().Published)
}

func TestReentrantTranslationTracksDepth(t *testing.T) {
	f := newFixture(t)
	a := ident.NewEntityID()
	sess := f.host.NewSession(a, true)

	var quests []quest.Event
	f.buses.Quest.SubscribeCallback(func(e quest.Event) { quests = append(quests, e) })
	f.buses.Auction.SubscribeCallback(func(e auction.Event) {
		// a subscriber reacting synchronously causes another packet
		f.sn.OnTypedPacket(sess, &packet.QuestAccepted{Quest: 99})
	}, auction.AuctionWon)

	f.sn.OnTypedPacket(sess, &packet.AuctionBidderNotify{Auction: 1, Item: 2, Won: true})

	require.Len(t, quests, 1)
	assert.EqualValues(t, 2, f.sn.Stats().PeakDepth)
}

func TestLegacyPathCountsOpcodes(t *testing.T) {
	f := newFixture(t)
	sess := f.host.NewSession(ident.NewEntityID(), true)

	raw := packet.Encode(&packet.AuctionBidderNotify{Auction: 3, Item: 4, Won: true})
	f.sn.OnPacketSend(sess, raw)
	f.sn.OnPacketSend(sess, raw)
	f.sn.OnPacketSend(sess, []byte{1})

	st := f.sn.Stats()
	require.Len(t, st.Opcodes, 1)
	op := st.Opcodes[0]
	assert.Equal(t, packet.SMsgAuctionBidderNotify, op.Opcode)
	assert.Equal(t, packet.CategoryAuction, op.Category)
	assert.EqualValues(t, 2, op.Packets)
	assert.EqualValues(t, 2*len(raw), op.Bytes)
	assert.EqualValues(t, 1, st.ParseFailures)
	assert.Zero(t, f.buses.Auction.Stats().Published, "legacy path never publishes")
}
