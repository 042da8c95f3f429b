package packet

import (
	"errors"
	"testing"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allVariants() []Packet {
	return []Packet{
		&GroupInvite{}, &GroupDecline{}, &GroupUninvite{}, &GroupSetLeader{}, &GroupDestroyed{},
		&GroupList{}, &RaidTargetUpdate{}, &ReadyCheckStart{}, &ReadyCheckResponse{},
		&AttackStart{}, &AttackStop{}, &AttackerStateUpdate{}, &SpellStart{}, &SpellGo{},
		&SpellInterrupted{}, &SpellHealLog{}, &UnitDeath{}, &HighestThreat{}, &ThreatUpdate{},
		&SpellCooldown{}, &ClearCooldown{}, &ItemCooldown{},
		&LootResponse{}, &LootReleaseResponse{}, &LootStartRoll{}, &LootRollWon{}, &LootAllPassed{},
		&LootMoneyNotify{}, &ItemPush{},
		&QuestDetails{}, &QuestAccepted{}, &QuestUpdateAddKill{}, &QuestComplete{}, &QuestFailed{},
		&QuestOfferReward{}, &QuestGiverStatus{},
		&AuraUpdate{},
		&HealthUpdate{}, &PowerUpdate{}, &ComboPoints{}, &RuneUpdate{}, &PartyMemberStats{},
		&MessageChat{}, &TextEmote{}, &FriendStatus{}, &GuildInvite{}, &TradeStatus{}, &DuelRequested{},
		&AuctionListResult{}, &AuctionBidderNotify{}, &AuctionOwnerNotify{}, &AuctionCommandResult{},
		&GossipMessage{}, &ListInventory{}, &TrainerList{}, &ShowBank{}, &ShowTaxiNodes{},
		&SpiritHealerConfirm{}, &NpcTextUpdate{},
		&InstanceSaveCreated{}, &InstanceReset{}, &RaidInstanceInfo{}, &EncounterUpdate{},
		&RaidInstanceMessage{},
	}
}

func TestOpcodeTableMatchesVariants(t *testing.T) {
	seen := map[uint16]bool{}
	for _, p := range allVariants() {
		info, ok := LookupOpcode(p.Opcode())
		require.True(t, ok, "%T opcode 0x%03X not registered", p, p.Opcode())
		assert.Equal(t, p.Category(), info.Category, "%T", p)
		assert.NotEqual(t, CategoryUnknown, p.Category(), "%T", p)
		assert.False(t, seen[p.Opcode()], "%T shares an opcode", p)
		seen[p.Opcode()] = true
	}
	assert.Len(t, opcodes, len(seen), "every registered opcode has a variant")
}

func TestUnknownOpcode(t *testing.T) {
	assert.Equal(t, CategoryUnknown, CategoryOf(0xFFF))
	assert.Equal(t, "0xFFF", OpcodeName(0xFFF))
	assert.Equal(t, CategoryUnknown, (&Raw{Op: 0xFFF}).Category())
}

func TestValidateReportsMissingIDs(t *testing.T) {
	err := (&GroupInvite{Group: ident.NewEntityID()}).Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Contains(t, err.Error(), "SMSG_GROUP_INVITE")

	assert.ErrorIs(t, (&RaidTargetUpdate{Group: ident.NewEntityID(), Slot: 9}).Validate(), ErrMalformed)
	assert.ErrorIs(t, (&AuctionBidderNotify{}).Validate(), ErrMalformed)
	assert.NoError(t, (&AuctionBidderNotify{Auction: 42, Item: 6948, Won: true}).Validate())
}

func TestReaderReadsWriterOutput(t *testing.T) {
	id := ident.NewEntityID()
	w := NewWriter(SMsgMessageChat)
	w.WriteGUID(id)
	w.WriteU8(3)
	w.WriteU32(0xDEADBEEF)
	w.WriteU64(1 << 40)
	w.WriteCString("hello")

	r := NewReader(w.Bytes())
	assert.Equal(t, SMsgMessageChat, r.Opcode())
	assert.Equal(t, id, r.ReadGUID())
	assert.Equal(t, uint8(3), r.ReadU8())
	assert.Equal(t, uint32(0xDEADBEEF), r.ReadU32())
	assert.Equal(t, uint64(1<<40), r.ReadU64())
	assert.Equal(t, "hello", r.ReadCString())
	assert.Zero(t, r.Remaining())
	assert.False(t, r.Short())

	assert.Zero(t, r.ReadU32())
	assert.True(t, r.Short())
}

func TestEncodeAuctionNotification(t *testing.T) {
	raw := Encode(&AuctionBidderNotify{Auction: 42, Item: 6948, Bid: 500, Won: true, Party: "Bob"})
	r := NewReader(raw)
	assert.Equal(t, SMsgAuctionBidderNotify, r.Opcode())
	assert.Equal(t, uint32(42), r.ReadU32())
	assert.Equal(t, uint32(6948), r.ReadU32())
	assert.Equal(t, uint64(500), r.ReadU64())
	assert.Equal(t, "Bob", r.ReadCString())
}
