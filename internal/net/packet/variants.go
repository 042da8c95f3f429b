package packet

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// ---------- group ----------

type GroupInvite struct {
	typed
	Group   ident.EntityID
	Inviter ident.EntityID
}

type GroupDecline struct {
	typed
	Group   ident.EntityID
	Invitee ident.EntityID
}

type GroupUninvite struct {
	typed
	Group  ident.EntityID
	Member ident.EntityID
	Kicker ident.EntityID
}

type GroupSetLeader struct {
	typed
	Group     ident.EntityID
	NewLeader ident.EntityID
	OldLeader ident.EntityID
}

type GroupDestroyed struct {
	typed
	Group  ident.EntityID
	Leader ident.EntityID
}

// GroupMember is one row of a group list.
type GroupMember struct {
	ID       ident.EntityID
	Subgroup uint8
	Online   bool
}

// GroupList is the full group snapshot the host sends on every change.
type GroupList struct {
	typed
	Group        ident.EntityID
	Leader       ident.EntityID
	Members      []GroupMember
	LootMethod   uint8
	Threshold    uint8
	MasterLooter ident.EntityID
	Difficulty   uint8
	Raid         bool
}

type RaidTargetUpdate struct {
	typed
	Group  ident.EntityID
	Setter ident.EntityID
	Slot   uint8
	Target ident.EntityID
}

type ReadyCheckStart struct {
	typed
	Group      ident.EntityID
	Initiator  ident.EntityID
	DurationMs uint32
}

type ReadyCheckResponse struct {
	typed
	Group  ident.EntityID
	Member ident.EntityID
	Ready  bool
}

func (*GroupInvite) Opcode() uint16        { return SMsgGroupInvite }
func (*GroupDecline) Opcode() uint16       { return SMsgGroupDecline }
func (*GroupUninvite) Opcode() uint16      { return SMsgGroupUninvite }
func (*GroupSetLeader) Opcode() uint16     { return SMsgGroupSetLeader }
func (*GroupDestroyed) Opcode() uint16     { return SMsgGroupDestroyed }
func (*GroupList) Opcode() uint16          { return SMsgGroupList }
func (*RaidTargetUpdate) Opcode() uint16   { return SMsgRaidTargetUpdate }
func (*ReadyCheckStart) Opcode() uint16    { return SMsgReadyCheckStart }
func (*ReadyCheckResponse) Opcode() uint16 { return SMsgReadyCheckResponse }

func (*GroupInvite) Category() Category        { return CategoryGroup }
func (*GroupDecline) Category() Category       { return CategoryGroup }
func (*GroupUninvite) Category() Category      { return CategoryGroup }
func (*GroupSetLeader) Category() Category     { return CategoryGroup }
func (*GroupDestroyed) Category() Category     { return CategoryGroup }
func (*GroupList) Category() Category          { return CategoryGroup }
func (*RaidTargetUpdate) Category() Category   { return CategoryGroup }
func (*ReadyCheckStart) Category() Category    { return CategoryGroup }
func (*ReadyCheckResponse) Category() Category { return CategoryGroup }

func (p *GroupInvite) Validate() error    { return need(p.Opcode(), p.Group, p.Inviter) }
func (p *GroupDecline) Validate() error   { return need(p.Opcode(), p.Group, p.Invitee) }
func (p *GroupUninvite) Validate() error  { return need(p.Opcode(), p.Group, p.Member) }
func (p *GroupSetLeader) Validate() error { return need(p.Opcode(), p.Group, p.NewLeader) }
func (p *GroupDestroyed) Validate() error { return need(p.Opcode(), p.Group) }
func (p *GroupList) Validate() error {
	if err := need(p.Opcode(), p.Group, p.Leader); err != nil {
		return err
	}
	if len(p.Members) > 40 {
		return fmt.Errorf("%w: group list with %d members", ErrMalformed, len(p.Members))
	}
	return nil
}
func (p *RaidTargetUpdate) Validate() error {
	if p.Slot >= 8 {
		return fmt.Errorf("%w: raid icon slot %d", ErrMalformed, p.Slot)
	}
	return need(p.Opcode(), p.Group)
}
func (p *ReadyCheckStart) Validate() error    { return need(p.Opcode(), p.Group, p.Initiator) }
func (p *ReadyCheckResponse) Validate() error { return need(p.Opcode(), p.Group, p.Member) }

// ---------- combat ----------

type AttackStart struct {
	typed
	Attacker ident.EntityID
	Victim   ident.EntityID
}

type AttackStop struct {
	typed
	Attacker ident.EntityID
	Victim   ident.EntityID
}

type AttackerStateUpdate struct {
	typed
	Attacker ident.EntityID
	Victim   ident.EntityID
	Spell    uint32
	Damage   uint32
	Overkill uint32
	School   uint8
	Crit     bool
}

type SpellStart struct {
	typed
	Caster        ident.EntityID
	Target        ident.EntityID
	Spell         uint32
	CastTimeMs    uint32
	Interruptible bool
}

type SpellGo struct {
	typed
	Caster ident.EntityID
	Target ident.EntityID
	Spell  uint32
}

type SpellInterrupted struct {
	typed
	Caster      ident.EntityID
	Interrupter ident.EntityID
	Spell       uint32
}

type SpellHealLog struct {
	typed
	Healer ident.EntityID
	Target ident.EntityID
	Spell  uint32
	Amount uint32
	Crit   bool
}

type UnitDeath struct {
	typed
	Killer ident.EntityID
	Victim ident.EntityID
}

// HighestThreat reports a change of the unit on top of an enemy's threat list.
type HighestThreat struct {
	typed
	Enemy  ident.EntityID
	NewTop ident.EntityID
	OldTop ident.EntityID
}

type ThreatUpdate struct {
	typed
	Enemy  ident.EntityID
	Unit   ident.EntityID
	Threat uint32
}

func (*AttackStart) Opcode() uint16         { return SMsgAttackStart }
func (*AttackStop) Opcode() uint16          { return SMsgAttackStop }
func (*AttackerStateUpdate) Opcode() uint16 { return SMsgAttackerStateUpdate }
func (*SpellStart) Opcode() uint16          { return SMsgSpellStart }
func (*SpellGo) Opcode() uint16             { return SMsgSpellGo }
func (*SpellInterrupted) Opcode() uint16    { return SMsgSpellInterrupted }
func (*SpellHealLog) Opcode() uint16        { return SMsgSpellHealLog }
func (*UnitDeath) Opcode() uint16           { return SMsgUnitDeath }
func (*HighestThreat) Opcode() uint16       { return SMsgHighestThreat }
func (*ThreatUpdate) Opcode() uint16        { return SMsgThreatUpdate }

func (*AttackStart) Category() Category         { return CategoryCombat }
func (*AttackStop) Category() Category          { return CategoryCombat }
func (*AttackerStateUpdate) Category() Category { return CategoryCombat }
func (*SpellStart) Category() Category          { return CategoryCombat }
func (*SpellGo) Category() Category             { return CategoryCombat }
func (*SpellInterrupted) Category() Category    { return CategoryCombat }
func (*SpellHealLog) Category() Category        { return CategoryCombat }
func (*UnitDeath) Category() Category           { return CategoryCombat }
func (*HighestThreat) Category() Category       { return CategoryCombat }
func (*ThreatUpdate) Category() Category        { return CategoryCombat }

func (p *AttackStart) Validate() error         { return need(p.Opcode(), p.Attacker, p.Victim) }
func (p *AttackStop) Validate() error          { return need(p.Opcode(), p.Attacker) }
func (p *AttackerStateUpdate) Validate() error { return need(p.Opcode(), p.Attacker, p.Victim) }
func (p *SpellStart) Validate() error {
	if p.Spell == 0 {
		return fmt.Errorf("%w: spell start without spell", ErrMalformed)
	}
	return need(p.Opcode(), p.Caster)
}
func (p *SpellGo) Validate() error          { return need(p.Opcode(), p.Caster) }
func (p *SpellInterrupted) Validate() error { return need(p.Opcode(), p.Caster) }
func (p *SpellHealLog) Validate() error     { return need(p.Opcode(), p.Healer, p.Target) }
func (p *UnitDeath) Validate() error        { return need(p.Opcode(), p.Victim) }
func (p *HighestThreat) Validate() error    { return need(p.Opcode(), p.Enemy, p.NewTop) }
func (p *ThreatUpdate) Validate() error     { return need(p.Opcode(), p.Enemy, p.Unit) }

// ---------- cooldown ----------

// SpellCooldown lists the cooldowns started by one cast. GlobalMs is the
// global cooldown it triggered, if any.
type SpellCooldown struct {
	typed
	Caster     ident.EntityID
	Spell      uint32
	DurationMs uint32
	CategoryID uint32
	CategoryMs uint32
	GlobalMs   uint32
}

type ClearCooldown struct {
	typed
	Caster ident.EntityID
	Spell  uint32
}

type ItemCooldown struct {
	typed
	Owner      ident.EntityID
	Item       uint32
	DurationMs uint32
}

func (*SpellCooldown) Opcode() uint16 { return SMsgSpellCooldown }
func (*ClearCooldown) Opcode() uint16 { return SMsgClearCooldown }
func (*ItemCooldown) Opcode() uint16  { return SMsgItemCooldown }

func (*SpellCooldown) Category() Category { return CategoryCooldown }
func (*ClearCooldown) Category() Category { return CategoryCooldown }
func (*ItemCooldown) Category() Category  { return CategoryCooldown }

func (p *SpellCooldown) Validate() error { return need(p.Opcode(), p.Caster) }
func (p *ClearCooldown) Validate() error { return need(p.Opcode(), p.Caster) }
func (p *ItemCooldown) Validate() error  { return need(p.Opcode(), p.Owner) }

// ---------- loot ----------

type LootResponse struct {
	typed
	Corpse ident.EntityID
	Money  uint64
	Items  []uint32
}

type LootReleaseResponse struct {
	typed
	Corpse ident.EntityID
}

type LootStartRoll struct {
	typed
	Corpse ident.EntityID
	Roll   uint32
	Item   uint32
	Slot   uint8
}

type LootRollWon struct {
	typed
	Winner ident.EntityID
	Roll   uint32
	Item   uint32
	Vote   uint8
	Dice   uint8
}

type LootAllPassed struct {
	typed
	Roll uint32
	Item uint32
}

type LootMoneyNotify struct {
	typed
	Money uint64
}

type ItemPush struct {
	typed
	Player ident.EntityID
	Item   uint32
	Count  uint32
}

func (*LootResponse) Opcode() uint16        { return SMsgLootResponse }
func (*LootReleaseResponse) Opcode() uint16 { return SMsgLootReleaseResponse }
func (*LootStartRoll) Opcode() uint16       { return SMsgLootStartRoll }
func (*LootRollWon) Opcode() uint16         { return SMsgLootRollWon }
func (*LootAllPassed) Opcode() uint16       { return SMsgLootAllPassed }
func (*LootMoneyNotify) Opcode() uint16     { return SMsgLootMoneyNotify }
func (*ItemPush) Opcode() uint16            { return SMsgItemPush }

func (*LootResponse) Category() Category        { return CategoryLoot }
func (*LootReleaseResponse) Category() Category { return CategoryLoot }
func (*LootStartRoll) Category() Category       { return CategoryLoot }
func (*LootRollWon) Category() Category         { return CategoryLoot }
func (*LootAllPassed) Category() Category       { return CategoryLoot }
func (*LootMoneyNotify) Category() Category     { return CategoryLoot }
func (*ItemPush) Category() Category            { return CategoryLoot }

func (p *LootResponse) Validate() error        { return need(p.Opcode(), p.Corpse) }
func (p *LootReleaseResponse) Validate() error { return need(p.Opcode(), p.Corpse) }
func (p *LootStartRoll) Validate() error       { return need(p.Opcode(), p.Corpse) }
func (p *LootRollWon) Validate() error {
	if p.Item == 0 {
		return fmt.Errorf("%w: roll won without item", ErrMalformed)
	}
	return need(p.Opcode(), p.Winner)
}
func (p *LootAllPassed) Validate() error   { return nil }
func (p *LootMoneyNotify) Validate() error { return nil }
func (p *ItemPush) Validate() error {
	if p.Item == 0 {
		return fmt.Errorf("%w: item push without item", ErrMalformed)
	}
	return need(p.Opcode(), p.Player)
}

// ---------- quest ----------

type QuestDetails struct {
	typed
	Giver ident.EntityID
	Quest uint32
	Title string
}

type QuestAccepted struct {
	typed
	Quest uint32
}

type QuestUpdateAddKill struct {
	typed
	Quest     uint32
	Objective uint8
	Current   uint32
	Required  uint32
}

type QuestComplete struct {
	typed
	Quest uint32
}

type QuestFailed struct {
	typed
	Quest uint32
}

type QuestOfferReward struct {
	typed
	Giver   ident.EntityID
	Quest   uint32
	Rewards []uint32
}

type QuestGiverStatus struct {
	typed
	Giver  ident.EntityID
	Status uint8
}

func (*QuestDetails) Opcode() uint16       { return SMsgQuestDetails }
func (*QuestAccepted) Opcode() uint16      { return SMsgQuestAccepted }
func (*QuestUpdateAddKill) Opcode() uint16 { return SMsgQuestUpdateAddKill }
func (*QuestComplete) Opcode() uint16      { return SMsgQuestComplete }
func (*QuestFailed) Opcode() uint16        { return SMsgQuestFailed }
func (*QuestOfferReward) Opcode() uint16   { return SMsgQuestOfferReward }
func (*QuestGiverStatus) Opcode() uint16   { return SMsgQuestGiverStatus }

func (*QuestDetails) Category() Category       { return CategoryQuest }
func (*QuestAccepted) Category() Category      { return CategoryQuest }
func (*QuestUpdateAddKill) Category() Category { return CategoryQuest }
func (*QuestComplete) Category() Category      { return CategoryQuest }
func (*QuestFailed) Category() Category        { return CategoryQuest }
func (*QuestOfferReward) Category() Category   { return CategoryQuest }
func (*QuestGiverStatus) Category() Category   { return CategoryQuest }

func questID(op uint16, q uint32) error {
	if q == 0 {
		return fmt.Errorf("%w: %s without quest", ErrMalformed, OpcodeName(op))
	}
	return nil
}

func (p *QuestDetails) Validate() error       { return questID(p.Opcode(), p.Quest) }
func (p *QuestAccepted) Validate() error      { return questID(p.Opcode(), p.Quest) }
func (p *QuestUpdateAddKill) Validate() error { return questID(p.Opcode(), p.Quest) }
func (p *QuestComplete) Validate() error      { return questID(p.Opcode(), p.Quest) }
func (p *QuestFailed) Validate() error        { return questID(p.Opcode(), p.Quest) }
func (p *QuestOfferReward) Validate() error   { return questID(p.Opcode(), p.Quest) }
func (p *QuestGiverStatus) Validate() error   { return need(p.Opcode(), p.Giver) }

// ---------- aura ----------

// AuraChange says what happened to the aura slot in an AuraUpdate.
type AuraChange uint8

const (
	AuraApply AuraChange = iota
	AuraRemove
	AuraStack
	AuraRefresh
)

type AuraUpdate struct {
	typed
	Caster     ident.EntityID
	Unit       ident.EntityID
	Spell      uint32
	Slot       uint8
	Stacks     uint8
	DurationMs uint32
	Harmful    bool
	Dispel     uint8
	Change     AuraChange
}

func (*AuraUpdate) Opcode() uint16     { return SMsgAuraUpdate }
func (*AuraUpdate) Category() Category { return CategoryAura }
func (p *AuraUpdate) Validate() error {
	if p.Spell == 0 {
		return fmt.Errorf("%w: aura update without spell", ErrMalformed)
	}
	if p.Change > AuraRefresh {
		return fmt.Errorf("%w: aura change %d", ErrMalformed, p.Change)
	}
	return need(p.Opcode(), p.Unit)
}

// ---------- resource ----------

type HealthUpdate struct {
	typed
	Unit    ident.EntityID
	Current uint32
	Max     uint32
}

type PowerUpdate struct {
	typed
	Unit    ident.EntityID
	Power   uint8
	Current uint32
	Max     uint32
}

type ComboPoints struct {
	typed
	Target ident.EntityID
	Points uint8
}

type RuneUpdate struct {
	typed
	Ready uint8
}

type PartyMemberStats struct {
	typed
	Member    ident.EntityID
	Health    uint32
	MaxHealth uint32
}

func (*HealthUpdate) Opcode() uint16     { return SMsgHealthUpdate }
func (*PowerUpdate) Opcode() uint16      { return SMsgPowerUpdate }
func (*ComboPoints) Opcode() uint16      { return SMsgComboPoints }
func (*RuneUpdate) Opcode() uint16       { return SMsgRuneUpdate }
func (*PartyMemberStats) Opcode() uint16 { return SMsgPartyMemberStats }

func (*HealthUpdate) Category() Category     { return CategoryResource }
func (*PowerUpdate) Category() Category      { return CategoryResource }
func (*ComboPoints) Category() Category      { return CategoryResource }
func (*RuneUpdate) Category() Category       { return CategoryResource }
func (*PartyMemberStats) Category() Category { return CategoryResource }

func (p *HealthUpdate) Validate() error     { return need(p.Opcode(), p.Unit) }
func (p *PowerUpdate) Validate() error      { return need(p.Opcode(), p.Unit) }
func (p *ComboPoints) Validate() error      { return nil }
func (p *RuneUpdate) Validate() error       { return nil }
func (p *PartyMemberStats) Validate() error { return need(p.Opcode(), p.Member) }

// ---------- social ----------

// ChatKind distinguishes the chat variants carried by MessageChat.
type ChatKind uint8

const (
	ChatSay ChatKind = iota
	ChatParty
	ChatRaid
	ChatGuild
	ChatWhisper
	ChatChannel
)

type MessageChat struct {
	typed
	Sender   ident.EntityID
	Kind     ChatKind
	Channel  uint8
	Language uint32
	Text     string
}

type TextEmote struct {
	typed
	Sender ident.EntityID
	Emote  uint32
}

type FriendStatus struct {
	typed
	Friend ident.EntityID
	Status uint8
	Name   string
}

type GuildInvite struct {
	typed
	Inviter ident.EntityID
	Guild   string
}

// TradeStatus carries the trade window state; StatusBeginTrade is a request.
type TradeStatus struct {
	typed
	Requester ident.EntityID
	Status    uint8
}

const TradeStatusBegin uint8 = 1

type DuelRequested struct {
	typed
	Challenger ident.EntityID
}

func (*MessageChat) Opcode() uint16   { return SMsgMessageChat }
func (*TextEmote) Opcode() uint16     { return SMsgTextEmote }
func (*FriendStatus) Opcode() uint16  { return SMsgFriendStatus }
func (*GuildInvite) Opcode() uint16   { return SMsgGuildInvite }
func (*TradeStatus) Opcode() uint16   { return SMsgTradeStatus }
func (*DuelRequested) Opcode() uint16 { return SMsgDuelRequested }

func (*MessageChat) Category() Category   { return CategorySocial }
func (*TextEmote) Category() Category     { return CategorySocial }
func (*FriendStatus) Category() Category  { return CategorySocial }
func (*GuildInvite) Category() Category   { return CategorySocial }
func (*TradeStatus) Category() Category   { return CategorySocial }
func (*DuelRequested) Category() Category { return CategorySocial }

func (p *MessageChat) Validate() error   { return need(p.Opcode(), p.Sender) }
func (p *TextEmote) Validate() error     { return need(p.Opcode(), p.Sender) }
func (p *FriendStatus) Validate() error  { return need(p.Opcode(), p.Friend) }
func (p *GuildInvite) Validate() error   { return need(p.Opcode(), p.Inviter) }
func (p *TradeStatus) Validate() error   { return need(p.Opcode(), p.Requester) }
func (p *DuelRequested) Validate() error { return need(p.Opcode(), p.Challenger) }

// ---------- auction ----------

type AuctionListResult struct {
	typed
	Auctions []uint32
}

// AuctionBidderNotify is sent to a bidder when they win or are outbid.
type AuctionBidderNotify struct {
	typed
	Auction uint32
	Item    uint32
	Bid     uint64
	Won     bool
	Party   string
}

// AuctionOwnerNotify is sent to a seller when an auction sells or expires.
type AuctionOwnerNotify struct {
	typed
	Auction uint32
	Item    uint32
	Count   uint32
	Bid     uint64
	Buyout  uint64
	Sold    bool
}

type AuctionCommandResult struct {
	typed
	Auction uint32
	Command uint8
	Error   uint8
	Bid     uint64
}

const (
	AuctionCommandSell uint8 = iota
	AuctionCommandCancel
	AuctionCommandBid
)

func (*AuctionListResult) Opcode() uint16    { return SMsgAuctionListResult }
func (*AuctionBidderNotify) Opcode() uint16  { return SMsgAuctionBidderNotify }
func (*AuctionOwnerNotify) Opcode() uint16   { return SMsgAuctionOwnerNotify }
func (*AuctionCommandResult) Opcode() uint16 { return SMsgAuctionCommand }

func (*AuctionListResult) Category() Category    { return CategoryAuction }
func (*AuctionBidderNotify) Category() Category  { return CategoryAuction }
func (*AuctionOwnerNotify) Category() Category   { return CategoryAuction }
func (*AuctionCommandResult) Category() Category { return CategoryAuction }

func (p *AuctionListResult) Validate() error { return nil }
func (p *AuctionBidderNotify) Validate() error {
	if p.Auction == 0 {
		return fmt.Errorf("%w: bidder notification without auction", ErrMalformed)
	}
	return nil
}
func (p *AuctionOwnerNotify) Validate() error {
	if p.Auction == 0 {
		return fmt.Errorf("%w: owner notification without auction", ErrMalformed)
	}
	return nil
}
func (p *AuctionCommandResult) Validate() error { return nil }

// ---------- npc ----------

type GossipMessage struct {
	typed
	Npc     ident.EntityID
	Menu    uint32
	Text    uint32
	Options []uint32
}

type ListInventory struct {
	typed
	Npc   ident.EntityID
	Items []uint32
}

type TrainerList struct {
	typed
	Npc    ident.EntityID
	Spells []uint32
	Title  string
}

type ShowBank struct {
	typed
	Npc ident.EntityID
}

type ShowTaxiNodes struct {
	typed
	Npc   ident.EntityID
	Nodes []uint32
}

type SpiritHealerConfirm struct {
	typed
	Npc ident.EntityID
}

type NpcTextUpdate struct {
	typed
	Npc  ident.EntityID
	Text uint32
}

func (*GossipMessage) Opcode() uint16       { return SMsgGossipMessage }
func (*ListInventory) Opcode() uint16       { return SMsgListInventory }
func (*TrainerList) Opcode() uint16         { return SMsgTrainerList }
func (*ShowBank) Opcode() uint16            { return SMsgShowBank }
func (*ShowTaxiNodes) Opcode() uint16       { return SMsgShowTaxiNodes }
func (*SpiritHealerConfirm) Opcode() uint16 { return SMsgSpiritHealerConfirm }
func (*NpcTextUpdate) Opcode() uint16       { return SMsgNpcTextUpdate }

func (*GossipMessage) Category() Category       { return CategoryNPC }
func (*ListInventory) Category() Category       { return CategoryNPC }
func (*TrainerList) Category() Category         { return CategoryNPC }
func (*ShowBank) Category() Category            { return CategoryNPC }
func (*ShowTaxiNodes) Category() Category       { return CategoryNPC }
func (*SpiritHealerConfirm) Category() Category { return CategoryNPC }
func (*NpcTextUpdate) Category() Category       { return CategoryNPC }

func (p *GossipMessage) Validate() error       { return need(p.Opcode(), p.Npc) }
func (p *ListInventory) Validate() error       { return need(p.Opcode(), p.Npc) }
func (p *TrainerList) Validate() error         { return need(p.Opcode(), p.Npc) }
func (p *ShowBank) Validate() error            { return need(p.Opcode(), p.Npc) }
func (p *ShowTaxiNodes) Validate() error       { return need(p.Opcode(), p.Npc) }
func (p *SpiritHealerConfirm) Validate() error { return need(p.Opcode(), p.Npc) }
func (p *NpcTextUpdate) Validate() error       { return need(p.Opcode(), p.Npc) }

// ---------- instance ----------

type InstanceSaveCreated struct {
	typed
	Map      uint32
	Instance uint32
}

type InstanceReset struct {
	typed
	Map uint32
}

// Lockout is one saved-instance row of RaidInstanceInfo.
type Lockout struct {
	Map      uint32
	Instance uint32
	ResetSec uint32
}

type RaidInstanceInfo struct {
	typed
	Lockouts []Lockout
}

// EncounterPhase says which edge of an encounter an EncounterUpdate reports.
type EncounterPhase uint8

const (
	EncounterEngage EncounterPhase = iota
	EncounterDisengage
)

type EncounterUpdate struct {
	typed
	Group   ident.EntityID
	Boss    ident.EntityID
	Entry   uint32
	Map     uint32
	Phase   EncounterPhase
	Success bool
}

// RaidInstanceMessage kinds.
const (
	RaidMessageWarning uint8 = iota + 1
	RaidMessageSaved
	RaidMessageWelcome
)

type RaidInstanceMessage struct {
	typed
	Kind       uint8
	Map        uint32
	Difficulty uint8
	Text       string
}

func (*InstanceSaveCreated) Opcode() uint16 { return SMsgInstanceSaveCreated }
func (*InstanceReset) Opcode() uint16       { return SMsgInstanceReset }
func (*RaidInstanceInfo) Opcode() uint16    { return SMsgRaidInstanceInfo }
func (*EncounterUpdate) Opcode() uint16     { return SMsgEncounterUpdate }
func (*RaidInstanceMessage) Opcode() uint16 { return SMsgRaidInstanceMessage }

func (*InstanceSaveCreated) Category() Category { return CategoryInstance }
func (*InstanceReset) Category() Category       { return CategoryInstance }
func (*RaidInstanceInfo) Category() Category    { return CategoryInstance }
func (*EncounterUpdate) Category() Category     { return CategoryInstance }
func (*RaidInstanceMessage) Category() Category { return CategoryInstance }

func (p *InstanceSaveCreated) Validate() error { return nil }
func (p *InstanceReset) Validate() error       { return nil }
func (p *RaidInstanceInfo) Validate() error    { return nil }
func (p *EncounterUpdate) Validate() error {
	if p.Entry == 0 {
		return fmt.Errorf("%w: encounter without boss entry", ErrMalformed)
	}
	return nil
}
func (p *RaidInstanceMessage) Validate() error { return nil }
