package packet

import "fmt"

// Server opcodes of the packets the framework understands.
const (
	SMsgGroupInvite         uint16 = 0x06F
	SMsgGroupDecline        uint16 = 0x074
	SMsgGroupUninvite       uint16 = 0x077
	SMsgGroupSetLeader      uint16 = 0x079
	SMsgGroupDestroyed      uint16 = 0x07C
	SMsgGroupList           uint16 = 0x07D
	SMsgRaidTargetUpdate    uint16 = 0x321
	SMsgReadyCheckStart     uint16 = 0x322
	SMsgReadyCheckResponse  uint16 = 0x323
	SMsgAttackStart         uint16 = 0x143
	SMsgAttackStop          uint16 = 0x144
	SMsgAttackerStateUpdate uint16 = 0x14A
	SMsgSpellStart          uint16 = 0x131
	SMsgSpellGo             uint16 = 0x132
	SMsgSpellInterrupted    uint16 = 0x133
	SMsgSpellHealLog        uint16 = 0x150
	SMsgUnitDeath           uint16 = 0x156
	SMsgHighestThreat       uint16 = 0x482
	SMsgThreatUpdate        uint16 = 0x483
	SMsgSpellCooldown       uint16 = 0x134
	SMsgClearCooldown       uint16 = 0x1DE
	SMsgItemCooldown        uint16 = 0x0B0
	SMsgLootResponse        uint16 = 0x160
	SMsgLootReleaseResponse uint16 = 0x161
	SMsgLootStartRoll       uint16 = 0x2A1
	SMsgLootRollWon         uint16 = 0x29F
	SMsgLootAllPassed       uint16 = 0x29E
	SMsgLootMoneyNotify     uint16 = 0x163
	SMsgItemPush            uint16 = 0x166
	SMsgQuestDetails        uint16 = 0x188
	SMsgQuestAccepted       uint16 = 0x18B
	SMsgQuestUpdateAddKill  uint16 = 0x199
	SMsgQuestComplete       uint16 = 0x191
	SMsgQuestFailed         uint16 = 0x192
	SMsgQuestOfferReward    uint16 = 0x18D
	SMsgQuestGiverStatus    uint16 = 0x183
	SMsgAuraUpdate          uint16 = 0x496
	SMsgHealthUpdate        uint16 = 0x47F
	SMsgPowerUpdate         uint16 = 0x480
	SMsgComboPoints         uint16 = 0x4A0
	SMsgRuneUpdate          uint16 = 0x4A1
	SMsgPartyMemberStats    uint16 = 0x07E
	SMsgMessageChat         uint16 = 0x096
	SMsgTextEmote           uint16 = 0x105
	SMsgFriendStatus        uint16 = 0x068
	SMsgGuildInvite         uint16 = 0x083
	SMsgTradeStatus         uint16 = 0x120
	SMsgDuelRequested       uint16 = 0x167
	SMsgAuctionListResult   uint16 = 0x25C
	SMsgAuctionBidderNotify uint16 = 0x25E
	SMsgAuctionOwnerNotify  uint16 = 0x25F
	SMsgAuctionCommand      uint16 = 0x25B
	SMsgGossipMessage       uint16 = 0x17D
	SMsgListInventory       uint16 = 0x19F
	SMsgTrainerList         uint16 = 0x1B1
	SMsgShowBank            uint16 = 0x1B8
	SMsgShowTaxiNodes       uint16 = 0x1A9
	SMsgSpiritHealerConfirm uint16 = 0x222
	SMsgNpcTextUpdate       uint16 = 0x180
	SMsgInstanceSaveCreated uint16 = 0x2CB
	SMsgInstanceReset       uint16 = 0x31E
	SMsgRaidInstanceInfo    uint16 = 0x2CC
	SMsgEncounterUpdate     uint16 = 0x4B6
	SMsgRaidInstanceMessage uint16 = 0x2FA
)

// OpcodeInfo describes one opcode for the statistics path.
type OpcodeInfo struct {
	Name     string
	Category Category
}

// opcodes is read-only after package init.
var opcodes = map[uint16]OpcodeInfo{}

func register(op uint16, name string, c Category) {
	if _, dup := opcodes[op]; dup {
		panic(fmt.Sprintf("packet: duplicate opcode 0x%03X (%s)", op, name))
	}
	opcodes[op] = OpcodeInfo{Name: name, Category: c}
}

func init() {
	register(SMsgGroupInvite, "SMSG_GROUP_INVITE", CategoryGroup)
	register(SMsgGroupDecline, "SMSG_GROUP_DECLINE", CategoryGroup)
	register(SMsgGroupUninvite, "SMSG_GROUP_UNINVITE", CategoryGroup)
	register(SMsgGroupSetLeader, "SMSG_GROUP_SET_LEADER", CategoryGroup)
	register(SMsgGroupDestroyed, "SMSG_GROUP_DESTROYED", CategoryGroup)
	register(SMsgGroupList, "SMSG_GROUP_LIST", CategoryGroup)
	register(SMsgRaidTargetUpdate, "MSG_RAID_TARGET_UPDATE", CategoryGroup)
	register(SMsgReadyCheckStart, "MSG_RAID_READY_CHECK", CategoryGroup)
	register(SMsgReadyCheckResponse, "MSG_RAID_READY_CHECK_CONFIRM", CategoryGroup)

	register(SMsgAttackStart, "SMSG_ATTACKSTART", CategoryCombat)
	register(SMsgAttackStop, "SMSG_ATTACKSTOP", CategoryCombat)
	register(SMsgAttackerStateUpdate, "SMSG_ATTACKERSTATEUPDATE", CategoryCombat)
	register(SMsgSpellStart, "SMSG_SPELL_START", CategoryCombat)
	register(SMsgSpellGo, "SMSG_SPELL_GO", CategoryCombat)
	register(SMsgSpellInterrupted, "SMSG_SPELL_INTERRUPTED", CategoryCombat)
	register(SMsgSpellHealLog, "SMSG_SPELLHEALLOG", CategoryCombat)
	register(SMsgUnitDeath, "SMSG_PARTYKILLLOG", CategoryCombat)
	register(SMsgHighestThreat, "SMSG_HIGHEST_THREAT_UPDATE", CategoryCombat)
	register(SMsgThreatUpdate, "SMSG_THREAT_UPDATE", CategoryCombat)

	register(SMsgSpellCooldown, "SMSG_SPELL_COOLDOWN", CategoryCooldown)
	register(SMsgClearCooldown, "SMSG_CLEAR_COOLDOWN", CategoryCooldown)
	register(SMsgItemCooldown, "SMSG_ITEM_COOLDOWN", CategoryCooldown)

	register(SMsgLootResponse, "SMSG_LOOT_RESPONSE", CategoryLoot)
	register(SMsgLootReleaseResponse, "SMSG_LOOT_RELEASE_RESPONSE", CategoryLoot)
	register(SMsgLootStartRoll, "SMSG_LOOT_START_ROLL", CategoryLoot)
	register(SMsgLootRollWon, "SMSG_LOOT_ROLL_WON", CategoryLoot)
	register(SMsgLootAllPassed, "SMSG_LOOT_ALL_PASSED", CategoryLoot)
	register(SMsgLootMoneyNotify, "SMSG_LOOT_MONEY_NOTIFY", CategoryLoot)
	register(SMsgItemPush, "SMSG_ITEM_PUSH_RESULT", CategoryLoot)

	register(SMsgQuestDetails, "SMSG_QUESTGIVER_QUEST_DETAILS", CategoryQuest)
	register(SMsgQuestAccepted, "SMSG_QUEST_CONFIRM_ACCEPT", CategoryQuest)
	register(SMsgQuestUpdateAddKill, "SMSG_QUESTUPDATE_ADD_KILL", CategoryQuest)
	register(SMsgQuestComplete, "SMSG_QUESTGIVER_QUEST_COMPLETE", CategoryQuest)
	register(SMsgQuestFailed, "SMSG_QUESTGIVER_QUEST_FAILED", CategoryQuest)
	register(SMsgQuestOfferReward, "SMSG_QUESTGIVER_OFFER_REWARD", CategoryQuest)
	register(SMsgQuestGiverStatus, "SMSG_QUESTGIVER_STATUS", CategoryQuest)

	register(SMsgAuraUpdate, "SMSG_AURA_UPDATE", CategoryAura)

	register(SMsgHealthUpdate, "SMSG_HEALTH_UPDATE", CategoryResource)
	register(SMsgPowerUpdate, "SMSG_POWER_UPDATE", CategoryResource)
	register(SMsgComboPoints, "SMSG_UPDATE_COMBO_POINTS", CategoryResource)
	register(SMsgRuneUpdate, "SMSG_RESYNC_RUNES", CategoryResource)
	register(SMsgPartyMemberStats, "SMSG_PARTY_MEMBER_STATS", CategoryResource)

	register(SMsgMessageChat, "SMSG_MESSAGECHAT", CategorySocial)
	register(SMsgTextEmote, "SMSG_TEXT_EMOTE", CategorySocial)
	register(SMsgFriendStatus, "SMSG_FRIEND_STATUS", CategorySocial)
	register(SMsgGuildInvite, "SMSG_GUILD_INVITE", CategorySocial)
	register(SMsgTradeStatus, "SMSG_TRADE_STATUS", CategorySocial)
	register(SMsgDuelRequested, "SMSG_DUEL_REQUESTED", CategorySocial)

	register(SMsgAuctionListResult, "SMSG_AUCTION_LIST_RESULT", CategoryAuction)
	register(SMsgAuctionBidderNotify, "SMSG_AUCTION_BIDDER_NOTIFICATION", CategoryAuction)
	register(SMsgAuctionOwnerNotify, "SMSG_AUCTION_OWNER_NOTIFICATION", CategoryAuction)
	register(SMsgAuctionCommand, "SMSG_AUCTION_COMMAND_RESULT", CategoryAuction)

	register(SMsgGossipMessage, "SMSG_GOSSIP_MESSAGE", CategoryNPC)
	register(SMsgListInventory, "SMSG_LIST_INVENTORY", CategoryNPC)
	register(SMsgTrainerList, "SMSG_TRAINER_LIST", CategoryNPC)
	register(SMsgShowBank, "SMSG_SHOW_BANK", CategoryNPC)
	register(SMsgShowTaxiNodes, "SMSG_SHOWTAXINODES", CategoryNPC)
	register(SMsgSpiritHealerConfirm, "SMSG_SPIRIT_HEALER_CONFIRM", CategoryNPC)
	register(SMsgNpcTextUpdate, "SMSG_NPC_TEXT_UPDATE", CategoryNPC)

	register(SMsgInstanceSaveCreated, "SMSG_INSTANCE_SAVE_CREATED", CategoryInstance)
	register(SMsgInstanceReset, "SMSG_INSTANCE_RESET", CategoryInstance)
	register(SMsgRaidInstanceInfo, "SMSG_RAID_INSTANCE_INFO", CategoryInstance)
	register(SMsgEncounterUpdate, "SMSG_UPDATE_INSTANCE_ENCOUNTER_UNIT", CategoryInstance)
	register(SMsgRaidInstanceMessage, "SMSG_RAID_INSTANCE_MESSAGE", CategoryInstance)
}

// LookupOpcode returns what is known about op.
func LookupOpcode(op uint16) (OpcodeInfo, bool) {
	info, ok := opcodes[op]
	return info, ok
}

// OpcodeName returns the symbolic name of op, or a hex placeholder.
func OpcodeName(op uint16) string {
	if info, ok := opcodes[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("0x%03X", op)
}

// CategoryOf classifies op; unregistered opcodes are Unknown.
func CategoryOf(op uint16) Category {
	return opcodes[op].Category
}
