package sniffer

import (
	"github.com/l1jgo/playerbot/internal/events/quest"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

func registerQuest(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.QuestDetails) error {
		c.Buses.Quest.Publish(quest.NewQuestOffered(c.Player, p.Giver, p.Quest, p.Title))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.QuestAccepted) error {
		c.Buses.Quest.Publish(quest.NewQuestAccepted(c.Player, p.Quest))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.QuestUpdateAddKill) error {
		c.Buses.Quest.Publish(quest.NewQuestProgress(c.Player, p.Quest, p.Objective, p.Current, p.Required))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.QuestComplete) error {
		c.Buses.Quest.Publish(quest.NewQuestCompleted(c.Player, p.Quest))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.QuestFailed) error {
		c.Buses.Quest.Publish(quest.NewQuestFailed(c.Player, p.Quest))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.QuestOfferReward) error {
		c.Buses.Quest.Publish(quest.NewQuestRewardOffered(c.Player, p.Giver, p.Quest, p.Rewards))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.QuestGiverStatus) error {
		c.Buses.Quest.Publish(quest.NewQuestGiverStatus(c.Player, p.Giver, p.Status))
		return nil
	})
}
