package sniffer

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/events/loot"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

func registerLoot(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.LootResponse) error {
		c.Buses.Loot.Publish(loot.NewLootWindowOpened(c.Player, p.Corpse, p.Money, p.Items))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.LootReleaseResponse) error {
		c.Buses.Loot.Publish(loot.NewLootReleased(c.Player, p.Corpse))
		return nil
	})
	// Every member gets its own roll prompt.
	RegisterTyped(s, func(c *Context, p *packet.LootStartRoll) error {
		c.Buses.Loot.Publish(loot.NewLootRollStarted(c.Player, p.Corpse, p.Roll, p.Item, p.Slot))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.LootRollWon) error {
		vote := loot.RollVote(p.Vote)
		if vote > loot.RollDisenchant {
			return fmt.Errorf("%w: roll vote %d", ErrUntranslatable, p.Vote)
		}
		if !c.Once(*p) {
			return nil
		}
		c.Buses.Loot.Publish(loot.NewLootRollWon(p.Winner, p.Roll, p.Item, vote, p.Dice))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.LootAllPassed) error {
		c.Buses.Loot.Publish(loot.NewLootAllPassed(c.Player, p.Roll, p.Item))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.LootMoneyNotify) error {
		c.Buses.Loot.Publish(loot.NewLootMoneyReceived(c.Player, p.Money))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ItemPush) error {
		if !c.Once(*p) {
			return nil
		}
		c.Buses.Loot.Publish(loot.NewLootItemReceived(p.Player, p.Item, p.Count))
		return nil
	})
}
