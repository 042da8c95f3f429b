package sniffer

import (
	"github.com/l1jgo/playerbot/internal/events/npc"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

func registerNPC(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.GossipMessage) error {
		c.Buses.NPC.Publish(npc.NewGossipMenu(c.Player, p.Npc, p.Menu, p.Text, p.Options))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ListInventory) error {
		c.Buses.NPC.Publish(npc.NewVendorInventory(c.Player, p.Npc, p.Items))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.TrainerList) error {
		c.Buses.NPC.Publish(npc.NewTrainerList(c.Player, p.Npc, p.Spells, p.Title))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ShowBank) error {
		c.Buses.NPC.Publish(npc.NewBankerOpened(c.Player, p.Npc))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ShowTaxiNodes) error {
		c.Buses.NPC.Publish(npc.NewFlightMasterOpened(c.Player, p.Npc, p.Nodes))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.SpiritHealerConfirm) error {
		c.Buses.NPC.Publish(npc.NewSpiritHealerConfirm(c.Player, p.Npc))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.NpcTextUpdate) error {
		c.Buses.NPC.Publish(npc.NewNpcTextUpdate(c.Player, p.Npc, p.Text))
		return nil
	})
}
