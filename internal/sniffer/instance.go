package sniffer

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/events/instance"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

func registerInstance(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.InstanceSaveCreated) error {
		c.Buses.Instance.Publish(instance.NewInstanceEntered(c.Player, c.Group(), p.Map, p.Instance, 0))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.InstanceReset) error {
		c.Buses.Instance.Publish(instance.NewInstanceReset(c.Player, p.Map))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.RaidInstanceInfo) error {
		for _, l := range p.Lockouts {
			reset := time.Duration(l.ResetSec) * time.Second
			c.Buses.Instance.Publish(instance.NewInstanceLockout(c.Player, l.Map, l.Instance, reset))
		}
		return nil
	})
	// Encounter frames go to the whole group; one event per encounter edge.
	RegisterTyped(s, func(c *Context, p *packet.EncounterUpdate) error {
		if p.Phase > packet.EncounterDisengage {
			return fmt.Errorf("%w: encounter phase %d", ErrUntranslatable, p.Phase)
		}
		g := p.Group
		if g.IsEmpty() {
			g = c.Group()
		}
		if !c.Once(groupScoped{p: *p, group: g}) {
			return nil
		}
		bus := c.Buses.Instance
		if p.Phase == packet.EncounterEngage {
			bus.Publish(instance.NewEncounterStarted(c.Player, p.Boss, g, p.Map, p.Entry))
			return nil
		}
		bus.Publish(instance.NewEncounterEnded(c.Player, p.Boss, g, p.Map, p.Entry, p.Success))
		if p.Success {
			bus.Publish(instance.NewBossKilled(c.Player, p.Boss, g, p.Map, p.Entry))
		}
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.RaidInstanceMessage) error {
		switch p.Kind {
		case packet.RaidMessageWarning:
			c.Buses.Instance.Publish(instance.NewDifficultyWarning(c.Player, p.Map, p.Difficulty))
		case packet.RaidMessageSaved, packet.RaidMessageWelcome:
			c.Buses.Instance.Publish(instance.NewInstanceMessage(c.Player, p.Map, p.Text))
		default:
			return fmt.Errorf("%w: raid message kind %d", ErrUntranslatable, p.Kind)
		}
		return nil
	})
}
