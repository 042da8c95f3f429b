package sniffer

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/events/resource"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

func registerResource(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.HealthUpdate) error {
		if !c.Once(*p) {
			return nil
		}
		c.Buses.Resource.Publish(resource.NewHealthChanged(p.Unit, p.Current, p.Max))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.PowerUpdate) error {
		pt := resource.PowerType(p.Power)
		if pt > resource.PowerRunic {
			return fmt.Errorf("%w: power type %d", ErrUntranslatable, p.Power)
		}
		if !c.Once(*p) {
			return nil
		}
		c.Buses.Resource.Publish(resource.NewPowerChanged(p.Unit, pt, p.Current, p.Max))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ComboPoints) error {
		c.Buses.Resource.Publish(resource.NewComboPointsChanged(c.Player, p.Target, p.Points))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.RuneUpdate) error {
		c.Buses.Resource.Publish(resource.NewRuneStateChanged(c.Player, p.Ready))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.PartyMemberStats) error {
		if !c.Once(*p) {
			return nil
		}
		c.Buses.Resource.Publish(resource.NewResourceSync(p.Member, p.Health, p.MaxHealth))
		return nil
	})
}
