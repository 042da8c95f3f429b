package sniffer

import (
	"time"

	"github.com/l1jgo/playerbot/internal/events/cooldown"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

func ms(v uint32) time.Duration { return time.Duration(v) * time.Millisecond }

func registerCooldown(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.SpellCooldown) error {
		bus := c.Buses.Cooldown
		if p.DurationMs > 0 {
			bus.Publish(cooldown.NewSpellCooldownStarted(p.Caster, p.Spell, ms(p.DurationMs)))
		}
		if p.CategoryID != 0 && p.CategoryMs > 0 {
			bus.Publish(cooldown.NewCategoryCooldown(p.Caster, p.CategoryID, ms(p.CategoryMs)))
		}
		if p.GlobalMs > 0 {
			bus.Publish(cooldown.NewGlobalCooldown(p.Caster, p.Spell, ms(p.GlobalMs)))
		}
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ClearCooldown) error {
		c.Buses.Cooldown.Publish(cooldown.NewSpellCooldownCleared(p.Caster, p.Spell))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ItemCooldown) error {
		c.Buses.Cooldown.Publish(cooldown.NewItemCooldown(p.Owner, p.Item, ms(p.DurationMs)))
		return nil
	})
}
