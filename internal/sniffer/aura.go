package sniffer

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/events/aura"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

func registerAura(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.AuraUpdate) error {
		dispel := aura.DispelType(p.Dispel)
		if dispel > aura.DispelPoison {
			return fmt.Errorf("%w: dispel type %d", ErrUntranslatable, p.Dispel)
		}
		if p.Change > packet.AuraRefresh {
			return fmt.Errorf("%w: aura change %d", ErrUntranslatable, p.Change)
		}
		if !c.Once(*p) {
			return nil
		}

		bus := c.Buses.Aura
		switch p.Change {
		case packet.AuraApply:
			bus.Publish(aura.NewAuraApplied(p.Caster, p.Unit, p.Spell, p.Slot, p.Stacks, ms(p.DurationMs), p.Harmful))
			if p.Harmful && dispel != aura.DispelNone {
				bus.Publish(aura.NewDispellableDetected(p.Caster, p.Unit, p.Spell, dispel))
			}
		case packet.AuraRemove:
			bus.Publish(aura.NewAuraRemoved(p.Caster, p.Unit, p.Spell, p.Slot))
		case packet.AuraStack:
			bus.Publish(aura.NewAuraStacksChanged(p.Caster, p.Unit, p.Spell, p.Stacks))
		case packet.AuraRefresh:
			bus.Publish(aura.NewAuraRefreshed(p.Caster, p.Unit, p.Spell, ms(p.DurationMs)))
		}
		return nil
	})
}
