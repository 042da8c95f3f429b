package sniffer

import (
	"github.com/l1jgo/playerbot/internal/events/combat"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

// Combat packets are broadcast to everyone nearby. Each is translated once
// per receiving group and the events carry that group as their key.
func registerCombat(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.AttackStart) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		g := c.Group()
		c.Buses.Combat.Publish(combat.NewCombatStarted(p.Attacker, p.Victim).ForGroup(g))
		c.Buses.Combat.Publish(combat.NewAggroGained(p.Attacker, p.Victim).ForGroup(g))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.AttackStop) error {
		if p.Victim.IsEmpty() || !c.OncePerGroup(*p) {
			return nil
		}
		c.Buses.Combat.Publish(combat.NewAggroLost(p.Attacker, p.Victim).ForGroup(c.Group()))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.AttackerStateUpdate) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		g := c.Group()
		dmg, over := int64(p.Damage), int64(p.Overkill)
		c.Buses.Combat.Publish(combat.NewDamageDealt(p.Attacker, p.Victim, p.Spell, dmg, over, p.Crit).ForGroup(g))
		c.Buses.Combat.Publish(combat.NewDamageTaken(p.Victim, p.Attacker, p.Spell, dmg, p.School).ForGroup(g))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.SpellStart) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		e := combat.NewSpellCastStart(p.Caster, p.Target, p.Spell, p.CastTimeMs, p.Interruptible)
		c.Buses.Combat.Publish(e.ForGroup(c.Group()))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.SpellGo) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		c.Buses.Combat.Publish(combat.NewSpellCastGo(p.Caster, p.Target, p.Spell).ForGroup(c.Group()))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.SpellInterrupted) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		c.Buses.Combat.Publish(combat.NewSpellInterrupted(p.Caster, p.Interrupter, p.Spell).ForGroup(c.Group()))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.SpellHealLog) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		e := combat.NewHealed(p.Healer, p.Target, p.Spell, int64(p.Amount), p.Crit)
		c.Buses.Combat.Publish(e.ForGroup(c.Group()))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.UnitDeath) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		c.Buses.Combat.Publish(combat.NewUnitDied(p.Killer, p.Victim).ForGroup(c.Group()))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.HighestThreat) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		g := c.Group()
		if !p.OldTop.IsEmpty() && p.OldTop != p.NewTop {
			c.Buses.Combat.Publish(combat.NewAggroLost(p.Enemy, p.OldTop).ForGroup(g))
		}
		c.Buses.Combat.Publish(combat.NewAggroGained(p.Enemy, p.NewTop).ForGroup(g))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ThreatUpdate) error {
		if !c.OncePerGroup(*p) {
			return nil
		}
		c.Buses.Combat.Publish(combat.NewThreatUpdate(p.Enemy, p.Unit, int64(p.Threat)).ForGroup(c.Group()))
		return nil
	})
}
