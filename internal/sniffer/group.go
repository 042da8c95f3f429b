package sniffer

import (
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/events/group"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

// Group packets reach every member. Events go through PublishGroup so each
// change is published once no matter how many agents receive it, and no
// matter whether a host hook already reported it.
func registerGroup(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.GroupInvite) error {
		c.Buses.PublishGroup(group.NewInviteReceived(p.Group, p.Inviter, c.Player))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.GroupDecline) error {
		c.Buses.PublishGroup(group.NewInviteDeclined(p.Group, p.Invitee, c.Player))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.GroupUninvite) error {
		method := group.RemoveLeave
		if !p.Kicker.IsEmpty() && p.Kicker != p.Member {
			method = group.RemoveKick
		}
		c.Buses.PublishGroup(group.NewMemberLeft(p.Group, p.Member, p.Kicker, method, ""))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.GroupSetLeader) error {
		c.Buses.PublishGroup(group.NewLeaderChanged(p.Group, p.NewLeader, p.OldLeader))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.GroupDestroyed) error {
		c.Buses.PublishGroup(group.NewGroupDisbanded(p.Group, p.Leader))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.GroupList) error {
		ids := make([]ident.EntityID, len(p.Members))
		for i, m := range p.Members {
			ids[i] = m.ID
		}
		// The list is a full snapshot; individual differences are found by
		// the bridge poller.
		c.Buses.PublishGroup(group.NewStateSync(p.Group, p.Leader, ids))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.RaidTargetUpdate) error {
		c.Buses.PublishGroup(group.NewTargetIconChanged(p.Group, p.Setter, p.Slot, p.Target))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ReadyCheckStart) error {
		d := time.Duration(p.DurationMs) * time.Millisecond
		c.Buses.PublishGroup(group.NewReadyCheckStarted(p.Group, p.Initiator, d))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.ReadyCheckResponse) error {
		c.Buses.PublishGroup(group.NewReadyCheckResponse(p.Group, p.Member, p.Ready))
		return nil
	})
}
