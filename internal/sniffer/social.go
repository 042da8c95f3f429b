package sniffer

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/events/social"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

// Social events are addressed to the receiving agent, so each receiver gets
// its own event.
func registerSocial(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.MessageChat) error {
		switch p.Kind {
		case packet.ChatWhisper:
			c.Buses.Social.Publish(social.NewWhisperReceived(p.Sender, c.Player, p.Text))
		case packet.ChatSay, packet.ChatParty, packet.ChatRaid, packet.ChatGuild, packet.ChatChannel:
			c.Buses.Social.Publish(social.NewChatReceived(p.Sender, c.Player, uint8(p.Kind), p.Language, p.Text))
		default:
			return fmt.Errorf("%w: chat kind %d", ErrUntranslatable, p.Kind)
		}
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.TextEmote) error {
		c.Buses.Social.Publish(social.NewEmoteReceived(p.Sender, c.Player, p.Emote))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.FriendStatus) error {
		c.Buses.Social.Publish(social.NewFriendStatus(p.Friend, c.Player, p.Status, p.Name))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.GuildInvite) error {
		c.Buses.Social.Publish(social.NewGuildInvite(p.Inviter, c.Player, p.Guild))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.TradeStatus) error {
		// Only the opening of a trade is an event; later status steps are
		// handled by the trade window itself.
		if p.Status == packet.TradeStatusBegin {
			c.Buses.Social.Publish(social.NewTradeRequested(p.Requester, c.Player))
		}
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.DuelRequested) error {
		c.Buses.Social.Publish(social.NewDuelRequested(p.Challenger, c.Player))
		return nil
	})
}
