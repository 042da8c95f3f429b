package sniffer

import (
	"github.com/l1jgo/playerbot/internal/events/auction"
	"github.com/l1jgo/playerbot/internal/net/packet"
)

// Auction packets are personal: the receiving agent is the bidder or the
// seller.
func registerAuction(s *Sniffer) {
	RegisterTyped(s, func(c *Context, p *packet.AuctionListResult) error {
		c.Buses.Auction.Publish(auction.NewAuctionListResult(c.Player, p.Auctions))
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.AuctionBidderNotify) error {
		if p.Won {
			c.Buses.Auction.Publish(auction.NewAuctionWon(c.Player, p.Auction, p.Item, p.Bid, p.Party))
		} else {
			c.Buses.Auction.Publish(auction.NewAuctionOutbid(c.Player, p.Auction, p.Item, p.Bid))
		}
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.AuctionOwnerNotify) error {
		if p.Sold {
			c.Buses.Auction.Publish(auction.NewAuctionSold(c.Player, p.Auction, p.Item, p.Bid, p.Buyout))
		} else {
			c.Buses.Auction.Publish(auction.NewAuctionExpired(c.Player, p.Auction, p.Item, p.Count))
		}
		return nil
	})
	RegisterTyped(s, func(c *Context, p *packet.AuctionCommandResult) error {
		if p.Command == packet.AuctionCommandBid && p.Error == 0 {
			c.Buses.Auction.Publish(auction.NewAuctionBidPlaced(c.Player, p.Auction, p.Bid))
		}
		c.Buses.Auction.Publish(auction.NewAuctionCommandResult(c.Player, p.Auction, p.Error))
		return nil
	})
}
