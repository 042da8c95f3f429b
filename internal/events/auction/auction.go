// Package auction is the auction-house event domain.
//
// Fields a packet does not carry keep fixed defaults: auction and item ids 0
// (unknown), Count 1 for item-bearing events, Bid and Buyout 0 when not
// applicable.
package auction

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	AuctionListResult Type = iota
	AuctionBidPlaced
	AuctionWon
	AuctionOutbid
	AuctionExpired
	AuctionSold
	AuctionCommandResult
	typeCount
)

var typeNames = []string{
	"AuctionListResult",
	"AuctionBidPlaced",
	"AuctionWon",
	"AuctionOutbid",
	"AuctionExpired",
	"AuctionSold",
	"AuctionCommandResult",
}

var defaults = []event.Priority{
	AuctionListResult:    event.PriorityBatch,
	AuctionBidPlaced:     event.PriorityMedium,
	AuctionWon:           event.PriorityHigh,
	AuctionOutbid:        event.PriorityHigh,
	AuctionExpired:       event.PriorityLow,
	AuctionSold:          event.PriorityMedium,
	AuctionCommandResult: event.PriorityLow,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("auction.Type(%d)", uint8(t))
}

// Event is one auction event. Source is the player the packet was sent to.
type Event struct {
	event.Header
	Type    Type     `json:"type"`
	Auction uint32   `json:"auction"`
	Item    uint32   `json:"item"`
	Count   uint32   `json:"count"`
	Bid     uint64   `json:"bid"`
	Buyout  uint64   `json:"buyout"`
	Result  uint8    `json:"result"`
	Party   string   `json:"party,omitempty"`
	Results []uint32 `json:"results,omitempty"`
}

// Player is the agent the event concerns.
func (e Event) Player() ident.EntityID { return e.Source }

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: auction type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without player", event.ErrInvalidEvent, e.Type)
	}
	switch e.Type {
	case AuctionBidPlaced, AuctionWon, AuctionOutbid, AuctionExpired, AuctionSold:
		if e.Auction == 0 {
			return fmt.Errorf("%w: %s without auction id", event.ErrInvalidEvent, e.Type)
		}
	}
	if e.Buyout > 0 && e.Bid > e.Buyout {
		return fmt.Errorf("%w: bid %d above buyout %d", event.ErrInvalidEvent, e.Bid, e.Buyout)
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "auction",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewAuctionListResult(player ident.EntityID, auctions []uint32) Event {
	e := Event{Header: event.Header{Source: player}, Type: AuctionListResult, Count: uint32(len(auctions))}
	if len(auctions) > 0 {
		e.Results = append([]uint32(nil), auctions...)
	}
	return e
}

func NewAuctionBidPlaced(player ident.EntityID, auction uint32, bid uint64) Event {
	return Event{Header: event.Header{Source: player}, Type: AuctionBidPlaced, Auction: auction, Bid: bid}
}

// NewAuctionWon is published when player's bid wins auction.
func NewAuctionWon(player ident.EntityID, auction, item uint32, bid uint64, party string) Event {
	return Event{
		Header: event.Header{Source: player},
		Type:   AuctionWon, Auction: auction, Item: item, Count: 1, Bid: bid, Party: party,
	}
}

func NewAuctionOutbid(player ident.EntityID, auction, item uint32, newBid uint64) Event {
	return Event{
		Header: event.Header{Source: player},
		Type:   AuctionOutbid, Auction: auction, Item: item, Count: 1, Bid: newBid,
	}
}

func NewAuctionExpired(player ident.EntityID, auction, item uint32, count uint32) Event {
	if count == 0 {
		count = 1
	}
	return Event{Header: event.Header{Source: player}, Type: AuctionExpired, Auction: auction, Item: item, Count: count}
}

func NewAuctionSold(player ident.EntityID, auction, item uint32, bid, buyout uint64) Event {
	return Event{
		Header: event.Header{Source: player},
		Type:   AuctionSold, Auction: auction, Item: item, Count: 1, Bid: bid, Buyout: buyout,
	}
}

func NewAuctionCommandResult(player ident.EntityID, auction uint32, result uint8) Event {
	return Event{Header: event.Header{Source: player}, Type: AuctionCommandResult, Auction: auction, Result: result}
}
