// Package social is the chat and social-request event domain.
package social

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	ChatReceived Type = iota
	WhisperReceived
	EmoteReceived
	FriendStatus
	GuildInvite
	TradeRequested
	DuelRequested
	typeCount
)

var typeNames = []string{
	"ChatReceived",
	"WhisperReceived",
	"EmoteReceived",
	"FriendStatus",
	"GuildInvite",
	"TradeRequested",
	"DuelRequested",
}

var defaults = []event.Priority{
	ChatReceived:    event.PriorityLow,
	WhisperReceived: event.PriorityMedium,
	EmoteReceived:   event.PriorityLow,
	FriendStatus:    event.PriorityBatch,
	GuildInvite:     event.PriorityMedium,
	TradeRequested:  event.PriorityMedium,
	DuelRequested:   event.PriorityHigh,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("social.Type(%d)", uint8(t))
}

// Event is one social event. Source is the sender, Target the receiving agent.
type Event struct {
	event.Header
	Type     Type   `json:"type"`
	Channel  uint8  `json:"channel,omitempty"`
	Language uint32 `json:"language,omitempty"`
	Emote    uint32 `json:"emote,omitempty"`
	Status   uint8  `json:"status,omitempty"`
	Name     string `json:"name,omitempty"`
	Text     string `json:"text,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: social type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without sender", event.ErrInvalidEvent, e.Type)
	}
	switch e.Type {
	case WhisperReceived, TradeRequested, DuelRequested, GuildInvite:
		if e.Target.IsEmpty() {
			return fmt.Errorf("%w: %s without receiver", event.ErrInvalidEvent, e.Type)
		}
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "social",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewChatReceived(sender, receiver ident.EntityID, channel uint8, lang uint32, text string) Event {
	return Event{
		Header: event.Header{Source: sender, Target: receiver},
		Type:   ChatReceived, Channel: channel, Language: lang, Text: text,
	}
}

func NewWhisperReceived(sender, receiver ident.EntityID, text string) Event {
	return Event{Header: event.Header{Source: sender, Target: receiver}, Type: WhisperReceived, Text: text}
}

func NewEmoteReceived(sender, receiver ident.EntityID, emote uint32) Event {
	return Event{Header: event.Header{Source: sender, Target: receiver}, Type: EmoteReceived, Emote: emote}
}

func NewFriendStatus(friend, receiver ident.EntityID, status uint8, name string) Event {
	return Event{Header: event.Header{Source: friend, Target: receiver}, Type: FriendStatus, Status: status, Name: name}
}

func NewGuildInvite(inviter, receiver ident.EntityID, guild string) Event {
	return Event{Header: event.Header{Source: inviter, Target: receiver}, Type: GuildInvite, Name: guild}
}

func NewTradeRequested(requester, receiver ident.EntityID) Event {
	return Event{Header: event.Header{Source: requester, Target: receiver}, Type: TradeRequested}
}

func NewDuelRequested(challenger, receiver ident.EntityID) Event {
	return Event{Header: event.Header{Source: challenger, Target: receiver}, Type: DuelRequested}
}
