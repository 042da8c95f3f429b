package event

import (
	"errors"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// ErrInvalidEvent is wrapped by every domain Validate failure.
var ErrInvalidEvent = errors.New("invalid event")

// Header carries the fields every bus event shares. Domain events embed it
// and add their own payload fields.
type Header struct {
	Priority  Priority       `json:"priority"`
	Source    ident.EntityID `json:"source"`
	Target    ident.EntityID `json:"target"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Expired reports whether the event's TTL has elapsed at now.
func (h Header) Expired(now time.Time) bool {
	return !h.ExpiresAt.IsZero() && now.After(h.ExpiresAt)
}

// Event is the constraint every domain event satisfies. Events are values:
// WithHead returns a modified copy rather than mutating the receiver.
type Event[E any] interface {
	Head() Header
	WithHead(Header) E
	// TypeIndex is the event's discriminator as an index into the bus
	// descriptor's type table.
	TypeIndex() int
	Validate() error
}

// Subscriber is an agent-bound subscription target: a stable identity plus
// the callback the bus invokes.
type Subscriber[E any] interface {
	SubscriberID() ident.EntityID
	HandleEvent(E)
}

type boundSubscriber[E any] struct {
	id ident.EntityID
	fn func(E)
}

func (s boundSubscriber[E]) SubscriberID() ident.EntityID { return s.id }
func (s boundSubscriber[E]) HandleEvent(e E)              { s.fn(e) }

// Bind adapts an (identity, method) pair into a Subscriber. Agents use it to
// register one handler per bus without the handler signatures colliding.
func Bind[E any](id ident.EntityID, fn func(E)) Subscriber[E] {
	return boundSubscriber[E]{id: id, fn: fn}
}

// SubscriptionID identifies a callback-bound subscription.
type SubscriptionID = ident.Handle
