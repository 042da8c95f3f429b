// Package ident holds the identifier types shared by every framework package:
// the host's 128-bit entity handle and the generational handles used for
// subscriber slots.
package ident

import (
	"bytes"

	"github.com/google/uuid"
)

// EntityID is the host's opaque 128-bit handle for any in-world object
// (player, creature, item instance, ground effect). The framework never
// dereferences it; objects are resolved through host lookups only.
type EntityID uuid.UUID

// Empty is the zero EntityID.
var Empty EntityID

// NewEntityID allocates a random id. Hosts normally hand out ids; this is
// used by the in-memory host and by tests.
func NewEntityID() EntityID {
	return EntityID(uuid.New())
}

// ParseEntityID parses the canonical textual form.
func ParseEntityID(s string) (EntityID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Empty, err
	}
	return EntityID(u), nil
}

// MustParseEntityID is ParseEntityID for fixtures; it panics on bad input.
func MustParseEntityID(s string) EntityID {
	return EntityID(uuid.MustParse(s))
}

func (id EntityID) IsEmpty() bool { return id == Empty }

// Less orders ids bytewise; used wherever iteration order must be stable.
func Less(a, b EntityID) bool { return bytes.Compare(a[:], b[:]) < 0 }

func (id EntityID) String() string { return uuid.UUID(id).String() }

// Short returns the first 8 hex digits, enough to tell ids apart in logs.
func (id EntityID) Short() string {
	s := id.String()
	return s[:8]
}

func (id EntityID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *EntityID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
