package packet

import (
	"errors"
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// ErrMalformed is wrapped by every typed-packet Validate failure.
var ErrMalformed = errors.New("malformed packet")

// Category groups packets by the event domain they feed.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryGroup
	CategoryCombat
	CategoryCooldown
	CategoryLoot
	CategoryQuest
	CategoryAura
	CategoryResource
	CategorySocial
	CategoryAuction
	CategoryNPC
	CategoryInstance
	NumCategories
)

var categoryNames = [NumCategories]string{
	"Unknown", "Group", "Combat", "Cooldown", "Loot", "Quest",
	"Aura", "Resource", "Social", "Auction", "NPC", "Instance",
}

func (c Category) String() string {
	if c < NumCategories {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Packet is a still-typed server-to-client packet, intercepted before the
// host serializes it. The set of variants is closed: only this package can
// implement it.
type Packet interface {
	Opcode() uint16
	Category() Category
	// Validate reports whether the fields a translator relies on are usable.
	Validate() error
	sealed()
}

// typed is embedded by every variant to close the interface.
type typed struct{}

func (typed) sealed() {}

func need(op uint16, ids ...ident.EntityID) error {
	for i, id := range ids {
		if id.IsEmpty() {
			return fmt.Errorf("%w: %s field %d empty", ErrMalformed, OpcodeName(op), i)
		}
	}
	return nil
}

// Raw is a packet the host could only hand over serialized. It has no
// translator and is classified as Unknown.
type Raw struct {
	typed
	Op   uint16
	Data []byte
}

func (p *Raw) Opcode() uint16     { return p.Op }
func (p *Raw) Category() Category { return CategoryUnknown }
func (p *Raw) Validate() error    { return nil }
