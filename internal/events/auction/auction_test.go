package auction

import (
	"testing"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablesCoverEveryType(t *testing.T) {
	require.Len(t, typeNames, int(typeCount))
	require.Len(t, defaults, int(typeCount))
}

func TestFactoryDefaults(t *testing.T) {
	a := ident.NewEntityID()

	won := NewAuctionWon(a, 42, 6948, 0, "")
	assert.Equal(t, a, won.Player())
	assert.Equal(t, uint32(1), won.Count)
	assert.Zero(t, won.Buyout)
	assert.NoError(t, won.Validate())

	exp := NewAuctionExpired(a, 7, 0, 0)
	assert.Equal(t, uint32(1), exp.Count)
	assert.Zero(t, exp.Item, "unknown item stays 0")

	list := NewAuctionListResult(a, []uint32{1, 2, 3})
	assert.Equal(t, uint32(3), list.Count)
	assert.Equal(t, event.PriorityBatch, defaults[list.Type])
}

func TestValidateRejects(t *testing.T) {
	a := ident.NewEntityID()
	assert.ErrorIs(t, NewAuctionWon(ident.Empty, 1, 1, 0, "").Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewAuctionBidPlaced(a, 0, 10).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewAuctionSold(a, 1, 1, 50, 20).Validate(), event.ErrInvalidEvent)
	assert.NoError(t, NewAuctionCommandResult(a, 0, 3).Validate())
}
