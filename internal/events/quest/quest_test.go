package quest

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
	for i, p := range defaults {
		assert.True(t, p.Valid(), "type %s has no default priority", Type(i))
	}
}

func TestValidate(t *testing.T) {
	p, giver := ident.NewEntityID(), ident.NewEntityID()

	assert.NoError(t, NewQuestGiverStatus(p, giver, 2).Validate(), "status needs no quest id")
	assert.NoError(t, NewQuestProgress(p, 166, 0, 3, 8).Validate())
	assert.NoError(t, NewQuestProgress(p, 166, 0, 3, 0).Validate(), "unknown requirement")

	assert.ErrorIs(t, NewQuestProgress(p, 166, 0, 9, 8).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewQuestAccepted(p, 0).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewQuestFailed(ident.Empty, 166).Validate(), event.ErrInvalidEvent)
}

func TestRewardListIsCopied(t *testing.T) {
	p, giver := ident.NewEntityID(), ident.NewEntityID()
	rewards := []uint32{2074, 2089}
	e := NewQuestRewardOffered(p, giver, 166, rewards)
	rewards[1] = 0
	assert.Equal(t, []uint32{2074, 2089}, e.Rewards)
	assert.Nil(t, NewQuestRewardOffered(p, giver, 166, nil).Rewards)
}
