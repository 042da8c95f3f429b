package cooldown

import (
	"testing"
	"time"

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
	assert.Equal(t, event.PriorityHigh, defaults[GlobalCooldown])
}

func TestValidate(t *testing.T) {
	u := ident.NewEntityID()

	assert.NoError(t, NewSpellCooldownStarted(u, 133, 8*time.Second).Validate())
	assert.NoError(t, NewCategoryCooldown(u, 0, time.Second).Validate(), "category id is optional")
	assert.NoError(t, NewGlobalCooldown(u, 0, 1500*time.Millisecond).Validate())

	assert.ErrorIs(t, NewSpellCooldownCleared(u, 0).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewItemCooldown(u, 0, time.Minute).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewSpellCooldownStarted(u, 133, -time.Second).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewGlobalCooldown(ident.Empty, 133, time.Second).Validate(), event.ErrInvalidEvent)
}
