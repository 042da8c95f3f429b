package resource

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
	u := ident.NewEntityID()

	assert.NoError(t, NewHealthChanged(u, 40, 100).Validate())
	assert.NoError(t, NewPowerChanged(u, PowerRage, 30, 0).Validate(), "max unknown")
	assert.NoError(t, NewResourceSync(u, 150, 100).Validate(), "sync is not range checked")

	assert.ErrorIs(t, NewHealthChanged(u, 101, 100).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewPowerChanged(u, PowerMana, 9, 8).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewRuneStateChanged(ident.Empty, 0x3f).Validate(), event.ErrInvalidEvent)
}

func TestFraction(t *testing.T) {
	u := ident.NewEntityID()
	assert.InDelta(t, 0.4, NewHealthChanged(u, 40, 100).Fraction(), 1e-9)
	assert.Zero(t, NewHealthChanged(u, 40, 0).Fraction())

	cp := NewComboPointsChanged(u, ident.NewEntityID(), 3)
	assert.Equal(t, uint32(3), cp.Current)
	assert.InDelta(t, 0.6, cp.Fraction(), 1e-9)
}
