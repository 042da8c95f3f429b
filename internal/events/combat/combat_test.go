package combat

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
	assert.Equal(t, event.PriorityCritical, defaults[AggroGained])
}

func TestValidate(t *testing.T) {
	a, v := ident.NewEntityID(), ident.NewEntityID()
	assert.NoError(t, NewDamageTaken(v, a, 0, 120, 0).Validate())
	assert.ErrorIs(t, NewDamageTaken(ident.Empty, a, 0, 120, 0).Validate(), event.ErrInvalidEvent)
	assert.ErrorIs(t, NewHealed(a, v, 0, -5, false).Validate(), event.ErrInvalidEvent)
	assert.NoError(t, NewCombatEnded(a).Validate())

	died := NewUnitDied(ident.Empty, v)
	assert.Equal(t, v, died.Source, "killer falls back to victim")
	assert.NoError(t, died.Validate())
}

func TestForGroupKeysBatchDrain(t *testing.T) {
	g := ident.NewEntityID()
	e := NewThreatUpdate(ident.NewEntityID(), ident.NewEntityID(), 300).ForGroup(g)
	assert.Equal(t, g, Descriptor.GroupKey(e))
}
