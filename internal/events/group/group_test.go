package group

import (
	"errors"
	"testing"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTablesCoverEveryType(t *testing.T) {
	require.Len(t, typeNames, int(typeCount))
	require.Len(t, defaults, int(typeCount))
	for i, p := range defaults {
		assert.True(t, p.Valid(), "type %s has no default priority", Type(i))
	}
}

func TestDefaultPriorities(t *testing.T) {
	assert.Equal(t, event.PriorityCritical, DefaultPriority(GroupDisbanded))
	assert.Equal(t, event.PriorityHigh, DefaultPriority(MemberJoined))
	assert.Equal(t, event.PriorityLow, DefaultPriority(LootThresholdChanged))
	assert.Equal(t, event.PriorityLow, DefaultPriority(ReadyCheckResponse))
	assert.Equal(t, event.PriorityBatch, DefaultPriority(StateSync))
}

func TestValidate(t *testing.T) {
	g, m := ident.NewEntityID(), ident.NewEntityID()

	assert.NoError(t, NewMemberJoined(g, m, ident.Empty).Validate())
	assert.NoError(t, NewGroupDisbanded(g, ident.Empty).Validate(), "source falls back to group")

	err := NewMemberJoined(ident.Empty, m, m).Validate()
	assert.True(t, errors.Is(err, event.ErrInvalidEvent))

	err = NewReadyCheckResponse(g, ident.Empty, true).Validate()
	assert.ErrorIs(t, err, event.ErrInvalidEvent)

	err = NewTargetIconChanged(g, m, 8, m).Validate()
	assert.ErrorIs(t, err, event.ErrInvalidEvent)
}

func TestFactoriesCopyLists(t *testing.T) {
	g := ident.NewEntityID()
	members := []ident.EntityID{ident.NewEntityID(), ident.NewEntityID()}
	e := NewStateSync(g, members[0], members)
	members[1] = ident.Empty
	assert.False(t, e.Members[1].IsEmpty())
	assert.Equal(t, 2, e.Count)
}

func TestBusDrainsStateSyncPerGroup(t *testing.T) {
	bus := NewBus(event.Options{Log: zaptest.NewLogger(t)})
	g1, g2 := ident.NewEntityID(), ident.NewEntityID()

	var got []ident.EntityID
	bus.SubscribeCallback(func(e Event) { got = append(got, e.Group) }, StateSync)

	bus.Publish(NewStateSync(g1, ident.Empty, nil))
	bus.Publish(NewStateSync(g2, ident.Empty, nil))
	require.Empty(t, got)

	assert.Equal(t, 1, bus.ProcessGroupEvents(g2, 100*time.Millisecond))
	assert.Equal(t, []ident.EntityID{g2}, got)
	assert.Equal(t, 1, bus.Pending())
}
