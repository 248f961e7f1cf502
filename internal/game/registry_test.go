package game

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norkator/poker-pocket-backend/internal/randutil"
)

func registryRoom(t *testing.T, reg *Registry, tier string, minBet int) *Room {
	t.Helper()
	cfg := RoomConfig{
		ID:         reg.NextID(),
		Name:       tier + " table",
		Tier:       tier,
		MinBet:     minBet,
		MaxSeats:   6,
		MinPlayers: 2,
	}
	room := NewRoom(cfg, quartz.NewMock(t), randutil.New(1), NewEventBus(), nil, log.New(io.Discard))
	require.NoError(t, reg.Add(room))
	return room
}

func TestRegistryAddGetRemove(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	room := registryRoom(t, reg, "low", 10)

	assert.Equal(t, room, reg.Get(room.ID()))
	assert.Nil(t, reg.Get(999))
	assert.Error(t, reg.Add(room))

	reg.Remove(room.ID())
	assert.Nil(t, reg.Get(room.ID()))
	assert.Zero(t, reg.Len())
}

func TestRegistryIDsNeverReused(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	a := registryRoom(t, reg, "low", 10)
	reg.Remove(a.ID())
	b := registryRoom(t, reg, "low", 10)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRegistryListFiltersByTier(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	registryRoom(t, reg, "low", 10)
	registryRoom(t, reg, "high", 1000)
	registryRoom(t, reg, "low", 10)

	all := reg.List("")
	require.Len(t, all, 3)
	// Ordered by id.
	assert.Less(t, all[0].ID, all[1].ID)
	assert.Less(t, all[1].ID, all[2].ID)

	low := reg.List("low")
	require.Len(t, low, 2)
	for _, info := range low {
		assert.Equal(t, "low", info.Tier)
	}
}

func TestEventBusFanOut(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	var bots []int
	var xp []XPGained
	bus.OnNeedNewBot(func(ev NeedNewBot) { bots = append(bots, ev.RoomID) })
	bus.OnNeedNewBot(func(ev NeedNewBot) { bots = append(bots, ev.RoomID) })
	bus.OnXPGained(func(ev XPGained) { xp = append(xp, ev) })

	bus.PublishNeedNewBot(NeedNewBot{RoomID: 4})
	bus.PublishXPGained(XPGained{PlayerID: 1, Amount: 100})

	assert.Equal(t, []int{4, 4}, bots)
	require.Len(t, xp, 1)
	assert.Equal(t, 100, xp[0].Amount)
}
