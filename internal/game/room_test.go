package game

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norkator/poker-pocket-backend/internal/randutil"
)

type fakeConn struct {
	mu   sync.Mutex
	msgs []Envelope
}

func (c *fakeConn) Send(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}
	c.mu.Lock()
	c.msgs = append(c.msgs, env)
	c.mu.Unlock()
}

func (c *fakeConn) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.msgs {
		if m.Key == key {
			return true
		}
	}
	return false
}

func newTestRoom(t *testing.T, mClock *quartz.Mock) *Room {
	t.Helper()
	cfg := RoomConfig{
		ID:              1,
		Name:            "test table",
		Tier:            "low",
		MinBet:          10,
		MaxSeats:        6,
		MinPlayers:      2,
		TurnTimeout:     20 * time.Second,
		AfterRoundDelay: 10 * time.Second,
		StartGameDelay:  3 * time.Second,
		BotTurnMin:      time.Second,
		BotTurnMax:      3 * time.Second,
		BotRaiseAmounts: []int{25, 35, 100, 500},
		BotMinMoney:     50,
	}
	logger := log.New(io.Discard)
	return NewRoom(cfg, mClock, randutil.New(7), NewEventBus(), nil, logger)
}

func advance(t *testing.T, mClock *quartz.Mock, d time.Duration) {
	t.Helper()
	mClock.Advance(d).MustWait(context.Background())
}

// dealHand seats two humans and walks the clock to the pre-flop betting
// round. Seat 1 is dealer and small blind heads-up.
func dealHand(t *testing.T, mClock *quartz.Mock, room *Room, c1, c2 *fakeConn, money int) (*Seat, *Seat) {
	t.Helper()
	s1 := NewSeat(1, "key1", "alice", money, c1)
	s2 := NewSeat(2, "key2", "bob", money, c2)
	require.NoError(t, room.Join(s1))
	require.NoError(t, room.Join(s2))

	advance(t, mClock, room.cfg.StartGameDelay)
	advance(t, mClock, holeCardsDelay)

	room.mu.Lock()
	defer room.mu.Unlock()
	require.Equal(t, StagePreFlop, room.stage)
	require.True(t, s1.IsTurn)
	return s1, s2
}

func TestHeadsUpHandToShowdown(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	c1, c2 := &fakeConn{}, &fakeConn{}
	s1, s2 := dealHand(t, mClock, room, c1, c2, 1000)

	room.PlayerCheck(1, "key1") // small blind
	room.PlayerCheck(2, "key2") // big blind
	room.PlayerCheck(1, "key1") // completes to the big blind
	room.PlayerCheck(2, "key2") // option check closes the round

	room.mu.Lock()
	assert.Equal(t, 20, room.ledger.Pot())
	room.mu.Unlock()

	advance(t, mClock, potCollectDelay)
	advance(t, mClock, flopDelay)
	room.PlayerCheck(1, "key1")
	room.PlayerCheck(2, "key2")

	advance(t, mClock, potCollectDelay)
	advance(t, mClock, turnDelay)
	room.PlayerCheck(1, "key1")
	room.PlayerCheck(2, "key2")

	advance(t, mClock, potCollectDelay)
	advance(t, mClock, riverDelay)
	room.PlayerCheck(1, "key1")
	room.PlayerCheck(2, "key2")

	advance(t, mClock, potCollectDelay)
	room.mu.Lock()
	assert.Equal(t, StageAllCardsReveal, room.stage)
	assert.Len(t, room.middle, 5)
	room.mu.Unlock()

	advance(t, mClock, revealDelay)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, StageResults, room.stage)
	assert.Equal(t, 2000, s1.Money+s2.Money)
	assert.GreaterOrEqual(t, s1.WinCount+s2.WinCount, 1)
	assert.True(t, c1.has(KeyAllPlayersCards))
	assert.True(t, c2.has(KeyHoleCards))
	assert.True(t, c1.has(KeyTheFlop))
	assert.True(t, c1.has(KeyTheRiver))
}

func TestHoleCardsDealtAfterBurn(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	dealHand(t, mClock, room, &fakeConn{}, &fakeConn{}, 1000)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, 1, room.deck.Burned())
	assert.Equal(t, 4, room.deck.Dealt())
}

func TestTurnTimeCountsDown(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	dealHand(t, mClock, room, &fakeConn{}, &fakeConn{}, 1000)

	advance(t, mClock, 5*time.Second)

	room.mu.Lock()
	defer room.mu.Unlock()
	for _, info := range room.playersDataLocked() {
		if info.IsPlayerTurn {
			assert.Equal(t, 15, info.TimeLeft)
			return
		}
	}
	t.Fatal("no seat holds the turn")
}

func TestSingleSurvivorTakesPot(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	s1, s2 := dealHand(t, mClock, room, &fakeConn{}, &fakeConn{}, 1000)

	// Folding first still posts the pending small blind.
	room.PlayerFold(1, "key1")

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, StageResults, room.stage)
	assert.Equal(t, 995, s1.Money)
	assert.Equal(t, 1005, s2.Money)
	assert.Equal(t, 1, s2.WinCount)
	assert.Zero(t, s1.WinCount)
}

func TestTurnTimeoutAutoFolds(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	s1, s2 := dealHand(t, mClock, room, &fakeConn{}, &fakeConn{}, 1000)

	advance(t, mClock, room.cfg.TurnTimeout)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.True(t, s1.IsFold)
	assert.Equal(t, StageResults, room.stage)
	assert.Equal(t, 1005, s2.Money)
}

func TestIntentsWithoutTurnAreIgnored(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	s1, s2 := dealHand(t, mClock, room, &fakeConn{}, &fakeConn{}, 1000)

	// Not bob's turn.
	room.PlayerRaise(2, "key2", 100)
	// Right player, wrong socket key.
	room.PlayerCheck(1, "stolen")

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.True(t, s1.IsTurn)
	assert.Zero(t, s2.TotalBet)
	assert.Zero(t, room.ledger.Pot())
}

func TestAllInClampAndSkippedBetting(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	s1, s2 := dealHand(t, mClock, room, &fakeConn{}, &fakeConn{}, 1000)
	room.mu.Lock()
	s2.Money = 30
	room.mu.Unlock()

	room.PlayerCheck(1, "key1")       // small blind
	room.PlayerCheck(2, "key2")       // big blind, 20 behind
	room.PlayerRaise(1, "key1", 500)  // covers bob many times over
	room.PlayerCheck(2, "key2")       // call clamps to remaining stack

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.True(t, s2.IsAllIn)
	assert.Zero(t, s2.Money)
	assert.Equal(t, 30, s2.TotalBet)
	assert.Equal(t, 505, s1.TotalBet)
	assert.Equal(t, 535, room.ledger.Pot())
}

func TestJoinDuringHandIsParked(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	dealHand(t, mClock, room, &fakeConn{}, &fakeConn{}, 1000)

	c3 := &fakeConn{}
	require.NoError(t, room.Join(NewSeat(3, "key3", "carol", 1000, c3)))

	assert.True(t, c3.has(KeyClientMessage))
	info := room.Info()
	assert.Equal(t, 3, info.PlayerCount)

	room.mu.Lock()
	assert.Len(t, room.order, 2)
	room.mu.Unlock()
}

func TestRoomRejectsWhenFull(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	for i := 1; i <= room.cfg.MaxSeats; i++ {
		require.NoError(t, room.Join(NewBotSeat(i, "bot", 1000)))
	}
	assert.Error(t, room.Join(NewBotSeat(99, "late", 1000)))
}

func TestBotsPlayFullHand(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	for i := 1; i <= 4; i++ {
		require.NoError(t, room.Join(NewBotSeat(i, "bot", 10000)))
	}

	ctx := context.Background()
	done := func() bool {
		room.mu.Lock()
		defer room.mu.Unlock()
		return room.handsPlayed >= 1 && room.stage == StageResults
	}
	for i := 0; i < 500 && !done(); i++ {
		d, ok := mClock.Peek()
		require.True(t, ok, "no pending timers before hand finished")
		_ = d
		_, w := mClock.AdvanceNext()
		w.MustWait(ctx)
	}
	require.True(t, done(), "hand did not reach results")

	room.mu.Lock()
	defer room.mu.Unlock()
	total := 0
	wins := 0
	for _, s := range room.seats {
		if s != nil {
			total += s.Money
			wins += s.WinCount
		}
	}
	// A split pot truncates the odd chips, so allow a tiny shortfall.
	assert.LessOrEqual(t, total, 40000)
	assert.Greater(t, total, 39990)
	assert.GreaterOrEqual(t, wins, 1)
}

type fakeRecorder struct {
	mu     sync.Mutex
	won    []int64
	lost   []int64
	played []int64
}

func (r *fakeRecorder) HandWon(id int64, money int) {
	r.mu.Lock()
	r.won = append(r.won, id)
	r.mu.Unlock()
}

func (r *fakeRecorder) HandLost(id int64, money int) {
	r.mu.Lock()
	r.lost = append(r.lost, id)
	r.mu.Unlock()
}

func (r *fakeRecorder) HandPlayed(id int64, money int) {
	r.mu.Lock()
	r.played = append(r.played, id)
	r.mu.Unlock()
}

func (r *fakeRecorder) counts() (won, lost, played int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.won), len(r.lost), len(r.played)
}

func TestEverySeatPersistedAfterHand(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	rec := &fakeRecorder{}
	room.recorder = rec

	c1, c2 := &fakeConn{}, &fakeConn{}
	s1 := NewSeat(1, "key1", "alice", 1000, c1)
	s1.DatabaseID = 11
	s2 := NewSeat(2, "key2", "bob", 1000, c2)
	s2.DatabaseID = 22
	require.NoError(t, room.Join(s1))
	require.NoError(t, room.Join(s2))
	advance(t, mClock, room.cfg.StartGameDelay)
	advance(t, mClock, holeCardsDelay)

	// A fold on the small blind leaves a pot too small to count as a
	// loss, but the folder's bankroll still gets written.
	room.PlayerFold(1, "key1")

	require.Eventually(t, func() bool {
		won, lost, played := rec.counts()
		return won == 1 && lost == 0 && played == 1
	}, time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []int64{22}, rec.won)
	assert.Equal(t, []int64{11}, rec.played)
}

func TestFoldedBlindLosesNothingButBigPotsCount(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)
	rec := &fakeRecorder{}
	room.recorder = rec

	s1 := NewSeat(1, "key1", "alice", 1000, &fakeConn{})
	s1.DatabaseID = 11
	s2 := NewSeat(2, "key2", "bob", 1000, &fakeConn{})
	s2.DatabaseID = 22
	require.NoError(t, room.Join(s1))
	require.NoError(t, room.Join(s2))
	advance(t, mClock, room.cfg.StartGameDelay)
	advance(t, mClock, holeCardsDelay)

	room.PlayerCheck(1, "key1") // small blind
	room.PlayerCheck(2, "key2") // big blind
	room.PlayerRaise(1, "key1", 100)
	room.PlayerFold(2, "key2")

	room.mu.Lock()
	loseCount := s2.LoseCount
	room.mu.Unlock()
	assert.Equal(t, 1, loseCount)

	require.Eventually(t, func() bool {
		won, lost, played := rec.counts()
		return won == 1 && lost == 1 && played == 0
	}, time.Second, 10*time.Millisecond)
}

func TestBrokeBotReplacedBetweenHands(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)

	var mu sync.Mutex
	requests := 0
	room.bus.OnNeedNewBot(func(NeedNewBot) {
		mu.Lock()
		requests++
		mu.Unlock()
	})

	require.NoError(t, room.Join(NewBotSeat(1, "rich", 10000)))
	broke := NewBotSeat(2, "broke", 5)
	require.NoError(t, room.Join(broke))
	require.NoError(t, room.Join(NewBotSeat(3, "solid", 10000)))

	advance(t, mClock, room.cfg.StartGameDelay)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, requests)
	room.mu.Lock()
	assert.Nil(t, room.seatByPlayerIDLocked(2))
	room.mu.Unlock()
}

func TestSeatHoldingExactlyStakeIsEvicted(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	room := newTestRoom(t, mClock)

	require.NoError(t, room.Join(NewBotSeat(1, "rich", 10000)))
	edge := NewBotSeat(2, "edge", room.cfg.MinBet)
	require.NoError(t, room.Join(edge))
	require.NoError(t, room.Join(NewBotSeat(3, "solid", 10000)))

	advance(t, mClock, room.cfg.StartGameDelay)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Nil(t, room.seatByPlayerIDLocked(2))
	assert.Len(t, room.order, 2)
}
