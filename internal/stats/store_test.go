package stats

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAccountAndLogin(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	u, err := s.CreateAccount("alice", "hunter2", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, 10000, u.Money)

	got, err := s.Login("alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = s.Login("nobody", "hunter2")
	assert.ErrorIs(t, err, ErrBadCredentials)

	// Names are unique.
	_, err = s.CreateAccount("alice", "other", "")
	assert.Error(t, err)
}

func TestHandOutcomeCounters(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	u, err := s.CreateAccount("bob", "pw", "")
	require.NoError(t, err)

	s.HandWon(u.ID, 10500)
	s.HandWon(u.ID, 11000)
	s.HandLost(u.ID, 10800)

	got, err := s.UserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10800, got.Money)
	assert.Equal(t, 2, got.WinCount)
	assert.Equal(t, 1, got.LoseCount)

	// A settled hand without a counted outcome still syncs the bankroll.
	s.HandPlayed(u.ID, 10795)
	got, err = s.UserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10795, got.Money)
	assert.Equal(t, 2, got.WinCount)
	assert.Equal(t, 1, got.LoseCount)
}

func TestXPAndRankings(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	a, err := s.CreateAccount("carol", "pw", "")
	require.NoError(t, err)
	b, err := s.CreateAccount("dave", "pw", "")
	require.NoError(t, err)

	require.NoError(t, s.AddXP(a.ID, 100))
	require.NoError(t, s.AddXP(b.ID, 300))

	top, err := s.Rankings(10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "dave", top[0].Name)
	assert.Equal(t, 300, top[0].XP)
	assert.Equal(t, "carol", top[1].Name)
}

func TestSnapshotHistory(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	u, err := s.CreateAccount("erin", "pw", "")
	require.NoError(t, err)

	// Every settled hand writes one history row.
	s.HandWon(u.ID, 12000)
	s.HandPlayed(u.ID, 11500)
	s.HandLost(u.ID, 11000)

	history, err := s.History(u.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 12000, history[0].Money)
	assert.Equal(t, 1, history[0].WinCount)
	assert.Equal(t, 11500, history[1].Money)
	assert.Equal(t, 11000, history[2].Money)
	assert.Equal(t, 1, history[2].LoseCount)
}

func TestRewardAdShown(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	u, err := s.CreateAccount("frank", "pw", "")
	require.NoError(t, err)

	granted, err := s.RewardAdShown(u.ID)
	require.NoError(t, err)
	assert.Equal(t, RewardAdAmount, granted)

	got, err := s.UserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10000+RewardAdAmount, got.Money)
}

func TestUserByIDNotFound(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.UserByID(42)
	assert.ErrorIs(t, err, ErrNotFound)
}
