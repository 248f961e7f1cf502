package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextToActOrderAndClosure(t *testing.T) {
	t.Parallel()

	seats := []*Seat{
		{PlayerID: 1, Money: 100},
		{PlayerID: 2, Money: 100},
		nil,
		{PlayerID: 3, Money: 100},
	}
	order := actionOrder(seats, 1)
	assert.Equal(t, []int{1, 3, 0}, order)

	// Everyone unplayed: the small blind seat acts first.
	assert.Equal(t, 1, nextToAct(seats, order, 0, -1))

	seats[1].RoundPlayed = true
	assert.Equal(t, 3, nextToAct(seats, order, 0, -1))
	seats[3].RoundPlayed = true
	seats[0].RoundPlayed = true

	// All played and level: round closed.
	assert.Equal(t, -1, nextToAct(seats, order, 0, -1))

	// An under-bet seat must respond even after acting.
	seats[0].TotalBet = 10
	assert.Equal(t, 1, nextToAct(seats, order, 10, -1))
}

func TestNextToActSkipsFoldedAndAllIn(t *testing.T) {
	t.Parallel()

	seats := []*Seat{
		{PlayerID: 1, Money: 100, IsFold: true},
		{PlayerID: 2, Money: 0, IsAllIn: true},
		{PlayerID: 3, Money: 100},
	}
	order := actionOrder(seats, 0)

	assert.Equal(t, 2, nextToAct(seats, order, 0, -1))
	seats[2].RoundPlayed = true
	assert.Equal(t, -1, nextToAct(seats, order, 0, -1))

	// The all-in seat is short but can never be given the turn.
	seats[2].TotalBet = 50
	seats[1].TotalBet = 20
	assert.Equal(t, -1, nextToAct(seats, order, 50, -1))
}

func TestNextToActBigBlindOption(t *testing.T) {
	t.Parallel()

	seats := []*Seat{
		{PlayerID: 1, Money: 100, RoundPlayed: true, TotalBet: 10},
		{PlayerID: 2, Money: 100, RoundPlayed: true, TotalBet: 10},
		{PlayerID: 3, Money: 100, RoundPlayed: true, TotalBet: 10},
	}
	order := actionOrder(seats, 0)

	// Level board, all played, but the big blind still has the option.
	assert.Equal(t, 1, nextToAct(seats, order, 10, 1))
	assert.Equal(t, -1, nextToAct(seats, order, 10, -1))
}

func TestCountHelpers(t *testing.T) {
	t.Parallel()

	seats := []*Seat{
		{PlayerID: 1, Money: 100},
		{PlayerID: 2, Money: 0, IsAllIn: true},
		{PlayerID: 3, IsFold: true},
		nil,
	}
	assert.Equal(t, 2, countInHand(seats))
	assert.Equal(t, 1, countCanAct(seats))
	assert.True(t, someoneAllIn(seats))
}
