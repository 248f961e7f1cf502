// Package bot implements the house bot decision policy. Decisions are pure
// functions of a table snapshot plus a random source, so the engine can
// drive bots deterministically under test.
package bot

import (
	"math/rand/v2"

	"github.com/norkator/poker-pocket-backend/internal/deck"
	"github.com/norkator/poker-pocket-backend/internal/evaluator"
	"github.com/norkator/poker-pocket-backend/internal/randutil"
)

// Action is what the bot chose to do with its turn.
type Action int

const (
	ActionFold Action = iota
	ActionCheck
	ActionRaise
	// ActionReplace means the bot is too short on funds to keep playing
	// and wants to leave the table so a fresh bot can be seated.
	ActionReplace
)

func (a Action) String() string {
	switch a {
	case ActionFold:
		return "FOLD"
	case ActionCheck:
		return "CHECK"
	case ActionRaise:
		return "RAISE"
	case ActionReplace:
		return "REPLACE"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is everything the bot may see about the table: its own cards,
// the board and the betting situation. Opponent hole cards are never
// included.
type Snapshot struct {
	HoleCards   []deck.Card
	MiddleCards []deck.Card

	Money      int
	MinBet     int
	MyTotalBet int
	HighestBet int

	// IsCallSituation is true when checking would not be free.
	IsCallSituation bool

	// RaiseAmounts are the tier's bet sizing chips, smallest first.
	RaiseAmounts []int

	// MinMoney is the funds floor below which the bot asks to be replaced.
	MinMoney int
}

// Decision is the outcome of one bot turn.
type Decision struct {
	Action Action
	Amount int
}

// Decide picks the bot's action for the current turn.
func Decide(snap Snapshot, rng *rand.Rand) Decision {
	if snap.Money < snap.MinMoney {
		return Decision{Action: ActionReplace}
	}
	// A bet the stack cannot cover is never called into.
	if snap.IsCallSituation && snap.owed() > snap.Money {
		return Decision{Action: ActionFold}
	}
	switch len(snap.MiddleCards) {
	case 0:
		return decidePreFlop(snap, rng)
	case 3:
		return decideFlop(snap, rng)
	case 4:
		return decideTurn(snap, rng)
	default:
		return decideRiver(snap, rng)
	}
}

func (s Snapshot) owed() int {
	owed := s.HighestBet - s.MyTotalBet
	if owed < 0 {
		return 0
	}
	return owed
}

func decidePreFlop(snap Snapshot, rng *rand.Rand) Decision {
	if len(snap.HoleCards) != 2 {
		return Decision{Action: ActionCheck}
	}
	a, b := snap.HoleCards[0], snap.HoleCards[1]

	if a.Rank == b.Rank {
		if !snap.IsCallSituation {
			return raise(snap, rng)
		}
		return Decision{Action: ActionCheck}
	}

	if hasWeakHoleCards(a, b) {
		if snap.IsCallSituation {
			return Decision{Action: ActionFold}
		}
		return Decision{Action: ActionCheck}
	}

	// Occasionally let go of an unpaired hand under pressure.
	if snap.IsCallSituation && rng.IntN(5) == 0 {
		return Decision{Action: ActionFold}
	}
	return Decision{Action: ActionCheck}
}

// hasWeakHoleCards applies the Q7 rule: an unpaired hand weaker than
// queen-seven is not worth playing.
func hasWeakHoleCards(a, b deck.Card) bool {
	hi, lo := a.Rank, b.Rank
	if lo > hi {
		hi, lo = lo, hi
	}
	if hi > deck.Queen {
		return false
	}
	return int(hi)+int(lo) < int(deck.Queen)+int(deck.Seven)
}

// decideFlop plays five known cards: fold cheap junk into a bet, raise a
// made strong hand or a strong draw when checking is free.
func decideFlop(snap Snapshot, rng *rand.Rand) Decision {
	value := handValue(snap)
	switch {
	case value < 4300 && snap.IsCallSituation:
		return Decision{Action: ActionFold}
	case (value > 10000 || goodOdds(snap, rng)) && !snap.IsCallSituation:
		return raise(snap, rng)
	case value < 7000 && snap.IsCallSituation:
		return Decision{Action: ActionFold}
	default:
		return Decision{Action: ActionCheck}
	}
}

func decideTurn(snap Snapshot, rng *rand.Rand) Decision {
	value := handValue(snap)
	switch {
	case value < 4500 && snap.IsCallSituation:
		return Decision{Action: ActionFold}
	case (value > 15000 || goodOdds(snap, rng)) && !snap.IsCallSituation:
		return raise(snap, rng)
	case value < 9000 && snap.IsCallSituation:
		return Decision{Action: ActionFold}
	default:
		return Decision{Action: ActionCheck}
	}
}

func decideRiver(snap Snapshot, rng *rand.Rand) Decision {
	value := handValue(snap)
	switch {
	case value > 20000 && !snap.IsCallSituation:
		return raise(snap, rng)
	case value < 9000 && snap.IsCallSituation:
		return Decision{Action: ActionFold}
	default:
		return Decision{Action: ActionCheck}
	}
}

func handValue(snap Snapshot) int {
	res := evaluator.Eval(append(append([]deck.Card{}, snap.HoleCards...), snap.MiddleCards...))
	return res.Value
}

// goodOdds reports whether the hand is still likely to improve into a
// strong made hand, justifying a bet without one yet.
func goodOdds(snap Snapshot, rng *rand.Rand) bool {
	eq := evaluator.Equity{}
	return eq.Favorable(snap.HoleCards, snap.MiddleCards, rng)
}

// raise sizes a bet from the current commitment plus a random chip from
// the tier's set, rounded up to tens and capped at the bot's stack.
func raise(snap Snapshot, rng *rand.Rand) Decision {
	base := snap.MyTotalBet + snap.owed()
	v := ((base + base/3 + 1 + 9) / 10) * 10

	if len(snap.RaiseAmounts) > 0 {
		v += randutil.Pick(rng, snap.RaiseAmounts)
	} else {
		v += snap.MinBet
	}

	if v > snap.Money {
		v = snap.Money
	}
	if v <= 0 {
		return Decision{Action: ActionCheck}
	}
	return Decision{Action: ActionRaise, Amount: v}
}
