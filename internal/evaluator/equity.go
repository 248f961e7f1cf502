package evaluator

import (
	rand "math/rand/v2"

	"github.com/norkator/poker-pocket-backend/internal/deck"
)

// DefaultEquityIterations is how many board completions the estimator
// samples when the caller does not say otherwise.
const DefaultEquityIterations = 2000

// Equity estimates how often a hand finishes in each category by Monte
// Carlo completion of the board from the cards still unseen. The same rng
// state always produces the same estimate.
type Equity struct {
	Iterations int
}

// Chances holds per-category finish percentages, indexed by Category.
type Chances [StraightFlush + 1]float64

// Estimate runs the simulation for the given hole and board cards. Board
// may hold 3 or 4 cards; with 5 the evaluation is exact.
func (e Equity) Estimate(hole, board []deck.Card, rng *rand.Rand) Chances {
	var chances Chances
	iterations := e.Iterations
	if iterations <= 0 {
		iterations = DefaultEquityIterations
	}

	missing := 5 - len(board)
	if missing <= 0 {
		result := Eval(append(append([]deck.Card{}, hole...), board...))
		chances[result.Category] = 100
		return chances
	}

	remaining := unseenCards(hole, board)
	cards := make([]deck.Card, 0, 7)
	for i := 0; i < iterations; i++ {
		// Partial Fisher-Yates: only the first `missing` positions matter.
		for j := 0; j < missing; j++ {
			k := j + rng.IntN(len(remaining)-j)
			remaining[j], remaining[k] = remaining[k], remaining[j]
		}
		cards = cards[:0]
		cards = append(cards, hole...)
		cards = append(cards, board...)
		cards = append(cards, remaining[:missing]...)
		chances[Eval(cards).Category]++
	}
	for c := range chances {
		chances[c] = chances[c] / float64(iterations) * 100
	}
	return chances
}

// Favorable reports whether the hand is likely enough to finish strong:
// straight, flush or full house above 10%, or four of a kind or straight
// flush above 8%.
func (e Equity) Favorable(hole, board []deck.Card, rng *rand.Rand) bool {
	if len(board) < 3 {
		return false
	}
	chances := e.Estimate(hole, board, rng)
	return chances[Straight] > 10 ||
		chances[Flush] > 10 ||
		chances[FullHouse] > 10 ||
		chances[FourOfAKind] > 8 ||
		chances[StraightFlush] > 8
}

func unseenCards(hole, board []deck.Card) []deck.Card {
	seen := make(map[deck.Card]bool, len(hole)+len(board))
	for _, c := range hole {
		seen[c] = true
	}
	for _, c := range board {
		seen[c] = true
	}
	remaining := make([]deck.Card, 0, deck.Size)
	for suit := deck.Spades; suit <= deck.Clubs; suit++ {
		for rank := deck.Two; rank <= deck.Ace; rank++ {
			card := deck.NewCard(suit, rank)
			if !seen[card] {
				remaining = append(remaining, card)
			}
		}
	}
	return remaining
}
