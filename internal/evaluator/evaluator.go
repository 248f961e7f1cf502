// Package evaluator adapts the chehsunliu/poker hand ranks into the value
// space the rest of the engine compares against: higher value always wins,
// and the category is recoverable as value>>12.
package evaluator

import (
	"sort"

	"github.com/chehsunliu/poker"

	"github.com/norkator/poker-pocket-backend/internal/deck"
)

// Category is a ranked hand class, high card lowest.
type Category int

const (
	Invalid Category = iota
	HighCard
	OnePair
	TwoPairs
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var categoryNames = [...]string{
	"invalid hand",
	"high card",
	"one pair",
	"two pairs",
	"three of a kind",
	"straight",
	"flush",
	"full house",
	"four of a kind",
	"straight flush",
}

// String returns the display name of the category.
func (c Category) String() string {
	if c < Invalid || c > StraightFlush {
		return "invalid hand"
	}
	return categoryNames[c]
}

// Result is a full evaluation of a hand. Value is strictly ordered across
// all hands: category<<12 plus the strength within the category, so any two
// results compare with a plain integer comparison.
type Result struct {
	Value    int
	Category Category
	Name     string
	Cards    []deck.Card
}

// The library ranks hands 1 (best) to 7462 (worst). These are the worst
// rank numbers inside each class, used to flip the ordering per category.
var classWorstRank = map[Category]int32{
	StraightFlush: 10,
	FourOfAKind:   166,
	FullHouse:     322,
	Flush:         1599,
	Straight:      1609,
	ThreeOfAKind:  2467,
	TwoPairs:      3325,
	OnePair:       6185,
	HighCard:      7462,
}

// Eval evaluates 3, 5, 6 or 7 cards. Other input lengths yield a zero-value
// result, mirroring how partial hands rank as nothing mid-street.
func Eval(cards []deck.Card) Result {
	switch len(cards) {
	case 5, 6, 7:
		return evalLibrary(cards)
	case 3:
		return evalThree(cards)
	default:
		return Result{Category: Invalid, Name: Invalid.String()}
	}
}

func evalLibrary(cards []deck.Card) Result {
	libCards := make([]poker.Card, len(cards))
	for i, c := range cards {
		libCards[i] = poker.NewCard(c.Code())
	}
	rank := poker.Evaluate(libCards)
	category := categoryFromClass(poker.RankClass(rank))
	strength := int(classWorstRank[category] - rank + 1)
	return Result{
		Value:    int(category)<<12 | strength,
		Category: category,
		Name:     category.String(),
		Cards:    cards,
	}
}

// categoryFromClass converts the library's rank class (1 = straight flush,
// 9 = high card) into our ascending Category.
func categoryFromClass(class int32) Category {
	if class < 1 || class > 9 {
		return Invalid
	}
	return Category(10 - class)
}

// evalThree classifies a three-card partial hand natively; the library
// only handles five cards and up.
func evalThree(cards []deck.Card) Result {
	ranks := []int{int(cards[0].Rank), int(cards[1].Rank), int(cards[2].Rank)}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	var category Category
	var strength int
	switch {
	case ranks[0] == ranks[1] && ranks[1] == ranks[2]:
		category = ThreeOfAKind
		strength = ranks[0]
	case ranks[0] == ranks[1]:
		category = OnePair
		strength = ranks[0]<<4 | ranks[2]
	case ranks[1] == ranks[2]:
		category = OnePair
		strength = ranks[1]<<4 | ranks[0]
	default:
		category = HighCard
		strength = ranks[0]<<8 | ranks[1]<<4 | ranks[2]
	}
	return Result{
		Value:    int(category)<<12 | strength,
		Category: category,
		Name:     category.String(),
		Cards:    cards,
	}
}
