package deck

import rand "math/rand/v2"

// Size is the number of cards in a stock deck.
const Size = 52

// Deck represents an ordered 52-card deck. A cursor marks the next undealt
// card; Draw and Burn both advance it, so no card can be handed out twice
// between shuffles.
type Deck struct {
	cards  [Size]Card
	cursor int
	burned int
}

// New creates a deck in stock order. Shuffle before dealing.
func New() *Deck {
	d := &Deck{}
	i := 0
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards[i] = NewCard(suit, rank)
			i++
		}
	}
	return d
}

// Shuffle randomizes the deck order and resets the cursor. Every hand gets
// a fresh shuffle.
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	d.cursor = 0
	d.burned = 0
}

// Draw returns the next undealt card and advances the cursor.
func (d *Deck) Draw() Card {
	card := d.cards[d.cursor]
	d.cursor++
	return card
}

// Burn discards the next card face down.
func (d *Deck) Burn() {
	d.cursor++
	d.burned++
}

// Dealt returns how many cards the cursor has passed, burns included.
func (d *Deck) Dealt() int {
	return d.cursor
}

// Burned returns how many cards have been burned since the last shuffle.
func (d *Deck) Burned() int {
	return d.burned
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return Size - d.cursor
}
