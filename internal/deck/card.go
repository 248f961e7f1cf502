package deck

import "fmt"

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Two:
		return "2"
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the display representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Code returns the two-character wire code of a card (e.g., "As").
// Rank character followed by a lowercase suit letter.
func (c Card) Code() string {
	var suit byte
	switch c.Suit {
	case Spades:
		suit = 's'
	case Hearts:
		suit = 'h'
	case Diamonds:
		suit = 'd'
	case Clubs:
		suit = 'c'
	}
	return c.Rank.String() + string(suit)
}

// MarshalText implements encoding.TextMarshaler so cards serialize as
// their wire code inside JSON payloads.
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.Code()), nil
}

// UnmarshalText parses a wire code back into a card.
func (c *Card) UnmarshalText(text []byte) error {
	if len(text) != 2 {
		return fmt.Errorf("deck: invalid card code %q", text)
	}
	rank, ok := rankFromByte(text[0])
	if !ok {
		return fmt.Errorf("deck: invalid card rank %q", text)
	}
	suit, ok := suitFromByte(text[1])
	if !ok {
		return fmt.Errorf("deck: invalid card suit %q", text)
	}
	c.Rank = rank
	c.Suit = suit
	return nil
}

func rankFromByte(b byte) (Rank, bool) {
	switch b {
	case '2', '3', '4', '5', '6', '7', '8', '9':
		return Rank(b-'2') + Two, true
	case 'T':
		return Ten, true
	case 'J':
		return Jack, true
	case 'Q':
		return Queen, true
	case 'K':
		return King, true
	case 'A':
		return Ace, true
	}
	return 0, false
}

func suitFromByte(b byte) (Suit, bool) {
	switch b {
	case 's':
		return Spades, true
	case 'h':
		return Hearts, true
	case 'd':
		return Diamonds, true
	case 'c':
		return Clubs, true
	}
	return 0, false
}
