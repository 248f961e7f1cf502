package game

import (
	"github.com/norkator/poker-pocket-backend/internal/deck"
)

// Conn delivers outbound messages to whoever occupies a seat. The websocket
// layer implements it; bots leave it nil.
type Conn interface {
	// Send queues an encoded message. It must not block the caller.
	Send(data []byte)
}

// SeatState is the seat's declared action for the current betting round.
type SeatState int

const (
	SeatStateNone SeatState = iota
	SeatStateFold
	SeatStateCheck
	SeatStateRaise
)

func (s SeatState) String() string {
	switch s {
	case SeatStateFold:
		return "FOLD"
	case SeatStateCheck:
		return "CHECK"
	case SeatStateRaise:
		return "RAISE"
	default:
		return "NONE"
	}
}

// Seat is one occupied position at a table. All fields are guarded by the
// owning Room's mutex.
type Seat struct {
	PlayerID   int
	SocketKey  string
	DatabaseID int64
	Name       string
	Money      int
	IsBot      bool

	conn    Conn
	leaving bool

	Cards       []deck.Card
	State       SeatState
	TotalBet    int
	IsDealer    bool
	IsTurn      bool
	IsFold      bool
	IsAllIn     bool
	RoundPlayed bool
	TimeLeft    int

	HandValue int
	HandName  string
	EvalCards []deck.Card

	WinCount  int
	LoseCount int
}

// NewSeat creates a seat for a connected human.
func NewSeat(playerID int, socketKey, name string, money int, conn Conn) *Seat {
	return &Seat{
		PlayerID:  playerID,
		SocketKey: socketKey,
		Name:      name,
		Money:     money,
		conn:      conn,
	}
}

// NewBotSeat creates a seat for a house bot.
func NewBotSeat(playerID int, name string, money int) *Seat {
	return &Seat{
		PlayerID: playerID,
		Name:     name,
		Money:    money,
		IsBot:    true,
	}
}

// ResetHand clears all per-hand state ahead of a new deal.
func (s *Seat) ResetHand() {
	s.Cards = nil
	s.State = SeatStateNone
	s.TotalBet = 0
	s.IsDealer = false
	s.IsTurn = false
	s.IsFold = false
	s.IsAllIn = false
	s.RoundPlayed = false
	s.TimeLeft = 0
	s.HandValue = 0
	s.HandName = ""
	s.EvalCards = nil
}

// ResetRound clears the betting-round flags while keeping hand state.
func (s *Seat) ResetRound() {
	s.State = SeatStateNone
	s.IsTurn = false
	s.RoundPlayed = false
}

// SetFold marks the seat folded for the rest of the hand.
func (s *Seat) SetFold() {
	s.State = SeatStateFold
	s.IsFold = true
	s.IsTurn = false
	s.RoundPlayed = true
}

// SetActed records a non-fold action for the round.
func (s *Seat) SetActed(state SeatState) {
	s.State = state
	s.IsTurn = false
	s.RoundPlayed = true
}

// InHand reports whether the seat still contends for the pot.
func (s *Seat) InHand() bool {
	return !s.IsFold
}

// CanAct reports whether the seat may still be given the turn.
func (s *Seat) CanAct() bool {
	return !s.IsFold && !s.IsAllIn
}

// Send delivers a message to the seat's connection, if any.
func (s *Seat) Send(data []byte) {
	if s.conn != nil {
		s.conn.Send(data)
	}
}

// HasConn reports whether a live connection backs this seat.
func (s *Seat) HasConn() bool {
	return s.conn != nil
}
