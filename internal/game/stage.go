package game

// Stage is the position within one hand of Texas Hold'em. Stages only
// advance; a new hand resets back to StageHoleCards.
type Stage int

const (
	StageHoleCards Stage = iota
	StagePreFlop
	StageTheFlop
	StagePostFlop
	StageTheTurn
	StagePostTurn
	StageTheRiver
	StageShowDown
	StageAllCardsReveal
	StageResults
)

func (s Stage) String() string {
	switch s {
	case StageHoleCards:
		return "hole cards"
	case StagePreFlop:
		return "pre-flop"
	case StageTheFlop:
		return "the flop"
	case StagePostFlop:
		return "post-flop"
	case StageTheTurn:
		return "the turn"
	case StagePostTurn:
		return "post-turn"
	case StageTheRiver:
		return "the river"
	case StageShowDown:
		return "showdown"
	case StageAllCardsReveal:
		return "all cards reveal"
	case StageResults:
		return "results"
	default:
		return "unknown"
	}
}

// isBettingStage reports whether seats act during this stage.
func (s Stage) isBettingStage() bool {
	switch s {
	case StagePreFlop, StagePostFlop, StagePostTurn, StageShowDown:
		return true
	default:
		return false
	}
}
