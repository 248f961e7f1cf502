package game

// Blind identifies a forced bet posted through the normal action path.
type Blind int

const (
	BlindNone Blind = iota
	BlindSmall
	BlindBig
)

func (b Blind) String() string {
	switch b {
	case BlindSmall:
		return "small blind"
	case BlindBig:
		return "big blind"
	default:
		return "none"
	}
}

// BetResult describes what a ledger operation actually moved.
type BetResult struct {
	Paid   int
	IsCall bool
	Blind  Blind
	AllIn  bool
}

// PotLedger tracks the single shared pot of a hand, the highest committed
// bet and which forced blinds have been posted. The blinds flow through the
// regular check/raise path: the first two checks of a hand are really the
// small and big blind.
type PotLedger struct {
	minBet          int
	seats           []*Seat
	pot             int
	highestBet      int
	smallBlindGiven bool
	bigBlindGiven   bool
}

// NewPotLedger creates a ledger for one table with the given table stake.
// The seat slice is the table's live seating; the ledger reads it to tell
// whether any contender is already all-in.
func NewPotLedger(minBet int, seats []*Seat) *PotLedger {
	return &PotLedger{minBet: minBet, seats: seats}
}

// Pot returns the chips collected so far this hand.
func (l *PotLedger) Pot() int { return l.pot }

// HighestBet returns the largest per-hand total committed by any seat.
func (l *PotLedger) HighestBet() int { return l.highestBet }

// MinBet returns the table stake (the big blind amount).
func (l *PotLedger) MinBet() int { return l.minBet }

// BigBlindGiven reports whether the big blind has been posted this hand.
func (l *PotLedger) BigBlindGiven() bool { return l.bigBlindGiven }

// Reset clears the ledger for a new hand.
func (l *PotLedger) Reset() {
	l.pot = 0
	l.highestBet = 0
	l.smallBlindGiven = false
	l.bigBlindGiven = false
}

// deposit moves chips from the seat into the pot, clamped to the seat's
// remaining money. A seat that pays its last chip is all-in, and once any
// contender is all-in every further deposit puts its seat all-in too.
func (l *PotLedger) deposit(seat *Seat, amount int) int {
	othersAllIn := someoneAllIn(l.seats)
	if amount > seat.Money {
		amount = seat.Money
	}
	if amount < 0 {
		amount = 0
	}
	seat.Money -= amount
	seat.TotalBet += amount
	l.pot += amount
	if amount > 0 && (seat.Money == 0 || othersAllIn) {
		seat.IsAllIn = true
	}
	if seat.TotalBet > l.highestBet {
		l.highestBet = seat.TotalBet
	}
	return amount
}

// Check handles a check action. While a blind is pending it posts the blind
// instead; otherwise it calls whatever the seat owes against the highest
// bet, which is zero on an even board.
func (l *PotLedger) Check(seat *Seat) BetResult {
	if !l.smallBlindGiven {
		l.smallBlindGiven = true
		paid := l.deposit(seat, l.minBet/2)
		return BetResult{Paid: paid, Blind: BlindSmall, AllIn: seat.IsAllIn}
	}
	if !l.bigBlindGiven {
		l.bigBlindGiven = true
		paid := l.deposit(seat, l.minBet)
		return BetResult{Paid: paid, Blind: BlindBig, AllIn: seat.IsAllIn}
	}
	owed := l.highestBet - seat.TotalBet
	if owed < 0 {
		owed = 0
	}
	paid := l.deposit(seat, owed)
	return BetResult{Paid: paid, IsCall: owed > 0, AllIn: seat.IsAllIn}
}

// Raise handles a raise action of the given size. A raise smaller than the
// amount owed degrades into owed+amount; a raise of zero is a plain call.
// A sufficiently large raise also covers any still-pending blind.
func (l *PotLedger) Raise(seat *Seat, amount int) BetResult {
	owed := l.highestBet - seat.TotalBet
	if owed < 0 {
		owed = 0
	}
	total := amount
	isCall := false
	switch {
	case amount == 0:
		total = owed
		isCall = true
	case amount < owed:
		total = owed + amount
		isCall = true
	}
	if amount >= l.minBet/2 && !l.smallBlindGiven {
		l.smallBlindGiven = true
	}
	if amount >= l.minBet && !l.bigBlindGiven {
		l.bigBlindGiven = true
	}
	paid := l.deposit(seat, total)
	return BetResult{Paid: paid, IsCall: isCall, AllIn: seat.IsAllIn}
}

// Fold settles a pending blind for a folding seat. Leaving the hand does
// not excuse a blind that was already owed.
func (l *PotLedger) Fold(seat *Seat) BetResult {
	if !l.smallBlindGiven {
		l.smallBlindGiven = true
		paid := l.deposit(seat, l.minBet/2)
		return BetResult{Paid: paid, Blind: BlindSmall, AllIn: seat.IsAllIn}
	}
	if !l.bigBlindGiven {
		l.bigBlindGiven = true
		paid := l.deposit(seat, l.minBet)
		return BetResult{Paid: paid, Blind: BlindBig, AllIn: seat.IsAllIn}
	}
	return BetResult{}
}

// RecomputeHighest re-derives the highest committed bet from the seats
// still contending for the pot.
func (l *PotLedger) RecomputeHighest(seats []*Seat) {
	highest := 0
	for _, s := range seats {
		if s == nil || !s.InHand() {
			continue
		}
		if s.TotalBet > highest {
			highest = s.TotalBet
		}
	}
	l.highestBet = highest
}

// VerifyBets reports whether every seat still able to act has matched the
// highest bet. All-in and folded seats never block round closure.
func (l *PotLedger) VerifyBets(seats []*Seat) bool {
	for _, s := range seats {
		if s == nil || !s.CanAct() {
			continue
		}
		if s.TotalBet < l.highestBet {
			return false
		}
	}
	return true
}
