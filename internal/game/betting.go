package game

// nextToAct returns the seat index that should receive the turn, walking
// the hand's action order. A seat that has not yet acted this round comes
// first; after everyone has acted, any seat still short of the highest bet
// must respond; last of all the big blind takes its option turn if one is
// pending. -1 means the betting round is closed.
func nextToAct(seats []*Seat, order []int, highestBet, bbOption int) int {
	for _, i := range order {
		s := seats[i]
		if s != nil && s.CanAct() && !s.RoundPlayed {
			return i
		}
	}
	for _, i := range order {
		s := seats[i]
		if s != nil && s.CanAct() && s.TotalBet < highestBet {
			return i
		}
	}
	if bbOption >= 0 && bbOption < len(seats) {
		if s := seats[bbOption]; s != nil && s.CanAct() {
			return bbOption
		}
	}
	return -1
}

// actionOrder lists the occupied seat indices starting from the small
// blind, wrapping around the table.
func actionOrder(seats []*Seat, smallBlindIdx int) []int {
	n := len(seats)
	order := make([]int, 0, n)
	for off := 0; off < n; off++ {
		i := (smallBlindIdx + off) % n
		if seats[i] != nil {
			order = append(order, i)
		}
	}
	return order
}

// countInHand returns the number of seats still contending for the pot.
func countInHand(seats []*Seat) int {
	n := 0
	for _, s := range seats {
		if s != nil && s.InHand() {
			n++
		}
	}
	return n
}

// countCanAct returns the number of seats that can still take actions.
func countCanAct(seats []*Seat) int {
	n := 0
	for _, s := range seats {
		if s != nil && s.CanAct() {
			n++
		}
	}
	return n
}

// someoneAllIn reports whether any contending seat is all-in.
func someoneAllIn(seats []*Seat) bool {
	for _, s := range seats {
		if s != nil && s.InHand() && s.IsAllIn {
			return true
		}
	}
	return false
}
