package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/norkator/poker-pocket-backend/internal/bot"
	"github.com/norkator/poker-pocket-backend/internal/deck"
	"github.com/norkator/poker-pocket-backend/internal/evaluator"
	"github.com/norkator/poker-pocket-backend/internal/randutil"
)

// Stage pacing. These match the client-side animation lengths.
const (
	holeCardsDelay  = 3 * time.Second
	flopDelay       = 3 * time.Second
	turnDelay       = 2 * time.Second
	riverDelay      = 2 * time.Second
	revealDelay     = 3 * time.Second
	potCollectDelay = 2500 * time.Millisecond
	shortDelay      = time.Second
)

// Recorder persists hand outcomes for registered players. Every player
// dealt into a hand gets exactly one call when it settles. Calls are made
// off the room goroutine and must tolerate failure silently.
type Recorder interface {
	HandWon(databaseID int64, money int)
	HandLost(databaseID int64, money int)
	HandPlayed(databaseID int64, money int)
}

// RoomConfig carries the per-table parameters derived from the tier
// configuration.
type RoomConfig struct {
	ID         int
	Name       string
	Tier       string
	MinBet     int
	MaxSeats   int
	MinPlayers int

	TurnTimeout     time.Duration
	AfterRoundDelay time.Duration
	StartGameDelay  time.Duration

	BotTurnMin      time.Duration
	BotTurnMax      time.Duration
	BotRaiseAmounts []int
	BotMinMoney     int
}

// Room is one poker table: its seats, deck, pot and the hand state
// machine. All mutable state is guarded by mu; timers re-enter through
// exported-style callbacks that take the lock themselves.
type Room struct {
	cfg      RoomConfig
	log      *log.Logger
	clock    quartz.Clock
	bus      *EventBus
	recorder Recorder

	mu           sync.Mutex
	rng          *rand.Rand
	seats        []*Seat
	pending      []*Seat
	spectators   map[Conn]bool
	deck         *deck.Deck
	ledger       *PotLedger
	timer        *timerSlot
	stage        Stage
	running      bool
	middle       []deck.Card
	dealerIdx    int
	order        []int
	turnSeat     int
	turnDeadline time.Time
	bbOption     int
	lastWinners  map[int]bool
	handsPlayed  int
}

// NewRoom creates an idle table.
func NewRoom(cfg RoomConfig, clock quartz.Clock, rng *rand.Rand, bus *EventBus, recorder Recorder, logger *log.Logger) *Room {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = 20 * time.Second
	}
	if cfg.AfterRoundDelay <= 0 {
		cfg.AfterRoundDelay = 10 * time.Second
	}
	if cfg.StartGameDelay <= 0 {
		cfg.StartGameDelay = 3 * time.Second
	}
	if cfg.BotTurnMin <= 0 {
		cfg.BotTurnMin = time.Second
	}
	if cfg.BotTurnMax < cfg.BotTurnMin {
		cfg.BotTurnMax = 3 * time.Second
	}
	seats := make([]*Seat, cfg.MaxSeats)
	return &Room{
		cfg:         cfg,
		log:         logger.WithPrefix(fmt.Sprintf("room-%d", cfg.ID)),
		clock:       clock,
		bus:         bus,
		recorder:    recorder,
		rng:         rng,
		seats:       seats,
		spectators:  make(map[Conn]bool),
		deck:        deck.New(),
		ledger:      NewPotLedger(cfg.MinBet, seats),
		timer:       newTimerSlot(clock),
		dealerIdx:   -1,
		turnSeat:    -1,
		bbOption:    -1,
		lastWinners: make(map[int]bool),
	}
}

// ID returns the registry id of the room.
func (r *Room) ID() int { return r.cfg.ID }

// Tier returns the room's bet tier label.
func (r *Room) Tier() string { return r.cfg.Tier }

// RoomInfo is the lobby listing view of a table.
type RoomInfo struct {
	ID          int    `json:"roomId"`
	Name        string `json:"roomName"`
	Tier        string `json:"tier"`
	MinBet      int    `json:"minBet"`
	MaxSeats    int    `json:"maxSeats"`
	PlayerCount int    `json:"playerCount"`
	Running     bool   `json:"gameIsOn"`
}

// Info returns the current lobby listing view.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		ID:          r.cfg.ID,
		Name:        r.cfg.Name,
		Tier:        r.cfg.Tier,
		MinBet:      r.cfg.MinBet,
		MaxSeats:    r.cfg.MaxSeats,
		PlayerCount: r.seatCountLocked() + len(r.pending),
		Running:     r.running,
	}
}

func (r *Room) seatCountLocked() int {
	n := 0
	for _, s := range r.seats {
		if s != nil {
			n++
		}
	}
	return n
}

// Join seats a player. During a running hand the player is parked until
// the hand ends. Returns an error when the table is full.
func (r *Room) Join(seat *Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seatCountLocked()+len(r.pending) >= r.cfg.MaxSeats {
		return fmt.Errorf("room %d is full", r.cfg.ID)
	}
	if r.seatByPlayerIDLocked(seat.PlayerID) != nil {
		return fmt.Errorf("player %d already seated in room %d", seat.PlayerID, r.cfg.ID)
	}

	if r.running {
		r.pending = append(r.pending, seat)
		r.sendToSeat(seat, KeyClientMessage, ClientMessageData{
			Message: "Hand in progress, you will be seated for the next one",
		})
	} else {
		r.placeSeatLocked(seat)
		r.broadcastRoomParamsLocked()
		r.maybeStartLocked()
	}
	r.log.Info("player joined", "player", seat.Name, "bot", seat.IsBot)
	return nil
}

func (r *Room) placeSeatLocked(seat *Seat) {
	for i, s := range r.seats {
		if s == nil {
			r.seats[i] = seat
			return
		}
	}
}

// AddSpectator subscribes a connection to the room's broadcasts.
func (r *Room) AddSpectator(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spectators[conn] = true
}

// RemoveSpectator unsubscribes a connection.
func (r *Room) RemoveSpectator(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spectators, conn)
}

// Leave removes a player. Mid-hand the seat folds and is removed when the
// hand finishes.
func (r *Room) Leave(playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.pending {
		if s != nil && s.PlayerID == playerID {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}

	seat := r.seatByPlayerIDLocked(playerID)
	if seat == nil {
		return
	}
	if !r.running {
		r.removeSeatLocked(seat)
		r.broadcastRoomParamsLocked()
		return
	}
	seat.leaving = true
	if seat.IsTurn {
		r.applyFoldLocked(seat)
		r.afterActionLocked()
	} else if !seat.IsFold {
		seat.SetFold()
	}
}

// Disconnected handles a dropped connection for the given socket key.
func (r *Room) Disconnected(socketKey string) {
	r.mu.Lock()
	seat := r.seatBySocketKeyLocked(socketKey)
	var playerID int
	if seat != nil {
		seat.conn = nil
		playerID = seat.PlayerID
	}
	r.mu.Unlock()
	if seat != nil {
		r.Leave(playerID)
	}
}

func (r *Room) removeSeatLocked(seat *Seat) {
	for i, s := range r.seats {
		if s == seat {
			r.seats[i] = nil
			return
		}
	}
}

func (r *Room) seatByPlayerIDLocked(playerID int) *Seat {
	for _, s := range r.seats {
		if s != nil && s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

func (r *Room) seatBySocketKeyLocked(socketKey string) *Seat {
	if socketKey == "" {
		return nil
	}
	for _, s := range r.seats {
		if s != nil && s.SocketKey == socketKey {
			return s
		}
	}
	return nil
}

// maybeStartLocked arms the start timer when enough players are seated.
func (r *Room) maybeStartLocked() {
	if r.running {
		return
	}
	if r.seatCountLocked() < r.cfg.MinPlayers {
		return
	}
	r.timer.schedule(r.cfg.StartGameDelay, r.startHand)
}

// startHand begins a new hand: evicts broke seats, admits pending players,
// moves the button, shuffles and deals.
func (r *Room) startHand() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.admitPendingLocked()
	r.evictBrokeSeatsLocked()
	if r.seatCountLocked() < r.cfg.MinPlayers {
		return
	}

	r.running = true
	r.handsPlayed++
	r.stage = StageHoleCards
	r.middle = nil
	r.ledger.Reset()
	for _, s := range r.seats {
		if s != nil {
			s.ResetHand()
		}
	}

	r.advanceDealerLocked()
	sb := r.smallBlindIdxLocked()
	r.order = actionOrder(r.seats, sb)

	r.deck.Shuffle(r.rng)
	r.deck.Burn()
	for pass := 0; pass < 2; pass++ {
		for _, i := range r.order {
			r.seats[i].Cards = append(r.seats[i].Cards, r.deck.Draw())
		}
	}

	r.log.Info("hand started", "hand", r.handsPlayed, "players", len(r.order))
	r.broadcastRoomParamsLocked()
	for _, i := range r.order {
		seat := r.seats[i]
		r.sendToSeat(seat, KeyHoleCards, HoleCardsData{
			PlayerID: seat.PlayerID,
			Cards:    cardCodes(seat.Cards),
		})
	}
	r.broadcastLocked(KeyAudioCommand, AudioCommandData{Command: "cardFan"})

	r.timer.schedule(holeCardsDelay, r.enterPreFlop)
}

func (r *Room) admitPendingLocked() {
	for _, seat := range r.pending {
		if r.seatCountLocked() < r.cfg.MaxSeats {
			r.placeSeatLocked(seat)
		}
	}
	r.pending = nil
}

// evictBrokeSeatsLocked drops seats that cannot cover the stake. A broke
// bot triggers a replacement request; a broke human gets a notice.
func (r *Room) evictBrokeSeatsLocked() {
	for i, s := range r.seats {
		if s == nil {
			continue
		}
		if s.leaving || (!s.IsBot && !s.HasConn()) {
			r.seats[i] = nil
			continue
		}
		if s.Money <= r.cfg.MinBet {
			if s.IsBot {
				r.bus.PublishNeedNewBot(NeedNewBot{RoomID: r.cfg.ID})
			} else {
				r.sendToSeat(s, KeyClientMessage, ClientMessageData{
					Message: "You ran out of money for this table",
				})
				// Demoted players keep watching the table.
				if s.HasConn() {
					r.spectators[s.conn] = true
				}
			}
			r.seats[i] = nil
		}
	}
}

// advanceDealerLocked moves the button to the next occupied seat.
func (r *Room) advanceDealerLocked() {
	n := len(r.seats)
	for off := 1; off <= n; off++ {
		i := ((r.dealerIdx + off) % n + n) % n
		if r.seats[i] != nil {
			r.dealerIdx = i
			r.seats[i].IsDealer = true
			return
		}
	}
}

// smallBlindIdxLocked returns the small blind seat. Heads-up the dealer
// posts the small blind; otherwise it is the next occupied seat.
func (r *Room) smallBlindIdxLocked() int {
	if r.seatCountLocked() == 2 {
		return r.dealerIdx
	}
	n := len(r.seats)
	for off := 1; off <= n; off++ {
		i := (r.dealerIdx + off) % n
		if r.seats[i] != nil {
			return i
		}
	}
	return r.dealerIdx
}

func (r *Room) enterPreFlop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stage = StagePreFlop
	r.beginBettingRoundLocked()
}

// beginBettingRoundLocked opens the street. When one or zero seats can
// still act and all bets are level, the street is skipped.
func (r *Room) beginBettingRoundLocked() {
	r.bbOption = -1
	for _, s := range r.seats {
		if s != nil && s.CanAct() {
			s.ResetRound()
		}
	}
	if countCanAct(r.seats) <= 1 && r.ledger.VerifyBets(r.seats) {
		r.advanceStageLocked()
		return
	}
	r.beginTurnLocked()
}

// beginTurnLocked hands the turn to the next seat. Seats that cannot be
// reached fold automatically; the loop continues until a live seat holds
// the turn or the street closes.
func (r *Room) beginTurnLocked() {
	for {
		idx := nextToAct(r.seats, r.order, r.ledger.HighestBet(), r.bbOption)
		if idx < 0 {
			r.turnSeat = -1
			r.advanceStageLocked()
			return
		}
		seat := r.seats[idx]
		if !seat.IsBot && !seat.HasConn() {
			r.applyFoldLocked(seat)
			if countInHand(r.seats) == 1 {
				r.singleSurvivorLocked()
				return
			}
			continue
		}

		token := seat.PlayerID
		delay := r.cfg.TurnTimeout
		if seat.IsBot {
			delay = time.Duration(randutil.Between(r.rng,
				int(r.cfg.BotTurnMin/time.Millisecond),
				int(r.cfg.BotTurnMax/time.Millisecond))) * time.Millisecond
		}

		seat.IsTurn = true
		seat.TimeLeft = int(delay / time.Second)
		r.turnSeat = idx
		r.turnDeadline = r.clock.Now().Add(delay)
		r.broadcastStatusLocked(false, nil, "", nil)

		if seat.IsBot {
			r.timer.schedule(delay, func() { r.botAct(token) })
		} else {
			r.timer.schedule(delay, func() { r.turnTimeout(token) })
		}
		return
	}
}

// turnTimeout folds a seat that let its decision time run out.
func (r *Room) turnTimeout(playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatByPlayerIDLocked(playerID)
	if seat == nil || !seat.IsTurn || !r.running {
		return
	}
	r.log.Debug("turn timeout", "player", seat.Name)
	r.applyFoldLocked(seat)
	r.afterActionLocked()
}

// botAct runs the bot policy for the seat holding the turn.
func (r *Room) botAct(playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seat := r.seatByPlayerIDLocked(playerID)
	if seat == nil || !seat.IsTurn || !r.running {
		return
	}

	snap := bot.Snapshot{
		HoleCards:       seat.Cards,
		MiddleCards:     r.middle,
		Money:           seat.Money,
		MinBet:          r.cfg.MinBet,
		MyTotalBet:      seat.TotalBet,
		HighestBet:      r.ledger.HighestBet(),
		IsCallSituation: r.ledger.HighestBet() > seat.TotalBet,
		RaiseAmounts:    r.cfg.BotRaiseAmounts,
		MinMoney:        r.cfg.BotMinMoney,
	}
	decision := bot.Decide(snap, r.rng)

	switch decision.Action {
	case bot.ActionReplace:
		seat.leaving = true
		r.bus.PublishNeedNewBot(NeedNewBot{RoomID: r.cfg.ID})
		r.applyFoldLocked(seat)
	case bot.ActionFold:
		r.applyFoldLocked(seat)
	case bot.ActionRaise:
		r.applyRaiseLocked(seat, decision.Amount)
	default:
		r.applyCheckLocked(seat)
	}
	r.afterActionLocked()
}

// hasTurn reports whether the identified caller currently holds the turn.
// Bots bypass the socket key check.
func (r *Room) hasTurnLocked(playerID int, socketKey string) *Seat {
	if !r.stage.isBettingStage() {
		return nil
	}
	seat := r.seatByPlayerIDLocked(playerID)
	if seat == nil || !seat.IsTurn {
		return nil
	}
	if !seat.IsBot && seat.SocketKey != socketKey {
		return nil
	}
	return seat
}

// PlayerFold handles a fold intent. Intents from seats not holding the
// turn are silently ignored.
func (r *Room) PlayerFold(playerID int, socketKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seat := r.hasTurnLocked(playerID, socketKey)
	if seat == nil || !r.running {
		return
	}
	r.applyFoldLocked(seat)
	r.afterActionLocked()
}

// PlayerCheck handles a check or call intent.
func (r *Room) PlayerCheck(playerID int, socketKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seat := r.hasTurnLocked(playerID, socketKey)
	if seat == nil || !r.running {
		return
	}
	r.applyCheckLocked(seat)
	r.afterActionLocked()
}

// PlayerRaise handles a raise intent of the given size.
func (r *Room) PlayerRaise(playerID int, socketKey string, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seat := r.hasTurnLocked(playerID, socketKey)
	if seat == nil || !r.running {
		return
	}
	r.applyRaiseLocked(seat, amount)
	r.afterActionLocked()
}

func (r *Room) seatIndexLocked(seat *Seat) int {
	for i, s := range r.seats {
		if s == seat {
			return i
		}
	}
	return -1
}

// clearBBOptionLocked consumes the big blind's pending option turn once
// that seat has taken any action.
func (r *Room) clearBBOptionLocked(seat *Seat) {
	if r.bbOption >= 0 && r.seatIndexLocked(seat) == r.bbOption {
		r.bbOption = -1
	}
}

func (r *Room) applyFoldLocked(seat *Seat) {
	r.clearBBOptionLocked(seat)
	res := r.ledger.Fold(seat)
	seat.SetFold()
	text := "FOLD"
	if res.Blind != BlindNone {
		text = fmt.Sprintf("FOLD (%s)", res.Blind)
	}
	r.announceActionLocked(seat, text, "fold")
}

func (r *Room) applyCheckLocked(seat *Seat) {
	r.clearBBOptionLocked(seat)
	res := r.ledger.Check(seat)
	var text, audio string
	switch {
	case res.Blind == BlindSmall:
		text, audio = "SMALL BLIND", "chips"
	case res.Blind == BlindBig:
		// Posting the big blind keeps the option to act again once the
		// others have completed the round.
		seat.SetActed(SeatStateCheck)
		r.bbOption = r.seatIndexLocked(seat)
		r.announceActionLocked(seat, "BIG BLIND", "chips")
		return
	case res.IsCall:
		text, audio = "CALL", "chips"
	default:
		text, audio = "CHECK", "knock"
	}
	seat.SetActed(SeatStateCheck)
	r.announceActionLocked(seat, text, audio)
}

func (r *Room) applyRaiseLocked(seat *Seat, amount int) {
	r.clearBBOptionLocked(seat)
	res := r.ledger.Raise(seat, amount)
	seat.SetActed(SeatStateRaise)
	r.ledger.RecomputeHighest(r.seats)
	text := "RAISE"
	if res.IsCall {
		text = "CALL"
	}
	if res.AllIn {
		text = "ALL IN"
	}
	r.announceActionLocked(seat, text, "chips")
}

func (r *Room) announceActionLocked(seat *Seat, text, audio string) {
	r.log.Debug("action", "player", seat.Name, "action", text, "pot", r.ledger.Pot())
	r.broadcastLocked(KeyLastUserAction, LastUserActionData{
		PlayerID:   seat.PlayerID,
		ActionText: text,
	})
	if audio != "" {
		r.broadcastLocked(KeyAudioCommand, AudioCommandData{Command: audio})
	}
}

// afterActionLocked continues the hand after any seat action: the hand
// ends at once when only one contender remains, otherwise the turn moves
// on.
func (r *Room) afterActionLocked() {
	r.turnSeat = -1
	if countInHand(r.seats) == 1 {
		r.singleSurvivorLocked()
		return
	}
	r.beginTurnLocked()
}

// advanceStageLocked closes the current street and schedules the next one.
func (r *Room) advanceStageLocked() {
	delay := shortDelay
	if r.ledger.Pot() > 0 {
		delay = potCollectDelay
		r.broadcastLocked(KeyCollectChipsToPot, StatusUpdateData{
			TotalPot:    r.ledger.Pot(),
			TableMinBet: r.cfg.MinBet,
		})
		r.broadcastLocked(KeyAudioCommand, AudioCommandData{Command: "chipsCollect"})
	}

	switch r.stage {
	case StagePreFlop:
		r.timer.schedule(delay, r.dealFlop)
	case StagePostFlop:
		r.timer.schedule(delay, r.dealTurn)
	case StagePostTurn:
		r.timer.schedule(delay, r.dealRiver)
	case StageShowDown:
		r.timer.schedule(delay, r.revealCards)
	default:
		r.log.Error("stage advance from unexpected stage", "stage", r.stage)
	}
}

func (r *Room) dealFlop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stage = StageTheFlop
	r.deck.Burn()
	for i := 0; i < 3; i++ {
		r.middle = append(r.middle, r.deck.Draw())
	}
	r.broadcastLocked(KeyTheFlop, MiddleCardsData{MiddleCards: cardCodes(r.middle)})
	r.timer.schedule(flopDelay, func() { r.enterStreet(StagePostFlop) })
}

func (r *Room) dealTurn() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stage = StageTheTurn
	r.deck.Burn()
	r.middle = append(r.middle, r.deck.Draw())
	r.broadcastLocked(KeyTheTurn, MiddleCardsData{MiddleCards: cardCodes(r.middle)})
	r.timer.schedule(turnDelay, func() { r.enterStreet(StagePostTurn) })
}

func (r *Room) dealRiver() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stage = StageTheRiver
	r.deck.Burn()
	r.middle = append(r.middle, r.deck.Draw())
	r.broadcastLocked(KeyTheRiver, MiddleCardsData{MiddleCards: cardCodes(r.middle)})
	r.timer.schedule(riverDelay, func() { r.enterStreet(StageShowDown) })
}

func (r *Room) enterStreet(stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stage = stage
	r.beginBettingRoundLocked()
}

// revealCards evaluates every contending hand and shows all hole cards.
func (r *Room) revealCards() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stage = StageAllCardsReveal

	reveal := AllPlayersCardsData{}
	for _, s := range r.seats {
		if s == nil || !s.InHand() {
			continue
		}
		res := evaluator.Eval(append(append([]deck.Card{}, s.Cards...), r.middle...))
		s.HandValue = res.Value
		s.HandName = res.Name
		s.EvalCards = res.Cards
		reveal.Players = append(reveal.Players, RevealedCards{
			PlayerID: s.PlayerID,
			Cards:    cardCodes(s.Cards),
			HandName: s.HandName,
		})
	}
	r.broadcastLocked(KeyAllPlayersCards, reveal)
	r.timer.schedule(revealDelay, r.results)
}

// results settles the pot at showdown: winners split evenly with the
// integer division truncated, counters and stats are updated, and the next
// hand is scheduled.
func (r *Room) results() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.stage = StageResults

	var winners []*Seat
	best := 0
	for _, s := range r.seats {
		if s == nil || !s.InHand() {
			continue
		}
		switch {
		case s.HandValue > best:
			best = s.HandValue
			winners = []*Seat{s}
		case s.HandValue == best:
			winners = append(winners, s)
		}
	}
	if len(winners) == 0 {
		r.log.Error("no winners at showdown")
		r.finishHandLocked()
		return
	}

	pot := r.ledger.Pot()
	share := pot / len(winners)
	winnerIDs := make([]int, 0, len(winners))
	winnerSet := make(map[int]bool, len(winners))
	for _, w := range winners {
		w.Money += share
		w.WinCount++
		winnerIDs = append(winnerIDs, w.PlayerID)
		winnerSet[w.PlayerID] = true
		r.recordWinLocked(w)
	}
	r.settleNonWinnersLocked(winnerSet, pot)
	r.lastWinners = winnerSet

	r.log.Info("hand results",
		"pot", pot, "winners", winnerIDs, "hand", winners[0].HandName)
	r.broadcastStatusLocked(true, winnerIDs, winners[0].HandName, winners[0].EvalCards)
	r.broadcastLocked(KeyAudioCommand, AudioCommandData{Command: "win"})

	r.timer.schedule(r.cfg.AfterRoundDelay, r.finishHand)
}

// settleNonWinnersLocked closes the books for every seat that was dealt
// in but did not win. Losses count only for pots worth contesting; either
// way the player's bankroll and statistics history are persisted.
func (r *Room) settleNonWinnersLocked(winnerSet map[int]bool, pot int) {
	lost := pot > r.cfg.MinBet*len(r.order)
	for _, i := range r.order {
		s := r.seats[i]
		if s == nil || winnerSet[s.PlayerID] {
			continue
		}
		if lost {
			s.LoseCount++
		}
		if r.recorder == nil || s.DatabaseID <= 0 {
			continue
		}
		rec, id, m := r.recorder, s.DatabaseID, s.Money
		if lost {
			go rec.HandLost(id, m)
		} else {
			go rec.HandPlayed(id, m)
		}
	}
}

// recordWinLocked persists the win and publishes the experience event. A
// repeat winner earns double experience.
func (r *Room) recordWinLocked(winner *Seat) {
	xp := 100
	if r.lastWinners[winner.PlayerID] {
		xp = 200
	}
	if !winner.IsBot {
		r.bus.PublishXPGained(XPGained{
			PlayerID: winner.PlayerID,
			Amount:   xp,
			Message:  fmt.Sprintf("You gained %d XP", xp),
		})
	}
	if r.recorder != nil && winner.DatabaseID > 0 {
		rec, id, m := r.recorder, winner.DatabaseID, winner.Money
		go rec.HandWon(id, m)
	}
}

// singleSurvivorLocked ends the hand early when everyone else folded. The
// pot moves uncontested and no cards are revealed.
func (r *Room) singleSurvivorLocked() {
	var survivor *Seat
	for _, s := range r.seats {
		if s != nil && s.InHand() {
			survivor = s
			break
		}
	}
	if survivor == nil {
		r.finishHandLocked()
		return
	}
	r.stage = StageResults
	r.turnSeat = -1

	pot := r.ledger.Pot()
	survivor.Money += pot
	survivor.WinCount++
	r.recordWinLocked(survivor)
	winnerSet := map[int]bool{survivor.PlayerID: true}
	r.settleNonWinnersLocked(winnerSet, pot)
	r.lastWinners = winnerSet

	r.log.Info("hand won uncontested", "player", survivor.Name, "pot", pot)
	r.broadcastStatusLocked(true, []int{survivor.PlayerID}, "", nil)
	r.broadcastLocked(KeyAudioCommand, AudioCommandData{Command: "win"})

	r.timer.schedule(r.cfg.AfterRoundDelay, r.finishHand)
}

func (r *Room) finishHand() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishHandLocked()
}

func (r *Room) finishHandLocked() {
	r.running = false
	r.turnSeat = -1
	for _, s := range r.seats {
		if s != nil {
			s.ResetHand()
		}
	}
	r.admitPendingLocked()
	r.evictBrokeSeatsLocked()
	r.broadcastRoomParamsLocked()
	r.maybeStartLocked()
}

// Close cancels any pending timer and drops all seats. The room must not
// be used afterwards.
func (r *Room) Close() {
	r.timer.cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	for i := range r.seats {
		r.seats[i] = nil
	}
	r.pending = nil
	r.spectators = make(map[Conn]bool)
}

func (r *Room) playersDataLocked() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.seats))
	for _, s := range r.seats {
		if s == nil {
			continue
		}
		if s.IsTurn {
			// Counted down from the deadline so every status update shows
			// the time actually remaining.
			s.TimeLeft = r.turnTimeLeftLocked()
		}
		infos = append(infos, PlayerInfo{
			PlayerID:     s.PlayerID,
			PlayerName:   s.Name,
			PlayerMoney:  s.Money,
			TotalBet:     s.TotalBet,
			IsDealer:     s.IsDealer,
			IsPlayerTurn: s.IsTurn,
			IsFold:       s.IsFold,
			IsAllIn:      s.IsAllIn,
			TimeLeft:     s.TimeLeft,
		})
	}
	return infos
}

func (r *Room) turnTimeLeftLocked() int {
	left := int(r.turnDeadline.Sub(r.clock.Now()) / time.Second)
	if left < 0 {
		left = 0
	}
	return left
}

func (r *Room) roomParamsDataLocked() RoomParamsData {
	return RoomParamsData{
		RoomID:      r.cfg.ID,
		RoomName:    r.cfg.Name,
		RoomMinBet:  r.cfg.MinBet,
		MaxSeats:    r.cfg.MaxSeats,
		PlayerCount: r.seatCountLocked(),
		MiddleCards: cardCodes(r.middle),
		PlayersData: r.playersDataLocked(),
	}
}

func (r *Room) broadcastRoomParamsLocked() {
	r.broadcastLocked(KeyRoomParams, r.roomParamsDataLocked())
}

// SendParams sends the current table parameters to one connection.
func (r *Room) SendParams(conn Conn) {
	r.mu.Lock()
	params := r.roomParamsDataLocked()
	r.mu.Unlock()

	data, err := Encode(KeyRoomParams, params)
	if err != nil {
		r.log.Error("encode room params", "err", err)
		return
	}
	conn.Send(data)
}

func (r *Room) broadcastStatusLocked(resultsCall bool, winnerIDs []int, handName string, winnerCards []deck.Card) {
	turnID := 0
	if r.turnSeat >= 0 && r.seats[r.turnSeat] != nil {
		turnID = r.seats[r.turnSeat].PlayerID
	}
	r.broadcastLocked(KeyStatusUpdate, StatusUpdateData{
		TotalPot:             r.ledger.Pot(),
		TableMinBet:          r.cfg.MinBet,
		CurrentStatus:        r.stage.String(),
		CurrentTurnPlayerID:  turnID,
		MiddleCards:          cardCodes(r.middle),
		PlayersData:          r.playersDataLocked(),
		IsResultsCall:        resultsCall,
		RoundWinnerPlayerIDs: winnerIDs,
		WinnerHandName:       handName,
		WinnerCards:          cardCodes(winnerCards),
	})
}

func (r *Room) broadcastLocked(key string, payload any) {
	data, err := Encode(key, payload)
	if err != nil {
		r.log.Error("encode broadcast", "key", key, "err", err)
		return
	}
	for _, s := range r.seats {
		if s != nil {
			s.Send(data)
		}
	}
	for conn := range r.spectators {
		conn.Send(data)
	}
}

func (r *Room) sendToSeat(seat *Seat, key string, payload any) {
	data, err := Encode(key, payload)
	if err != nil {
		r.log.Error("encode message", "key", key, "err", err)
		return
	}
	seat.Send(data)
}
