package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	mathrand "math/rand/v2"

	"github.com/norkator/poker-pocket-backend/internal/bot"
	"github.com/norkator/poker-pocket-backend/internal/config"
	"github.com/norkator/poker-pocket-backend/internal/game"
	"github.com/norkator/poker-pocket-backend/internal/randutil"
	"github.com/norkator/poker-pocket-backend/internal/stats"
)

const guestStartMoney = 10000

// GameService ties the lobby together: it owns the room registry, seats
// humans and bots, and answers account requests.
type GameService struct {
	cfg      *config.Config
	registry *game.Registry
	store    *stats.Store
	bus      *game.EventBus
	clock    quartz.Clock
	logger   *log.Logger

	nextPlayerID atomic.Int64

	mu    sync.Mutex
	rng   *mathrand.Rand
	conns map[int]*Connection
}

// NewGameService creates the service and subscribes it to engine events.
func NewGameService(cfg *config.Config, registry *game.Registry, store *stats.Store, bus *game.EventBus, clock quartz.Clock, rng *mathrand.Rand, logger *log.Logger) *GameService {
	s := &GameService{
		cfg:      cfg,
		registry: registry,
		store:    store,
		bus:      bus,
		clock:    clock,
		logger:   logger.WithPrefix("service"),
		rng:      rng,
		conns:    make(map[int]*Connection),
	}
	bus.OnNeedNewBot(func(ev game.NeedNewBot) { go s.seatBot(ev.RoomID) })
	bus.OnXPGained(func(ev game.XPGained) { go s.grantXP(ev) })
	return s
}

// NextPlayerID reserves a fresh in-process player id.
func (s *GameService) NextPlayerID() int {
	return int(s.nextPlayerID.Add(1))
}

func (s *GameService) register(c *Connection) {
	s.mu.Lock()
	s.conns[c.playerID] = c
	s.mu.Unlock()
}

func (s *GameService) connectionClosed(c *Connection) {
	s.mu.Lock()
	delete(s.conns, c.playerID)
	s.mu.Unlock()
	if room := c.Room(); room != nil {
		room.RemoveSpectator(c)
		room.Disconnected(c.socketKey)
	}
}

// CreateInitialRooms builds one running table per configured tier, filled
// with bots so hands are underway before the first human arrives.
func (s *GameService) CreateInitialRooms() error {
	tables := s.cfg.Common.StartingTables
	if tables < len(s.cfg.Games) {
		tables = len(s.cfg.Games)
	}
	for i := 0; i < tables; i++ {
		tier := s.cfg.Games[i%len(s.cfg.Games)]
		room, err := s.createRoom(tier)
		if err != nil {
			return err
		}
		for n := 0; n < tier.MinPlayers; n++ {
			s.seatBot(room.ID())
		}
	}
	return nil
}

func (s *GameService) createRoom(tier config.GameConfig) (*game.Room, error) {
	id := s.registry.NextID()
	cfg := game.RoomConfig{
		ID:              id,
		Name:            fmt.Sprintf("%s #%d", tier.Name, id),
		Tier:            tier.Tier,
		MinBet:          tier.MinBet,
		MaxSeats:        tier.MaxSeats,
		MinPlayers:      tier.MinPlayers,
		TurnTimeout:     tier.TurnTimeout(),
		AfterRoundDelay: tier.AfterRoundDelay(),
		StartGameDelay:  s.cfg.Common.StartGameDelay(),
		BotTurnMin:      time.Duration(s.cfg.Bot.TurnTimeMinMs) * time.Millisecond,
		BotTurnMax:      time.Duration(s.cfg.Bot.TurnTimeMaxMs) * time.Millisecond,
		BotRaiseAmounts: tier.BotRaiseAmounts,
		BotMinMoney:     tier.BotMinMoney,
	}
	s.mu.Lock()
	seed := s.rng.Int64()
	s.mu.Unlock()

	room := game.NewRoom(cfg, s.clock, randutil.New(seed), s.bus, s.store, s.logger)
	if err := s.registry.Add(room); err != nil {
		return nil, err
	}
	s.logger.Info("room created", "room", id, "tier", tier.Tier)
	return room, nil
}

// seatBot adds a fresh bot to the room, replacing one that went broke.
func (s *GameService) seatBot(roomID int) {
	room := s.registry.Get(roomID)
	if room == nil {
		return
	}
	s.mu.Lock()
	name := bot.RandomName(s.rng)
	s.mu.Unlock()

	seat := game.NewBotSeat(s.NextPlayerID(), name, s.cfg.Bot.StartMoney)
	if err := room.Join(seat); err != nil {
		s.logger.Debug("bot could not join", "room", roomID, "err", err)
	}
}

// grantXP persists experience for registered players and tells them.
func (s *GameService) grantXP(ev game.XPGained) {
	s.mu.Lock()
	conn := s.conns[ev.PlayerID]
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if u := conn.User(); u != nil {
		if err := s.store.AddXP(u.ID, ev.Amount); err != nil {
			s.logger.Error("add xp", "user", u.ID, "err", err)
		}
	}
	conn.sendPayload(KeyOnXPGained, XPGainedData{Amount: ev.Amount, Message: ev.Message})
}

// handleRewardingAd credits the ad bonus to a logged-in account.
func (s *GameService) handleRewardingAd(c *Connection) {
	u := c.User()
	if u == nil {
		return
	}
	money, err := s.store.RewardAdShown(u.ID)
	if err != nil {
		s.logger.Error("reward ad", "user", u.ID, "err", err)
		return
	}
	c.sendPayload(game.KeyClientMessage, game.ClientMessageData{
		Message: fmt.Sprintf("You gained %d chips", money),
	})
	s.handleUserParams(c)
}

// Dispatch routes one inbound envelope. Unknown keys are dropped.
func (s *GameService) Dispatch(c *Connection, env *game.Envelope) {
	s.logger.Debug("dispatch", "key", env.Key, "player", c.playerID)

	switch env.Key {
	case KeyGetRooms:
		data, ok := decode[GetRoomsData](c, env)
		if !ok {
			return
		}
		c.sendPayload(KeyGetRoomsResult, RoomListData{Rooms: s.registry.List(data.Tier)})

	case KeyGetRoomParams:
		if room := c.Room(); room != nil {
			room.SendParams(c)
		}

	case KeyGetSpectateRooms:
		data, ok := decode[GetRoomsData](c, env)
		if !ok {
			return
		}
		all := s.registry.List(data.Tier)
		running := make([]game.RoomInfo, 0, len(all))
		for _, info := range all {
			if info.Running {
				running = append(running, info)
			}
		}
		c.sendPayload(KeyGetRoomsResult, RoomListData{Rooms: running})

	case KeySelectRoom:
		data, ok := decode[RoomIDData](c, env)
		if !ok {
			return
		}
		s.handleSelectRoom(c, data.RoomID)

	case KeySpectateRoom:
		data, ok := decode[RoomIDData](c, env)
		if !ok {
			return
		}
		s.handleSpectateRoom(c, data.RoomID)

	case KeyLeaveRoom:
		s.handleLeaveRoom(c)

	case KeySetFold:
		if room := c.Room(); room != nil {
			room.PlayerFold(c.playerID, c.socketKey)
		}

	case KeySetCheck:
		if room := c.Room(); room != nil {
			room.PlayerCheck(c.playerID, c.socketKey)
		}

	case KeySetRaise:
		data, ok := decode[RaiseData](c, env)
		if !ok {
			return
		}
		if room := c.Room(); room != nil {
			room.PlayerRaise(c.playerID, c.socketKey, data.Amount)
		}

	case KeyCreateAccount:
		data, ok := decode[CredentialsData](c, env)
		if !ok {
			return
		}
		s.handleCreateAccount(c, data)

	case KeyLogin:
		data, ok := decode[CredentialsData](c, env)
		if !ok {
			return
		}
		s.handleLogin(c, data)

	case KeyUserParams:
		s.handleUserParams(c)

	case KeyStatistics:
		s.handleStatistics(c)

	case KeyGetRankings:
		s.handleRankings(c)

	case KeyRewardingAdShown:
		s.handleRewardingAd(c)

	case KeyDisconnect:
		s.handleLeaveRoom(c)
		_ = c.Close()

	default:
		s.logger.Warn("unknown message key", "key", env.Key)
	}
}

func (s *GameService) handleSelectRoom(c *Connection, roomID int) {
	room := s.registry.Get(roomID)
	if room == nil {
		c.sendError(fmt.Sprintf("room %d does not exist", roomID))
		return
	}
	s.handleLeaveRoom(c)

	name := fmt.Sprintf("Player %d", c.playerID)
	money := guestStartMoney
	var databaseID int64
	if u := c.User(); u != nil {
		name = u.Name
		money = u.Money
		databaseID = u.ID
	}
	seat := game.NewSeat(c.playerID, c.socketKey, name, money, c)
	seat.DatabaseID = databaseID
	if err := room.Join(seat); err != nil {
		c.sendError(err.Error())
		return
	}
	c.setRoom(room)
}

func (s *GameService) handleSpectateRoom(c *Connection, roomID int) {
	room := s.registry.Get(roomID)
	if room == nil {
		c.sendError(fmt.Sprintf("room %d does not exist", roomID))
		return
	}
	s.handleLeaveRoom(c)
	room.AddSpectator(c)
	c.setRoom(room)
}

func (s *GameService) handleLeaveRoom(c *Connection) {
	room := c.Room()
	if room == nil {
		return
	}
	room.RemoveSpectator(c)
	room.Leave(c.playerID)
	c.setRoom(nil)
}

func (s *GameService) handleCreateAccount(c *Connection, data CredentialsData) {
	u, err := s.store.CreateAccount(data.Name, data.Password, data.Email)
	if err != nil {
		c.sendPayload(KeyAccountCreated, ResultData{Success: false, Message: "account could not be created"})
		s.logger.Debug("create account failed", "name", data.Name, "err", err)
		return
	}
	c.setUser(u)
	c.sendPayload(KeyAccountCreated, ResultData{Success: true})
}

func (s *GameService) handleLogin(c *Connection, data CredentialsData) {
	u, err := s.store.Login(data.Name, data.Password)
	if err != nil {
		msg := "login failed"
		if errors.Is(err, stats.ErrBadCredentials) {
			msg = "invalid username or password"
		}
		c.sendPayload(KeyLoginResult, ResultData{Success: false, Message: msg})
		return
	}
	c.setUser(u)
	c.sendPayload(KeyLoginResult, ResultData{Success: true})
	s.handleUserParams(c)
}

func (s *GameService) handleUserParams(c *Connection) {
	u := c.User()
	if u == nil {
		c.sendPayload(KeyUserParamsResult, UserParamsData{
			Name:  fmt.Sprintf("Player %d", c.playerID),
			Money: guestStartMoney,
		})
		return
	}
	// Re-read so the view includes hands settled since login.
	fresh, err := s.store.UserByID(u.ID)
	if err == nil {
		u = fresh
		c.setUser(fresh)
	}
	c.sendPayload(KeyUserParamsResult, UserParamsData{
		Name:      u.Name,
		Money:     u.Money,
		WinCount:  u.WinCount,
		LoseCount: u.LoseCount,
		XP:        u.XP,
	})
}

func (s *GameService) handleStatistics(c *Connection) {
	u := c.User()
	if u == nil {
		c.sendError("log in to view statistics")
		return
	}
	history, err := s.store.History(u.ID, 50)
	if err != nil {
		c.sendError("statistics unavailable")
		s.logger.Error("load history", "user", u.ID, "err", err)
		return
	}
	data := StatisticsData{}
	for _, snap := range history {
		data.History = append(data.History, StatisticsSnapshot{
			Money:     snap.Money,
			WinCount:  snap.WinCount,
			LoseCount: snap.LoseCount,
			Recorded:  snap.Recorded.UTC().Format(time.RFC3339),
		})
	}
	c.sendPayload(KeyStatisticsResult, data)
}

func (s *GameService) handleRankings(c *Connection) {
	top, err := s.store.Rankings(50)
	if err != nil {
		c.sendError("rankings unavailable")
		s.logger.Error("load rankings", "err", err)
		return
	}
	c.sendPayload(KeyRankingsResult, top)
}
