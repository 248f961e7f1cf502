package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/norkator/poker-pocket-backend/internal/game"
	"github.com/norkator/poker-pocket-backend/internal/stats"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection wraps one WebSocket client. It implements game.Conn so a
// seat can deliver table traffic directly to the socket.
type Connection struct {
	conn      *websocket.Conn
	send      chan []byte
	playerID  int
	socketKey string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	service   *GameService

	mu   sync.RWMutex
	user *stats.User
	room *game.Room
}

// NewConnection wraps an upgraded socket.
func NewConnection(conn *websocket.Conn, playerID int, logger *log.Logger, service *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:      conn,
		send:      make(chan []byte, 256),
		playerID:  playerID,
		socketKey: newSocketKey(),
		logger:    logger.WithPrefix("conn").With("player", playerID),
		ctx:       ctx,
		cancel:    cancel,
		service:   service,
	}
}

func newSocketKey() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
	c.sendPayload(KeyConnectionParams, ConnectionParamsData{
		PlayerID:  c.playerID,
		SocketKey: c.socketKey,
	})
}

// Close tears the connection down once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send queues an encoded message without blocking. Implements game.Conn;
// a client that cannot keep up gets disconnected.
func (c *Connection) Send(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("send on closed connection", "recover", r)
		}
	}()

	select {
	case c.send <- data:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
	}
}

func (c *Connection) sendPayload(key string, payload any) {
	data, err := game.Encode(key, payload)
	if err != nil {
		c.logger.Error("encode payload", "key", key, "err", err)
		return
	}
	c.Send(data)
}

func (c *Connection) sendError(message string) {
	c.sendPayload(KeyErrorMessage, ErrorMessageData{Message: message})
}

// User returns the logged-in account, or nil for a guest.
func (c *Connection) User() *stats.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Connection) setUser(u *stats.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}

// Room returns the room this connection currently sits at or spectates.
func (c *Connection) Room() *game.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Connection) setRoom(room *game.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() {
		c.service.connectionClosed(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var env game.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "err", err)
			}
			return
		}
		c.service.Dispatch(c, &env)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("write message", "err", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// decode unmarshals an envelope payload, reporting failures to the client.
func decode[T any](c *Connection, env *game.Envelope) (T, bool) {
	var data T
	if len(env.Data) == 0 {
		return data, true
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.sendError("malformed " + env.Key + " payload")
		return data, false
	}
	return data, true
}
