package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Server accepts WebSocket clients and hands them to the game service.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger
	service  *GameService

	mu          sync.Mutex
	connections map[*Connection]bool
	httpServer  *http.Server
}

// NewServer creates the WebSocket frontend.
func NewServer(addr string, service *GameService, logger *log.Logger) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// The game client is served from another origin.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		service:     service,
		connections: make(map[*Connection]bool),
	}
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.mu.Lock()
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	srv := s.httpServer
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	s.logger.Info("listening", "addr", s.addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "err", err)
		return
	}

	conn := NewConnection(ws, s.service.NextPlayerID(), s.logger, s.service)
	s.mu.Lock()
	s.connections[conn] = true
	s.mu.Unlock()
	s.service.register(conn)

	conn.Start()
	s.logger.Info("client connected", "player", conn.playerID, "remote", r.RemoteAddr)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
