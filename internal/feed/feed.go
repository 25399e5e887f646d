package feed

import (
	"encoding/json"
	log "log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"chief/internal/telemetry"
)

// Server pushes normalized telemetry snapshots to any connected websocket
// client. Overlays and dashboards subscribe to /ws and receive one JSON
// object per poll cycle.
type Server struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades incoming requests and registers the connection.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("feed upgrade failed", "err", err)
			return
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		n := len(s.conns)
		s.mu.Unlock()
		log.Info("feed client connected", "clients", n)

		// Drain reads so pings and close frames are processed. The feed
		// is one-way, so anything the client sends is discarded.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					s.drop(conn)
					return
				}
			}
		}()
	})
}

// Broadcast serializes the snapshot and writes it to every client. Clients
// that fail to accept the write are dropped.
func (s *Server) Broadcast(snap telemetry.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		log.Debug("feed marshal failed", "err", err)
		return
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			s.drop(c)
		}
	}
}

// ClientCount reports the number of connected feed clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.conns[conn]
	delete(s.conns, conn)
	s.mu.Unlock()
	if ok {
		conn.Close()
		log.Info("feed client disconnected")
	}
}
