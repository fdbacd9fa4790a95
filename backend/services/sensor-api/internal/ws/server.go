package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxClientFrame = 4096
	subscriberBuf  = 64
)

// Server upgrades authenticated HTTP requests to live reading streams.
type Server struct {
	hub          *Hub
	logger       *zap.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server. checkOrigin may be nil to accept every origin.
func NewServer(hub *Hub, writeTimeout time.Duration, checkOrigin func(r *http.Request) bool, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Server{
		hub:          hub,
		logger:       logger,
		writeTimeout: writeTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleStream is the HTTP handler for GET /sensors/stream. An optional equipmentId
// query parameter restricts the feed to one station.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.URL.Query().Get("equipmentId")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := s.hub.Subscribe(equipmentID, subscriberBuf)
	s.logger.Info("stream subscriber connected", zap.String("equipment_id", equipmentID), zap.Int("subscribers", s.hub.Len()))

	done := make(chan struct{})
	go s.readPump(conn, done)
	s.writePump(conn, sub, done)

	s.hub.Unsubscribe(sub)
	_ = conn.Close()
	s.logger.Info("stream subscriber disconnected", zap.String("equipment_id", equipmentID))
}

// readPump discards client frames and signals done once the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, sub *Subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-sub.C():
			if !ok {
				_ = s.write(conn, websocket.CloseMessage, []byte{})
				return
			}
			if err := s.write(conn, websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.write(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return conn.WriteMessage(messageType, data)
}
