package session

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/devcrafthub/client-portal/pkg/logging"
)

// StreamEvent is the wire format pushed to connected clients.
type StreamEvent struct {
	Type    string   `json:"type"` // "auth_change" or "notice"
	Session *Session `json:"session,omitempty"`
	Level   string   `json:"level,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Stream pushes auth changes and non-blocking notices to browser
// clients over a websocket. Slow or dead connections are dropped
// rather than blocking the broadcast.
type Stream struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conns    map[*websocket.Conn]chan StreamEvent
	logger   *logging.Logger
}

// NewStream wires a stream to the manager: every session change is
// broadcast as an auth_change event.
func NewStream(manager *Manager, logger *logging.Logger) *Stream {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Stream{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns:  make(map[*websocket.Conn]chan StreamEvent),
		logger: logger,
	}
	if manager != nil {
		manager.Subscribe(func(sess Session) {
			s.broadcast(StreamEvent{Type: "auth_change", Session: &sess})
		})
	}
	return s
}

// Notify broadcasts a non-blocking notice (for example a failed
// read-receipt sync) to all connected clients.
func (s *Stream) Notify(level, message string) {
	s.broadcast(StreamEvent{Type: "notice", Level: level, Message: message})
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	events := make(chan StreamEvent, 16)
	s.mu.Lock()
	s.conns[conn] = events
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	// Reader goroutine: we don't expect client messages, but reading
	// is required to observe close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

func (s *Stream) broadcast(evt StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, events := range s.conns {
		select {
		case events <- evt:
		default:
			s.logger.Warn("dropping slow session stream client")
			delete(s.conns, conn)
			_ = conn.Close()
		}
	}
}
