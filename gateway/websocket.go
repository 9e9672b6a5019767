package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Push-only endpoint; no cross-origin state to protect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// clientCommand is what a connected client may send. The only command is
// "identify", which binds the socket to a notification topic.
type clientCommand struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

const identifyDeadline = 30 * time.Second

// handleWebSocket upgrades the connection and serves the identify loop.
// The socket receives pushes for its identified topic until it closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	go s.serveClient(conn)
}

func (s *Server) serveClient(conn *websocket.Conn) {
	defer s.topics.Remove(conn)

	identified := false
	for {
		if !identified {
			// A client that never identifies is dropped.
			_ = conn.SetReadDeadline(time.Now().Add(identifyDeadline))
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			// Not a command; ignore.
			continue
		}

		if cmd.Type == "identify" && cmd.Topic != "" {
			s.topics.Identify(conn, cmd.Topic)
			identified = true
			s.logger.Debug("websocket client identified", "topic", cmd.Topic)
		}
	}
}
