package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WSMessage is the JSON message protocol for the WebSocket endpoint.
// Example: {"type": "chat", "content": "show the pipeline", "sessionId": "desk-1"}
type WSMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId,omitempty"`
}

// jsonMarshal is used when encoding WSMessage; tests may replace it to force
// Marshal errors. Access is protected by jsonMarshalMu for race-safe swaps.
var (
	jsonMarshalMu sync.RWMutex
	jsonMarshal   = json.Marshal
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS upgrades the request to WebSocket and runs a read loop, responding
// on the same connection. "chat" messages become turns for the message's
// session; messages without a SessionID share the "default" session with the
// rest of the gateway. Writes are serialized with a mutex so typing markers
// and replies never interleave.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var in WSMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			reply := WSMessage{Type: "error", Content: "invalid JSON"}
			writeWSMessage(conn, &writeMu, &reply)
			continue
		}

		sessionID := in.SessionID
		if sessionID == "" {
			sessionID = "default"
		}

		if in.Type != "chat" {
			out := WSMessage{Type: in.Type, Content: "echo: " + in.Content, SessionID: sessionID}
			writeWSMessage(conn, &writeMu, &out)
			continue
		}

		typingStart := WSMessage{Type: "typing_start", SessionID: sessionID}
		writeWSMessage(conn, &writeMu, &typingStart)

		content, err := s.turns.HandleTurn(r.Context(), sessionID, in.Content)
		if err != nil {
			content = "error: " + err.Error()
		}
		out := WSMessage{Type: "chat", Content: content, SessionID: sessionID}
		writeWSMessage(conn, &writeMu, &out)

		typingStop := WSMessage{Type: "typing_stop", SessionID: sessionID}
		writeWSMessage(conn, &writeMu, &typingStop)
	}
}

func writeWSMessage(conn *websocket.Conn, mu *sync.Mutex, msg *WSMessage) {
	jsonMarshalMu.RLock()
	marshal := jsonMarshal
	jsonMarshalMu.RUnlock()
	data, err := marshal(msg)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
