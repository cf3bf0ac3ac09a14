package gateway

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, turns TurnHandler) (*websocket.Conn, func()) {
	t.Helper()
	s := newTestServer(t, nil, turns, nil)
	srv := httptest.NewServer(s.Handler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readMsg(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWS_ChatMessage_ShouldReplyBetweenTypingMarkers(t *testing.T) {
	conn, done := dialWS(t, &fakeTurns{answer: "Two deals in underwriting."})
	defer done()

	if err := conn.WriteJSON(WSMessage{Type: "chat", Content: "pipeline?", SessionID: "desk-1"}); err != nil {
		t.Fatal(err)
	}

	start := readMsg(t, conn)
	if start.Type != "typing_start" || start.SessionID != "desk-1" {
		t.Errorf("first message: %+v", start)
	}
	reply := readMsg(t, conn)
	if reply.Type != "chat" || reply.Content != "Two deals in underwriting." {
		t.Errorf("reply: %+v", reply)
	}
	stop := readMsg(t, conn)
	if stop.Type != "typing_stop" {
		t.Errorf("last message: %+v", stop)
	}
}

func TestWS_ChatWithoutSessionID_ShouldUseDefault(t *testing.T) {
	turns := &fakeTurns{answer: "ok"}
	conn, done := dialWS(t, turns)
	defer done()

	if err := conn.WriteJSON(WSMessage{Type: "chat", Content: "hello"}); err != nil {
		t.Fatal(err)
	}
	readMsg(t, conn) // typing_start
	reply := readMsg(t, conn)

	if reply.SessionID != "default" {
		t.Errorf("session: got %q", reply.SessionID)
	}
	if turns.lastSID != "default" {
		t.Errorf("turn session: got %q", turns.lastSID)
	}
}

func TestWS_NonChatMessage_ShouldEcho(t *testing.T) {
	conn, done := dialWS(t, &fakeTurns{answer: "unused"})
	defer done()

	if err := conn.WriteJSON(WSMessage{Type: "ping", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	reply := readMsg(t, conn)

	if reply.Type != "ping" || reply.Content != "echo: x" {
		t.Errorf("reply: %+v", reply)
	}
}

func TestWS_InvalidJSON_ShouldReturnErrorMessage(t *testing.T) {
	conn, done := dialWS(t, &fakeTurns{answer: "unused"})
	defer done()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	reply := readMsg(t, conn)

	if reply.Type != "error" || reply.Content != "invalid JSON" {
		t.Errorf("reply: %+v", reply)
	}
}
