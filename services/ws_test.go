package services

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

const readTimeout = 5 * time.Second

// startTestServer serves the websocket endpoint on an ephemeral port with
// in-memory collaborators.
func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	coord := NewCoordinator(newMemLedger(), newMemRoundStore())
	r := gin.New()
	r.GET("/ws", coord.HandleWebSocket)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsDial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := ClientMessage{Type: typ}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		msg.Payload = b
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// waitFor reads events until one of the wanted type arrives, skipping
// unrelated broadcasts.
func waitFor(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(readTimeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read while waiting for %s: %v", typ, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("bad event while waiting for %s: %s", typ, data)
		}
		if m["type"] == typ {
			return m
		}
	}
	t.Fatalf("timed out waiting for %s", typ)
	return nil
}

func TestSocket_FullManualGame(t *testing.T) {
	assert := assert.New(t)
	srv := startTestServer(t)
	conn := wsDial(t, srv)

	// Room operations before identify are rejected.
	sendMsg(t, conn, MsgCreateRoom, CreateRoomPayload{Mode: "2/4", RevealMode: "manual"})
	errEvent := waitFor(t, conn, "error")
	assert.Equal("NOT_IDENTIFIED", errEvent["code"])

	sendMsg(t, conn, MsgIdentify, IdentifyPayload{Username: "alice"})
	identity := waitFor(t, conn, "identity_set")
	user := identity["user"].(map[string]any)
	assert.Equal("alice", user["username"])
	assert.Equal(float64(StartingBalance), user["balance"])

	sendMsg(t, conn, MsgCreateRoom, CreateRoomPayload{Mode: "2/4", RevealMode: "manual"})
	joined := waitFor(t, conn, "room_joined")
	room := joined["room"].(map[string]any)
	assert.Equal("waiting", room["status"])
	assert.Equal("2/4", room["mode"])

	sendMsg(t, conn, MsgSetReady, SetReadyPayload{Numbers: []int{1, 2}})
	update := waitFor(t, conn, "room_update")
	players := update["room"].(map[string]any)["players"].([]any)
	assert.True(players[0].(map[string]any)["ready"].(bool))

	sendMsg(t, conn, MsgStartGame, nil)
	started := waitFor(t, conn, "game_started")
	assert.Equal("playing", started["room"].(map[string]any)["status"])

	// Lone player in manual mode: every turn is theirs. Reveal until the
	// whole 4-card deck is open; the {1,2} pick must complete on the way.
	for i := 0; i < 4; i++ {
		sendMsg(t, conn, MsgReveal, nil)
	}

	over := waitFor(t, conn, "game_over")
	winners := over["winners"].([]any)
	assert.Len(winners, 1)
	assert.Equal("alice", winners[0].(map[string]any)["username"])
	assert.Equal(50.0, over["prize_per_winner"], "lone winner takes the whole pot")
}

func TestSocket_JoinUnknownRoom(t *testing.T) {
	srv := startTestServer(t)
	conn := wsDial(t, srv)

	sendMsg(t, conn, MsgIdentify, IdentifyPayload{Username: "bob"})
	waitFor(t, conn, "identity_set")

	sendMsg(t, conn, MsgJoinRoom, JoinRoomPayload{RoomID: "missing"})
	errEvent := waitFor(t, conn, "error")
	assert.Equal(t, "ROOM_NOT_FOUND", errEvent["code"])
}

func TestSocket_MalformedEnvelope(t *testing.T) {
	srv := startTestServer(t)
	conn := wsDial(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	errEvent := waitFor(t, conn, "error")
	assert.Equal(t, "BAD_MESSAGE", errEvent["code"])
}
