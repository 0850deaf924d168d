package controller

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/benbeisheim/consolechess/internal/model"
	"github.com/benbeisheim/consolechess/internal/service"
	"github.com/benbeisheim/consolechess/internal/ws"
	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost"

// newTestServer serves the routes on a loopback port and returns the
// manager behind them together with the listen address.
func newTestServer(t *testing.T) (*service.GameManager, *service.GameService, string) {
	t.Helper()
	gm := service.NewGameManager(time.Minute)
	gs := service.NewGameService(gm)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(app, gs, []string{testOrigin})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })

	return gm, gs, ln.Addr().String()
}

func dial(t *testing.T, addr, path, playerID string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Origin", testOrigin)
	header.Set("X-Player-ID", playerID)

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+path, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, ws.MessageTypeError, msg.Type, "payload %s", msg.Payload)
	var payload ws.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return payload.Error
}

func readState(t *testing.T, conn *websocket.Conn) model.GameState {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, ws.MessageTypeGameState, msg.Type, "payload %s", msg.Payload)
	var state model.GameState
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	return state
}

func seatedGame(t *testing.T, gs *service.GameService) string {
	t.Helper()
	gameID, err := gs.CreateGame()
	require.NoError(t, err)
	_, err = gs.JoinGame(gameID, "alice")
	require.NoError(t, err)
	_, err = gs.JoinGame(gameID, "bob")
	require.NoError(t, err)
	return gameID
}

func TestGameSocketMessages(t *testing.T) {
	_, gs, addr := newTestServer(t)
	gameID := seatedGame(t, gs)

	conn := dial(t, addr, "/ws/game/"+gameID, "alice")
	state := readState(t, conn)
	assert.Equal(t, model.White, state.ToMove)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "malformed message", readError(t, conn))

	require.NoError(t, conn.WriteJSON(ws.Message{Type: "resign"}))
	assert.Equal(t, "unknown message type: resign", readError(t, conn))

	illegal := `{"type":"move","payload":{"from":{"row":0,"col":2},"to":{"row":1,"col":3}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(illegal)))
	assert.Contains(t, readError(t, conn), model.ErrIllegalMove.Error())

	legal := `{"type":"move","payload":{"from":{"row":1,"col":4},"to":{"row":3,"col":4}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(legal)))
	state = readState(t, conn)
	assert.Equal(t, model.Black, state.ToMove)
	require.NotNil(t, state.LastMove)
	assert.Equal(t, "e2-e4", state.LastMove.Notation)
}

func TestGameSocketRefusesSecondConnection(t *testing.T) {
	_, gs, addr := newTestServer(t)
	gameID := seatedGame(t, gs)

	first := dial(t, addr, "/ws/game/"+gameID, "alice")
	readState(t, first)

	second := dial(t, addr, "/ws/game/"+gameID, "alice")
	assert.Contains(t, readError(t, second), model.ErrAlreadyConnected.Error())
	_, _, err := second.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

	// The refused socket must not have detached the first one.
	move := model.MoveRequest{From: model.Square{Row: 1, Col: 3}, To: model.Square{Row: 3, Col: 3}}
	require.NoError(t, gs.HandleMove(gameID, "alice", move))
	state := readState(t, first)
	assert.Equal(t, "d2-d4", state.LastMove.Notation)
}

func TestGameSocketUnknownGame(t *testing.T) {
	_, _, addr := newTestServer(t)

	conn := dial(t, addr, "/ws/game/nope", "alice")
	assert.Contains(t, readError(t, conn), service.ErrGameNotFound.Error())
}

func TestMatchmakingSocketDeliversMatch(t *testing.T) {
	gm, gs, addr := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gm.Run(ctx, 10*time.Millisecond)

	alice := dial(t, addr, "/ws/matchmaking", "alice")
	bob := dial(t, addr, "/ws/matchmaking", "bob")

	var events []model.MatchFoundEvent
	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readMessage(t, conn)
		require.Equal(t, ws.MessageTypeMatchFound, msg.Type)
		var event model.MatchFoundEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		events = append(events, event)
	}

	assert.Equal(t, events[0].GameID, events[1].GameID)
	assert.NotEqual(t, events[0].Color, events[1].Color)

	state, err := gs.GetGameState(events[0].GameID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, []string{state.Players.White.ID, state.Players.Black.ID})
}

func TestMatchmakingSocketLeavesQueueOnClose(t *testing.T) {
	_, gs, addr := newTestServer(t)

	conn := dial(t, addr, "/ws/matchmaking", "carol")
	require.Eventually(t, func() bool {
		return errors.Is(gs.JoinMatchmaking("carol"), model.ErrAlreadyQueued)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return gs.JoinMatchmaking("carol") == nil
	}, 2*time.Second, 10*time.Millisecond, "closing the socket takes the player out of the queue")
}
