package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/auth"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/jason-s-yu/trickhouse/internal/seat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	require.NoError(t, auth.Init(time.Hour))
	srv := NewServer(quietLogger(), room.Pacing{})
	t.Cleanup(func() { srv.Orchestrator.Shutdown(context.Background()) })
	return srv
}

const whistWithNorth = `{
	"variant": "whist",
	"seats": [
		{"seat": "north", "name": "ann"},
		{"seat": "east", "bot": true},
		{"seat": "south", "bot": true},
		{"seat": "west", "bot": true}
	],
	"options": {"handsPerGame": 1}
}`

func createRoom(t *testing.T, h http.Handler, body string) (int, createRoomResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/room/create", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var resp createRoomResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func TestCreateRoomHandler(t *testing.T) {
	srv := setupServer(t)
	code, resp := createRoom(t, srv.Routes(), whistWithNorth)
	require.Equal(t, http.StatusOK, code)

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, game.VariantWhist, resp.Variant)
	assert.Equal(t, seat.North, resp.Host)
	assert.Equal(t, 1, resp.Options.Whist.HandsPerGame)
	require.Len(t, resp.Seats, 4)
	require.Len(t, resp.Tokens, 1, "only human seats get tokens")

	sess, err := auth.AuthenticateSession(resp.Tokens[seat.North])
	require.NoError(t, err)
	assert.Equal(t, resp.ID, sess.Room)
	assert.Equal(t, seat.North, sess.Seat)

	rm, ok := srv.Orchestrator.Store().Get(resp.ID)
	require.True(t, ok)
	got, ok := rm.SeatFor(sess.ID)
	require.True(t, ok)
	assert.Equal(t, seat.North, got)
}

func TestCreateRoomHandlerRejects(t *testing.T) {
	srv := setupServer(t)
	h := srv.Routes()
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"variant":`},
		{"unknown variant", `{"variant":"poker","seats":[{"seat":"north"}]}`},
		{"bad option", `{"variant":"whist","options":{"handsPerGame":0}}`},
		{"short table", `{"variant":"bridge","seats":[{"seat":"north"},{"seat":"south"}]}`},
		{"unknown seat", `{"variant":"skitgubbe","seats":[{"seat":"middle"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := createRoom(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
		})
	}
	assert.Empty(t, srv.Orchestrator.Store().List())
}

func TestCreateRoomHandlerStartsAllBotRooms(t *testing.T) {
	srv := setupServer(t)
	code, resp := createRoom(t, srv.Routes(), `{
		"variant": "skitgubbe",
		"seats": [{"seat": "north", "bot": true}, {"seat": "south", "bot": true}],
		"start": true,
		"seed": 11
	}`)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Tokens)

	assert.Eventually(t, func() bool {
		v, err := srv.Orchestrator.AdminSnapshot(resp.ID)
		return err == nil && v.Phase == game.PhaseGameEnd
	}, 10*time.Second, 10*time.Millisecond)
}

func TestListRoomsHandler(t *testing.T) {
	srv := setupServer(t)
	h := srv.Routes()
	_, created := createRoom(t, h, whistWithNorth)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/room/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "session", "sessions stay private")

	var rooms []roomInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, created.ID, rooms[0].ID)
}

func TestRoomWSRejectsBeforeUpgrade(t *testing.T) {
	srv := setupServer(t)
	h := srv.Routes()
	_, a := createRoom(t, h, whistWithNorth)
	_, b := createRoom(t, h, whistWithNorth)

	get := func(path string) int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}
	assert.Equal(t, http.StatusBadRequest, get("/room/ws/not-a-uuid"))
	assert.Equal(t, http.StatusNotFound, get("/room/ws/"+uuid.NewString()))
	assert.Equal(t, http.StatusUnauthorized, get("/room/ws/"+a.ID.String()))
	assert.Equal(t, http.StatusUnauthorized, get("/room/ws/"+a.ID.String()+"?token=garbage"))
	assert.Equal(t, http.StatusForbidden, get("/room/ws/"+a.ID.String()+"?token="+b.Tokens[seat.North]))
}

// wsMessage is the client's view of a server message.
type wsMessage struct {
	Type    string          `json:"type"`
	Seat    *seat.Seat      `json:"seat"`
	Payload json.RawMessage `json:"payload"`
}

func dialRoom(t *testing.T, ctx context.Context, ts *httptest.Server, roomID uuid.UUID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/room/ws/" + roomID.String() + "?token=" + token
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{Subprotocol}})
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func TestRoomWSPlaysAMove(t *testing.T) {
	srv := setupServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()
	_, resp := createRoom(t, srv.Routes(), whistWithNorth)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c := dialRoom(t, ctx, ts, resp.ID, resp.Tokens[seat.North])

	var joined wsMessage
	require.NoError(t, wsjson.Read(ctx, c, &joined))
	require.Equal(t, "joined", joined.Type)

	require.NoError(t, wsjson.Write(ctx, c, ClientMessage{Type: "bogus"}))
	var rejected wsMessage
	require.NoError(t, wsjson.Read(ctx, c, &rejected))
	require.Equal(t, string(game.EventError), rejected.Type)
	assert.Contains(t, string(rejected.Payload), string(game.CodeValidation))

	seed := int64(3)
	require.NoError(t, wsjson.Write(ctx, c, ClientMessage{Type: "start", Seed: &seed}))

	played := false
	for !played {
		var msg wsMessage
		require.NoError(t, wsjson.Read(ctx, c, &msg))
		switch game.EventType(msg.Type) {
		case game.EventState:
			var st struct {
				View struct {
					LegalMoves []game.Move `json:"legalMoves"`
				} `json:"view"`
			}
			require.NoError(t, json.Unmarshal(msg.Payload, &st))
			if len(st.View.LegalMoves) > 0 {
				m := st.View.LegalMoves[0]
				require.NoError(t, wsjson.Write(ctx, c, ClientMessage{Type: "move", Move: &m}))
			}
		case game.EventCardPlayed:
			played = msg.Seat != nil && *msg.Seat == seat.North
		}
	}

	v, err := srv.Orchestrator.AdminSnapshot(resp.ID)
	require.NoError(t, err)
	assert.Len(t, v.Hands[seat.North], 12)
}

func TestRoomWSLeaveClosesRoomWithoutHumans(t *testing.T) {
	srv := setupServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()
	_, resp := createRoom(t, srv.Routes(), whistWithNorth)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c := dialRoom(t, ctx, ts, resp.ID, resp.Tokens[seat.North])
	var joined wsMessage
	require.NoError(t, wsjson.Read(ctx, c, &joined))

	require.NoError(t, wsjson.Write(ctx, c, ClientMessage{Type: "leave"}))
	assert.Eventually(t, func() bool {
		_, ok := srv.Orchestrator.Store().Get(resp.ID)
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}
