package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxeira/realtime/pkg/gateway"
	"github.com/auxeira/realtime/pkg/notifications"
	"github.com/auxeira/realtime/pkg/transport"
)

// stubAuth accepts tokens of the form "user:role".
type stubAuth struct{}

func (stubAuth) Verify(ctx context.Context, creds gateway.Credentials) (gateway.Identity, error) {
	user, role, ok := strings.Cut(creds.Token, ":")
	if !ok || user == "" || role == "" {
		return gateway.Identity{}, errors.New("bad credentials")
	}
	return gateway.Identity{UserID: user, Role: role}, nil
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	srv        *httptest.Server
	gw         *gateway.Gateway
	dispatcher *notifications.Dispatcher
}

func newTestServer(t *testing.T, gwOpts ...gateway.Option) *testServer {
	t.Helper()

	gw := gateway.New(stubAuth{}, gwOpts...)
	storage := notifications.NewMemoryStorage()
	prefs := notifications.NewMemoryPreferenceStore()
	d := notifications.NewDispatcher(storage, prefs, gw)

	h := transport.NewHandler(gw, d)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		_ = d.Close()
		_ = gw.Shutdown(context.Background())
	})
	return &testServer{srv: srv, gw: gw, dispatcher: d}
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

// dial opens a websocket session and consumes the connection_established
// frame.
func dial(t *testing.T, ts *testServer, token string) *websocket.Conn {
	t.Helper()

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	ws, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })

	f := waitFrame(t, ws, gateway.EventConnectionEstablished)
	require.NotNil(t, f)
	return ws
}

// waitFrame reads until a frame of the wanted type arrives, skipping
// unrelated traffic.
func waitFrame(t *testing.T, ws *websocket.Conn, eventType string) *frame {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		err := ws.ReadJSON(&f)
		require.NoError(t, err, "waiting for %q", eventType)
		if f.Type == eventType {
			return &f
		}
	}
}

func send(t *testing.T, ws *websocket.Conn, cmdType string, payload any) {
	t.Helper()

	msg := map[string]any{"type": cmdType}
	if payload != nil {
		msg["data"] = payload
	}
	require.NoError(t, ws.WriteJSON(msg))
}

func TestHandler_Connect(t *testing.T) {
	t.Parallel()

	t.Run("bearer token", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t)
		dial(t, ts, "alice:startup")
		assert.True(t, ts.gw.IsConnected("alice"))
	})

	t.Run("query token for browser clients", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t)
		ws, resp, err := websocket.DefaultDialer.Dial(ts.wsURL()+"?token=bob:investor", nil)
		require.NoError(t, err)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		defer ws.Close()

		waitFrame(t, ws, gateway.EventConnectionEstablished)
		assert.True(t, ts.gw.IsConnected("bob"))
	})

	t.Run("bad token closes with policy violation", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t)
		ws, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), http.Header{
			"Authorization": []string{"Bearer garbage"},
		})
		require.NoError(t, err, "upgrade succeeds; rejection arrives as a close frame")
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		defer ws.Close()

		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = ws.ReadMessage()
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	})
}

func TestHandler_Heartbeat(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ws := dial(t, ts, "alice:startup")

	send(t, ws, transport.CmdHeartbeat, nil)
	waitFrame(t, ws, gateway.EventHeartbeatAck)
}

// Commands other than the explicit heartbeat still count as activity, so a
// chatty client is never reaped as stale.
func TestHandler_CommandsKeepConnectionAlive(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, gateway.WithConfig(gateway.Config{
		HeartbeatInterval: 20 * time.Millisecond,
		StaleThreshold:    100 * time.Millisecond,
		ShutdownGrace:     time.Millisecond,
	}))
	ws := dial(t, ts, "alice:startup")

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		send(t, ws, transport.CmdLeaveRoom, map[string]any{"room_id": "never-joined"})
		time.Sleep(25 * time.Millisecond)
	}
	assert.True(t, ts.gw.IsConnected("alice"), "active client was reaped as stale")
}

func TestHandler_RoomMessaging(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ws := dial(t, ts, "alice:startup")

	send(t, ws, transport.CmdJoinRoom, map[string]any{
		"room_id": "deal_room_42",
		"kind":    gateway.KindTopic,
	})
	waitFrame(t, ws, gateway.EventRoomJoined)

	send(t, ws, transport.CmdSendMessage, map[string]any{
		"room_id": "deal_room_42",
		"content": "hello",
	})
	f := waitFrame(t, ws, gateway.EventRoomMessage)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, "hello", msg["content"])
	assert.Equal(t, "alice", msg["sender_id"])

	send(t, ws, transport.CmdLeaveRoom, map[string]any{"room_id": "deal_room_42"})
	waitFrame(t, ws, gateway.EventRoomLeft)
}

func TestHandler_Notifications(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ws := dial(t, ts, "alice:startup")

	id, err := ts.dispatcher.Send(context.Background(), notifications.Input{
		UserID: "alice",
		Title:  "hello",
	})
	require.NoError(t, err)
	waitFrame(t, ws, notifications.EventNotification)

	send(t, ws, transport.CmdNotificationsGet, map[string]any{})
	f := waitFrame(t, ws, transport.EventNotificationsData)

	var payload struct {
		Notifications []notifications.Notification `json:"notifications"`
		Unread        int                          `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &payload))
	require.Len(t, payload.Notifications, 1)
	assert.Equal(t, id, payload.Notifications[0].ID)
	assert.Equal(t, 1, payload.Unread)

	send(t, ws, transport.CmdMarkRead, map[string]any{
		"notification_ids": []string{id},
	})
	waitFrame(t, ws, notifications.EventMarkedRead)

	countFrame := waitFrame(t, ws, notifications.EventUnreadCount)
	var count map[string]int
	require.NoError(t, json.Unmarshal(countFrame.Data, &count))
	assert.Zero(t, count["unread"])
}

func TestHandler_Preferences(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ws := dial(t, ts, "alice:startup")

	send(t, ws, transport.CmdPreferencesGet, nil)
	f := waitFrame(t, ws, transport.EventPreferencesData)

	var prefs notifications.Preferences
	require.NoError(t, json.Unmarshal(f.Data, &prefs))
	assert.Equal(t, "alice", prefs.UserID)

	// The session identity overrides whatever user id the payload claims.
	prefs.UserID = "mallory"
	prefs.QuietHours.Enabled = true
	send(t, ws, transport.CmdPreferencesUpdate, prefs)

	f = waitFrame(t, ws, transport.EventPreferencesData)
	require.NoError(t, json.Unmarshal(f.Data, &prefs))
	assert.Equal(t, "alice", prefs.UserID)
	assert.True(t, prefs.QuietHours.Enabled)

	stored, err := ts.dispatcher.Preferences(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, stored.QuietHours.Enabled)
}

func TestHandler_BadInput(t *testing.T) {
	t.Parallel()

	t.Run("unknown command", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t)
		ws := dial(t, ts, "alice:startup")

		send(t, ws, "launch_rocket", nil)
		f := waitFrame(t, ws, gateway.EventError)

		var data map[string]string
		require.NoError(t, json.Unmarshal(f.Data, &data))
		assert.Contains(t, data["message"], "unknown command")
	})

	t.Run("malformed frame", func(t *testing.T) {
		t.Parallel()

		ts := newTestServer(t)
		ws := dial(t, ts, "alice:startup")

		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{not json")))
		f := waitFrame(t, ws, gateway.EventError)

		var data map[string]string
		require.NoError(t, json.Unmarshal(f.Data, &data))
		assert.Equal(t, "malformed command", data["message"])
	})
}
