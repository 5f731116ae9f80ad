package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, hub *Hub, handler EventHandler) *httptest.Server {
	t.Helper()
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Attach(hub, conn, r.URL.Query().Get("user"), "acad", handler, nil)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var out Outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestHubBroadcastsToRoomMembers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	handler := func(_ context.Context, c *Client, evt Event) {
		switch evt.Type {
		case "join":
			c.Join(evt.RoomID)
			c.Send(Outbound{Type: "joined", RoomID: evt.RoomID})
		case "say":
			var text string
			_ = json.Unmarshal(evt.Data, &text)
			hub.Broadcast(evt.RoomID, Outbound{Type: "message", RoomID: evt.RoomID, Data: c.UserID + ":" + text})
		}
	}
	srv := startServer(t, hub, handler)

	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	require.NoError(t, alice.WriteJSON(Event{Type: "join", RoomID: "r1"}))
	assert.Equal(t, "joined", readFrame(t, alice).Type)
	require.NoError(t, bob.WriteJSON(Event{Type: "join", RoomID: "r1"}))
	assert.Equal(t, "joined", readFrame(t, bob).Type)
	assert.Equal(t, 2, hub.RoomSize("r1"))

	require.NoError(t, alice.WriteJSON(Event{Type: "say", RoomID: "r1", Data: json.RawMessage(`"hi"`)}))
	assert.Equal(t, "alice:hi", readFrame(t, bob).Data)
	assert.Equal(t, "alice:hi", readFrame(t, alice).Data)
}

func TestMalformedEventReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)
	srv := startServer(t, hub, nil)

	conn := dial(t, srv, "carol")
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	out := readFrame(t, conn)
	assert.Equal(t, "error", out.Type)
	assert.Equal(t, "malformed event", out.Error)
}

func TestDisconnectLeavesRooms(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)
	srv := startServer(t, hub, func(_ context.Context, c *Client, evt Event) {
		c.Join(evt.RoomID)
		c.Send(Outbound{Type: "joined"})
	})

	conn := dial(t, srv, "dave")
	require.NoError(t, conn.WriteJSON(Event{Type: "join", RoomID: "r2"}))
	readFrame(t, conn)
	require.Equal(t, 1, hub.RoomSize("r2"))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.RoomSize("r2") == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestFirstEventCanJoinRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)
	srv := startServer(t, hub, func(_ context.Context, c *Client, evt Event) {
		c.Join(evt.RoomID)
		c.Send(Outbound{Type: "joined", RoomID: evt.RoomID})
	})

	for i := 0; i < 20; i++ {
		conn := dial(t, srv, "erin")
		require.NoError(t, conn.WriteJSON(Event{Type: "join", RoomID: "r3"}))
		assert.Equal(t, "joined", readFrame(t, conn).Type)
		conn.Close()
	}
	assert.Eventually(t, func() bool { return hub.RoomSize("r3") == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestAttachAfterStopClosesConnection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	attached := make(chan *Client, 1)
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		attached <- Attach(hub, conn, "frank", "acad", nil, nil)
	}))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, "frank")
	select {
	case client := <-attached:
		assert.Nil(t, client)
	case <-time.After(2 * time.Second):
		t.Fatal("Attach blocked on a stopped hub")
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.ClientCount())
}

func TestJoinUsersSubscribesConnectedClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)
	srv := startServer(t, hub, nil)

	gina := dial(t, srv, "gina")
	dial(t, srv, "hank")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.JoinUsers("r4", "acad", []string{"gina", "absent"})
	hub.JoinUsers("r4", "elsewhere", []string{"hank"})
	assert.Equal(t, 1, hub.RoomSize("r4"))

	hub.Broadcast("r4", Outbound{Type: "created", RoomID: "r4"})
	assert.Equal(t, "created", readFrame(t, gina).Type)
}
