package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/monitoring"
)

type frame struct {
	Kind  string         `json:"kind"`
	State map[string]any `json:"state"`
	Event struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	} `json:"event"`
}

func newTestHub(t *testing.T) (*Hub, *sim.Simulator, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil, nil, monitoring.NewMetrics())
	s := sim.New(sim.WithSink(hub))
	hub.sim = s

	router := gin.New()
	router.GET("/ws", hub.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, s, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, sonic.Unmarshal(data, &f))
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestSnapshotThenEvents(t *testing.T) {
	hub, s, url := newTestHub(t)
	s.CreateProcess("before", 1)

	conn := dial(t, url)
	first := read(t, conn)
	assert.Equal(t, KindSnapshot, first.Kind)
	assert.Contains(t, first.State["processes"], "P1")

	waitFor(t, func() bool { return hub.Clients() == 1 })
	s.CreateProcess("after", 1)

	ev := read(t, conn)
	assert.Equal(t, KindEvent, ev.Kind)
	assert.Equal(t, "process.created", ev.Event.Type)
	assert.Equal(t, "P2", ev.Event.Payload["pid"])
}

func TestBroadcastToEveryClient(t *testing.T) {
	hub, s, url := newTestHub(t)
	a, b := dial(t, url), dial(t, url)
	read(t, a)
	read(t, b)
	waitFor(t, func() bool { return hub.Clients() == 2 })

	_, err := s.CreateChannel(sim.ChannelMQ, 2, "")
	require.NoError(t, err)

	assert.Equal(t, "channel.created", read(t, a).Event.Type)
	assert.Equal(t, "channel.created", read(t, b).Event.Type)
}

func TestControlMessages(t *testing.T) {
	hub, s, url := newTestHub(t)
	conn := dial(t, url)
	read(t, conn)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "control", "action": "pause"}))
	waitFor(t, s.Paused)
	assert.Equal(t, "sim.paused", read(t, conn).Event.Type)

	// Junk and unknown actions are ignored.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "control", "action": "explode"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "chat", "action": "resume"}))

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "control", "action": "resume"}))
	waitFor(t, func() bool { return !s.Paused() })
	assert.Equal(t, "sim.resumed", read(t, conn).Event.Type)

	p1 := s.CreateProcess("a", 1)
	p2 := s.CreateProcess("b", 1)
	ch, _ := s.CreateChannel(sim.ChannelPipe, 1, "")
	require.NoError(t, s.SendMessage(p1.PID, p2.PID, ch.CID, "x"))
	for i := 0; i < 4; i++ {
		read(t, conn)
	}

	require.NoError(t, conn.WriteJSON(map[string]string{"kind": "control", "action": "step"}))
	assert.Equal(t, "message.delivered", read(t, conn).Event.Type)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, _, url := newTestHub(t)
	conn := dial(t, url)
	read(t, conn)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })
}

func TestCloseRefusesNewClients(t *testing.T) {
	hub, _, url := newTestHub(t)
	require.NoError(t, hub.Close())

	conn := dial(t, url)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
