package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/monitoring"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendQueue is how many frames may wait for a slow client before it
	// is disconnected.
	sendQueue = 256

	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame kinds.
const (
	KindSnapshot = "snapshot"
	KindEvent    = "event"
	KindControl  = "control"
)

type snapshotFrame struct {
	Kind  string    `json:"kind"`
	State sim.State `json:"state"`
}

type eventFrame struct {
	Kind  string       `json:"kind"`
	Event events.Event `json:"event"`
}

type controlFrame struct {
	Kind   string `json:"kind"`
	Action string `json:"action"`
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes simulation events to every connected WebSocket client and
// accepts pause/resume/step controls from them. It is an events.Sink.
type Hub struct {
	sim     *sim.Simulator
	logger  *zap.Logger
	metrics *monitoring.Metrics // optional

	mu      sync.RWMutex
	clients map[uuid.UUID]*client // Protected by mu
	closed  bool                  // Protected by mu
}

// NewHub creates a hub. metrics may be nil.
func NewHub(s *sim.Simulator, logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sim:     s,
		logger:  logger.Named("ws"),
		metrics: metrics,
		clients: make(map[uuid.UUID]*client),
	}
}

// Emit implements events.Sink. It runs inside a simulator command, so it
// only queues frames and never touches the simulator.
func (h *Hub) Emit(e events.Event) {
	frame, err := sonic.Marshal(eventFrame{Kind: KindEvent, Event: e})
	if err != nil {
		h.logger.Error("encode event frame", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- frame:
			if h.metrics != nil {
				h.metrics.RecordWSMessage("out", KindEvent)
			}
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", zap.Stringer("client", c.id))
		h.unregister(c)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection upgrades the request and serves the client until it
// disconnects. The first frame is always a snapshot. Events racing the
// snapshot may also be delivered after it; applying them again is harmless
// for a client that replaces its state on every snapshot.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{id: uuid.New(), conn: conn, send: make(chan []byte, sendQueue)}
	if !h.register(cl) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	snapshot, err := sonic.Marshal(snapshotFrame{Kind: KindSnapshot, State: h.sim.State()})
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err = conn.WriteMessage(websocket.TextMessage, snapshot)
	}
	if err != nil {
		h.logger.Warn("send snapshot failed", zap.Stringer("client", cl.id), zap.Error(err))
		h.unregister(cl)
		return
	}

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("client connected", zap.Stringer("client", c.id))
	return true
}

// unregister removes c and closes its queue, which ends its write pump.
// Safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("client disconnected", zap.Stringer("client", c.id))
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Stringer("client", c.id), zap.Error(err))
			}
			return
		}

		var msg controlFrame
		if err := sonic.Unmarshal(data, &msg); err != nil || msg.Kind != KindControl {
			continue
		}
		h.control(msg.Action)
	}
}

// control applies one client command. Unknown actions are ignored.
func (h *Hub) control(action string) {
	switch action {
	case "pause":
		h.sim.Pause()
	case "resume":
		h.sim.Resume()
	case "step":
		h.sim.Step()
		if h.metrics != nil {
			h.metrics.RecordStep()
		}
	default:
		return
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("in", action)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
	return nil
}
