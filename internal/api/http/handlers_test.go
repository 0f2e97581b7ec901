package http

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ipcsim/internal/domain/events"
	"github.com/GriffinCanCode/ipcsim/internal/domain/sim"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/eventlog"
	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/monitoring"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	sim    *sim.Simulator
	store  *eventlog.Store
}

func newTestServer(t *testing.T, withStore bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{}
	var sink events.Sink = events.Discard
	opts := []Option{
		WithClock(func() time.Time { return testNow }),
		WithDefaultBufferSize(3),
		WithMetrics(monitoring.NewMetrics()),
	}
	if withStore {
		store, err := eventlog.Open(filepath.Join(t.TempDir(), "events.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		ts.store = store
		sink = events.SinkFunc(func(e events.Event) {
			require.NoError(t, store.Append(context.Background(), e))
		})
		opts = append(opts, WithEventStore(store))
	}

	ts.sim = sim.New(sim.WithSink(sink), sim.WithClock(func() time.Time { return testNow }))
	ts.router = gin.New()
	NewHandlers(ts.sim, opts...).Register(ts.router)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCreateProcessDefaults(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do("POST", "/api/process", "")
	require.Equal(t, http.StatusOK, w.Code)
	p := decode(t, w)["process"].(map[string]any)
	assert.Equal(t, "P1", p["pid"])
	assert.Equal(t, "proc-1704067200000", p["name"])
	assert.Equal(t, 1.0, p["priority"])
	assert.Equal(t, "ready", p["state"])

	w = ts.do("POST", "/api/process", `{"name":"writer","priority":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	p = decode(t, w)["process"].(map[string]any)
	assert.Equal(t, "P2", p["pid"])
	assert.Equal(t, "writer", p["name"])
	assert.Equal(t, 4.0, p["priority"])
}

func TestCreateChannel(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do("POST", "/api/channel", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	ch := decode(t, w)["channel"].(map[string]any)
	assert.Equal(t, "C1", ch["cid"])
	assert.Equal(t, "pipe", ch["type"])
	assert.Equal(t, "pipe-C1", ch["name"])
	assert.Equal(t, 3.0, ch["bufferSize"])

	w = ts.do("POST", "/api/channel", `{"type":"mq","bufferSize":0,"name":"q"}`)
	require.Equal(t, http.StatusOK, w.Code)
	ch = decode(t, w)["channel"].(map[string]any)
	assert.Equal(t, 0.0, ch["bufferSize"])
	assert.Equal(t, "q", ch["name"])

	w = ts.do("POST", "/api/channel", `{"type":"socket"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["ok"])

	w = ts.do("POST", "/api/channel", `{"bufferSize":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do("POST", "/api/channel", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSend(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{"name":"a"}`)
	ts.do("POST", "/api/process", `{"name":"b"}`)
	ts.do("POST", "/api/channel", `{"bufferSize":1}`)
	ts.do("POST", "/api/channel", `{"type":"shared"}`)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"enqueue", `{"from":"P1","to":"P2","channelId":"C1","payload":"hi"}`, http.StatusOK},
		{"full buffer still ok", `{"from":"P1","to":"P2","channelId":"C1","payload":"again"}`, http.StatusOK},
		{"unknown channel", `{"from":"P1","to":"P2","channelId":"C9"}`, http.StatusBadRequest},
		{"missing channel", `{"from":"P1","to":"P2"}`, http.StatusBadRequest},
		{"shared write", `{"from":"P1","channelId":"C2","payload":{"key":"x","value":42}}`, http.StatusOK},
		{"shared write without key", `{"from":"P1","channelId":"C2","payload":{"value":42}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do("POST", "/api/send", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	st := ts.sim.State()
	assert.Len(t, st.Channels["C1"].Buffer, 1)
	assert.Equal(t, sim.StateBlocked, st.Processes["P1"].State)
	assert.Equal(t, 42.0, st.Channels["C2"].Memory["x"].Value)
}

func TestStepReportsDelivery(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/channel", `{}`)
	ts.do("POST", "/api/send", `{"from":"P1","to":"P2","channelId":"C1","payload":1}`)

	w := ts.do("POST", "/api/step", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"deadlocks":[]}`, w.Body.String())

	p2, _ := ts.sim.Process("P2")
	assert.Equal(t, sim.StateRunning, p2.State)
}

func TestKill(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{}`)

	w := ts.do("POST", "/api/kill", `{"pid":"P9"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"process not found"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, ts.do("POST", "/api/kill", `{}`).Code)
	assert.Equal(t, http.StatusOK, ts.do("POST", "/api/kill", `{"pid":"P1"}`).Code)
	assert.Empty(t, ts.sim.State().Processes)
}

func TestLockRoutes(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/channel", `{}`)

	w := ts.do("POST", "/api/acquireLock", `{"pid":"P1","channelId":"C1","lockName":"L"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"acquired":true,"lock":"C1:L"}`, w.Body.String())

	w = ts.do("POST", "/api/acquireLock", `{"pid":"P2","channelId":"C1","lockName":"L"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["acquired"])

	assert.Equal(t, http.StatusNotFound, ts.do("POST", "/api/acquireLock", `{"pid":"P7","channelId":"C1","lockName":"L"}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do("POST", "/api/acquireLock", `{"pid":"P1","channelId":"C7","lockName":"L"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do("POST", "/api/acquireLock", `{"pid":"P1","channelId":"C1"}`).Code)

	w = ts.do("POST", "/api/releaseLock", `{"ownerPid":"P2","lockFullName":"C1:L"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"could not release lock"}`, w.Body.String())

	w = ts.do("POST", "/api/releaseLock", `{"ownerPid":"P1","lockFullName":"C1:L"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	lv, _ := ts.sim.Lock(sim.LockID{Channel: "C1", Name: "L"})
	assert.Equal(t, sim.PID("P2"), lv.Owner)
}

func TestDeadlockRoutes(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/channel", `{}`)
	for _, body := range []string{
		`{"pid":"P1","channelId":"C1","lockName":"A"}`,
		`{"pid":"P2","channelId":"C1","lockName":"B"}`,
		`{"pid":"P1","channelId":"C1","lockName":"B"}`,
		`{"pid":"P2","channelId":"C1","lockName":"A"}`,
	} {
		require.Equal(t, http.StatusOK, ts.do("POST", "/api/acquireLock", body).Code)
	}

	w := ts.do("GET", "/api/waitfor", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	graph := body["graph"].(map[string]any)
	assert.Len(t, graph["edges"], 2)
	assert.NotContains(t, body, "cycles")

	w = ts.do("GET", "/api/waitfor?cycles=true", "")
	assert.Equal(t, []any{[]any{"P1", "P2"}}, decode(t, w)["cycles"])

	w = ts.do("POST", "/api/detect", "")
	cycles := decode(t, w)["cycles"].([]any)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []any{"P1", "P2"}, cycles[0])

	w = ts.do("POST", "/api/step", "")
	assert.Len(t, decode(t, w)["deadlocks"], 1)
}

func TestResetPauseResume(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{}`)

	assert.JSONEq(t, `{"ok":true,"paused":true}`, ts.do("POST", "/api/pause", "").Body.String())
	assert.True(t, ts.sim.Paused())
	assert.JSONEq(t, `{"ok":true,"paused":false}`, ts.do("POST", "/api/resume", "").Body.String())
	assert.False(t, ts.sim.Paused())

	assert.Equal(t, http.StatusOK, ts.do("POST", "/api/reset", "").Code)
	assert.Empty(t, ts.sim.State().Processes)

	w := ts.do("POST", "/api/process", `{}`)
	assert.Equal(t, "P1", decode(t, w)["process"].(map[string]any)["pid"])
}

func TestStateAndHealth(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/channel", `{}`)

	state := decode(t, ts.do("GET", "/api/state", ""))
	assert.Contains(t, state["processes"], "P1")
	assert.Contains(t, state["channels"], "C1")
	assert.Equal(t, false, state["paused"])

	w := ts.do("GET", "/health", "")
	assert.JSONEq(t, `{"status":"healthy","processes":1,"channels":1,"paused":false,"eventlog":false}`, w.Body.String())
}

func TestEventRoutesDisabled(t *testing.T) {
	ts := newTestServer(t, false)

	assert.Equal(t, http.StatusServiceUnavailable, ts.do("GET", "/api/events", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do("GET", "/api/events/export", "").Code)
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/channel", `{}`)

	w := ts.do("GET", "/api/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	require.Len(t, rows, 3)
	assert.Equal(t, "channel.created", rows[0].(map[string]any)["type"])
	assert.Equal(t, float64(testNow.UnixMilli()), rows[0].(map[string]any)["time"])

	w = ts.do("GET", "/api/events?limit=1", "")
	assert.Len(t, decode(t, w)["rows"], 1)

	assert.Equal(t, http.StatusBadRequest, ts.do("GET", "/api/events?limit=zero", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do("GET", "/api/events?limit=-3", "").Code)
}

func TestExportEvents(t *testing.T) {
	ts := newTestServer(t, true)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/kill", `{"pid":"P1"}`)

	w := ts.do("GET", "/api/events/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))

	zr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	var types []string
	scanner := bufio.NewScanner(zr)
	for scanner.Scan() {
		var r eventlog.Record
		require.NoError(t, sonic.Unmarshal(scanner.Bytes(), &r))
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{"process.created", "process.killed"}, types)
}

func TestAcquireLockAfterKillIsNotFound(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/process", `{}`)
	ts.do("POST", "/api/channel", `{}`)
	require.Equal(t, http.StatusOK, ts.do("POST", "/api/kill", `{"pid":"P2"}`).Code)

	w := ts.do("POST", "/api/acquireLock", `{"pid":"P2","channelId":"C1","lockName":"L"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"process not found"}`, w.Body.String())

	w = ts.do("POST", "/api/acquireLock", `{"pid":"P1","channelId":"C2","lockName":"L"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"channel not found"}`, w.Body.String())
}
