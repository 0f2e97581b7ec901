package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ipcsim/internal/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false
	cfg.EventLog.Path = filepath.Join(t.TempDir(), "events.sqlite3")
	return cfg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServerWiresRoutesAndSinks(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	defer srv.Close()

	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/api/process", `{"name":"writer"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"writer"`)

	require.Eventually(t, func() bool {
		w := do(t, h, http.MethodGet, "/api/events", "")
		if w.Code != http.StatusOK {
			return false
		}
		var resp struct {
			Rows []struct {
				Type string `json:"type"`
			} `json:"rows"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			return false
		}
		return len(resp.Rows) == 1 && resp.Rows[0].Type == "process.created"
	}, 2*time.Second, 10*time.Millisecond)

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ipcsim_processes 1")
	assert.Contains(t, body, "ipcsim_eventlog_written_total")
	assert.Contains(t, body, "ipcsim_http_requests_total")
}

func TestServerWithoutEventLog(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventLog.Enabled = false

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	defer srv.Close()

	w := do(t, srv.Handler(), http.MethodGet, "/api/events", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, srv.Handler(), http.MethodGet, "/metrics", "")
	assert.NotContains(t, w.Body.String(), "ipcsim_eventlog_written_total")
}

func TestServerRejectsBadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Level = "chatty"

	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulator.TickInterval = 5 * time.Millisecond

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	defer srv.Close()

	srv.Simulator().CreateProcess("p", 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunFailsWhenPortIsTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	_, cfg.Server.Port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	cfg.Simulator.TickInterval = 5 * time.Millisecond

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	defer srv.Close()

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http server")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the listener failed")
	}
}
