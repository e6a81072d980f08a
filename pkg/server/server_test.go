package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plain-reactive/plain/internal/dev"
	"github.com/plain-reactive/plain/internal/errors"
	"github.com/plain-reactive/plain/pkg/fetch"
	"github.com/plain-reactive/plain/pkg/reconcile"
	"github.com/plain-reactive/plain/pkg/state"
	"github.com/plain-reactive/plain/pkg/telemetry"
	"github.com/plain-reactive/plain/pkg/view"
	"github.com/plain-reactive/plain/pkg/widget"
)

type counter struct {
	n *state.Cell[int]
}

func (c *counter) Template() string {
	return "<button>" + strconv.Itoa(c.n.Get()) + "</button>"
}

func (c *counter) Listeners(w *widget.Widget) {
	w.On(w.Find("button"), "click", func(widget.Event) error {
		return c.n.Update(func(n int) int { return n + 1 }, true)
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCounterHost(t *testing.T) *widget.Host {
	t.Helper()
	h := widget.NewHost(widget.WithLogger(quietLogger()))
	require.NoError(t, h.Define("x-counter", func(w *widget.Widget) widget.Component {
		return &counter{n: state.New(0, w)}
	}, widget.WithoutStyle()))
	_, err := h.Mount(context.Background(), "x-counter")
	require.NoError(t, err)
	return h
}

func dial(t *testing.T, srv *httptest.Server, s *Server) *websocket.Conn {
	t.Helper()
	before := s.Hub().ClientCount()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(time.Second)
	for s.Hub().ClientCount() == before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readPatch(t *testing.T, conn *websocket.Conn) PatchMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg PatchMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, TypePatch, msg.Type)
	return msg
}

func TestHealthz(t *testing.T) {
	s := New(newCounterHost(t), &Config{Logger: quietLogger()})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPage(t *testing.T) {
	s := New(newCounterHost(t), &Config{Logger: quietLogger(), Title: "A & B"})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>A &amp; B</title>")
	assert.Contains(t, body, `<x-counter data-plain-id="w1"><template shadowrootmode="open">`)
	assert.Contains(t, body, `<div class="x-counter-wrapper"><button>0</button></div>`)
	assert.Contains(t, body, "'/ws'")

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventProducesPatch(t *testing.T) {
	s := New(newCounterHost(t), &Config{Logger: quietLogger()})
	srv := httptest.NewServer(s)
	defer srv.Close()

	a := dial(t, srv, s)
	b := dial(t, srv, s)

	require.NoError(t, a.WriteJSON(map[string]any{
		"type": "event", "widget": "w1", "path": []int{0}, "event": "click",
	}))

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readPatch(t, conn)
		assert.Equal(t, "w1", msg.Widget)
		assert.False(t, msg.Full)
		require.Len(t, msg.Ops, 1)
		assert.Equal(t, reconcile.OpUpdateText, msg.Ops[0].Kind)
		assert.Equal(t, reconcile.Path{0, 0}, msg.Ops[0].Path)
		assert.Equal(t, "1", msg.Ops[0].Text)
	}

	require.NoError(t, s.Do(func(h *widget.Host) error {
		w, ok := h.Widget("w1")
		require.True(t, ok)
		assert.Equal(t, "<button>1</button>", w.Snapshot())
		return nil
	}))
}

func TestBadMessagesReportErrors(t *testing.T) {
	s := New(newCounterHost(t), &Config{Logger: quietLogger()})
	srv := httptest.NewServer(s)
	defer srv.Close()
	conn := dial(t, srv, s)

	for _, raw := range []string{
		`not json`,
		`{"type":"event","widget":"w9","path":[0],"event":"click"}`,
		`{"type":"event","widget":"w1","path":[5,5],"event":"click"}`,
		`{"type":"navigate","path":"/x"}`,
		`{"type":"bogus"}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg dev.ReloadMessage
		require.NoError(t, conn.ReadJSON(&msg), raw)
		assert.Equal(t, dev.ReloadTypeError, msg.Type, raw)
		assert.NotEmpty(t, msg.Error, raw)
		if raw == `not json` {
			assert.Contains(t, msg.Error, "invalid message")
			assert.NotContains(t, msg.Error, errors.CodeMalformedMarkup)
		}
	}
}

func TestNavigation(t *testing.T) {
	pages := map[string]string{
		"home.html": "<p>home</p>",
		"about.md":  "# About",
		"404.html":  "<p>missing</p>",
	}
	fetcher := fetch.Func(func(_ context.Context, url string) (string, error) {
		if text, ok := pages[url]; ok {
			return text, nil
		}
		return "", fmt.Errorf("no page %s", url)
	})

	history := view.NewMemoryHistory("/")
	res := view.New(history, view.WithLogger(quietLogger()))
	res.Setup(map[string]string{"/": "home.html", "/about": "about.md", "*": "404.html"}, "")

	h := widget.NewHost(widget.WithLogger(quietLogger()))
	require.NoError(t, DefineView(h, res, fetcher, quietLogger()))
	_, err := h.Load(context.Background(), "<main><plain-view></plain-view></main>")
	require.NoError(t, err)

	s := New(h, &Config{Logger: quietLogger(), Resolver: res})
	srv := httptest.NewServer(s)
	defer srv.Close()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "<p>home</p>")

	conn := dial(t, srv, s)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "navigate", "path": "/about"}))
	msg := readPatch(t, conn)
	assert.True(t, msg.Full)
	assert.Contains(t, msg.Markup, "About</h1>")
	assert.Equal(t, "/about", res.Current())

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Contains(t, rec.Body.String(), "<p>missing</p>")
	assert.Equal(t, "/nowhere", history.CurrentPath())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
	s := New(newCounterHost(t), &Config{Logger: quietLogger(), Gatherer: reg, Metrics: m})
	srv := httptest.NewServer(s)
	defer srv.Close()
	dial(t, srv, s)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "plain_clients_connected 1")

	rec := httptest.NewRecorder()
	New(newCounterHost(t), &Config{Logger: quietLogger()}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotContains(t, rec.Body.String(), "plain_clients_connected")
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.test", true},
		{"http://evil.test", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://example.test/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := SameOriginCheck(r); got != tt.want {
			t.Errorf("SameOriginCheck(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := New(newCounterHost(t), &Config{Logger: quietLogger(), Address: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
