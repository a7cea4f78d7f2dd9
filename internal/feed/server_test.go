package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/lang"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv  *Server
	hub  *Hub
	http *httptest.Server
	reg  *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	hub := NewHub(WithHubMetrics(reg))
	srv := NewServer(hub, WithGatherer(reg))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return &fixture{srv: srv, hub: hub, http: ts, reg: reg}
}

func (f *fixture) get(t *testing.T, path string, into any) int {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	var hello Message
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ws.ReadJSON(&hello))
	require.Equal(t, TypeHello, hello.Type)
	require.NotEmpty(t, hello.Client)
	return ws
}

func read(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	var m Message
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ws.ReadJSON(&m))
	return m
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestDocumentRoutes(t *testing.T) {
	f := newFixture(t)
	f.srv.Open("b", engine.New(engine.WithContent("two\nlines")))
	f.srv.Open("a", engine.New(engine.WithContent("one")))

	var list []DocumentInfo
	assert.Equal(t, http.StatusOK, f.get(t, "/documents/", &list))
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, 2, list[1].Lines)
	assert.Equal(t, 9, list[1].Length)

	var info DocumentInfo
	assert.Equal(t, http.StatusOK, f.get(t, "/documents/a", &info))
	assert.Equal(t, 3, info.Length)

	assert.Equal(t, http.StatusNotFound, f.get(t, "/documents/zzz", nil))
	assert.Equal(t, http.StatusNotFound, f.get(t, "/documents/zzz/lines", nil))

	require.NoError(t, f.srv.CloseDocument("a"))
	assert.ErrorIs(t, f.srv.CloseDocument("a"), ErrNotFound)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/documents/a", nil))
}

func TestLinesRoute(t *testing.T) {
	reg, err := lang.NewRegistry()
	require.NoError(t, err)
	f := newFixture(t)
	f.srv.Open("main", engine.New(
		engine.WithContent("package main\n\nfunc main() {}\n"),
		engine.WithFilename("main.go"),
		engine.WithLanguages(reg),
	))

	var resp LinesResponse
	assert.Equal(t, http.StatusOK, f.get(t, "/documents/main/lines?start=0&end=50", &resp))
	assert.Equal(t, "go", resp.Language)
	require.Len(t, resp.Lines, 4)
	var text strings.Builder
	for _, tok := range resp.Lines[2] {
		text.WriteString(tok.Text)
	}
	assert.Equal(t, "func main() {}", text.String())

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/documents/main/lines?start=-1", nil))
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/documents/main/lines?start=3&end=1", nil))
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/documents/main/lines?start=x", nil))

	var runs RunnablesResponse
	assert.Equal(t, http.StatusOK, f.get(t, "/documents/main/runnables", &runs))
	require.Len(t, runs.Runnables, 1)
	assert.Equal(t, 0, runs.Runnables[0].Line)
	assert.Equal(t, "go run main.go", runs.Runnables[0].Command)
}

func TestFeedBroadcastsEdits(t *testing.T) {
	f := newFixture(t)
	sess := f.srv.Open("a", engine.New(engine.WithContent("hi")))
	f.srv.Open("b", engine.New())

	all := f.dial(t, "")
	onlyB := f.dial(t, "?doc=b")
	waitClients(t, f.hub, 2)

	require.NoError(t, sess.Do(context.Background(), func(d *engine.Document) error {
		return d.Insert("\nyo", 2)
	}))

	m := read(t, all)
	assert.Equal(t, TypeEdit, m.Type)
	assert.Equal(t, "a", m.Doc)
	assert.Equal(t, uint64(1), m.Seq)
	require.NotNil(t, m.Edit)
	assert.Equal(t, history.Insert, m.Edit.Op)
	assert.Equal(t, "\nyo", m.Edit.Text)
	require.NotNil(t, m.NewEnd)
	assert.Equal(t, engine.Point{Line: 1, Column: 2}, *m.NewEnd)

	require.NoError(t, onlyB.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := onlyB.ReadMessage()
	assert.Error(t, err, "client filtered to b must not see edits of a")
}

func TestFeedStopsAfterClose(t *testing.T) {
	f := newFixture(t)
	doc := engine.New(engine.WithContent("x"))
	f.srv.Open("a", doc)
	ws := f.dial(t, "")
	waitClients(t, f.hub, 1)

	require.NoError(t, f.srv.CloseDocument("a"))
	require.NoError(t, doc.Insert("y", 0))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)
}

func TestSlowClientDropped(t *testing.T) {
	h := NewHub(WithSendQueue(1))
	c := &client{id: "slow", send: make(chan Message, 1)}
	h.clients[c] = struct{}{}

	h.Broadcast(Message{Type: TypeEdit, Doc: "a", Seq: 1})
	assert.Equal(t, 1, h.Clients())
	h.Broadcast(Message{Type: TypeEdit, Doc: "a", Seq: 2})
	assert.Equal(t, 0, h.Clients())

	m, ok := <-c.send
	require.True(t, ok)
	assert.Equal(t, uint64(1), m.Seq)
	_, ok = <-c.send
	assert.False(t, ok)
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	metrics := engine.NewMetrics(f.reg)
	sess := f.srv.Open("a", engine.New(engine.WithMetrics(metrics)))
	f.dial(t, "")
	waitClients(t, f.hub, 1)
	require.NoError(t, sess.Do(context.Background(), func(d *engine.Document) error {
		return d.Insert("x", 0)
	}))

	resp, err := http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "textcore_feed_clients 1")
	assert.Contains(t, string(body), `textcore_edits_total{op="insert"} 1`)
}
