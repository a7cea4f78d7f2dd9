package feed

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/textcore/internal/engine"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
	maxMessageSize   = 512
	defaultSendQueue = 256
)

// Hub broadcasts the edits of attached documents to websocket clients.
// Clients whose send queue fills up are disconnected; a broadcast never
// blocks the edit that triggered it.
type Hub struct {
	logger    *slog.Logger
	queueSize int
	upgrader  websocket.Upgrader
	metrics   *hubMetrics

	seq     atomic.Uint64
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	id   string
	doc  string // empty receives every document
	conn *websocket.Conn
	send chan Message
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.send) })
}

type hubMetrics struct {
	clients  prometheus.Gauge
	messages prometheus.Counter
	dropped  prometheus.Counter
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSendQueue sets how many messages may wait for a slow client before
// it is dropped.
func WithSendQueue(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithHubMetrics registers the hub collectors on reg.
func WithHubMetrics(reg prometheus.Registerer) HubOption {
	return func(h *Hub) {
		f := promauto.With(reg)
		h.metrics = &hubMetrics{
			clients: f.NewGauge(prometheus.GaugeOpts{
				Name: "textcore_feed_clients",
				Help: "Connected edit feed clients.",
			}),
			messages: f.NewCounter(prometheus.CounterOpts{
				Name: "textcore_feed_messages_total",
				Help: "Edit messages queued to clients.",
			}),
			dropped: f.NewCounter(prometheus.CounterOpts{
				Name: "textcore_feed_dropped_clients_total",
				Help: "Clients disconnected for falling behind.",
			}),
		}
	}
}

// NewHub creates a Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger:    slog.New(slog.DiscardHandler),
		queueSize: defaultSendQueue,
		clients:   make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach forwards the edits of doc under id until the returned function is
// called.
func (h *Hub) Attach(id string, doc *engine.Document) (detach func()) {
	return doc.Subscribe(engine.ListenerFunc(func(_ *engine.Document, c engine.Change) {
		h.Broadcast(editMessage(id, h.seq.Add(1), c))
	}))
}

// Broadcast queues m to every client interested in m.Doc.
func (h *Hub) Broadcast(m Message) {
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if c.doc != "" && c.doc != m.Doc {
			continue
		}
		select {
		case c.send <- m:
			if h.metrics != nil {
				h.metrics.messages.Inc()
			}
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow feed client", "client", c.id, "queue", h.queueSize)
		if h.metrics != nil {
			h.metrics.dropped.Inc()
		}
		h.remove(c)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket. The optional doc query
// parameter limits the feed to one document.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &client{
		id:   uuid.NewString(),
		doc:  r.URL.Query().Get("doc"),
		conn: conn,
		send: make(chan Message, h.queueSize),
	}
	c.send <- Message{Type: TypeHello, Client: c.id, Doc: c.doc}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.clients.Inc()
	}
	h.logger.Info("feed client connected", "client", c.id, "doc", c.doc, "remote", r.RemoteAddr)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.stop()
	if h.metrics != nil {
		h.metrics.clients.Dec()
	}
	h.logger.Info("feed client disconnected", "client", c.id)
}

// readPump only watches for the client going away; clients send nothing
// but control frames.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("feed read failed", "client", c.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case m, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(m); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.remove(c)
	}
}
