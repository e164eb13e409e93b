package webserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satvika/web/internal/upstream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin pages only; the Host header is what the browser
		// connected to.
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// Hub fans alert broadcasts out to connected websocket clients.
type Hub struct {
	logger     *zap.Logger
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
	once       sync.Once
	runOnce    sync.Once
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	// snapshot, when set, is queued as the client's first message by the
	// hub loop during registration.
	snapshot []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop. Safe to call more than once.
func (h *Hub) Run() {
	h.runOnce.Do(func() {
		go h.loop()
	})
}

func (h *Hub) loop() {
	clients := make(map[*wsClient]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			if c.snapshot != nil {
				// The send buffer is empty at registration, so this
				// cannot block.
				c.send <- c.snapshot
			}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(clients, c)
					close(c.send)
				}
			}
		case <-h.done:
			for c := range clients {
				close(c.send)
			}
			return
		}
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Close stops the hub loop and disconnects all clients.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

// handleAlertsWS upgrades the connection and joins the alert feed.
func (s *WebServer) handleAlertsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{conn: conn, send: make(chan []byte, 8)}
	if latest := s.alerts.Latest(); len(latest) > 0 {
		snap, err := json.Marshal(map[string]interface{}{
			"type":   "snapshot",
			"alerts": latest,
		})
		if err == nil {
			client.snapshot = snap
		}
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s.hub)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump drains client frames so pings are answered and closes are seen.
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// AlertFeed caches the latest regulatory alerts and pushes the ones it
// has not seen before to the hub.
type AlertFeed struct {
	hub    *Hub
	logger *zap.Logger

	mu     sync.Mutex
	latest []upstream.Alert
	known  map[int]struct{}
	primed bool
	unseen int
}

func NewAlertFeed(hub *Hub, logger *zap.Logger) *AlertFeed {
	return &AlertFeed{
		hub:    hub,
		logger: logger,
		known:  make(map[int]struct{}),
	}
}

// Update replaces the cached alert list and broadcasts alerts that are
// new since the last update.
func (f *AlertFeed) Update(alerts []upstream.Alert) {
	f.mu.Lock()
	f.latest = alerts
	var fresh []upstream.Alert
	for _, a := range alerts {
		if _, ok := f.known[a.ID]; ok {
			continue
		}
		f.known[a.ID] = struct{}{}
		fresh = append(fresh, a)
	}
	first := !f.primed
	f.primed = true
	if !first {
		f.unseen += len(fresh)
	}
	f.mu.Unlock()

	// The initial fill is history, not news.
	if first || len(fresh) == 0 {
		return
	}

	msg, err := json.Marshal(map[string]interface{}{
		"type":   "alerts",
		"alerts": fresh,
	})
	if err != nil {
		f.logger.Error("failed to encode alert broadcast", zap.Error(err))
		return
	}
	f.hub.Broadcast(msg)
	f.logger.Info("broadcast new regulatory alerts", zap.Int("count", len(fresh)))
}

// Latest returns the cached alert list.
func (f *AlertFeed) Latest() []upstream.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]upstream.Alert, len(f.latest))
	copy(out, f.latest)
	return out
}

// UnseenCount reports how many broadcast alerts the user has not viewed.
func (f *AlertFeed) UnseenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unseen
}

// MarkSeen clears the unseen counter, called when the alerts page renders.
func (f *AlertFeed) MarkSeen() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unseen = 0
}
