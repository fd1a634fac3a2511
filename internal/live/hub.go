// Package live pushes location change events to connected map pages over
// websocket and to line-oriented TCP listeners.
package live

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 2 * time.Second

// Hub numbers change events and fans them out. Delivery happens under the
// lock, so every client sees events in Seq order.
type Hub struct {
	log *zap.Logger
	now func() time.Time

	mu      sync.Mutex
	seq     uint64
	feeds   map[net.Conn]struct{}
	sockets map[*websocket.Conn]struct{}
}

type Stats struct {
	TCPClients int    `json:"tcp_clients"`
	WSClients  int    `json:"ws_clients"`
	LastSeq    uint64 `json:"last_seq"`
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log,
		now:     time.Now,
		feeds:   make(map[net.Conn]struct{}),
		sockets: make(map[*websocket.Conn]struct{}),
	}
}

// welcome must be called with h.mu held.
func (h *Hub) welcome(transport string) []byte {
	b, err := Event{Type: Welcome, Seq: h.seq, Transport: transport, At: h.now().UTC()}.line()
	if err != nil {
		// Event always marshals
		panic(err)
	}
	return b
}

// Add greets a feed client and registers it. A client that cannot take the
// greeting is closed instead. It reports whether conn was registered.
func (h *Hub) Add(conn net.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := writeFeed(conn, h.welcome("tcp")); err != nil {
		_ = conn.Close()
		return false
	}
	h.feeds[conn] = struct{}{}
	return true
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.feeds, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// AddWS is Add for websocket clients.
func (h *Hub) AddWS(ws *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := writeSocket(ws, h.welcome("websocket")); err != nil {
		_ = ws.Close()
		return false
	}
	h.sockets[ws] = struct{}{}
	return true
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.sockets, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Broadcast assigns ev the next sequence number, fills in Type and At when
// unset, and sends it to every client. Clients that fail a write are
// dropped. The sent event is returned.
func (h *Hub) Broadcast(ev Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ev.Seq = h.seq
	if ev.Type == "" {
		ev.Type = LocationsChanged
	}
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}
	b, err := ev.line()
	if err != nil {
		h.log.Error("marshal event", zap.Uint64("seq", ev.Seq), zap.Error(err))
		return ev
	}

	dropped := 0
	for c := range h.feeds {
		if err := writeFeed(c, b); err != nil {
			_ = c.Close()
			delete(h.feeds, c)
			dropped++
		}
	}
	for ws := range h.sockets {
		if err := writeSocket(ws, b); err != nil {
			_ = ws.Close()
			delete(h.sockets, ws)
			dropped++
		}
	}

	h.log.Debug("event sent",
		zap.Uint64("seq", ev.Seq),
		zap.String("op", ev.Op),
		zap.String("name", ev.Name),
		zap.Int("clients", len(h.feeds)+len(h.sockets)),
		zap.Int("dropped", dropped))
	return ev
}

func writeFeed(c net.Conn, b []byte) error {
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	_, err := c.Write(b)
	return err
}

func writeSocket(ws *websocket.Conn, b []byte) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(websocket.TextMessage, b)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.feeds),
		WSClients:  len(h.sockets),
		LastSeq:    h.seq,
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.feeds {
		_ = c.Close()
		delete(h.feeds, c)
	}
	for ws := range h.sockets {
		_ = ws.Close()
		delete(h.sockets, ws)
	}
}
