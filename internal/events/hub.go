package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/metheus/shell/internal/logging"
	"github.com/metheus/shell/internal/monitoring"
)

// Event is one broadcast message
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

const clientBuffer = 64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The shell UI is the only expected client; the embedder fronts
		// the listener on loopback.
		return true
	},
}

// Hub fans events out to connected clients
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan Event
	closed  bool

	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewHub creates an event hub
func NewHub(log *logging.Logger, metrics *monitoring.Metrics) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]chan Event),
		log:     log.Named("events"),
		metrics: metrics,
	}
}

// Publish broadcasts an event to all clients. Safe on a nil hub so
// managers can treat the event stream as optional.
func (h *Hub) Publish(eventType string, data any) {
	if h == nil {
		return
	}

	evt := Event{
		ID:   uuid.New().String(),
		Type: eventType,
		Time: time.Now(),
		Data: data,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// Client is not keeping up; closing the channel here would
			// race the writer, so just drop the event.
			h.log.Debug("dropping event for slow client",
				zap.String("type", eventType),
				zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}

// HandleConnection upgrades an HTTP request into an event stream
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := make(chan Event, clientBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = ch
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}

	go h.writePump(conn, ch)
	h.readPump(conn)
}

func (h *Hub) writePump(conn *websocket.Conn, ch chan Event) {
	for evt := range ch {
		if err := conn.WriteJSON(evt); err != nil {
			h.log.Debug("event write failed", zap.Error(err))
			conn.Close()
			return
		}
	}
}

// readPump discards inbound frames; it exists to observe the close
// handshake and tear the client down.
func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	close(ch)
	conn.Close()
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
}

// Close tears down all client connections
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.closed = true
	h.mu.Unlock()

	for _, conn := range conns {
		h.drop(conn)
	}
}

// ClientCount reports connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
