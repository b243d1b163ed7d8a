// Package ws streams provider change notifications to UI clients.
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/monitoring"
	"github.com/vanzue/toptoolbar-sub001/internal/runtime"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The server binds to loopback; the renderer is the only client.
		return true
	},
}

// Handler upgrades UI connections and forwards the aggregated change
// stream to each of them. Every connection holds its own subscription so
// a slow client only loses its own events.
type Handler struct {
	registry *runtime.Registry
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(registry *runtime.Registry, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{registry: registry, log: log, metrics: metrics}
}

// HandleConnection handles WebSocket upgrade and streams change events
// until the client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	events, cancel := h.registry.Subscribe()
	defer cancel()

	// Reader goroutine: we never expect client messages, but reading is
	// required to notice the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
