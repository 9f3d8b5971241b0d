package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/domain/engine"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/logging"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/infrastructure/monitoring"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // clients are local renderer processes
	},
}

// Handler manages WebSocket connections
type Handler struct {
	eng     *engine.Engine
	store   storage.Store
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(eng *engine.Engine, store storage.Store, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		eng:     eng,
		store:   store,
		log:     log,
		metrics: metrics,
	}
}

// message is the envelope clients send.
type message struct {
	Type string `json:"type"`
}

// client serializes writes to a single connection. The change forwarder
// and the read loop both write, so every send goes through the mutex.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *client) send(data map[string]interface{}) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteJSON(data)
}

// HandleConnection upgrades the request and streams change notifications
// until the peer disconnects. Notifications carry no payload: the store
// coalesces signals, so a client must re-read the full state on each one
// (over HTTP or via a get_state message).
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := &client{id: uuid.NewString(), conn: conn}

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	changes, cancel, err := h.store.Subscribe(c.Request.Context())
	if err != nil {
		h.sendError(cl, "change subscription unavailable")
		return
	}
	defer cancel()

	h.log.Info("client connected", zap.String("client_id", cl.id))
	defer h.log.Info("client disconnected", zap.String("client_id", cl.id))

	h.send(cl, map[string]interface{}{
		"type":      "hello",
		"client_id": cl.id,
	})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				if err := h.send(cl, map[string]interface{}{"type": "state_changed"}); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()
	defer func() {
		close(stop)
		<-done
	}()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "ping":
			h.send(cl, map[string]interface{}{"type": "pong"})
		case "get_state":
			h.send(cl, map[string]interface{}{
				"type":  "state",
				"state": h.eng.State(),
			})
		default:
			h.sendError(cl, "unknown message type")
		}
	}
}

func (h *Handler) send(cl *client, data map[string]interface{}) error {
	data["timestamp"] = time.Now().Unix()
	return cl.send(data)
}

func (h *Handler) sendError(cl *client, msg string) error {
	return h.send(cl, map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}
