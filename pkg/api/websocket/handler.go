package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/aescanero/cellflow/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Same policy as the CORS middleware
	},
}

// Handler streams engine events to WebSocket clients so a presentation
// layer can re-render live after every evaluation pass.
type Handler struct {
	eventBus ports.EventBus
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	clients atomic.Int64
}

// NewHandler creates a new WebSocket handler.
func NewHandler(eventBus ports.EventBus, metrics ports.MetricsCollector, logger *zap.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleStream upgrades the connection and forwards cell and graph events
// until the client disconnects.
func (h *Handler) HandleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.metrics.SetStreamClients(int(h.clients.Add(1)))
	defer func() {
		h.metrics.SetStreamClients(int(h.clients.Add(-1)))
	}()

	h.logger.Info("WebSocket connection established",
		zap.String("client", c.ClientIP()))

	eventChan := make(chan ports.Event, 16)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h.subscribeToEvents(ctx, eventChan)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eventChan:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", zap.Error(err))
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Error("failed to write message", zap.Error(err))
				return
			}
		}
	}
}

// subscribeToEvents forwards both event topics into the connection channel.
func (h *Handler) subscribeToEvents(ctx context.Context, ch chan<- ports.Event) {
	eventHandler := func(ctx context.Context, event ports.Event) error {
		select {
		case ch <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Channel full, drop rather than stall the bus
			h.logger.Warn("event channel full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}

	topics := []string{ports.TopicCellEvents, ports.TopicGraphEvents}
	for _, topic := range topics {
		if err := h.eventBus.Subscribe(ctx, topic, eventHandler); err != nil {
			h.logger.Error("failed to subscribe to events",
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
}
