package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"scope-service/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// wsFrame is the envelope every message pushed over /ws/events carries.
type wsFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHandler streams EventBus activity for the currently
// connected device: analyzed waveform/measurement updates, status
// messages, and connect/disconnect notices.
//
// Grounded in pattern on
// device-service/internal/handler/websocket_handler.go's
// upgrade-then-per-client-write-pump shape, trimmed from that file's
// four connection kinds (device/events/operations/branch, each backed
// by a shared ConnectionManager + EventBus fan-out) to the one stream
// this single-device driver has a subscriber list for already:
// internal/eventbus.EventBus itself. A client's outbound queue is a
// buffered channel exactly as in the teacher; a full queue drops the
// frame rather than blocking the publisher, since internal/eventbus
// runs each callback synchronously on the publishing goroutine.
type WebSocketHandler struct {
	manager  *Manager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWebSocketHandler(manager *Manager, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *WebSocketHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws/events", h.HandleEvents)
}

// HandleEvents upgrades the connection and subscribes it to the
// connected device's event bus for its lifetime. It returns
// immediately if no device is connected yet, since this driver's bus
// is created fresh per-Connect and has nothing to subscribe to before
// then.
func (h *WebSocketHandler) HandleEvents(c *gin.Context) {
	dev, err := h.manager.Current()
	if err != nil {
		Fail(c, http.StatusServiceUnavailable, "no device connected", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	send := make(chan []byte, 256)

	dev.Bus.OnAnalyzed(func(e model.AnalyzedEvent) { h.enqueue(send, "analyzed", e) })
	dev.Bus.OnStatusMessage(func(e model.StatusMessage) { h.enqueue(send, "status", e) })
	dev.Bus.OnSamplerateChanged(func(e model.SamplerateLimitsChanged) { h.enqueue(send, "samplerate_changed", e) })
	dev.Bus.OnRecordLengthChanged(func(e model.RecordLengthChanged) { h.enqueue(send, "record_length_changed", e) })
	dev.Bus.OnDisconnected(func(reason error) { h.enqueue(send, "disconnected", gin.H{"reason": errString(reason)}) })

	go h.writePump(conn, send)
	h.readPump(conn)
}

func (h *WebSocketHandler) enqueue(send chan []byte, kind string, data interface{}) {
	body, err := json.Marshal(wsFrame{Type: kind, Data: data})
	if err != nil {
		h.logger.Error("marshal event frame", zap.Error(err))
		return
	}
	select {
	case send <- body:
	default:
		h.logger.Warn("websocket client queue full, dropping frame", zap.String("type", kind))
	}
}

// readPump drains and discards client frames, keeping the connection
// alive until the client disconnects; this stream is publish-only.
func (h *WebSocketHandler) readPump(conn *websocket.Conn) {
	defer conn.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) writePump(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
