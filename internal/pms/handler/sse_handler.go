package handler

import (
	"io"
	"time"

	"github.com/Saviken/TNH-Performance-Target/internal/pms/sse"
	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 30 * time.Second

// SSEHandler streams notification events to connected browsers
type SSEHandler struct {
	hub *sse.Hub
}

// NewSSEHandler creates a handler bound to the given hub
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream handles the SSE endpoint
// GET /api/v1/sse/events?token=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	actor := GetActor(c)
	client := &sse.Client{
		ID:     sse.ClientID(actor.ID, time.Now().UnixNano()),
		UserID: actor.ID,
		Events: make(chan sse.Event, 64),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("connected", gin.H{"client_id": client.ID})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent(ev.EventType, ev.Data)
			return true
		case <-heartbeat.C:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			return true
		}
	})
}
