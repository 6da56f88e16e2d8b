package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/realtime"
)

type RealtimeHandler struct {
	hub     *realtime.SSEHub
	metrics *observability.Metrics
}

func NewRealtimeHandler(hub *realtime.SSEHub, metrics *observability.Metrics) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, metrics: metrics}
}

// GET /api/realtime/stream?cell=<cellId>&cell=<cellId>
//
// Every client hears the network channel. Cell channels are opt-in.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, realtime.ChannelNetwork)
	for _, cell := range c.QueryArray("cell") {
		if cell = strings.TrimSpace(cell); cell != "" {
			h.hub.AddChannel(client, realtime.CellChannel(cell))
		}
	}

	h.metrics.SSEClientConnected()
	defer func() {
		h.hub.CloseClient(client)
		h.metrics.SSEClientDisconnected()
	}()

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
