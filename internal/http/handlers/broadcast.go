package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/http/response"
	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/services"
)

type BroadcastHandler struct {
	broadcasts services.BroadcastService
	pings      services.PingService
	metrics    *observability.Metrics
}

func NewBroadcastHandler(broadcasts services.BroadcastService, pings services.PingService, metrics *observability.Metrics) *BroadcastHandler {
	return &BroadcastHandler{broadcasts: broadcasts, pings: pings, metrics: metrics}
}

type ghostReq struct {
	DeviceID string `json:"device_id"`
	presence.GhostPayload
}

type windowReq struct {
	DeviceID string `json:"device_id"`
	presence.WindowPayload
}

type densityReq struct {
	DeviceID string `json:"device_id"`
	CellID   string `json:"cell_id"`
}

// POST /api/broadcasts/ghost
func (h *BroadcastHandler) SendGhost(c *gin.Context) {
	var req ghostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.broadcasts.SendGhostPing(c.Request.Context(), req.DeviceID, req.GhostPayload)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	h.metrics.IncBroadcast(string(presence.BroadcastGhost))
	response.RespondCreated(c, gin.H{"id": id})
}

// POST /api/broadcasts/window
func (h *BroadcastHandler) SendWindow(c *gin.Context) {
	var req windowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.broadcasts.SendWindowBroadcast(c.Request.Context(), req.DeviceID, req.WindowPayload)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	h.metrics.IncBroadcast(string(presence.BroadcastWindow))
	response.RespondCreated(c, gin.H{"id": id})
}

// POST /api/broadcasts/density
func (h *BroadcastHandler) SendDensity(c *gin.Context) {
	var req densityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.broadcasts.SendDensityPing(c.Request.Context(), req.DeviceID, req.CellID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	h.metrics.IncBroadcast(string(presence.BroadcastDensity))
	response.RespondCreated(c, gin.H{"id": id})
}

// GET /api/broadcasts/ghost
func (h *BroadcastHandler) RecentGhosts(c *gin.Context) {
	pings, err := h.broadcasts.GetRecentGhostPings(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ghost_pings": pings})
}

// GET /api/broadcasts/window/current
func (h *BroadcastHandler) CurrentWindow(c *gin.Context) {
	w, err := h.broadcasts.GetCurrentWindowMoment(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"window": w})
}

// GET /api/density/:cellId
func (h *BroadcastHandler) Density(c *gin.Context) {
	reading, err := h.broadcasts.GetDensityForCell(c.Request.Context(), c.Param("cellId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"density": reading})
}

// GET /api/network/activity
func (h *BroadcastHandler) NetworkActivity(c *gin.Context) {
	act, err := h.pings.GetNetworkActivity(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"activity": act})
}
