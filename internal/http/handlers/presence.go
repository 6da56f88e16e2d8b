package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/http/response"
	"github.com/yungbote/ghostline-backend/internal/platform/apierr"
	"github.com/yungbote/ghostline-backend/internal/services"
)

const defaultNearbyRadiusKm = 5

var errMissingLocation = errors.New("lat and lng are required")

type PresenceHandler struct {
	presence services.PresenceService
	pings    services.PingService
}

func NewPresenceHandler(presence services.PresenceService, pings services.PingService) *PresenceHandler {
	return &PresenceHandler{presence: presence, pings: pings}
}

type updatePresenceReq struct {
	CellID string `json:"cell_id"`
}

// PUT /api/presence/:deviceId
func (h *PresenceHandler) Update(c *gin.Context) {
	var req updatePresenceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.presence.UpdatePresence(c.Request.Context(), c.Param("deviceId"), req.CellID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id})
}

// DELETE /api/presence/:deviceId
func (h *PresenceHandler) Remove(c *gin.Context) {
	if err := h.presence.RemovePresence(c.Request.Context(), c.Param("deviceId")); err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/presence/count
func (h *PresenceHandler) Count(c *gin.Context) {
	count, err := h.presence.GetPresenceCount(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"count": count})
}

// GET /api/presence/cells/:cellId
func (h *PresenceHandler) ByCell(c *gin.Context) {
	cellID := c.Param("cellId")
	n, err := h.presence.GetPresenceByCell(c.Request.Context(), cellID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"cell_id": cellID, "count": n})
}

// GET /api/presence/nearby?lat=..&lng=..&radius_km=..
func (h *PresenceHandler) Nearby(c *gin.Context) {
	lat, okLat, err := queryFloat(c, "lat")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	lng, okLng, err := queryFloat(c, "lng")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if !okLat || !okLng {
		response.RespondErr(c, apierr.BadRequest("missing_location", errMissingLocation))
		return
	}
	radius, ok, err := queryFloat(c, "radius_km")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if !ok {
		radius = defaultNearbyRadiusKm
	}
	points, err := h.pings.GetNearbyPresence(c.Request.Context(), lat, lng, radius)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"points": points})
}

// POST /api/pings
func (h *PresenceHandler) SendPing(c *gin.Context) {
	var req services.PingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.pings.SendPing(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"id": id})
}
