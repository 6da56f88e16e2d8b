package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/http/response"
	"github.com/yungbote/ghostline-backend/internal/services"
)

type EncounterHandler struct {
	encounters services.EncounterService
}

func NewEncounterHandler(encounters services.EncounterService) *EncounterHandler {
	return &EncounterHandler{encounters: encounters}
}

// POST /api/encounters
func (h *EncounterHandler) Insert(c *gin.Context) {
	var req services.EncounterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.encounters.InsertEncounter(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"id": id})
}

// GET /api/encounters?since=<RFC3339|unix ms>
func (h *EncounterHandler) InRange(c *gin.Context) {
	since, err := requiredTime(c, "since")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	points, err := h.encounters.GetEncountersInRange(c.Request.Context(), since)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"encounters": points})
}

// GET /api/encounters/frequency/:deviceId
func (h *EncounterHandler) Frequency(c *gin.Context) {
	freq, err := h.encounters.GetEncounterFrequency(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"frequency": freq})
}

// GET /api/encounters/recent/:deviceId?limit=20
func (h *EncounterHandler) Recent(c *gin.Context) {
	rows, err := h.encounters.GetRecentEncounters(c.Request.Context(), c.Param("deviceId"), queryInt(c, "limit", 0))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"encounters": rows})
}
