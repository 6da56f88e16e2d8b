package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/http/response"
	"github.com/yungbote/ghostline-backend/internal/services"
)

type TrailHandler struct {
	trails   services.TrailService
	windows  services.WindowMomentService
	snapshot services.SnapshotService
}

func NewTrailHandler(trails services.TrailService, windows services.WindowMomentService, snapshot services.SnapshotService) *TrailHandler {
	return &TrailHandler{trails: trails, windows: windows, snapshot: snapshot}
}

// POST /api/trails
func (h *TrailHandler) InsertPoint(c *gin.Context) {
	var req services.TrailPointInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.trails.InsertTrailPoint(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"id": id})
}

// GET /api/trails/:deviceId?since=..&exclude_session=..
func (h *TrailHandler) InRange(c *gin.Context) {
	since, err := requiredTime(c, "since")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	sessions, err := h.trails.GetTrailsInRange(c.Request.Context(), c.Param("deviceId"), since, c.Query("exclude_session"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trails": sessions})
}

// POST /api/window-moments
func (h *TrailHandler) InsertWindowMoment(c *gin.Context) {
	var req services.WindowMomentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id, err := h.windows.InsertWindowMoment(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"id": id})
}

// GET /api/snapshot/:deviceId?since=..&session_id=..
func (h *TrailHandler) Snapshot(c *gin.Context) {
	since, err := requiredTime(c, "since")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	snap, err := h.snapshot.GetTemporalSnapshot(c.Request.Context(), c.Param("deviceId"), since, c.Query("session_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snap})
}

// GET /api/window-moments?since=..
func (h *TrailHandler) WindowMoments(c *gin.Context) {
	since, err := requiredTime(c, "since")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	moments, err := h.windows.GetWindowMomentsInRange(c.Request.Context(), since)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"window_moments": moments})
}
