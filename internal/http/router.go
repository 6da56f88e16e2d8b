package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/ghostline-backend/internal/http/handlers"
	httpMW "github.com/yungbote/ghostline-backend/internal/http/middleware"
	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	HealthHandler    *httpH.HealthHandler
	RealtimeHandler  *httpH.RealtimeHandler
	BroadcastHandler *httpH.BroadcastHandler
	PresenceHandler  *httpH.PresenceHandler
	EncounterHandler *httpH.EncounterHandler
	TrailHandler     *httpH.TrailHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		api.GET("/realtime/stream", cfg.RealtimeHandler.Stream)
	}

	// Broadcasts
	if cfg.BroadcastHandler != nil {
		api.POST("/broadcasts/ghost", cfg.BroadcastHandler.SendGhost)
		api.GET("/broadcasts/ghost", cfg.BroadcastHandler.RecentGhosts)
		api.POST("/broadcasts/window", cfg.BroadcastHandler.SendWindow)
		api.GET("/broadcasts/window/current", cfg.BroadcastHandler.CurrentWindow)
		api.POST("/broadcasts/density", cfg.BroadcastHandler.SendDensity)
		api.GET("/density/:cellId", cfg.BroadcastHandler.Density)
		api.GET("/network/activity", cfg.BroadcastHandler.NetworkActivity)
	}

	// Presence + pings
	if cfg.PresenceHandler != nil {
		api.GET("/presence/count", cfg.PresenceHandler.Count)
		api.GET("/presence/nearby", cfg.PresenceHandler.Nearby)
		api.GET("/presence/cells/:cellId", cfg.PresenceHandler.ByCell)
		api.PUT("/presence/:deviceId", cfg.PresenceHandler.Update)
		api.DELETE("/presence/:deviceId", cfg.PresenceHandler.Remove)
		api.POST("/pings", cfg.PresenceHandler.SendPing)
	}

	// Encounters
	if cfg.EncounterHandler != nil {
		api.POST("/encounters", cfg.EncounterHandler.Insert)
		api.GET("/encounters", cfg.EncounterHandler.InRange)
		api.GET("/encounters/frequency/:deviceId", cfg.EncounterHandler.Frequency)
		api.GET("/encounters/recent/:deviceId", cfg.EncounterHandler.Recent)
	}

	// Trails, window moments, snapshots
	if cfg.TrailHandler != nil {
		api.POST("/trails", cfg.TrailHandler.InsertPoint)
		api.GET("/trails/:deviceId", cfg.TrailHandler.InRange)
		api.POST("/window-moments", cfg.TrailHandler.InsertWindowMoment)
		api.GET("/window-moments", cfg.TrailHandler.WindowMoments)
		api.GET("/snapshot/:deviceId", cfg.TrailHandler.Snapshot)
	}

	return r
}
