package app

import (
	"database/sql"

	ghttp "github.com/yungbote/ghostline-backend/internal/http"
	httpH "github.com/yungbote/ghostline-backend/internal/http/handlers"
	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/realtime"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Realtime  *httpH.RealtimeHandler
	Broadcast *httpH.BroadcastHandler
	Presence  *httpH.PresenceHandler
	Encounter *httpH.EncounterHandler
	Trail     *httpH.TrailHandler
}

func wireHandlers(log *logger.Logger, sqlDB *sql.DB, svc Services, hub *realtime.SSEHub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:    httpH.NewHealthHandler(pinger),
		Realtime:  httpH.NewRealtimeHandler(hub, metrics),
		Broadcast: httpH.NewBroadcastHandler(svc.Broadcast, svc.Ping, metrics),
		Presence:  httpH.NewPresenceHandler(svc.Presence, svc.Ping),
		Encounter: httpH.NewEncounterHandler(svc.Encounter),
		Trail:     httpH.NewTrailHandler(svc.Trail, svc.WindowMoment, svc.Snapshot),
	}
}

func routerConfig(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) ghttp.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return ghttp.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		ServiceName:      serviceName,
		CORSOrigins:      cfg.CORSOrigins,
		HealthHandler:    h.Health,
		RealtimeHandler:  h.Realtime,
		BroadcastHandler: h.Broadcast,
		PresenceHandler:  h.Presence,
		EncounterHandler: h.Encounter,
		TrailHandler:     h.Trail,
	}
}
