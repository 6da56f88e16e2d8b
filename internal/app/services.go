package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	"github.com/yungbote/ghostline-backend/internal/platform/kv"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/services"
)

type Services struct {
	Broadcast    services.BroadcastService
	Presence     services.PresenceService
	Ping         services.PingService
	Encounter    services.EncounterService
	Trail        services.TrailService
	WindowMoment services.WindowMomentService
	Snapshot     services.SnapshotService
	Retention    services.RetentionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg services.Config, set repos.Set, cache kv.Store, emit services.SSEEmitter) Services {
	log.Info("Wiring services...")
	return Services{
		Broadcast:    services.NewBroadcastService(log, set.Broadcasts, emit, cfg),
		Presence:     services.NewPresenceService(log, set.Presence, cache, emit, cfg),
		Ping:         services.NewPingService(db, log, set.Pings, set.PresenceSignals, cfg),
		Encounter:    services.NewEncounterService(log, set.Encounters, cfg),
		Trail:        services.NewTrailService(log, set.Trails, cfg),
		WindowMoment: services.NewWindowMomentService(log, set.WindowMoments, cfg),
		Snapshot:     services.NewSnapshotService(log, set.Trails, set.Encounters, set.WindowMoments, set.Pings, cfg),
		Retention:    services.NewRetentionService(log, set, cfg),
	}
}
