package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/ghostline-backend/internal/data/repos/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type BroadcastRepo = presence.BroadcastRepo
type PresenceRepo = presence.PresenceRepo
type PresenceSignalRepo = presence.PresenceSignalRepo
type PingRepo = presence.PingRepo
type TrailRepo = presence.TrailRepo
type EncounterRepo = presence.EncounterRepo
type WindowMomentRepo = presence.WindowMomentRepo

func NewBroadcastRepo(db *gorm.DB, baseLog *logger.Logger) BroadcastRepo {
	return presence.NewBroadcastRepo(db, baseLog)
}
func NewPresenceRepo(db *gorm.DB, baseLog *logger.Logger) PresenceRepo {
	return presence.NewPresenceRepo(db, baseLog)
}
func NewPresenceSignalRepo(db *gorm.DB, baseLog *logger.Logger) PresenceSignalRepo {
	return presence.NewPresenceSignalRepo(db, baseLog)
}
func NewPingRepo(db *gorm.DB, baseLog *logger.Logger) PingRepo {
	return presence.NewPingRepo(db, baseLog)
}
func NewTrailRepo(db *gorm.DB, baseLog *logger.Logger) TrailRepo {
	return presence.NewTrailRepo(db, baseLog)
}
func NewEncounterRepo(db *gorm.DB, baseLog *logger.Logger) EncounterRepo {
	return presence.NewEncounterRepo(db, baseLog)
}
func NewWindowMomentRepo(db *gorm.DB, baseLog *logger.Logger) WindowMomentRepo {
	return presence.NewWindowMomentRepo(db, baseLog)
}

// Set bundles every repo over one database handle.
type Set struct {
	Broadcasts      BroadcastRepo
	Presence        PresenceRepo
	PresenceSignals PresenceSignalRepo
	Pings           PingRepo
	Trails          TrailRepo
	Encounters      EncounterRepo
	WindowMoments   WindowMomentRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Broadcasts:      NewBroadcastRepo(db, baseLog),
		Presence:        NewPresenceRepo(db, baseLog),
		PresenceSignals: NewPresenceSignalRepo(db, baseLog),
		Pings:           NewPingRepo(db, baseLog),
		Trails:          NewTrailRepo(db, baseLog),
		Encounters:      NewEncounterRepo(db, baseLog),
		WindowMoments:   NewWindowMomentRepo(db, baseLog),
	}
}
