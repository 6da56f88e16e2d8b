package domain

import "github.com/yungbote/ghostline-backend/internal/domain/presence"

type Broadcast = presence.Broadcast
type BroadcastType = presence.BroadcastType
type PresenceSignal = presence.PresenceSignal
type Presence = presence.Presence
type Ping = presence.Ping
type TrailPoint = presence.TrailPoint
type Encounter = presence.Encounter
type WindowMoment = presence.WindowMoment

const (
	BroadcastGhost   = presence.BroadcastGhost
	BroadcastWindow  = presence.BroadcastWindow
	BroadcastDensity = presence.BroadcastDensity
)

type Signal = presence.Signal
type GhostPing = presence.GhostPing
type PresenceCount = presence.PresenceCount
type DensityReading = presence.DensityReading
type NetworkActivity = presence.NetworkActivity
type NearbyPoint = presence.NearbyPoint
type EncounterFrequency = presence.EncounterFrequency
type WindowMomentSignal = presence.WindowMomentSignal
type TrailSession = presence.TrailSession
type EncounterPoint = presence.EncounterPoint
type TemporalSnapshot = presence.TemporalSnapshot
