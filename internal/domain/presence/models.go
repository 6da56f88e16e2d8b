package presence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Broadcast is an ephemeral network-wide signal. Rows are inserted once and never updated;
// only the retention scheduler deletes them.
type Broadcast struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type      BroadcastType  `gorm:"column:type;not null;index:idx_broadcast_type_expires,priority:1" json:"type"`
	DeviceID  string         `gorm:"column:device_id;not null;index" json:"device_id"`
	CellID    *string        `gorm:"column:cell_id;index" json:"cell_id,omitempty"`
	Payload   datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	ExpiresAt time.Time      `gorm:"column:expires_at;not null;index:idx_broadcast_type_expires,priority:2" json:"expires_at"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Broadcast) TableName() string { return "broadcast" }

// PresenceSignal is a device's heat-map contribution. One row per device.
type PresenceSignal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID  string    `gorm:"column:device_id;not null;uniqueIndex" json:"device_id"`
	Lat       float64   `gorm:"column:lat;not null;index:idx_presence_signal_latlng,priority:1" json:"lat"`
	Lng       float64   `gorm:"column:lng;not null;index:idx_presence_signal_latlng,priority:2" json:"lng"`
	Intensity float64   `gorm:"column:intensity;not null" json:"intensity"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (PresenceSignal) TableName() string { return "presence_signal" }

// Presence is the liveness heartbeat row used for online counting.
type Presence struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID  string    `gorm:"column:device_id;not null;uniqueIndex" json:"device_id"`
	CellID    string    `gorm:"column:cell_id;index" json:"cell_id,omitempty"`
	LastSeen  time.Time `gorm:"column:last_seen;not null;index" json:"last_seen"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (Presence) TableName() string { return "presence" }

// Ping is one location ping; it feeds heat, network activity and unique-device counts.
type Ping struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID  string    `gorm:"column:device_id;not null;index" json:"device_id"`
	Postcode  string    `gorm:"column:postcode" json:"postcode,omitempty"`
	Lat       float64   `gorm:"column:lat;not null" json:"lat"`
	Lng       float64   `gorm:"column:lng;not null" json:"lng"`
	Source    string    `gorm:"column:source" json:"source,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Ping) TableName() string { return "ping" }

type TrailPoint struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID  string    `gorm:"column:device_id;not null;index:idx_trail_device_created,priority:1" json:"device_id"`
	SessionID string    `gorm:"column:session_id;not null;index" json:"session_id"`
	Lat       float64   `gorm:"column:lat;not null" json:"lat"`
	Lng       float64   `gorm:"column:lng;not null" json:"lng"`
	Accuracy  float64   `gorm:"column:accuracy" json:"accuracy"`
	Seq       int       `gorm:"column:seq;not null" json:"seq"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_trail_device_created,priority:2" json:"created_at"`
}

func (TrailPoint) TableName() string { return "trail" }

// Encounter is a finalized proximity session between two devices. Only sessions of at least
// MinEncounterDuration are ever stored.
type Encounter struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceA         string    `gorm:"column:device_a;not null;index" json:"device_a"`
	DeviceB         string    `gorm:"column:device_b;not null;index" json:"device_b"`
	Lat             *float64  `gorm:"column:lat" json:"lat,omitempty"`
	Lng             *float64  `gorm:"column:lng" json:"lng,omitempty"`
	DurationMs      int64     `gorm:"column:duration_ms;not null" json:"duration_ms"`
	MaxResonance    float64   `gorm:"column:max_resonance;not null" json:"max_resonance"`
	RitualTriggered bool      `gorm:"column:ritual_triggered;not null" json:"ritual_triggered"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Encounter) TableName() string { return "encounter" }

type WindowMoment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StartedAt        time.Time `gorm:"column:started_at;not null;index" json:"started_at"`
	EndsAt           time.Time `gorm:"column:ends_at;not null" json:"ends_at"`
	PositionX        float64   `gorm:"column:position_x;not null" json:"position_x"`
	PositionY        float64   `gorm:"column:position_y;not null" json:"position_y"`
	TriggeredBy      string    `gorm:"column:triggered_by" json:"triggered_by"`
	ParticipantCount int       `gorm:"column:participant_count;not null" json:"participant_count"`
	CreatedAt        time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (WindowMoment) TableName() string { return "window_moment" }

// All lists every table for migrations.
func All() []any {
	return []any{
		&Broadcast{},
		&PresenceSignal{},
		&Presence{},
		&Ping{},
		&TrailPoint{},
		&Encounter{},
		&WindowMoment{},
	}
}
