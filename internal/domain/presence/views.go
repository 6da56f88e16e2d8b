package presence

import "time"

type PresenceCount struct {
	Total  int64 `json:"total"`
	Recent int64 `json:"recent"`
}

type DensityReading struct {
	CellID       string `json:"cell_id"`
	Count        int64  `json:"count"`
	DensityScore int    `json:"density_score"`
}

type NetworkActivity struct {
	PingCount int64 `json:"ping_count"`
	Level     int   `json:"level"`
}

type NearbyPoint struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Intensity  float64 `json:"intensity"`
	AgeMinutes float64 `json:"age_minutes"`
}

type EncounterFrequency struct {
	PeerID         string    `json:"peer_id"`
	EncounterCount int       `json:"encounter_count"`
	LastEncounter  time.Time `json:"last_encounter"`
	HasRitual      bool      `json:"has_ritual"`
}

// WindowMomentSignal is the current network window as seen through live broadcasts.
// The zero value is the closed window.
type WindowMomentSignal struct {
	IsOpen           bool       `json:"is_open"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	PositionX        float64    `json:"position_x"`
	PositionY        float64    `json:"position_y"`
	TriggeredBy      string     `json:"triggered_by,omitempty"`
	ParticipantCount int        `json:"participant_count"`
}

type TrailSession struct {
	SessionID string       `json:"session_id"`
	Points    []TrailPoint `json:"points"`
}

// EncounterPoint is an anonymized encounter for history views.
type EncounterPoint struct {
	Lat             *float64  `json:"lat,omitempty"`
	Lng             *float64  `json:"lng,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	MaxResonance    float64   `json:"max_resonance"`
	RitualTriggered bool      `json:"ritual_triggered"`
	At              time.Time `json:"at"`
}

type TemporalSnapshot struct {
	Since          time.Time        `json:"since"`
	TakenAt        time.Time        `json:"taken_at"`
	Trails         []TrailSession   `json:"trails"`
	Encounters     []EncounterPoint `json:"encounters"`
	WindowMoments  []WindowMoment   `json:"window_moments"`
	PresenceCount  int64            `json:"presence_count"`
	EncounterCount int              `json:"encounter_count"`
	WindowCount    int              `json:"window_count"`
}

// ScrubTo returns a copy whose trail points are limited to those recorded at or before
// cutoff. Encounters and window moments cover the whole queried range and are kept as is.
func (s TemporalSnapshot) ScrubTo(cutoff time.Time) TemporalSnapshot {
	out := s
	out.Trails = make([]TrailSession, 0, len(s.Trails))
	for _, sess := range s.Trails {
		kept := make([]TrailPoint, 0, len(sess.Points))
		for _, p := range sess.Points {
			if !p.CreatedAt.After(cutoff) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out.Trails = append(out.Trails, TrailSession{SessionID: sess.SessionID, Points: kept})
	}
	return out
}
