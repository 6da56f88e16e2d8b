// Package encounter turns peer lifecycle and ranging events into bounded encounters.
package encounter

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/proximity/discovery"
)

const (
	// ResonanceRange is the distance in metres at which resonance reaches zero.
	ResonanceRange      = 3.0
	DefaultHistoryLimit = 10
)

// Resonance is 1 at contact, falls linearly to 0 at ResonanceRange, and is 0 for unknown
// (negative) distances.
func Resonance(distance float64) float64 {
	if distance < 0 {
		return 0
	}
	r := 1 - distance/ResonanceRange
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

// Record is a finalized encounter as this device saw it.
type Record struct {
	ID              uuid.UUID
	PeerID          string
	StartedAt       time.Time
	DurationMs      int64
	MaxResonance    float64
	RitualTriggered bool
	Lat             *float64
	Lng             *float64
}

// Nearest is the peer currently feeding live resonance.
type Nearest struct {
	PeerID    string
	Distance  float64
	Resonance float64
}

type live struct {
	at           time.Time
	maxResonance float64
	ritual       bool
}

// Tracker is not safe for concurrent use; the engine drives it from its scheduler loop.
type Tracker struct {
	now          func() time.Time
	location     func() (lat, lng float64, ok bool)
	historyLimit int

	live      map[string]*live
	nearest   Nearest
	hasNearby bool
	last      *Record
	history   []Record
}

// NewTracker builds a tracker. location may be nil when the device has no fix.
func NewTracker(now func() time.Time, location func() (float64, float64, bool), historyLimit int) *Tracker {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Tracker{
		now:          now,
		location:     location,
		historyLimit: historyLimit,
		live:         make(map[string]*live),
	}
}

// Connected starts tracking peerID unless it is already tracked.
func (t *Tracker) Connected(peerID string) bool {
	if peerID == "" {
		return false
	}
	if _, ok := t.live[peerID]; ok {
		return false
	}
	t.live[peerID] = &live{at: t.now()}
	return true
}

func (t *Tracker) Tracking(peerID string) bool {
	_, ok := t.live[peerID]
	return ok
}

func (t *Tracker) ConnectedCount() int { return len(t.live) }

// Ranging updates live resonance from the nearest peer with a known distance. Only that
// peer's maxResonance moves, and it only ever rises.
func (t *Tracker) Ranging(objects []discovery.NearbyObject) (Nearest, bool) {
	best := -1
	for i, o := range objects {
		if o.ID == "" || o.Distance < 0 {
			continue
		}
		if best < 0 || o.Distance < objects[best].Distance {
			best = i
		}
	}
	if best < 0 {
		t.nearest = Nearest{}
		t.hasNearby = false
		return Nearest{}, false
	}
	o := objects[best]
	t.nearest = Nearest{PeerID: o.ID, Distance: o.Distance, Resonance: Resonance(o.Distance)}
	t.hasNearby = true
	if l, ok := t.live[o.ID]; ok && t.nearest.Resonance > l.maxResonance {
		l.maxResonance = t.nearest.Resonance
	}
	return t.nearest, true
}

// Resonance is the live value for the nearest peer, or 0 when nothing is in range.
func (t *Tracker) Resonance() float64 {
	if !t.hasNearby {
		return 0
	}
	return t.nearest.Resonance
}

func (t *Tracker) Nearest() (Nearest, bool) { return t.nearest, t.hasNearby }

// MarkRitualTriggered flags the live encounter with peerID; the flag is carried into the
// record when the encounter is finalized.
func (t *Tracker) MarkRitualTriggered(peerID string) bool {
	l, ok := t.live[peerID]
	if !ok {
		return false
	}
	l.ritual = true
	return true
}

// Lost finalizes the encounter with peerID. ok is false when the peer was not tracked or
// the encounter was too short to keep.
func (t *Tracker) Lost(peerID string) (Record, bool) {
	l, ok := t.live[peerID]
	if !ok {
		return Record{}, false
	}
	delete(t.live, peerID)
	if t.nearest.PeerID == peerID {
		t.nearest = Nearest{}
		t.hasNearby = false
	}

	dur := t.now().Sub(l.at)
	if !presence.IsValidEncounter(dur) {
		return Record{}, false
	}
	rec := Record{
		ID:              uuid.New(),
		PeerID:          peerID,
		StartedAt:       l.at,
		DurationMs:      dur.Milliseconds(),
		MaxResonance:    l.maxResonance,
		RitualTriggered: l.ritual,
	}
	if t.location != nil {
		if lat, lng, ok := t.location(); ok {
			rec.Lat, rec.Lng = &lat, &lng
		}
	}
	t.last = &rec
	t.history = append([]Record{rec}, t.history...)
	if len(t.history) > t.historyLimit {
		t.history = t.history[:t.historyLimit]
	}
	return rec, true
}

// LostAll finalizes every live encounter, e.g. when discovery stops.
func (t *Tracker) LostAll() []Record {
	var out []Record
	for id := range t.live {
		if rec, ok := t.Lost(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (t *Tracker) LastEncounter() (Record, bool) {
	if t.last == nil {
		return Record{}, false
	}
	return *t.last, true
}

// Encounters returns the most recent finalized encounters, newest first.
func (t *Tracker) Encounters() []Record {
	return append([]Record(nil), t.history...)
}
