package engine

import (
	"time"

	"github.com/yungbote/ghostline-backend/internal/proximity/encounter"
	"github.com/yungbote/ghostline-backend/internal/proximity/ritual"
	"github.com/yungbote/ghostline-backend/internal/proximity/window"
)

type EventKind string

const (
	EventResonance EventKind = "resonance"
	EventRitual    EventKind = "ritual"
	EventWindow    EventKind = "window"
	EventEncounter EventKind = "encounter"
	EventError     EventKind = "error"
)

// Event is what UI layers observe. Only the field matching Kind is set.
type Event struct {
	Kind      EventKind
	At        time.Time
	Resonance float64
	Ritual    ritual.State
	Window    window.Moment
	Encounter encounter.Record
	Error     string
}
