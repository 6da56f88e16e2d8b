// Package ritual is the quiet ritual state machine: idle, arming while two devices stay
// close and resonant, active for a fixed hold once the dwell completes.
package ritual

import (
	"math/rand/v2"
	"time"

	"github.com/yungbote/ghostline-backend/internal/proximity/sched"
)

type Phase int

const (
	Idle Phase = iota
	Arming
	Active
)

func (p Phase) String() string {
	switch p {
	case Arming:
		return "arming"
	case Active:
		return "active"
	default:
		return "idle"
	}
}

var Phrases = []string{
	"you are not alone here",
	"someone passed this way",
	"stay a moment",
	"the street remembers",
	"hold still",
	"two signals, one place",
}

type Config struct {
	MaxDistance  float64
	MinResonance float64
	Dwell        time.Duration
	Hold         time.Duration
	Tick         time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxDistance:  1.2,
		MinResonance: 0.6,
		Dwell:        4200 * time.Millisecond,
		Hold:         7000 * time.Millisecond,
		Tick:         180 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxDistance <= 0 {
		c.MaxDistance = d.MaxDistance
	}
	if c.MinResonance <= 0 {
		c.MinResonance = d.MinResonance
	}
	if c.Dwell <= 0 {
		c.Dwell = d.Dwell
	}
	if c.Hold <= 0 {
		c.Hold = d.Hold
	}
	if c.Tick <= 0 {
		c.Tick = d.Tick
	}
	return c
}

// ShouldTriggerRitual is the firing condition with the default thresholds.
func ShouldTriggerRitual(distance, resonance float64, dwell time.Duration) bool {
	c := DefaultConfig()
	return distance <= c.MaxDistance && resonance >= c.MinResonance && dwell >= c.Dwell
}

type State struct {
	Phase          Phase     `json:"phase"`
	Active         bool      `json:"active"`
	Phrase         string    `json:"phrase,omitempty"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	Arming         bool      `json:"arming"`
	ArmingProgress float64   `json:"arming_progress"`
	PeerID         string    `json:"-"`
}

// Machine must be driven from the scheduler's loop.
type Machine struct {
	s        sched.Scheduler
	cfg      Config
	pick     func() string
	onChange func(State)
	onFire   func(peerID string)

	state    State
	armStart time.Time
	dwell    sched.Timer
	tick     sched.Timer
	hold     sched.Timer
	// peers that already had their ritual during the current encounter
	fired map[string]bool
}

// New builds a machine. pick chooses the phrase and may be nil. onChange and onFire may be nil.
func New(s sched.Scheduler, cfg Config, pick func() string, onChange func(State), onFire func(peerID string)) *Machine {
	if pick == nil {
		pick = func() string { return Phrases[rand.IntN(len(Phrases))] }
	}
	return &Machine{
		s:        s,
		cfg:      cfg.withDefaults(),
		pick:     pick,
		onChange: onChange,
		onFire:   onFire,
		fired:    make(map[string]bool),
	}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) armable(distance, resonance float64) bool {
	return distance >= 0 && distance <= m.cfg.MaxDistance && resonance >= m.cfg.MinResonance
}

// Observe feeds the nearest peer's latest distance and resonance.
func (m *Machine) Observe(peerID string, distance, resonance float64) {
	switch m.state.Phase {
	case Active:
		return
	case Arming:
		if peerID != m.state.PeerID || !m.armable(distance, resonance) {
			m.disarm()
		}
		return
	}
	if peerID == "" || m.fired[peerID] || !m.armable(distance, resonance) {
		return
	}
	m.armStart = m.s.Now()
	m.state = State{Phase: Arming, Arming: true, PeerID: peerID}
	m.dwell = m.s.AfterFunc(m.cfg.Dwell, m.activate)
	m.tick = m.s.AfterFunc(m.cfg.Tick, m.progress)
	m.emit()
}

// Clear drops arming for any reason other than a reading, e.g. no peer in range.
func (m *Machine) Clear() {
	if m.state.Phase == Arming {
		m.disarm()
	}
}

// PeerGone forgets peerID so a later encounter with it can have its own ritual.
func (m *Machine) PeerGone(peerID string) {
	delete(m.fired, peerID)
	if m.state.Phase == Arming && m.state.PeerID == peerID {
		m.disarm()
	}
}

// Stop cancels every pending timer and returns to idle.
func (m *Machine) Stop() {
	m.stopTimers()
	if m.state.Phase != Idle {
		m.state = State{}
		m.emit()
	}
}

func (m *Machine) disarm() {
	m.stopTimers()
	m.state = State{}
	m.emit()
}

func (m *Machine) progress() {
	m.tick = nil
	if m.state.Phase != Arming {
		return
	}
	m.state.ArmingProgress = clamp01(float64(m.s.Now().Sub(m.armStart)) / float64(m.cfg.Dwell))
	m.tick = m.s.AfterFunc(m.cfg.Tick, m.progress)
	m.emit()
}

func (m *Machine) activate() {
	m.dwell = nil
	if m.state.Phase != Arming {
		return
	}
	sched.Stop(m.tick)
	m.tick = nil
	peer := m.state.PeerID
	m.fired[peer] = true
	m.state = State{
		Phase:          Active,
		Active:         true,
		Phrase:         m.pick(),
		StartedAt:      m.s.Now(),
		ArmingProgress: 1,
		PeerID:         peer,
	}
	m.hold = m.s.AfterFunc(m.cfg.Hold, m.release)
	m.emit()
	if m.onFire != nil {
		m.onFire(peer)
	}
}

func (m *Machine) release() {
	m.hold = nil
	if m.state.Phase != Active {
		return
	}
	m.state = State{}
	m.emit()
}

func (m *Machine) stopTimers() {
	sched.Stop(m.dwell)
	sched.Stop(m.tick)
	sched.Stop(m.hold)
	m.dwell, m.tick, m.hold = nil, nil, nil
}

func (m *Machine) emit() {
	if m.onChange != nil {
		m.onChange(m.state)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
