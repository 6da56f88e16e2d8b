// Package window coordinates the rare collective window moment across devices that share
// no clock. Each device waits a random delay before opening and re-checks the trigger
// condition when the delay ends, so devices that cross the threshold together rarely all open.
package window

import (
	"math/rand/v2"
	"time"

	"github.com/yungbote/ghostline-backend/internal/proximity/sched"
)

const (
	TriggeredByPresence = "presence"
	TriggeredByDemo     = "demo"
)

type Config struct {
	MinInterval  time.Duration
	MinPeers     int
	JitterMin    time.Duration
	JitterMax    time.Duration
	Duration     time.Duration
	DemoDuration time.Duration
	Debounce     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinInterval:  30 * time.Minute,
		MinPeers:     2,
		JitterMin:    10 * time.Second,
		JitterMax:    60 * time.Second,
		Duration:     7 * time.Minute,
		DemoDuration: 90 * time.Second,
		Debounce:     5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinInterval <= 0 {
		c.MinInterval = d.MinInterval
	}
	if c.MinPeers <= 0 {
		c.MinPeers = d.MinPeers
	}
	if c.JitterMin <= 0 {
		c.JitterMin = d.JitterMin
	}
	if c.JitterMax < c.JitterMin {
		c.JitterMax = c.JitterMin
	}
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.DemoDuration <= 0 {
		c.DemoDuration = d.DemoDuration
	}
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	return c
}

// CanTriggerWindow is the trigger condition with the default thresholds.
func CanTriggerWindow(isOpen bool, peerCount int, sinceLast time.Duration) bool {
	d := DefaultConfig()
	return canTrigger(isOpen, peerCount, sinceLast, d.MinPeers, d.MinInterval)
}

func canTrigger(isOpen bool, peerCount int, sinceLast time.Duration, minPeers int, minInterval time.Duration) bool {
	return !isOpen && peerCount >= minPeers && sinceLast >= minInterval
}

type Moment struct {
	IsOpen           bool      `json:"is_open"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	EndsAt           time.Time `json:"ends_at,omitempty"`
	PositionX        float64   `json:"position_x"`
	PositionY        float64   `json:"position_y"`
	TriggeredBy      string    `json:"triggered_by,omitempty"`
	ParticipantCount int       `json:"participant_count"`
}

type Options struct {
	// PeerCount is read at evaluation time and again when the jitter delay ends.
	PeerCount func() int
	// Rand returns values in [0,1); nil uses math/rand/v2.
	Rand     func() float64
	OnChange func(Moment)
	OnOpen   func(Moment)
}

// Coordinator must be driven from the scheduler's loop.
type Coordinator struct {
	s   sched.Scheduler
	cfg Config
	opt Options

	moment      Moment
	lastTrigger time.Time
	debouncing  bool

	pending  sched.Timer
	closer   sched.Timer
	debounce sched.Timer
}

func New(s sched.Scheduler, cfg Config, opt Options) *Coordinator {
	if opt.Rand == nil {
		opt.Rand = rand.Float64
	}
	if opt.PeerCount == nil {
		opt.PeerCount = func() int { return 0 }
	}
	return &Coordinator{s: s, cfg: cfg.withDefaults(), opt: opt}
}

func (c *Coordinator) Moment() Moment { return c.moment }

func (c *Coordinator) Pending() bool { return c.pending != nil }

func (c *Coordinator) sinceLast() time.Duration {
	if c.lastTrigger.IsZero() {
		return c.cfg.MinInterval
	}
	return c.s.Now().Sub(c.lastTrigger)
}

func (c *Coordinator) ready() bool {
	return canTrigger(c.moment.IsOpen, c.opt.PeerCount(), c.sinceLast(), c.cfg.MinPeers, c.cfg.MinInterval)
}

// Evaluate schedules a jittered open when the trigger condition holds. Call it whenever the
// local or network peer count changes.
func (c *Coordinator) Evaluate() {
	if c.pending != nil || c.debouncing || !c.ready() {
		return
	}
	span := c.cfg.JitterMax - c.cfg.JitterMin
	delay := c.cfg.JitterMin + time.Duration(c.opt.Rand()*float64(span))
	c.pending = c.s.AfterFunc(delay, c.fire)
}

func (c *Coordinator) fire() {
	c.pending = nil
	if c.debouncing || !c.ready() {
		return
	}
	c.open(c.cfg.Duration, TriggeredByPresence, c.opt.PeerCount())
}

// TriggerDemo opens a short window immediately, skipping the interval and peer checks.
// It is still refused while a window is open or the debounce is active.
func (c *Coordinator) TriggerDemo() bool {
	if c.moment.IsOpen || c.debouncing {
		return false
	}
	sched.Stop(c.pending)
	c.pending = nil
	c.open(c.cfg.DemoDuration, TriggeredByDemo, c.opt.PeerCount())
	return true
}

func (c *Coordinator) open(d time.Duration, by string, participants int) {
	now := c.s.Now()
	c.moment = Moment{
		IsOpen:           true,
		StartedAt:        now,
		EndsAt:           now.Add(d),
		PositionX:        c.opt.Rand(),
		PositionY:        c.opt.Rand(),
		TriggeredBy:      by,
		ParticipantCount: participants,
	}
	c.lastTrigger = now
	c.debouncing = true
	c.debounce = c.s.AfterFunc(c.cfg.Debounce, func() {
		c.debounce = nil
		c.debouncing = false
	})
	c.closer = c.s.AfterFunc(d, c.close)
	if c.opt.OnChange != nil {
		c.opt.OnChange(c.moment)
	}
	if c.opt.OnOpen != nil {
		c.opt.OnOpen(c.moment)
	}
}

func (c *Coordinator) close() {
	c.closer = nil
	if !c.moment.IsOpen {
		return
	}
	c.moment.IsOpen = false
	if c.opt.OnChange != nil {
		c.opt.OnChange(c.moment)
	}
}

// Stop cancels every pending timer and closes any open window.
func (c *Coordinator) Stop() {
	sched.Stop(c.pending)
	sched.Stop(c.closer)
	sched.Stop(c.debounce)
	c.pending, c.closer, c.debounce = nil, nil, nil
	c.debouncing = false
	if c.moment.IsOpen {
		c.close()
	}
}
