// Package heartbeat drives the device's periodic presence upsert.
package heartbeat

import (
	"time"

	"github.com/yungbote/ghostline-backend/internal/proximity/sched"
)

const DefaultInterval = 30 * time.Second

// Heartbeat calls beat now and then every interval until Stop. It must be driven from the
// scheduler's loop.
type Heartbeat struct {
	s        sched.Scheduler
	interval time.Duration
	beat     func()
	timer    sched.Timer
	running  bool
}

func New(s sched.Scheduler, interval time.Duration, beat func()) *Heartbeat {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Heartbeat{s: s, interval: interval, beat: beat}
}

func (h *Heartbeat) Start() {
	if h.running {
		return
	}
	h.running = true
	h.tick()
}

func (h *Heartbeat) tick() {
	if !h.running {
		return
	}
	h.beat()
	h.timer = h.s.AfterFunc(h.interval, h.tick)
}

func (h *Heartbeat) Stop() {
	h.running = false
	sched.Stop(h.timer)
	h.timer = nil
}

func (h *Heartbeat) Running() bool { return h.running }
