// Package sched is the timing port for the device engine. Every callback a Scheduler runs,
// whether posted or fired by a timer, runs on one logical thread, so engine state needs no locks.
package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type Timer interface {
	// Stop cancels the timer. A stopped timer never runs its callback, even if it was already due.
	Stop()
}

type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Post(fn func())
}

// Loop runs callbacks on the goroutine that calls Run.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{queue: make(chan func(), buffer), done: make(chan struct{})}
}

func (l *Loop) Now() time.Time { return time.Now() }

// Post queues fn. It is dropped once Run has returned.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.stopped.Load() {
				fn()
			}
		})
	})
	return t
}

// Run drains the queue until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			fn()
		}
	}
}

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() {
	t.stopped.Store(true)
	t.t.Stop()
}

// Stop is a nil-safe helper for optional timers.
func Stop(t Timer) {
	if t != nil {
		t.Stop()
	}
}
