package sched

import (
	"context"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(t0)
	var got []int
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, 3) })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, 1) })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, 2) })

	m.Advance(200 * time.Millisecond)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("after 200ms: want=[1 2] got=%v", got)
	}
	if !m.Now().Equal(t0.Add(200 * time.Millisecond)) {
		t.Fatalf("now: want=%v got=%v", t0.Add(200*time.Millisecond), m.Now())
	}
	m.Advance(100 * time.Millisecond)
	if len(got) != 3 {
		t.Fatalf("after 300ms: want 3 fires got=%v", got)
	}
}

func TestManualCallbackSeesDueTime(t *testing.T) {
	m := NewManual(t0)
	var at time.Time
	m.AfterFunc(time.Second, func() { at = m.Now() })
	m.Advance(5 * time.Second)
	if !at.Equal(t0.Add(time.Second)) {
		t.Fatalf("callback time: want=%v got=%v", t0.Add(time.Second), at)
	}
}

func TestManualStoppedTimerNeverFires(t *testing.T) {
	m := NewManual(t0)
	fired := false
	tm := m.AfterFunc(time.Second, func() { fired = true })
	tm.Stop()
	m.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if m.Pending() != 0 {
		t.Fatalf("pending: want=0 got=%d", m.Pending())
	}
}

func TestManualRescheduleFromCallback(t *testing.T) {
	m := NewManual(t0)
	n := 0
	var tick func()
	tick = func() {
		n++
		m.AfterFunc(time.Second, tick)
	}
	m.AfterFunc(time.Second, tick)
	m.Advance(5 * time.Second)
	if n != 5 {
		t.Fatalf("ticks: want=5 got=%d", n)
	}
}

func TestLoopRunsPostedAndTimedCallbacks(t *testing.T) {
	l := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan string, 2)
	l.Post(func() { done <- "post" })
	l.AfterFunc(5*time.Millisecond, func() { done <- "timer" })
	stopped := l.AfterFunc(5*time.Millisecond, func() { done <- "stopped" })
	stopped.Stop()

	for _, want := range []string{"post", "timer"} {
		select {
		case got := <-done:
			if got != want {
				t.Fatalf("order: want=%s got=%s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
	select {
	case got := <-done:
		t.Fatalf("unexpected callback %s", got)
	case <-time.After(30 * time.Millisecond):
	}
}
