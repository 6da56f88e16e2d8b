package ritual

import (
	"testing"
	"time"

	"github.com/yungbote/ghostline-backend/internal/proximity/sched"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestShouldTriggerRitual(t *testing.T) {
	cases := []struct {
		d, r float64
		dur  time.Duration
		want bool
	}{
		{1.0, 0.7, 4200 * time.Millisecond, true},
		{1.0, 0.7, 4000 * time.Millisecond, false},
		{1.2, 0.6, 4200 * time.Millisecond, true},
		{1.3, 0.7, 5000 * time.Millisecond, false},
		{1.0, 0.59, 5000 * time.Millisecond, false},
	}
	for _, tc := range cases {
		if got := ShouldTriggerRitual(tc.d, tc.r, tc.dur); got != tc.want {
			t.Fatalf("shouldTrigger(%v,%v,%v): want=%v got=%v", tc.d, tc.r, tc.dur, tc.want, got)
		}
	}
}

type harness struct {
	m     *sched.Manual
	mc    *Machine
	fires []string
}

func newHarness() *harness {
	h := &harness{m: sched.NewManual(t0)}
	h.mc = New(h.m, DefaultConfig(), func() string { return Phrases[0] }, nil, func(p string) { h.fires = append(h.fires, p) })
	return h
}

// feed reports the same reading every 100ms until the clock reaches end.
func (h *harness) feed(peer string, d, r float64, until time.Duration) {
	for h.m.Now().Before(t0.Add(until)) {
		h.mc.Observe(peer, d, r)
		h.m.Advance(100 * time.Millisecond)
	}
}

func TestRitualFiresAfterDwellAndClearsAfterHold(t *testing.T) {
	h := newHarness()
	h.feed("p", 0.8, 0.73, 4100*time.Millisecond)
	if h.mc.State().Phase != Arming {
		t.Fatalf("phase at 4100ms: want=arming got=%v", h.mc.State().Phase)
	}
	if p := h.mc.State().ArmingProgress; p < 0.9 || p >= 1 {
		t.Fatalf("progress near dwell: got=%v", p)
	}
	h.m.Advance(100 * time.Millisecond)
	if h.mc.State().Phase != Active || len(h.fires) != 1 {
		t.Fatalf("after dwell: want active with one fire got phase=%v fires=%d", h.mc.State().Phase, len(h.fires))
	}
	if h.mc.State().Phrase != Phrases[0] {
		t.Fatalf("phrase: got=%q", h.mc.State().Phrase)
	}
	if started := h.mc.State().StartedAt; !started.Equal(t0.Add(4200 * time.Millisecond)) {
		t.Fatalf("startedAt: want=%v got=%v", t0.Add(4200*time.Millisecond), started)
	}

	h.m.AdvanceTo(t0.Add(11199 * time.Millisecond))
	if h.mc.State().Phase != Active {
		t.Fatalf("phase before hold ends: want=active got=%v", h.mc.State().Phase)
	}
	h.m.Advance(time.Millisecond)
	if h.mc.State().Phase != Idle {
		t.Fatalf("phase after hold: want=idle got=%v", h.mc.State().Phase)
	}

	// one ritual per encounter with the same peer
	h.feed("p", 0.8, 0.73, 20*time.Second)
	if len(h.fires) != 1 {
		t.Fatalf("fires: want=1 got=%d", len(h.fires))
	}
	h.mc.PeerGone("p")
	h.feed("p", 0.8, 0.73, 25*time.Second)
	if len(h.fires) != 2 {
		t.Fatalf("fires after peer returns: want=2 got=%d", len(h.fires))
	}
}

func TestBrokenConditionResetsProgress(t *testing.T) {
	h := newHarness()
	h.feed("p", 1.0, 0.66, 3*time.Second)
	if h.mc.State().ArmingProgress == 0 {
		t.Fatalf("progress should have advanced")
	}
	h.mc.Observe("p", 1.5, 0.5)
	st := h.mc.State()
	if st.Phase != Idle || st.ArmingProgress != 0 {
		t.Fatalf("after break: want idle/0 got=%v/%v", st.Phase, st.ArmingProgress)
	}
	if h.m.Pending() != 0 {
		t.Fatalf("timers after break: want=0 got=%d", h.m.Pending())
	}

	// progress is not banked: a fresh dwell is needed
	start := h.m.Now()
	for h.m.Now().Before(start.Add(4100 * time.Millisecond)) {
		h.mc.Observe("p", 1.0, 0.66)
		h.m.Advance(100 * time.Millisecond)
	}
	if len(h.fires) != 0 {
		t.Fatalf("fired before a full fresh dwell")
	}
}

func TestNearestPeerChangeDisarms(t *testing.T) {
	h := newHarness()
	h.feed("a", 0.5, 0.83, time.Second)
	h.mc.Observe("b", 0.4, 0.86)
	if h.mc.State().Phase != Idle {
		t.Fatalf("switching peer should disarm, got=%v", h.mc.State().Phase)
	}
}

func TestStopCancelsTimers(t *testing.T) {
	h := newHarness()
	h.mc.Observe("p", 0.5, 0.83)
	h.mc.Stop()
	h.m.Advance(10 * time.Second)
	if len(h.fires) != 0 || h.mc.State().Phase != Idle {
		t.Fatalf("stopped machine fired or left idle: fires=%d phase=%v", len(h.fires), h.mc.State().Phase)
	}
}
