package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/ghostline-backend/internal/data/repos/testutil"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/realtime"
)

func TestGhostPingTTLAndCap(t *testing.T) {
	f := newFixture(t)
	svc := NewBroadcastService(testutil.Logger(t), f.set.Broadcasts, f.emit, f.cfg)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := svc.SendGhostPing(ctx, "device-1", presence.GhostPayload{Lat: 51.5, Lng: -0.12, Intensity: 0.4}); err != nil {
			t.Fatalf("SendGhostPing: %v", err)
		}
		f.clock.Advance(time.Second)
	}

	got, err := svc.GetRecentGhostPings(ctx)
	if err != nil {
		t.Fatalf("GetRecentGhostPings: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("cap: want=8 got=%d", len(got))
	}
	if !got[0].CreatedAt.After(got[1].CreatedAt) {
		t.Fatalf("order: want newest first")
	}

	// the first ping expires exactly 15m after it was written
	f.clock.Set(testStart.Add(15 * time.Minute))
	got, err = svc.GetRecentGhostPings(ctx)
	if err != nil {
		t.Fatalf("GetRecentGhostPings: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("after first expiry: want=8 got=%d", len(got))
	}
	f.clock.Set(testStart.Add(15*time.Minute + 10*time.Second))
	got, _ = svc.GetRecentGhostPings(ctx)
	if len(got) != 0 {
		t.Fatalf("after all expired: want=0 got=%d", len(got))
	}

	if n := len(f.emit.events()); n != 10 {
		t.Fatalf("emitted: want=10 got=%d", n)
	}
}

func TestGhostPingRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	svc := NewBroadcastService(testutil.Logger(t), f.set.Broadcasts, nil, f.cfg)
	ctx := context.Background()

	if _, err := svc.SendGhostPing(ctx, "", presence.GhostPayload{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("missing device: want ErrInvalidArgument got=%v", err)
	}
	if _, err := svc.SendGhostPing(ctx, "d", presence.GhostPayload{Lat: 120}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad lat: want ErrInvalidArgument got=%v", err)
	}
}

func TestCurrentWindowMomentDefaultsClosed(t *testing.T) {
	f := newFixture(t)
	svc := NewBroadcastService(testutil.Logger(t), f.set.Broadcasts, f.emit, f.cfg)
	ctx := context.Background()

	got, err := svc.GetCurrentWindowMoment(ctx)
	if err != nil {
		t.Fatalf("GetCurrentWindowMoment: %v", err)
	}
	if got.IsOpen || got.StartedAt != nil {
		t.Fatalf("empty store: want closed got=%+v", got)
	}

	start := f.clock.Now()
	_, err = svc.SendWindowBroadcast(ctx, "device-1", presence.WindowPayload{
		StartedAt:        start,
		EndsAt:           start.Add(7 * time.Minute),
		PositionX:        0.25,
		PositionY:        1.7,
		TriggeredBy:      "device-1",
		ParticipantCount: 3,
	})
	if err != nil {
		t.Fatalf("SendWindowBroadcast: %v", err)
	}

	got, err = svc.GetCurrentWindowMoment(ctx)
	if err != nil {
		t.Fatalf("GetCurrentWindowMoment: %v", err)
	}
	if !got.IsOpen || got.ParticipantCount != 3 || got.PositionY != 1 {
		t.Fatalf("open window: got=%+v", got)
	}
	if got.EndsAt == nil || !got.EndsAt.Equal(start.Add(7*time.Minute)) {
		t.Fatalf("ends_at: got=%v", got.EndsAt)
	}

	// broadcast still live for 10m, but the window itself closed at 7m
	f.clock.Advance(8 * time.Minute)
	got, _ = svc.GetCurrentWindowMoment(ctx)
	if got.IsOpen {
		t.Fatalf("after window end: want closed got=%+v", got)
	}

	if _, err := svc.SendWindowBroadcast(ctx, "d", presence.WindowPayload{StartedAt: start, EndsAt: start}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty window: want ErrInvalidArgument got=%v", err)
	}
}

// One device pinging a cell every 30s: the score follows the density thresholds while the
// pings are live and drops to zero once the 5m TTL has passed.
func TestDensityPingScenario(t *testing.T) {
	f := newFixture(t)
	svc := NewBroadcastService(testutil.Logger(t), f.set.Broadcasts, f.emit, f.cfg)
	ctx := context.Background()

	wantScores := []int{0, 1, 1, 2}
	for i, want := range wantScores {
		if _, err := svc.SendDensityPing(ctx, "device-1", "100:200"); err != nil {
			t.Fatalf("SendDensityPing: %v", err)
		}
		got, err := svc.GetDensityForCell(ctx, "100:200")
		if err != nil {
			t.Fatalf("GetDensityForCell: %v", err)
		}
		if got.Count != int64(i+1) || got.DensityScore != want {
			t.Fatalf("after ping %d: want count=%d score=%d got=%+v", i+1, i+1, want, got)
		}
		f.clock.Advance(30 * time.Second)
	}

	other, err := svc.GetDensityForCell(ctx, "100:201")
	if err != nil || other.DensityScore != 0 {
		t.Fatalf("other cell: want score 0 got=%+v err=%v", other, err)
	}

	// last ping was written at 90s and expires at 6m30s
	f.clock.Set(testStart.Add(6*time.Minute + 30*time.Second))
	got, err := svc.GetDensityForCell(ctx, "100:200")
	if err != nil {
		t.Fatalf("GetDensityForCell: %v", err)
	}
	if got.Count != 0 || got.DensityScore != 0 {
		t.Fatalf("after ttl: want zero got=%+v", got)
	}

	var cellEvents int
	for _, m := range f.emit.events() {
		if m.Channel == realtime.CellChannel("100:200") {
			cellEvents++
		}
	}
	if cellEvents != 4 {
		t.Fatalf("cell channel events: want=4 got=%d", cellEvents)
	}
}
