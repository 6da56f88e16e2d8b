package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/ghostline-backend/internal/data/repos/testutil"
	"github.com/yungbote/ghostline-backend/internal/platform/kv"
)

func TestUpdatePresenceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewPresenceService(testutil.Logger(t), f.set.Presence, nil, nil, f.cfg)
	ctx := context.Background()

	first, err := svc.UpdatePresence(ctx, "device-1", "100:200")
	if err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}
	f.clock.Advance(30 * time.Second)
	second, err := svc.UpdatePresence(ctx, "device-1", "100:200")
	if err != nil {
		t.Fatalf("UpdatePresence again: %v", err)
	}
	if first != second {
		t.Fatalf("row id: want=%s got=%s", first, second)
	}

	var rows int64
	if err := f.db.Table("presence").Where("device_id = ?", "device-1").Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows: want=1 got=%d", rows)
	}
	row, err := f.set.Presence.GetByDevice(dbcFor(ctx), "device-1")
	if err != nil {
		t.Fatalf("GetByDevice: %v", err)
	}
	if !row.LastSeen.Equal(f.clock.Now()) {
		t.Fatalf("last_seen: want=%v got=%v", f.clock.Now(), row.LastSeen)
	}

	if _, err := svc.UpdatePresence(ctx, " ", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank device: want ErrInvalidArgument got=%v", err)
	}
}

func TestPresenceCountWindows(t *testing.T) {
	f := newFixture(t)
	svc := NewPresenceService(testutil.Logger(t), f.set.Presence, nil, nil, f.cfg)
	ctx := context.Background()

	// seen 20m, 10m and 1m before the read
	if _, err := svc.UpdatePresence(ctx, "old", "1:1"); err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}
	f.clock.Advance(10 * time.Minute)
	if _, err := svc.UpdatePresence(ctx, "mid", "1:1"); err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}
	f.clock.Advance(9 * time.Minute)
	if _, err := svc.UpdatePresence(ctx, "new", "2:2"); err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}
	f.clock.Advance(time.Minute)

	got, err := svc.GetPresenceCount(ctx)
	if err != nil {
		t.Fatalf("GetPresenceCount: %v", err)
	}
	if got.Total != 2 || got.Recent != 1 {
		t.Fatalf("count: want total=2 recent=1 got=%+v", got)
	}
	n, err := svc.GetPresenceByCell(ctx, "1:1")
	if err != nil || n != 1 {
		t.Fatalf("by cell: want=1 got=%d err=%v", n, err)
	}

	if err := svc.RemovePresence(ctx, "new"); err != nil {
		t.Fatalf("RemovePresence: %v", err)
	}
	if err := svc.RemovePresence(ctx, "new"); err != nil {
		t.Fatalf("RemovePresence twice: %v", err)
	}
	got, _ = svc.GetPresenceCount(ctx)
	if got.Total != 1 || got.Recent != 0 {
		t.Fatalf("after remove: want total=1 recent=0 got=%+v", got)
	}
}

func TestPresenceCountIsCached(t *testing.T) {
	f := newFixture(t)
	cache := kv.NewMemoryWithClock(f.clock.Now)
	svc := NewPresenceService(testutil.Logger(t), f.set.Presence, cache, f.emit, f.cfg)
	ctx := context.Background()

	if _, err := svc.UpdatePresence(ctx, "a", ""); err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}
	got, _ := svc.GetPresenceCount(ctx)
	if got.Total != 1 {
		t.Fatalf("first read: want=1 got=%d", got.Total)
	}

	// a new device drops the cached count
	if _, err := svc.UpdatePresence(ctx, "b", ""); err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}
	got, _ = svc.GetPresenceCount(ctx)
	if got.Total != 2 {
		t.Fatalf("after new device: want=2 got=%d", got.Total)
	}

	// repeat heartbeats keep it
	f.clock.Advance(time.Second)
	if _, err := f.set.Presence.Upsert(dbcFor(ctx), "c", "", f.clock.Now()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := svc.UpdatePresence(ctx, "a", ""); err != nil {
		t.Fatalf("UpdatePresence repeat: %v", err)
	}
	got, _ = svc.GetPresenceCount(ctx)
	if got.Total != 2 {
		t.Fatalf("cached read: want=2 got=%d", got.Total)
	}

	f.clock.Advance(5 * time.Second)
	got, _ = svc.GetPresenceCount(ctx)
	if got.Total != 3 {
		t.Fatalf("after cache ttl: want=3 got=%d", got.Total)
	}
	if n := len(f.emit.events()); n != 3 {
		t.Fatalf("fresh counts emitted: want=3 got=%d", n)
	}
}
