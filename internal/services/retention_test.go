package services

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/ghostline-backend/internal/data/repos/testutil"
	"github.com/yungbote/ghostline-backend/internal/domain/presence"
)

func TestRetentionPurgesOnlyExpiredRows(t *testing.T) {
	f := newFixture(t)
	log := testutil.Logger(t)
	broadcasts := NewBroadcastService(log, f.set.Broadcasts, nil, f.cfg)
	pres := NewPresenceService(log, f.set.Presence, nil, nil, f.cfg)
	pings := NewPingService(f.db, log, f.set.Pings, f.set.PresenceSignals, f.cfg)
	trails := NewTrailService(log, f.set.Trails, f.cfg)
	svc := NewRetentionService(log, f.set, f.cfg)
	ctx := context.Background()

	// nothing to purge is a silent no-op
	counts, err := svc.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll empty: %v", err)
	}
	for name, n := range counts {
		if n != 0 {
			t.Fatalf("%s on empty store: want=0 got=%d", name, n)
		}
	}

	mustOK := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	_, err = broadcasts.SendDensityPing(ctx, "a", "1:1")
	mustOK(err)
	_, err = broadcasts.SendGhostPing(ctx, "a", presence.GhostPayload{Lat: 1, Lng: 1})
	mustOK(err)
	_, err = pres.UpdatePresence(ctx, "stale", "")
	mustOK(err)
	_, err = pings.SendPing(ctx, PingInput{DeviceID: "a", Lat: 1, Lng: 1})
	mustOK(err)
	_, err = trails.InsertTrailPoint(ctx, TrailPointInput{DeviceID: "a", SessionID: "s", Lat: 1, Lng: 1})
	mustOK(err)

	f.clock.Advance(10 * time.Minute)
	_, err = pres.UpdatePresence(ctx, "fresh", "")
	mustOK(err)

	n, err := svc.PurgeExpiredBroadcasts(ctx)
	if err != nil || n != 1 {
		t.Fatalf("broadcasts at 10m: want=1 (density) got=%d err=%v", n, err)
	}
	if n, _ := svc.PurgeExpiredPresenceSignals(ctx); n != 0 {
		t.Fatalf("signals at 10m: want=0 got=%d", n)
	}

	f.clock.Advance(25 * time.Minute)
	counts, err = svc.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	want := map[string]int64{
		JobExpireBroadcasts:      1,
		JobExpirePresenceSignals: 1,
		JobExpireStalePresence:   1,
		JobPurgeOldTrails:        0,
		JobPurgeOldPings:         0,
	}
	for name, w := range want {
		if counts[name] != w {
			t.Fatalf("%s: want=%d got=%d", name, w, counts[name])
		}
	}

	f.clock.Advance(7 * 24 * time.Hour)
	if n, _ := svc.PurgeOldTrails(ctx); n != 1 {
		t.Fatalf("trails after 7d: want=1 got=%d", n)
	}
	if n, _ := svc.PurgeOldPings(ctx); n != 1 {
		t.Fatalf("pings after 7d: want=1 got=%d", n)
	}
	// idempotent
	if n, _ := svc.PurgeOldTrails(ctx); n != 0 {
		t.Fatalf("second trail purge: want=0 got=%d", n)
	}
}

func TestRetentionJobsDefaults(t *testing.T) {
	f := newFixture(t)
	svc := NewRetentionService(testutil.Logger(t), f.set, f.cfg)
	jobs := svc.Jobs(RetentionIntervals{Broadcasts: time.Minute})
	if len(jobs) != 5 {
		t.Fatalf("jobs: want=5 got=%d", len(jobs))
	}
	byName := map[string]time.Duration{}
	for _, j := range jobs {
		byName[j.Name] = j.Interval
	}
	if byName[JobExpireBroadcasts] != time.Minute {
		t.Fatalf("override: want=1m got=%v", byName[JobExpireBroadcasts])
	}
	if byName[JobPurgeOldTrails] != 24*time.Hour || byName[JobExpirePresenceSignals] != 5*time.Minute {
		t.Fatalf("defaults: got=%v", byName)
	}
}
