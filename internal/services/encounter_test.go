package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/ghostline-backend/internal/data/repos/testutil"
)

func TestInsertEncounterRejectsShortSessions(t *testing.T) {
	f := newFixture(t)
	svc := NewEncounterService(testutil.Logger(t), f.set.Encounters, f.cfg)
	ctx := context.Background()

	_, err := svc.InsertEncounter(ctx, EncounterInput{DeviceA: "a", DeviceB: "b", DurationMs: 1500})
	if !errors.Is(err, ErrEncounterShort) || !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("1500ms: want ErrEncounterShort got=%v", err)
	}
	if _, err := svc.InsertEncounter(ctx, EncounterInput{DeviceA: "a", DeviceB: "b", DurationMs: 2000, MaxResonance: 1.4}); err != nil {
		t.Fatalf("2000ms: %v", err)
	}
	if _, err := svc.InsertEncounter(ctx, EncounterInput{DeviceA: "a", DeviceB: "a", DurationMs: 5000}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("self: want ErrInvalidArgument got=%v", err)
	}

	rows, err := svc.GetRecentEncounters(ctx, "b", 0)
	if err != nil {
		t.Fatalf("GetRecentEncounters: %v", err)
	}
	if len(rows) != 1 || rows[0].MaxResonance != 1 {
		t.Fatalf("stored: want one row clamped to 1 got=%+v", rows)
	}
}

func TestEncounterFrequencyGroupsByPeer(t *testing.T) {
	f := newFixture(t)
	svc := NewEncounterService(testutil.Logger(t), f.set.Encounters, f.cfg)
	ctx := context.Background()

	insert := func(a, b string, ritual bool) {
		t.Helper()
		if _, err := svc.InsertEncounter(ctx, EncounterInput{DeviceA: a, DeviceB: b, DurationMs: 3000, RitualTriggered: ritual, Lat: ptr(51.50049), Lng: ptr(-0.12)}); err != nil {
			t.Fatalf("InsertEncounter: %v", err)
		}
		f.clock.Advance(time.Minute)
	}
	insert("me", "p1", false)
	insert("p1", "me", true)
	insert("me", "p2", false)
	insert("me", "p1", false)
	insert("x", "y", false)

	got, err := svc.GetEncounterFrequency(ctx, "me")
	if err != nil {
		t.Fatalf("GetEncounterFrequency: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("peers: want=2 got=%+v", got)
	}
	if got[0].PeerID != "p1" || got[0].EncounterCount != 3 || !got[0].HasRitual {
		t.Fatalf("p1: got=%+v", got[0])
	}
	if !got[0].LastEncounter.Equal(testStart.Add(3 * time.Minute)) {
		t.Fatalf("p1 last: want=%v got=%v", testStart.Add(3*time.Minute), got[0].LastEncounter)
	}
	if got[1].PeerID != "p2" || got[1].EncounterCount != 1 || got[1].HasRitual {
		t.Fatalf("p2: got=%+v", got[1])
	}

	points, err := svc.GetEncountersInRange(ctx, testStart.Add(90*time.Second))
	if err != nil {
		t.Fatalf("GetEncountersInRange: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("in range: want=3 got=%d", len(points))
	}
	if points[0].Lat == nil || *points[0].Lat != 51.5 {
		t.Fatalf("quantized lat: got=%v", points[0].Lat)
	}

	recent, err := svc.GetRecentEncounters(ctx, "me", 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("recent limit: want=2 got=%d err=%v", len(recent), err)
	}
}
