package presence

import (
	"testing"
	"time"
)

func TestPayloadRoundTripByKind(t *testing.T) {
	started := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	payloads := []BroadcastPayload{
		GhostPayload{Lat: 51.501, Lng: -0.142, Intensity: 0.4},
		WindowPayload{StartedAt: started, EndsAt: started.Add(7 * time.Minute), PositionX: 0.3, PositionY: 0.7, ParticipantCount: 3},
		DensityPayload{CellID: "100:200"},
	}
	for _, p := range payloads {
		raw, err := EncodePayload(p)
		if err != nil {
			t.Fatalf("EncodePayload(%s): %v", p.Kind(), err)
		}
		b := &Broadcast{Type: p.Kind(), Payload: raw}
		sig, err := b.Decode()
		if err != nil {
			t.Fatalf("Decode(%s): %v", p.Kind(), err)
		}
		if sig.Payload.Kind() != p.Kind() {
			t.Fatalf("kind: want=%s got=%s", p.Kind(), sig.Payload.Kind())
		}
		switch want := p.(type) {
		case WindowPayload:
			got := sig.Payload.(WindowPayload)
			if !got.StartedAt.Equal(want.StartedAt) || got.ParticipantCount != want.ParticipantCount {
				t.Fatalf("window payload: want=%+v got=%+v", want, got)
			}
		case DensityPayload:
			if got := sig.Payload.(DensityPayload); got.CellID != want.CellID {
				t.Fatalf("density cell: want=%s got=%s", want.CellID, got.CellID)
			}
		}
	}
}

func TestDecodePayloadRejectsUnknownKind(t *testing.T) {
	if _, err := DecodePayload("sparkle", []byte(`{}`)); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestScrubToFiltersTrailsOnly(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := TemporalSnapshot{
		Trails: []TrailSession{
			{SessionID: "a", Points: []TrailPoint{{Seq: 0, CreatedAt: base}, {Seq: 1, CreatedAt: base.Add(10 * time.Minute)}}},
			{SessionID: "b", Points: []TrailPoint{{Seq: 0, CreatedAt: base.Add(20 * time.Minute)}}},
		},
		Encounters: []EncounterPoint{{At: base.Add(30 * time.Minute)}},
	}
	scrubbed := snap.ScrubTo(base.Add(5 * time.Minute))
	if len(scrubbed.Trails) != 1 || len(scrubbed.Trails[0].Points) != 1 {
		t.Fatalf("scrubbed trails: got=%+v", scrubbed.Trails)
	}
	if len(scrubbed.Encounters) != 1 {
		t.Fatalf("encounters must not be scrubbed: got=%d", len(scrubbed.Encounters))
	}
	if len(snap.Trails[0].Points) != 2 {
		t.Fatalf("ScrubTo must not mutate the original snapshot")
	}
}
