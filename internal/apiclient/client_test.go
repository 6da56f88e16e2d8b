package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/domain/presence"
	"github.com/yungbote/ghostline-backend/internal/platform/apierr"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/proximity/engine"
	"github.com/yungbote/ghostline-backend/internal/proximity/memory"
	"github.com/yungbote/ghostline-backend/internal/services"
)

var (
	_ engine.Store           = (*Client)(nil)
	_ engine.PresenceCounter = (*Client)(nil)
	_ memory.Source          = (*Client)(nil)
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(logger.Nop(), Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestInsertEncounter(t *testing.T) {
	id := uuid.New()
	var got services.EncounterInput
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/encounters", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type: want=application/json got=%q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
	})
	c := newTestClient(t, mux)

	in := services.EncounterInput{DeviceA: "a", DeviceB: "b", DurationMs: 20000, MaxResonance: 0.73, RitualTriggered: true}
	out, err := c.InsertEncounter(context.Background(), in)
	if err != nil {
		t.Fatalf("InsertEncounter: %v", err)
	}
	if out != id {
		t.Fatalf("id: want=%s got=%s", id, out)
	}
	if got != in {
		t.Fatalf("body: want=%+v got=%+v", in, got)
	}
}

func TestErrorEnvelopeMapsToAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/encounters", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]string{"message": "encounter too short", "code": "encounter_too_short"},
		})
	})
	c := newTestClient(t, mux)

	_, err := c.InsertEncounter(context.Background(), services.EncounterInput{DeviceA: "a", DeviceB: "b", DurationMs: 10})
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("error: want *apierr.Error got=%T %v", err, err)
	}
	if ae.Status != http.StatusBadRequest || ae.Code != "encounter_too_short" {
		t.Fatalf("error: got status=%d code=%q", ae.Status, ae.Code)
	}
	if ae.Error() != "encounter too short" {
		t.Fatalf("message: got=%q", ae.Error())
	}
}

func TestPresenceRoundTrip(t *testing.T) {
	var cell, removed string
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/presence/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CellID string `json:"cell_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		cell = r.PathValue("id") + "@" + body.CellID
		writeJSON(w, http.StatusOK, map[string]any{"id": uuid.New()})
	})
	mux.HandleFunc("DELETE /api/presence/{id}", func(w http.ResponseWriter, r *http.Request) {
		removed = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/presence/count", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"count": presence.PresenceCount{Total: 4, Recent: 2}})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	if _, err := c.UpdatePresence(ctx, "dev-1", "123:456"); err != nil {
		t.Fatalf("UpdatePresence: %v", err)
	}
	if cell != "dev-1@123:456" {
		t.Fatalf("update: got=%q", cell)
	}
	pc, err := c.GetPresenceCount(ctx)
	if err != nil {
		t.Fatalf("GetPresenceCount: %v", err)
	}
	if pc.Total != 4 || pc.Recent != 2 {
		t.Fatalf("count: got=%+v", pc)
	}
	if err := c.RemovePresence(ctx, "dev-1"); err != nil {
		t.Fatalf("RemovePresence: %v", err)
	}
	if removed != "dev-1" {
		t.Fatalf("remove: got=%q", removed)
	}
}

func TestEncounterFrequency(t *testing.T) {
	last := time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/encounters/frequency/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "dev-1" {
			t.Errorf("device: got=%q", r.PathValue("id"))
		}
		writeJSON(w, http.StatusOK, map[string]any{"frequency": []presence.EncounterFrequency{
			{PeerID: "peer-b", EncounterCount: 3, LastEncounter: last, HasRitual: true},
		}})
	})
	c := newTestClient(t, mux)

	freq, err := c.GetEncounterFrequency(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("GetEncounterFrequency: %v", err)
	}
	if len(freq) != 1 || freq[0].PeerID != "peer-b" || freq[0].EncounterCount != 3 || !freq[0].LastEncounter.Equal(last) {
		t.Fatalf("frequency: got=%+v", freq)
	}
}

func TestWindowBroadcastBody(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/broadcasts/window", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{"id": uuid.New()})
	})
	c := newTestClient(t, mux)

	start := time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)
	_, err := c.SendWindowBroadcast(context.Background(), "dev-1", presence.WindowPayload{
		StartedAt: start, EndsAt: start.Add(7 * time.Minute), PositionX: 0.25, PositionY: 0.5, TriggeredBy: "presence", ParticipantCount: 3,
	})
	if err != nil {
		t.Fatalf("SendWindowBroadcast: %v", err)
	}
	if body["device_id"] != "dev-1" || body["triggered_by"] != "presence" || body["participant_count"] != float64(3) {
		t.Fatalf("body: got=%v", body)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Fatalf("New: want error for empty base url")
	}
}
