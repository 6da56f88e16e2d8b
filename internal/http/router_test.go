package http

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	"github.com/yungbote/ghostline-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/ghostline-backend/internal/http/handlers"
	"github.com/yungbote/ghostline-backend/internal/http/response"
	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/platform/kv"
	"github.com/yungbote/ghostline-backend/internal/realtime"
	"github.com/yungbote/ghostline-backend/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)
	set := repos.NewSet(db, log)
	cfg := services.DefaultConfig()
	hub := realtime.NewSSEHub(log)
	emit := &services.HubEmitter{Hub: hub}
	metrics := observability.NewMetrics()

	broadcasts := services.NewBroadcastService(log, set.Broadcasts, emit, cfg)
	presence := services.NewPresenceService(log, set.Presence, kv.NewMemory(), emit, cfg)
	pings := services.NewPingService(db, log, set.Pings, set.PresenceSignals, cfg)
	encounters := services.NewEncounterService(log, set.Encounters, cfg)
	trails := services.NewTrailService(log, set.Trails, cfg)
	windows := services.NewWindowMomentService(log, set.WindowMoments, cfg)
	snapshot := services.NewSnapshotService(log, set.Trails, set.Encounters, set.WindowMoments, set.Pings, cfg)

	return NewRouter(RouterConfig{
		Log:              log,
		Metrics:          metrics,
		HealthHandler:    httpH.NewHealthHandler(nil),
		RealtimeHandler:  httpH.NewRealtimeHandler(hub, metrics),
		BroadcastHandler: httpH.NewBroadcastHandler(broadcasts, pings, metrics),
		PresenceHandler:  httpH.NewPresenceHandler(presence, pings),
		EncounterHandler: httpH.NewEncounterHandler(encounters),
		TrailHandler:     httpH.NewTrailHandler(trails, windows, snapshot),
	})
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthcheck(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, nethttp.MethodGet, "/healthcheck", nil)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: want=200 ok got=%d %q", rec.Code, rec.Body.String())
	}
}

func TestInsertEncounterRejectsShortDuration(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, nethttp.MethodPost, "/api/encounters", services.EncounterInput{
		DeviceA:    "dev-a",
		DeviceB:    "dev-b",
		DurationMs: 1999,
	})
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	var env response.ErrorEnvelope
	decode(t, rec, &env)
	if env.Error.Code != "encounter_too_short" {
		t.Fatalf("code: want=encounter_too_short got=%q", env.Error.Code)
	}
}

func TestEncounterFrequencyRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < 2; i++ {
		rec := do(t, r, nethttp.MethodPost, "/api/encounters", services.EncounterInput{
			DeviceA:      "dev-a",
			DeviceB:      "dev-b",
			DurationMs:   5000,
			MaxResonance: 0.4,
		})
		if rec.Code != nethttp.StatusCreated {
			t.Fatalf("insert %d: want=201 got=%d %s", i, rec.Code, rec.Body.String())
		}
	}
	rec := do(t, r, nethttp.MethodGet, "/api/encounters/frequency/dev-a", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("frequency: want=200 got=%d", rec.Code)
	}
	var out struct {
		Frequency []struct {
			PeerID         string `json:"peer_id"`
			EncounterCount int    `json:"encounter_count"`
		} `json:"frequency"`
	}
	decode(t, rec, &out)
	if len(out.Frequency) != 1 || out.Frequency[0].PeerID != "dev-b" || out.Frequency[0].EncounterCount != 2 {
		t.Fatalf("frequency: got=%+v", out.Frequency)
	}
}

func TestDensityPingsScoreCell(t *testing.T) {
	r := newTestRouter(t)
	for _, dev := range []string{"d1", "d2"} {
		rec := do(t, r, nethttp.MethodPost, "/api/broadcasts/density", map[string]string{"device_id": dev, "cell_id": "51507:-127"})
		if rec.Code != nethttp.StatusCreated {
			t.Fatalf("density ping: want=201 got=%d %s", rec.Code, rec.Body.String())
		}
	}
	rec := do(t, r, nethttp.MethodGet, "/api/density/51507:-127", nil)
	var out struct {
		Density struct {
			Count        int64 `json:"count"`
			DensityScore int   `json:"density_score"`
		} `json:"density"`
	}
	decode(t, rec, &out)
	if out.Density.Count != 2 || out.Density.DensityScore != 1 {
		t.Fatalf("density: want count=2 score=1 got=%+v", out.Density)
	}
}

func TestPresenceUpdateAndCount(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, nethttp.MethodPut, "/api/presence/dev-a", map[string]string{"cell_id": "1:1"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("update: want=200 got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, nethttp.MethodGet, "/api/presence/count", nil)
	var out struct {
		Count struct {
			Total  int64 `json:"total"`
			Recent int64 `json:"recent"`
		} `json:"count"`
	}
	decode(t, rec, &out)
	if out.Count.Total != 1 || out.Count.Recent != 1 {
		t.Fatalf("count: want total=1 recent=1 got=%+v", out.Count)
	}

	rec = do(t, r, nethttp.MethodDelete, "/api/presence/dev-a", nil)
	if rec.Code != nethttp.StatusNoContent {
		t.Fatalf("remove: want=204 got=%d", rec.Code)
	}
}

func TestQueryValidation(t *testing.T) {
	r := newTestRouter(t)
	cases := []struct {
		path string
		code string
	}{
		{"/api/encounters", "missing_since"},
		{"/api/encounters?since=yesterday", "invalid_since"},
		{"/api/presence/nearby?lat=51.5", "missing_location"},
		{"/api/trails/dev-a", "missing_since"},
	}
	for _, tc := range cases {
		rec := do(t, r, nethttp.MethodGet, tc.path, nil)
		if rec.Code != nethttp.StatusBadRequest {
			t.Fatalf("%s: want=400 got=%d", tc.path, rec.Code)
		}
		var env response.ErrorEnvelope
		decode(t, rec, &env)
		if env.Error.Code != tc.code {
			t.Fatalf("%s: want code=%s got=%q", tc.path, tc.code, env.Error.Code)
		}
	}
}

func TestSendPingThenNearby(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, nethttp.MethodPost, "/api/pings", services.PingInput{DeviceID: "dev-a", Lat: 51.5074, Lng: -0.1278})
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("ping: want=201 got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, nethttp.MethodGet, "/api/presence/nearby?lat=51.5&lng=-0.12&radius_km=5", nil)
	var out struct {
		Points []struct {
			Intensity float64 `json:"intensity"`
		} `json:"points"`
	}
	decode(t, rec, &out)
	if len(out.Points) != 1 {
		t.Fatalf("nearby: want=1 got=%d (%s)", len(out.Points), rec.Body.String())
	}
}
