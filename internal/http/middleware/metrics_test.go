package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ghostline-backend/internal/observability"
)

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.PUT("/api/presence/:deviceId", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/realtime/stream", func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Status(http.StatusOK)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPut, "/api/presence/device-secret", nil),
		httptest.NewRequest(http.MethodGet, "/api/realtime/stream", nil),
		httptest.NewRequest(http.MethodGet, "/nope", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "device-secret") {
		t.Fatalf("device id leaked into labels: %s", out)
	}
	if !strings.Contains(out, `route="/api/presence/:deviceId"`) {
		t.Fatalf("route template: want present got=%s", out)
	}
	if !strings.Contains(out, `route="unmatched"`) {
		t.Fatalf("unmatched route: want present got=%s", out)
	}
	if strings.Contains(out, `route="/api/realtime/stream"`) {
		t.Fatalf("stream: want not observed got=%s", out)
	}
}
