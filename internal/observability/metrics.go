package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

// Metrics is a small Prometheus text-format registry. A nil *Metrics is a valid no-op.
type Metrics struct {
	apiRequests      *CounterVec
	apiLatency       *HistogramVec
	apiInflight      *Gauge
	broadcastsSent   *CounterVec
	retentionDeleted *CounterVec
	retentionRuns    *CounterVec
	retentionLatency *HistogramVec
	sseClients       *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide registry; it returns nil when disabled.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("ghostline_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ghostline_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight:      NewGauge("ghostline_api_inflight_requests", "In-flight API requests."),
		broadcastsSent:   NewCounterVec("ghostline_broadcasts_sent_total", "Broadcast rows written by type.", []string{"type"}),
		retentionDeleted: NewCounterVec("ghostline_retention_deleted_total", "Rows hard-deleted by retention job.", []string{"job"}),
		retentionRuns:    NewCounterVec("ghostline_retention_runs_total", "Retention job runs by job/status.", []string{"job", "status"}),
		retentionLatency: NewHistogramVec(
			"ghostline_retention_duration_seconds",
			"Retention job duration in seconds.",
			[]string{"job"},
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		),
		sseClients: NewGauge("ghostline_sse_clients", "Connected realtime stream clients."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && log != nil {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.broadcastsSent,
		m.retentionDeleted,
		m.retentionRuns,
		m.retentionLatency,
		m.sseClients,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncBroadcast(kind string) {
	if m == nil {
		return
	}
	m.broadcastsSent.Inc(kind)
}

func (m *Metrics) ObserveRetention(job string, deleted int64, dur time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.retentionRuns.Inc(job, status)
	m.retentionLatency.Observe(dur.Seconds(), job)
	if deleted > 0 {
		m.retentionDeleted.Add(float64(deleted), job)
	}
}

func (m *Metrics) SSEClientConnected() {
	if m == nil {
		return
	}
	m.sseClients.Inc()
}

func (m *Metrics) SSEClientDisconnected() {
	if m == nil {
		return
	}
	m.sseClients.Dec()
}
