package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGate "github.com/MrEthical07/goGate"
)

type fakeSource struct {
	snapshot goGate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters:   map[goGate.MetricID]uint64{},
			Histograms: map[goGate.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters: map[goGate.MetricID]uint64{
				goGate.MetricMFAVerified: 7,
			},
			Histograms: map[goGate.MetricID][]uint64{
				goGate.MetricVerifyMFALatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "gogate_mfa_verified_total 7") {
		t.Fatalf("expected mfa_verified counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gogate_verify_mfa_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gogate_verify_mfa_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "gogate_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters:   map[goGate.MetricID]uint64{goGate.MetricRateLimitAllowed: 1},
			Histograms: map[goGate.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRenderFromLiveEngine(t *testing.T) {
	cfg := goGate.DefaultConfig()
	cfg.Cleanup.Disabled = true
	engine, err := goGate.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	for i := 0; i < 4; i++ {
		_, _ = engine.CheckLimit(context.Background(), goGate.EndpointPasswordReset, "ip")
	}

	out := NewPrometheusExporter(engine).Render()
	if !strings.Contains(out, "gogate_rate_limit_allowed_total 3") {
		t.Fatalf("expected allowed counter, got:\n%s", out)
	}
	if !strings.Contains(out, "gogate_rate_limit_denied_total 1") {
		t.Fatalf("expected denied counter, got:\n%s", out)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters: map[goGate.MetricID]uint64{
				goGate.MetricRateLimitAllowed: 1000,
				goGate.MetricRateLimitDenied:  40,
				goGate.MetricMFAInitiated:     800,
				goGate.MetricMFAVerified:      780,
				goGate.MetricMFAFailedAttempt: 90,
				goGate.MetricBackupCodeUsed:   3,
			},
			Histograms: map[goGate.MetricID][]uint64{
				goGate.MetricCheckLimitLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
