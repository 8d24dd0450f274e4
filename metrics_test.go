package goGate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricRateLimitAllowed)

	if got := m.Value(MetricRateLimitAllowed); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsNilReceiverSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricMFAVerified)
	m.Observe(MetricVerifyMFALatency, time.Millisecond)
	if m.Value(MetricMFAVerified) != 0 || m.Enabled() {
		t.Fatal("expected nil metrics to stay empty")
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatal("expected empty snapshot")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRateLimitDenied)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRateLimitDenied); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}
	for _, d := range observations {
		m.Observe(MetricCheckLimitLatency, d)
	}
	m.Observe(MetricMFAVerified, time.Millisecond)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricCheckLimitLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if _, ok := snap.Histograms[MetricMFAVerified]; ok {
		t.Fatal("counter metric must not carry a histogram")
	}
	if _, ok := snap.Counters[MetricCheckLimitLatency]; ok {
		t.Fatal("latency metric must not appear among counters")
	}
}

func TestEngineRecordsLatencyHistograms(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.EnableLatencyHistograms = true
	e, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	_, _ = e.CheckLimit(ctx, EndpointLogin, "ip-1")
	id, _ := e.InitiateMFA(ctx, "u1", MFAMethodTOTP)
	_ = e.VerifyMFA(ctx, id, "123456")

	snap := e.MetricsSnapshot()
	if sum(snap.Histograms[MetricCheckLimitLatency]) != 1 {
		t.Fatalf("expected one CheckLimit observation, got %v", snap.Histograms[MetricCheckLimitLatency])
	}
	if sum(snap.Histograms[MetricVerifyMFALatency]) != 1 {
		t.Fatalf("expected one VerifyMFA observation, got %v", snap.Histograms[MetricVerifyMFALatency])
	}
}

func sum(values []uint64) uint64 {
	var total uint64
	for _, v := range values {
		total += v
	}
	return total
}
