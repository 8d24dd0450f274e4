package goGate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goGate/internal/backup"
	"github.com/MrEthical07/goGate/internal/mfa"
	"github.com/MrEthical07/goGate/internal/rate"
	"github.com/MrEthical07/goGate/internal/sweep"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/redis/go-redis/v9"
)

// Engine is the access-control core: per-endpoint rate limiting plus the
// MFA session lifecycle and backup codes. Build it with [New]; all
// methods are safe for concurrent use.
type Engine struct {
	config     Config
	clock      Clock
	logger     *slog.Logger
	limiter    *rate.Limiter
	mfa        *mfa.Manager
	backup     *backup.Manager
	assertions *jwt.Manager
	audit      *auditDispatcher
	metrics    *Metrics
	redis      redis.UniversalClient
	sweepers   []*sweep.Sweeper

	// failed backup redemptions, kept apart from endpoint counters
	backupThrottle *backup.Limiter

	// endpoints already reported as unconfigured
	unconfigured sync.Map
	closeOnce    sync.Once
}

// Close stops the background sweeps and flushes the audit dispatcher.
// It is idempotent.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		for _, s := range e.sweepers {
			s.Stop()
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// AuditDropped reports audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, started time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(started))
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock.Now()
}

func (e *Engine) log() *slog.Logger {
	if e == nil || e.logger == nil {
		return slog.Default()
	}
	return e.logger
}
