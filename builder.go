package goGate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrEthical07/goGate/internal/backup"
	"github.com/MrEthical07/goGate/internal/mfa"
	"github.com/MrEthical07/goGate/internal/rate"
	"github.com/MrEthical07/goGate/internal/sweep"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder can be used once.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	clock     Clock
	logger    *slog.Logger
	verifiers map[MFAMethod]Verifier
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config:    defaultConfig(),
		verifiers: make(map[MFAMethod]Verifier),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis switches every store to Redis so several processes share
// counters, sessions and backup codes. Without it, state is process-local
// and lost on restart.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithClock injects the time source used for windows and session expiry.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithVerifier registers v for method, replacing the placeholder.
func (b *Builder) WithVerifier(method MFAMethod, v Verifier) *Builder {
	b.verifiers[method] = v
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the stores and starts the
// cleanup sweeps. Call [Engine.Close] to stop them.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for method, v := range b.verifiers {
		if v == nil {
			return nil, errors.New("verifier for " + string(method) + " is nil")
		}
	}

	clock := b.clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gogate")

	// -------- STORES --------
	var (
		rateStore     rate.Store
		throttleStore rate.Store
		mfaStore      mfa.Store
		backupStore   backup.Store
		retention     = cfg.Cleanup.MFAInterval
	)
	if b.redis != nil {
		prefix := cfg.Store.RedisPrefix
		rateStore = rate.NewRedisStore(b.redis, prefix+"rl")
		throttleStore = rate.NewRedisStore(b.redis, prefix+"bkl")
		mfaStore = mfa.NewRedisStore(b.redis, prefix+"mfa")
		backupStore = backup.NewRedisStore(b.redis, prefix+"bk")
	} else {
		rateStore = rate.NewMemoryStore()
		throttleStore = rate.NewMemoryStore()
		mfaStore = mfa.NewMemoryStore()
		backupStore = backup.NewMemoryStore()
		logger.Warn("using in-memory stores; MFA sessions and counters are lost on restart and not shared between instances")
	}

	engine := &Engine{
		config:  cfg,
		clock:   clock,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
		redis:   b.redis,
	}

	engine.limiter = rate.New(rateStore, cfg.RateLimit.Policies, clock.Now)
	engine.mfa = mfa.NewManager(mfaStore, mfa.Config{
		Methods:     cfg.MFA.Methods,
		SessionTTL:  cfg.MFA.SessionTTL,
		MaxAttempts: cfg.MFA.MaxAttempts,
		Retention:   retention,
	}, b.verifiers, clock.Now)
	engine.backupThrottle = backup.NewLimiter(throttleStore, cfg.MFA.BackupCodeMaxFailures, cfg.MFA.BackupCodeCooldown, clock.Now)
	engine.backup = backup.NewManager(backupStore, engine.backupThrottle, cfg.MFA.BackupCodeLength)

	// -------- ASSERTIONS --------
	if cfg.Assertion.Enabled {
		jm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.Assertion.TTL,
			SigningMethod: jwt.SigningMethod(cfg.Assertion.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Assertion.PrivateKey),
			PublicKey:     cloneBytes(cfg.Assertion.PublicKey),
			Issuer:        cfg.Assertion.Issuer,
			Audience:      cfg.Assertion.Audience,
			Leeway:        cfg.Assertion.Leeway,
			Now:           clock.Now,
		})
		if err != nil {
			return nil, err
		}
		engine.assertions = jm
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	// -------- SWEEPERS --------
	if !cfg.Cleanup.Disabled {
		engine.sweepers = append(engine.sweepers,
			sweep.Start(cfg.Cleanup.RateLimitInterval, engine.sweepRateLimits, engine.sweepObserver("rate_limit", MetricSweepRateLimitEvicted)),
			sweep.Start(cfg.Cleanup.MFAInterval, engine.mfa.Sweep, engine.sweepObserver("mfa", MetricSweepMFAEvicted)),
		)
	}

	b.built = true

	return engine, nil
}

func (e *Engine) sweepObserver(name string, evicted MetricID) func(int, error) {
	return func(removed int, err error) {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			e.metricInc(MetricSweepError)
			e.log().Error("cleanup sweep failed", "sweep", name, "error", err)
			return
		}
		if e.metrics != nil {
			e.metrics.Add(evicted, uint64(removed))
		}
		if removed > 0 {
			e.log().Debug("cleanup sweep evicted entries", "sweep", name, "removed", removed)
		}
	}
}
