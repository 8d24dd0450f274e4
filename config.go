package goGate

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Config holds every tunable of an [Engine]. Build one with
// [DefaultConfig] or [HighSecurityConfig] and adjust fields before
// handing it to [Builder.WithConfig].
type Config struct {
	RateLimit RateLimitConfig
	MFA       MFAConfig
	Cleanup   CleanupConfig
	Store     StoreConfig
	Assertion AssertionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig maps logical endpoint names to their policy.
// Endpoints missing from Policies fail open.
type RateLimitConfig struct {
	Policies map[string]RateLimitPolicy
}

/*
====================================
MFA CONFIG
====================================
*/

// MFAConfig controls session lifetime, the attempt budget and backup codes.
type MFAConfig struct {
	Methods     []MFAMethod
	SessionTTL  time.Duration
	MaxAttempts int

	BackupCodeCount  int
	BackupCodeLength int
	// BackupCodeMaxFailures > 0 locks redemption for BackupCodeCooldown
	// after that many failures.
	BackupCodeMaxFailures int
	BackupCodeCooldown    time.Duration
}

/*
====================================
CLEANUP CONFIG
====================================
*/

// CleanupConfig sets the background sweep cadence.
type CleanupConfig struct {
	RateLimitInterval time.Duration
	MFAInterval       time.Duration
	Disabled          bool
}

// StoreConfig names the Redis key prefix used when the engine is built
// with a Redis client. Memory stores ignore it.
type StoreConfig struct {
	RedisPrefix string
}

/*
====================================
ASSERTION CONFIG
====================================
*/

// AssertionConfig controls the signed tokens minted for verified MFA
// sessions.
type AssertionConfig struct {
	Enabled       bool
	TTL           time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// Endpoint names used by [StandardPolicies].
const (
	EndpointLogin         = "login"
	EndpointMFAVerify     = "mfaVerify"
	EndpointBackupCode    = "backupCode"
	EndpointPasswordReset = "passwordReset"
	EndpointAPI           = "api"
)

// StandardPolicies returns a policy table covering the usual
// authentication endpoints.
func StandardPolicies() map[string]RateLimitPolicy {
	return map[string]RateLimitPolicy{
		EndpointLogin: {
			Window:                 15 * time.Minute,
			MaxRequests:            5,
			SkipSuccessfulRequests: true,
		},
		EndpointMFAVerify: {
			Window:      5 * time.Minute,
			MaxRequests: 10,
		},
		EndpointBackupCode: {
			Window:      15 * time.Minute,
			MaxRequests: 5,
		},
		EndpointPasswordReset: {
			Window:      time.Hour,
			MaxRequests: 3,
		},
		EndpointAPI: {
			Window:      time.Minute,
			MaxRequests: 100,
		},
	}
}

// DefaultConfig returns the baseline configuration: 15 minute MFA
// sessions with five attempts, ten backup codes and five minute sweeps.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			Policies: StandardPolicies(),
		},
		MFA: MFAConfig{
			Methods:          []MFAMethod{MFAMethodTOTP, MFAMethodSMS, MFAMethodEmail, MFAMethodBiometric},
			SessionTTL:       15 * time.Minute,
			MaxAttempts:      5,
			BackupCodeCount:  10,
			BackupCodeLength: 10,
		},
		Cleanup: CleanupConfig{
			RateLimitInterval: 5 * time.Minute,
			MFAInterval:       5 * time.Minute,
		},
		Store: StoreConfig{
			RedisPrefix: "gg",
		},
		Assertion: AssertionConfig{
			TTL:           2 * time.Minute,
			SigningMethod: "ed25519",
			Issuer:        "goGate",
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// HighSecurityConfig tightens the defaults: shorter sessions, three
// attempts, longer backup codes with a failure lockout and faster sweeps.
func HighSecurityConfig() Config {
	cfg := defaultConfig()

	cfg.MFA.SessionTTL = 5 * time.Minute
	cfg.MFA.MaxAttempts = 3
	cfg.MFA.BackupCodeLength = 12
	cfg.MFA.BackupCodeMaxFailures = 5
	cfg.MFA.BackupCodeCooldown = 15 * time.Minute

	cfg.Cleanup.RateLimitInterval = time.Minute
	cfg.Cleanup.MFAInterval = time.Minute

	login := cfg.RateLimit.Policies[EndpointLogin]
	login.MaxRequests = 3
	cfg.RateLimit.Policies[EndpointLogin] = login

	cfg.Audit.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.RateLimit.Policies != nil {
		out.RateLimit.Policies = make(map[string]RateLimitPolicy, len(cfg.RateLimit.Policies))
		for name, p := range cfg.RateLimit.Policies {
			out.RateLimit.Policies[name] = p
		}
	}
	out.MFA.Methods = append([]MFAMethod(nil), cfg.MFA.Methods...)
	out.Assertion.PrivateKey = cloneBytes(cfg.Assertion.PrivateKey)
	out.Assertion.PublicKey = cloneBytes(cfg.Assertion.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// Rate limiting
	for name, p := range c.RateLimit.Policies {
		if name == "" {
			return errors.New("RateLimit policy endpoint name must not be empty")
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("RateLimit policy %q: %w", name, err)
		}
	}

	// MFA
	if len(c.MFA.Methods) == 0 {
		return errors.New("MFA Methods must not be empty")
	}
	seen := make(map[MFAMethod]struct{}, len(c.MFA.Methods))
	for _, m := range c.MFA.Methods {
		if m == "" {
			return errors.New("MFA Methods must not contain an empty method")
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("MFA method %s listed twice", m)
		}
		seen[m] = struct{}{}
	}
	if c.MFA.SessionTTL <= 0 {
		return errors.New("MFA SessionTTL must be > 0")
	}
	if c.MFA.MaxAttempts < 1 || c.MFA.MaxAttempts > math.MaxUint16 {
		return errors.New("MFA MaxAttempts must be between 1 and 65535")
	}
	if c.MFA.BackupCodeCount < 1 {
		return errors.New("MFA BackupCodeCount must be >= 1")
	}
	if c.MFA.BackupCodeLength < 6 {
		return errors.New("MFA BackupCodeLength must be >= 6")
	}
	if c.MFA.BackupCodeMaxFailures < 0 {
		return errors.New("MFA BackupCodeMaxFailures must be >= 0")
	}
	if c.MFA.BackupCodeMaxFailures > 0 && c.MFA.BackupCodeCooldown <= 0 {
		return errors.New("MFA BackupCodeCooldown must be > 0 when BackupCodeMaxFailures is set")
	}

	// Cleanup
	if !c.Cleanup.Disabled {
		if c.Cleanup.RateLimitInterval <= 0 {
			return errors.New("Cleanup RateLimitInterval must be > 0")
		}
		if c.Cleanup.MFAInterval <= 0 {
			return errors.New("Cleanup MFAInterval must be > 0")
		}
	}

	// Assertions
	if c.Assertion.Enabled {
		if c.Assertion.TTL <= 0 {
			return errors.New("Assertion TTL must be > 0")
		}
		if c.Assertion.Leeway < 0 {
			return errors.New("Assertion Leeway must be >= 0")
		}
		switch c.Assertion.SigningMethod {
		case "ed25519":
			if len(c.Assertion.PrivateKey) == 0 || len(c.Assertion.PublicKey) == 0 {
				return errors.New("ed25519 requires PrivateKey and PublicKey")
			}
		case "hs256":
			if len(c.Assertion.PrivateKey) == 0 {
				return errors.New("hs256 requires PrivateKey")
			}
		default:
			return errors.New("unsupported Assertion signing method")
		}
	}

	if c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}

	return nil
}
