package goGate

import (
	"sort"
	"time"
)

// SecurityReport summarizes the effective posture of an engine for
// startup logs and admin endpoints.
type SecurityReport struct {
	Backend               string
	RateLimitedEndpoints  []string
	MFAMethods            []MFAMethod
	MFASessionTTL         time.Duration
	MFAMaxAttempts        int
	BackupCodeLength      int
	BackupThrottleActive  bool
	CleanupActive         bool
	AssertionsEnabled     bool
	AssertionAlgorithm    string
	AuditEnabled          bool
	LatencyMetricsEnabled bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	endpoints := make([]string, 0, len(e.config.RateLimit.Policies))
	for name := range e.config.RateLimit.Policies {
		endpoints = append(endpoints, name)
	}
	sort.Strings(endpoints)

	backend := "memory"
	if e.redis != nil {
		backend = "redis"
	}

	report := SecurityReport{
		Backend:               backend,
		RateLimitedEndpoints:  endpoints,
		MFAMethods:            append([]MFAMethod(nil), e.config.MFA.Methods...),
		MFASessionTTL:         e.config.MFA.SessionTTL,
		MFAMaxAttempts:        e.config.MFA.MaxAttempts,
		BackupCodeLength:      e.config.MFA.BackupCodeLength,
		BackupThrottleActive:  e.config.MFA.BackupCodeMaxFailures > 0,
		CleanupActive:         !e.config.Cleanup.Disabled,
		AssertionsEnabled:     e.assertions != nil,
		AuditEnabled:          e.config.Audit.Enabled,
		LatencyMetricsEnabled: e.metrics.LatencyEnabled(),
	}
	if report.AssertionsEnabled {
		report.AssertionAlgorithm = e.config.Assertion.SigningMethod
	}
	return report
}
