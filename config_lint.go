package goGate

import (
	"fmt"
	"sort"
	"time"
)

// LintWarning is one non-fatal configuration finding.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult lists the findings of [Config.Lint], sorted by code.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// Lint reports settings that are valid but risky in production. It never
// fails; call [Config.Validate] for hard errors.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if len(c.RateLimit.Policies) == 0 {
		add("rate_limits_empty", "no rate limit policies configured: every endpoint fails open")
	}
	for name, p := range c.RateLimit.Policies {
		if p.Window > 24*time.Hour {
			add("rate_window_long", "policy %q window %s exceeds 24h", name, p.Window)
		}
	}

	if c.Cleanup.Disabled {
		add("cleanup_disabled", "background sweeps disabled: memory stores grow until Sweep is called")
	}
	if c.MFA.SessionTTL > 30*time.Minute {
		add("mfa_session_ttl_long", "MFA SessionTTL %s exceeds 30m", c.MFA.SessionTTL)
	}
	if c.MFA.MaxAttempts > 10 {
		add("mfa_attempts_high", "MFA MaxAttempts %d allows brute forcing short codes", c.MFA.MaxAttempts)
	}
	if c.MFA.BackupCodeLength < 8 {
		add("backup_code_short", "BackupCodeLength %d is below 8", c.MFA.BackupCodeLength)
	}
	if c.MFA.BackupCodeMaxFailures == 0 {
		add("backup_throttle_disabled", "backup code redemption is not throttled")
	}
	if c.Assertion.Enabled && c.Assertion.TTL > 5*time.Minute {
		add("assertion_ttl_long", "Assertion TTL %s exceeds 5m", c.Assertion.TTL)
	}

	sort.SliceStable(ws, func(i, j int) bool { return ws[i].Code < ws[j].Code })
	return ws
}
